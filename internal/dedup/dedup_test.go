package dedup

import (
	"context"
	"errors"
	"testing"

	"newsalpha/internal/judge"
	"newsalpha/internal/models"
)

type stubJudge struct {
	groups [][]string
	err    error
	calls  int
}

func (s *stubJudge) ScoreMarkets(ctx context.Context, tweetText string, candidates []judge.Candidate) ([]judge.MarketScore, error) {
	return nil, nil
}

func (s *stubJudge) GroupDuplicates(ctx context.Context, tweets []judge.TweetRef) ([][]string, error) {
	s.calls++
	return s.groups, s.err
}

func tweet(id string, likes, retweets, replies int) models.Tweet {
	return models.Tweet{ID: id, Text: "text " + id, LikeCount: likes, RetweetCount: retweets, ReplyCount: replies}
}

func ids(tweets []models.Tweet) []string {
	out := make([]string, 0, len(tweets))
	for _, t := range tweets {
		out = append(out, t.ID)
	}
	return out
}

func TestDedupeKeepsHighestEngagement(t *testing.T) {
	d := &Deduplicator{Judge: &stubJudge{groups: [][]string{{"A", "B"}}}}
	batch := []models.Tweet{
		tweet("A", 10, 0, 0), // weight 10
		tweet("B", 10, 5, 0), // weight 20
		tweet("C", 0, 0, 0),
	}
	got := d.Dedupe(context.Background(), batch)
	want := []string{"B", "C"}
	gotIDs := ids(got)
	if len(gotIDs) != len(want) {
		t.Fatalf("got %v, want %v", gotIDs, want)
	}
	for i := range want {
		if gotIDs[i] != want[i] {
			t.Fatalf("got %v, want %v", gotIDs, want)
		}
	}
}

func TestDedupeTieKeepsFirstSeen(t *testing.T) {
	d := &Deduplicator{Judge: &stubJudge{groups: [][]string{{"B", "A"}}}}
	batch := []models.Tweet{
		tweet("A", 5, 0, 0),
		tweet("B", 5, 0, 0),
	}
	got := d.Dedupe(context.Background(), batch)
	if len(got) != 1 || got[0].ID != "A" {
		t.Fatalf("got %v, want [A]", ids(got))
	}
}

func TestDedupeJudgeFailurePassthrough(t *testing.T) {
	d := &Deduplicator{Judge: &stubJudge{err: errors.New("upstream down")}}
	batch := []models.Tweet{tweet("A", 1, 0, 0), tweet("B", 2, 0, 0)}
	got := d.Dedupe(context.Background(), batch)
	if len(got) != 2 {
		t.Fatalf("expected passthrough on judge failure, got %v", ids(got))
	}
}

func TestDedupeSingleTweetSkipsJudge(t *testing.T) {
	stub := &stubJudge{groups: [][]string{{"A", "B"}}}
	d := &Deduplicator{Judge: stub}
	batch := []models.Tweet{tweet("A", 1, 0, 0)}
	got := d.Dedupe(context.Background(), batch)
	if len(got) != 1 {
		t.Fatalf("got %v, want [A]", ids(got))
	}
	if stub.calls != 0 {
		t.Fatalf("judge called %d times for a single-item batch", stub.calls)
	}
}

func TestDedupeIgnoresUnknownIDs(t *testing.T) {
	d := &Deduplicator{Judge: &stubJudge{groups: [][]string{{"A", "ghost"}, {"x", "y"}}}}
	batch := []models.Tweet{tweet("A", 1, 0, 0), tweet("B", 2, 0, 0)}
	got := d.Dedupe(context.Background(), batch)
	if len(got) != 2 {
		t.Fatalf("groups with unknown ids must not discard anything, got %v", ids(got))
	}
}

func TestEngagementWeights(t *testing.T) {
	d := &Deduplicator{}
	got := d.Engagement(tweet("A", 3, 2, 1))
	if got != 3+2*2+1 {
		t.Fatalf("Engagement = %d, want %d", got, 3+2*2+1)
	}
}
