package correlation

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"newsalpha/internal/config"
	"newsalpha/internal/judge"
	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

type fakeStore struct {
	repository.Store

	tweets    []models.Tweet
	catalogue []models.Market

	processed    map[string]int
	correlations map[[2]string]models.Correlation
	embeddings   map[string]models.Vector
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		processed:    map[string]int{},
		correlations: map[[2]string]models.Correlation{},
		embeddings:   map[string]models.Vector{},
	}
}

func (f *fakeStore) ListUnprocessedTweets(ctx context.Context) ([]models.Tweet, error) {
	return f.tweets, nil
}

func (f *fakeStore) ListActiveMarketsWithEmbeddings(ctx context.Context) ([]models.Market, error) {
	return f.catalogue, nil
}

func (f *fakeStore) MarkTweetProcessed(ctx context.Context, tweetID string) error {
	f.processed[tweetID]++
	return nil
}

func (f *fakeStore) UpdateTweetEmbedding(ctx context.Context, tweetID string, embedding models.Vector) error {
	f.embeddings[tweetID] = embedding
	return nil
}

func (f *fakeStore) UpsertCorrelation(ctx context.Context, item *models.Correlation) error {
	key := [2]string{item.TweetID, item.MarketID}
	if _, exists := f.correlations[key]; exists {
		return nil // conflict: keep the existing row
	}
	f.correlations[key] = *item
	return nil
}

type scriptedJudge struct {
	scores []judge.MarketScore
	err    error
}

func (s *scriptedJudge) ScoreMarkets(ctx context.Context, tweetText string, candidates []judge.Candidate) ([]judge.MarketScore, error) {
	return s.scores, s.err
}

func (s *scriptedJudge) GroupDuplicates(ctx context.Context, tweets []judge.TweetRef) ([][]string, error) {
	return nil, nil
}

type fixedEmbedder struct {
	vector []float64
	err    error
}

func (f *fixedEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

func market(id string, emb ...float64) models.Market {
	return models.Market{ID: id, Question: "q-" + id, EmbeddingText: "ctx-" + id, Embedding: emb, Active: true}
}

func TestTopCandidatesOrderingAndStableTies(t *testing.T) {
	catalogue := []models.Market{
		market("far", 0, 1),
		market("tie-first", 1, 0),
		market("tie-second", 2, 0),
		market("close", 1, 0.1),
	}
	top := TopCandidates([]float64{1, 0}, catalogue, 3)
	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	// Both ties score exactly 1.0 and must keep catalogue order.
	if top[0].Market.ID != "tie-first" || top[1].Market.ID != "tie-second" {
		t.Fatalf("tie order broken: %s, %s", top[0].Market.ID, top[1].Market.ID)
	}
	if top[2].Market.ID != "close" {
		t.Fatalf("third = %s, want close", top[2].Market.ID)
	}
}

func TestTopCandidatesEmptyEmbedding(t *testing.T) {
	if got := TopCandidates(nil, []models.Market{market("m", 1)}, 5); got != nil {
		t.Fatalf("expected nil for missing embedding, got %v", got)
	}
}

func newEngine(store *fakeStore, j judge.Judge, e *fixedEmbedder) *Engine {
	return &Engine{
		Store:    store,
		Judge:    j,
		Embedder: e,
		Config:   config.CorrelationConfig{CandidateCount: 50, StorageFloor: 0.6},
		Logger:   zap.NewNop(),
	}
}

func TestProcessTweetStoresAboveFloorAndMarksProcessed(t *testing.T) {
	store := newFakeStore()
	store.catalogue = []models.Market{market("m1", 1, 0), market("m2", 0, 1)}
	j := &scriptedJudge{scores: []judge.MarketScore{
		{MarketID: "m1", Relevance: 0.8, RelevanceReason: "direct", Urgency: 0.5, UrgencyReason: "soon"},
		{MarketID: "m2", Relevance: 0.4, RelevanceReason: "weak", Urgency: 0.9, UrgencyReason: "fast"},
	}}
	engine := newEngine(store, j, &fixedEmbedder{vector: []float64{1, 0}})

	tweet := models.Tweet{ID: "t1", Text: "breaking"}
	stored := engine.ProcessTweet(context.Background(), tweet, store.catalogue)

	if stored != 1 {
		t.Fatalf("stored = %d, want 1 (0.4 is below the storage floor)", stored)
	}
	if _, ok := store.correlations[[2]string{"t1", "m1"}]; !ok {
		t.Fatalf("expected correlation (t1, m1)")
	}
	if store.processed["t1"] != 1 {
		t.Fatalf("processed count = %d, want 1", store.processed["t1"])
	}
	if len(store.embeddings["t1"]) == 0 {
		t.Fatalf("lazily generated embedding was not persisted")
	}
}

func TestProcessTweetIdempotentAcrossReruns(t *testing.T) {
	store := newFakeStore()
	store.catalogue = []models.Market{market("m1", 1, 0)}
	j := &scriptedJudge{scores: []judge.MarketScore{
		{MarketID: "m1", Relevance: 0.9, Urgency: 0.9},
	}}
	engine := newEngine(store, j, &fixedEmbedder{vector: []float64{1, 0}})

	tweet := models.Tweet{ID: "t1", Text: "breaking", Embedding: models.Vector{1, 0}}
	engine.ProcessTweet(context.Background(), tweet, store.catalogue)
	engine.ProcessTweet(context.Background(), tweet, store.catalogue)

	if len(store.correlations) != 1 {
		t.Fatalf("correlation rows = %d, want 1 after re-run", len(store.correlations))
	}
}

func TestProcessTweetJudgeFailureStillMarksProcessed(t *testing.T) {
	store := newFakeStore()
	store.catalogue = []models.Market{market("m1", 1, 0)}
	engine := newEngine(store, &scriptedJudge{err: errors.New("model timeout")}, &fixedEmbedder{vector: []float64{1, 0}})

	stored := engine.ProcessTweet(context.Background(), models.Tweet{ID: "t1", Text: "x"}, store.catalogue)
	if stored != 0 {
		t.Fatalf("stored = %d, want 0", stored)
	}
	if store.processed["t1"] != 1 {
		t.Fatalf("tweet must be marked processed even when adjudication fails")
	}
	if len(store.correlations) != 0 {
		t.Fatalf("no correlations expected on judge failure")
	}
}

func TestProcessTweetNoEmbeddingStillMarksProcessed(t *testing.T) {
	store := newFakeStore()
	store.catalogue = []models.Market{market("m1", 1, 0)}
	engine := newEngine(store, &scriptedJudge{}, &fixedEmbedder{err: errors.New("embed down")})

	stored := engine.ProcessTweet(context.Background(), models.Tweet{ID: "t1", Text: "x"}, store.catalogue)
	if stored != 0 {
		t.Fatalf("stored = %d, want 0", stored)
	}
	if store.processed["t1"] != 1 {
		t.Fatalf("tweet must be marked processed when no embedding is available")
	}
}
