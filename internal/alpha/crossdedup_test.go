package alpha

import (
	"testing"

	"newsalpha/internal/models"
)

func pkg(tweetID string, embedding []float64) Package {
	return Package{TweetID: tweetID, TweetEmbedding: models.Vector(embedding)}
}

func TestFilterDuplicatePackages(t *testing.T) {
	v1 := []float64{1, 0}
	v2 := []float64{0.97, 0.2431} // cosine 0.97 against v1
	v3 := []float64{0.40, 0.9165} // cosine 0.40 against v1

	got := FilterDuplicatePackages([]Package{
		pkg("p1", v1),
		pkg("p2", v2),
		pkg("p3", v3),
	}, 0.95, nil)

	if len(got) != 2 {
		t.Fatalf("accepted = %d, want 2", len(got))
	}
	if got[0].TweetID != "p1" || got[1].TweetID != "p3" {
		t.Fatalf("accepted = %s, %s; want p1, p3", got[0].TweetID, got[1].TweetID)
	}
}

func TestFilterAcceptsMissingEmbedding(t *testing.T) {
	got := FilterDuplicatePackages([]Package{
		pkg("p1", []float64{1, 0}),
		pkg("p2", nil),
		pkg("p3", []float64{1, 0}),
	}, 0.95, nil)

	if len(got) != 2 {
		t.Fatalf("accepted = %d, want 2", len(got))
	}
	if got[0].TweetID != "p1" || got[1].TweetID != "p2" {
		t.Fatalf("missing-embedding package must pass: got %s, %s", got[0].TweetID, got[1].TweetID)
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	got := FilterDuplicatePackages([]Package{
		pkg("a", []float64{1, 0}),
		pkg("b", []float64{0, 1}),
		pkg("c", []float64{-1, 0.1}),
	}, 0.95, nil)
	if len(got) != 3 {
		t.Fatalf("accepted = %d, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].TweetID != want {
			t.Fatalf("order broken at %d: %s want %s", i, got[i].TweetID, want)
		}
	}
}
