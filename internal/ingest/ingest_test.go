package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"newsalpha/internal/client/markets"
	"newsalpha/internal/client/social"
	"newsalpha/internal/config"
	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

type ingestStore struct {
	repository.Store

	markets []models.Market
	tweets  []models.Tweet
	pruned  int
}

func (s *ingestStore) PruneExpiredMarkets(ctx context.Context, now time.Time) (int64, error) {
	s.pruned++
	return 0, nil
}

func (s *ingestStore) InsertMarkets(ctx context.Context, items []models.Market) (int64, error) {
	s.markets = append(s.markets, items...)
	return int64(len(items)), nil
}

func (s *ingestStore) InsertTweets(ctx context.Context, items []models.Tweet) (int64, error) {
	s.tweets = append(s.tweets, items...)
	return int64(len(items)), nil
}

type fakeCatalogueAPI struct {
	raws []markets.RawMarket
	err  error
}

func (f *fakeCatalogueAPI) ListMarkets(ctx context.Context, params markets.ListParams) ([]markets.RawMarket, error) {
	return f.raws, f.err
}

type fakeEmbedder struct {
	vector []float64
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i := range out {
		out[i] = f.vector
	}
	return out, nil
}

func rawMarket(id, question string) markets.RawMarket {
	return markets.RawMarket{
		ID:            id,
		Question:      question,
		Slug:          "slug-" + id,
		OutcomePrices: `["0.6", "0.4"]`,
		EndDate:       "2030-01-01T00:00:00Z",
	}
}

func TestCatalogSyncConvertsAndEmbeds(t *testing.T) {
	store := &ingestStore{}
	sync := &CatalogSync{
		Store:    store,
		Client:   &fakeCatalogueAPI{raws: []markets.RawMarket{rawMarket("m1", "Will it rain?")}},
		Embedder: &fakeEmbedder{vector: []float64{0.1, 0.2}},
		Config:   config.CatalogueConfig{},
		Logger:   zap.NewNop(),
	}

	inserted, err := sync.Sync(context.Background(), time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if inserted != 1 || len(store.markets) != 1 {
		t.Fatalf("inserted = %d, stored = %d; want 1", inserted, len(store.markets))
	}
	if store.pruned != 1 {
		t.Fatalf("expected one prune pass")
	}

	got := store.markets[0]
	if got.YesPrice.String() != "0.6" || got.NoPrice.String() != "0.4" {
		t.Fatalf("prices = %s/%s", got.YesPrice, got.NoPrice)
	}
	if got.EmbeddingText != "Question: Will it rain?\nDescription: " {
		t.Fatalf("embedding text = %q", got.EmbeddingText)
	}
	if len(got.Embedding) != 2 {
		t.Fatalf("embedding not attached: %v", got.Embedding)
	}
	if !got.Active {
		t.Fatalf("ingested market must be active")
	}
}

func TestCatalogSyncSkipsUnparseableRecords(t *testing.T) {
	bad := rawMarket("m-bad", "Broken?")
	bad.OutcomePrices = "not json"
	store := &ingestStore{}
	sync := &CatalogSync{
		Store:  store,
		Client: &fakeCatalogueAPI{raws: []markets.RawMarket{bad, rawMarket("m-ok", "Fine?")}},
		Logger: zap.NewNop(),
	}

	inserted, err := sync.Sync(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if inserted != 1 || store.markets[0].ID != "m-ok" {
		t.Fatalf("want only m-ok stored, got %d rows", len(store.markets))
	}
}

type fakeSocialAPI struct {
	byAccount map[string][]social.RawTweet
	errFor    map[string]error
}

func (f *fakeSocialAPI) SearchAccount(ctx context.Context, account string, since, until time.Time) ([]social.RawTweet, error) {
	if err, ok := f.errFor[account]; ok {
		return nil, err
	}
	return f.byAccount[account], nil
}

func rawTweet(id, text string) social.RawTweet {
	t := social.RawTweet{
		ID:        id,
		Text:      text,
		URL:       "https://x.com/s/" + id,
		CreatedAt: "Mon Jan 02 15:04:05 +0000 2006",
		LikeCount: 3,
	}
	t.Author.Name = "Reporter"
	return t
}

func TestTweetIngestSkipsFailingAccount(t *testing.T) {
	store := &ingestStore{}
	ingest := &TweetIngest{
		Store: store,
		Client: &fakeSocialAPI{
			byAccount: map[string][]social.RawTweet{"alive": {rawTweet("t1", "news")}},
			errFor:    map[string]error{"down": errors.New("rate limited")},
		},
		Accounts: []string{"down", "alive"},
		Logger:   zap.NewNop(),
	}

	inserted, err := ingest.Ingest(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if inserted != 1 || len(store.tweets) != 1 {
		t.Fatalf("inserted = %d, want 1 from the healthy account", inserted)
	}
	if store.tweets[0].AuthorName != "Reporter" {
		t.Fatalf("author not carried over: %+v", store.tweets[0])
	}
}

func TestTweetIngestSkipsBadTimestamps(t *testing.T) {
	bad := rawTweet("t-bad", "x")
	bad.CreatedAt = "yesterday"
	store := &ingestStore{}
	ingest := &TweetIngest{
		Store: store,
		Client: &fakeSocialAPI{byAccount: map[string][]social.RawTweet{
			"acct": {bad, rawTweet("t-ok", "y")},
		}},
		Accounts: []string{"acct"},
		Logger:   zap.NewNop(),
	}

	inserted, err := ingest.Ingest(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if inserted != 1 || store.tweets[0].ID != "t-ok" {
		t.Fatalf("want only t-ok stored, got %d rows", len(store.tweets))
	}
}

func TestTweetIngestEmptyBatch(t *testing.T) {
	ingest := &TweetIngest{
		Store:    &ingestStore{},
		Client:   &fakeSocialAPI{},
		Accounts: []string{"quiet"},
		Logger:   zap.NewNop(),
	}
	inserted, err := ingest.Ingest(context.Background(), time.Now().Add(-time.Hour), time.Now())
	if err != nil || inserted != 0 {
		t.Fatalf("inserted = %d, err = %v; want 0, nil", inserted, err)
	}
}
