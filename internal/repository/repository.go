package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"newsalpha/internal/models"
)

// CorrelationRow is the read model consumed by the prioritizer: one unsent
// correlation joined with its tweet and market.
type CorrelationRow struct {
	CorrelationID   uint64
	Relevance       float64
	RelevanceReason string
	Urgency         float64
	UrgencyReason   string

	TweetID        string
	TweetText      string
	TweetURL       string
	TweetAuthor    string
	TweetCreatedAt time.Time
	TweetEmbedding models.Vector

	MarketID      string
	Question      string
	MarketURL     string
	ParentEventID *string
	ImageURL      *string
	YesPrice      decimal.Decimal
	NoPrice       decimal.Decimal
}

// Store is the persistence contract for the correlation pipeline. Writes
// that can race with re-runs (market/tweet inserts, correlation upserts) are
// idempotent on their natural keys.
type Store interface {
	// Catalogue.
	InsertMarkets(ctx context.Context, items []models.Market) (int64, error)
	PruneExpiredMarkets(ctx context.Context, now time.Time) (int64, error)
	ListActiveMarketsWithEmbeddings(ctx context.Context) ([]models.Market, error)
	ListMarketsByIDs(ctx context.Context, ids []string) ([]models.Market, error)
	UpdateMarketPrices(ctx context.Context, marketID string, yes, no decimal.Decimal) error

	// News items.
	InsertTweets(ctx context.Context, items []models.Tweet) (int64, error)
	ListUnprocessedTweets(ctx context.Context) ([]models.Tweet, error)
	MarkTweetProcessed(ctx context.Context, tweetID string) error
	UpdateTweetEmbedding(ctx context.Context, tweetID string, embedding models.Vector) error

	// Correlations.
	UpsertCorrelation(ctx context.Context, item *models.Correlation) error
	ListUnsentCorrelationRows(ctx context.Context) ([]CorrelationRow, error)
	MarkCorrelationSent(ctx context.Context, correlationID uint64) error

	// Subscriptions.
	UpsertSubscription(ctx context.Context, item *models.Subscription) error
	DeactivateSubscription(ctx context.Context, channelID string) error
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	ListSubscribedChannels(ctx context.Context) ([]string, error)

	// Cycle bookkeeping.
	NextCycleNumber(ctx context.Context) (int64, error)
	InsertCycleRecord(ctx context.Context, item *models.CycleRecord) error
	FinalizeCycleRecord(ctx context.Context, item *models.CycleRecord) error
	ListRecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error)
}
