package gormrepository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"newsalpha/internal/models"
	"newsalpha/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// --- Catalogue --------------------------------------------------------------

func (s *Store) InsertMarkets(ctx context.Context, items []models.Market) (int64, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&items)
	return res.RowsAffected, res.Error
}

func (s *Store) PruneExpiredMarkets(ctx context.Context, now time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("active = ?", true).
		Where("end_date < ?", now).
		Update("active", false)
	return res.RowsAffected, res.Error
}

func (s *Store) ListActiveMarketsWithEmbeddings(ctx context.Context) ([]models.Market, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Market
	err := s.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("active = ?", true).
		Where("embedding IS NOT NULL").
		Order("last_seen_at asc, id asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListMarketsByIDs(ctx context.Context, ids []string) ([]models.Market, error) {
	if s == nil || s.db == nil || len(ids) == 0 {
		return nil, nil
	}
	var items []models.Market
	err := s.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("id IN ?", ids).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) UpdateMarketPrices(ctx context.Context, marketID string, yes, no decimal.Decimal) error {
	if s == nil || s.db == nil || marketID == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ?", marketID).
		Updates(map[string]any{
			"yes_price": yes,
			"no_price":  no,
		}).Error
}

// --- News items -------------------------------------------------------------

func (s *Store) InsertTweets(ctx context.Context, items []models.Tweet) (int64, error) {
	if s == nil || s.db == nil || len(items) == 0 {
		return 0, nil
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(&items)
	return res.RowsAffected, res.Error
}

func (s *Store) ListUnprocessedTweets(ctx context.Context) ([]models.Tweet, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Tweet
	err := s.db.WithContext(ctx).
		Model(&models.Tweet{}).
		Where("processed = ?", false).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) MarkTweetProcessed(ctx context.Context, tweetID string) error {
	if s == nil || s.db == nil || tweetID == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Tweet{}).
		Where("id = ?", tweetID).
		Update("processed", true).Error
}

func (s *Store) UpdateTweetEmbedding(ctx context.Context, tweetID string, embedding models.Vector) error {
	if s == nil || s.db == nil || tweetID == "" || len(embedding) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Tweet{}).
		Where("id = ?", tweetID).
		Update("embedding", embedding).Error
}

// --- Correlations -----------------------------------------------------------

// UpsertCorrelation inserts a correlation row and silently keeps the existing
// row when the (tweet_id, market_id) pair is already present.
func (s *Store) UpsertCorrelation(ctx context.Context, item *models.Correlation) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tweet_id"}, {Name: "market_id"}},
		DoNothing: true,
	}).Create(item).Error
}

func (s *Store) ListUnsentCorrelationRows(ctx context.Context) ([]repository.CorrelationRow, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var rows []repository.CorrelationRow
	err := s.db.WithContext(ctx).
		Table("correlations AS c").
		Select(`c.id AS correlation_id,
			c.relevance,
			c.relevance_reason,
			c.urgency,
			c.urgency_reason,
			t.id AS tweet_id,
			t.text AS tweet_text,
			t.url AS tweet_url,
			t.author_name AS tweet_author,
			t.created_at AS tweet_created_at,
			t.embedding AS tweet_embedding,
			m.id AS market_id,
			m.question,
			m.url AS market_url,
			m.parent_event_id,
			m.image_url,
			m.yes_price,
			m.no_price`).
		Joins("JOIN tweets t ON t.id = c.tweet_id").
		Joins("JOIN markets m ON m.id = c.market_id").
		Where("c.sent = ?", false).
		Order("c.relevance DESC, t.created_at DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) MarkCorrelationSent(ctx context.Context, correlationID uint64) error {
	if s == nil || s.db == nil || correlationID == 0 {
		return nil
	}
	now := time.Now().UTC()
	return s.db.WithContext(ctx).
		Model(&models.Correlation{}).
		Where("id = ?", correlationID).
		Where("sent = ?", false).
		Updates(map[string]any{
			"sent":    true,
			"sent_at": now,
		}).Error
}

// --- Subscriptions ----------------------------------------------------------

func (s *Store) UpsertSubscription(ctx context.Context, item *models.Subscription) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "channel_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"guild_id", "active"}),
	}).Create(item).Error
}

func (s *Store) DeactivateSubscription(ctx context.Context, channelID string) error {
	if s == nil || s.db == nil || channelID == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("channel_id = ?", channelID).
		Update("active", false).Error
}

func (s *Store) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Subscription
	err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Order("created_at asc").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) ListSubscribedChannels(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var channels []string
	err := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("active = ?", true).
		Order("created_at asc").
		Pluck("channel_id", &channels).Error
	if err != nil {
		return nil, err
	}
	return channels, nil
}

// --- Cycle bookkeeping ------------------------------------------------------

func (s *Store) NextCycleNumber(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 1, nil
	}
	var max int64
	err := s.db.WithContext(ctx).
		Model(&models.CycleRecord{}).
		Select("COALESCE(MAX(number), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max + 1, nil
}

func (s *Store) InsertCycleRecord(ctx context.Context, item *models.CycleRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) FinalizeCycleRecord(ctx context.Context, item *models.CycleRecord) error {
	if s == nil || s.db == nil || item == nil || item.RunID == "" {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.CycleRecord{}).
		Where("run_id = ?", item.RunID).
		Updates(map[string]any{
			"finished_at":        item.FinishedAt,
			"status":             item.Status,
			"note":               item.Note,
			"tweets_fetched":     item.TweetsFetched,
			"markets_fetched":    item.MarketsFetched,
			"correlations_found": item.CorrelationsFound,
			"packages_sent":      item.PackagesSent,
		}).Error
}

func (s *Store) ListRecentCycles(ctx context.Context, limit int) ([]models.CycleRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var items []models.CycleRecord
	err := s.db.WithContext(ctx).
		Model(&models.CycleRecord{}).
		Order("number desc").
		Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}
