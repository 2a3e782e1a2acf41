package models

import "time"

// Correlation is a scored link between one tweet and one market. The
// (tweet_id, market_id) pair is unique; re-adjudicating the same pair is a
// no-op. Sent flips to true exactly once, after a delivery attempt.
type Correlation struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement"`
	TweetID         string     `gorm:"type:text;not null;uniqueIndex:uniq_correlation_pair;index"`
	MarketID        string     `gorm:"type:text;not null;uniqueIndex:uniq_correlation_pair"`
	Relevance       float64    `gorm:"not null"`
	RelevanceReason string     `gorm:"type:text"`
	Urgency         float64    `gorm:"not null"`
	UrgencyReason   string     `gorm:"type:text"`
	Sent            bool       `gorm:"not null;default:false;index"`
	SentAt          *time.Time `gorm:"type:timestamptz"`
	CreatedAt       time.Time  `gorm:"type:timestamptz;autoCreateTime"`
}

func (Correlation) TableName() string {
	return "correlations"
}
