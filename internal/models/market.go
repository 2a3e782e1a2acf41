package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Market is one catalogue entry: a two-outcome prediction-market question.
// Rows are never deleted; expiry flips Active to false and price refreshes
// mutate YesPrice/NoPrice in place.
type Market struct {
	ID            string          `gorm:"primaryKey;type:text"`
	Question      string          `gorm:"type:text;not null"`
	Slug          string          `gorm:"type:text"`
	URL           string          `gorm:"type:text;not null"`
	ParentEventID *string         `gorm:"type:text;index"`
	ImageURL      *string         `gorm:"type:text"`
	YesPrice      decimal.Decimal `gorm:"type:numeric(12,8);not null;default:0"`
	NoPrice       decimal.Decimal `gorm:"type:numeric(12,8);not null;default:0"`
	EndDate       time.Time       `gorm:"type:timestamptz;not null"`
	EmbeddingText string          `gorm:"type:text"`
	Embedding     Vector          `gorm:"type:jsonb"`
	Active        bool            `gorm:"not null;default:true;index"`
	LastSeenAt    time.Time       `gorm:"type:timestamptz;not null"`
	RawJSON       datatypes.JSON  `gorm:"type:jsonb"`
}

func (Market) TableName() string {
	return "markets"
}
