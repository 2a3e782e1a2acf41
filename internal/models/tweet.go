package models

import (
	"time"

	"gorm.io/datatypes"
)

// Tweet is an ingested news item. Processed flips to true exactly once, when
// correlation has been attempted, whatever the outcome. The embedding is
// generated lazily during adjudication.
type Tweet struct {
	ID           string         `gorm:"primaryKey;type:text"`
	Text         string         `gorm:"type:text;not null"`
	URL          string         `gorm:"type:text;not null"`
	AuthorName   string         `gorm:"type:text"`
	AuthorURL    string         `gorm:"type:text"`
	CreatedAt    time.Time      `gorm:"type:timestamptz;not null"`
	LikeCount    int            `gorm:"not null;default:0"`
	RetweetCount int            `gorm:"not null;default:0"`
	ReplyCount   int            `gorm:"not null;default:0"`
	Embedding    Vector         `gorm:"type:jsonb"`
	Processed    bool           `gorm:"not null;default:false;index"`
	RawJSON      datatypes.JSON `gorm:"type:jsonb"`
}

func (Tweet) TableName() string {
	return "tweets"
}
