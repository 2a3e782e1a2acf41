package models

import "time"

const (
	CycleStatusPending = "PENDING"
	CycleStatusSuccess = "SUCCESS"
	CycleStatusFailed  = "FAILED"
)

// CycleRecord is the per-cycle outcome log. A row is written when the cycle
// starts and finalized whether the cycle succeeds or fails; failures are
// visible here rather than through process exits.
type CycleRecord struct {
	ID                uint64     `gorm:"primaryKey;autoIncrement"`
	RunID             string     `gorm:"type:text;not null;uniqueIndex"`
	Number            int64      `gorm:"not null;index"`
	StartedAt         time.Time  `gorm:"type:timestamptz;not null"`
	FinishedAt        *time.Time `gorm:"type:timestamptz"`
	Status            string     `gorm:"type:varchar(20);not null"`
	Note              string     `gorm:"type:text"`
	TweetsFetched     int        `gorm:"not null;default:0"`
	MarketsFetched    int        `gorm:"not null;default:0"`
	CorrelationsFound int        `gorm:"not null;default:0"`
	PackagesSent      int        `gorm:"not null;default:0"`
}

func (CycleRecord) TableName() string {
	return "cycle_records"
}
