package models

import "time"

// Subscription is a destination channel for alert broadcasts.
type Subscription struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	GuildID   string    `gorm:"type:text;not null"`
	ChannelID string    `gorm:"type:text;not null;uniqueIndex"`
	Active    bool      `gorm:"not null;default:true;index"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}
