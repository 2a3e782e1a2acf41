package db

import (
	"newsalpha/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Market{},
		&models.Tweet{},
		&models.Correlation{},
		&models.Subscription{},
		&models.CycleRecord{},
	)
}
