package database

import (
	"log"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/config"
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitStore opens the embedded durable store. Everything the engine must
// keep across restarts lives here: the cached catalog snapshot, the
// attempt in progress, the pending-operation queue and the asset cache
// buckets.
func InitStore(cfg *config.StoreConfig) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	log.Println("Local store opened")

	err = db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.PendingOperation{},
		&model.CacheEntry{},
		&model.CacheBucket{},
	)
	if err != nil {
		return nil, err
	}

	log.Println("Local store migration completed")

	return db, nil
}
