package repository

import (
	"testing"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.PendingOperation{},
		&model.CacheEntry{},
		&model.CacheBucket{},
	); err != nil {
		t.Fatalf("migrate store: %v", err)
	}
	return db
}
