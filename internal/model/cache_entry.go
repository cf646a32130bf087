package model

import "time"

// CacheEntry holds one cached static resource inside a versioned bucket.
// Entries are superseded wholesale on activation, never mutated in place.
type CacheEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Version     string    `gorm:"size:100;not null;uniqueIndex:idx_version_url" json:"version"`
	URL         string    `gorm:"size:2048;not null;uniqueIndex:idx_version_url" json:"url"`
	ContentType string    `gorm:"size:255" json:"contentType"`
	Body        []byte    `gorm:"type:blob" json:"-"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (CacheEntry) TableName() string {
	return "cache_entries"
}

type CacheBucketState string

const (
	BucketStaged CacheBucketState = "staged"
	BucketActive CacheBucketState = "active"
)

// CacheBucket tracks the lifecycle of one cache generation. Exactly one
// bucket is active at a time once activation has completed.
type CacheBucket struct {
	Version   string           `gorm:"primaryKey;size:100" json:"version"`
	State     CacheBucketState `gorm:"size:20;not null" json:"state"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

func (CacheBucket) TableName() string {
	return "cache_buckets"
}
