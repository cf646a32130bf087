package repository

import (
	"errors"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"

	"gorm.io/gorm"
)

type CacheRepository struct {
	DB *gorm.DB
}

func NewCacheRepository(db *gorm.DB) *CacheRepository {
	return &CacheRepository{DB: db}
}

func (r *CacheRepository) CreateBucket(version string) error {
	return r.DB.Create(&model.CacheBucket{Version: version, State: model.BucketStaged}).Error
}

func (r *CacheRepository) PutEntry(entry *model.CacheEntry) error {
	return r.DB.Save(entry).Error
}

func (r *CacheRepository) FindEntry(version, url string) (*model.CacheEntry, error) {
	var entry model.CacheEntry
	err := r.DB.Where("version = ? AND url = ?", version, url).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// DropBucket removes a bucket and all its entries, used both to roll back
// a failed install and to garbage-collect superseded generations.
func (r *CacheRepository) DropBucket(version string) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("version = ?", version).Delete(&model.CacheEntry{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.CacheBucket{}, "version = ?", version).Error
	})
}

func (r *CacheRepository) ListBuckets() ([]model.CacheBucket, error) {
	var buckets []model.CacheBucket
	err := r.DB.Find(&buckets).Error
	return buckets, err
}

func (r *CacheRepository) ActiveBucket() (*model.CacheBucket, error) {
	var bucket model.CacheBucket
	err := r.DB.Where("state = ?", model.BucketActive).First(&bucket).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &bucket, nil
}

func (r *CacheRepository) MarkActive(version string) error {
	return r.DB.Model(&model.CacheBucket{}).Where("version = ?", version).
		Update("state", model.BucketActive).Error
}
