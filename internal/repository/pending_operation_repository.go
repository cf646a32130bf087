package repository

import (
	"errors"

	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"

	"gorm.io/gorm"
)

type PendingOperationRepository struct {
	DB *gorm.DB
}

func NewPendingOperationRepository(db *gorm.DB) *PendingOperationRepository {
	return &PendingOperationRepository{DB: db}
}

// Enqueue persists an operation in its own transaction. The auto-increment
// ID gives the queue its FIFO order.
func (r *PendingOperationRepository) Enqueue(op *model.PendingOperation) error {
	return r.DB.Create(op).Error
}

// HasUnsynced reports whether an un-synced operation of the given kind
// already targets the same identity. Keeps the queue at one submission per
// attempt.
func (r *PendingOperationRepository) HasUnsynced(kind model.OperationKind, targetID string) (bool, error) {
	var op model.PendingOperation
	err := r.DB.Where("kind = ? AND target_id = ? AND synced = ?", kind, targetID, false).First(&op).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *PendingOperationRepository) ListUnsynced() ([]model.PendingOperation, error) {
	var ops []model.PendingOperation
	err := r.DB.Where("synced = ?", false).Order("id asc").Find(&ops).Error
	return ops, err
}

func (r *PendingOperationRepository) CountUnsynced() (int64, error) {
	var count int64
	err := r.DB.Model(&model.PendingOperation{}).Where("synced = ?", false).Count(&count).Error
	return count, err
}

func (r *PendingOperationRepository) MarkSynced(id uint) error {
	return r.DB.Model(&model.PendingOperation{}).Where("id = ?", id).Update("synced", true).Error
}

func (r *PendingOperationRepository) IncrementAttempts(id uint) error {
	return r.DB.Model(&model.PendingOperation{}).Where("id = ?", id).
		UpdateColumn("attempts", gorm.Expr("attempts + 1")).Error
}

// Remove deletes an acked operation. Only called after MarkSynced, so a
// crash between the two leaves a synced row that the next pass cleans up
// without re-delivering.
func (r *PendingOperationRepository) Remove(id uint) error {
	return r.DB.Delete(&model.PendingOperation{}, id).Error
}

func (r *PendingOperationRepository) RemoveSynced() error {
	return r.DB.Where("synced = ?", true).Delete(&model.PendingOperation{}).Error
}
