package repository

import (
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"

	"gorm.io/gorm"
)

// AttemptRepository persists the attempt-in-progress snapshot, one row per
// student. Best effort: losing it means the student restarts the quiz, it
// must never touch the pending-operation queue.
type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Save(attempt *model.Attempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) FindByStudent(studentID string) (*model.Attempt, error) {
	var attempt model.Attempt
	err := r.DB.Where("student_id = ? AND completed = ?", studentID, false).First(&attempt).Error
	if err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (r *AttemptRepository) Delete(id string) error {
	return r.DB.Unscoped().Delete(&model.Attempt{}, "id = ?", id).Error
}
