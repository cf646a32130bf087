package repository

import (
	"github.com/vijayvittalraorompally-byte/nabha-learning-platform/internal/model"

	"gorm.io/gorm"
)

// CatalogRepository caches the hosted catalog locally so a quiz can still
// be opened while offline. Rows are replaced wholesale per quiz on every
// successful remote load.
type CatalogRepository struct {
	DB *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{DB: db}
}

func (r *CatalogRepository) SaveQuiz(quiz *model.Quiz, questions []model.Question) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", quiz.ID).Unscoped().Delete(&model.Quiz{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quiz_id = ?", quiz.ID).Unscoped().Delete(&model.Question{}).Error; err != nil {
			return err
		}
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].QuizID = quiz.ID
			if err := tx.Create(&questions[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CatalogRepository) FindQuiz(id string) (*model.Quiz, []model.Question, error) {
	var quiz model.Quiz
	if err := r.DB.First(&quiz, "id = ?", id).Error; err != nil {
		return nil, nil, err
	}

	var questions []model.Question
	err := r.DB.Where("quiz_id = ?", id).Order("`order` asc").Find(&questions).Error
	return &quiz, questions, err
}
