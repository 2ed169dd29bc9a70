package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

func (r *QuestionRepo) Create(ctx context.Context, question *entity.Question) error {
	return translateError(r.db.WithContext(ctx).Create(question).Error)
}

// CreateBatch сохраняет все вопросы или ни одного
func (r *QuestionRepo) CreateBatch(ctx context.Context, questions []entity.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return translateError(tx.CreateInBatches(&questions, 100).Error)
	})
}

func (r *QuestionRepo) GetByID(ctx context.Context, id uint) (*entity.Question, error) {
	var question entity.Question
	if err := r.db.WithContext(ctx).First(&question, id).Error; err != nil {
		return nil, translateError(err)
	}
	return &question, nil
}

func (r *QuestionRepo) Update(ctx context.Context, question *entity.Question) error {
	result := r.db.WithContext(ctx).Model(&entity.Question{}).
		Where("id = ?", question.ID).
		Updates(map[string]interface{}{
			"question_text":  question.Text,
			"options":        question.Options,
			"correct_option": question.CorrectOption,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *QuestionRepo) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entity.Question{}, id)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *QuestionRepo) ListAll(ctx context.Context, limit int) ([]entity.Question, error) {
	var questions []entity.Question
	query := r.db.WithContext(ctx).Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&questions).Error; err != nil {
		return nil, translateError(err)
	}
	return questions, nil
}

func (r *QuestionRepo) List(ctx context.Context, limit, offset int) ([]entity.Question, int64, error) {
	var (
		questions []entity.Question
		total     int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.Question{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	if err := db.Order("id ASC").Limit(limit).Offset(offset).Find(&questions).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return questions, total, nil
}

func (r *QuestionRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Question{}).Count(&total).Error
	return total, translateError(err)
}

// DeleteAll удаляет все вопросы и возвращает их количество
func (r *QuestionRepo) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&entity.Question{})
	return result.RowsAffected, translateError(result.Error)
}
