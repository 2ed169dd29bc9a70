package repository

import (
	"context"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с вопросами
type QuestionRepository interface {
	Create(ctx context.Context, question *entity.Question) error
	// CreateBatch сохраняет все вопросы в одной транзакции
	CreateBatch(ctx context.Context, questions []entity.Question) error
	GetByID(ctx context.Context, id uint) (*entity.Question, error)
	Update(ctx context.Context, question *entity.Question) error
	Delete(ctx context.Context, id uint) error
	// ListAll возвращает вопросы по возрастанию id; limit <= 0 означает без ограничения
	ListAll(ctx context.Context, limit int) ([]entity.Question, error)
	List(ctx context.Context, limit, offset int) ([]entity.Question, int64, error)
	Count(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
}
