package repository

import (
	"context"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// AttemptRepository - журнал попыток, только добавление и чтение
type AttemptRepository interface {
	Create(ctx context.Context, attempt *entity.Attempt) error
	ListByAccount(ctx context.Context, accountID string, limit int) ([]entity.Attempt, error)
	ListRecent(ctx context.Context, limit, offset int) ([]entity.Attempt, int64, error)
	Count(ctx context.Context) (int64, error)
	AveragePercentage(ctx context.Context) (float64, error)
}
