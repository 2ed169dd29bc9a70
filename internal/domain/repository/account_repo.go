package repository

import (
	"context"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// AccountRepository определяет методы для работы с аккаунтами
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByEmail(ctx context.Context, email string) (*entity.Account, error)
	GetByExternalID(ctx context.Context, externalID string) (*entity.Account, error)
	// UpdateFields обновляет только переданные колонки
	UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error
	// LinkExternalID привязывает внешний id, только если он еще не задан
	LinkExternalID(ctx context.Context, id, externalID string) error
	List(ctx context.Context, limit, offset int) ([]entity.Account, int64, error)
	CountActive(ctx context.Context) (int64, error)
	// DeleteWithAttempts удаляет аккаунт и его попытки одной транзакцией
	DeleteWithAttempts(ctx context.Context, id string) error
}
