package repository

import (
	"context"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// SettingRepository - key-value хранилище настроек
type SettingRepository interface {
	GetAll(ctx context.Context) ([]entity.Setting, error)
	Get(ctx context.Context, key string) (*entity.Setting, error)
	Upsert(ctx context.Context, key, value string) error
	// EnsureDefaults создает отсутствующие ключи, не трогая существующие
	EnsureDefaults(ctx context.Context, defaults map[string]string) error
}
