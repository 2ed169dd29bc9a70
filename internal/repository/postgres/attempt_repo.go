package postgres

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create пишет попытку одной вставкой: она либо сохранена целиком, либо нет
func (r *AttemptRepo) Create(ctx context.Context, attempt *entity.Attempt) error {
	return translateError(r.db.WithContext(ctx).Create(attempt).Error)
}

func (r *AttemptRepo) ListByAccount(ctx context.Context, accountID string, limit int) ([]entity.Attempt, error) {
	var attempts []entity.Attempt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", accountID).
		Order("completed_at DESC").
		Limit(limit).
		Find(&attempts).Error
	if err != nil {
		return nil, translateError(err)
	}
	return attempts, nil
}

func (r *AttemptRepo) ListRecent(ctx context.Context, limit, offset int) ([]entity.Attempt, int64, error) {
	var (
		attempts []entity.Attempt
		total    int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.Attempt{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	if err := db.Order("completed_at DESC").Limit(limit).Offset(offset).Find(&attempts).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return attempts, total, nil
}

func (r *AttemptRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Attempt{}).Count(&total).Error
	return total, translateError(err)
}

// AveragePercentage возвращает 0, если попыток нет
func (r *AttemptRepo) AveragePercentage(ctx context.Context) (float64, error) {
	var avg sql.NullFloat64
	row := r.db.WithContext(ctx).Model(&entity.Attempt{}).Select("AVG(percentage)").Row()
	if err := row.Scan(&avg); err != nil {
		return 0, translateError(err)
	}
	if !avg.Valid {
		return 0, nil
	}
	return avg.Float64, nil
}
