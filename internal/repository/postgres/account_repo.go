package postgres

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// AccountRepo реализует repository.AccountRepository
type AccountRepo struct {
	db *gorm.DB
}

// NewAccountRepo создает новый репозиторий аккаунтов
func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) Create(ctx context.Context, account *entity.Account) error {
	return translateError(r.db.WithContext(ctx).Create(account).Error)
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	var account entity.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*entity.Account, error) {
	var account entity.Account
	err := r.db.WithContext(ctx).Where("email = ?", entity.NormalizeEmail(email)).First(&account).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *AccountRepo) GetByExternalID(ctx context.Context, externalID string) (*entity.Account, error) {
	var account entity.Account
	if err := r.db.WithContext(ctx).Where("google_id = ?", externalID).First(&account).Error; err != nil {
		return nil, translateError(err)
	}
	return &account, nil
}

func (r *AccountRepo) UpdateFields(ctx context.Context, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	result := r.db.WithContext(ctx).Model(&entity.Account{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// LinkExternalID не перезаписывает уже привязанный внешний id
func (r *AccountRepo) LinkExternalID(ctx context.Context, id, externalID string) error {
	result := r.db.WithContext(ctx).Model(&entity.Account{}).
		Where("id = ? AND google_id IS NULL", id).
		Update("google_id", externalID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: account %s already has an external identity", apperrors.ErrConflict, id)
	}
	return nil
}

func (r *AccountRepo) List(ctx context.Context, limit, offset int) ([]entity.Account, int64, error) {
	var (
		accounts []entity.Account
		total    int64
	)
	db := r.db.WithContext(ctx)
	if err := db.Model(&entity.Account{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err)
	}
	if err := db.Order("created_at DESC").Limit(limit).Offset(offset).Find(&accounts).Error; err != nil {
		return nil, 0, translateError(err)
	}
	return accounts, total, nil
}

func (r *AccountRepo) CountActive(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.Account{}).Where("is_active = ?", true).Count(&total).Error
	return total, translateError(err)
}

// DeleteWithAttempts удаляет попытки аккаунта и сам аккаунт в одной транзакции
func (r *AccountRepo) DeleteWithAttempts(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		attempts := tx.Where("user_id = ?", id).Delete(&entity.Attempt{})
		if attempts.Error != nil {
			return translateError(attempts.Error)
		}

		result := tx.Where("id = ?", id).Delete(&entity.Account{})
		if result.Error != nil {
			return translateError(result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}

		log.Printf("[AccountRepo] Deleted account %s with %d attempts", id, attempts.RowsAffected)
		return nil
	})
}
