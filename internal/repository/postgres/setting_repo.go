package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

// SettingRepo реализует repository.SettingRepository
type SettingRepo struct {
	db *gorm.DB
}

// NewSettingRepo создает новый репозиторий настроек
func NewSettingRepo(db *gorm.DB) *SettingRepo {
	return &SettingRepo{db: db}
}

func (r *SettingRepo) GetAll(ctx context.Context) ([]entity.Setting, error) {
	var settings []entity.Setting
	if err := r.db.WithContext(ctx).Order("setting_key ASC").Find(&settings).Error; err != nil {
		return nil, translateError(err)
	}
	return settings, nil
}

func (r *SettingRepo) Get(ctx context.Context, key string) (*entity.Setting, error) {
	var setting entity.Setting
	if err := r.db.WithContext(ctx).Where("setting_key = ?", key).First(&setting).Error; err != nil {
		return nil, translateError(err)
	}
	return &setting, nil
}

func (r *SettingRepo) Upsert(ctx context.Context, key, value string) error {
	setting := entity.Setting{Key: key, Value: value}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "setting_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"setting_value", "updated_at"}),
	}).Create(&setting).Error
	return translateError(err)
}

func (r *SettingRepo) EnsureDefaults(ctx context.Context, defaults map[string]string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for key, value := range defaults {
			setting := entity.Setting{Key: key, Value: value}
			err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&setting).Error
			if err != nil {
				return translateError(err)
			}
		}
		return nil
	})
}
