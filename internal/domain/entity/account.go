package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account - учетная запись пользователя (по паролю и/или через Google)
type Account struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Email        string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Phone        *string   `gorm:"size:20" json:"phone"`
	Address      *string   `gorm:"size:500" json:"address"`
	PasswordHash *string   `gorm:"size:100" json:"-"`
	ExternalID   *string   `gorm:"column:google_id;size:255;uniqueIndex" json:"-"`
	IsActive     bool      `gorm:"not null" json:"is_active"`
	IsAdmin      bool      `gorm:"not null" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для Account
func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate выдает идентификатор, если он не задан заранее
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Email = NormalizeEmail(a.Email)
	return nil
}

// HasPassword сообщает, можно ли войти в аккаунт по паролю
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// HasExternalIdentity сообщает, привязан ли Google-аккаунт
func (a *Account) HasExternalIdentity() bool {
	return a.ExternalID != nil && *a.ExternalID != ""
}

// CanLogin: у аккаунта есть хотя бы один способ аутентификации
func (a *Account) CanLogin() bool {
	return a.HasPassword() || a.HasExternalIdentity()
}

// NormalizeEmail приводит email к каноничному виду (регистр не важен)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
