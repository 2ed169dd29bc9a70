package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	"github.com/yourusername/quiz-api/internal/metrics"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/pkg/patch"
	"github.com/yourusername/quiz-api/pkg/auth"
)

// TokenIssuer выпускает пару токенов для аккаунта
type TokenIssuer interface {
	IssuePair(account *entity.Account) (*auth.TokenPair, error)
}

// AuthResult - ответ на успешную аутентификацию
type AuthResult struct {
	Tokens  *auth.TokenPair
	Account *entity.Account
}

// RegisterInput - данные регистрации по паролю
type RegisterInput struct {
	Email    string  `json:"email" validate:"required,email,max=255"`
	Password string  `json:"password" validate:"required,min=6"`
	Name     string  `json:"name" validate:"required,max=100"`
	Phone    *string `json:"phone" validate:"omitempty,max=20"`
	Address  *string `json:"address" validate:"omitempty,max=500"`
}

// ProfileUpdate - частичное обновление профиля.
// Отсутствующее поле не меняется, null очищает phone/address.
type ProfileUpdate struct {
	Name    patch.Optional[string] `json:"name"`
	Phone   patch.Optional[string] `json:"phone"`
	Address patch.Optional[string] `json:"address"`
}

// AuthService реализует регистрацию, вход по паролю, обновление токенов и профиль
type AuthService struct {
	accounts repository.AccountRepository
	tokens   TokenIssuer
	gate     *AccessGate
	mailer   EmailService
}

// NewAuthService создает AuthService
func NewAuthService(accounts repository.AccountRepository, tokens TokenIssuer, gate *AccessGate, mailer EmailService) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokens:   tokens,
		gate:     gate,
		mailer:   mailer,
	}
}

// Register создает аккаунт с паролем и сразу выдает токены
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	input.Email = entity.NormalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Phone = trimOptional(input.Phone)
	input.Address = trimOptional(input.Address)

	if err := validateStruct(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.accounts.GetByEmail(ctx, input.Email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	account := &entity.Account{
		Email:        input.Email,
		Name:         input.Name,
		Phone:        input.Phone,
		Address:      input.Address,
		PasswordHash: &hash,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", apperrors.ErrConflict)
		}
		return nil, err
	}
	log.Printf("[AuthService] Registered account %s", account.ID)

	tokens, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, err
	}
	sendWelcomeAsync(s.mailer, account.Email, account.Name)

	return &AuthResult{Tokens: tokens, Account: account}, nil
}

// Login проверяет email и пароль. Для неизвестного email и неверного пароля
// возвращается одна и та же ошибка.
func (s *AuthService) Login(ctx context.Context, email, password string) (result *AuthResult, err error) {
	defer func() { metrics.ObserveAuth("password", err) }()

	invalid := fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)

	account, err := s.accounts.GetByEmail(ctx, entity.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, invalid
		}
		return nil, err
	}

	if !account.HasPassword() || !auth.VerifyPassword(password, *account.PasswordHash) {
		return nil, invalid
	}
	if !account.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	tokens, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: tokens, Account: account}, nil
}

// Refresh выдает новую пару токенов по refresh-токену
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (result *AuthResult, err error) {
	defer func() { metrics.ObserveAuth("refresh", err) }()

	identity, err := s.gate.ResolveToken(ctx, refreshToken, auth.TokenTypeRefresh)
	if err != nil {
		return nil, err
	}

	tokens, err := s.tokens.IssuePair(identity.Account)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Tokens: tokens, Account: identity.Account}, nil
}

// UpdateProfile применяет частичное обновление name/phone/address
func (s *AuthService) UpdateProfile(ctx context.Context, accountID string, update ProfileUpdate) (*entity.Account, error) {
	fields := make(map[string]interface{})
	verr := &apperrors.ValidationError{}
	collectProfileFields(update.Name, update.Phone, update.Address, fields, verr)

	if verr.HasErrors() {
		return nil, verr
	}
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("body", "no valid fields to update")
	}

	if err := s.accounts.UpdateFields(ctx, accountID, fields); err != nil {
		return nil, err
	}
	return s.accounts.GetByID(ctx, accountID)
}

// ChangePassword меняет пароль после проверки текущего
func (s *AuthService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !account.HasPassword() {
		return apperrors.NewValidationError("current_password", "password sign-in is not enabled for this account")
	}
	if !auth.VerifyPassword(currentPassword, *account.PasswordHash) {
		return fmt.Errorf("%w: current password is incorrect", apperrors.ErrUnauthorized)
	}
	if len([]rune(newPassword)) < MinPasswordLength {
		return apperrors.NewValidationError("new_password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdateFields(ctx, accountID, map[string]interface{}{"password_hash": hash}); err != nil {
		return err
	}
	log.Printf("[AuthService] Password changed for account %s", accountID)
	return nil
}

// collectProfileFields переводит Optional-поля профиля в колонки для UPDATE
func collectProfileFields(name, phone, address patch.Optional[string], fields map[string]interface{}, verr *apperrors.ValidationError) {
	if name.Set {
		value := strings.TrimSpace(name.Value)
		switch {
		case name.Null || value == "":
			verr.Add("name", "is required")
		case len([]rune(value)) > MaxNameLength:
			verr.Add("name", fmt.Sprintf("must be at most %d characters", MaxNameLength))
		default:
			fields["name"] = value
		}
	}

	optionalText := func(field string, value patch.Optional[string], max int) {
		if !value.Set {
			return
		}
		trimmed := strings.TrimSpace(value.Value)
		if value.Null || trimmed == "" {
			fields[field] = nil
			return
		}
		if len([]rune(trimmed)) > max {
			verr.Add(field, fmt.Sprintf("must be at most %d characters", max))
			return
		}
		fields[field] = trimmed
	}
	optionalText("phone", phone, MaxPhoneLength)
	optionalText("address", address, MaxAddressLength)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
