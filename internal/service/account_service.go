package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/yourusername/quiz-api/internal/config"
	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/pkg/patch"
	"github.com/yourusername/quiz-api/internal/service/scoring"
	"github.com/yourusername/quiz-api/pkg/auth"
)

// AccountPatch - изменение аккаунта администратором
type AccountPatch struct {
	Name     patch.Optional[string] `json:"name"`
	Phone    patch.Optional[string] `json:"phone"`
	Address  patch.Optional[string] `json:"address"`
	IsActive patch.Optional[bool]   `json:"is_active"`
	IsAdmin  patch.Optional[bool]   `json:"is_admin"`
}

// Stats - сводка для панели администратора
type Stats struct {
	TotalUsers     int64   `json:"total_users"`
	TotalQuestions int64   `json:"total_questions"`
	TotalAttempts  int64   `json:"total_attempts"`
	AverageScore   float64 `json:"average_score"`
}

// AccountService - администрирование аккаунтов и статистика
type AccountService struct {
	accounts  repository.AccountRepository
	questions repository.QuestionRepository
	attempts  repository.AttemptRepository
}

// NewAccountService создает AccountService
func NewAccountService(accounts repository.AccountRepository, questions repository.QuestionRepository, attempts repository.AttemptRepository) *AccountService {
	return &AccountService{accounts: accounts, questions: questions, attempts: attempts}
}

// List возвращает страницу аккаунтов
func (s *AccountService) List(ctx context.Context, limit, offset int) ([]entity.Account, int64, error) {
	return s.accounts.List(ctx, limit, offset)
}

// Get возвращает аккаунт по id
func (s *AccountService) Get(ctx context.Context, id string) (*entity.Account, error) {
	return s.accounts.GetByID(ctx, id)
}

// Update меняет профиль и флаги аккаунта. Администратор не может
// снять с себя права или деактивировать себя.
func (s *AccountService) Update(ctx context.Context, actorID, targetID string, p AccountPatch) (*entity.Account, error) {
	if _, err := s.accounts.GetByID(ctx, targetID); err != nil {
		return nil, err
	}

	fields := make(map[string]interface{})
	verr := &apperrors.ValidationError{}
	collectProfileFields(p.Name, p.Phone, p.Address, fields, verr)

	if p.IsActive.Set {
		switch {
		case p.IsActive.Null:
			verr.Add("is_active", "must not be null")
		case actorID == targetID && !p.IsActive.Value:
			verr.Add("is_active", "cannot deactivate your own account")
		default:
			fields["is_active"] = p.IsActive.Value
		}
	}
	if p.IsAdmin.Set {
		switch {
		case p.IsAdmin.Null:
			verr.Add("is_admin", "must not be null")
		case actorID == targetID && !p.IsAdmin.Value:
			verr.Add("is_admin", "cannot remove your own admin rights")
		default:
			fields["is_admin"] = p.IsAdmin.Value
		}
	}

	if verr.HasErrors() {
		return nil, verr
	}
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("body", "no valid fields to update")
	}

	if err := s.accounts.UpdateFields(ctx, targetID, fields); err != nil {
		return nil, err
	}
	log.Printf("[AccountService] Account %s updated by %s", targetID, actorID)
	return s.accounts.GetByID(ctx, targetID)
}

// Delete удаляет аккаунт вместе с его попытками
func (s *AccountService) Delete(ctx context.Context, actorID, targetID string) error {
	if actorID == targetID {
		return apperrors.NewValidationError("id", "cannot delete your own account")
	}
	if err := s.accounts.DeleteWithAttempts(ctx, targetID); err != nil {
		return err
	}
	log.Printf("[AccountService] Account %s deleted by %s", targetID, actorID)
	return nil
}

// Stats считает активных пользователей, вопросы, попытки и средний результат
func (s *AccountService) Stats(ctx context.Context) (*Stats, error) {
	users, err := s.accounts.CountActive(ctx)
	if err != nil {
		return nil, err
	}
	questions, err := s.questions.Count(ctx)
	if err != nil {
		return nil, err
	}
	attempts, err := s.attempts.Count(ctx)
	if err != nil {
		return nil, err
	}
	avg, err := s.attempts.AveragePercentage(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalUsers:     users,
		TotalQuestions: questions,
		TotalAttempts:  attempts,
		AverageScore:   scoring.Round2(avg),
	}, nil
}

// ListAttempts возвращает последние попытки всех пользователей
func (s *AccountService) ListAttempts(ctx context.Context, limit, offset int) ([]entity.Attempt, int64, error) {
	return s.attempts.ListRecent(ctx, limit, offset)
}

// BootstrapAdmin создает администратора из конфигурации или выдает права
// существующему аккаунту с тем же email. Пароль существующего аккаунта не меняется.
func (s *AccountService) BootstrapAdmin(ctx context.Context, cfg config.AdminConfig) (*entity.Account, error) {
	if !cfg.BootstrapEnabled() {
		return nil, nil
	}
	email := entity.NormalizeEmail(cfg.Email)

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err == nil {
		if existing.IsAdmin && existing.IsActive {
			return existing, nil
		}
		if err := s.accounts.UpdateFields(ctx, existing.ID, map[string]interface{}{"is_admin": true, "is_active": true}); err != nil {
			return nil, err
		}
		existing.IsAdmin = true
		existing.IsActive = true
		log.Printf("[AccountService] Granted admin rights to %s", email)
		return existing, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, err
	}

	if len([]rune(cfg.Password)) < MinPasswordLength {
		return nil, fmt.Errorf("admin password must be at least %d characters", MinPasswordLength)
	}
	hash, err := auth.HashPassword(cfg.Password)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(cfg.Name)
	if name == "" {
		name = "Administrator"
	}

	account := &entity.Account{
		Email:        email,
		Name:         name,
		PasswordHash: &hash,
		IsActive:     true,
		IsAdmin:      true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	log.Printf("[AccountService] Created admin account %s", email)
	return account, nil
}
