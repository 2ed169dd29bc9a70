package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-api/internal/config"
	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/pkg/patch"
	"github.com/yourusername/quiz-api/pkg/auth"
)

func newTestAccountService() (*AccountService, *MockAccountRepository, *MockQuestionRepository, *MockAttemptRepository) {
	accounts := new(MockAccountRepository)
	questions := new(MockQuestionRepository)
	attempts := new(MockAttemptRepository)
	return NewAccountService(accounts, questions, attempts), accounts, questions, attempts
}

func TestAccountService_Update_SelfProtection(t *testing.T) {
	svc, accounts, _, _ := newTestAccountService()
	accounts.On("GetByID", mock.Anything, "admin").Return(&entity.Account{ID: "admin", IsActive: true, IsAdmin: true}, nil)

	_, err := svc.Update(context.Background(), "admin", "admin", AccountPatch{IsAdmin: patch.Some(false)})
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "is_admin")

	_, err = svc.Update(context.Background(), "admin", "admin", AccountPatch{IsActive: patch.Some(false)})
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "is_active")

	accounts.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountService_Update_OtherAccount(t *testing.T) {
	svc, accounts, _, _ := newTestAccountService()
	accounts.On("GetByID", mock.Anything, "u1").Return(&entity.Account{ID: "u1", IsActive: true}, nil)
	accounts.On("UpdateFields", mock.Anything, "u1", map[string]interface{}{"is_active": false, "is_admin": true}).Return(nil)

	_, err := svc.Update(context.Background(), "admin", "u1", AccountPatch{
		IsActive: patch.Some(false),
		IsAdmin:  patch.Some(true),
	})

	require.NoError(t, err)
	accounts.AssertExpectations(t)
}

func TestAccountService_Update_MissingAccount(t *testing.T) {
	svc, accounts, _, _ := newTestAccountService()
	accounts.On("GetByID", mock.Anything, "nope").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Update(context.Background(), "admin", "nope", AccountPatch{Name: patch.Some("x")})

	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestAccountService_Delete(t *testing.T) {
	svc, accounts, _, _ := newTestAccountService()
	accounts.On("DeleteWithAttempts", mock.Anything, "u1").Return(nil)

	assert.True(t, errors.Is(svc.Delete(context.Background(), "admin", "admin"), apperrors.ErrValidation))
	require.NoError(t, svc.Delete(context.Background(), "admin", "u1"))
	accounts.AssertExpectations(t)
}

func TestAccountService_Stats(t *testing.T) {
	svc, accounts, questions, attempts := newTestAccountService()
	accounts.On("CountActive", mock.Anything).Return(int64(4), nil)
	questions.On("Count", mock.Anything).Return(int64(12), nil)
	attempts.On("Count", mock.Anything).Return(int64(3), nil)
	attempts.On("AveragePercentage", mock.Anything).Return(55.55555, nil)

	stats, err := svc.Stats(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &Stats{TotalUsers: 4, TotalQuestions: 12, TotalAttempts: 3, AverageScore: 55.56}, stats)
}

func TestAccountService_BootstrapAdmin(t *testing.T) {
	t.Run("disabled without credentials", func(t *testing.T) {
		svc, accounts, _, _ := newTestAccountService()
		account, err := svc.BootstrapAdmin(context.Background(), config.AdminConfig{Email: "admin@example.com"})
		require.NoError(t, err)
		assert.Nil(t, account)
		accounts.AssertNotCalled(t, "GetByEmail", mock.Anything, mock.Anything)
	})

	t.Run("creates admin", func(t *testing.T) {
		svc, accounts, _, _ := newTestAccountService()
		accounts.On("GetByEmail", mock.Anything, "admin@example.com").Return(nil, apperrors.ErrNotFound)
		accounts.On("Create", mock.Anything, mock.MatchedBy(func(a *entity.Account) bool {
			return a.IsAdmin && a.IsActive && a.Name == "Administrator" && auth.VerifyPassword("supersecret", *a.PasswordHash)
		})).Return(nil)

		account, err := svc.BootstrapAdmin(context.Background(), config.AdminConfig{Email: "Admin@Example.com", Password: "supersecret"})

		require.NoError(t, err)
		assert.True(t, account.IsAdmin)
		accounts.AssertExpectations(t)
	})

	t.Run("promotes existing account", func(t *testing.T) {
		svc, accounts, _, _ := newTestAccountService()
		accounts.On("GetByEmail", mock.Anything, "admin@example.com").Return(&entity.Account{ID: "u1", IsActive: true}, nil)
		accounts.On("UpdateFields", mock.Anything, "u1", map[string]interface{}{"is_admin": true, "is_active": true}).Return(nil)

		account, err := svc.BootstrapAdmin(context.Background(), config.AdminConfig{Email: "admin@example.com", Password: "supersecret"})

		require.NoError(t, err)
		assert.True(t, account.IsAdmin)
		accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}
