package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/pkg/patch"
	"github.com/yourusername/quiz-api/pkg/auth"
)

func newTestAuthService() (*AuthService, *MockAccountRepository, *MockTokenIssuer, *MockTokenValidator) {
	accounts := new(MockAccountRepository)
	issuer := new(MockTokenIssuer)
	validator := new(MockTokenValidator)
	gate := NewAccessGate(validator, accounts)
	return NewAuthService(accounts, issuer, gate, nil), accounts, issuer, validator
}

func passwordAccount(t *testing.T, password string, active bool) *entity.Account {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	return &entity.Account{ID: "u1", Email: "user@example.com", Name: "User", PasswordHash: &hash, IsActive: active}
}

func TestAuthService_Register_Success(t *testing.T) {
	// Arrange
	svc, accounts, issuer, _ := newTestAuthService()
	ctx := context.Background()

	accounts.On("GetByEmail", ctx, "new@example.com").Return(nil, apperrors.ErrNotFound)
	accounts.On("Create", ctx, mock.MatchedBy(func(a *entity.Account) bool {
		return a.Email == "new@example.com" && a.Name == "New User" && a.IsActive && !a.IsAdmin &&
			a.PasswordHash != nil && *a.PasswordHash != "secret1" && a.Phone == nil
	})).Return(nil)
	issuer.On("IssuePair", mock.AnythingOfType("*entity.Account")).Return(testTokenPair(), nil)

	// Act
	result, err := svc.Register(ctx, RegisterInput{
		Email:    "  New@Example.com ",
		Password: "secret1",
		Name:     " New User ",
		Phone:    strPtr("   "),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "access", result.Tokens.AccessToken)
	assert.Equal(t, "new@example.com", result.Account.Email)
	assert.True(t, auth.VerifyPassword("secret1", *result.Account.PasswordHash))
	accounts.AssertExpectations(t)
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "not-an-email", Password: "123", Name: ""})

	require.Error(t, err)
	var verr *apperrors.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "password")
	assert.Contains(t, verr.Fields, "name")
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, accounts, _, _ := newTestAuthService()
	accounts.On("GetByEmail", mock.Anything, "taken@example.com").Return(&entity.Account{ID: "x"}, nil)

	_, err := svc.Register(context.Background(), RegisterInput{Email: "taken@example.com", Password: "secret1", Name: "N"})

	assert.True(t, errors.Is(err, apperrors.ErrConflict))
	accounts.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAuthService_Login(t *testing.T) {
	tests := []struct {
		name     string
		account  *entity.Account
		lookup   error
		password string
		wantErr  error
	}{
		{name: "unknown email", lookup: apperrors.ErrNotFound, password: "secret1", wantErr: apperrors.ErrUnauthorized},
		{name: "wrong password", account: passwordAccount(t, "secret1", true), password: "wrong!!", wantErr: apperrors.ErrUnauthorized},
		{name: "oauth only account", account: &entity.Account{ID: "u1", IsActive: true}, password: "secret1", wantErr: apperrors.ErrUnauthorized},
		{name: "inactive account", account: passwordAccount(t, "secret1", false), password: "secret1", wantErr: apperrors.ErrAccountInactive},
		{name: "success", account: passwordAccount(t, "secret1", true), password: "secret1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, accounts, issuer, _ := newTestAuthService()
			if tt.account != nil {
				accounts.On("GetByEmail", mock.Anything, "user@example.com").Return(tt.account, nil)
			} else {
				accounts.On("GetByEmail", mock.Anything, "user@example.com").Return(nil, tt.lookup)
			}
			issuer.On("IssuePair", mock.Anything).Return(testTokenPair(), nil)

			result, err := svc.Login(context.Background(), "USER@example.com", tt.password)

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, result)
				issuer.AssertNotCalled(t, "IssuePair", mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "u1", result.Account.ID)
		})
	}
}

func TestAuthService_Login_SameMessageForUnknownAndWrongPassword(t *testing.T) {
	svc, accounts, _, _ := newTestAuthService()
	accounts.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, apperrors.ErrNotFound)
	accounts.On("GetByEmail", mock.Anything, "user@example.com").Return(passwordAccount(t, "secret1", true), nil)

	_, errUnknown := svc.Login(context.Background(), "ghost@example.com", "secret1")
	_, errWrong := svc.Login(context.Background(), "user@example.com", "nope-nope")

	require.Error(t, errUnknown)
	require.Error(t, errWrong)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
}

func TestAuthService_Refresh(t *testing.T) {
	svc, accounts, issuer, validator := newTestAuthService()
	account := &entity.Account{ID: "u1", IsActive: true}
	validator.On("Validate", "refresh-token", auth.TokenTypeRefresh).Return(claimsFor("u1"), nil)
	validator.On("Validate", "access-token", auth.TokenTypeRefresh).Return(nil, apperrors.ErrWrongTokenType)
	accounts.On("GetByID", mock.Anything, "u1").Return(account, nil)
	issuer.On("IssuePair", account).Return(testTokenPair(), nil)

	result, err := svc.Refresh(context.Background(), "refresh-token")
	require.NoError(t, err)
	assert.Equal(t, "refresh", result.Tokens.RefreshToken)

	_, err = svc.Refresh(context.Background(), "access-token")
	assert.True(t, errors.Is(err, apperrors.ErrWrongTokenType))
}

func TestAuthService_UpdateProfile(t *testing.T) {
	t.Run("applies present fields and clears nulls", func(t *testing.T) {
		svc, accounts, _, _ := newTestAuthService()
		expected := map[string]interface{}{"name": "Renamed", "phone": nil}
		accounts.On("UpdateFields", mock.Anything, "u1", expected).Return(nil)
		accounts.On("GetByID", mock.Anything, "u1").Return(&entity.Account{ID: "u1", Name: "Renamed"}, nil)

		account, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{
			Name:  patch.Some(" Renamed "),
			Phone: patch.Null[string](),
		})

		require.NoError(t, err)
		assert.Equal(t, "Renamed", account.Name)
		accounts.AssertExpectations(t)
	})

	t.Run("empty update is rejected", func(t *testing.T) {
		svc, accounts, _, _ := newTestAuthService()

		_, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{})

		assert.True(t, errors.Is(err, apperrors.ErrValidation))
		accounts.AssertNotCalled(t, "UpdateFields", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("null name is rejected", func(t *testing.T) {
		svc, _, _, _ := newTestAuthService()

		_, err := svc.UpdateProfile(context.Background(), "u1", ProfileUpdate{Name: patch.Null[string]()})

		var verr *apperrors.ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Contains(t, verr.Fields, "name")
	})
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, accounts, _, _ := newTestAuthService()
	accounts.On("GetByID", mock.Anything, "u1").Return(passwordAccount(t, "secret1", true), nil)
	accounts.On("UpdateFields", mock.Anything, "u1", mock.MatchedBy(func(fields map[string]interface{}) bool {
		hash, ok := fields["password_hash"].(string)
		return ok && auth.VerifyPassword("newsecret", hash)
	})).Return(nil)

	err := svc.ChangePassword(context.Background(), "u1", "wrong!!", "newsecret")
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	err = svc.ChangePassword(context.Background(), "u1", "secret1", "123")
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	require.NoError(t, svc.ChangePassword(context.Background(), "u1", "secret1", "newsecret"))
	accounts.AssertExpectations(t)
}
