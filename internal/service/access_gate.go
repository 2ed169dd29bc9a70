package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/pkg/auth"
)

// Tier - уровень идентичности запроса
type Tier int

const (
	TierAnonymous Tier = iota
	TierAuthenticated
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierAuthenticated:
		return "authenticated"
	case TierAdmin:
		return "admin"
	default:
		return "anonymous"
	}
}

// Identity - результат разбора токена. Нулевое значение означает анонима.
type Identity struct {
	Account *entity.Account
}

// Tier вычисляет уровень идентичности
func (i Identity) Tier() Tier {
	switch {
	case i.Account == nil:
		return TierAnonymous
	case i.Account.IsAdmin:
		return TierAdmin
	default:
		return TierAuthenticated
	}
}

// IsAnonymous сообщает, что аккаунт не определен
func (i Identity) IsAnonymous() bool {
	return i.Account == nil
}

// AccountID возвращает id аккаунта или nil для анонима
func (i Identity) AccountID() *string {
	if i.Account == nil {
		return nil
	}
	id := i.Account.ID
	return &id
}

// TokenValidator проверяет подписанные токены
type TokenValidator interface {
	Validate(tokenString string, expected auth.TokenType) (*auth.JWTCustomClaims, error)
}

// AccessGate определяет уровень доступа. Порядок проверок фиксирован:
// подпись и срок -> тип токена -> поиск аккаунта -> активность -> права администратора.
type AccessGate struct {
	tokens   TokenValidator
	accounts repository.AccountRepository
}

// NewAccessGate создает AccessGate
func NewAccessGate(tokens TokenValidator, accounts repository.AccountRepository) *AccessGate {
	return &AccessGate{tokens: tokens, accounts: accounts}
}

// Authenticate разбирает access-токен и возвращает активный аккаунт
func (g *AccessGate) Authenticate(ctx context.Context, rawToken string) (Identity, error) {
	return g.ResolveToken(ctx, rawToken, auth.TokenTypeAccess)
}

// ResolveToken проверяет токен ожидаемого типа и находит его владельца
func (g *AccessGate) ResolveToken(ctx context.Context, rawToken string, expected auth.TokenType) (Identity, error) {
	if rawToken == "" {
		return Identity{}, fmt.Errorf("%w: missing token", apperrors.ErrUnauthorized)
	}

	claims, err := g.tokens.Validate(rawToken, expected)
	if err != nil {
		return Identity{}, err
	}

	account, err := g.accounts.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return Identity{}, fmt.Errorf("%w: account not found", apperrors.ErrUnauthorized)
		}
		log.Printf("[AccessGate] Failed to load account %s: %v", claims.Subject, err)
		return Identity{}, err
	}

	if !account.IsActive {
		return Identity{}, apperrors.ErrAccountInactive
	}

	return Identity{Account: account}, nil
}

// Optional никогда не возвращает ошибку: любой сбой означает анонимный доступ
func (g *AccessGate) Optional(ctx context.Context, rawToken string) Identity {
	if rawToken == "" {
		return Identity{}
	}
	identity, err := g.Authenticate(ctx, rawToken)
	if err != nil {
		return Identity{}
	}
	return identity
}

// RequireAdmin - последний этап проверки для административных маршрутов
func (g *AccessGate) RequireAdmin(identity Identity) error {
	if identity.Account == nil {
		return fmt.Errorf("%w: missing identity", apperrors.ErrUnauthorized)
	}
	if !identity.Account.IsAdmin {
		return fmt.Errorf("%w: not enough permissions", apperrors.ErrForbidden)
	}
	return nil
}
