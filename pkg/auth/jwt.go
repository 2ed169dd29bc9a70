package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// TokenType - дискриминатор токена: refresh нельзя использовать вместо access и наоборот
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"

	// BearerTokenType - значение token_type в ответе
	BearerTokenType = "bearer"

	minSecretLength = 32
)

// JWTCustomClaims содержит пользовательские поля для токена.
// Subject - id аккаунта.
type JWTCustomClaims struct {
	Email string    `json:"email"`
	Type  TokenType `json:"type"`
	jwt.RegisteredClaims
}

// TokenPair - результат выпуска токенов
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// JWTService выпускает и проверяет подписанные токены (HS256).
// Ключ задается один раз при старте; его смена инвалидирует все выданные токены.
type JWTService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах конфигурации
func NewJWTService(secret, issuer string, accessTTL, refreshTTL time.Duration) (*JWTService, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes", minSecretLength)
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("jwt token lifetimes must be positive")
	}
	if refreshTTL < accessTTL {
		log.Printf("[JWT] Warning: refresh TTL (%s) is shorter than access TTL (%s)", refreshTTL, accessTTL)
	}
	return &JWTService{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// AccessTTL возвращает время жизни access-токена
func (s *JWTService) AccessTTL() time.Duration {
	return s.accessTTL
}

// IssuePair выпускает access и refresh токены для аккаунта
func (s *JWTService) IssuePair(account *entity.Account) (*TokenPair, error) {
	if account == nil || account.ID == "" {
		return nil, errors.New("cannot issue tokens for an account without id")
	}

	accessToken, err := s.issue(account, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.issue(account, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    BearerTokenType,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *JWTService) issue(account *entity.Account, tokenType TokenType, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &JWTCustomClaims{
		Email: account.Email,
		Type:  tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   account.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		log.Printf("[JWT] Failed to sign %s token for account %s: %v", tokenType, account.ID, err)
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate проверяет токен в фиксированном порядке: подпись и формат,
// затем срок действия, затем тип. Каждый этап возвращает свою ошибку:
// apperrors.ErrInvalidToken, apperrors.ErrExpiredToken, apperrors.ErrWrongTokenType.
func (s *JWTService) Validate(tokenString string, expected TokenType) (*JWTCustomClaims, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: empty token", apperrors.ErrInvalidToken)
	}

	claims := &JWTCustomClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// exp проверяется ниже по часам сервиса
		jwt.WithoutClaimsValidation(),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidToken, err)
	}

	if claims.Subject == "" || claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing required claims", apperrors.ErrInvalidToken)
	}
	if !claims.VerifyExpiresAt(s.now(), true) {
		return nil, apperrors.ErrExpiredToken
	}
	if claims.Type != expected {
		return nil, fmt.Errorf("%w: expected %s token, got %q", apperrors.ErrWrongTokenType, expected, claims.Type)
	}

	return claims, nil
}
