package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/quiz-api/internal/handler/helper"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/service"
)

// IdentityKey - ключ gin.Context, под которым лежит service.Identity
const IdentityKey = "identity"

// AuthMiddleware переводит уровни доступа AccessGate в gin middleware
type AuthMiddleware struct {
	gate *service.AccessGate
}

// NewAuthMiddleware создает AuthMiddleware
func NewAuthMiddleware(gate *service.AccessGate) *AuthMiddleware {
	return &AuthMiddleware{gate: gate}
}

// BearerToken извлекает токен из заголовка Authorization: Bearer <token>.
// Пустая строка без ошибки означает, что заголовка нет.
func BearerToken(c *gin.Context) (string, error) {
	header := strings.TrimSpace(c.GetHeader("Authorization"))
	if header == "" {
		return "", nil
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("%w: authorization header format must be Bearer {token}", apperrors.ErrUnauthorized)
	}
	return parts[1], nil
}

// OptionalAuth определяет личность, если токен валиден; любая ошибка означает анонимный доступ
func (m *AuthMiddleware) OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c)
		if err != nil {
			token = ""
		}
		c.Set(IdentityKey, m.gate.Optional(c.Request.Context(), token))
		c.Next()
	}
}

// RequireAuth пропускает только активный аккаунт с валидным access-токеном
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := BearerToken(c)
		if err != nil {
			helper.RespondError(c, "AuthMiddleware", err)
			return
		}

		identity, err := m.gate.Authenticate(c.Request.Context(), token)
		if err != nil {
			helper.RespondError(c, "AuthMiddleware", err)
			return
		}

		c.Set(IdentityKey, identity)
		c.Next()
	}
}

// AdminOnly должен стоять после RequireAuth
func (m *AuthMiddleware) AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := m.gate.RequireAdmin(GetIdentity(c)); err != nil {
			helper.RespondError(c, "AuthMiddleware", err)
			return
		}
		c.Next()
	}
}

// GetIdentity возвращает личность запроса; без middleware - анонимная
func GetIdentity(c *gin.Context) service.Identity {
	if v, ok := c.Get(IdentityKey); ok {
		if identity, ok := v.(service.Identity); ok {
			return identity
		}
	}
	return service.Identity{}
}
