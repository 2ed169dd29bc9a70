package helper

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/service"
)

// errorKind - HTTP-представление ошибки из таксономии приложения
type errorKind struct {
	target    error
	status    int
	errorType string
}

// Порядок важен: более конкретные токенные ошибки проверяются раньше ErrUnauthorized
var errorKinds = []errorKind{
	{apperrors.ErrValidation, http.StatusBadRequest, "validation_error"},
	{apperrors.ErrExpiredToken, http.StatusUnauthorized, "token_expired"},
	{apperrors.ErrWrongTokenType, http.StatusUnauthorized, "wrong_token_type"},
	{apperrors.ErrInvalidAudience, http.StatusUnauthorized, "invalid_audience"},
	{apperrors.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{apperrors.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{apperrors.ErrAccountInactive, http.StatusBadRequest, "account_inactive"},
	{apperrors.ErrEmailNotVerified, http.StatusBadRequest, "email_not_verified"},
	{apperrors.ErrForbidden, http.StatusForbidden, "forbidden"},
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found"},
	{apperrors.ErrConflict, http.StatusConflict, "conflict"},
	{apperrors.ErrUpstream, http.StatusBadGateway, "provider_unavailable"},
	{service.ErrFeatureDisabled, http.StatusServiceUnavailable, "feature_disabled"},
}

// StatusFor возвращает HTTP статус и error_type для ошибки
func StatusFor(err error) (int, string) {
	for _, kind := range errorKinds {
		if errors.Is(err, kind.target) {
			return kind.status, kind.errorType
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// RespondError пишет ошибку в едином формате {"error", "error_type", "fields"?}.
// Текст внутренних ошибок клиенту не отдается, только в лог.
func RespondError(c *gin.Context, component string, err error) {
	status, errorType := StatusFor(err)

	if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
		log.Printf("[%s] %s %s failed: %v", component, c.Request.Method, c.FullPath(), err)
		if status == http.StatusBadGateway {
			c.AbortWithStatusJSON(status, gin.H{"error": "Identity provider is unavailable", "error_type": errorType})
			return
		}
		c.AbortWithStatusJSON(status, gin.H{"error": "Internal server error", "error_type": errorType})
		return
	}

	body := gin.H{"error": err.Error(), "error_type": errorType}
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) && verr.HasErrors() {
		body["error"] = apperrors.ErrValidation.Error()
		body["fields"] = verr.Fields
	}
	c.AbortWithStatusJSON(status, body)
}

// BadRequest - ответ на неразбираемое тело запроса
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message, "error_type": "validation_error"})
}
