package auth

import (
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// MaxPasswordBytes - предел bcrypt. Длинные пароли отклоняются, а не обрезаются.
const MaxPasswordBytes = 72

// HashPassword хеширует пароль bcrypt с фиксированной стоимостью
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", apperrors.NewValidationError("password", "password is required")
	}
	if len(plaintext) > MaxPasswordBytes {
		return "", apperrors.NewValidationError("password", "password must be at most 72 bytes")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword возвращает false при несовпадении, пустом или поврежденном хеше
func VerifyPassword(plaintext, hash string) bool {
	if hash == "" || plaintext == "" || len(plaintext) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
