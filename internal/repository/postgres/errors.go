package postgres

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// translateError приводит ошибки gorm к ошибкам приложения.
// Для ErrDuplicatedKey база должна быть открыта с TranslateError: true.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrNotFound
	}
	if isUniqueViolation(err) {
		// текст ограничения не должен попасть в ответ клиенту
		log.Printf("[Repository] Unique violation: %v", err)
		return fmt.Errorf("%w: duplicate value", apperrors.ErrConflict)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
