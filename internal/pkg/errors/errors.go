package errors

import (
	"errors"
	"sort"
	"strings"
)

// Общие ошибки приложения
var (
	// ErrNotFound используется, когда запись или ресурс не найдены.
	ErrNotFound = errors.New("record not found")

	// ErrUnauthorized используется, когда запрос требует аутентификации, а её нет
	// (нет токена, неверные учетные данные, аккаунт по токену не найден).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden используется, когда у пользователя недостаточно прав для действия.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation используется для ошибок валидации входных данных.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidToken: неверная подпись или формат токена.
	ErrInvalidToken = errors.New("invalid token")

	// ErrExpiredToken: срок действия токена истек.
	ErrExpiredToken = errors.New("token is expired")

	// ErrWrongTokenType: refresh-токен предъявлен вместо access (или наоборот).
	ErrWrongTokenType = errors.New("wrong token type")

	// ErrAccountInactive: аккаунт найден, но деактивирован.
	ErrAccountInactive = errors.New("inactive account")

	// ErrConflict используется для конфликтов состояния (например, email уже занят).
	ErrConflict = errors.New("resource state conflict")

	// ErrUpstream: внешний провайдер (OAuth) недоступен.
	ErrUpstream = errors.New("upstream provider unavailable")

	// ErrInvalidAudience: внешний токен выпущен для другого client id.
	ErrInvalidAudience = errors.New("invalid token audience")

	// ErrEmailNotVerified: провайдер не подтвердил email.
	ErrEmailNotVerified = errors.New("email not verified")
)

// ValidationError несет детали по полям. errors.Is(err, ErrValidation) == true.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError создает ошибку валидации для одного поля.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Add добавляет ошибку по полю и возвращает саму ошибку для цепочки вызовов.
func (e *ValidationError) Add(field, message string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	e.Fields[field] = message
	return e
}

// HasErrors сообщает, есть ли хотя бы одна ошибка по полю.
func (e *ValidationError) HasErrors() bool {
	return e != nil && len(e.Fields) > 0
}
