package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

var settingKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,99}$`)

const maxSettingValueLength = 1000

// QuizConfig - публичные параметры викторины
type QuizConfig struct {
	TimeLimitSeconds    int  `json:"quiz_time_limit"`
	MaxQuestionsPerQuiz int  `json:"max_questions_per_quiz"`
	AllowAnonymous      bool `json:"allow_anonymous_quiz"`
}

// SettingsService - key-value настройки администратора
type SettingsService struct {
	repo repository.SettingRepository
}

// NewSettingsService создает SettingsService
func NewSettingsService(repo repository.SettingRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// EnsureDefaults записывает значения по умолчанию для отсутствующих ключей
func (s *SettingsService) EnsureDefaults(ctx context.Context) error {
	return s.repo.EnsureDefaults(ctx, entity.DefaultSettings)
}

// GetAll возвращает все настройки в виде карты
func (s *SettingsService) GetAll(ctx context.Context) (map[string]string, error) {
	settings, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(settings))
	for _, setting := range settings {
		out[setting.Key] = setting.Value
	}
	return out, nil
}

// Set проверяет и сохраняет значение. Известные ключи проверяются по типу.
func (s *SettingsService) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if !settingKeyPattern.MatchString(key) {
		return apperrors.NewValidationError("key", "must be lowercase letters, digits or underscores")
	}
	if len(value) > maxSettingValueLength {
		return apperrors.NewValidationError("value", fmt.Sprintf("must be at most %d characters", maxSettingValueLength))
	}

	switch key {
	case entity.SettingQuizTimeLimit, entity.SettingMaxQuestionsPerQuiz:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return apperrors.NewValidationError("value", "must be a positive integer")
		}
		value = strconv.Itoa(n)
	case entity.SettingAllowAnonymousQuiz:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return apperrors.NewValidationError("value", "must be true or false")
		}
		value = strconv.FormatBool(b)
	}

	if err := s.repo.Upsert(ctx, key, value); err != nil {
		return err
	}
	log.Printf("[SettingsService] Setting %s updated", key)
	return nil
}

// GetInt читает целое значение; при отсутствии или ошибке разбора берется значение по умолчанию
func (s *SettingsService) GetInt(ctx context.Context, key string) (int, error) {
	raw, err := s.get(ctx, key)
	if err != nil {
		return 0, err
	}
	n, convErr := strconv.Atoi(raw)
	if convErr != nil {
		log.Printf("[SettingsService] Invalid integer in setting %s=%q, using default", key, raw)
		return strconv.Atoi(entity.DefaultSettings[key])
	}
	return n, nil
}

// GetBool читает логическое значение по тем же правилам
func (s *SettingsService) GetBool(ctx context.Context, key string) (bool, error) {
	raw, err := s.get(ctx, key)
	if err != nil {
		return false, err
	}
	b, convErr := strconv.ParseBool(raw)
	if convErr != nil {
		log.Printf("[SettingsService] Invalid boolean in setting %s=%q, using default", key, raw)
		return strconv.ParseBool(entity.DefaultSettings[key])
	}
	return b, nil
}

// QuizConfig собирает публичные параметры викторины
func (s *SettingsService) QuizConfig(ctx context.Context) (*QuizConfig, error) {
	timeLimit, err := s.GetInt(ctx, entity.SettingQuizTimeLimit)
	if err != nil {
		return nil, err
	}
	maxQuestions, err := s.GetInt(ctx, entity.SettingMaxQuestionsPerQuiz)
	if err != nil {
		return nil, err
	}
	allowAnonymous, err := s.GetBool(ctx, entity.SettingAllowAnonymousQuiz)
	if err != nil {
		return nil, err
	}
	return &QuizConfig{
		TimeLimitSeconds:    timeLimit,
		MaxQuestionsPerQuiz: maxQuestions,
		AllowAnonymous:      allowAnonymous,
	}, nil
}

func (s *SettingsService) get(ctx context.Context, key string) (string, error) {
	setting, err := s.repo.Get(ctx, key)
	if err == nil {
		return setting.Value, nil
	}
	if errors.Is(err, apperrors.ErrNotFound) {
		if def, ok := entity.DefaultSettings[key]; ok {
			return def, nil
		}
	}
	return "", err
}
