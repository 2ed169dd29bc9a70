package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
	"github.com/yourusername/quiz-api/internal/service/scoring"
)

const (
	publicQuestionsCacheKey = "quiz:questions:public"
	publicQuestionsCacheTTL = 5 * time.Minute

	// HistoryLimit - сколько последних попыток отдается пользователю
	HistoryLimit = 20
)

// PublicQuestion - вопрос без правильного ответа
type PublicQuestion struct {
	ID           uint     `json:"id"`
	QuestionText string   `json:"question_text"`
	Options      []string `json:"options"`
}

// SubmitInput - ответы пользователя: id вопроса -> индекс варианта
type SubmitInput struct {
	Answers   map[uint]int `json:"answers"`
	TimeTaken *int         `json:"time_taken"`
}

// SubmissionResult - оценка вместе с id сохраненной попытки
type SubmissionResult struct {
	AttemptID string `json:"attempt_id"`
	scoring.Result
}

// QuizService - прохождение викторины: список вопросов, отправка ответов, история
type QuizService struct {
	questions repository.QuestionRepository
	attempts  repository.AttemptRepository
	recorder  *AttemptRecorder
	settings  *SettingsService
	cache     repository.CacheRepository
}

// NewQuizService создает QuizService; cache может быть nil
func NewQuizService(
	questions repository.QuestionRepository,
	attempts repository.AttemptRepository,
	recorder *AttemptRecorder,
	settings *SettingsService,
	cache repository.CacheRepository,
) *QuizService {
	return &QuizService{
		questions: questions,
		attempts:  attempts,
		recorder:  recorder,
		settings:  settings,
		cache:     cache,
	}
}

// ListQuestions возвращает вопросы по возрастанию id без ответов.
// limit <= 0 означает все вопросы.
func (s *QuizService) ListQuestions(ctx context.Context, limit int) ([]PublicQuestion, error) {
	all, err := s.publicQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (s *QuizService) publicQuestions(ctx context.Context) ([]PublicQuestion, error) {
	if s.cache != nil {
		var cached []PublicQuestion
		err := s.cache.GetJSON(ctx, publicQuestionsCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[QuizService] Cache read failed, falling back to database: %v", err)
		}
	}

	questions, err := s.questions.ListAll(ctx, 0)
	if err != nil {
		return nil, err
	}
	public := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		public = append(public, PublicQuestion{ID: q.ID, QuestionText: q.Text, Options: q.Options})
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, publicQuestionsCacheKey, public, publicQuestionsCacheTTL); err != nil {
			log.Printf("[QuizService] Cache write failed: %v", err)
		}
	}
	return public, nil
}

// Submit оценивает ответы и сохраняет попытку (анонимную - с пустым аккаунтом).
// Анонимная отправка запрещена, если настройка allow_anonymous_quiz выключена.
func (s *QuizService) Submit(ctx context.Context, identity Identity, input SubmitInput) (*SubmissionResult, error) {
	if input.TimeTaken != nil && *input.TimeTaken < 0 {
		return nil, apperrors.NewValidationError("time_taken", "must be greater than or equal to 0")
	}

	if identity.IsAnonymous() {
		allowed, err := s.settings.GetBool(ctx, entity.SettingAllowAnonymousQuiz)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: sign in to submit answers", apperrors.ErrUnauthorized)
		}
	}

	questions, err := s.questions.ListAll(ctx, 0)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions found", apperrors.ErrNotFound)
	}

	answers := input.Answers
	if answers == nil {
		answers = map[uint]int{}
	}
	result := scoring.Score(questions, answers)

	attempt, err := s.recorder.Record(ctx, identity.AccountID(), result, answers, input.TimeTaken)
	if err != nil {
		return nil, err
	}

	return &SubmissionResult{AttemptID: attempt.ID, Result: result}, nil
}

// History возвращает последние попытки аккаунта, новые первыми
func (s *QuizService) History(ctx context.Context, accountID string) ([]entity.Attempt, error) {
	return s.attempts.ListByAccount(ctx, accountID, HistoryLimit)
}

// Config возвращает публичные параметры викторины
func (s *QuizService) Config(ctx context.Context) (*QuizConfig, error) {
	return s.settings.QuizConfig(ctx)
}

// invalidateQuestionCache сбрасывает кеш списка вопросов после изменений администратором
func invalidateQuestionCache(ctx context.Context, cache repository.CacheRepository) {
	if cache == nil {
		return
	}
	if err := cache.Delete(ctx, publicQuestionsCacheKey); err != nil {
		log.Printf("[QuizService] Failed to invalidate question cache: %v", err)
	}
}
