package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	"github.com/yourusername/quiz-api/internal/metrics"
	"github.com/yourusername/quiz-api/internal/service/scoring"
)

// AttemptNotifier получает уведомление о каждой записанной попытке
type AttemptNotifier interface {
	NotifyAttempt(attempt *entity.Attempt)
}

// AttemptRecorder сохраняет оцененные попытки. Анонимные попытки пишутся с пустым account.
type AttemptRecorder struct {
	attempts repository.AttemptRepository
	notifier AttemptNotifier
}

// NewAttemptRecorder создает AttemptRecorder; notifier может быть nil
func NewAttemptRecorder(attempts repository.AttemptRepository, notifier AttemptNotifier) *AttemptRecorder {
	return &AttemptRecorder{attempts: attempts, notifier: notifier}
}

// Record пишет попытку одной вставкой и возвращает ее
func (r *AttemptRecorder) Record(ctx context.Context, accountID *string, result scoring.Result, answers map[uint]int, timeTaken *int) (*entity.Attempt, error) {
	if result.TotalQuestions <= 0 {
		return nil, errors.New("cannot record an attempt without questions")
	}
	if result.Score < 0 || result.Score > result.TotalQuestions {
		return nil, fmt.Errorf("score %d is out of range for %d questions", result.Score, result.TotalQuestions)
	}

	encoded, err := entity.EncodeAnswers(answers)
	if err != nil {
		return nil, fmt.Errorf("failed to encode answers: %w", err)
	}

	attempt := &entity.Attempt{
		AccountID:      accountID,
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		Percentage:     result.Percentage,
		TimeTaken:      timeTaken,
		Answers:        encoded,
	}
	if err := r.attempts.Create(ctx, attempt); err != nil {
		log.Printf("[AttemptRecorder] Failed to store attempt: %v", err)
		return nil, err
	}

	identity := "anonymous"
	if accountID != nil {
		identity = "authenticated"
	}
	metrics.Submissions.WithLabelValues(identity).Inc()
	metrics.ScorePercentage.Observe(attempt.Percentage)

	if r.notifier != nil {
		r.notifier.NotifyAttempt(attempt)
	}
	return attempt, nil
}
