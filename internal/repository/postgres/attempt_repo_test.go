package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-api/internal/domain/entity"
)

func TestAttemptRepo_AverageEmpty(t *testing.T) {
	repo := NewAttemptRepo(newTestDB(t))

	avg, err := repo.AveragePercentage(context.Background())
	require.NoError(t, err)
	assert.Zero(t, avg)
}

func TestAttemptRepo_HistoryAndStats(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	accounts := NewAccountRepo(db)
	repo := NewAttemptRepo(db)

	account := &entity.Account{Email: "h@example.com", Name: "H", IsActive: true}
	require.NoError(t, accounts.Create(ctx, account))

	answers, err := entity.EncodeAnswers(map[uint]int{1: 0})
	require.NoError(t, err)

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i, pct := range []float64{50, 100} {
		require.NoError(t, repo.Create(ctx, &entity.Attempt{
			AccountID:      &account.ID,
			Score:          i + 1,
			TotalQuestions: 2,
			Percentage:     pct,
			Answers:        answers,
			CompletedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}
	require.NoError(t, repo.Create(ctx, &entity.Attempt{
		Score: 0, TotalQuestions: 2, Percentage: 0, Answers: answers, CompletedAt: base,
	}))

	history, err := repo.ListByAccount(ctx, account.ID, 20)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 100.0, history[0].Percentage, "новые попытки идут первыми")

	decoded, err := history[0].DecodeAnswers()
	require.NoError(t, err)
	assert.Equal(t, map[uint]int{1: 0}, decoded)

	avg, err := repo.AveragePercentage(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 50.0, avg, 0.001)

	recent, total, err := repo.ListRecent(ctx, 2, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, recent, 2)
}
