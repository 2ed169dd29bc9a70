package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

func TestSettingRepo_EnsureDefaultsKeepsExisting(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepo(newTestDB(t))

	require.NoError(t, repo.Upsert(ctx, entity.SettingQuizTimeLimit, "120"))
	require.NoError(t, repo.EnsureDefaults(ctx, entity.DefaultSettings))

	limit, err := repo.Get(ctx, entity.SettingQuizTimeLimit)
	require.NoError(t, err)
	assert.Equal(t, "120", limit.Value, "существующее значение не перезаписывается")

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, len(entity.DefaultSettings))

	_, err = repo.Get(ctx, "unknown")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestSettingRepo_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := NewSettingRepo(newTestDB(t))

	require.NoError(t, repo.Upsert(ctx, entity.SettingAllowAnonymousQuiz, "true"))
	require.NoError(t, repo.Upsert(ctx, entity.SettingAllowAnonymousQuiz, "false"))

	got, err := repo.Get(ctx, entity.SettingAllowAnonymousQuiz)
	require.NoError(t, err)
	assert.Equal(t, "false", got.Value)
}
