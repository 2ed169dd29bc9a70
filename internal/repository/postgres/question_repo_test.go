package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quiz-api/internal/domain/entity"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

func TestQuestionRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepo(newTestDB(t))

	q := &entity.Question{Text: "What is 2 + 2?", Options: entity.StringArray{"3", "4"}, CorrectOption: 1}
	require.NoError(t, repo.Create(ctx, q))
	require.NotZero(t, q.ID)

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StringArray{"3", "4"}, got.Options)
	assert.Equal(t, 1, got.CorrectOption)

	got.Text = "What is 2 + 3?"
	got.Options = entity.StringArray{"5", "6", "7"}
	got.CorrectOption = 0
	require.NoError(t, repo.Update(ctx, got))

	updated, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "What is 2 + 3?", updated.Text)
	assert.Len(t, updated.Options, 3)
	assert.Equal(t, 0, updated.CorrectOption)

	require.NoError(t, repo.Delete(ctx, q.ID))
	assert.ErrorIs(t, repo.Delete(ctx, q.ID), apperrors.ErrNotFound)
	_, err = repo.GetByID(ctx, q.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestQuestionRepo_ListAllOrderedByID(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepo(newTestDB(t))

	batch := []entity.Question{
		{Text: "First question", Options: entity.StringArray{"a", "b"}, CorrectOption: 0},
		{Text: "Second question", Options: entity.StringArray{"a", "b"}, CorrectOption: 1},
		{Text: "Third question", Options: entity.StringArray{"a", "b"}, CorrectOption: 0},
	}
	require.NoError(t, repo.CreateBatch(ctx, batch))

	all, err := repo.ListAll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].ID < all[1].ID && all[1].ID < all[2].ID)

	limited, err := repo.ListAll(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)

	page, total, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "Second question", page[0].Text)

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}
