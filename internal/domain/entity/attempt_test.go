package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttempt_AnswersRoundTrip(t *testing.T) {
	answers := map[uint]int{1: 0, 2: 3, 10: -1}

	encoded, err := EncodeAnswers(answers)
	require.NoError(t, err)

	attempt := &Attempt{Answers: encoded}
	decoded, err := attempt.DecodeAnswers()
	require.NoError(t, err)
	assert.Equal(t, answers, decoded)
}

func TestAttempt_DecodeAnswers_Empty(t *testing.T) {
	attempt := &Attempt{}

	decoded, err := attempt.DecodeAnswers()
	require.NoError(t, err)
	assert.Empty(t, decoded)
}

func TestAttempt_BeforeCreate_FillsDefaults(t *testing.T) {
	attempt := &Attempt{Score: 1, TotalQuestions: 2}

	require.NoError(t, attempt.BeforeCreate(mockTx))
	assert.NotEmpty(t, attempt.ID)
	assert.False(t, attempt.CompletedAt.IsZero())
	assert.True(t, attempt.IsAnonymous())
}
