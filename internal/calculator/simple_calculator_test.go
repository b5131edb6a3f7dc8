package calculator

import (
	"testing"

	"github.com/ospiem/quizbee/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordWithAnswer(kind, canonical string, answer *string) *model.Record {
	return &model.Record{
		Kind:         kind,
		Question:     model.Question{Kind: kind, Answer: canonical},
		PersonAnswer: answer,
	}
}

func TestScoreTestExactMatch(t *testing.T) {
	c := NewSimpleCalculator()
	answer := "2"

	points, err := c.ScoreTest(recordWithAnswer(model.KindTest, "2", &answer))
	require.NoError(t, err)
	assert.Equal(t, 1.0, points)
}

func TestScoreTestMismatch(t *testing.T) {
	c := NewSimpleCalculator()
	answer := "3"

	points, err := c.ScoreTest(recordWithAnswer(model.KindTest, "2", &answer))
	require.NoError(t, err)
	assert.Equal(t, 0.0, points)
}

func TestScoreTestMissingAnswer(t *testing.T) {
	c := NewSimpleCalculator()

	points, err := c.ScoreTest(recordWithAnswer(model.KindTest, "2", nil))
	require.NoError(t, err)
	assert.Equal(t, 0.0, points)
}

func TestScoreOpenIsNeutral(t *testing.T) {
	c := NewSimpleCalculator()
	answer := "anything at all"

	points, err := c.ScoreOpen(recordWithAnswer(model.KindOpen, "canonical", &answer))
	require.NoError(t, err)
	assert.Equal(t, 0.5, points)
}
