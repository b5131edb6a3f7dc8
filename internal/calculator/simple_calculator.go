package calculator

import (
	"github.com/ospiem/quizbee/internal/model"
)

// SimpleCalculator grades test answers by exact match against the canonical
// answer and gives every open answer the neutral half point, leaving the
// real grade to human review.
type SimpleCalculator struct{}

func NewSimpleCalculator() *SimpleCalculator {
	return &SimpleCalculator{}
}

func (c *SimpleCalculator) ScoreTest(record *model.Record) (float64, error) {
	if record.PersonAnswer != nil && record.Question.Answer == *record.PersonAnswer {
		return 1, nil
	}
	return 0, nil
}

func (c *SimpleCalculator) ScoreOpen(record *model.Record) (float64, error) {
	return 0.5, nil
}
