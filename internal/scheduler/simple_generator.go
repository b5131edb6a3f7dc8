package scheduler

import (
	"math/rand"

	"github.com/ospiem/quizbee/internal/directory"
	"github.com/ospiem/quizbee/internal/repository"
)

// SimpleGenerator fills the bunch with uniformly random eligible questions.
type SimpleGenerator struct {
	questions repository.QuestionRepository
	records   repository.RecordRepository
	rng       *rand.Rand
}

// NewSimpleGenerator builds the uniform strategy. The rand source is
// injectable so selection is reproducible in tests.
func NewSimpleGenerator(questions repository.QuestionRepository, records repository.RecordRepository, rng *rand.Rand) *SimpleGenerator {
	return &SimpleGenerator{questions: questions, records: records, rng: rng}
}

func (g *SimpleGenerator) NextBunch(person *directory.Person, count int) ([]Item, error) {
	planned, err := getPlanned(g.records, person)
	if err != nil {
		return nil, err
	}
	items := plannedItems(planned, count)
	if len(items) >= count {
		return items, nil
	}

	candidates, err := getPersonQuestions(g.questions, person, planned)
	if err != nil {
		return nil, err
	}

	need := count - len(items)
	if need > len(candidates) {
		need = len(candidates)
	}
	for _, idx := range g.rng.Perm(len(candidates))[:need] {
		items = append(items, Item{Question: &candidates[idx]})
	}
	return items, nil
}
