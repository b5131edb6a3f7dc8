package scheduler

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/ospiem/quizbee/config"
	"github.com/ospiem/quizbee/internal/directory"
	"github.com/ospiem/quizbee/internal/model"
	"github.com/ospiem/quizbee/internal/repository"
	"github.com/rs/zerolog/log"
)

// SmartGenerator weights eligible questions by the person's answering
// history: the longer a question went unanswered relative to the points
// collected on it, the likelier it comes up, shaped by an oscillating decay
// envelope approximating a spaced-repetition review schedule and a Gaussian
// preference for questions near the person's proficiency level.
type SmartGenerator struct {
	questions repository.QuestionRepository
	records   repository.RecordRepository
	rng       *rand.Rand

	mu         float64
	sigma      float64
	epsilon    float64
	periodUnit time.Duration
}

func NewSmartGenerator(cfg *config.Config, questions repository.QuestionRepository, records repository.RecordRepository, rng *rand.Rand) *SmartGenerator {
	return &SmartGenerator{
		questions:  questions,
		records:    records,
		rng:        rng,
		mu:         cfg.Scheduler.Mu,
		sigma:      cfg.Scheduler.Sigma,
		epsilon:    cfg.Scheduler.Epsilon,
		periodUnit: cfg.Scheduler.PeriodUnit,
	}
}

func (g *SmartGenerator) NextBunch(person *directory.Person, count int) ([]Item, error) {
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
	if len(candidates) == 0 {
		return items, nil
	}

	weights := make([]float64, len(candidates))
	for i := range candidates {
		weights[i], err = g.weight(person, &candidates[i])
		if err != nil {
			return nil, err
		}
	}
	normalize(weights)

	need := count - len(items)
	if need > len(candidates) {
		need = len(candidates)
	}
	for _, idx := range sampleWithoutReplacement(g.rng, weights, need) {
		items = append(items, Item{Question: &candidates[idx]})
	}
	return items, nil
}

// weight computes the selection weight of one candidate question. NaN marks
// a question the person never collected points on; normalize resolves those
// to a high placeholder so untried material is preferred.
func (g *SmartGenerator) weight(person *directory.Person, question *model.Question) (float64, error) {
	pointsSum, err := g.records.SumPoints(person.ID, question.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to sum points for question %d: %w", question.ID, err)
	}
	if pointsSum == 0 {
		return math.NaN(), nil
	}

	first, err := g.records.FirstAsked(person.ID, question.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch first record for question %d: %w", question.ID, err)
	}
	last, err := g.records.LastAsked(person.ID, question.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch last record for question %d: %w", question.ID, err)
	}

	now := time.Now()
	elapsedPeriods := float64(now.Sub(first.AskTime)) / float64(g.periodUnit)
	gapSeconds := now.Sub(last.AskTime).Seconds()

	// Ratio between the silence since the last ask and the points already
	// collected: a forgetting proxy.
	w := gapSeconds / pointsSum

	// Oscillating decay envelope: periodically suppresses or boosts the
	// weight as the elapsed time crosses doubling thresholds.
	w *= math.Pow(math.Abs(math.Cos(math.Pi*math.Log2(elapsedPeriods+g.mu))),
		math.Pow(elapsedPeriods+g.mu, 2)/g.sigma) + g.epsilon

	// Gaussian preference for questions matching the person's level.
	maxTargetLevel := g.maxTargetLevel(person, question)
	w *= math.Exp(-0.5 * math.Pow(float64(maxTargetLevel-question.Level), 2))

	// Hard exclusion: someone else is still mid-review on this question.
	outstanding, err := g.records.CountOutstanding(question.ID, person.ID)
	if err != nil {
		return 0, fmt.Errorf("failed to count outstanding records for question %d: %w", question.ID, err)
	}
	if outstanding != 0 {
		w = 0
	}
	return w, nil
}

func (g *SmartGenerator) maxTargetLevel(person *directory.Person, question *model.Question) int {
	groupIDs := make(map[string]struct{}, len(question.Groups))
	for _, assoc := range question.Groups {
		groupIDs[assoc.GroupID] = struct{}{}
	}
	level, ok := person.MaxLevelFor(groupIDs)
	if !ok {
		log.Warn().Uint("questionID", question.ID).Str("personID", person.ID).
			Msg("Candidate question shares no group with person")
	}
	return level
}

// normalize resolves NaN weights to ten times the largest computed weight,
// falls back to uniform when every weight is zero or unset, and scales the
// vector into a probability distribution.
func normalize(weights []float64) {
	maxKnown := 0.0
	hasKnown := false
	for _, w := range weights {
		if !math.IsNaN(w) {
			if !hasKnown || w > maxKnown {
				maxKnown = w
			}
			hasKnown = true
		}
	}

	sum := 0.0
	for i, w := range weights {
		if math.IsNaN(w) {
			if hasKnown {
				weights[i] = 10 * maxKnown
			} else {
				weights[i] = 1
			}
		}
		sum += weights[i]
	}

	if sum == 0 {
		for i := range weights {
			weights[i] = 1
		}
		sum = float64(len(weights))
	}
	for i := range weights {
		weights[i] /= sum
	}
}

// sampleWithoutReplacement draws n distinct indices, each draw proportional
// to the remaining weights.
func sampleWithoutReplacement(rng *rand.Rand, weights []float64, n int) []int {
	remaining := make([]float64, len(weights))
	copy(remaining, weights)

	total := 0.0
	for _, w := range remaining {
		total += w
	}

	picked := make([]int, 0, n)
	for len(picked) < n {
		r := rng.Float64() * total
		idx := -1
		for i, w := range remaining {
			if w == 0 {
				continue
			}
			if r < w {
				idx = i
				break
			}
			r -= w
		}
		if idx < 0 {
			// Float rounding or exhausted weights: take the first
			// unpicked index with any weight left.
			for i, w := range remaining {
				if w > 0 {
					idx = i
					break
				}
			}
			if idx < 0 {
				break
			}
		}
		picked = append(picked, idx)
		total -= remaining[idx]
		remaining[idx] = 0
	}
	return picked
}
