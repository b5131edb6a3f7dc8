package scheduler

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/ospiem/quizbee/config"
	"github.com/ospiem/quizbee/internal/directory"
	"github.com/ospiem/quizbee/internal/mocks"
	"github.com/ospiem/quizbee/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func schedulerConfig() *config.Config {
	return &config.Config{
		Scheduler: config.Scheduler{
			Mu:         4.0,
			Sigma:      20.0,
			Epsilon:    0.001,
			PeriodUnit: 24 * time.Hour,
		},
	}
}

func somePerson() *directory.Person {
	return &directory.Person{
		ID:       "person-1",
		FullName: "Test Person",
		Groups:   []directory.GroupLevel{{GroupID: "go-devs", Level: 2}},
	}
}

func groupQuestion(t *testing.T, repo *mocks.QuestionRepositoryMock, text string) *model.Question {
	t.Helper()
	question := &model.Question{
		Kind:   model.KindOpen,
		Text:   text,
		Answer: "answer",
		Level:  2,
		Groups: []model.QuestionGroupAssociation{{GroupID: "go-devs"}},
	}
	require.NoError(t, repo.Create(question))
	return question
}

func answeredRecord(question *model.Question, personID string, askedAgo time.Duration, points float64) *model.Record {
	record := question.InitRecord(personID)
	record.AskTime = time.Now().Add(-askedAgo)
	record.State = model.Answered
	record.Points = points
	return record
}

func TestSmartNextBunchPlannedFirst(t *testing.T) {
	questions := mocks.NewQuestionRepositoryMock()
	records := mocks.NewRecordRepositoryMock()
	q1 := groupQuestion(t, questions, "oldest planned")
	q2 := groupQuestion(t, questions, "newer planned")

	older := q1.InitRecord("person-1")
	older.AskTime = time.Now().Add(-48 * time.Hour)
	require.NoError(t, records.Create(older))
	newer := q2.InitRecord("person-1")
	newer.AskTime = time.Now().Add(-24 * time.Hour)
	require.NoError(t, records.Create(newer))

	generator := NewSmartGenerator(schedulerConfig(), questions, records, rand.New(rand.NewSource(1)))

	items, err := generator.NextBunch(somePerson(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Record)
	assert.Nil(t, items[0].Question)
	assert.Equal(t, q1.ID, items[0].Record.QuestionID)
}

func TestSmartNextBunchFillsWithFresh(t *testing.T) {
	questions := mocks.NewQuestionRepositoryMock()
	records := mocks.NewRecordRepositoryMock()
	planned := groupQuestion(t, questions, "planned")
	groupQuestion(t, questions, "fresh")

	record := planned.InitRecord("person-1")
	record.AskTime = time.Now().Add(-time.Hour)
	require.NoError(t, records.Create(record))

	generator := NewSmartGenerator(schedulerConfig(), questions, records, rand.New(rand.NewSource(1)))

	items, err := generator.NextBunch(somePerson(), 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].Record)
	assert.Equal(t, planned.ID, items[0].Record.QuestionID)
	// The fresh slot never re-picks the planned question.
	require.NotNil(t, items[1].Question)
	assert.NotEqual(t, planned.ID, items[1].Question.ID)
}

func TestSmartNextBunchNoCandidates(t *testing.T) {
	questions := mocks.NewQuestionRepositoryMock()
	records := mocks.NewRecordRepositoryMock()
	generator := NewSmartGenerator(schedulerConfig(), questions, records, rand.New(rand.NewSource(1)))

	items, err := generator.NextBunch(somePerson(), 3)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSmartNextBunchPersonWithoutGroups(t *testing.T) {
	questions := mocks.NewQuestionRepositoryMock()
	records := mocks.NewRecordRepositoryMock()
	groupQuestion(t, questions, "unreachable")

	generator := NewSmartGenerator(schedulerConfig(), questions, records, rand.New(rand.NewSource(1)))
	person := &directory.Person{ID: "person-2", FullName: "No Groups"}

	items, err := generator.NextBunch(person, 1)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestSmartPrefersUntriedQuestions(t *testing.T) {
	questions := mocks.NewQuestionRepositoryMock()
	records := mocks.NewRecordRepositoryMock()
	tried := groupQuestion(t, questions, "tried")
	untried := groupQuestion(t, questions, "untried")

	require.NoError(t, records.Create(answeredRecord(tried, "person-1", time.Hour, 3)))

	generator := NewSmartGenerator(schedulerConfig(), questions, records, rand.New(rand.NewSource(42)))
	person := somePerson()

	picks := map[uint]int{}
	for trial := 0; trial < 500; trial++ {
		items, err := generator.NextBunch(person, 1)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].Question)
		picks[items[0].Question.ID]++
	}
	// The untried question carries ten times the tried one's weight.
	assert.Greater(t, picks[untried.ID], picks[tried.ID])
	assert.Greater(t, picks[untried.ID], 350)
}

func TestSmartPrefersNeglectedQuestions(t *testing.T) {
	questions := mocks.NewQuestionRepositoryMock()
	records := mocks.NewRecordRepositoryMock()
	neglected := groupQuestion(t, questions, "asked a month ago, half a point")
	rehearsed := groupQuestion(t, questions, "asked an hour ago, five points")

	require.NoError(t, records.Create(answeredRecord(neglected, "person-1", 30*24*time.Hour, 0.5)))
	require.NoError(t, records.Create(answeredRecord(rehearsed, "person-1", time.Hour, 5)))

	generator := NewSmartGenerator(schedulerConfig(), questions, records, rand.New(rand.NewSource(42)))
	person := somePerson()

	picks := map[uint]int{}
	for trial := 0; trial < 500; trial++ {
		items, err := generator.NextBunch(person, 1)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].Question)
		picks[items[0].Question.ID]++
	}
	assert.Greater(t, picks[neglected.ID], picks[rehearsed.ID])
}

func TestSmartNeverPicksQuestionHeldByAnotherPerson(t *testing.T) {
	questions := mocks.NewQuestionRepositoryMock()
	records := mocks.NewRecordRepositoryMock()
	free := groupQuestion(t, questions, "free")
	held := groupQuestion(t, questions, "held by someone else")

	require.NoError(t, records.Create(answeredRecord(free, "person-1", time.Hour, 1)))
	require.NoError(t, records.Create(answeredRecord(held, "person-1", time.Hour, 1)))

	holding := held.InitRecord("person-2")
	holding.AskTime = time.Now().Add(-time.Minute)
	require.NoError(t, holding.Transfer("555"))
	require.NoError(t, records.Create(holding))

	generator := NewSmartGenerator(schedulerConfig(), questions, records, rand.New(rand.NewSource(42)))
	person := somePerson()

	for trial := 0; trial < 500; trial++ {
		items, err := generator.NextBunch(person, 1)
		require.NoError(t, err)
		require.Len(t, items, 1)
		require.NotNil(t, items[0].Question)
		require.Equal(t, free.ID, items[0].Question.ID)
	}
}

func TestSmartOwnOutstandingRecordDoesNotExclude(t *testing.T) {
	questions := mocks.NewQuestionRepositoryMock()
	records := mocks.NewRecordRepositoryMock()
	question := groupQuestion(t, questions, "only candidate")

	// An answered history plus the person's own pending review.
	require.NoError(t, records.Create(answeredRecord(question, "person-1", 48*time.Hour, 1)))
	pending := answeredRecord(question, "person-1", 24*time.Hour, 0.5)
	pending.State = model.Pending
	require.NoError(t, records.Create(pending))

	generator := NewSmartGenerator(schedulerConfig(), questions, records, rand.New(rand.NewSource(1)))

	items, err := generator.NextBunch(somePerson(), 1)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].Question)
	assert.Equal(t, question.ID, items[0].Question.ID)
}

func TestNormalizeResolvesUnsetWeights(t *testing.T) {
	weights := []float64{1, math.NaN()}
	normalize(weights)

	// The unset weight becomes ten times the largest known one.
	assert.InDelta(t, 1.0/11, weights[0], 1e-9)
	assert.InDelta(t, 10.0/11, weights[1], 1e-9)
}

func TestNormalizeAllUnsetIsUniform(t *testing.T) {
	weights := []float64{math.NaN(), math.NaN(), math.NaN()}
	normalize(weights)
	for _, w := range weights {
		assert.InDelta(t, 1.0/3, w, 1e-9)
	}
}

func TestNormalizeAllZeroIsUniform(t *testing.T) {
	weights := []float64{0, 0}
	normalize(weights)
	assert.InDelta(t, 0.5, weights[0], 1e-9)
	assert.InDelta(t, 0.5, weights[1], 1e-9)
}

func TestSampleWithoutReplacementSkipsZeroWeights(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	weights := []float64{0.5, 0, 0.5}

	for trial := 0; trial < 200; trial++ {
		for _, idx := range sampleWithoutReplacement(rng, weights, 2) {
			assert.NotEqual(t, 1, idx)
		}
	}
}

func TestSampleWithoutReplacementDistinctAndBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	weights := []float64{0.2, 0.3, 0.5}

	picked := sampleWithoutReplacement(rng, weights, 5)
	assert.Len(t, picked, 3)
	seen := map[int]struct{}{}
	for _, idx := range picked {
		_, dup := seen[idx]
		assert.False(t, dup)
		seen[idx] = struct{}{}
	}
}
