package scheduler

import (
	"fmt"
	"time"

	"github.com/ospiem/quizbee/internal/directory"
	"github.com/ospiem/quizbee/internal/model"
	"github.com/ospiem/quizbee/internal/repository"
)

// Item is one scheduled unit: either a fresh Question the caller must turn
// into a new record, or a pre-existing planned Record to re-deliver.
// Exactly one of the two fields is set.
type Item struct {
	Question *model.Question
	Record   *model.Record
}

// Generator picks what to ask a person next. NextBunch returns at most count
// items: overdue planned records first, then fresh questions filling the
// remainder.
type Generator interface {
	NextBunch(person *directory.Person, count int) ([]Item, error)
}

// getPlanned fetches the person's overdue NOT_ANSWERED records, oldest first.
func getPlanned(records repository.RecordRepository, person *directory.Person) ([]model.Record, error) {
	planned, err := records.FindPlanned(person.ID, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch planned records for person %s: %w", person.ID, err)
	}
	return planned, nil
}

// getPersonQuestions fetches the fresh candidates: questions sharing a group
// with the person that are not already among the planned records.
func getPersonQuestions(questions repository.QuestionRepository, person *directory.Person, planned []model.Record) ([]model.Question, error) {
	groupIDs := make([]string, 0, len(person.Groups))
	for _, g := range person.Groups {
		groupIDs = append(groupIDs, g.GroupID)
	}

	exclude := make([]uint, 0, len(planned))
	for _, record := range planned {
		exclude = append(exclude, record.QuestionID)
	}

	candidates, err := questions.FindEligible(groupIDs, exclude)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidate questions for person %s: %w", person.ID, err)
	}
	return candidates, nil
}

func plannedItems(planned []model.Record, count int) []Item {
	if len(planned) > count {
		planned = planned[:count]
	}
	items := make([]Item, 0, len(planned))
	for i := range planned {
		items = append(items, Item{Record: &planned[i]})
	}
	return items
}
