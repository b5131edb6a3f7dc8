// Package mocks provides in-memory collaborators for tests.
package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/ospiem/quizbee/internal/model"
	"github.com/ospiem/quizbee/internal/repository"
	"gorm.io/gorm"
)

// QuestionRepositoryMock keeps questions in a slice.
type QuestionRepositoryMock struct {
	Questions []model.Question

	mu     sync.Mutex
	nextID uint
}

func NewQuestionRepositoryMock() *QuestionRepositoryMock {
	return &QuestionRepositoryMock{}
}

func (m *QuestionRepositoryMock) Create(question *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if question.ID == 0 {
		m.nextID++
		question.ID = m.nextID
	} else if question.ID > m.nextID {
		m.nextID = question.ID
	}
	for i := range question.Groups {
		question.Groups[i].QuestionID = question.ID
	}
	m.Questions = append(m.Questions, *question)
	return nil
}

func (m *QuestionRepositoryMock) FindByID(id uint) (*model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Questions {
		if m.Questions[i].ID == id {
			q := m.Questions[i]
			return &q, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *QuestionRepositoryMock) FindAll() ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Question, len(m.Questions))
	copy(out, m.Questions)
	return out, nil
}

func (m *QuestionRepositoryMock) Update(question *model.Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Questions {
		if m.Questions[i].ID == question.ID {
			m.Questions[i] = *question
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *QuestionRepositoryMock) Delete(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.Questions {
		if m.Questions[i].ID == id {
			m.Questions = append(m.Questions[:i], m.Questions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *QuestionRepositoryMock) FindEligible(groupIDs []string, excludeQuestionIDs []uint) ([]model.Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	groups := make(map[string]struct{}, len(groupIDs))
	for _, id := range groupIDs {
		groups[id] = struct{}{}
	}
	excluded := make(map[uint]struct{}, len(excludeQuestionIDs))
	for _, id := range excludeQuestionIDs {
		excluded[id] = struct{}{}
	}

	var out []model.Question
	for _, question := range m.Questions {
		if _, skip := excluded[question.ID]; skip {
			continue
		}
		for _, assoc := range question.Groups {
			if _, ok := groups[assoc.GroupID]; ok {
				out = append(out, question)
				break
			}
		}
	}
	return out, nil
}

// RecordRepositoryMock keeps records in a slice. Reads return copies, the
// way a real database round-trip would. CreateErr, when set, fails every
// Create, simulating a failing insert inside a transaction.
type RecordRepositoryMock struct {
	Records   []*model.Record
	CreateErr error

	mu     sync.Mutex
	nextID uint
}

func NewRecordRepositoryMock() *RecordRepositoryMock {
	return &RecordRepositoryMock{}
}

func (m *RecordRepositoryMock) Create(record *model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateErr != nil {
		return m.CreateErr
	}
	if record.ID == 0 {
		m.nextID++
		record.ID = m.nextID
	} else if record.ID > m.nextID {
		m.nextID = record.ID
	}
	stored := *record
	m.Records = append(m.Records, &stored)
	return nil
}

func (m *RecordRepositoryMock) Update(record *model.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, stored := range m.Records {
		if stored.ID == record.ID {
			*stored = *record
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (m *RecordRepositoryMock) find(match func(*model.Record) bool) []*model.Record {
	var out []*model.Record
	for _, stored := range m.Records {
		if match(stored) {
			out = append(out, stored)
		}
	}
	return out
}

func (m *RecordRepositoryMock) FindByID(id uint) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.find(func(r *model.Record) bool { return r.ID == id })
	if len(matches) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	record := *matches[0]
	return &record, nil
}

func (m *RecordRepositoryMock) FindByIDForUpdate(id uint) (*model.Record, error) {
	return m.FindByID(id)
}

func (m *RecordRepositoryMock) FindPlanned(personID string, now time.Time) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.find(func(r *model.Record) bool {
		return r.PersonID == personID && r.State == model.NotAnswered && !r.AskTime.After(now)
	})
	sort.Slice(matches, func(i, j int) bool { return matches[i].AskTime.Before(matches[j].AskTime) })

	out := make([]model.Record, 0, len(matches))
	for _, record := range matches {
		out = append(out, *record)
	}
	return out, nil
}

func (m *RecordRepositoryMock) SumPoints(personID string, questionID uint) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sum := 0.0
	for _, record := range m.find(func(r *model.Record) bool {
		return r.PersonID == personID && r.QuestionID == questionID
	}) {
		sum += record.Points
	}
	return sum, nil
}

func (m *RecordRepositoryMock) FirstAsked(personID string, questionID uint) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.find(func(r *model.Record) bool {
		return r.PersonID == personID && r.QuestionID == questionID
	})
	if len(matches) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].AskTime.Before(matches[j].AskTime) })
	record := *matches[0]
	return &record, nil
}

func (m *RecordRepositoryMock) LastAsked(personID string, questionID uint) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.find(func(r *model.Record) bool {
		return r.PersonID == personID && r.QuestionID == questionID
	})
	if len(matches) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].AskTime.After(matches[j].AskTime) })
	record := *matches[0]
	return &record, nil
}

func (m *RecordRepositoryMock) CountOutstanding(questionID uint, excludePersonID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.find(func(r *model.Record) bool {
		return r.QuestionID == questionID && r.State != model.Answered && r.PersonID != excludePersonID
	})
	return int64(len(matches)), nil
}

func (m *RecordRepositoryMock) FindByMessageID(messageID string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.find(func(r *model.Record) bool {
		return r.MessageID != nil && *r.MessageID == messageID
	})
	if len(matches) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	record := *matches[0]
	return &record, nil
}

func (m *RecordRepositoryMock) FindTransferred(personID string) (*model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.find(func(r *model.Record) bool {
		return r.PersonID == personID && r.State == model.Transferred
	})
	if len(matches) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	record := *matches[0]
	return &record, nil
}

func (m *RecordRepositoryMock) FindAllByPerson(personID string) ([]model.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.find(func(r *model.Record) bool { return r.PersonID == personID })
	out := make([]model.Record, 0, len(matches))
	for _, record := range matches {
		out = append(out, *record)
	}
	return out, nil
}

// Transaction runs fn against the mock itself without holding the lock, so
// fn can call the repository methods as usual.
func (m *RecordRepositoryMock) Transaction(fn func(repository.RecordRepository) error) error {
	return fn(m)
}

var _ repository.QuestionRepository = (*QuestionRepositoryMock)(nil)
var _ repository.RecordRepository = (*RecordRepositoryMock)(nil)
