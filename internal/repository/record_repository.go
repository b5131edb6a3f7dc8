package repository

import (
	"time"

	"github.com/ospiem/quizbee/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecordRepository interface {
	Create(record *model.Record) error
	Update(record *model.Record) error
	FindByID(id uint) (*model.Record, error)

	// FindByIDForUpdate reads the record under a row lock. Only meaningful
	// inside a transaction; it serializes concurrent acks for one record.
	FindByIDForUpdate(id uint) (*model.Record, error)

	// FindPlanned returns the person's NOT_ANSWERED records whose ask time
	// has passed, oldest first. These are always delivered before fresh
	// questions are drawn.
	FindPlanned(personID string, now time.Time) ([]model.Record, error)

	// SumPoints sums the points the person accumulated on a question over
	// all of their records.
	SumPoints(personID string, questionID uint) (float64, error)

	// FirstAsked and LastAsked bound the person's asking history for a
	// question by ask time.
	FirstAsked(personID string, questionID uint) (*model.Record, error)
	LastAsked(personID string, questionID uint) (*model.Record, error)

	// CountOutstanding counts records of a question, held by anyone except
	// the given person, that have not reached the ANSWERED state.
	CountOutstanding(questionID uint, excludePersonID string) (int64, error)

	FindByMessageID(messageID string) (*model.Record, error)
	FindTransferred(personID string) (*model.Record, error)
	FindAllByPerson(personID string) ([]model.Record, error)

	// Transaction runs fn against a transaction-bound copy of the
	// repository, committing on nil and rolling back on error.
	Transaction(fn func(RecordRepository) error) error
}

type recordRepository struct {
	db *gorm.DB
}

func NewRecordRepository(db *gorm.DB) RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) Transaction(fn func(RecordRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&recordRepository{db: tx})
	})
}

// Create and Update omit the embedded Question: it is context for message
// rendering, not payload, and must not be re-upserted on every record write.
func (r *recordRepository) Create(record *model.Record) error {
	return r.db.Omit("Question").Create(record).Error
}

func (r *recordRepository) Update(record *model.Record) error {
	return r.db.Omit("Question").Save(record).Error
}

func (r *recordRepository) FindByID(id uint) (*model.Record, error) {
	var record model.Record
	if err := r.db.Preload("Question").First(&record, id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) FindByIDForUpdate(id uint) (*model.Record, error) {
	var record model.Record
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Question").
		First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) FindPlanned(personID string, now time.Time) ([]model.Record, error) {
	var records []model.Record
	err := r.db.Preload("Question").
		Where("person_id = ? AND ask_time <= ? AND state = ?", personID, now, model.NotAnswered).
		Order("ask_time").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *recordRepository) SumPoints(personID string, questionID uint) (float64, error) {
	var sum float64
	err := r.db.Model(&model.Record{}).
		Select("COALESCE(SUM(points), 0)").
		Where("person_id = ? AND question_id = ?", personID, questionID).
		Scan(&sum).Error
	return sum, err
}

func (r *recordRepository) FirstAsked(personID string, questionID uint) (*model.Record, error) {
	var record model.Record
	err := r.db.Where("person_id = ? AND question_id = ?", personID, questionID).
		Order("ask_time ASC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) LastAsked(personID string, questionID uint) (*model.Record, error) {
	var record model.Record
	err := r.db.Where("person_id = ? AND question_id = ?", personID, questionID).
		Order("ask_time DESC").
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) CountOutstanding(questionID uint, excludePersonID string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Record{}).
		Where("question_id = ? AND state <> ? AND person_id <> ?", questionID, model.Answered, excludePersonID).
		Count(&count).Error
	return count, err
}

func (r *recordRepository) FindByMessageID(messageID string) (*model.Record, error) {
	var record model.Record
	err := r.db.Preload("Question").
		Where("message_id = ?", messageID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) FindTransferred(personID string) (*model.Record, error) {
	var record model.Record
	err := r.db.Preload("Question").
		Where("person_id = ? AND state = ?", personID, model.Transferred).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *recordRepository) FindAllByPerson(personID string) ([]model.Record, error) {
	var records []model.Record
	err := r.db.Preload("Question").
		Where("person_id = ?", personID).
		Order("ask_time DESC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}
