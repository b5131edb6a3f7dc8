package model

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrAlreadyTransferred is returned when a record that already left the
	// NOT_ANSWERED state is handed to the gateway again.
	ErrAlreadyTransferred = errors.New("record is already transferred")
	// ErrAlreadyScored is returned when a finally scored record is scored again.
	ErrAlreadyScored = errors.New("record is already scored")
	// ErrUnknownKind is returned for a record whose discriminator is outside
	// the closed TEST/OPEN set.
	ErrUnknownKind = errors.New("unknown record kind")
)

// PointsCalculator scores person answers. ScoreTest returns 0 or 1 for the
// exact-match grading of test answers; ScoreOpen returns a similarity in
// [0, 1] for free-text answers.
type PointsCalculator interface {
	ScoreTest(record *Record) (float64, error)
	ScoreOpen(record *Record) (float64, error)
}

// MessageFactory turns records into outbound messages. Record.Dispatch calls
// back into the matching Create method, so callers never branch on the
// record kind themselves.
type MessageFactory interface {
	CreateTest(record *Record)
	CreateOpen(record *Record)
}

// Record is one question asked of one person, with its delivery and answer
// lifecycle. Kind mirrors the kind of the owning question.
type Record struct {
	ID   uint   `gorm:"primarykey" json:"id"`
	Kind string `json:"kind" gorm:"column:type;not null"`

	QuestionID uint     `json:"question_id" gorm:"not null;index"`
	Question   Question `json:"question,omitempty" gorm:"foreignKey:QuestionID"`
	PersonID   string   `json:"person_id" gorm:"not null;index"`

	PersonAnswer *string `json:"person_answer,omitempty"`
	// MessageID is the gateway-assigned handle correlating the outbound
	// message with its eventual reply. Set on transfer, unique while set.
	MessageID *string `json:"message_id,omitempty" gorm:"index"`

	AskTime    time.Time   `json:"ask_time" gorm:"not null;index"`
	AnswerTime *time.Time  `json:"answer_time,omitempty"`
	State      AnswerState `json:"state" gorm:"not null;index"`
	Points     float64     `json:"points" gorm:"not null;default:0"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Record) TableName() string {
	return "records"
}

// Transfer marks the record as delivered and stores the gateway handle.
// Re-sending an already sent record is a logic error, not a no-op.
func (r *Record) Transfer(messageID string) error {
	if r.State != NotAnswered {
		return fmt.Errorf("record %d in state %s: %w", r.ID, r.State, ErrAlreadyTransferred)
	}
	r.State = Transferred
	r.MessageID = &messageID
	return nil
}

// SetAnswer stores the raw person answer and stamps the answer time.
// It does not transition the state, Score does.
func (r *Record) SetAnswer(answer string) {
	now := time.Now()
	r.PersonAnswer = &answer
	r.AnswerTime = &now
}

// Score asks the calculator for points and advances the state: test records
// become ANSWERED, open records become PENDING because free-text grades
// always await human confirmation. Re-scoring within PENDING is allowed,
// re-scoring an ANSWERED record is not.
func (r *Record) Score(calculator PointsCalculator) (float64, error) {
	if r.State == Answered {
		return 0, fmt.Errorf("record %d: %w", r.ID, ErrAlreadyScored)
	}

	switch r.Kind {
	case KindTest:
		points, err := calculator.ScoreTest(r)
		if err != nil {
			return 0, fmt.Errorf("failed to score test record %d: %w", r.ID, err)
		}
		r.Points = points
		r.State = Answered
		return points, nil

	case KindOpen:
		points, err := calculator.ScoreOpen(r)
		if err != nil {
			return 0, fmt.Errorf("failed to score open record %d: %w", r.ID, err)
		}
		r.Points = points
		r.State = Pending
		return points, nil
	}
	return 0, fmt.Errorf("record %d kind %q: %w", r.ID, r.Kind, ErrUnknownKind)
}

// Dispatch hands the record to the factory method matching its kind.
func (r *Record) Dispatch(factory MessageFactory) error {
	switch r.Kind {
	case KindTest:
		factory.CreateTest(r)
	case KindOpen:
		factory.CreateOpen(r)
	default:
		return fmt.Errorf("record %d kind %q: %w", r.ID, r.Kind, ErrUnknownKind)
	}
	return nil
}
