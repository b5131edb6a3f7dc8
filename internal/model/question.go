package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Question kinds. The set is closed: every Question and its Records carry
// exactly one of these discriminators.
const (
	KindTest = "TEST"
	KindOpen = "OPEN"
)

// QuestionGroupAssociation links a question to a directory group.
// A question is eligible for a person when they share at least one group.
type QuestionGroupAssociation struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	QuestionID uint   `json:"question_id" gorm:"not null;index"`
	GroupID    string `json:"group_id" gorm:"not null;index"`
}

func (QuestionGroupAssociation) TableName() string {
	return "question_to_group"
}

// Question is one item of the question bank. Kind selects the concrete
// behavior: KindTest questions carry an ordered options list and are graded
// automatically, KindOpen questions expect free text and human review.
//
// A question owns its group links and records; deleting it cascades.
type Question struct {
	ID         uint    `gorm:"primarykey" json:"id"`
	Kind       string  `json:"kind" gorm:"column:type;not null;index"`
	Text       string  `json:"text" gorm:"type:text;not null"`
	Subject    *string `json:"subject,omitempty"`
	Answer     string  `json:"answer" gorm:"not null"`
	Options    string  `json:"options,omitempty" gorm:"type:text"` // JSON-encoded list, KindTest only
	Level      int     `json:"level" gorm:"not null"`
	ArticleURL *string `json:"article_url,omitempty"`

	Groups  []QuestionGroupAssociation `json:"groups,omitempty" gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Records []Record                   `json:"records,omitempty" gorm:"foreignKey:QuestionID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// OptionList decodes the JSON-encoded answer options of a test question.
func (q *Question) OptionList() ([]string, error) {
	if q.Options == "" {
		return nil, nil
	}
	var options []string
	if err := json.Unmarshal([]byte(q.Options), &options); err != nil {
		return nil, fmt.Errorf("question %d has malformed options: %w", q.ID, err)
	}
	return options, nil
}

// SetOptionList encodes and stores the answer options of a test question.
func (q *Question) SetOptionList(options []string) error {
	encoded, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}
	q.Options = string(encoded)
	return nil
}

// InitRecord constructs a fresh record of the matching kind for the given
// person: state NOT_ANSWERED, zero points, no message handle yet.
func (q *Question) InitRecord(personID string) *Record {
	return &Record{
		Kind:       q.Kind,
		QuestionID: q.ID,
		Question:   *q,
		PersonID:   personID,
		State:      NotAnswered,
	}
}
