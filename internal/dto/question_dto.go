package dto

import "time"

// QuestionCreateDTO is the admin request for adding a question to the bank.
type QuestionCreateDTO struct {
	Kind       string   `json:"kind" binding:"required,oneof=TEST OPEN"`
	Text       string   `json:"text" binding:"required"`
	Subject    *string  `json:"subject,omitempty"`
	Answer     string   `json:"answer" binding:"required"`
	Options    []string `json:"options,omitempty"`
	Level      int      `json:"level" binding:"required,min=1"`
	ArticleURL *string  `json:"article_url,omitempty"`
	Groups     []string `json:"groups" binding:"required,min=1"`
}

// QuestionResponseDTO is the admin view of one question.
type QuestionResponseDTO struct {
	ID         uint      `json:"id"`
	Kind       string    `json:"kind"`
	Text       string    `json:"text"`
	Subject    *string   `json:"subject,omitempty"`
	Answer     string    `json:"answer"`
	Options    []string  `json:"options,omitempty"`
	Level      int       `json:"level"`
	ArticleURL *string   `json:"article_url,omitempty"`
	Groups     []string  `json:"groups"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordResponseDTO is one asked question in a person's history.
type RecordResponseDTO struct {
	ID           uint       `json:"id"`
	QuestionID   uint       `json:"question_id"`
	QuestionText string     `json:"question_text,omitempty"`
	Kind         string     `json:"kind"`
	State        string     `json:"state"`
	Points       float64    `json:"points"`
	PersonAnswer *string    `json:"person_answer,omitempty"`
	AskTime      time.Time  `json:"ask_time"`
	AnswerTime   *time.Time `json:"answer_time,omitempty"`
}

// PersonStatisticsDTO summarizes one person's answering history.
type PersonStatisticsDTO struct {
	PersonID    string              `json:"person_id"`
	TotalPoints float64             `json:"total_points"`
	ByState     map[string]int      `json:"by_state"`
	Records     []RecordResponseDTO `json:"records"`
}

type ErrorResponse struct {
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}
