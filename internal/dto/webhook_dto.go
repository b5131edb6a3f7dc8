package dto

import "encoding/json"

// Webhook event types sent by the gateway.
const (
	EventFeedback = "FEEDBACK"
	EventSession  = "SESSION"
)

// SessionDTO describes the chat session state attached to a webhook event.
type SessionDTO struct {
	UserID string `json:"user_id"`
	State  string `json:"state"` // OPEN or CLOSED
}

// FeedbackDTO is the inbound answer to a previously sent message.
type FeedbackDTO struct {
	MessageID json.Number `json:"message_id"`
	Type      string      `json:"type"` // BUTTON, TEXT
	Text      string      `json:"text,omitempty"`
	ButtonID  *int        `json:"button_id,omitempty"`
}

// WebhookEventDTO is the envelope the gateway posts to /webhook.
type WebhookEventDTO struct {
	Type     string       `json:"type" binding:"required"`
	Session  *SessionDTO  `json:"session,omitempty"`
	Feedback *FeedbackDTO `json:"feedback,omitempty"`
}
