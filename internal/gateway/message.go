package gateway

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ospiem/quizbee/internal/model"
)

// Inbound answer types.
const (
	AnswerButton = "BUTTON"
	AnswerText   = "TEXT"
)

// ErrAnswerType is returned when the inbound answer shape does not match the
// message kind, a button press for an open question or free text for a test.
var ErrAnswerType = errors.New("answer type does not match question kind")

// Answer is the inbound reply payload relayed by the gateway.
type Answer struct {
	MessageID string `json:"message_id"`
	Type      string `json:"type"`
	Text      string `json:"text,omitempty"`
	ButtonID  *int   `json:"button_id,omitempty"`
}

// Message wraps one record on its way through the gateway. Send delivers the
// question and transfers the record; HandleAnswer reconciles the reply back
// into record state and confirms to the person.
type Message interface {
	Send() error
	HandleAnswer(answer Answer) error
}

// testMessage delivers a test question as a buttoned message. The first
// button is always the "don't know" escape hatch.
type testMessage struct {
	factory *Factory
	record  *model.Record
}

func (m *testMessage) Send() error {
	options, err := m.record.Question.OptionList()
	if err != nil {
		return err
	}

	handle, err := m.factory.client.Send(MessagePayload{
		UserID:  m.record.PersonID,
		Type:    PayloadWithButtons,
		Text:    m.record.Question.Text,
		Buttons: append([]string{dontKnowOption}, options...),
	})
	if err != nil {
		return fmt.Errorf("failed to send test question %d: %w", m.record.QuestionID, err)
	}
	return m.factory.transfer(m.record, handle)
}

func (m *testMessage) HandleAnswer(answer Answer) error {
	if answer.Type != AnswerButton || answer.ButtonID == nil {
		return fmt.Errorf("test message %d: %w", m.record.ID, ErrAnswerType)
	}
	text := strconv.Itoa(*answer.ButtonID)

	score, err := m.factory.applyAnswer(m.record, text)
	if err != nil {
		return err
	}

	confirmation := "Correct!"
	if score != 1 {
		confirmation = "Not quite ;("
	}
	return m.factory.client.Notify(MessagePayload{
		UserID: m.record.PersonID,
		Type:   PayloadSimple,
		Text:   confirmation,
	})
}

// openMessage delivers an open question as plain text.
type openMessage struct {
	factory *Factory
	record  *model.Record
}

func (m *openMessage) Send() error {
	handle, err := m.factory.client.Send(MessagePayload{
		UserID: m.record.PersonID,
		Type:   PayloadSimple,
		Text:   m.record.Question.Text,
	})
	if err != nil {
		return fmt.Errorf("failed to send open question %d: %w", m.record.QuestionID, err)
	}
	return m.factory.transfer(m.record, handle)
}

func (m *openMessage) HandleAnswer(answer Answer) error {
	if answer.Type == AnswerButton {
		return fmt.Errorf("open message %d: %w", m.record.ID, ErrAnswerType)
	}

	score, err := m.factory.applyAnswer(m.record, answer.Text)
	if err != nil {
		return err
	}

	return m.factory.client.Notify(MessagePayload{
		UserID: m.record.PersonID,
		Type:   PayloadSimple,
		Text:   fmt.Sprintf("I'd score this answer at %.1f, a reviewer may adjust it later.", score),
	})
}

// replyMessage nudges a person about a question they were already asked but
// have not answered yet. It transfers nothing and expects no reply of its own.
type replyMessage struct {
	factory *Factory
	record  *model.Record
}

func (m *replyMessage) Send() error {
	return m.factory.client.Notify(MessagePayload{
		UserID: m.record.PersonID,
		Type:   PayloadSimple,
		Text:   fmt.Sprintf("You still have an open question waiting: %s", m.record.Question.Text),
	})
}

func (m *replyMessage) HandleAnswer(Answer) error {
	return fmt.Errorf("reminder message for record %d accepts no answer", m.record.ID)
}

const dontKnowOption = "I don't know"
