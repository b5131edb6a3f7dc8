package webhook

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jinzhu/copier"
	"github.com/ospiem/quizbee/internal/dto"
	"github.com/ospiem/quizbee/internal/gateway"
	"github.com/rs/zerolog/log"
)

// WebhookController receives gateway events: FEEDBACK carries an answer to a
// previously sent message, SESSION signals a person opened a chat session
// and wants a question.
type WebhookController struct {
	factory *gateway.Factory
}

func NewWebhookController(factory *gateway.Factory) *WebhookController {
	return &WebhookController{factory: factory}
}

func (c *WebhookController) Handle(ctx *gin.Context) {
	var event dto.WebhookEventDTO
	if err := ctx.ShouldBindJSON(&event); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Malformed webhook payload", Details: []string{err.Error()}})
		return
	}

	var err error
	switch event.Type {
	case dto.EventFeedback:
		err = c.handleFeedback(event)
	case dto.EventSession:
		err = c.handleSession(event)
	default:
		ctx.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "Unknown event type: " + event.Type})
		return
	}

	if err != nil {
		log.Error().Err(err).Str("type", event.Type).Msg("Webhook event failed")
		status := http.StatusBadRequest
		if errors.Is(err, gateway.ErrUnknownHandle) {
			status = http.StatusNotFound
		}
		ctx.JSON(status, dto.ErrorResponse{Message: err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Handled successfully"})
}

func (c *WebhookController) handleFeedback(event dto.WebhookEventDTO) error {
	if event.Feedback == nil {
		return errors.New("FEEDBACK event carries no feedback payload")
	}

	var answer gateway.Answer
	if err := copier.Copy(&answer, event.Feedback); err != nil {
		return err
	}
	answer.MessageID = event.Feedback.MessageID.String()

	if err := c.factory.ResponseHandler(answer); err != nil {
		return err
	}

	// The person is still in the chat, follow up with the next question.
	if event.Session != nil && event.Session.State == "OPEN" {
		return c.factory.RequestDelivery(event.Session.UserID)
	}
	return nil
}

func (c *WebhookController) handleSession(event dto.WebhookEventDTO) error {
	if event.Session == nil {
		return errors.New("SESSION event carries no session payload")
	}
	if event.Session.State != "OPEN" {
		return nil
	}
	return c.factory.RequestDelivery(event.Session.UserID)
}
