package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ospiem/quizbee/config"
)

// Message payload types understood by the chat gateway.
const (
	PayloadSimple      = "SIMPLE"
	PayloadWithButtons = "WITH_BUTTONS"
)

// MessagePayload is one outbound message in the gateway wire format.
type MessagePayload struct {
	UserID  string   `json:"user_id"`
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Buttons []string `json:"buttons,omitempty"`
}

// Client is the outbound side of the chat gateway. Send delivers a single
// message and returns the gateway-assigned message handle; Notify delivers
// fire-and-forget messages that expect no reply.
type Client interface {
	Send(payload MessagePayload) (string, error)
	Notify(payload MessagePayload) error
}

type httpClient struct {
	url       string
	serviceID string
	client    *http.Client
}

func NewClient(cfg *config.Config) Client {
	return &httpClient{
		url:       cfg.Gateway.URL,
		serviceID: cfg.Gateway.ServiceID,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

type sendResponse struct {
	SentMessages []struct {
		MessageID json.Number `json:"message_id"`
	} `json:"sent_messages"`
}

func (c *httpClient) post(payload MessagePayload) (*http.Response, error) {
	body, err := json.Marshal(map[string]any{
		"service_id": c.serviceID,
		"messages":   []MessagePayload{payload},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode gateway request: %w", err)
	}

	resp, err := c.client.Post(c.url+"/message", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gateway request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("gateway responded with status %d", resp.StatusCode)
	}
	return resp, nil
}

// Send posts the payload and extracts the assigned message handle. A missing
// or non-numeric handle is an error: the caller must not mark anything sent.
func (c *httpClient) Send(payload MessagePayload) (string, error) {
	resp, err := c.post(payload)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var parsed sendResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("failed to decode gateway response: %w", err)
	}
	if len(parsed.SentMessages) == 0 {
		return "", fmt.Errorf("gateway response carries no sent messages")
	}

	handle := parsed.SentMessages[0].MessageID.String()
	if _, err := strconv.ParseInt(handle, 10, 64); err != nil {
		return "", fmt.Errorf("gateway returned a non-numeric message handle %q", handle)
	}
	return handle, nil
}

func (c *httpClient) Notify(payload MessagePayload) error {
	resp, err := c.post(payload)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
