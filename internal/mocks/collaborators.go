package mocks

import (
	"fmt"
	"sync"

	"github.com/ospiem/quizbee/internal/directory"
	"github.com/ospiem/quizbee/internal/gateway"
	"github.com/ospiem/quizbee/internal/model"
)

// DirectoryMock serves a fixed set of people.
type DirectoryMock struct {
	People []directory.Person
}

func (m *DirectoryMock) GetAllPeople() ([]directory.Person, error) {
	return m.People, nil
}

func (m *DirectoryMock) GetPerson(personID string) (*directory.Person, error) {
	for i := range m.People {
		if m.People[i].ID == personID {
			return &m.People[i], nil
		}
	}
	return nil, fmt.Errorf("person %s not found", personID)
}

// GatewayClientMock records outbound payloads and hands out handles from a
// prepared queue. An empty queue fails the send, the way a broken gateway
// response would.
type GatewayClientMock struct {
	Handles []string
	SendErr error

	Sent     []gateway.MessagePayload
	Notified []gateway.MessagePayload

	mu sync.Mutex
}

func (m *GatewayClientMock) Send(payload gateway.MessagePayload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendErr != nil {
		return "", m.SendErr
	}
	if len(m.Handles) == 0 {
		return "", fmt.Errorf("gateway response carries no sent messages")
	}
	handle := m.Handles[0]
	m.Handles = m.Handles[1:]
	m.Sent = append(m.Sent, payload)
	return handle, nil
}

func (m *GatewayClientMock) Notify(payload gateway.MessagePayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SendErr != nil {
		return m.SendErr
	}
	m.Notified = append(m.Notified, payload)
	return nil
}

// CalculatorMock returns fixed scores.
type CalculatorMock struct {
	TestScore float64
	OpenScore float64
	Err       error
}

func (m *CalculatorMock) ScoreTest(*model.Record) (float64, error) {
	return m.TestScore, m.Err
}

func (m *CalculatorMock) ScoreOpen(*model.Record) (float64, error) {
	return m.OpenScore, m.Err
}

var _ directory.Directory = (*DirectoryMock)(nil)
var _ gateway.Client = (*GatewayClientMock)(nil)
var _ model.PointsCalculator = (*CalculatorMock)(nil)
