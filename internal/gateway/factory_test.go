package gateway_test

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ospiem/quizbee/internal/calculator"
	"github.com/ospiem/quizbee/internal/gateway"
	"github.com/ospiem/quizbee/internal/mocks"
	"github.com/ospiem/quizbee/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type delivererStub struct {
	mu       sync.Mutex
	prepared []string
	err      error
}

func (d *delivererStub) PrepareNext(personID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prepared = append(d.prepared, personID)
	return d.err
}

func newTestQuestion(t *testing.T) *model.Question {
	t.Helper()
	question := &model.Question{
		ID:     1,
		Kind:   model.KindTest,
		Text:   "Which answer is right?",
		Answer: "1",
		Level:  1,
	}
	require.NoError(t, question.SetOptionList([]string{"the right one", "the wrong one"}))
	return question
}

func newOpenQuestion() *model.Question {
	return &model.Question{
		ID:     2,
		Kind:   model.KindOpen,
		Text:   "Explain in your own words.",
		Answer: "a canonical explanation",
		Level:  1,
	}
}

func newFixture(client *mocks.GatewayClientMock) (*gateway.Factory, *mocks.RecordRepositoryMock, *delivererStub) {
	records := mocks.NewRecordRepositoryMock()
	factory := gateway.NewFactory(client, records, calculator.NewSimpleCalculator())
	deliverer := &delivererStub{}
	factory.BindDeliverer(deliverer)
	return factory, records, deliverer
}

func createRecord(t *testing.T, records *mocks.RecordRepositoryMock, question *model.Question, personID string) *model.Record {
	t.Helper()
	record := question.InitRecord(personID)
	record.AskTime = time.Now()
	require.NoError(t, records.Create(record))
	return record
}

func TestSendTestQuestionTransfersRecord(t *testing.T) {
	client := &mocks.GatewayClientMock{Handles: []string{"123"}}
	factory, records, _ := newFixture(client)
	record := createRecord(t, records, newTestQuestion(t), "person-1")

	require.NoError(t, record.Dispatch(factory))
	require.NoError(t, factory.SendMessages())

	require.Len(t, client.Sent, 1)
	payload := client.Sent[0]
	assert.Equal(t, "person-1", payload.UserID)
	assert.Equal(t, gateway.PayloadWithButtons, payload.Type)
	assert.Equal(t, "Which answer is right?", payload.Text)
	assert.Equal(t, []string{"I don't know", "the right one", "the wrong one"}, payload.Buttons)

	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Transferred, stored.State)
	require.NotNil(t, stored.MessageID)
	assert.Equal(t, "123", *stored.MessageID)
}

func TestSendOpenQuestionIsPlainText(t *testing.T) {
	client := &mocks.GatewayClientMock{Handles: []string{"124"}}
	factory, records, _ := newFixture(client)
	record := createRecord(t, records, newOpenQuestion(), "person-1")

	require.NoError(t, record.Dispatch(factory))
	require.NoError(t, factory.SendMessages())

	require.Len(t, client.Sent, 1)
	assert.Equal(t, gateway.PayloadSimple, client.Sent[0].Type)
	assert.Empty(t, client.Sent[0].Buttons)

	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Transferred, stored.State)
}

func TestSendFailureKeepsRecordUndelivered(t *testing.T) {
	client := &mocks.GatewayClientMock{SendErr: errors.New("gateway down")}
	factory, records, _ := newFixture(client)
	record := createRecord(t, records, newTestQuestion(t), "person-1")

	require.NoError(t, record.Dispatch(factory))
	require.Error(t, factory.SendMessages())

	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NotAnswered, stored.State)
	assert.Nil(t, stored.MessageID)

	// The message stays queued; a later flush delivers it.
	client.SendErr = nil
	client.Handles = []string{"125"}
	require.NoError(t, factory.SendMessages())

	stored, err = records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Transferred, stored.State)
}

func deliveredRecord(t *testing.T, factory *gateway.Factory, records *mocks.RecordRepositoryMock, client *mocks.GatewayClientMock, question *model.Question, handle string) *model.Record {
	t.Helper()
	client.Handles = append(client.Handles, handle)
	record := createRecord(t, records, question, "person-1")
	require.NoError(t, record.Dispatch(factory))
	require.NoError(t, factory.SendMessages())
	return record
}

func TestResponseHandlerScoresCorrectButton(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, records, _ := newFixture(client)
	record := deliveredRecord(t, factory, records, client, newTestQuestion(t), "123")

	button := 1
	err := factory.ResponseHandler(gateway.Answer{MessageID: "123", Type: gateway.AnswerButton, ButtonID: &button})
	require.NoError(t, err)

	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Answered, stored.State)
	assert.Equal(t, 1.0, stored.Points)
	require.NotNil(t, stored.PersonAnswer)
	assert.Equal(t, "1", *stored.PersonAnswer)
	require.NotNil(t, stored.AnswerTime)

	require.Len(t, client.Notified, 1)
	assert.Equal(t, "Correct!", client.Notified[0].Text)
}

func TestResponseHandlerScoresWrongButton(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, records, _ := newFixture(client)
	record := deliveredRecord(t, factory, records, client, newTestQuestion(t), "123")

	button := 2
	err := factory.ResponseHandler(gateway.Answer{MessageID: "123", Type: gateway.AnswerButton, ButtonID: &button})
	require.NoError(t, err)

	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Answered, stored.State)
	assert.Equal(t, 0.0, stored.Points)

	require.Len(t, client.Notified, 1)
	assert.Equal(t, "Not quite ;(", client.Notified[0].Text)
}

func TestResponseHandlerOpenAnswerGoesPending(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, records, _ := newFixture(client)
	record := deliveredRecord(t, factory, records, client, newOpenQuestion(), "200")

	err := factory.ResponseHandler(gateway.Answer{MessageID: "200", Type: gateway.AnswerText, Text: "my own words"})
	require.NoError(t, err)

	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Pending, stored.State)
	assert.Equal(t, 0.5, stored.Points)
	require.Len(t, client.Notified, 1)
	assert.Contains(t, client.Notified[0].Text, "0.5")
}

func TestResponseHandlerRejectsTextForTestQuestion(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, records, _ := newFixture(client)
	record := deliveredRecord(t, factory, records, client, newTestQuestion(t), "123")

	err := factory.ResponseHandler(gateway.Answer{MessageID: "123", Type: gateway.AnswerText, Text: "1"})
	require.ErrorIs(t, err, gateway.ErrAnswerType)

	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Transferred, stored.State)
	assert.Empty(t, client.Notified)
}

func TestResponseHandlerRejectsButtonForOpenQuestion(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, records, _ := newFixture(client)
	record := deliveredRecord(t, factory, records, client, newOpenQuestion(), "200")

	button := 1
	err := factory.ResponseHandler(gateway.Answer{MessageID: "200", Type: gateway.AnswerButton, ButtonID: &button})
	require.ErrorIs(t, err, gateway.ErrAnswerType)

	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Transferred, stored.State)
}

func TestResponseHandlerUnknownHandle(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, _, _ := newFixture(client)

	err := factory.ResponseHandler(gateway.Answer{MessageID: "999", Type: gateway.AnswerText, Text: "hello"})
	assert.ErrorIs(t, err, gateway.ErrUnknownHandle)
}

func TestResponseHandlerRejectsDuplicateAck(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, records, _ := newFixture(client)
	record := deliveredRecord(t, factory, records, client, newTestQuestion(t), "123")

	button := 1
	answer := gateway.Answer{MessageID: "123", Type: gateway.AnswerButton, ButtonID: &button}
	require.NoError(t, factory.ResponseHandler(answer))

	err := factory.ResponseHandler(answer)
	require.ErrorIs(t, err, gateway.ErrNotAwaitingReply)

	// The first ack's result stands.
	stored, err := records.FindByID(record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.Answered, stored.State)
	assert.Equal(t, 1.0, stored.Points)
	assert.Len(t, client.Notified, 1)
}

func TestRequestDeliveryRemindsAboutOutstandingQuestion(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, records, deliverer := newFixture(client)
	deliveredRecord(t, factory, records, client, newTestQuestion(t), "123")

	require.NoError(t, factory.RequestDelivery("person-1"))

	assert.Empty(t, deliverer.prepared)
	require.Len(t, client.Notified, 1)
	assert.Contains(t, client.Notified[0].Text, "Which answer is right?")
}

func TestRequestDeliveryPreparesFreshQuestion(t *testing.T) {
	client := &mocks.GatewayClientMock{}
	factory, _, deliverer := newFixture(client)

	require.NoError(t, factory.RequestDelivery("person-1"))
	assert.Equal(t, []string{"person-1"}, deliverer.prepared)
}

func TestBatchFailureDiscardsItsMessages(t *testing.T) {
	client := &mocks.GatewayClientMock{Handles: []string{"800"}}
	factory, records, _ := newFixture(client)
	record := createRecord(t, records, newTestQuestion(t), "person-1")

	err := factory.Batch(func() error {
		require.NoError(t, record.Dispatch(factory))
		return errors.New("transaction rolled back")
	})
	require.Error(t, err)

	require.NoError(t, factory.SendMessages())
	assert.Empty(t, client.Sent)
}

func TestConcurrentQueueingAndFlushing(t *testing.T) {
	const count = 32

	handles := make([]string, count)
	for i := range handles {
		handles[i] = strconv.Itoa(1000 + i)
	}
	client := &mocks.GatewayClientMock{Handles: handles}
	factory, records, _ := newFixture(client)

	sent := make([]*model.Record, count)
	for i := range sent {
		sent[i] = createRecord(t, records, newTestQuestion(t), "person-"+strconv.Itoa(i))
	}

	// Queueing units from delivery batches and session-driven flushes run
	// concurrently; no message may be lost or sent twice.
	var wg sync.WaitGroup
	for _, record := range sent {
		wg.Add(1)
		go func(record *model.Record) {
			defer wg.Done()
			assert.NoError(t, factory.Batch(func() error { return record.Dispatch(factory) }))
			assert.NoError(t, factory.SendMessages())
		}(record)

		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, factory.RequestDelivery("stranger"))
		}()
	}
	wg.Wait()
	require.NoError(t, factory.SendMessages())

	assert.Len(t, client.Sent, count)
	seen := map[string]struct{}{}
	for _, record := range sent {
		stored, err := records.FindByID(record.ID)
		require.NoError(t, err)
		assert.Equal(t, model.Transferred, stored.State)
		require.NotNil(t, stored.MessageID)
		seen[*stored.MessageID] = struct{}{}
	}
	assert.Len(t, seen, count)
}
