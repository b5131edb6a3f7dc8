package gateway

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ospiem/quizbee/internal/model"
	"github.com/ospiem/quizbee/internal/repository"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	// ErrUnknownHandle is returned when an inbound reply references a
	// message handle no record carries.
	ErrUnknownHandle = errors.New("no record matches the message handle")
	// ErrNotAwaitingReply is returned when a reply arrives for a record
	// that is not in the TRANSFERRED state, e.g. a duplicate ack.
	ErrNotAwaitingReply = errors.New("record is not awaiting a reply")
)

// Deliverer prepares the next questions for a person. Implemented by the
// router; the interface breaks the construction cycle between the two.
type Deliverer interface {
	PrepareNext(personID string) error
}

// Factory builds and queues gateway messages for records and routes inbound
// replies back to them. It implements model.MessageFactory, so records
// dispatch themselves into the right message kind.
type Factory struct {
	client     Client
	records    repository.RecordRepository
	calculator model.PointsCalculator
	deliverer  Deliverer

	// mu guards queue. The schedule loop and webhook handlers queue and
	// flush concurrently; the lock keeps their units of work from
	// interleaving mid-flush.
	mu    sync.Mutex
	queue []Message
}

func NewFactory(client Client, records repository.RecordRepository, calculator model.PointsCalculator) *Factory {
	return &Factory{
		client:     client,
		records:    records,
		calculator: calculator,
	}
}

// BindDeliverer wires the router in after construction. The router needs the
// factory to dispatch records and the factory needs the router to serve
// session requests, so one of the two references is set post-construction,
// explicitly on this instance.
func (f *Factory) BindDeliverer(deliverer Deliverer) {
	f.deliverer = deliverer
}

// CreateTest and CreateOpen append without taking mu: record dispatch runs
// inside Batch, which already holds it.
func (f *Factory) CreateTest(record *model.Record) {
	f.queue = append(f.queue, &testMessage{factory: f, record: record})
}

func (f *Factory) CreateOpen(record *model.Record) {
	f.queue = append(f.queue, &openMessage{factory: f, record: record})
}

// Batch runs fn as one queueing unit: messages fn queues through CreateTest
// and CreateOpen are kept only if fn succeeds. The queue lock is held for
// the whole call, so a failing unit discards exactly its own messages and
// never leaves a question queued for a record that was rolled back.
func (f *Factory) Batch(fn func() error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	mark := len(f.queue)
	if err := fn(); err != nil {
		f.queue = f.queue[:mark]
		return err
	}
	return nil
}

// SendMessages flushes the queue in order. On the first send failure the
// failed and remaining messages stay queued and the error is surfaced: the
// backing records keep their NOT_ANSWERED state, nothing is half-sent.
func (f *Factory) SendMessages() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	log.Debug().Int("queued", len(f.queue)).Msg("Sending messages")

	for i, message := range f.queue {
		if err := message.Send(); err != nil {
			f.queue = f.queue[i:]
			return fmt.Errorf("failed to send queued message: %w", err)
		}
	}
	f.queue = nil
	return nil
}

// ResponseHandler reconciles an inbound reply: it resolves the record by the
// message handle, recovers the correctly typed message wrapper through a
// one-shot proxy factory, and lets the wrapper validate, score, and confirm.
func (f *Factory) ResponseHandler(answer Answer) error {
	record, err := f.records.FindByMessageID(answer.MessageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("handle %q: %w", answer.MessageID, ErrUnknownHandle)
		}
		return fmt.Errorf("failed to resolve message handle %q: %w", answer.MessageID, err)
	}
	if record.State != model.Transferred {
		return fmt.Errorf("record %d in state %s: %w", record.ID, record.State, ErrNotAwaitingReply)
	}

	proxy := &proxyFactory{factory: f}
	if err := record.Dispatch(proxy); err != nil {
		return err
	}
	return proxy.message.HandleAnswer(answer)
}

// RequestDelivery serves a "session opened" event. A person who still has a
// question in flight gets a reminder about it instead of a new question.
func (f *Factory) RequestDelivery(personID string) error {
	outstanding, err := f.records.FindTransferred(personID)
	switch {
	case err == nil:
		f.mu.Lock()
		f.queue = append(f.queue, &replyMessage{factory: f, record: outstanding})
		f.mu.Unlock()
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := f.deliverer.PrepareNext(personID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("failed to look up outstanding record for person %s: %w", personID, err)
	}
	return f.SendMessages()
}

// transfer marks the record delivered under the handle and persists it.
func (f *Factory) transfer(record *model.Record, handle string) error {
	if err := record.Transfer(handle); err != nil {
		return err
	}
	if err := f.records.Update(record); err != nil {
		return fmt.Errorf("failed to persist transferred record %d: %w", record.ID, err)
	}
	return nil
}

// applyAnswer stores and scores the reply in one transaction. The row is
// re-read with a lock inside the transaction so concurrent acks for the same
// handle serialize, the loser fails the TRANSFERRED check.
func (f *Factory) applyAnswer(record *model.Record, text string) (float64, error) {
	var points float64
	err := f.records.Transaction(func(txRepo repository.RecordRepository) error {
		current, err := txRepo.FindByIDForUpdate(record.ID)
		if err != nil {
			return fmt.Errorf("failed to re-read record %d: %w", record.ID, err)
		}
		if current.State != model.Transferred {
			return fmt.Errorf("record %d in state %s: %w", current.ID, current.State, ErrNotAwaitingReply)
		}

		current.SetAnswer(text)
		points, err = current.Score(f.calculator)
		if err != nil {
			return err
		}
		if err := txRepo.Update(current); err != nil {
			return fmt.Errorf("failed to persist scored record %d: %w", current.ID, err)
		}
		*record = *current
		return nil
	})
	if err != nil {
		return 0, err
	}
	return points, nil
}

// proxyFactory captures a single dispatch so the caller gets the message
// wrapper matching the record kind without branching on it.
type proxyFactory struct {
	factory *Factory
	message Message
}

func (p *proxyFactory) CreateTest(record *model.Record) {
	p.message = &testMessage{factory: p.factory, record: record}
}

func (p *proxyFactory) CreateOpen(record *model.Record) {
	p.message = &openMessage{factory: p.factory, record: record}
}
