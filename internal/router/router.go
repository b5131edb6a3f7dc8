package router

import (
	"fmt"
	"time"

	"github.com/ospiem/quizbee/internal/directory"
	"github.com/ospiem/quizbee/internal/gateway"
	"github.com/ospiem/quizbee/internal/repository"
	"github.com/ospiem/quizbee/internal/scheduler"
	"github.com/rs/zerolog/log"
)

// bunchSize is how many items one delivery prepares per person.
const bunchSize = 1

// PersonRouter turns scheduler output into dispatched records: fresh
// questions become new records stamped with the ask time, planned records
// are re-dispatched as they are.
type PersonRouter struct {
	generator scheduler.Generator
	factory   *gateway.Factory
	records   repository.RecordRepository
	people    directory.Directory
}

func NewPersonRouter(
	generator scheduler.Generator,
	factory *gateway.Factory,
	records repository.RecordRepository,
	people directory.Directory,
) *PersonRouter {
	router := &PersonRouter{
		generator: generator,
		factory:   factory,
		records:   records,
		people:    people,
	}
	factory.BindDeliverer(router)
	return router
}

// PrepareNext queues the person's next bunch with the message factory and
// persists any newly created records. Everything one call creates is
// committed atomically; when the transaction rolls back, the messages it
// queued are discarded with it.
func (r *PersonRouter) PrepareNext(personID string) error {
	person, err := r.people.GetPerson(personID)
	if err != nil {
		return fmt.Errorf("failed to fetch person %s: %w", personID, err)
	}

	items, err := r.generator.NextBunch(person, bunchSize)
	if err != nil {
		return fmt.Errorf("failed to generate bunch for person %s: %w", personID, err)
	}

	return r.factory.Batch(func() error {
		return r.records.Transaction(func(txRepo repository.RecordRepository) error {
			for _, item := range items {
				switch {
				case item.Question != nil:
					record := item.Question.InitRecord(personID)
					record.AskTime = time.Now()
					if err := record.Dispatch(r.factory); err != nil {
						return err
					}
					if err := txRepo.Create(record); err != nil {
						return fmt.Errorf("failed to persist record for question %d: %w", item.Question.ID, err)
					}

				case item.Record != nil:
					if err := item.Record.Dispatch(r.factory); err != nil {
						return err
					}
				}
			}
			return nil
		})
	})
}

// RouteMultiple prepares a bunch for every known person and flushes the
// queued messages. A failure for one person is logged and does not stop the
// rest of the batch.
func (r *PersonRouter) RouteMultiple() error {
	people, err := r.people.GetAllPeople()
	if err != nil {
		return fmt.Errorf("failed to enumerate people: %w", err)
	}

	for _, person := range people {
		if err := r.PrepareNext(person.ID); err != nil {
			log.Error().Err(err).Str("personID", person.ID).Msg("Failed to prepare delivery for person")
		}
	}

	if err := r.factory.SendMessages(); err != nil {
		return fmt.Errorf("failed to flush message queue: %w", err)
	}
	return nil
}
