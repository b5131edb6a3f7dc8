package schedule

import (
	"time"

	"github.com/ospiem/quizbee/config"
	"github.com/ospiem/quizbee/internal/router"
	"github.com/rs/zerolog/log"
)

// Schedule runs the periodic question delivery: every tick it checks the
// configured time window, weekday set, and minimum interval, and routes a
// bunch to every person when all of them allow it.
type Schedule struct {
	router *router.PersonRouter
	cfg    config.Delivery

	previousRun time.Time
	stop        chan struct{}
}

func NewSchedule(cfg *config.Config, personRouter *router.PersonRouter) *Schedule {
	return &Schedule{
		router: personRouter,
		cfg:    cfg.Delivery,
		stop:   make(chan struct{}),
	}
}

// Start launches the delivery loop in its own goroutine.
func (s *Schedule) Start() {
	log.Info().Dur("every", s.cfg.Every).Msg("Starting delivery schedule")
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

// Stop terminates the delivery loop.
func (s *Schedule) Stop() {
	close(s.stop)
}

func (s *Schedule) tick(now time.Time) {
	if !s.due(now) {
		return
	}
	s.previousRun = now

	log.Info().Msg("Delivery schedule firing")
	if err := s.router.RouteMultiple(); err != nil {
		log.Error().Err(err).Msg("Scheduled delivery failed")
	}
}

func (s *Schedule) due(now time.Time) bool {
	if !s.previousRun.IsZero() && now.Before(s.previousRun.Add(s.cfg.Every)) {
		return false
	}
	if !s.inWindow(now) {
		return false
	}
	return s.onWeekday(now)
}

func (s *Schedule) inWindow(now time.Time) bool {
	if s.cfg.FromTime == "" || s.cfg.ToTime == "" {
		return true
	}
	from, err := time.Parse("15:04", s.cfg.FromTime)
	if err != nil {
		log.Warn().Str("from", s.cfg.FromTime).Msg("Malformed delivery window start, ignoring window")
		return true
	}
	to, err := time.Parse("15:04", s.cfg.ToTime)
	if err != nil {
		log.Warn().Str("to", s.cfg.ToTime).Msg("Malformed delivery window end, ignoring window")
		return true
	}

	minutes := now.Hour()*60 + now.Minute()
	return minutes >= from.Hour()*60+from.Minute() && minutes <= to.Hour()*60+to.Minute()
}

func (s *Schedule) onWeekday(now time.Time) bool {
	if len(s.cfg.WeekDays) == 0 {
		return true
	}
	for _, day := range s.cfg.WeekDays {
		if int(now.Weekday()) == day {
			return true
		}
	}
	return false
}
