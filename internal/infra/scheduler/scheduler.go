package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Cleaner is the minimal interface the scheduler needs from the cleanup
// service. The service applies its own throttle, so ticking more often than
// the cleanup interval is harmless.
type Cleaner interface {
	CheckAndCleanup(ctx context.Context)
}

// Scheduler periodically nudges the cleanup service from a background
// goroutine, covering idle periods with no request traffic.
type Scheduler struct {
	interval time.Duration
	cleaner  Cleaner
	log      *zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler constructs a scheduler that calls cleaner.CheckAndCleanup every
// `interval`. If interval <= 0 it defaults to 1 minute.
func NewScheduler(interval time.Duration, cleaner Cleaner, logger *zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "Scheduler").Logger()
	return &Scheduler{
		interval: interval,
		cleaner:  cleaner,
		log:      &l,
		done:     make(chan struct{}),
	}
}

// Start begins the scheduler loop in a background goroutine.
// Calling Start on a running scheduler has no effect.
func (s *Scheduler) Start(parentCtx context.Context) {
	if s.ctx != nil {
		// already started
		return
	}
	ctx, cancel := context.WithCancel(parentCtx)
	s.ctx = ctx
	s.cancel = cancel

	go s.loop()
}

func (s *Scheduler) loop() {
	ticker := time.NewTicker(s.interval)
	defer func() {
		ticker.Stop()
		close(s.done)
	}()

	s.log.Info().Dur("interval", s.interval).Msg("background cleanup started")
	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("background cleanup stopping")
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
			s.cleaner.CheckAndCleanup(runCtx)
			cancel()
		}
	}
}

// Stop cancels the scheduler and waits for the loop to finish. It is idempotent.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		// not started
		return
	}
	s.cancel()
	<-s.done
	// reset for potential restart
	s.ctx = nil
	s.cancel = nil
	s.done = make(chan struct{})
}
