package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"streamgate/internal/domain/model"
	"streamgate/internal/domain/ports/event"
	"streamgate/internal/domain/ports/repository"
)

// DefaultCleanupInterval is the minimum delay between opportunistic sweeps.
const DefaultCleanupInterval = 5 * time.Minute

// CleanupStatus is a read-only snapshot of the scheduler state.
type CleanupStatus struct {
	LastCleanupAt  *time.Time `json:"last_cleanup_at"`
	IsRunning      bool       `json:"is_running"`
	NextCleanupDue time.Time  `json:"next_cleanup_due"`
}

// CleanupService opportunistically deactivates expired codes. There is no
// persistent background job; sweeps piggyback on normal traffic and are
// throttled so that at most one runs per interval. Cleanup is advisory: the
// lazy-expiry check in validation is the correctness backstop.
type CleanupService struct {
	codes    repository.AccessCodeRepository
	logs     repository.UsageLogRepository
	events   event.Publisher
	interval time.Duration
	log      *zerolog.Logger

	mu            sync.Mutex
	lastCleanupAt time.Time
	isRunning     bool
}

// NewCleanupService constructs the scheduler. A non-positive interval falls
// back to DefaultCleanupInterval.
func NewCleanupService(
	codes repository.AccessCodeRepository,
	logs repository.UsageLogRepository,
	events event.Publisher,
	interval time.Duration,
	logger *zerolog.Logger,
) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if events == nil {
		events = event.NopPublisher{}
	}
	l := logger.With().Str("component", "CleanupService").Logger()
	return &CleanupService{
		codes:    codes,
		logs:     logs,
		events:   events,
		interval: interval,
		log:      &l,
	}
}

// CheckAndCleanup runs a sweep unless one is already in flight or the last
// successful sweep was less than the interval ago. Failures are logged and
// swallowed; the next opportunistic attempt retries naturally. The mutex is
// only held for the throttle check, never across store I/O.
func (s *CleanupService) CheckAndCleanup(ctx context.Context) {
	now := time.Now()

	s.mu.Lock()
	if s.isRunning || (!s.lastCleanupAt.IsZero() && now.Sub(s.lastCleanupAt) < s.interval) {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.mu.Unlock()

	count, err := s.sweep(ctx)

	s.mu.Lock()
	s.isRunning = false
	if err == nil {
		s.lastCleanupAt = now
	}
	s.mu.Unlock()

	if err != nil {
		s.log.Error().Err(err).Msg("opportunistic cleanup failed")
		return
	}
	if count > 0 {
		s.log.Info().Int("count", count).Msg("cleaned up expired codes")
	}
}

// ForceCleanup bypasses the interval throttle and returns the number of codes
// swept. Unlike the opportunistic path it propagates failures, since a caller
// explicitly requested and is waiting on the result. If a sweep is already in
// flight the call is a no-op success: the desired end state is being reached.
func (s *CleanupService) ForceCleanup(ctx context.Context) (int, error) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return 0, nil
	}
	s.isRunning = true
	s.mu.Unlock()

	count, err := s.sweep(ctx)

	s.mu.Lock()
	s.isRunning = false
	if err == nil {
		s.lastCleanupAt = time.Now()
	}
	s.mu.Unlock()

	return count, err
}

// Status returns the current scheduler snapshot. NextCleanupDue is "now" when
// no sweep has completed yet.
func (s *CleanupService) Status() CleanupStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := CleanupStatus{IsRunning: s.isRunning}
	if s.lastCleanupAt.IsZero() {
		st.NextCleanupDue = time.Now()
		return st
	}
	last := s.lastCleanupAt
	st.LastCleanupAt = &last
	st.NextCleanupDue = last.Add(s.interval)
	return st
}

// sweep deactivates every expired-but-active code in one atomic statement and
// appends an `expired` log entry per swept code.
func (s *CleanupService) sweep(ctx context.Context) (int, error) {
	now := time.Now().UTC()

	expired, err := s.codes.ListExpiredActive(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("list expired codes: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	count, err := s.codes.DeactivateExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("deactivate expired codes: %w", err)
	}

	details := "Automatically expired by cleanup"
	for _, code := range expired {
		entry := &model.UsageLogEntry{
			ID:        newLogEntryID(),
			Code:      code.Code,
			Action:    model.ActionExpired,
			Timestamp: now,
			Details:   &details,
		}
		if err := s.logs.Append(ctx, entry); err != nil {
			s.log.Error().Err(err).Str("code", code.Code).Msg("failed to append usage log")
		}
		s.events.Publish(event.CodeEvent{Code: code.Code, Action: model.ActionExpired, Timestamp: now})
	}
	return count, nil
}
