package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"streamgate/internal/domain"
	"streamgate/internal/domain/model"
	"streamgate/internal/domain/ports/event"
	"streamgate/internal/domain/ports/repository"
)

const (
	defaultDurationMinutes = 10
	maxGenerateAttempts    = 5
	snapshotLogLimit       = 50
)

// Canned validation messages. Public validation never leaks internal detail.
const (
	MsgInvalidCode   = "Invalid access code"
	MsgCodeExpired   = "Access code has expired"
	MsgCodeValidated = "Access code validated successfully"
)

// AdminSnapshot is the composed admin dashboard view.
type AdminSnapshot struct {
	ActiveCodes []*model.AccessCode    `json:"active_codes"`
	TotalCodes  int                    `json:"total_codes"`
	RecentLogs  []*model.UsageLogEntry `json:"usage_logs"`
}

// AccessCodeUseCase orchestrates the code lifecycle: ACTIVE -> one of
// {USED, EXPIRED, REVOKED}, each terminal. The store's conditional update is
// the single arbiter of the transition; no code state is cached across calls.
type AccessCodeUseCase struct {
	codes   repository.AccessCodeRepository
	logs    repository.UsageLogRepository
	cleanup *CleanupService
	events  event.Publisher
	log     *zerolog.Logger
}

func NewAccessCodeUseCase(
	codes repository.AccessCodeRepository,
	logs repository.UsageLogRepository,
	cleanup *CleanupService,
	events event.Publisher,
	logger *zerolog.Logger,
) *AccessCodeUseCase {
	if events == nil {
		events = event.NopPublisher{}
	}
	l := logger.With().Str("component", "AccessCodeUseCase").Logger()
	return &AccessCodeUseCase{
		codes:   codes,
		logs:    logs,
		cleanup: cleanup,
		events:  events,
		log:     &l,
	}
}

// Generate creates one new active code valid for durationMinutes. Zero means
// "use the default" (10 minutes); negative durations are rejected. A duplicate
// code value from the store is retried with a fresh code up to a small bound.
func (uc *AccessCodeUseCase) Generate(ctx context.Context, durationMinutes int) (*model.AccessCode, error) {
	if durationMinutes < 0 {
		return nil, fmt.Errorf("%w: duration must be positive", domain.ErrInvalidArgument)
	}
	if durationMinutes == 0 {
		durationMinutes = defaultDurationMinutes
	}

	uc.cleanup.CheckAndCleanup(ctx)

	for attempt := 1; attempt <= maxGenerateAttempts; attempt++ {
		value, err := generateSecureCode()
		if err != nil {
			return nil, fmt.Errorf("generate code: %w", err)
		}

		now := time.Now().UTC()
		code := &model.AccessCode{
			ID:              uuid.NewString(),
			Code:            value,
			CreatedAt:       now,
			ExpiresAt:       now.Add(time.Duration(durationMinutes) * time.Minute),
			IsActive:        true,
			DurationMinutes: durationMinutes,
		}

		err = uc.codes.Insert(ctx, code)
		if errors.Is(err, domain.ErrAlreadyExists) {
			uc.log.Warn().Int("attempt", attempt).Msg("generated code collided, retrying")
			continue
		}
		if err != nil {
			return nil, err
		}

		details := fmt.Sprintf("Expires in %d minutes", durationMinutes)
		uc.appendLog(ctx, value, model.ActionGenerated, &details, nil)
		uc.events.Publish(event.CodeEvent{Code: value, Action: model.ActionGenerated, Timestamp: now})
		return code, nil
	}
	return nil, domain.ErrGenerationExhausted
}

// Validate consumes a code on behalf of callerIdentity (usually a client IP).
// A code is usable exactly once: the first caller to win the store's
// conditional update succeeds, every other caller observes an inactive code.
// Expiry is lazy; an expired code flips inactive the moment it is touched.
func (uc *AccessCodeUseCase) Validate(ctx context.Context, code, callerIdentity string) (model.ValidationResult, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return model.ValidationResult{}, fmt.Errorf("%w: code is required", domain.ErrInvalidArgument)
	}
	if callerIdentity == "" {
		callerIdentity = "unknown"
	}

	uc.cleanup.CheckAndCleanup(ctx)

	found, err := uc.codes.FindActiveByCode(ctx, code)
	if errors.Is(err, domain.ErrNotFound) {
		return model.ValidationResult{Valid: false, Message: MsgInvalidCode}, nil
	}
	if err != nil {
		return model.ValidationResult{}, err
	}

	now := time.Now().UTC()
	if found.Expired(now) {
		if err := uc.codes.Deactivate(ctx, code); err != nil {
			return model.ValidationResult{}, err
		}
		details := "Expired on validation attempt"
		uc.appendLog(ctx, code, model.ActionExpired, &details, nil)
		uc.events.Publish(event.CodeEvent{Code: code, Action: model.ActionExpired, Timestamp: now})
		return model.ValidationResult{Valid: false, Message: MsgCodeExpired}, nil
	}

	applied, err := uc.codes.MarkUsed(ctx, code, callerIdentity, now)
	if err != nil {
		return model.ValidationResult{}, err
	}
	if !applied {
		// Lost the race to a concurrent validation or cleanup sweep.
		return model.ValidationResult{Valid: false, Message: MsgInvalidCode}, nil
	}

	details := "Used by " + callerIdentity
	uc.appendLog(ctx, code, model.ActionUsed, &details, &callerIdentity)
	uc.events.Publish(event.CodeEvent{Code: code, Action: model.ActionUsed, Timestamp: now})
	return model.ValidationResult{Valid: true, Message: MsgCodeValidated}, nil
}

// Revoke unconditionally deactivates a code. It is idempotent: revoking an
// inactive or unknown code succeeds silently, since the desired end state
// already holds.
func (uc *AccessCodeUseCase) Revoke(ctx context.Context, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fmt.Errorf("%w: code is required", domain.ErrInvalidArgument)
	}

	uc.cleanup.CheckAndCleanup(ctx)

	if err := uc.codes.Deactivate(ctx, code); err != nil {
		return err
	}

	now := time.Now().UTC()
	details := "Manually revoked by admin"
	uc.appendLog(ctx, code, model.ActionRevoked, &details, nil)
	uc.events.Publish(event.CodeEvent{Code: code, Action: model.ActionRevoked, Timestamp: now})
	return nil
}

// Snapshot composes the admin dashboard view from store reads.
func (uc *AccessCodeUseCase) Snapshot(ctx context.Context) (*AdminSnapshot, error) {
	uc.cleanup.CheckAndCleanup(ctx)

	active, err := uc.codes.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	total, err := uc.codes.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := uc.logs.List(ctx, snapshotLogLimit)
	if err != nil {
		return nil, err
	}
	return &AdminSnapshot{ActiveCodes: active, TotalCodes: total, RecentLogs: logs}, nil
}

// appendLog writes a usage log entry, swallowing failures so the audit trail
// never affects the primary operation.
func (uc *AccessCodeUseCase) appendLog(ctx context.Context, code string, action model.UsageAction, details, ip *string) {
	entry := &model.UsageLogEntry{
		ID:        newLogEntryID(),
		Code:      code,
		Action:    action,
		Timestamp: time.Now().UTC(),
		Details:   details,
		IPAddress: ip,
	}
	if err := uc.logs.Append(ctx, entry); err != nil {
		uc.log.Error().Err(err).Str("code", code).Str("action", string(action)).Msg("failed to append usage log")
	}
}

// newLogEntryID returns a time-sortable ULID so log listings stay ordered even
// when timestamps collide.
func newLogEntryID() string {
	return ulid.Make().String()
}
