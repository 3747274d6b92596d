package event

import (
	"time"

	"streamgate/internal/domain/model"
)

// CodeEvent describes one committed lifecycle transition.
type CodeEvent struct {
	Code      string            `json:"code"`
	Action    model.UsageAction `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
}

// Publisher is a fire-and-forget hook the lifecycle manager calls after each
// committed transition. Implementations must not block and must not fail the
// caller; the transport layer decides how to fan events out.
type Publisher interface {
	Publish(ev CodeEvent)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) Publish(CodeEvent) {}
