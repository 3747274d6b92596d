//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"streamgate/internal/domain/model"

	"github.com/oklog/ulid/v2"
)

func TestUsageLogRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}

	ctx := context.Background()
	repo := NewUsageLogRepo(testPool)

	cleanup(t)

	details := "Expires in 10 minutes"
	ip := "203.0.113.7"
	base := time.Now().UTC().Add(-time.Minute)
	actions := []model.UsageAction{model.ActionGenerated, model.ActionUsed, model.ActionRevoked}
	for i, action := range actions {
		entry := &model.UsageLogEntry{
			ID:        ulid.Make().String(),
			Code:      "LOGCODE1",
			Action:    action,
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Details:   &details,
			IPAddress: &ip,
		}
		if err := repo.Append(ctx, entry); err != nil {
			t.Fatalf("Append %s: %v", action, err)
		}
	}

	entries, err := repo.List(ctx, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected limit to apply, got %d entries", len(entries))
	}
	if entries[0].Action != model.ActionRevoked || entries[1].Action != model.ActionUsed {
		t.Fatalf("expected newest first, got %s then %s", entries[0].Action, entries[1].Action)
	}
	if entries[0].Details == nil || *entries[0].Details != details {
		t.Fatalf("details not round-tripped: %+v", entries[0])
	}
}
