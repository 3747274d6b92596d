package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"streamgate/internal/domain"
	"streamgate/internal/domain/model"
	"streamgate/internal/domain/ports/event"
)

// memCodeRepo is a small in-memory implementation used by unit tests.
type memCodeRepo struct {
	mu    sync.Mutex
	store map[string]*model.AccessCode

	insertErr     error // used by tests to simulate store failures
	findErr       error
	deactivateErr error
	listErr       error

	insertCalls            int
	listExpiredCalls       int
	deactivateExpiredCalls int
}

func newMemCodeRepo() *memCodeRepo {
	return &memCodeRepo{store: make(map[string]*model.AccessCode)}
}

func (m *memCodeRepo) Insert(ctx context.Context, code *model.AccessCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertCalls++
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.store[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	m.store[code.Code] = &cp
	return nil
}

func (m *memCodeRepo) FindActiveByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	c, ok := m.store[code]
	if !ok || !c.IsActive {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memCodeRepo) MarkUsed(ctx context.Context, code string, usedBy string, usedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok || !c.IsActive {
		return false, nil
	}
	c.IsActive = false
	c.UsedAt = &usedAt
	c.UsedBy = &usedBy
	return true, nil
}

func (m *memCodeRepo) Deactivate(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deactivateErr != nil {
		return m.deactivateErr
	}
	if c, ok := m.store[code]; ok {
		c.IsActive = false
	}
	return nil
}

func (m *memCodeRepo) ListActive(ctx context.Context) ([]*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.AccessCode
	for _, c := range m.store {
		if c.IsActive {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memCodeRepo) CountAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *memCodeRepo) ListExpiredActive(ctx context.Context, now time.Time) ([]*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listExpiredCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.AccessCode
	for _, c := range m.store {
		if c.IsActive && c.ExpiresAt.Before(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memCodeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deactivateExpiredCalls++
	if m.deactivateErr != nil {
		return 0, m.deactivateErr
	}
	count := 0
	for _, c := range m.store {
		if c.IsActive && c.ExpiresAt.Before(now) {
			c.IsActive = false
			count++
		}
	}
	return count, nil
}

// get returns the stored record without copy-on-read, for assertions only.
func (m *memCodeRepo) get(code string) *model.AccessCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store[code]
}

// seed inserts a record directly, bypassing Insert bookkeeping.
func (m *memCodeRepo) seed(code *model.AccessCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.store[code.Code] = &cp
}

// memLogRepo is an in-memory usage log for unit tests.
type memLogRepo struct {
	mu        sync.Mutex
	entries   []*model.UsageLogEntry
	appendErr error
}

func newMemLogRepo() *memLogRepo {
	return &memLogRepo{}
}

func (m *memLogRepo) Append(ctx context.Context, entry *model.UsageLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memLogRepo) List(ctx context.Context, limit int) ([]*model.UsageLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UsageLogEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

// byAction returns the entries recorded for a code with the given action.
func (m *memLogRepo) byAction(code string, action model.UsageAction) []*model.UsageLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UsageLogEntry
	for _, e := range m.entries {
		if e.Code == code && e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// capturePublisher records published events for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []event.CodeEvent
}

func (p *capturePublisher) Publish(ev event.CodeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *capturePublisher) len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}
