package web

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"streamgate/internal/domain"
	"streamgate/internal/domain/model"
)

// --- In-memory ports backing the handler tests ---

type mockCodeRepo struct {
	mu    sync.Mutex
	store map[string]*model.AccessCode
}

func newMockCodeRepo() *mockCodeRepo {
	return &mockCodeRepo{store: make(map[string]*model.AccessCode)}
}

func (m *mockCodeRepo) Insert(ctx context.Context, code *model.AccessCode) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.store[code.Code]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *code
	m.store[code.Code] = &cp
	return nil
}

func (m *mockCodeRepo) FindActiveByCode(ctx context.Context, code string) (*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.store[code]
	if !ok || !c.IsActive {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCodeRepo) MarkUsed(ctx context.Context, code string, usedBy string, usedAt time.Time) (bool, error) {
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

func (m *mockCodeRepo) Deactivate(ctx context.Context, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.store[code]; ok {
		c.IsActive = false
	}
	return nil
}

func (m *mockCodeRepo) ListActive(ctx context.Context) ([]*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
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

func (m *mockCodeRepo) CountAll(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.store), nil
}

func (m *mockCodeRepo) ListExpiredActive(ctx context.Context, now time.Time) ([]*model.AccessCode, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.AccessCode
	for _, c := range m.store {
		if c.IsActive && c.ExpiresAt.Before(now) {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockCodeRepo) DeactivateExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, c := range m.store {
		if c.IsActive && c.ExpiresAt.Before(now) {
			c.IsActive = false
			count++
		}
	}
	return count, nil
}

func (m *mockCodeRepo) seed(code *model.AccessCode) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *code
	m.store[code.Code] = &cp
}

type mockLogRepo struct {
	mu      sync.Mutex
	entries []*model.UsageLogEntry
}

func (m *mockLogRepo) Append(ctx context.Context, entry *model.UsageLogEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockLogRepo) List(ctx context.Context, limit int) ([]*model.UsageLogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.UsageLogEntry
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *m.entries[i]
		out = append(out, &cp)
	}
	return out, nil
}

// denyLimiter rejects every request; errLimiter fails every request.
type denyLimiter struct{}

func (denyLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, nil
}

type errLimiter struct{}

func (errLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
