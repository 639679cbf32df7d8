package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

// MemoryStore keeps the history in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	entries []types.HistoryEntry
	ids     map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ids: make(map[string]struct{})}
}

func (m *MemoryStore) Append(ctx context.Context, entry types.HistoryEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.ids[entry.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
	}
	m.entries = append(m.entries, entry)
	m.ids[entry.ID] = struct{}{}
	return nil
}

func (m *MemoryStore) List(ctx context.Context) ([]types.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]types.HistoryEntry, len(m.entries))
	copy(out, m.entries)
	return out, nil
}

func (m *MemoryStore) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]types.HistoryEntry, 0, n)
	for i := len(m.entries) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (types.HistoryEntry, error) {
	if err := ctx.Err(); err != nil {
		return types.HistoryEntry{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.ids[id]; ok {
		for _, e := range m.entries {
			if e.ID == id {
				return e, nil
			}
		}
	}
	return types.HistoryEntry{}, apperrors.NewNotFoundError("history entry", id, ErrNotFound)
}

func (m *MemoryStore) Count(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *MemoryStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	m.ids = make(map[string]struct{})
	return nil
}

func (m *MemoryStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var kept []types.HistoryEntry
	var deleted int64
	for _, e := range m.entries {
		if t, ok := entryTime(e); ok && t.Before(cutoff) {
			delete(m.ids, e.ID)
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	if deleted > 0 {
		// Fresh backing array so pruned entries are not kept reachable.
		m.entries = kept
	}
	return deleted, nil
}

func (m *MemoryStore) Close() error { return nil }
