package history

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/resilience"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

// Recorder is the write path into a Store. It retries transient storage
// failures and tells listeners whenever the log changes.
type Recorder struct {
	store  Store
	policy resilience.RetryPolicy
	now    func() time.Time

	mu        sync.RWMutex
	listeners []func()
}

func NewRecorder(store Store, policy resilience.RetryPolicy) *Recorder {
	return &Recorder{store: store, policy: policy, now: time.Now}
}

// Store returns the underlying store for reads.
func (r *Recorder) Store() Store {
	return r.store
}

// Subscribe registers fn to run after every change to the log.
func (r *Recorder) Subscribe(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Recorder) notify() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, fn := range r.listeners {
		fn()
	}
}

// Record appends a new entry for a scored applicant and returns it.
func (r *Recorder) Record(ctx context.Context, input scoring.Applicant, result scoring.Prediction) (types.HistoryEntry, error) {
	entry := NewEntry(input, result, r.now())

	err := resilience.RetryWithPolicy(ctx, r.policy, func() error {
		return r.store.Append(ctx, entry)
	})
	if err != nil {
		return types.HistoryEntry{}, err
	}

	r.notify()
	slog.Debug("History entry recorded", "id", entry.ID, "risk_level", result.RiskLevel)
	return entry, nil
}

// Clear empties the log.
func (r *Recorder) Clear(ctx context.Context) error {
	if err := r.store.Clear(ctx); err != nil {
		return err
	}
	r.notify()
	return nil
}

// Prune deletes entries recorded before cutoff, retrying under policy.
func (r *Recorder) Prune(ctx context.Context, cutoff time.Time, policy resilience.RetryPolicy) (int64, error) {
	var deleted int64
	err := resilience.RetryWithPolicy(ctx, policy, func() error {
		n, err := r.store.DeleteBefore(ctx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		r.notify()
	}
	return deleted, nil
}
