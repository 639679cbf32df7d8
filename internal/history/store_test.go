package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/resilience"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

var epoch = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)

func testApplicant() scoring.Applicant {
	return scoring.Applicant{
		Age:              35,
		LoanAmount:       50000,
		LoanTerm:         12,
		Income:           25000,
		Education:        scoring.EducationBachelor,
		Gender:           scoring.GenderFemale,
		MaritalStatus:    scoring.MaritalSingle,
		EmploymentStatus: scoring.EmploymentLicensedProf,
		LoanType:         scoring.LoanRegular,
		LoanAppType:      scoring.AppTypeNew,
		ModeOfPayment:    scoring.PaymentMonthly,
	}
}

func testEntry(t *testing.T, at time.Time) types.HistoryEntry {
	t.Helper()
	a := testApplicant()
	p, err := scoring.Score(a)
	require.NoError(t, err)
	return NewEntry(a, p, at)
}

type storeFactory func(t *testing.T) Store

func stores() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(t.TempDir(), DefaultPoolConfig())
			require.NoError(t, err)
			t.Cleanup(func() { s.Close() })
			return s
		},
	}
}

func TestStore_AppendListOrder(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			var want []types.HistoryEntry
			for i := 0; i < 5; i++ {
				e := testEntry(t, epoch.Add(time.Duration(i)*time.Minute))
				require.NoError(t, s.Append(ctx, e))
				want = append(want, e)
			}

			got, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, want, got)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 5, n)

			// Mutating the snapshot does not touch the store.
			got[0].ID = "changed"
			again, err := s.List(ctx)
			require.NoError(t, err)
			assert.Equal(t, want[0].ID, again[0].ID)
		})
	}
}

func TestStore_EmptyList(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			got, err := factory(t).List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestStore_RecentNewestFirst(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			var ids []string
			for i := 0; i < 4; i++ {
				e := testEntry(t, epoch.Add(time.Duration(i)*time.Second))
				require.NoError(t, s.Append(ctx, e))
				ids = append(ids, e.ID)
			}

			recent, err := s.Recent(ctx, 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, ids[3], recent[0].ID)
			assert.Equal(t, ids[2], recent[1].ID)

			all, err := s.Recent(ctx, 0)
			require.NoError(t, err)
			assert.Len(t, all, 4)
			assert.Equal(t, ids[0], all[3].ID)
		})
	}
}

func TestStore_GetAndNotFound(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			e := testEntry(t, epoch)
			require.NoError(t, s.Append(ctx, e))

			got, err := s.Get(ctx, e.ID)
			require.NoError(t, err)
			assert.Equal(t, e, got)

			_, err = s.Get(ctx, "missing")
			assert.ErrorIs(t, err, ErrNotFound)
			assert.True(t, apperrors.IsCategory(err, apperrors.CategoryNotFound))
		})
	}
}

func TestStore_RejectsDuplicateID(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			e := testEntry(t, epoch)
			require.NoError(t, s.Append(ctx, e))
			assert.ErrorIs(t, s.Append(ctx, e), ErrDuplicateID)

			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestStore_ClearAndDeleteBefore(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			for day := 0; day < 5; day++ {
				require.NoError(t, s.Append(ctx, testEntry(t, epoch.AddDate(0, 0, day))))
			}

			deleted, err := s.DeleteBefore(ctx, epoch.AddDate(0, 0, 2))
			require.NoError(t, err)
			assert.Equal(t, int64(2), deleted)

			left, err := s.List(ctx)
			require.NoError(t, err)
			require.Len(t, left, 3)
			assert.Equal(t, epoch.AddDate(0, 0, 2).Format(TimestampFormat), left[0].Timestamp)

			require.NoError(t, s.Clear(ctx))
			n, err := s.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, 0, n)
		})
	}
}

func TestStore_ConcurrentAppends(t *testing.T) {
	for name, factory := range stores() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			const writers = 8
			entries := make([]types.HistoryEntry, writers)
			for i := range entries {
				entries[i] = testEntry(t, epoch.Add(time.Duration(i)*time.Millisecond))
			}

			var wg sync.WaitGroup
			for _, e := range entries {
				wg.Add(1)
				go func(e types.HistoryEntry) {
					defer wg.Done()
					assert.NoError(t, s.Append(ctx, e))
				}(e)
			}
			wg.Wait()

			got, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, got, writers)
		})
	}
}

func TestNewEntry(t *testing.T) {
	at := time.Date(2026, 2, 3, 4, 5, 6, 7, time.FixedZone("PHT", 8*3600))
	e := testEntry(t, at)

	assert.Len(t, e.ID, 36)
	assert.Equal(t, "2026-02-02T20:05:06.000000007Z", e.Timestamp)

	parsed, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	require.NoError(t, err)
	assert.True(t, parsed.Equal(at))

	assert.NotEqual(t, e.ID, testEntry(t, at).ID)
}

// flakyStore fails the first appends with a retryable storage error.
type flakyStore struct {
	*MemoryStore
	failures int
	calls    int
}

func (f *flakyStore) Append(ctx context.Context, e types.HistoryEntry) error {
	f.calls++
	if f.calls <= f.failures {
		return apperrors.NewStorageError("append", errors.New("database is locked"))
	}
	return f.MemoryStore.Append(ctx, e)
}

func fastPolicy() resilience.RetryPolicy {
	return resilience.RetryPolicy{
		Name: "test",
		Config: resilience.RetryConfig{
			MaxAttempts:   3,
			InitialDelay:  time.Millisecond,
			MaxDelay:      time.Millisecond,
			BackoffFactor: 1,
		},
	}
}

func TestRecorder_RetriesAndNotifies(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{MemoryStore: NewMemoryStore(), failures: 2}
	r := NewRecorder(store, fastPolicy())
	r.now = func() time.Time { return epoch }

	changes := 0
	r.Subscribe(func() { changes++ })

	a := testApplicant()
	p, err := scoring.Score(a)
	require.NoError(t, err)

	entry, err := r.Record(ctx, a, p)
	require.NoError(t, err)
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 1, changes)
	assert.Equal(t, epoch.Format(TimestampFormat), entry.Timestamp)
	assert.Equal(t, p, entry.Result)

	require.NoError(t, r.Clear(ctx))
	assert.Equal(t, 2, changes)

	deleted, err := r.Prune(ctx, epoch, fastPolicy())
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
	assert.Equal(t, 2, changes, "an empty prune is not a change")
}

func TestRecorder_GivesUp(t *testing.T) {
	store := &flakyStore{MemoryStore: NewMemoryStore(), failures: 10}
	r := NewRecorder(store, fastPolicy())

	changes := 0
	r.Subscribe(func() { changes++ })

	a := testApplicant()
	p, _ := scoring.Score(a)
	_, err := r.Record(context.Background(), a, p)

	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryStorage))
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 0, changes)
}

func TestRetentionJob(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	r := NewRecorder(store, fastPolicy())

	for day := 0; day < 10; day++ {
		require.NoError(t, store.Append(ctx, testEntry(t, epoch.AddDate(0, 0, day))))
	}

	tests := []struct {
		name string
		days int
		left int
	}{
		{"disabled", 0, 10},
		{"keeps last week", 7, 7},
		{"keeps last three days", 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job := NewRetentionJob(r, tt.days)
			job.now = func() time.Time { return epoch.AddDate(0, 0, 9).Add(time.Hour) }

			require.NoError(t, job.Run())
			assert.Equal(t, "history-retention", job.Name())

			n, err := store.Count(ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.left, n, fmt.Sprintf("cutoff %s", job.Cutoff()))
		})
	}
}

// flakyPruneStore fails the first deletions with a retryable storage error.
type flakyPruneStore struct {
	*MemoryStore
	failures int
	calls    int
}

func (f *flakyPruneStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	f.calls++
	if f.calls <= f.failures {
		return 0, apperrors.NewStorageError("delete before", errors.New("database is locked"))
	}
	return f.MemoryStore.DeleteBefore(ctx, cutoff)
}

func TestRetentionJob_RetriesWithMaintenancePolicy(t *testing.T) {
	ctx := context.Background()
	store := &flakyPruneStore{MemoryStore: NewMemoryStore(), failures: 2}
	for day := 0; day < 4; day++ {
		require.NoError(t, store.Append(ctx, testEntry(t, epoch.AddDate(0, 0, day))))
	}

	r := NewRecorder(store, fastPolicy())
	changes := 0
	r.Subscribe(func() { changes++ })

	job := NewRetentionJob(r, 2)
	assert.Equal(t, resilience.MaintenancePolicy.Name, job.policy.Name)

	// Same attempt budget, without the maintenance backoff.
	job.policy.Config.InitialDelay = time.Millisecond
	job.policy.Config.MaxDelay = time.Millisecond
	job.now = func() time.Time { return epoch.AddDate(0, 0, 3).Add(time.Hour) }

	require.NoError(t, job.Run())
	assert.Equal(t, 3, store.calls)
	assert.Equal(t, 1, changes)

	n, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRetentionJob_GivesUpAfterMaintenanceAttempts(t *testing.T) {
	store := &flakyPruneStore{MemoryStore: NewMemoryStore(), failures: 100}
	job := NewRetentionJob(NewRecorder(store, fastPolicy()), 1)
	job.policy.Config.InitialDelay = time.Millisecond
	job.policy.Config.MaxDelay = time.Millisecond

	err := job.Run()
	assert.True(t, apperrors.IsCategory(err, apperrors.CategoryStorage))
	assert.Equal(t, resilience.MaintenancePolicy.Config.MaxAttempts, store.calls)
}

func TestMemoryStore_DeleteBeforeReleasesPrunedEntries(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var pruned []string
	for day := 0; day < 5; day++ {
		e := testEntry(t, epoch.AddDate(0, 0, day))
		require.NoError(t, s.Append(ctx, e))
		if day < 3 {
			pruned = append(pruned, e.ID)
		}
	}

	deleted, err := s.DeleteBefore(ctx, epoch.AddDate(0, 0, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)

	backing := s.entries[:cap(s.entries)]
	for _, e := range backing {
		assert.NotContains(t, pruned, e.ID)
	}
	for _, e := range backing[len(s.entries):] {
		assert.Equal(t, types.HistoryEntry{}, e)
	}

	// A second append still lands after the survivors.
	late := testEntry(t, epoch.AddDate(0, 0, 6))
	require.NoError(t, s.Append(ctx, late))
	got, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, late.ID, got[2].ID)
}
