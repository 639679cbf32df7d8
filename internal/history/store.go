// Package history persists the append-only log of scored applications.
package history

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/ZanzyTHEbar/coopcredit-guard/internal/scoring"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

// TimestampFormat is RFC 3339 with fixed nanosecond width, so UTC
// timestamps sort lexicographically.
const TimestampFormat = "2006-01-02T15:04:05.000000000Z07:00"

var (
	// ErrNotFound is the cause of the error returned by Get for an unknown id.
	ErrNotFound = errors.New("history entry not found")

	// ErrDuplicateID is returned by Append when the id is already recorded.
	ErrDuplicateID = errors.New("duplicate history entry id")
)

// Store is an append-only, ordered collection of history entries.
// Reads return copies; callers may keep them.
type Store interface {
	Append(ctx context.Context, entry types.HistoryEntry) error
	List(ctx context.Context) ([]types.HistoryEntry, error)
	Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error)
	Get(ctx context.Context, id string) (types.HistoryEntry, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// NewEntry builds a history entry with a fresh id, stamped at now.
func NewEntry(input scoring.Applicant, result scoring.Prediction, now time.Time) types.HistoryEntry {
	return types.HistoryEntry{
		ID:        uuid.NewString(),
		Timestamp: now.UTC().Format(TimestampFormat),
		Input:     input,
		Result:    result,
	}
}

// entryTime parses an entry timestamp. Unparseable timestamps are never
// considered older than a cutoff.
func entryTime(e types.HistoryEntry) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, e.Timestamp)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
