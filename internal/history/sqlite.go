package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	apperrors "github.com/ZanzyTHEbar/coopcredit-guard/internal/errors"
	"github.com/ZanzyTHEbar/coopcredit-guard/internal/types"
)

// DatabaseFile is the SQLite file created inside the data directory.
const DatabaseFile = "coopcredit_guard.db"

// PoolConfig holds connection pool limits
type PoolConfig struct {
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// DefaultPoolConfig returns pool limits suited to a single SQLite file
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{MaxOpenConns: 10, MaxIdleConns: 5, MaxLifetime: 5 * time.Minute}
}

// SQLiteStore persists the history in a SQLite database. Insertion order is
// the autoincrement seq column.
type SQLiteStore struct {
	db       *sql.DB
	pool     PoolConfig
	prepared map[string]*sql.Stmt
	mutex    sync.RWMutex
}

// OpenSQLite opens (creating if needed) the history database in dataDir.
func OpenSQLite(dataDir string, pool PoolConfig) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.MaxLifetime)

	store := &SQLiteStore{
		db:       db,
		pool:     pool,
		prepared: make(map[string]*sql.Stmt),
	}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := store.initPreparedStatements(); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to initialize prepared statements: %w", err)
	}

	slog.Info("History database initialized",
		"path", dbPath,
		"max_open_conns", pool.MaxOpenConns,
		"max_idle_conns", pool.MaxIdleConns,
		"max_lifetime", pool.MaxLifetime)

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS history_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			timestamp TEXT NOT NULL,
			input TEXT NOT NULL,  -- JSON Applicant
			result TEXT NOT NULL  -- JSON Prediction
		)`,
		`CREATE INDEX IF NOT EXISTS idx_history_entries_timestamp ON history_entries(timestamp)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute migration: %w", err)
		}
	}
	return nil
}

const selectColumns = `SELECT id, timestamp, input, result FROM history_entries`

func (s *SQLiteStore) initPreparedStatements() error {
	statements := map[string]string{
		"insert": `INSERT INTO history_entries (id, timestamp, input, result) VALUES (?, ?, ?, ?)`,
		"list":   selectColumns + ` ORDER BY seq ASC`,
		"recent": selectColumns + ` ORDER BY seq DESC LIMIT ?`,
		"get":    selectColumns + ` WHERE id = ?`,
		"count":  `SELECT COUNT(*) FROM history_entries`,
		"clear":  `DELETE FROM history_entries`,
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name, query := range statements {
		stmt, err := s.db.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement %s: %w", name, err)
		}
		s.prepared[name] = stmt

		slog.Debug("Prepared statement initialized", "name", name)
	}
	return nil
}

func (s *SQLiteStore) stmt(name string) (*sql.Stmt, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	stmt, exists := s.prepared[name]
	if !exists {
		return nil, fmt.Errorf("prepared statement %s not found", name)
	}
	return stmt, nil
}

func (s *SQLiteStore) Append(ctx context.Context, entry types.HistoryEntry) error {
	input, err := json.Marshal(entry.Input)
	if err != nil {
		return fmt.Errorf("failed to marshal input: %w", err)
	}
	result, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	stmt, err := s.stmt("insert")
	if err != nil {
		return apperrors.NewStorageError("append", err)
	}

	if _, err := stmt.ExecContext(ctx, entry.ID, entry.Timestamp, string(input), string(result)); err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return fmt.Errorf("%w: %s", ErrDuplicateID, entry.ID)
		}
		return apperrors.NewStorageError("append", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (types.HistoryEntry, error) {
	var (
		e             types.HistoryEntry
		input, result string
	)
	if err := row.Scan(&e.ID, &e.Timestamp, &input, &result); err != nil {
		return e, err
	}
	if err := json.Unmarshal([]byte(input), &e.Input); err != nil {
		return e, fmt.Errorf("failed to decode input of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(result), &e.Result); err != nil {
		return e, fmt.Errorf("failed to decode result of %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *SQLiteStore) query(ctx context.Context, op, name string, args ...any) ([]types.HistoryEntry, error) {
	stmt, err := s.stmt(name)
	if err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}

	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	defer rows.Close()

	entries := []types.HistoryEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, apperrors.NewStorageError(op, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError(op, err)
	}
	return entries, nil
}

// List reads the whole log in one query, so it is a consistent snapshot.
func (s *SQLiteStore) List(ctx context.Context) ([]types.HistoryEntry, error) {
	return s.query(ctx, "list", "list")
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]types.HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	return s.query(ctx, "recent", "recent", limit)
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (types.HistoryEntry, error) {
	stmt, err := s.stmt("get")
	if err != nil {
		return types.HistoryEntry{}, apperrors.NewStorageError("get", err)
	}

	e, err := scanEntry(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return types.HistoryEntry{}, apperrors.NewNotFoundError("history entry", id, ErrNotFound)
	}
	if err != nil {
		return types.HistoryEntry{}, apperrors.NewStorageError("get", err)
	}
	return e, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	stmt, err := s.stmt("count")
	if err != nil {
		return 0, apperrors.NewStorageError("count", err)
	}

	var n int
	if err := stmt.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, apperrors.NewStorageError("count", err)
	}
	return n, nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	stmt, err := s.stmt("clear")
	if err != nil {
		return apperrors.NewStorageError("clear", err)
	}

	if _, err := stmt.ExecContext(ctx); err != nil {
		return apperrors.NewStorageError("clear", err)
	}
	return nil
}

// DeleteBefore removes entries whose timestamp is earlier than cutoff.
// Timestamps are compared as instants, not strings.
func (s *SQLiteStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, apperrors.NewStorageError("delete before", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT seq, timestamp FROM history_entries`)
	if err != nil {
		return 0, apperrors.NewStorageError("delete before", err)
	}

	var expired []int64
	for rows.Next() {
		var (
			seq int64
			ts  string
		)
		if err := rows.Scan(&seq, &ts); err != nil {
			rows.Close()
			return 0, apperrors.NewStorageError("delete before", err)
		}
		if t, ok := entryTime(types.HistoryEntry{Timestamp: ts}); ok && t.Before(cutoff) {
			expired = append(expired, seq)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, apperrors.NewStorageError("delete before", err)
	}

	for _, seq := range expired {
		if _, err := tx.ExecContext(ctx, `DELETE FROM history_entries WHERE seq = ?`, seq); err != nil {
			return 0, apperrors.NewStorageError("delete before", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, apperrors.NewStorageError("delete before", err)
	}
	return int64(len(expired)), nil
}

// PoolStats returns database connection pool statistics
func (s *SQLiteStore) PoolStats() map[string]interface{} {
	stats := s.db.Stats()

	return map[string]interface{}{
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"max_open_connections": s.pool.MaxOpenConns,
		"max_idle_connections": s.pool.MaxIdleConns,
		"max_lifetime_seconds": s.pool.MaxLifetime.Seconds(),
		"wait_count":           stats.WaitCount,
		"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
	}
}

// Close closes the prepared statements and the database
func (s *SQLiteStore) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for name, stmt := range s.prepared {
		if err := stmt.Close(); err != nil {
			slog.Warn("Failed to close prepared statement", "name", name, "error", err)
		}
	}
	s.prepared = make(map[string]*sql.Stmt)

	return s.db.Close()
}
