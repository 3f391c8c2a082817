// Package queue is the durable FIFO of remote operations attempted while
// offline. The full queue is serialized as one JSON array under a fixed key
// in a local SQLite database, so it survives process restarts and a crash
// between enqueue and flush never loses an unconfirmed operation.
package queue

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/marcus/storeconf/internal/remote"
)

const storageKey = "pending_operations"

// Record pairs an operation with the id handed back to the caller when the
// operation was queued.
type Record struct {
	ID        string           `json:"id"`
	Operation remote.Operation `json:"operation"`
}

// Queue is the persisted pending-operation list. The in-memory slice is the
// live queue; every mutation rewrites the stored value before returning.
// The engine is the only writer; the mutex keeps diagnostic reads safe.
type Queue struct {
	db     *sql.DB
	ownsDB bool

	mu      sync.Mutex
	records []Record
}

// Open opens (or creates) the queue database at path and loads any persisted
// operations. A stored value that cannot be parsed is treated as an empty
// queue rather than an error.
func Open(path string) (*Queue, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create queue dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open queue database: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=500"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	q, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	q.ownsDB = true
	return q, nil
}

// New wraps an already-open database (used by tests with :memory: handles).
func New(db *sql.DB) (*Queue, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`); err != nil {
		return nil, fmt.Errorf("init queue schema: %w", err)
	}

	q := &Queue{db: db}
	q.records = q.load()
	return q, nil
}

// load reads and parses the stored queue, defensively: missing rows and
// corrupt values both yield an empty queue.
func (q *Queue) load() []Record {
	var value string
	err := q.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, storageKey).Scan(&value)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		slog.Warn("queue: read stored value", "err", err)
		return nil
	}

	var records []Record
	if err := json.Unmarshal([]byte(value), &records); err != nil {
		slog.Warn("queue: stored value unparseable, starting empty", "err", err)
		return nil
	}
	return records
}

func (q *Queue) persist() error {
	data, err := json.Marshal(q.records)
	if err != nil {
		return fmt.Errorf("marshal queue: %w", err)
	}
	if _, err := q.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		storageKey, string(data),
	); err != nil {
		return fmt.Errorf("persist queue: %w", err)
	}
	return nil
}

// Enqueue appends a record and persists the full queue before returning.
func (q *Queue) Enqueue(rec Record) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, rec)
	return q.persist()
}

// TakeAll snapshots the live queue and clears it, persisting the empty state
// before any replay work starts. Operations that fail replay must be handed
// back via Requeue.
func (q *Queue) TakeAll() ([]Record, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	taken := q.records
	q.records = nil
	if err := q.persist(); err != nil {
		// Restore the live queue so nothing is silently dropped.
		q.records = taken
		return nil, err
	}
	return taken, nil
}

// Requeue puts records back at the front of the queue, ahead of anything
// enqueued while a flush was in progress, preserving FIFO replay order.
func (q *Queue) Requeue(recs []Record) error {
	if len(recs) == 0 {
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(append([]Record{}, recs...), q.records...)
	return q.persist()
}

// Records returns a copy of the pending operations for diagnostic display.
func (q *Queue) Records() []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Record, len(q.records))
	copy(out, q.records)
	return out
}

// Len reports the number of pending operations.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}

// Close closes the underlying database if this queue opened it.
func (q *Queue) Close() error {
	if !q.ownsDB {
		return nil
	}
	return q.db.Close()
}
