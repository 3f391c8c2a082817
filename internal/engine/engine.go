// Package engine orchestrates every mutation that must eventually reach the
// Configuration Service: optimistic local update, undo bookkeeping, retry,
// offline queueing, and reconciliation with the server's response.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marcus/storeconf/internal/models"
	"github.com/marcus/storeconf/internal/netmon"
	"github.com/marcus/storeconf/internal/queue"
	"github.com/marcus/storeconf/internal/remote"
	"github.com/marcus/storeconf/internal/retry"
	"github.com/marcus/storeconf/internal/store"
	"github.com/marcus/storeconf/internal/undo"
)

// ErrNothingToUndo is returned by UndoLastChange on an empty undo stack.
var ErrNothingToUndo = errors.New("nothing to undo")

// Status is the aggregate state of the most recent mutation attempt.
type Status int

const (
	StatusIdle Status = iota
	StatusSyncing
	StatusQueued
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSyncing:
		return "syncing"
	case StatusQueued:
		return "queued"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Outcome is the discriminated result of a mutation: exactly one of the
// three predicates holds.
type Outcome struct {
	Document    models.Document // snapshot after reconciliation, on success
	OperationID string          // queued operation id, when offline
	Err         error           // terminal failure
}

// Success reports that the remote write was confirmed.
func (o Outcome) Success() bool { return o.Err == nil && o.OperationID == "" }

// Queued reports that the write was persisted for replay after reconnect.
func (o Outcome) Queued() bool { return o.OperationID != "" }

// Failed reports a terminal failure; the optimistic edit was rolled back.
func (o Outcome) Failed() bool { return o.Err != nil }

// Mutation is the generic contract every specific save operation is built
// on. Operation is the replayable remote write; Optimistic (optional)
// applies the edit locally before the write is attempted; Reconcile
// (optional) folds the server's response into the store, defaulting to a
// merge at Path.
type Mutation struct {
	Kind       string
	Path       string
	Operation  remote.Operation
	Optimistic func(*store.Store)
	Reconcile  func(*store.Store, json.RawMessage) error
}

// Engine is the orchestrator. Construct one per session; there are no
// ambient singletons, so tests run independent instances freely.
type Engine struct {
	Policy retry.Policy // retry budget for writes; adjustable before use

	store   *store.Store
	queue   *queue.Queue
	undo    *undo.Stack
	monitor *netmon.Monitor
	client  *remote.Client
	exec    *retry.Executor

	// opMu serializes mutations and flush passes. Holding it across the
	// whole snapshot-to-outcome window means a rollback can only ever
	// restore state this mutation itself displaced.
	opMu sync.Mutex

	mu           sync.Mutex
	status       Status
	lastSyncedAt time.Time
	lastErr      error
}

// New wires an engine to its collaborators and registers the queue flush on
// reconnect.
func New(client *remote.Client, q *queue.Queue, monitor *netmon.Monitor) *Engine {
	exec := retry.NewExecutor(monitor)
	e := &Engine{
		Policy:  retry.WritePolicy(),
		store:   store.New(client, exec),
		queue:   q,
		undo:    &undo.Stack{},
		monitor: monitor,
		client:  client,
		exec:    exec,
	}
	monitor.OnReconnect(func() {
		go func() {
			if err := e.Flush(context.Background()); err != nil {
				slog.Warn("flush after reconnect", "err", err)
			}
		}()
	})
	return e
}

// Store exposes the configuration snapshot for readers.
func (e *Engine) Store() *store.Store { return e.store }

// Queue exposes pending operations for diagnostic display only.
func (e *Engine) Queue() *queue.Queue { return e.queue }

// Executor exposes per-endpoint retry counters for diagnostics.
func (e *Engine) Executor() *retry.Executor { return e.exec }

// UndoDepth reports how many mutations are currently undoable.
func (e *Engine) UndoDepth() int { return e.undo.Len() }

// Load refreshes the configuration snapshot from the service.
func (e *Engine) Load(ctx context.Context) error {
	return e.store.Load(ctx)
}

// Status returns the state of the most recent mutation attempt.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// LastSyncedAt reports when a mutation last reached the service.
func (e *Engine) LastSyncedAt() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastSyncedAt
}

// LastError returns the most recent terminal failure, if the engine is in
// the error state.
func (e *Engine) LastError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastErr
}

func (e *Engine) setStatus(s Status, err error) {
	e.mu.Lock()
	e.status = s
	e.lastErr = err
	if s == StatusIdle && err == nil {
		e.lastSyncedAt = time.Now()
	}
	e.mu.Unlock()
}

// Mutate runs the optimistic-update-then-sync protocol:
//
//  1. push a pre-mutation snapshot of the affected region onto the undo stack
//  2. apply the optimistic edit, if any, and mark the engine syncing
//  3. attempt the remote write through the retry executor
//  4. success: reconcile the snapshot with the response; offline: persist
//     the operation for replay and keep the optimistic edit; terminal
//     failure: roll the region back to the snapshot and surface the error
//
// Mutations serialize on opMu: a caller that issues a second mutation while
// one is in flight blocks until the first resolves, so a rollback never
// reverts state another mutation wrote.
func (e *Engine) Mutate(ctx context.Context, m Mutation) Outcome {
	e.opMu.Lock()
	defer e.opMu.Unlock()
	return e.mutate(ctx, m)
}

// mutate is the protocol body; callers hold opMu.
func (e *Engine) mutate(ctx context.Context, m Mutation) Outcome {
	snapshot, _ := e.store.Region(m.Path)
	e.undo.Push(undo.Record{Kind: m.Kind, Path: m.Path, Snapshot: snapshot, At: time.Now()})

	if m.Optimistic != nil {
		m.Optimistic(e.store)
	}
	e.setStatus(StatusSyncing, nil)

	var body json.RawMessage
	key := m.Operation.Method + ":" + m.Operation.URL
	err := e.exec.Do(ctx, e.Policy, key, func(ctx context.Context) error {
		var doErr error
		body, doErr = e.client.Do(ctx, m.Operation)
		return doErr
	})

	switch {
	case err == nil:
		if rerr := e.reconcile(m, body); rerr != nil {
			slog.Warn("reconcile response", "kind", m.Kind, "err", rerr)
		}
		e.setStatus(StatusIdle, nil)
		return Outcome{Document: e.store.Document()}

	case errors.Is(err, retry.ErrOffline):
		rec := queue.Record{ID: uuid.NewString(), Operation: m.Operation}
		if qerr := e.queue.Enqueue(rec); qerr != nil {
			// Could not persist: treat as terminal so the edit is not lost
			// silently on the next reload.
			e.rollback()
			e.setStatus(StatusError, qerr)
			return Outcome{Err: fmt.Errorf("enqueue operation: %w", qerr)}
		}
		slog.Debug("mutation queued", "kind", m.Kind, "id", rec.ID)
		e.setStatus(StatusQueued, nil)
		return Outcome{OperationID: rec.ID}

	default:
		e.rollback()
		e.setStatus(StatusError, err)
		slog.Debug("mutation failed", "kind", m.Kind, "err", err)
		return Outcome{Err: err}
	}
}

// rollback restores the region to the snapshot pushed at the start of the
// mutation and removes that record: nothing persisted, so there is no valid
// undo target. Mutations hold opMu, so the top of the stack is always the
// record this mutation pushed.
func (e *Engine) rollback() {
	rec, ok := e.undo.Pop()
	if !ok {
		return
	}
	e.restoreRegion(rec.Path, rec.Snapshot)
}

func (e *Engine) restoreRegion(path string, snapshot any) {
	if path == "" {
		if doc, ok := snapshot.(models.Document); ok {
			e.store.Replace(doc)
		}
		return
	}
	e.store.SetRegion(path, snapshot)
}

// reconcile folds the server's response into the store. A custom Reconcile
// wins; otherwise an object response merges at the mutation's path.
func (e *Engine) reconcile(m Mutation, body json.RawMessage) error {
	if m.Reconcile != nil {
		return m.Reconcile(e.store, body)
	}
	if len(body) == 0 {
		return nil
	}
	var parsed any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	switch val := parsed.(type) {
	case map[string]any:
		if m.Path == "" {
			e.store.Merge(models.Document(val))
		} else {
			e.store.SetRegion(m.Path, models.Document(val))
		}
	case []any:
		if m.Path != "" {
			e.store.SetRegion(m.Path, val)
		}
	}
	return nil
}

// UndoLastChange pops the most recent mutation's snapshot, applies it
// locally, and re-saves it through the normal mutation path, so the revert
// gets the same success/queued/terminal handling as any other write.
func (e *Engine) UndoLastChange(ctx context.Context) Outcome {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	rec, ok := e.undo.Pop()
	if !ok {
		return Outcome{Err: ErrNothingToUndo}
	}

	m, err := e.undoMutation(rec)
	if err != nil {
		return Outcome{Err: err}
	}
	return e.mutate(ctx, m)
}

// undoMutation maps an undo record back onto the save operation for its
// kind, with the snapshot as payload.
func (e *Engine) undoMutation(rec undo.Record) (Mutation, error) {
	snapshot := models.CopyValue(rec.Snapshot)

	var op remote.Operation
	var err error
	switch {
	case rec.Kind == KindGeneral:
		doc, _ := snapshot.(models.Document)
		op, err = remote.PutConfig(doc)
	case rec.Kind == KindSections:
		doc, _ := snapshot.(models.Document)
		op, err = remote.PutSections(doc)
	case strings.HasPrefix(rec.Kind, kindSectionPrefix):
		doc, _ := snapshot.(models.Document)
		op, err = remote.PutSection(strings.TrimPrefix(rec.Kind, kindSectionPrefix), doc)
	default:
		// Region-scoped kinds (lists, toggles, assets) revert through a
		// partial full-document PUT, which is idempotent by construction.
		partial := models.Document{}
		partial.Set(rec.Path, snapshot)
		op, err = remote.PutConfig(partial)
	}
	if err != nil {
		return Mutation{}, fmt.Errorf("build undo save: %w", err)
	}

	return Mutation{
		Kind:      rec.Kind,
		Path:      rec.Path,
		Operation: op,
		Optimistic: func(s *store.Store) {
			if rec.Path == "" {
				if doc, ok := snapshot.(models.Document); ok {
					s.Replace(doc)
				}
				return
			}
			s.SetRegion(rec.Path, snapshot)
		},
	}, nil
}

// Flush drains the persisted queue sequentially in FIFO order. The live
// queue is cleared before replay starts; on the first operation that still
// fails after retries, it and everything not yet processed are re-enqueued
// in order and the pass stops, so a still-unreachable service is not
// hammered and nothing is silently dropped. Flush takes the same mutation
// lock, so replay never interleaves with a live mutation.
func (e *Engine) Flush(ctx context.Context) error {
	e.opMu.Lock()
	defer e.opMu.Unlock()

	recs, err := e.queue.TakeAll()
	if err != nil {
		return fmt.Errorf("take queue: %w", err)
	}
	if len(recs) == 0 {
		return nil
	}

	for i, rec := range recs {
		key := rec.Operation.Method + ":" + rec.Operation.URL
		err := e.exec.Do(ctx, e.Policy, key, func(ctx context.Context) error {
			_, doErr := e.client.Do(ctx, rec.Operation)
			return doErr
		})
		if err != nil {
			if qerr := e.queue.Requeue(recs[i:]); qerr != nil {
				return fmt.Errorf("requeue after flush failure: %w", qerr)
			}
			e.setStatus(StatusQueued, nil)
			slog.Info("flush halted", "replayed", i, "requeued", len(recs)-i, "err", err)
			return nil
		}
		slog.Debug("replayed queued operation", "id", rec.ID, "op", key)
	}

	e.setStatus(StatusIdle, nil)
	slog.Info("flush complete", "replayed", len(recs))
	return nil
}
