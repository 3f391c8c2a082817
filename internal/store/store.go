// Package store holds the in-memory configuration snapshot: the single
// source of truth the rendering layer reads. The sync engine is its only
// writer.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/marcus/storeconf/internal/models"
	"github.com/marcus/storeconf/internal/remote"
	"github.com/marcus/storeconf/internal/retry"
)

// Store is the current normalized configuration document plus the metadata
// consumers use to decide whether it is stale.
type Store struct {
	client *remote.Client
	exec   *retry.Executor

	mu            sync.RWMutex
	doc           models.Document
	lastRefreshed time.Time
}

// New creates an empty store bound to the Configuration Service client and
// retry executor it loads through.
func New(client *remote.Client, exec *retry.Executor) *Store {
	return &Store{client: client, exec: exec, doc: models.Document{}}
}

// Load fetches the full document, normalizes it over the documented
// defaults, and replaces the snapshot. On failure the previous snapshot is
// left intact and the error is returned.
func (s *Store) Load(ctx context.Context) error {
	op := remote.GetConfig()
	var body json.RawMessage
	err := s.exec.Do(ctx, retry.ReadPolicy(), op.Method+":"+op.URL, func(ctx context.Context) error {
		var doErr error
		body, doErr = s.client.Do(ctx, op)
		return doErr
	})
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	var raw models.Document
	if err := json.Unmarshal(body, &raw); err != nil {
		return fmt.Errorf("decode config: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = models.Normalize(raw)
	s.lastRefreshed = time.Now()
	return nil
}

// Document returns a deep copy of the current snapshot.
func (s *Store) Document() models.Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Clone()
}

// Replace swaps in a new document wholesale.
func (s *Store) Replace(doc models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc.Clone()
}

// Merge deep-merges a document fragment into the snapshot. Used to
// reconcile the snapshot with whatever the remote returned.
func (s *Store) Merge(fragment models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	models.Merge(s.doc, fragment)
}

// ApplyPatch shallow-merges a partial document into the snapshot: top-level
// keys replace wholesale. Used for local-only form drafts that must not
// trigger network activity.
func (s *Store) ApplyPatch(partial models.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range partial {
		s.doc[k] = models.CopyValue(v)
	}
}

// Region returns a deep copy of the value at a dot-separated path.
func (s *Store) Region(path string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.doc.Get(path)
	if !ok {
		return nil, false
	}
	return models.CopyValue(v), true
}

// SetRegion writes a value at a dot-separated path. An empty path replaces
// the whole document (the value must then be a document).
func (s *Store) SetRegion(path string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == "" {
		if doc, ok := value.(models.Document); ok {
			s.doc = doc.Clone()
		} else if m, ok := value.(map[string]any); ok {
			s.doc = models.Document(m).Clone()
		}
		return
	}
	s.doc.Set(path, models.CopyValue(value))
}

// LastRefreshed reports when Load last replaced the snapshot.
func (s *Store) LastRefreshed() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefreshed
}

// Stale reports whether the snapshot is older than maxAge (or never loaded).
func (s *Store) Stale(maxAge time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefreshed.IsZero() || time.Since(s.lastRefreshed) > maxAge
}
