package monitor

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	_ "modernc.org/sqlite"

	"github.com/marcus/storeconf/internal/engine"
	"github.com/marcus/storeconf/internal/models"
	"github.com/marcus/storeconf/internal/netmon"
	"github.com/marcus/storeconf/internal/queue"
	"github.com/marcus/storeconf/internal/remote"
)

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	q, err := queue.New(db)
	if err != nil {
		t.Fatalf("init queue: %v", err)
	}
	return engine.New(remote.New(srv.URL, "test-key"), q, netmon.New())
}

func TestViewShowsQueuedOperations(t *testing.T) {
	e := newTestEngine(t)
	op, err := remote.PutSection("hours", models.Document{})
	if err != nil {
		t.Fatalf("build operation: %v", err)
	}
	if err := e.Queue().Enqueue(queue.Record{ID: "op-1", Operation: op}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	view := New(e).View()
	if !strings.Contains(view, "pending 1") {
		t.Errorf("view missing pending count:\n%s", view)
	}
	if !strings.Contains(view, "op-1") {
		t.Errorf("view missing operation id:\n%s", view)
	}
	if !strings.Contains(view, "PUT") {
		t.Errorf("view missing method:\n%s", view)
	}
}

func TestTickRefreshesRows(t *testing.T) {
	e := newTestEngine(t)
	m := New(e)
	if got := len(m.table.Rows()); got != 0 {
		t.Fatalf("initial rows = %d, want 0", got)
	}

	if err := e.Queue().Enqueue(queue.Record{
		ID:        "op-2",
		Operation: remote.GetConfig(),
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	next, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	m = next.(Model)
	if got := len(m.table.Rows()); got != 1 {
		t.Errorf("rows after tick = %d, want 1", got)
	}
}

func TestQuitKey(t *testing.T) {
	m := New(newTestEngine(t))
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q did not quit")
	}
	if msg := cmd(); msg != (tea.QuitMsg{}) {
		t.Errorf("q produced %T, want tea.QuitMsg", msg)
	}
}
