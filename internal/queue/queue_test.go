package queue

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marcus/storeconf/internal/remote"
)

func op(method, url string) remote.Operation {
	return remote.Operation{Method: method, URL: url, Payload: []byte(`{}`)}
}

func TestEnqueueSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")

	q, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(Record{ID: "op-1", Operation: op("PUT", "/config")}); err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(Record{ID: "op-2", Operation: op("PUT", "/config/sections/landing")}); err != nil {
		t.Fatal(err)
	}
	if err := q.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	recs := reopened.Records()
	if len(recs) != 2 {
		t.Fatalf("len = %d, want 2", len(recs))
	}
	if recs[0].ID != "op-1" || recs[1].ID != "op-2" {
		t.Errorf("order = %s, %s", recs[0].ID, recs[1].ID)
	}
	if recs[1].Operation.URL != "/config/sections/landing" {
		t.Errorf("operation url = %s", recs[1].Operation.URL)
	}
}

func TestNonJSONPayloadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")

	upload, err := remote.UploadAsset("logo", "logo.png", []byte("\x89PNG\r\n--raw-bytes"))
	if err != nil {
		t.Fatal(err)
	}

	q, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := q.Enqueue(Record{ID: "up-1", Operation: upload}); err != nil {
		t.Fatalf("enqueue multipart operation: %v", err)
	}
	q.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	recs := reopened.Records()
	if len(recs) != 1 {
		t.Fatalf("len = %d, want 1", len(recs))
	}
	if !bytes.Equal(recs[0].Operation.Payload, upload.Payload) {
		t.Error("multipart payload did not survive persistence")
	}
	if ct := recs[0].Operation.Headers["Content-Type"]; !strings.HasPrefix(ct, "multipart/form-data") {
		t.Errorf("content type = %q", ct)
	}
}

func TestCorruptStoredValueTreatedAsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")

	q, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := q.db.Exec(
		`INSERT INTO kv (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		storageKey, "{not json",
	); err != nil {
		t.Fatal(err)
	}
	q.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Len() != 0 {
		t.Errorf("len = %d, want 0 for corrupt store", reopened.Len())
	}
}

func TestTakeAllClearsPersistedState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	q, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	q.Enqueue(Record{ID: "a", Operation: op("PUT", "/config")})
	q.Enqueue(Record{ID: "b", Operation: op("DELETE", "/config/faqs/f1")})

	taken, err := q.TakeAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(taken) != 2 || q.Len() != 0 {
		t.Fatalf("taken = %d live = %d", len(taken), q.Len())
	}
	q.Close()

	// Cleared state is what survives a crash after TakeAll.
	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Len() != 0 {
		t.Errorf("reopened len = %d, want 0", reopened.Len())
	}
}

func TestRequeuePrependsPreservingOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "queue.db")
	q, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer q.Close()

	q.Enqueue(Record{ID: "a", Operation: op("PUT", "/a")})
	q.Enqueue(Record{ID: "b", Operation: op("PUT", "/b")})
	q.Enqueue(Record{ID: "c", Operation: op("PUT", "/c")})

	taken, _ := q.TakeAll()

	// A new operation arrives while the flush is in progress.
	q.Enqueue(Record{ID: "d", Operation: op("PUT", "/d")})

	// First op succeeded, second failed: b and c go back ahead of d.
	if err := q.Requeue(taken[1:]); err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, r := range q.Records() {
		ids = append(ids, r.ID)
	}
	want := []string{"b", "c", "d"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids = %v, want %v", ids, want)
		}
	}
}
