package sync

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeStore is an in-memory document store speaking just enough of the wire
// protocol for the client: optimistic revisions, 404 on absence, 409 on
// stale writes.
type fakeStore struct {
	mu        sync.Mutex
	docs      map[string]fakeDoc
	revSeq    int
	mutations int

	// ids whose next GET answers 404 even though the doc exists; used to
	// provoke the check-then-create race
	hideOnce map[string]bool

	server *httptest.Server
}

type fakeDoc struct {
	rev  string
	body map[string]any
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()

	fs := &fakeStore{
		docs:     make(map[string]fakeDoc),
		hideOnce: make(map[string]bool),
	}
	fs.server = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.server.Close)
	return fs
}

func (f *fakeStore) URL() string { return f.server.URL }

func (f *fakeStore) mutationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mutations
}

func (f *fakeStore) docCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

func (f *fakeStore) get(id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, false
	}
	body := make(map[string]any, len(doc.body))
	for k, v := range doc.body {
		body[k] = v
	}
	return body, true
}

// seed inserts a document directly, bypassing the HTTP surface.
func (f *fakeStore) seed(id string, body map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revSeq++
	f.docs[id] = fakeDoc{rev: fmt.Sprintf("%d-seed", f.revSeq), body: body}
}

func (f *fakeStore) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
}

func (f *fakeStore) handle(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		fmt.Fprint(w, `{"ok":true}`)
		return
	}
	if r.URL.Path == "/vault" && r.Method == http.MethodPut {
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"ok":true}`)
		return
	}
	if r.URL.Path == "/vault/_all_docs" {
		f.handleList(w)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/vault/")
	switch r.Method {
	case http.MethodGet:
		f.handleGet(w, id)
	case http.MethodPut:
		f.handlePut(w, r, id)
	case http.MethodDelete:
		f.handleDelete(w, r, id)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeStore) handleList(w http.ResponseWriter) {
	f.mu.Lock()
	defer f.mu.Unlock()

	rows := make([]map[string]any, 0, len(f.docs))
	for id, doc := range f.docs {
		rows = append(rows, map[string]any{
			"id":    id,
			"value": map[string]any{"rev": doc.rev},
		})
	}
	json.NewEncoder(w).Encode(map[string]any{
		"total_rows": len(f.docs),
		"rows":       rows,
	})
}

func (f *fakeStore) hideNextGet(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hideOnce[id] = true
}

func (f *fakeStore) handleGet(w http.ResponseWriter, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hideOnce[id] {
		delete(f.hideOnce, id)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not_found","reason":"missing"}`)
		return
	}

	doc, ok := f.docs[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not_found","reason":"missing"}`)
		return
	}

	body := make(map[string]any, len(doc.body)+2)
	for k, v := range doc.body {
		body[k] = v
	}
	body["_id"] = id
	body["_rev"] = doc.rev
	json.NewEncoder(w).Encode(body)
}

func (f *fakeStore) handlePut(w http.ResponseWriter, r *http.Request, id string) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	submittedRev, _ := body["_rev"].(string)
	existing, exists := f.docs[id]
	if exists && submittedRev != existing.rev {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"conflict","reason":"document update conflict"}`)
		return
	}

	delete(body, "_rev")
	delete(body, "_id")
	f.revSeq++
	newRev := fmt.Sprintf("%d-rev", f.revSeq)
	f.docs[id] = fakeDoc{rev: newRev, body: body}
	f.mutations++

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{"ok": true, "id": id, "rev": newRev})
}

func (f *fakeStore) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, ok := f.docs[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"error":"not_found","reason":"missing"}`)
		return
	}
	if r.URL.Query().Get("rev") != doc.rev {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"error":"conflict","reason":"document update conflict"}`)
		return
	}

	delete(f.docs, id)
	f.mutations++
	fmt.Fprint(w, `{"ok":true}`)
}
