package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"webtv-clipper/pkg/db"
	"webtv-clipper/pkg/domain"
	"webtv-clipper/pkg/httpclient"
	"webtv-clipper/pkg/scrape"
)

func init() {
	retryInitialInterval = time.Millisecond
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeStore is an in-memory SessionStore keyed by source link.
type fakeStore struct {
	mu        sync.Mutex
	records   map[string]*domain.SessionRecord
	lookupErr error
	insertErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*domain.SessionRecord)}
}

func (s *fakeStore) Exists(ctx context.Context, link string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lookupErr != nil {
		return false, s.lookupErr
	}
	_, ok := s.records[link]
	return ok, nil
}

func (s *fakeStore) Insert(ctx context.Context, record *domain.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	if _, ok := s.records[record.SourceLink]; ok {
		return db.ErrConflict
	}
	s.records[record.SourceLink] = record
	return nil
}

type fakeBlobs struct {
	mu         sync.Mutex
	namespaces []string
	err        error
}

func (b *fakeBlobs) EnsureNamespace(namespace string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return b.err
	}
	b.namespaces = append(b.namespaces, namespace)
	return nil
}

// newSiteServer serves a synthetic listing page with one candidate linking
// to /x, and the /x detail page exposing a media URL and two speakers. It
// counts detail page hits so tests can assert the dedup short-circuit.
func newSiteServer(t *testing.T, detailHits *int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<div id="content"><ul>
			<li><a aria-label="Debatt, Budgetdebatt, 12 april 2024, 15 minuter" href="/x"></a></li>
		</ul></div>`)
	})
	mux.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		*detailHits++
		fmt.Fprintf(w, `
			<div id="below-player"><ul>
				<li><a href="/share">Dela</a></li>
				<li><a href="/x.mp4">Ladda ned</a></li>
			</ul></div>
			<div id="speakers-list"><ol>
				<li><a><span>Alice</span><time>00:10</time></a></li>
				<li><a><span>Bob</span><time>02:00</time></a></li>
			</ol></div>`)
	})

	return server
}

func newService(server *httptest.Server, store SessionStore, blobs BlobStore) *Service {
	log := testLogger()
	client := httpclient.New(httpclient.BrowserProfile)
	discoverer := scrape.NewDiscoverer(client, server.URL+"/listing", server.URL, 600, log)
	enricher := scrape.NewEnricher(client, server.URL, log)
	return NewService([]Discoverer{discoverer}, enricher, store, blobs, log)
}

func TestDiscoveryCycleInsertsNewRecord(t *testing.T) {
	detailHits := 0
	server := newSiteServer(t, &detailHits)
	store := newFakeStore()
	blobs := &fakeBlobs{}

	svc := newService(server, store, blobs)
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle returned error: %v", err)
	}

	record, ok := store.records[server.URL+"/x"]
	if !ok {
		t.Fatalf("Expected a record for /x, store has %d records", len(store.records))
	}

	if record.DurationSeconds != 900 {
		t.Errorf("Expected durationSeconds=900, got %d", record.DurationSeconds)
	}
	if record.Status != domain.StatusPending {
		t.Errorf("Expected pending status, got %q", record.Status)
	}
	if record.MediaURL != server.URL+"/x.mp4" {
		t.Errorf("Expected media URL %s/x.mp4, got %q", server.URL, record.MediaURL)
	}
	if len(record.Timeline) != 2 || record.Timeline[0].Speaker != "Alice" || record.Timeline[1].Speaker != "Bob" {
		t.Errorf("Unexpected timeline: %+v", record.Timeline)
	}
	if record.StorageNamespace == "" {
		t.Error("Expected a storage namespace assigned at discovery time")
	}
	if len(blobs.namespaces) != 1 || blobs.namespaces[0] != record.StorageNamespace {
		t.Errorf("Expected namespace pre-created before insert, got %v", blobs.namespaces)
	}
}

func TestDiscoveryCycleDedups(t *testing.T) {
	detailHits := 0
	server := newSiteServer(t, &detailHits)
	store := newFakeStore()
	blobs := &fakeBlobs{}

	svc := newService(server, store, blobs)
	for i := 0; i < 3; i++ {
		if err := svc.RunCycle(context.Background()); err != nil {
			t.Fatalf("RunCycle %d returned error: %v", i, err)
		}
	}

	if len(store.records) != 1 {
		t.Fatalf("Expected exactly one record after repeated cycles, got %d", len(store.records))
	}
	// Dedup happens before enrichment, so the detail page is fetched once.
	if detailHits != 1 {
		t.Errorf("Expected 1 detail fetch, got %d", detailHits)
	}
}

func TestInsertConflictTreatedAsDedup(t *testing.T) {
	detailHits := 0
	server := newSiteServer(t, &detailHits)
	store := newFakeStore()
	store.insertErr = db.ErrConflict
	blobs := &fakeBlobs{}

	svc := newService(server, store, blobs)
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("Conflict must be treated as benign dedup, got error: %v", err)
	}
}

func TestEnrichFailureSkipsCandidate(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/listing", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<div id="content"><ul>
			<li><a aria-label="Debatt, Budgetdebatt, 12 april 2024, 15 minuter" href="/x"></a></li>
		</ul></div>`)
	})
	mux.HandleFunc("/x", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	store := newFakeStore()
	blobs := &fakeBlobs{}

	svc := newService(server, store, blobs)
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("Enrich failure must not abort the cycle: %v", err)
	}

	// No record was created, so the link stays eligible for the next cycle.
	if len(store.records) != 0 {
		t.Errorf("Expected no records after enrich failure, got %d", len(store.records))
	}
	if len(blobs.namespaces) != 0 {
		t.Errorf("Expected no namespaces created, got %v", blobs.namespaces)
	}
}

func TestNamespaceFailureSkipsInsert(t *testing.T) {
	detailHits := 0
	server := newSiteServer(t, &detailHits)
	store := newFakeStore()
	blobs := &fakeBlobs{err: errors.New("storage unavailable")}

	svc := newService(server, store, blobs)
	if err := svc.RunCycle(context.Background()); err != nil {
		t.Fatalf("Namespace failure is candidate-local, got cycle error: %v", err)
	}
	if len(store.records) != 0 {
		t.Errorf("Record must not become visible without its namespace, got %d records", len(store.records))
	}
}

func TestRepositoryFailureAbortsCycle(t *testing.T) {
	detailHits := 0
	server := newSiteServer(t, &detailHits)
	store := newFakeStore()
	store.lookupErr = errors.New("connection refused")
	blobs := &fakeBlobs{}

	svc := newService(server, store, blobs)
	if err := svc.RunCycle(context.Background()); err == nil {
		t.Fatal("Expected cycle error when the repository is unreachable")
	}
}
