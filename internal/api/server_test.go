package api

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"

	"github.com/notekeep/notekeep-server/internal/auth"
	"github.com/notekeep/notekeep-server/internal/cache"
	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/domain"
	"github.com/notekeep/notekeep-server/internal/query"
	"github.com/notekeep/notekeep-server/internal/service"
	"github.com/notekeep/notekeep-server/internal/store"
	"github.com/notekeep/notekeep-server/internal/validation"
)

// Bearer header lines for each configured secret.
const (
	readAuth   = "Authorization: Bearer read-secret"
	exportAuth = "Authorization: Bearer export-secret"
	adminAuth  = "Authorization: Bearer admin-secret"
	legacyAuth = "Authorization: Bearer legacy-secret"
	wrongAuth  = "Authorization: Bearer nope"
)

// memStore keeps notes in memory. Listing honors the deletion predicate, the
// column ordering and the keyset position; filter SQL itself is covered by
// the store tests.
type memStore struct {
	mu      sync.Mutex
	notes   map[int64]*domain.Note
	nextID  int64
	listed  []*query.Statement
	pingErr error
	listErr error
}

var _ store.Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{notes: map[int64]*domain.Note{}, nextID: 1}
}

func (m *memStore) seed(content string, tags ...string) *domain.Note {
	n, _ := m.CreateNote(context.Background(), content, tags)
	return n
}

// seedAt adds a note created and updated at ts.
func (m *memStore) seedAt(ts time.Time, content string) *domain.Note {
	n := m.seed(content)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.notes[n.ID].CreatedAt, m.notes[n.ID].UpdatedAt = ts, ts
	n.CreatedAt, n.UpdatedAt = ts, ts
	return n
}

func position(n *domain.Note) query.Position {
	return query.Position{CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt, ID: n.ID}
}

func (m *memStore) ListNotes(_ context.Context, st *query.Statement) ([]domain.RankedNote, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listed = append(m.listed, st)
	if m.listErr != nil {
		return nil, m.listErr
	}

	liveOnly := slices.Contains(st.Predicates, "deleted_at IS NULL")

	var rows []*domain.Note
	for _, n := range m.notes {
		if liveOnly && n.DeletedAt != nil {
			continue
		}
		if st.After != nil && !st.Order.Precedes(*st.After, position(n)) {
			continue
		}
		rows = append(rows, n)
	}
	slices.SortFunc(rows, func(a, b *domain.Note) int {
		if st.Order.Precedes(position(a), position(b)) {
			return -1
		}
		return 1
	})

	out := []domain.RankedNote{}
	for _, n := range rows[:min(len(rows), st.Limit)] {
		out = append(out, domain.RankedNote{Note: *n})
	}
	return out, nil
}

func (m *memStore) CountNotes(context.Context, *query.CountStatement) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total int64
	for _, n := range m.notes {
		if n.DeletedAt == nil {
			total++
		}
	}
	return total, nil
}

func (m *memStore) CreateNote(_ context.Context, content string, tags []string) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC).Add(time.Duration(m.nextID) * time.Minute)
	n := &domain.Note{ID: m.nextID, Content: content, Tags: tags, CreatedAt: now, UpdatedAt: now}
	m.notes[n.ID] = n
	m.nextID++
	cp := *n
	return &cp, nil
}

func (m *memStore) UpdateNote(_ context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.DeletedAt != nil {
		return nil, store.ErrNotFound
	}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	if patch.Tags != nil {
		n.Tags = patch.Tags
	}
	n.UpdatedAt = n.UpdatedAt.Add(time.Second)
	cp := *n
	return &cp, nil
}

func (m *memStore) SoftDeleteNote(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.DeletedAt != nil {
		return store.ErrNotFound
	}
	at := n.UpdatedAt.Add(time.Hour)
	n.DeletedAt = &at
	return nil
}

func (m *memStore) RestoreNote(_ context.Context, id int64) (*domain.Note, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.notes[id]
	if !ok || n.DeletedAt == nil {
		return nil, store.ErrNotFound
	}
	n.DeletedAt = nil
	cp := *n
	return &cp, nil
}

func (m *memStore) Ping(context.Context) error { return m.pingErr }
func (m *memStore) Close()                     {}

// testServer wraps the API server for handler tests.
type testServer struct {
	*Server
	api   humatest.TestAPI
	store *memStore
}

func testConfig() *config.Config {
	return &config.Config{
		Auth: config.AuthConfig{
			ReadKey:      "read-secret",
			ExportKey:    "export-secret",
			AdminKey:     "admin-secret",
			LegacyAPIKey: "legacy-secret",
		},
		CORS: config.CORSConfig{UIOrigin: "http://localhost:5173"},
	}
}

// setupTestServer creates a server backed by an in-memory store.
func setupTestServer(t *testing.T, mutate ...func(*config.Config)) *testServer {
	t.Helper()

	cfg := testConfig()
	for _, fn := range mutate {
		fn(cfg)
	}

	logger := slog.New(slog.DiscardHandler)
	st := newMemStore()
	notes := service.NewNoteService(st, cache.Noop{}, validation.New(), logger)
	srv := NewServer(cfg, notes, auth.NewKeyring(cfg.Auth), logger)
	t.Cleanup(srv.Close)

	return &testServer{
		Server: srv,
		api:    humatest.Wrap(t, srv.api),
		store:  st,
	}
}
