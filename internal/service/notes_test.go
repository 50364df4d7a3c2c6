package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekeep/notekeep-server/internal/auth"
	"github.com/notekeep/notekeep-server/internal/config"
	"github.com/notekeep/notekeep-server/internal/domain"
	domainerrors "github.com/notekeep/notekeep-server/internal/errors"
	"github.com/notekeep/notekeep-server/internal/query"
	"github.com/notekeep/notekeep-server/internal/store"
	"github.com/notekeep/notekeep-server/internal/validation"
)

// fakeStore records the statements it receives and returns canned rows.
type fakeStore struct {
	listed   []*query.Statement
	counted  []*query.CountStatement
	notes    []domain.RankedNote
	total    int64
	err      error
	created  *domain.Note
	patch    domain.NotePatch
	deleted  []int64
	restored []int64
	// onCount runs inside CountNotes, between the cache miss and the store.
	onCount func()
}

var _ store.Store = (*fakeStore)(nil)

func (f *fakeStore) ListNotes(_ context.Context, st *query.Statement) ([]domain.RankedNote, error) {
	f.listed = append(f.listed, st)
	return f.notes, f.err
}

func (f *fakeStore) CountNotes(_ context.Context, st *query.CountStatement) (int64, error) {
	f.counted = append(f.counted, st)
	if f.onCount != nil {
		f.onCount()
	}
	return f.total, f.err
}

func (f *fakeStore) CreateNote(_ context.Context, content string, tags []string) (*domain.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &domain.Note{ID: 1, Content: content, Tags: tags}
	return f.created, nil
}

func (f *fakeStore) UpdateNote(_ context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.patch = patch
	n := &domain.Note{ID: id}
	if patch.Content != nil {
		n.Content = *patch.Content
	}
	n.Tags = patch.Tags
	return n, nil
}

func (f *fakeStore) SoftDeleteNote(_ context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) RestoreNote(_ context.Context, id int64) (*domain.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.restored = append(f.restored, id)
	return &domain.Note{ID: id}, nil
}

func (f *fakeStore) Ping(context.Context) error { return f.err }
func (f *fakeStore) Close()                     {}

// countingCache is an in-memory count cache keyed by generation and SQL.
type countingCache struct {
	values      map[string]int64
	invalidated int
}

func (c *countingCache) Get(_ context.Context, st *query.CountStatement) (int64, string, bool) {
	key := fmt.Sprintf("%d:%s", c.invalidated, st.SQL)
	v, ok := c.values[key]
	return v, key, ok
}

func (c *countingCache) Set(_ context.Context, key string, total int64) {
	c.values[key] = total
}

func (c *countingCache) Invalidate(context.Context) {
	c.invalidated++
}

var testKeys = auth.NewKeyring(config.AuthConfig{ReadKey: "r", ExportKey: "e", AdminKey: "a"})

func setupNoteService(t *testing.T) (*NoteService, *fakeStore, *countingCache) {
	t.Helper()
	st := &fakeStore{}
	c := &countingCache{values: map[string]int64{}}
	return NewNoteService(st, c, validation.New(), slog.New(slog.DiscardHandler)), st, c
}

func notesWithIDs(ids ...int64) []domain.RankedNote {
	ts := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	out := make([]domain.RankedNote, len(ids))
	for i, id := range ids {
		out[i] = domain.RankedNote{Note: domain.Note{ID: id, CreatedAt: ts, UpdatedAt: ts, Tags: []string{}}}
	}
	return out
}

func TestNoteService_List_NextCursor(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	st.notes = notesWithIDs(9, 8)

	res, err := svc.List(context.Background(), testKeys.Resolve("r"), query.Params{Limit: "2"})
	require.NoError(t, err)
	require.Nil(t, res.Empty)
	require.NotEmpty(t, res.NextCursor)

	pos, ok := query.DecodeCursor(res.NextCursor)
	require.True(t, ok)
	assert.Equal(t, int64(8), pos.ID)
	assert.Equal(t, "id:desc", pos.OrderKey)
}

func TestNoteService_List_ShortPageHasNoCursor(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	st.notes = notesWithIDs(9)

	res, err := svc.List(context.Background(), testKeys.Resolve("r"), query.Params{Limit: "2"})
	require.NoError(t, err)
	assert.Empty(t, res.NextCursor)
}

func TestNoteService_List_OffsetHasNoCursor(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	st.notes = notesWithIDs(9, 8)

	res, err := svc.List(context.Background(), testKeys.Resolve("r"), query.Params{Limit: "2", Offset: "0"})
	require.NoError(t, err)
	assert.Empty(t, res.NextCursor)
}

func TestNoteService_List_IncludeDeletedRequiresAdmin(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	st.notes = notesWithIDs(1)
	ctx := context.Background()

	_, err := svc.List(ctx, testKeys.Resolve("r"), query.Params{IncludeDeleted: "true"})
	require.NoError(t, err)
	assert.Contains(t, st.listed[0].Predicates, "deleted_at IS NULL")

	_, err = svc.List(ctx, testKeys.Resolve("a"), query.Params{IncludeDeleted: "true"})
	require.NoError(t, err)
	assert.NotContains(t, st.listed[1].Predicates, "deleted_at IS NULL")
}

func TestNoteService_List_ShortQueryDisablesRank(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	st.notes = notesWithIDs(1)

	res, err := svc.List(context.Background(), testKeys.Resolve("r"), query.Params{Q: "go", QMode: "trgm", Rank: "1", RankMin: "0.3"})
	require.NoError(t, err)
	assert.True(t, res.RankDisabled)
	assert.False(t, st.listed[0].Ranked)
	assert.NotContains(t, st.listed[0].SQL(), "similarity")
}

func TestNoteService_List_InvalidRange(t *testing.T) {
	svc, st, _ := setupNoteService(t)

	_, err := svc.List(context.Background(), testKeys.Resolve("r"), query.Params{From: "2025-02-01", To: "2025-01-01"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrValidation)
	assert.Empty(t, st.listed, "validation must precede storage")
}

func TestNoteService_List_ZeroResult(t *testing.T) {
	svc, _, _ := setupNoteService(t)

	res, err := svc.List(context.Background(), testKeys.Resolve("r"), query.Params{Q: "meeting", QMode: "exact", Limit: "20"})
	require.NoError(t, err)
	require.NotNil(t, res.Empty)

	z := res.Empty
	assert.Empty(t, z.Results)
	assert.NotNil(t, z.Results)
	assert.Equal(t, zeroResultMessage, z.Message)
	require.NotNil(t, z.Echo.Q)
	assert.Equal(t, "meeting", *z.Echo.Q)
	assert.Nil(t, z.Echo.RankMin)
	assert.Equal(t, 20, z.Echo.Limit)
	assert.Equal(t, "id_desc", z.Echo.OrderBy)
	assert.NotEmpty(t, z.Tips)
	assert.Contains(t, z.FriendlyText, "meeting")
}

func TestNoteService_List_StoreFailure(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	st.err = store.ErrUnavailable.WithCause(errors.New("dial tcp"))

	_, err := svc.List(context.Background(), testKeys.Resolve("r"), query.Params{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domainerrors.ErrInternal)

	var domainErr *domainerrors.Error
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "Internal Server Error", domainErr.Message)
}

func TestNoteService_Count_UsesCache(t *testing.T) {
	svc, st, c := setupNoteService(t)
	st.total = 4
	ctx := context.Background()
	p := query.Params{TagsAny: "go", Limit: "1", Cursor: "ignored"}

	total, err := svc.Count(ctx, testKeys.Resolve("r"), p)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)

	st.total = 99
	total, err = svc.Count(ctx, testKeys.Resolve("r"), p)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, st.counted, 1)

	require.NoError(t, svc.Delete(ctx, "3"))
	assert.Equal(t, 1, c.invalidated)

	total, err = svc.Count(ctx, testKeys.Resolve("r"), p)
	require.NoError(t, err)
	assert.Equal(t, int64(99), total)
}

func TestNoteService_Count_WriteDuringCountIsNotCached(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	ctx := context.Background()
	p := query.Params{}

	st.total = 5
	st.onCount = func() {
		st.onCount = nil
		require.NoError(t, svc.Delete(ctx, "2"))
	}
	total, err := svc.Count(ctx, testKeys.Resolve("r"), p)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)

	st.total = 4
	total, err = svc.Count(ctx, testKeys.Resolve("r"), p)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, st.counted, 2)
}

func TestNoteService_Export(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	st.notes = notesWithIDs(1)

	res, err := svc.Export(context.Background(), testKeys.Resolve("a"), query.Params{
		IncludeDeleted: "true", Q: "golang", Rank: "1", Limit: "50000", Cursor: "x", Offset: "10",
	})
	require.NoError(t, err)
	assert.True(t, res.IncludeDeleted)
	assert.True(t, res.Ranked)

	stmt := st.listed[0]
	assert.Equal(t, query.ExportLimits.Max, stmt.Limit)
	assert.NotContains(t, stmt.SQL(), "OFFSET")
}

func TestNoteService_Create(t *testing.T) {
	svc, st, c := setupNoteService(t)
	content := "  hello  "
	tags := []string{"Go", " ＤＢ ", "Go"}

	n, err := svc.Create(context.Background(), NoteInput{Content: &content, Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, "hello", n.Content)
	assert.Equal(t, []string{"go", "db"}, st.created.Tags)
	assert.Equal(t, 1, c.invalidated)
}

func TestNoteService_Create_Validation(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	content := "hello"
	empty := []string{}

	_, err := svc.Create(context.Background(), NoteInput{Tags: &empty})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content is required")

	_, err = svc.Create(context.Background(), NoteInput{Content: &content})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tags must be a non-empty array")
	assert.Nil(t, st.created)
}

func TestNoteService_Update(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	ctx := context.Background()

	_, err := svc.Update(ctx, "5", NoteInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to update")

	_, err = svc.Update(ctx, "0", NoteInput{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid id")

	tags := []string{"x"}
	n, err := svc.Update(ctx, "5", NoteInput{Tags: &tags})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n.ID)
	assert.Nil(t, st.patch.Content)
	assert.Equal(t, []string{"x"}, st.patch.Tags)
}

func TestNoteService_NotFound(t *testing.T) {
	svc, st, c := setupNoteService(t)
	st.err = store.ErrNotFound
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "4"), domainerrors.ErrNotFound)
	_, err := svc.Restore(ctx, "4")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
	assert.Zero(t, c.invalidated)
}

func TestNoteService_Restore(t *testing.T) {
	svc, st, _ := setupNoteService(t)
	n, err := svc.Restore(context.Background(), "12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n.ID)
	assert.Equal(t, []int64{12}, st.restored)
}

func TestParseID(t *testing.T) {
	for _, raw := range []string{"", "abc", "0", "-3", "1.5", "99999999999999999999"} {
		_, err := ParseID(raw)
		assert.Error(t, err, raw)
	}
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}
