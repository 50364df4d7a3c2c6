package postgres

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/notekeep/notekeep-server/internal/domain"
	"github.com/notekeep/notekeep-server/internal/metrics"
	"github.com/notekeep/notekeep-server/internal/query"
	"github.com/notekeep/notekeep-server/internal/store"
)

// noteColumns is the column list every mutation returns.
//
//nolint:gochecknoglobals // Derived once from the listing columns
var noteColumns = strings.Join(query.NoteColumns, ", ")

// Store is the PostgreSQL notes store.
type Store struct {
	db     DB
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// New wraps db. The store takes ownership and closes it on Close.
func New(db DB, logger *slog.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// scanNote reads the listing columns into n, followed by any extra destinations.
func scanNote(row pgx.Row, n *domain.Note, extra ...any) error {
	dest := []any{&n.ID, &n.Content, &n.Tags, &n.CreatedAt, &n.UpdatedAt, &n.DeletedAt}
	return row.Scan(append(dest, extra...)...)
}

func unavailable(op string, err error) error {
	return store.ErrUnavailable.WithMessage(op + " failed").WithCause(err)
}

// ListNotes runs an assembled listing or export statement.
func (s *Store) ListNotes(ctx context.Context, st *query.Statement) ([]domain.RankedNote, error) {
	timer := metrics.TrackDB("list")
	defer timer.ObserveDuration()

	rows, err := s.db.Query(ctx, st.SQL(), st.Args...)
	if err != nil {
		return nil, unavailable("list notes", err)
	}
	defer rows.Close()

	notes := make([]domain.RankedNote, 0, st.Limit)
	for rows.Next() {
		var n domain.RankedNote
		if st.Ranked {
			var rank float64
			err = scanNote(rows, &n.Note, &rank)
			n.Rank = &rank
		} else {
			err = scanNote(rows, &n.Note)
		}
		if err != nil {
			return nil, unavailable("scan note", err)
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list notes", err)
	}
	return notes, nil
}

// CountNotes runs an assembled count statement.
func (s *Store) CountNotes(ctx context.Context, st *query.CountStatement) (int64, error) {
	timer := metrics.TrackDB("count")
	defer timer.ObserveDuration()

	var total int64
	if err := s.db.QueryRow(ctx, st.SQL, st.Args...).Scan(&total); err != nil {
		return 0, unavailable("count notes", err)
	}
	return total, nil
}

// CreateNote inserts a note. content and tags must already be validated.
func (s *Store) CreateNote(ctx context.Context, content string, tags []string) (*domain.Note, error) {
	timer := metrics.TrackDB("create")
	defer timer.ObserveDuration()

	var n domain.Note
	row := s.db.QueryRow(ctx,
		"INSERT INTO notes (content, tags) VALUES ($1, $2) RETURNING "+noteColumns,
		content, tags)
	if err := scanNote(row, &n); err != nil {
		return nil, unavailable("create note", err)
	}
	return &n, nil
}

// UpdateNote applies patch to a live note and bumps updated_at.
func (s *Store) UpdateNote(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error) {
	if patch.IsEmpty() {
		return nil, errors.New("update note: empty patch")
	}
	timer := metrics.TrackDB("update")
	defer timer.ObserveDuration()

	b := query.NewBuilder()
	var sets []string
	if patch.Content != nil {
		sets = append(sets, b.Render(query.Frag("content = ", b.Bind(*patch.Content))))
	}
	if patch.Tags != nil {
		sets = append(sets, b.Render(query.Frag("tags = ", b.Bind(patch.Tags))))
	}
	sets = append(sets, "updated_at = now()")
	b.Where("id = ", b.Bind(id))
	b.Where("deleted_at IS NULL")

	sql := "UPDATE notes SET " + strings.Join(sets, ", ") + " " + b.WhereClause() + " RETURNING " + noteColumns

	var n domain.Note
	if err := scanNote(s.db.QueryRow(ctx, sql, b.Args()...), &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, unavailable("update note", err)
	}
	return &n, nil
}

// SoftDeleteNote marks a live note deleted.
func (s *Store) SoftDeleteNote(ctx context.Context, id int64) error {
	timer := metrics.TrackDB("delete")
	defer timer.ObserveDuration()

	tag, err := s.db.Exec(ctx,
		"UPDATE notes SET deleted_at = now(), updated_at = now() WHERE id = $1 AND deleted_at IS NULL",
		id)
	if err != nil {
		return unavailable("delete note", err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// RestoreNote clears the deletion mark of a soft-deleted note.
func (s *Store) RestoreNote(ctx context.Context, id int64) (*domain.Note, error) {
	timer := metrics.TrackDB("restore")
	defer timer.ObserveDuration()

	var n domain.Note
	row := s.db.QueryRow(ctx,
		"UPDATE notes SET deleted_at = NULL, updated_at = now() WHERE id = $1 AND deleted_at IS NOT NULL RETURNING "+noteColumns,
		id)
	if err := scanNote(row, &n); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, unavailable("restore note", err)
	}
	return &n, nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.db.Close()
}
