package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/notekeep/notekeep-server/internal/auth"
	"github.com/notekeep/notekeep-server/internal/cache"
	"github.com/notekeep/notekeep-server/internal/domain"
	"github.com/notekeep/notekeep-server/internal/errors"
	"github.com/notekeep/notekeep-server/internal/metrics"
	"github.com/notekeep/notekeep-server/internal/query"
	"github.com/notekeep/notekeep-server/internal/store"
	"github.com/notekeep/notekeep-server/internal/validation"
)

// NoteService compiles listing requests and orchestrates note mutations.
// Scope checks happen before a call reaches the service; the scopes passed in
// only decide admin-only options such as include_deleted.
type NoteService struct {
	store     store.Store
	counts    cache.CountCache
	validator *validation.Validator
	logger    *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(st store.Store, counts cache.CountCache, v *validation.Validator, logger *slog.Logger) *NoteService {
	if counts == nil {
		counts = cache.Noop{}
	}
	return &NoteService{
		store:     st,
		counts:    counts,
		validator: v,
		logger:    logger,
	}
}

// ListResult is one page of notes.
type ListResult struct {
	Notes []domain.RankedNote
	// NextCursor continues the listing; empty on the last page or when the
	// page cannot be continued by cursor.
	NextCursor   string
	RankDisabled bool
	// Empty is set instead of Notes when nothing matched.
	Empty *ZeroResult
}

// ExportResult is the row set of a CSV export.
type ExportResult struct {
	Notes          []domain.RankedNote
	Ranked         bool
	IncludeDeleted bool
	RankDisabled   bool
}

func (s *NoteService) compile(p query.Params, scopes auth.Scopes, limits query.Limits, export bool) (*query.Filter, *query.Statement, query.Rank, error) {
	f, err := query.Compile(p, scopes.Has(auth.ScopeAdmin))
	if err != nil {
		return nil, nil, query.Rank{}, err
	}
	rank := query.ParseRank(p)
	st, err := query.Assemble(query.Request{
		Filter: f,
		Order:  query.ParseOrder(p.OrderBy, p.Order),
		Rank:   rank,
		Page:   query.ParsePage(p, limits),
		Export: export,
	})
	if err != nil {
		return nil, nil, query.Rank{}, err
	}
	return f, st, rank, nil
}

// List returns one page of notes matching p.
func (s *NoteService) List(ctx context.Context, scopes auth.Scopes, p query.Params) (*ListResult, error) {
	f, st, rank, err := s.compile(p, scopes, query.ListLimits, false)
	if err != nil {
		return nil, err
	}

	notes, err := s.store.ListNotes(ctx, st)
	if err != nil {
		return nil, s.storeError("list notes", err)
	}
	metrics.TrackNoteOperation("list")

	res := &ListResult{RankDisabled: f.RankDisabled}
	if len(notes) == 0 {
		res.Empty = NewZeroResult(f, rank, st)
		return res, nil
	}

	last := notes[len(notes)-1]
	res.Notes = notes
	res.NextCursor = st.NextCursor(len(notes), query.Position{
		CreatedAt: last.CreatedAt,
		UpdatedAt: last.UpdatedAt,
		ID:        last.ID,
	})
	return res, nil
}

// Count returns how many notes match the filter in p. Paging and ranking
// parameters are ignored.
func (s *NoteService) Count(ctx context.Context, scopes auth.Scopes, p query.Params) (int64, error) {
	f, err := query.Compile(p, scopes.Has(auth.ScopeAdmin))
	if err != nil {
		return 0, err
	}
	cs := query.AssembleCount(f)

	total, key, ok := s.counts.Get(ctx, cs)
	if ok {
		return total, nil
	}
	total, err = s.store.CountNotes(ctx, cs)
	if err != nil {
		return 0, s.storeError("count notes", err)
	}
	s.counts.Set(ctx, key, total)
	metrics.TrackNoteOperation("count")
	return total, nil
}

// Export returns up to the export limit of notes matching p, ignoring
// cursors and offsets.
func (s *NoteService) Export(ctx context.Context, scopes auth.Scopes, p query.Params) (*ExportResult, error) {
	f, st, _, err := s.compile(p, scopes, query.ExportLimits, true)
	if err != nil {
		return nil, err
	}
	notes, err := s.store.ListNotes(ctx, st)
	if err != nil {
		return nil, s.storeError("export notes", err)
	}
	metrics.TrackNoteOperation("export")

	return &ExportResult{
		Notes:          notes,
		Ranked:         st.Ranked,
		IncludeDeleted: f.IncludeDeleted,
		RankDisabled:   f.RankDisabled,
	}, nil
}

// NoteInput is a create or update payload. Nil fields were absent from the request.
type NoteInput struct {
	Content *string
	Tags    *[]string
}

// Create validates in and stores a new note. Both fields are required.
func (s *NoteService) Create(ctx context.Context, in NoteInput) (*domain.Note, error) {
	var rawContent string
	if in.Content != nil {
		rawContent = *in.Content
	}
	content, err := s.validator.Content(rawContent)
	if err != nil {
		return nil, err
	}
	var rawTags []string
	if in.Tags != nil {
		rawTags = *in.Tags
	}
	tags, err := s.validator.Tags(rawTags)
	if err != nil {
		return nil, err
	}

	note, err := s.store.CreateNote(ctx, content, tags)
	if err != nil {
		return nil, s.storeError("create note", err)
	}
	s.counts.Invalidate(ctx)
	metrics.TrackNoteOperation("create")

	s.logger.Info("note created", "id", note.ID, "tags", len(note.Tags))
	return note, nil
}

// Update changes the fields present in in on a live note.
func (s *NoteService) Update(ctx context.Context, rawID string, in NoteInput) (*domain.Note, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}

	var patch domain.NotePatch
	if in.Content != nil {
		content, err := s.validator.Content(*in.Content)
		if err != nil {
			return nil, err
		}
		patch.Content = &content
	}
	if in.Tags != nil {
		tags, err := s.validator.Tags(*in.Tags)
		if err != nil {
			return nil, err
		}
		patch.Tags = tags
	}
	if patch.IsEmpty() {
		return nil, errors.Validation("nothing to update")
	}

	note, err := s.store.UpdateNote(ctx, id, patch)
	if err != nil {
		return nil, s.storeError("update note", err)
	}
	s.counts.Invalidate(ctx)
	metrics.TrackNoteOperation("update")

	s.logger.Info("note updated", "id", id)
	return note, nil
}

// Delete soft-deletes a live note.
func (s *NoteService) Delete(ctx context.Context, rawID string) error {
	id, err := ParseID(rawID)
	if err != nil {
		return err
	}
	if err := s.store.SoftDeleteNote(ctx, id); err != nil {
		return s.storeError("delete note", err)
	}
	s.counts.Invalidate(ctx)
	metrics.TrackNoteOperation("delete")

	s.logger.Info("soft-delete", "id", id)
	return nil
}

// Restore clears the deletion mark of a soft-deleted note.
func (s *NoteService) Restore(ctx context.Context, rawID string) (*domain.Note, error) {
	id, err := ParseID(rawID)
	if err != nil {
		return nil, err
	}
	note, err := s.store.RestoreNote(ctx, id)
	if err != nil {
		return nil, s.storeError("restore note", err)
	}
	s.counts.Invalidate(ctx)
	metrics.TrackNoteOperation("restore")

	s.logger.Info("restore", "id", id)
	return note, nil
}

// Ping reports whether the store is reachable.
func (s *NoteService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ParseID reads a note id path parameter. Only positive integers are valid.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidField("id", "invalid id")
	}
	return id, nil
}

// storeError maps a store failure to a domain error. Anything but a missing
// row is logged and hidden from the caller.
func (s *NoteService) storeError(op string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errors.NotFound("not found")
	}
	s.logger.Error(op+" failed", "error", err)
	return errors.Wrap(err, errors.CodeInternal, "Internal Server Error")
}
