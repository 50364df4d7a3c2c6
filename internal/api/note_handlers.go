package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/notekeep/notekeep-server/internal/auth"
	"github.com/notekeep/notekeep-server/internal/domain"
	"github.com/notekeep/notekeep-server/internal/query"
	"github.com/notekeep/notekeep-server/internal/service"
)

func (s *Server) registerNoteRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listNotes",
		Method:      http.MethodGet,
		Path:        "/notes",
		Summary:     "List notes",
		Description: "Returns notes matching the filter, one page at a time. Requires the read scope.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListNotes)

	huma.Register(s.api, huma.Operation{
		OperationID: "countNotes",
		Method:      http.MethodGet,
		Path:        "/notes/count",
		Summary:     "Count notes",
		Description: "Returns how many notes match the filter. Requires the read scope.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCountNotes)

	huma.Register(s.api, huma.Operation{
		OperationID:   "createNote",
		Method:        http.MethodPost,
		Path:          "/notes",
		Summary:       "Create note",
		Description:   "Creates a note. Requires the admin scope.",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleCreateNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateNote",
		Method:      http.MethodPatch,
		Path:        "/notes/{id}",
		Summary:     "Update note",
		Description: "Changes the content and/or tags of a live note. Requires the admin scope.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateNote)

	huma.Register(s.api, huma.Operation{
		OperationID:   "deleteNote",
		Method:        http.MethodDelete,
		Path:          "/notes/{id}",
		Summary:       "Delete note",
		Description:   "Soft-deletes a live note. Requires the admin scope.",
		Tags:          []string{"Notes"},
		DefaultStatus: http.StatusNoContent,
		Security:      []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteNote)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreNote",
		Method:      http.MethodPost,
		Path:        "/notes/{id}/restore",
		Summary:     "Restore note",
		Description: "Clears the deletion mark of a soft-deleted note. Requires the admin scope.",
		Tags:        []string{"Notes"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRestoreNote)
}

// === DTOs ===

// NotesQueryInput carries the filter, ordering, ranking and paging
// parameters. Values are taken verbatim; malformed optional values fall back
// to their defaults rather than failing the request.
type NotesQueryInput struct {
	Q              string `query:"q" doc:"Text to match against note content"`
	QMode          string `query:"q_mode" doc:"exact, partial (default) or trgm"`
	TagsAll        string `query:"tags_all" doc:"Comma-separated tags that must all be present"`
	TagsAny        string `query:"tags_any" doc:"Comma-separated tags of which one must be present"`
	TagsNone       string `query:"tags_none" doc:"Comma-separated tags that must be absent"`
	TagsMatch      string `query:"tags_match" doc:"exact (default) or partial"`
	Tags           string `query:"tags" doc:"Legacy comma-separated tag filter"`
	TagsMode       string `query:"tags_mode" doc:"Legacy tag mode: all (default) or any"`
	From           string `query:"from" doc:"Earliest created_at (ISO 8601)"`
	To             string `query:"to" doc:"Latest created_at (ISO 8601)"`
	IncludeDeleted string `query:"include_deleted" doc:"true to include soft-deleted notes (admin only)"`
	OrderBy        string `query:"order_by" doc:"id (default), created_at or updated_at"`
	Order          string `query:"order" doc:"asc or desc (default)"`
	Limit          string `query:"limit" doc:"Page size"`
	Offset         string `query:"offset" doc:"Rows to skip; disables cursor paging"`
	Cursor         string `query:"cursor" doc:"Continuation token from X-Next-Cursor"`
	Rank           string `query:"rank" doc:"1 or true to order by similarity"`
	RankMin        string `query:"rank_min" doc:"Minimum similarity"`
}

func (in *NotesQueryInput) params() query.Params {
	return query.Params{
		Q:              in.Q,
		QMode:          in.QMode,
		TagsAll:        in.TagsAll,
		TagsAny:        in.TagsAny,
		TagsNone:       in.TagsNone,
		TagsMatch:      in.TagsMatch,
		Tags:           in.Tags,
		TagsMode:       in.TagsMode,
		From:           in.From,
		To:             in.To,
		IncludeDeleted: in.IncludeDeleted,
		OrderBy:        in.OrderBy,
		Order:          in.Order,
		Limit:          in.Limit,
		Offset:         in.Offset,
		Cursor:         in.Cursor,
		Rank:           in.Rank,
		RankMin:        in.RankMin,
	}
}

// ListNotesOutput is a page of notes, or the zero-result payload when
// nothing matched.
type ListNotesOutput struct {
	CacheControl string `header:"Cache-Control"`
	NextCursor   string `header:"X-Next-Cursor" doc:"Token for the next page"`
	RankDisabled string `header:"X-Rank-Disabled" doc:"1 when the query is too short for similarity"`
	Body         any
}

// CountResponse contains the number of matching notes.
type CountResponse struct {
	Total int64 `json:"total" doc:"Number of matching notes"`
}

// CountOutput wraps the count response for Huma.
type CountOutput struct {
	Body CountResponse
}

// NoteRequest is the body for creating or updating a note. On update,
// absent fields are left unchanged.
type NoteRequest struct {
	Content *string   `json:"content,omitempty" doc:"Note text, 1 to 2000 characters after trimming"`
	Tags    *[]string `json:"tags,omitempty" doc:"1 to 8 tags of up to 32 characters"`
}

// CreateNoteInput wraps the create note request for Huma.
type CreateNoteInput struct {
	Body NoteRequest
}

// UpdateNoteInput wraps the update note request for Huma.
type UpdateNoteInput struct {
	ID   string `path:"id" doc:"Note ID"`
	Body NoteRequest
}

// NoteIDInput contains the note ID path parameter.
type NoteIDInput struct {
	ID string `path:"id" doc:"Note ID"`
}

// NoteOutput wraps a note for Huma.
type NoteOutput struct {
	Body *domain.Note
}

// === Handlers ===

func (s *Server) handleListNotes(ctx context.Context, input *NotesQueryInput) (*ListNotesOutput, error) {
	scopes, err := s.requireScope(ctx, auth.ScopeRead)
	if err != nil {
		return nil, err
	}

	res, err := s.notes.List(ctx, scopes, input.params())
	if err != nil {
		return nil, err
	}

	out := &ListNotesOutput{CacheControl: CacheNoStore, NextCursor: res.NextCursor}
	if res.RankDisabled {
		out.RankDisabled = "1"
	}
	if res.Empty != nil {
		out.Body = res.Empty
	} else {
		out.Body = res.Notes
	}
	return out, nil
}

func (s *Server) handleCountNotes(ctx context.Context, input *NotesQueryInput) (*CountOutput, error) {
	scopes, err := s.requireScope(ctx, auth.ScopeRead)
	if err != nil {
		return nil, err
	}

	total, err := s.notes.Count(ctx, scopes, input.params())
	if err != nil {
		return nil, err
	}
	return &CountOutput{Body: CountResponse{Total: total}}, nil
}

func (s *Server) handleCreateNote(ctx context.Context, input *CreateNoteInput) (*NoteOutput, error) {
	if _, err := s.requireScope(ctx, auth.ScopeAdmin); err != nil {
		return nil, err
	}

	note, err := s.notes.Create(ctx, service.NoteInput{Content: input.Body.Content, Tags: input.Body.Tags})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleUpdateNote(ctx context.Context, input *UpdateNoteInput) (*NoteOutput, error) {
	if _, err := s.requireScope(ctx, auth.ScopeAdmin); err != nil {
		return nil, err
	}

	note, err := s.notes.Update(ctx, input.ID, service.NoteInput{Content: input.Body.Content, Tags: input.Body.Tags})
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: note}, nil
}

func (s *Server) handleDeleteNote(ctx context.Context, input *NoteIDInput) (*struct{}, error) {
	if _, err := s.requireScope(ctx, auth.ScopeAdmin); err != nil {
		return nil, err
	}

	if err := s.notes.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return nil, nil //nolint:nilnil // 204 No Content
}

func (s *Server) handleRestoreNote(ctx context.Context, input *NoteIDInput) (*NoteOutput, error) {
	if _, err := s.requireScope(ctx, auth.ScopeAdmin); err != nil {
		return nil, err
	}

	note, err := s.notes.Restore(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &NoteOutput{Body: note}, nil
}
