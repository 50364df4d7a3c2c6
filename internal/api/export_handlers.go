package api

import (
	"bytes"
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/notekeep/notekeep-server/internal/auth"
	domainerrors "github.com/notekeep/notekeep-server/internal/errors"
	"github.com/notekeep/notekeep-server/internal/export"
)

func (s *Server) registerExportRoutes() {
	for _, path := range []string{"/export.csv", "/notes/export.csv"} {
		id := "exportNotes"
		if path != "/export.csv" {
			id = "exportNotesNested"
		}
		huma.Register(s.api, huma.Operation{
			OperationID: id,
			Method:      http.MethodGet,
			Path:        path,
			Summary:     "Export notes as CSV",
			Description: "Downloads notes matching the filter as CSV. Requires the export scope.",
			Tags:        []string{"Export"},
			Security:    []map[string][]string{{"bearer": {}}},
			Responses: map[string]*huma.Response{
				"200": {
					Description: "CSV document",
					Content: map[string]*huma.MediaType{
						"text/csv": {},
					},
				},
			},
		}, s.handleExportNotes)
	}
}

// ExportOutput is the CSV download.
type ExportOutput struct {
	ContentType        string `header:"Content-Type"`
	ContentDisposition string `header:"Content-Disposition"`
	CacheControl       string `header:"Cache-Control"`
	RankDisabled       string `header:"X-Rank-Disabled"`
	Body               []byte
}

func (s *Server) handleExportNotes(ctx context.Context, input *NotesQueryInput) (*ExportOutput, error) {
	scopes, err := s.requireScope(ctx, auth.ScopeExport)
	if err != nil {
		return nil, err
	}

	res, err := s.notes.Export(ctx, scopes, input.params())
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	opts := export.Options{IncludeDeleted: res.IncludeDeleted, Ranked: res.Ranked}
	if err := export.Write(&buf, res.Notes, opts); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to render export")
	}

	out := &ExportOutput{
		ContentType:        export.ContentType,
		ContentDisposition: `attachment; filename="` + export.Filename + `"`,
		CacheControl:       CacheNoStore,
		Body:               buf.Bytes(),
	}
	if res.RankDisabled {
		out.RankDisabled = "1"
	}
	return out, nil
}
