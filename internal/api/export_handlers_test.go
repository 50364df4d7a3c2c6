package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekeep/notekeep-server/internal/export"
)

func TestExportNotes(t *testing.T) {
	ts := setupTestServer(t)
	ts.store.seed("first, with comma", "a", "b")
	ts.store.seed(`say "hi"`, "c")

	for _, path := range []string{"/export.csv", "/notes/export.csv"} {
		t.Run(path, func(t *testing.T) {
			resp := ts.api.Get(path, exportAuth)
			require.Equal(t, http.StatusOK, resp.Code)

			assert.Equal(t, export.ContentType, resp.Header().Get("Content-Type"))
			assert.Equal(t, `attachment; filename="notes_export.csv"`, resp.Header().Get("Content-Disposition"))

			body := resp.Body.String()
			require.True(t, strings.HasPrefix(body, "\ufeff"), "missing byte order mark")

			lines := strings.Split(strings.TrimSuffix(strings.TrimPrefix(body, "\ufeff"), "\r\n"), "\r\n")
			require.Len(t, lines, 3)
			assert.Equal(t, "id,content,tags,created_at_jst,updated_at_jst", lines[0])
			assert.True(t, strings.HasPrefix(lines[1], `"2","say ""hi""","c",`))
			assert.True(t, strings.HasPrefix(lines[2], `"1","first, with comma","a,b",`))
		})
	}
}

func TestExportNotes_RequiresExportScope(t *testing.T) {
	ts := setupTestServer(t)

	for _, header := range []string{readAuth, adminAuth} {
		resp := ts.api.Get("/export.csv", header)

		require.Equal(t, http.StatusForbidden, resp.Code)
		assert.Equal(t, "export", decodeError(t, resp.Body.Bytes()).detail("required_scope"))
	}

	resp := ts.api.Get("/export.csv")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestExportNotes_IncludeDeletedIgnoredWithoutAdmin(t *testing.T) {
	ts := setupTestServer(t)
	ts.store.seed("x", "a")

	resp := ts.api.Get("/export.csv?include_deleted=true", exportAuth)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.NotContains(t, resp.Body.String(), "deleted_at_jst")
}

func TestExportNotes_UsesExportLimits(t *testing.T) {
	ts := setupTestServer(t)

	resp := ts.api.Get("/export.csv?limit=50000&cursor=abc&offset=3", exportAuth)
	require.Equal(t, http.StatusOK, resp.Code)

	st := ts.store.listed[len(ts.store.listed)-1]
	assert.Equal(t, 10000, st.Limit)
	assert.False(t, st.CursorApplied)
}
