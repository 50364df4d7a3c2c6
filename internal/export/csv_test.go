package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notekeep/notekeep-server/internal/domain"
)

func sampleNotes() []domain.RankedNote {
	created := time.Date(2025, 1, 31, 15, 30, 0, 0, time.UTC)
	deleted := created.Add(time.Hour)
	rank := 0.5
	return []domain.RankedNote{
		{Note: domain.Note{ID: 1, Content: `say "hi", then leave`, Tags: []string{"go", "db"}, CreatedAt: created, UpdatedAt: created}, Rank: &rank},
		{Note: domain.Note{ID: 2, Content: "line one\nline two", Tags: []string{}, CreatedAt: created, UpdatedAt: created, DeletedAt: &deleted}},
	}
}

func TestWrite_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleNotes()[:1], Options{}))

	out := buf.String()
	require.True(t, strings.HasPrefix(out, "\ufeff"))
	assert.Equal(t,
		"\ufeffid,content,tags,created_at_jst,updated_at_jst\r\n"+
			`"1","say ""hi"", then leave","go,db","2025/02/01 00:30:00","2025/02/01 00:30:00"`,
		out)
}

func TestWrite_OptionalColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleNotes(), Options{IncludeDeleted: true, Ranked: true}))

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(buf.String(), "\ufeff")))
	records, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"id", "content", "tags", "created_at_jst", "updated_at_jst", "deleted_at_jst", "_rank"}, records[0])
	assert.Equal(t, "", records[1][5])
	assert.Equal(t, "0.5", records[1][6])
	assert.Equal(t, "line one\nline two", records[2][1])
	assert.Equal(t, "2025/02/01 01:30:00", records[2][5])
	assert.Equal(t, "", records[2][6])
}

func TestWrite_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil, Options{Ranked: true}))
	assert.Equal(t, "\ufeffid,content,tags,created_at_jst,updated_at_jst,_rank", buf.String())
}

func TestFormatTime(t *testing.T) {
	assert.Empty(t, FormatTime(nil))
	ts := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "2025/01/01 05:00:00", FormatTime(&ts))
}
