package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTagClause_Exact(t *testing.T) {
	tests := []struct {
		mode TagMode
		want string
	}{
		{TagAll, "tags @> $1::text[]"},
		{TagAny, "tags && $1::text[]"},
		{TagNone, "NOT (tags && $1::text[])"},
	}

	for _, tt := range tests {
		t.Run(tt.mode.String(), func(t *testing.T) {
			b := NewBuilder()
			f := TagClause{Mode: tt.mode, Match: MatchExact, Tags: []string{"work", "ideas"}}.fragment(b)

			assert.Equal(t, tt.want, b.Render(f))
			assert.Equal(t, []any{[]string{"work", "ideas"}}, b.Args())
		})
	}
}

func TestTagClause_Partial(t *testing.T) {
	b := NewBuilder()
	f := TagClause{Mode: TagAny, Match: MatchPartial, Tags: []string{"wo", "50%"}}.fragment(b)

	assert.Equal(t,
		"(EXISTS (SELECT 1 FROM unnest(tags) AS t(tag) WHERE t.tag ILIKE $1) OR "+
			"EXISTS (SELECT 1 FROM unnest(tags) AS t(tag) WHERE t.tag ILIKE $2))",
		b.Render(f))
	assert.Equal(t, []any{"%wo%", `%50\%%`}, b.Args())
}

func TestTagClause_PartialNone(t *testing.T) {
	b := NewBuilder()
	f := TagClause{Mode: TagNone, Match: MatchPartial, Tags: []string{"a_b"}}.fragment(b)

	assert.Equal(t, "NOT EXISTS (SELECT 1 FROM unnest(tags) AS t(tag) WHERE t.tag ILIKE $1)", b.Render(f))
	assert.Equal(t, []any{`%a\_b%`}, b.Args())
}

func TestTagClause_EmptyIsZero(t *testing.T) {
	b := NewBuilder()

	assert.True(t, TagClause{Mode: TagAll}.fragment(b).IsZero())
	assert.Empty(t, b.Args())
}

func TestParseTagMatch(t *testing.T) {
	assert.Equal(t, MatchPartial, ParseTagMatch(" Partial "))
	assert.Equal(t, MatchExact, ParseTagMatch("exact"))
	assert.Equal(t, MatchExact, ParseTagMatch("fuzzy"))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\%\_off\\`, escapeLike(`100%_off\`))
}
