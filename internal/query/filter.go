package query

import (
	"strings"
	"time"

	"github.com/notekeep/notekeep-server/internal/errors"
	"github.com/notekeep/notekeep-server/internal/normalize"
)

// Params holds the raw, untrusted listing parameters exactly as received.
type Params struct {
	Q              string
	QMode          string
	TagsAll        string
	TagsAny        string
	TagsNone       string
	TagsMatch      string
	Tags           string // legacy
	TagsMode       string // legacy
	From           string
	To             string
	IncludeDeleted string

	OrderBy string
	Order   string
	Limit   string
	Offset  string
	Cursor  string
	Rank    string
	RankMin string
}

// TextMode is how the text query is matched against note content.
type TextMode string

// Text match modes.
const (
	TextExact   TextMode = "exact"
	TextPartial TextMode = "partial"
	TextTrigram TextMode = "trgm"
)

// MinRankLength is the shortest query (in characters) for which trigram
// similarity is meaningful.
const MinRankLength = 3

// ParseTextMode reads q_mode; anything unrecognized is partial.
func ParseTextMode(raw string) TextMode {
	switch TextMode(strings.ToLower(strings.TrimSpace(raw))) {
	case TextExact:
		return TextExact
	case TextTrigram:
		return TextTrigram
	default:
		return TextPartial
	}
}

// Filter is a validated set of listing predicates.
type Filter struct {
	Text string   // trimmed query, empty when absent
	Mode TextMode // requested mode
	// RankDisabled is set when a query is present but shorter than
	// MinRankLength. Similarity is then neither filtered nor ranked on.
	RankDisabled   bool
	Tags           []TagClause
	From           *time.Time
	To             *time.Time
	IncludeDeleted bool

	preds *Builder
}

// HasText reports whether a text query is present.
func (f *Filter) HasText() bool {
	return f.Text != ""
}

// Similarity reports whether trigram similarity can be computed for this filter.
func (f *Filter) Similarity() bool {
	return f.HasText() && !f.RankDisabled
}

// EffectiveMode is the mode actually applied. Short trigram queries fall back
// to partial matching.
func (f *Filter) EffectiveMode() TextMode {
	if f.Mode == TextTrigram && f.RankDisabled {
		return TextPartial
	}
	return f.Mode
}

// Predicates returns the compiled WHERE predicates and their bound values.
// Callers merge it into a larger builder; it must not be modified.
func (f *Filter) Predicates() *Builder {
	return f.preds
}

// Compile validates p and builds the filter predicates. includeDeletedAllowed
// is true only for admin callers; for anyone else include_deleted is ignored.
// The only validation failure is an inverted date range.
func Compile(p Params, includeDeletedAllowed bool) (*Filter, error) {
	f := &Filter{
		Text: strings.TrimSpace(p.Q),
		Mode: ParseTextMode(p.QMode),
	}
	if n := normalize.Length(f.Text); n > 0 && n < MinRankLength {
		f.RankDisabled = true
	}

	match := ParseTagMatch(p.TagsMatch)
	for _, c := range []TagClause{
		{Mode: TagAll, Match: match, Tags: normalize.SplitTags(p.TagsAll)},
		{Mode: TagAny, Match: match, Tags: normalize.SplitTags(p.TagsAny)},
		{Mode: TagNone, Match: match, Tags: normalize.SplitTags(p.TagsNone)},
	} {
		if len(c.Tags) > 0 {
			f.Tags = append(f.Tags, c)
		}
	}
	if len(f.Tags) == 0 {
		if legacy := normalize.SplitTags(p.Tags); len(legacy) > 0 {
			mode := TagAll
			if strings.EqualFold(strings.TrimSpace(p.TagsMode), "any") {
				mode = TagAny
			}
			f.Tags = append(f.Tags, TagClause{Mode: mode, Match: MatchExact, Tags: legacy})
		}
	}

	f.From = ParseTime(p.From)
	f.To = ParseTime(p.To)
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return nil, errors.InvalidField("from", "from must be earlier than to")
	}

	f.IncludeDeleted = includeDeletedAllowed && strings.EqualFold(strings.TrimSpace(p.IncludeDeleted), "true")

	f.preds = f.build()
	return f, nil
}

func (f *Filter) build() *Builder {
	b := NewBuilder()

	if !f.IncludeDeleted {
		b.Where("deleted_at IS NULL")
	}

	if f.HasText() {
		switch f.EffectiveMode() {
		case TextExact:
			b.Where("content = ", b.Bind(f.Text))
		case TextTrigram:
			b.Where("content % ", b.Bind(f.Text))
		default:
			b.Where("content ILIKE ", b.Bind(containsPattern(f.Text)))
		}
	}

	for _, c := range f.Tags {
		b.WhereFrag(c.fragment(b))
	}

	if f.From != nil {
		b.Where("created_at >= ", b.Bind(*f.From))
	}
	if f.To != nil {
		b.Where("created_at <= ", b.Bind(*f.To))
	}
	return b
}

//nolint:gochecknoglobals // Static layout list
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTime parses an ISO-8601 bound. Values without a zone are read as UTC.
// Empty or unparsable input yields nil.
func ParseTime(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}
