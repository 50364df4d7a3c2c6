package query

import "strings"

// TagMode selects how a clause's tags combine.
type TagMode int

// Tag clause modes.
const (
	TagAll  TagMode = iota // note carries every tag
	TagAny                 // note carries at least one tag
	TagNone                // note carries none of the tags
)

func (m TagMode) String() string {
	switch m {
	case TagAll:
		return "all"
	case TagAny:
		return "any"
	case TagNone:
		return "none"
	default:
		return "unknown"
	}
}

// TagMatch selects how a single tag is compared against stored tags.
type TagMatch int

// Tag match kinds.
const (
	MatchExact   TagMatch = iota // array containment / overlap
	MatchPartial                 // case-insensitive substring of any stored tag
)

func (m TagMatch) String() string {
	if m == MatchPartial {
		return "partial"
	}
	return "exact"
}

// ParseTagMatch reads tags_match; only "partial" selects substring matching.
func ParseTagMatch(raw string) TagMatch {
	if strings.EqualFold(strings.TrimSpace(raw), "partial") {
		return MatchPartial
	}
	return MatchExact
}

// TagClause is one tag predicate: a mode, a match kind and normalized tags.
type TagClause struct {
	Mode  TagMode
	Match TagMatch
	Tags  []string
}

// fragment binds the clause's values on b and returns its predicate.
func (c TagClause) fragment(b *Builder) Fragment {
	if len(c.Tags) == 0 {
		return Fragment{}
	}
	switch c.Match {
	case MatchExact:
		p := b.Bind(c.Tags)
		switch c.Mode {
		case TagAll:
			return Frag("tags @> ", p, "::text[]")
		case TagAny:
			return Frag("tags && ", p, "::text[]")
		case TagNone:
			return Frag("NOT (tags && ", p, "::text[])")
		}
	case MatchPartial:
		frags := make([]Fragment, 0, len(c.Tags))
		for _, tag := range c.Tags {
			p := b.Bind(containsPattern(tag))
			exists := Frag("EXISTS (SELECT 1 FROM unnest(tags) AS t(tag) WHERE t.tag ILIKE ", p, ")")
			if c.Mode == TagNone {
				exists = Frag("NOT EXISTS (SELECT 1 FROM unnest(tags) AS t(tag) WHERE t.tag ILIKE ", p, ")")
			}
			frags = append(frags, exists)
		}
		if c.Mode == TagAny {
			return Join(" OR ", frags...)
		}
		return Join(" AND ", frags...)
	}
	return Fragment{}
}

// containsPattern turns s into an ILIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + escapeLike(s) + "%"
}

//nolint:gochecknoglobals // Static replacer
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike escapes LIKE metacharacters using the default backslash escape.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
