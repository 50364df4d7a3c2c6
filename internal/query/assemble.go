package query

import (
	stderrors "errors"
	"math"
	"strconv"
	"strings"

	"github.com/notekeep/notekeep-server/internal/errors"
)

// Table is the notes relation every statement reads from.
const Table = "notes"

// Limits bounds a page size.
type Limits struct {
	Default int
	Max     int
}

// Page size bounds for listings and CSV exports.
//
//nolint:gochecknoglobals // Immutable limits
var (
	ListLimits   = Limits{Default: 50, Max: 100}
	ExportLimits = Limits{Default: 1000, Max: 10000}
)

// Clamp parses raw as a page size, substituting the default for anything
// that is not an integer and clamping the result to [1, Max]. Integers too
// large for an int clamp by sign.
func (l Limits) Clamp(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil && !isRangeError(err) {
		n = l.Default
	}
	return max(1, min(l.Max, n))
}

// isRangeError reports whether a strconv failure was only an overflow. The
// parsed value is then saturated to the nearest representable int.
func isRangeError(err error) bool {
	var ne *strconv.NumError
	return stderrors.As(err, &ne) && ne.Err == strconv.ErrRange
}

// Page is parsed pagination input.
type Page struct {
	Limit int
	// Offset is honored only when HasOffset is set. An explicit offset
	// always wins over a cursor.
	Offset    int
	HasOffset bool
	Cursor    *Position
}

// ParsePage reads limit, offset and cursor. An offset counts as explicit when
// it is a non-negative integer. Malformed cursors are dropped.
func ParsePage(p Params, limits Limits) Page {
	page := Page{Limit: limits.Clamp(p.Limit)}
	if off, err := strconv.Atoi(strings.TrimSpace(p.Offset)); err == nil && off >= 0 {
		page.Offset, page.HasOffset = off, true
	}
	if pos, ok := DecodeCursor(p.Cursor); ok {
		page.Cursor = &pos
	}
	return page
}

// Rank is the similarity ranking request.
type Rank struct {
	Requested bool
	Min       *float64
}

// ParseRank reads rank ("1" or "true") and rank_min (any finite number).
func ParseRank(p Params) Rank {
	r := Rank{}
	switch strings.ToLower(strings.TrimSpace(p.Rank)) {
	case "1", "true":
		r.Requested = true
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(p.RankMin), 64); err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		r.Min = &v
	}
	return r
}

// Request is everything needed to assemble a listing or export statement.
type Request struct {
	Filter *Filter
	Order  Order
	Rank   Rank
	Page   Page
	// Export disables cursor and offset paging.
	Export bool
}

// Statement is an assembled, fully parameterized SELECT.
type Statement struct {
	Columns    []string
	Predicates []string
	OrderBy    string
	Args       []any

	limit  string
	offset string

	// Ranked is set when rows are ordered by similarity and carry _rank.
	Ranked bool
	// CursorApplied is set when a keyset predicate was added.
	CursorApplied bool
	// Limit is the clamped page size.
	Limit int
	// OrderKey identifies the effective ordering for cursor binding.
	OrderKey string
	// Order is the column ordering. It does not apply when Ranked.
	Order Order
	// After is the keyset position rows start after, when CursorApplied.
	After *Position
	// EmitsCursor is set when a full page may hand out X-Next-Cursor.
	EmitsCursor bool
}

// SQL renders the statement.
func (s *Statement) SQL() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(s.Columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(Table)
	if len(s.Predicates) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(s.Predicates, " AND "))
	}
	if s.OrderBy != "" {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(s.OrderBy)
	}
	if s.limit != "" {
		sb.WriteString(" LIMIT ")
		sb.WriteString(s.limit)
	}
	if s.offset != "" {
		sb.WriteString(" OFFSET ")
		sb.WriteString(s.offset)
	}
	return sb.String()
}

// NoteColumns is the column list of a listing row.
//
//nolint:gochecknoglobals // Immutable column list
var NoteColumns = []string{"id", "content", "tags", "created_at", "updated_at", "deleted_at"}

// Assemble combines the compiled filter with ranking, keyset pagination and
// ordering into one statement.
//
// Similarity ranking, when requested and possible, replaces the requested
// ordering with (rank DESC, id DESC). rank_min applies whenever similarity
// can be computed, ranked or not. A cursor is only honored without an explicit
// offset, and a cursor bound to a different ordering is rejected.
func Assemble(req Request) (*Statement, error) {
	f := req.Filter
	b := NewBuilder()
	b.Merge(f.Predicates())

	st := &Statement{Limit: req.Page.Limit}

	var similarity Fragment
	if f.Similarity() {
		q := b.Bind(f.Text)
		similarity = Frag("similarity(content, ", q, ")")
		if req.Rank.Min != nil {
			b.Where(similarity, " >= ", b.Bind(*req.Rank.Min))
		}
		st.Ranked = req.Rank.Requested
	}

	order := req.Order
	st.Order = order
	st.OrderKey = order.Key()
	if st.Ranked {
		st.OrderKey = rankKey
	}

	if !req.Export && !req.Page.HasOffset && req.Page.Cursor != nil {
		cur := req.Page.Cursor
		if cur.OrderKey != "" && cur.OrderKey != st.OrderKey {
			return nil, errors.InvalidField("cursor", "cursor does not match the requested ordering")
		}
		// Ranked pages have no keyset; order-less legacy cursors are dropped there.
		if !st.Ranked {
			b.WhereFrag(keysetPredicate(b, order, cur))
			st.CursorApplied = true
			st.After = cur
		}
	}

	st.Columns = append([]string{}, NoteColumns...)
	if st.Ranked {
		st.Columns = append(st.Columns, b.Render(similarity)+" AS _rank")
		st.OrderBy = b.Render(similarity) + " DESC, id DESC"
	} else {
		st.OrderBy = order.clause()
	}

	st.Predicates = b.Predicates()
	st.limit = b.Render(Frag(b.Bind(req.Page.Limit)))
	if !req.Export && req.Page.HasOffset && req.Page.Offset > 0 {
		st.offset = b.Render(Frag(b.Bind(req.Page.Offset)))
	}
	st.Args = b.Args()
	st.EmitsCursor = !req.Export && !req.Page.HasOffset && !st.Ranked
	return st, nil
}

// keysetPredicate restricts rows to those strictly after cur in order.
func keysetPredicate(b *Builder, order Order, cur *Position) Fragment {
	cmp := " " + order.comparator() + " "
	switch order.Field {
	case OrderByCreatedAt:
		return Frag("(created_at, id)", cmp, "(", b.Bind(cur.CreatedAt), "::timestamptz, ", b.Bind(cur.ID), "::bigint)")
	case OrderByUpdatedAt:
		return Frag("(updated_at, id)", cmp, "(", b.Bind(cur.UpdatedAt), "::timestamptz, ", b.Bind(cur.ID), "::bigint)")
	default:
		return Frag("id", cmp, b.Bind(cur.ID))
	}
}

// CountStatement is an assembled COUNT over the filter alone.
type CountStatement struct {
	SQL  string
	Args []any
}

// AssembleCount counts the rows matching f. Ranking, cursors and paging do not apply.
func AssembleCount(f *Filter) *CountStatement {
	b := NewBuilder()
	b.Merge(f.Predicates())
	sql := "SELECT count(*) FROM " + Table
	if where := b.WhereClause(); where != "" {
		sql += " " + where
	}
	return &CountStatement{SQL: sql, Args: b.Args()}
}

// NextCursor returns the token for the page ending at last, or "" when the
// page is short or the statement cannot be continued by cursor.
func (s *Statement) NextCursor(rows int, last Position) string {
	if !s.EmitsCursor || rows < s.Limit || rows == 0 {
		return ""
	}
	last.OrderKey = s.OrderKey
	return EncodeCursor(last)
}
