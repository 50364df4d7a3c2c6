// Package query compiles listing parameters into parameterized PostgreSQL.
//
// Every user-supplied value travels as a bound parameter. Only clause
// skeletons are assembled as text, and their placeholders are tracked by
// position so that independently built predicate sets can be merged without
// renumbering mistakes.
package query

import (
	"fmt"
	"strconv"
	"strings"
)

// Param refers to a bound value by its position within the Builder that issued it.
type Param struct {
	index int
}

// Fragment is a piece of SQL whose placeholders are Params. Parts are either
// SQL text or Params, in order.
type Fragment struct {
	parts []any
}

// Frag builds a fragment from SQL text, Params and nested Fragments. Any other
// part type is a programming error and panics.
func Frag(parts ...any) Fragment {
	out := make([]any, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case string, Param:
			out = append(out, v)
		case Fragment:
			out = append(out, v.parts...)
		default:
			panic(fmt.Sprintf("query: unsupported fragment part %T", p))
		}
	}
	return Fragment{parts: out}
}

// IsZero reports whether the fragment holds no SQL.
func (f Fragment) IsZero() bool {
	return len(f.parts) == 0
}

// shift returns a copy whose Params are moved by offset positions.
func (f Fragment) shift(offset int) Fragment {
	if offset == 0 {
		return f
	}
	out := make([]any, len(f.parts))
	for i, p := range f.parts {
		if param, ok := p.(Param); ok {
			p = Param{index: param.index + offset}
		}
		out[i] = p
	}
	return Fragment{parts: out}
}

// Join combines fragments with sep, wrapping the result in parentheses when
// more than one fragment is joined.
func Join(sep string, frags ...Fragment) Fragment {
	switch len(frags) {
	case 0:
		return Fragment{}
	case 1:
		return frags[0]
	}
	parts := []any{"("}
	for i, f := range frags {
		if i > 0 {
			parts = append(parts, sep)
		}
		parts = append(parts, f.parts...)
	}
	parts = append(parts, ")")
	return Fragment{parts: parts}
}

// Builder accumulates WHERE predicates and the values bound to them.
// The zero value is ready to use.
type Builder struct {
	args  []any
	where []Fragment
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Bind appends a value and returns its Param. A Param may be referenced any
// number of times; it always renders to the same placeholder.
func (b *Builder) Bind(v any) Param {
	b.args = append(b.args, v)
	return Param{index: len(b.args) - 1}
}

// Where appends a predicate built from SQL text and Params.
func (b *Builder) Where(parts ...any) {
	b.WhereFrag(Frag(parts...))
}

// WhereFrag appends a prebuilt predicate. Zero fragments are ignored.
func (b *Builder) WhereFrag(f Fragment) {
	if f.IsZero() {
		return
	}
	b.where = append(b.where, f)
}

// Merge appends src's values and predicates after b's own. src's Params are
// renumbered as they move, and the returned function translates any Param
// previously issued by src into its position in b.
func (b *Builder) Merge(src *Builder) func(Param) Param {
	offset := len(b.args)
	b.args = append(b.args, src.args...)
	for _, f := range src.where {
		b.where = append(b.where, f.shift(offset))
	}
	return func(p Param) Param {
		return Param{index: p.index + offset}
	}
}

// NumArgs returns the number of bound values.
func (b *Builder) NumArgs() int {
	return len(b.args)
}

// NumPredicates returns the number of WHERE predicates.
func (b *Builder) NumPredicates() int {
	return len(b.where)
}

// Args returns a copy of the bound values in placeholder order.
func (b *Builder) Args() []any {
	out := make([]any, len(b.args))
	copy(out, b.args)
	return out
}

// Render writes f with $n placeholders. It panics if f references a Param this
// builder never issued.
func (b *Builder) Render(f Fragment) string {
	var sb strings.Builder
	for _, p := range f.parts {
		switch v := p.(type) {
		case string:
			sb.WriteString(v)
		case Param:
			if v.index < 0 || v.index >= len(b.args) {
				panic(fmt.Sprintf("query: parameter %d out of range (%d bound)", v.index+1, len(b.args)))
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(v.index + 1))
		}
	}
	return sb.String()
}

// Predicates renders each WHERE predicate.
func (b *Builder) Predicates() []string {
	out := make([]string, len(b.where))
	for i, f := range b.where {
		out[i] = b.Render(f)
	}
	return out
}

// WhereClause renders "WHERE p1 AND p2 ..." or "" when there are no predicates.
func (b *Builder) WhereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(b.Predicates(), " AND ")
}
