package query

import (
	"fmt"
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBuilder_BindAndRender(t *testing.T) {
	b := NewBuilder()
	p := b.Bind("hello")
	b.Where("content = ", p)
	b.Where("deleted_at IS NULL")
	b.Where("similarity(content, ", p, ") > 0")

	assert.Equal(t, []string{"content = $1", "deleted_at IS NULL", "similarity(content, $1) > 0"}, b.Predicates())
	assert.Equal(t, "WHERE content = $1 AND deleted_at IS NULL AND similarity(content, $1) > 0", b.WhereClause())
	assert.Equal(t, []any{"hello"}, b.Args())
}

func TestBuilder_EmptyWhereClause(t *testing.T) {
	assert.Equal(t, "", NewBuilder().WhereClause())
}

func TestBuilder_MergeRenumbers(t *testing.T) {
	src := NewBuilder()
	a := src.Bind("a")
	src.Where("x = ", a)
	c := src.Bind("c")
	src.Where("y = ", c)

	dst := NewBuilder()
	dst.Where("z = ", dst.Bind("z"))
	remap := dst.Merge(src)
	dst.Where("w = ", remap(c))

	assert.Equal(t, []string{"z = $1", "x = $2", "y = $3", "w = $3"}, dst.Predicates())
	assert.Equal(t, []any{"z", "a", "c"}, dst.Args())

	// The source is untouched.
	assert.Equal(t, []string{"x = $1", "y = $2"}, src.Predicates())
}

func TestJoin(t *testing.T) {
	b := NewBuilder()
	one := Frag("a = ", b.Bind(1))
	assert.Equal(t, "a = $1", b.Render(Join(" OR ", one)))

	two := Frag("b = ", b.Bind(2))
	assert.Equal(t, "(a = $1 OR b = $2)", b.Render(Join(" OR ", one, two)))
	assert.True(t, Join(" AND ").IsZero())
}

func TestFrag_Nested(t *testing.T) {
	b := NewBuilder()
	inner := Frag("lower(", b.Bind("X"), ")")
	assert.Equal(t, "name = lower($1)", b.Render(Frag("name = ", inner)))
}

func TestFrag_RejectsUnknownParts(t *testing.T) {
	assert.Panics(t, func() { Frag("id = ", 42) })
}

func TestRender_RejectsForeignParam(t *testing.T) {
	other := NewBuilder()
	p := other.Bind(1)
	other.Bind(2)
	foreign := Frag("id = ", Param{index: p.index + 1})

	assert.Panics(t, func() { NewBuilder().Render(foreign) })
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// Every placeholder in a merged builder points at the value bound for it.
func TestBuilder_MergePlaceholdersStayConsistent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		builders := rapid.SliceOfN(rapid.IntRange(0, 5), 1, 5).Draw(t, "sizes")

		dst := NewBuilder()
		for bi, n := range builders {
			src := NewBuilder()
			for i := 0; i < n; i++ {
				v := fmt.Sprintf("b%d-v%d", bi, i)
				src.Where("col = ", src.Bind(v))
			}
			dst.Merge(src)
		}

		args := dst.Args()
		for _, pred := range dst.Predicates() {
			m := placeholderRe.FindStringSubmatch(pred)
			require.Len(t, m, 2)
			idx, err := strconv.Atoi(m[1])
			require.NoError(t, err)
			require.GreaterOrEqual(t, idx, 1)
			require.LessOrEqual(t, idx, len(args))
		}
		// Predicates and values line up one-to-one, in order.
		require.Equal(t, len(args), dst.NumPredicates())
		for i, pred := range dst.Predicates() {
			require.Equal(t, "col = $"+strconv.Itoa(i+1), pred)
		}
	})
}
