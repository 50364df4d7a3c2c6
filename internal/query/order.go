package query

import (
	"cmp"
	"strings"
)

// OrderField is a sortable note column.
type OrderField string

// Sortable fields.
const (
	OrderByID        OrderField = "id"
	OrderByCreatedAt OrderField = "created_at"
	OrderByUpdatedAt OrderField = "updated_at"
)

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// Order is the requested column ordering. Ranking, when active, overrides it.
type Order struct {
	Field     OrderField
	Direction Direction
}

// DefaultOrder is newest first by id.
var DefaultOrder = Order{Field: OrderByID, Direction: Desc} //nolint:gochecknoglobals // Immutable default

// ParseOrder reads order_by and order case-insensitively; unknown values fall back to the defaults.
func ParseOrder(orderBy, direction string) Order {
	o := DefaultOrder
	switch OrderField(strings.ToLower(strings.TrimSpace(orderBy))) {
	case OrderByCreatedAt:
		o.Field = OrderByCreatedAt
	case OrderByUpdatedAt:
		o.Field = OrderByUpdatedAt
	}
	if Direction(strings.ToLower(strings.TrimSpace(direction))) == Asc {
		o.Direction = Asc
	}
	return o
}

// Key identifies the ordering inside a cursor, e.g. "created_at:asc".
func (o Order) Key() string {
	return string(o.Field) + ":" + string(o.Direction)
}

// Label is the echo form used in zero-result payloads, e.g. "created_at_asc".
func (o Order) Label() string {
	return string(o.Field) + "_" + string(o.Direction)
}

// clause renders the ORDER BY list with id as the final tiebreak.
func (o Order) clause() string {
	dir := strings.ToUpper(string(o.Direction))
	if o.Field == OrderByID {
		return "id " + dir
	}
	return string(o.Field) + " " + dir + ", id " + dir
}

// comparator is the keyset operator for rows strictly after the cursor.
func (o Order) comparator() string {
	if o.Direction == Asc {
		return ">"
	}
	return "<"
}

// Precedes reports whether a sorts strictly before b, with id as the final
// tiebreak. It is the in-memory form of the keyset predicate.
func (o Order) Precedes(a, b Position) bool {
	c := 0
	switch o.Field {
	case OrderByCreatedAt:
		c = a.CreatedAt.Compare(b.CreatedAt)
	case OrderByUpdatedAt:
		c = a.UpdatedAt.Compare(b.UpdatedAt)
	}
	if c == 0 {
		c = cmp.Compare(a.ID, b.ID)
	}
	if o.Direction == Desc {
		c = -c
	}
	return c < 0
}

// rankKey is the ordering key for similarity ranking. It never matches a column ordering.
const rankKey = "rank:desc"

// RankLabel is the echo form of similarity ordering.
const RankLabel = "rank_desc_id"
