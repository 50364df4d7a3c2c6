package query

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"
)

// Position is the keyset position of the last row of a page.
type Position struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	ID        int64
	// OrderKey is the ordering the position was taken under. Empty for
	// legacy tokens that predate ordering-bound cursors.
	OrderKey string
}

const cursorSep = "|"

// EncodeCursor returns the opaque token for p: base64url (unpadded) of
// "created_at|updated_at|id", with "|order" appended when p.OrderKey is set.
// Timestamps keep nanosecond precision so keyset comparison is exact.
func EncodeCursor(p Position) string {
	fields := []string{
		p.CreatedAt.UTC().Format(time.RFC3339Nano),
		p.UpdatedAt.UTC().Format(time.RFC3339Nano),
		strconv.FormatInt(p.ID, 10),
	}
	if p.OrderKey != "" {
		fields = append(fields, p.OrderKey)
	}
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(fields, cursorSep)))
}

// DecodeCursor parses a token. It never fails loudly: anything malformed,
// truncated or empty yields ok=false and is treated as "no cursor".
//
// Accepted layouts:
//
//	created_at|updated_at|id|order   current
//	created_at|updated_at|id         order-less
//	timestamp|id                     legacy; both timestamps take the same value
func DecodeCursor(token string) (Position, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Position{}, false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(token, "="))
	if err != nil {
		return Position{}, false
	}
	parts := strings.Split(string(raw), cursorSep)

	var p Position
	switch len(parts) {
	case 4:
		if !validOrderKey(parts[3]) {
			return Position{}, false
		}
		p.OrderKey = parts[3]
		fallthrough
	case 3:
		c, ok1 := parseCursorTime(parts[0])
		u, ok2 := parseCursorTime(parts[1])
		id, ok3 := parseCursorID(parts[2])
		if !ok1 || !ok2 || !ok3 {
			return Position{}, false
		}
		p.CreatedAt, p.UpdatedAt, p.ID = c, u, id
	case 2:
		ts, ok1 := parseCursorTime(parts[0])
		id, ok2 := parseCursorID(parts[1])
		if !ok1 || !ok2 {
			return Position{}, false
		}
		p.CreatedAt, p.UpdatedAt, p.ID = ts, ts, id
	default:
		return Position{}, false
	}
	return p, true
}

func parseCursorTime(s string) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func parseCursorID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func validOrderKey(k string) bool {
	if k == rankKey {
		return true
	}
	for _, f := range []OrderField{OrderByID, OrderByCreatedAt, OrderByUpdatedAt} {
		for _, d := range []Direction{Asc, Desc} {
			if k == (Order{Field: f, Direction: d}).Key() {
				return true
			}
		}
	}
	return false
}
