package domain

import "time"

// Content and tag limits shared by the write path and validation messages.
const (
	MaxContentLength = 2000
	MaxTags          = 8
	MaxTagLength     = 32
)

// Note is a single record in the notes store.
// ID is assigned by the database and strictly increasing, so it doubles as the
// tiebreak for every ordering.
type Note struct {
	ID        int64      `json:"id"`
	Content   string     `json:"content"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// IsDeleted reports whether the note has been soft-deleted.
func (n *Note) IsDeleted() bool {
	return n.DeletedAt != nil
}

// RankedNote is a note returned by a similarity-ranked query.
type RankedNote struct {
	Note
	Rank *float64 `json:"_rank,omitempty"`
}

// NotePatch describes a partial update. Nil fields are left unchanged.
type NotePatch struct {
	Content *string
	Tags    []string
}

// IsEmpty reports whether the patch changes nothing.
func (p NotePatch) IsEmpty() bool {
	return p.Content == nil && p.Tags == nil
}
