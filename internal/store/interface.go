// Package store defines the persistence interface for notes.
package store

import (
	"context"

	"github.com/notekeep/notekeep-server/internal/domain"
	"github.com/notekeep/notekeep-server/internal/query"
)

// Store defines every persistence operation the service needs. All methods
// are safe for concurrent use and honor context cancellation.
type Store interface {
	// Reads
	ListNotes(ctx context.Context, st *query.Statement) ([]domain.RankedNote, error)
	CountNotes(ctx context.Context, st *query.CountStatement) (int64, error)

	// Mutations. Each is a single statement; the last write wins.
	CreateNote(ctx context.Context, content string, tags []string) (*domain.Note, error)
	// UpdateNote changes a live note. Deleted or missing notes yield ErrNotFound.
	UpdateNote(ctx context.Context, id int64, patch domain.NotePatch) (*domain.Note, error)
	// SoftDeleteNote marks a live note deleted. Already deleted or missing notes yield ErrNotFound.
	SoftDeleteNote(ctx context.Context, id int64) error
	// RestoreNote clears the deletion mark. Live or missing notes yield ErrNotFound.
	RestoreNote(ctx context.Context, id int64) (*domain.Note, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close()
}
