package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"weread_syncer/internal/domain"
)

// Source is the remote reading service the annotations come from.
type Source interface {
	Name() string
	ListBooks(ctx context.Context) ([]domain.Book, error)
	ReadingInfo(ctx context.Context, bookID string) (*domain.ReadingInfo, error)
	BookDetail(ctx context.Context, bookID string) (*domain.BookDetail, error)
	Chapters(ctx context.Context, bookID string) (map[int]string, error)
	Notes(ctx context.Context, bookID string) ([]domain.Note, error)
	Highlights(ctx context.Context, bookID string) ([]domain.Highlight, error)
	BookURL(bookID string) string
}

// BookStore holds book pages in the destination workspace.
type BookStore interface {
	Find(ctx context.Context, bookID string) (string, error)
	Status(ctx context.Context, pageID string) (domain.ReadingStatus, error)
	Create(ctx context.Context, book *domain.Book) (string, error)
	Update(ctx context.Context, pageID string, book *domain.Book) error
}

// NoteStore holds note pages, keyed by (normalized content, owning book).
type NoteStore interface {
	Find(ctx context.Context, title, bookPageID string) (string, error)
	Create(ctx context.Context, note *domain.Note, bookPageID string) (string, error)
}

// HighlightStore holds highlight pages, keyed by (normalized excerpt,
// owning book).
type HighlightStore interface {
	Find(ctx context.Context, title, bookPageID string) (string, error)
	Create(ctx context.Context, hl *domain.Highlight, bookPageID string, notePageIDs []string) (string, error)
}

// Publisher emits sync events for downstream consumers. May be nil.
type Publisher interface {
	Publish(ctx context.Context, event *domain.SyncEvent) error
	Close() error
}
