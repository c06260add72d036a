package domain

import "errors"

var (
	// ErrEmptyContent marks a note or highlight whose text normalizes to
	// nothing; such an entity has no natural key and must not be written.
	ErrEmptyContent = errors.New("content normalizes to empty string")

	// ErrMissingBookPage marks an annotation write attempted without an
	// owning book page.
	ErrMissingBookPage = errors.New("owning book page id is empty")
)

// NoteKind distinguishes the two source note sub-kinds.
type NoteKind string

const (
	NoteKindReview    NoteKind = "review" // book-level review
	NoteKindParagraph NoteKind = "note"   // in-text paragraph note
)

// Note is a long-form reflection attached to a book. Its identity in the
// destination is (normalized content, owning book).
type Note struct {
	Kind         NoteKind
	Content      string
	ChapterUID   int
	ChapterTitle string
}

// Highlight is a highlighted excerpt attached to a book, optionally related
// to the notes of the same book. Identity is (normalized text, owning book).
type Highlight struct {
	Text         string
	ChapterUID   int
	ChapterTitle string
	RangeStart   int
	BookTitle    string
	BookURL      string
}
