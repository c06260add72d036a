package domain

import "time"

// SyncStats holds statistics about a sync run.
type SyncStats struct {
	Books             int
	BooksCreated      int
	BooksUpdated      int
	BooksSkipped      int
	NotesCreated      int
	NotesSkipped      int
	HighlightsCreated int
	HighlightsSkipped int
	Errors            int
	Published         int
	Duration          time.Duration
}

// SyncEvent describes a single destination write, published for downstream
// consumers.
type SyncEvent struct {
	Action    string    `json:"action"` // "create" or "update"
	Kind      string    `json:"kind"`   // "book", "note" or "highlight"
	BookID    string    `json:"book_id"`
	PageID    string    `json:"page_id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}
