package domain

import "time"

// ReadingStatus is the derived reading state of a book.
type ReadingStatus string

const (
	StatusPlanned  ReadingStatus = "planned"
	StatusReading  ReadingStatus = "reading"
	StatusFinished ReadingStatus = "finished"
)

// Book is a catalog entry merged with its extended metadata and reading
// state, ready to be written to the destination store.
type Book struct {
	BookID  string // opaque source identifier, identity key in the destination
	Title   string
	Author  string
	Cover   string
	URL     string // reader deep link back to the source service
	ISBN    string
	Rating  float64 // 0-10 scale
	Intro   string
	Sort    int64
	Reading *ReadingInfo
}

// Status returns the derived reading status, treating an absent reading
// record as planned.
func (b *Book) Status() ReadingStatus {
	if b.Reading == nil {
		return StatusPlanned
	}
	return b.Reading.Status
}

// BookDetail is the extended metadata fetched lazily, only when a book will
// actually be synced.
type BookDetail struct {
	ISBN   string
	Rating float64
	Intro  string
}

// ReadingInfo carries the per-book reading-progress record.
type ReadingInfo struct {
	Status     ReadingStatus
	Progress   *float64 // fraction in [0,1], nil when the source carries none
	FinishedAt *time.Time
}
