package weread

import (
	"time"

	"weread_syncer/internal/domain"
)

type notebookResponse struct {
	Books []notebookEntry `json:"books"`
}

type notebookEntry struct {
	Sort int64    `json:"sort"`
	Book bookMeta `json:"book"`
}

type bookMeta struct {
	BookID string `json:"bookId"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Cover  string `json:"cover"`
}

type bookInfoResponse struct {
	ISBN      string  `json:"isbn"`
	NewRating float64 `json:"newRating"`
	Intro     string  `json:"intro"`
}

// markedStatus value the source uses for a finished book.
const markedStatusFinished = 4

// ReadInfo is the raw per-book reading-progress record.
type ReadInfo struct {
	MarkedStatus     int             `json:"markedStatus"`
	FinishedDate     *int64          `json:"finishedDate"`
	Percentage       *float64        `json:"percentage"`
	ReadingDetail    *readingSection `json:"readingDetail"`
	ReadingBookIndex *readingSection `json:"readingBookIndex"`
}

type readingSection struct {
	Percentage *float64 `json:"percentage"`
}

// Status derives the reading status from the marked counter. A nil record
// counts as planned.
func (r *ReadInfo) Status() domain.ReadingStatus {
	switch {
	case r == nil:
		return domain.StatusPlanned
	case r.MarkedStatus == markedStatusFinished:
		return domain.StatusFinished
	case r.MarkedStatus > 0:
		return domain.StatusReading
	default:
		return domain.StatusPlanned
	}
}

// Progress extracts the reading progress from whichever nested location
// carries it and normalizes to a [0,1] fraction. Values above 1 are taken as
// a 0-100 percentage.
func (r *ReadInfo) Progress() *float64 {
	if r == nil {
		return nil
	}

	p := r.Percentage
	if p == nil && r.ReadingDetail != nil {
		p = r.ReadingDetail.Percentage
	}
	if p == nil && r.ReadingBookIndex != nil {
		p = r.ReadingBookIndex.Percentage
	}
	if p == nil {
		return nil
	}

	v := *p
	if v > 1 {
		v /= 100
	}
	v = min(max(v, 0), 1)
	return &v
}

// FinishedAt converts the unix-seconds finished date, when present.
func (r *ReadInfo) FinishedAt() *time.Time {
	if r == nil || r.FinishedDate == nil {
		return nil
	}
	t := time.Unix(*r.FinishedDate, 0).UTC()
	return &t
}

func (r *ReadInfo) toDomain() *domain.ReadingInfo {
	if r == nil {
		return nil
	}
	return &domain.ReadingInfo{
		Status:     r.Status(),
		Progress:   r.Progress(),
		FinishedAt: r.FinishedAt(),
	}
}

// Review type values in the review list.
const (
	reviewTypeParagraph = 1
	reviewTypeSummary   = 4
)

type reviewListResponse struct {
	Reviews []reviewEntry `json:"reviews"`
}

type reviewEntry struct {
	Review review `json:"review"`
}

type review struct {
	Type       int    `json:"type"`
	Content    string `json:"content"`
	ChapterUID int    `json:"chapterUid"`
}

type bookmarkListResponse struct {
	Updated []bookmark `json:"updated"`
}

type bookmark struct {
	MarkText   string `json:"markText"`
	ChapterUID int    `json:"chapterUid"`
	Range      string `json:"range"` // "start-end" character offsets
}

type chapterInfoResponse struct {
	Data []chapterData `json:"data"`
}

type chapterData struct {
	Updated []chapter `json:"updated"`
}

type chapter struct {
	ChapterUID int    `json:"chapterUid"`
	Title      string `json:"title"`
}
