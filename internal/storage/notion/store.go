package notion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"weread_syncer/internal/domain"
)

// Property and option names of the destination workspace schema. The
// databases predate this tool, so the names are fixed.
const (
	propName         = "名称"
	propAuthor       = "书籍作者"
	propIntro        = "书籍简介"
	propBookID       = "书籍ID"
	propISBN         = "ISBN"
	propBookURL      = "书籍链接"
	propCover        = "书籍封面"
	propRating       = "豆瓣评分"
	propStatus       = "状态"
	propAddedDate    = "添加日期"
	propFinishedDate = "读完日期"
	propProgress     = "阅读进度"

	propNoteDate     = "日期"
	propNoteCategory = "分类"
	propBookRelation = "书籍"

	propHighlightType = "类型"
	propHighlightURL  = "网址"
	propCreatedDate   = "创建日期"
	propNoteRelation  = "笔记"

	noteCategoryName  = "文献笔记"
	highlightTypeName = "摘抄"
	highlightStatus   = "收集"

	headingChapterPrefix = "章节："
	headingSourcePrefix  = "来源："
)

// defaultCover substitutes for catalog entries without an absolute cover
// URL.
const defaultCover = "https://www.notion.so/icons/book_gray.svg"

const dateLayout = "2006-01-02"

var statusNames = map[domain.ReadingStatus]string{
	domain.StatusPlanned:  "计划阅读",
	domain.StatusReading:  "正在阅读",
	domain.StatusFinished: "已经读完",
}

func parseStatus(name string) domain.ReadingStatus {
	for status, n := range statusNames {
		if n == name {
			return status
		}
	}
	return ""
}

type equalsCondition struct {
	Equals string `json:"equals"`
}

type containsCondition struct {
	Contains string `json:"contains"`
}

type richTextFilter struct {
	Property string          `json:"property"`
	RichText equalsCondition `json:"rich_text"`
}

type titleFilter struct {
	Property string          `json:"property"`
	Title    equalsCondition `json:"title"`
}

type relationFilter struct {
	Property string            `json:"property"`
	Relation containsCondition `json:"relation"`
}

type andFilter struct {
	And []any `json:"and"`
}

// BookStore reads and writes book pages in the book database.
type BookStore struct {
	client     *Client
	databaseID string
	logger     *slog.Logger
	now        func() time.Time
}

// NewBookStore creates a book store over the given database.
func NewBookStore(client *Client, databaseID string) *BookStore {
	return &BookStore{
		client:     client,
		databaseID: databaseID,
		logger:     client.logger.With("entity", "book"),
		now:        time.Now,
	}
}

// Find resolves a book page by exact source-ID match.
func (s *BookStore) Find(ctx context.Context, bookID string) (string, error) {
	filter := richTextFilter{Property: propBookID, RichText: equalsCondition{Equals: bookID}}

	pages, err := s.client.QueryDatabase(ctx, s.databaseID, filter)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", nil
	}
	return pages[0].ID, nil
}

// Status reads the reading status stored on a book page. An unknown or
// unset status yields the zero value.
func (s *BookStore) Status(ctx context.Context, pageID string) (domain.ReadingStatus, error) {
	page, err := s.client.RetrievePage(ctx, pageID)
	if err != nil {
		return "", err
	}

	prop, ok := page.Properties[propStatus]
	if !ok || prop.Status == nil {
		return "", nil
	}
	return parseStatus(prop.Status.Name), nil
}

// Create writes a new book page with all derivable fields.
func (s *BookStore) Create(ctx context.Context, book *domain.Book) (string, error) {
	cover := coverOrDefault(book.Cover)
	icon := ExternalIcon(cover)

	page, err := s.client.CreatePage(ctx, CreatePageRequest{
		Parent:     Parent{Type: "database_id", DatabaseID: s.databaseID},
		Icon:       icon,
		Cover:      icon,
		Properties: s.properties(book, true),
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug("created book page", "book_id", book.BookID, "page_id", page.ID)
	return page.ID, nil
}

// Update overwrites the fields of an existing book page.
func (s *BookStore) Update(ctx context.Context, pageID string, book *domain.Book) error {
	icon := ExternalIcon(coverOrDefault(book.Cover))

	err := s.client.UpdatePage(ctx, pageID, UpdatePageRequest{
		Icon:       icon,
		Cover:      icon,
		Properties: s.properties(book, false),
	})
	if err != nil {
		return err
	}

	s.logger.Debug("updated book page", "book_id", book.BookID, "page_id", pageID)
	return nil
}

func (s *BookStore) properties(book *domain.Book, create bool) map[string]any {
	props := map[string]any{
		propName:    Title(book.Title),
		propAuthor:  Text(book.Author),
		propIntro:   Text(book.Intro),
		propBookID:  Text(book.BookID),
		propBookURL: URL(book.URL),
		propCover:   File("Cover", coverOrDefault(book.Cover)),
	}

	if create {
		props[propAddedDate] = Date(s.now().Format(dateLayout))
	}
	if book.ISBN != "" {
		props[propISBN] = Text(book.ISBN)
	}
	if book.Rating > 0 {
		props[propRating] = Number(book.Rating)
	}

	if book.Reading == nil {
		if create {
			props[propStatus] = Status(statusNames[domain.StatusPlanned])
		}
		return props
	}

	switch book.Reading.Status {
	case domain.StatusFinished:
		props[propStatus] = Status(statusNames[domain.StatusFinished])
		if book.Reading.FinishedAt != nil {
			props[propFinishedDate] = Date(book.Reading.FinishedAt.Format(dateLayout))
		}
	case domain.StatusReading:
		props[propStatus] = Status(statusNames[domain.StatusReading])
	default:
		// Updates never roll an existing status back to planned.
		if create {
			props[propStatus] = Status(statusNames[domain.StatusPlanned])
		}
	}

	if p := book.Reading.Progress; p != nil {
		props[propProgress] = Number(*p)
	}

	return props
}

func coverOrDefault(cover string) string {
	if len(cover) < 4 || cover[:4] != "http" {
		return defaultCover
	}
	return cover
}

// NoteStore reads and writes note pages in the note database.
type NoteStore struct {
	client     *Client
	databaseID string
	logger     *slog.Logger
	now        func() time.Time
}

// NewNoteStore creates a note store over the given database.
func NewNoteStore(client *Client, databaseID string) *NoteStore {
	return &NoteStore{
		client:     client,
		databaseID: databaseID,
		logger:     client.logger.With("entity", "note"),
		now:        time.Now,
	}
}

// Find resolves a note by its natural key: normalized title plus owning
// book. A title match under a different book is not a match.
func (s *NoteStore) Find(ctx context.Context, title, bookPageID string) (string, error) {
	return findByTitleAndBook(ctx, s.client, s.databaseID, title, bookPageID)
}

// Create writes a new note page with the full content chunked into ordered
// paragraph blocks.
func (s *NoteStore) Create(ctx context.Context, note *domain.Note, bookPageID string) (string, error) {
	title := domain.NormalizeTitle(note.Content)
	if title == "" {
		return "", domain.ErrEmptyContent
	}
	if bookPageID == "" {
		return "", domain.ErrMissingBookPage
	}

	page, err := s.client.CreatePage(ctx, CreatePageRequest{
		Parent: Parent{Type: "database_id", DatabaseID: s.databaseID},
		Properties: map[string]any{
			propName:         Title(title),
			propNoteDate:     Date(s.now().Format(dateLayout)),
			propNoteCategory: Status(noteCategoryName),
			propBookRelation: Relation([]string{bookPageID}),
		},
	})
	if err != nil {
		return "", err
	}

	var children []Block
	if note.ChapterTitle != "" {
		children = append(children, Heading3(headingChapterPrefix+note.ChapterTitle))
	}
	children = append(children, ParagraphBlocks(note.Content)...)

	if err := s.client.AppendChildren(ctx, page.ID, children); err != nil {
		return "", fmt.Errorf("write note body: %w", err)
	}

	s.logger.Debug("created note page", "page_id", page.ID)
	return page.ID, nil
}

// HighlightStore reads and writes highlight pages in the info database.
type HighlightStore struct {
	client     *Client
	databaseID string
	logger     *slog.Logger
	now        func() time.Time
}

// NewHighlightStore creates a highlight store over the given database.
func NewHighlightStore(client *Client, databaseID string) *HighlightStore {
	return &HighlightStore{
		client:     client,
		databaseID: databaseID,
		logger:     client.logger.With("entity", "highlight"),
		now:        time.Now,
	}
}

// Find resolves a highlight by normalized excerpt plus owning book.
func (s *HighlightStore) Find(ctx context.Context, title, bookPageID string) (string, error) {
	return findByTitleAndBook(ctx, s.client, s.databaseID, title, bookPageID)
}

// Create writes a new highlight page: fixed type/status, the reader deep
// link, relations to the owning book and to every note known so far, and
// the raw excerpt chunked into ordered quote blocks.
func (s *HighlightStore) Create(ctx context.Context, hl *domain.Highlight, bookPageID string, notePageIDs []string) (string, error) {
	title := domain.NormalizeTitle(hl.Text)
	if title == "" {
		return "", domain.ErrEmptyContent
	}
	if bookPageID == "" {
		return "", domain.ErrMissingBookPage
	}

	props := map[string]any{
		propName:          Title(title),
		propHighlightType: Select(highlightTypeName),
		propStatus:        Status(highlightStatus),
		propCreatedDate:   Date(s.now().Format(dateLayout)),
		propBookRelation:  Relation([]string{bookPageID}),
	}
	if hl.BookURL != "" {
		props[propHighlightURL] = URL(hl.BookURL)
	}
	if len(notePageIDs) > 0 {
		props[propNoteRelation] = Relation(notePageIDs)
	}

	page, err := s.client.CreatePage(ctx, CreatePageRequest{
		Parent:     Parent{Type: "database_id", DatabaseID: s.databaseID},
		Properties: props,
	})
	if err != nil {
		return "", err
	}

	origin := hl.BookTitle
	if hl.ChapterTitle != "" {
		origin += " - " + hl.ChapterTitle
	}
	children := append([]Block{Heading3(headingSourcePrefix + origin)}, QuoteBlocks(hl.Text)...)

	if err := s.client.AppendChildren(ctx, page.ID, children); err != nil {
		return "", fmt.Errorf("write highlight body: %w", err)
	}

	s.logger.Debug("created highlight page", "page_id", page.ID)
	return page.ID, nil
}

func findByTitleAndBook(ctx context.Context, client *Client, databaseID, title, bookPageID string) (string, error) {
	if title == "" || bookPageID == "" {
		return "", nil
	}

	filter := andFilter{And: []any{
		titleFilter{Property: propName, Title: equalsCondition{Equals: title}},
		relationFilter{Property: propBookRelation, Relation: containsCondition{Contains: bookPageID}},
	}}

	pages, err := client.QueryDatabase(ctx, databaseID, filter)
	if err != nil {
		return "", err
	}
	if len(pages) == 0 {
		return "", nil
	}
	return pages[0].ID, nil
}
