package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"weread_syncer/internal/config"
	"weread_syncer/internal/domain"
)

// reviewChapterLabel names the pseudo-chapter book-level reviews file under.
const reviewChapterLabel = "书评"

// SyncService mirrors the source catalog into the destination workspace.
// Re-runs converge on the same pages instead of duplicating them: books are
// matched by source ID, notes and highlights by their normalized text
// scoped to the owning book.
type SyncService struct {
	source     Source
	books      BookStore
	notes      NoteStore
	highlights HighlightStore
	publisher  Publisher
	logger     *slog.Logger
	config     config.SyncConfig
}

func NewSyncService(
	source Source,
	books BookStore,
	notes NoteStore,
	highlights HighlightStore,
	publisher Publisher,
	logger *slog.Logger,
	cfg config.SyncConfig,
) *SyncService {
	return &SyncService{
		source:     source,
		books:      books,
		notes:      notes,
		highlights: highlights,
		publisher:  publisher,
		logger:     logger.With("source", source.Name()),
		config:     cfg,
	}
}

// Sync walks the catalog sequentially, isolating failures per book. The run
// succeeds with partial failures logged; only a catalog fetch failure is
// fatal.
func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()
	s.logger.Info("starting sync", "force_all", s.config.ForceAll)

	books, err := s.source.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	s.logger.Info("fetched catalog", "books", len(books))

	stats := &domain.SyncStats{Books: len(books)}

	for i := range books {
		book := &books[i]
		if err := s.syncBook(ctx, book, stats); err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			stats.Errors++
			s.logger.Error("book sync failed",
				"book_id", book.BookID,
				"title", book.Title,
				"error", err,
			)
		}

		if err := s.pace(ctx, s.config.BookPacing); err != nil {
			return stats, err
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"books", stats.Books,
		"created", stats.BooksCreated,
		"updated", stats.BooksUpdated,
		"skipped", stats.BooksSkipped,
		"notes_created", stats.NotesCreated,
		"highlights_created", stats.HighlightsCreated,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

func (s *SyncService) syncBook(ctx context.Context, book *domain.Book, stats *domain.SyncStats) error {
	log := s.logger.With("book_id", book.BookID, "title", book.Title)

	pageID, err := s.books.Find(ctx, book.BookID)
	if err != nil {
		// Lookup failure is not absence; proceeding to create risks a
		// duplicate, which beats dropping the book. Logged so it can be
		// audited.
		log.Warn("existence check failed, assuming absent", "entity", "book", "error", err)
		stats.Errors++
		pageID = ""
	}

	reading, err := s.source.ReadingInfo(ctx, book.BookID)
	if err != nil {
		return fmt.Errorf("reading info: %w", err)
	}
	book.Reading = reading

	if pageID != "" && !s.config.ForceAll && book.Status() == domain.StatusFinished {
		destStatus, err := s.books.Status(ctx, pageID)
		if err != nil {
			log.Warn("status check failed, proceeding with sync", "error", err)
		} else if destStatus == domain.StatusFinished {
			log.Info("finished on both sides, skipping")
			stats.BooksSkipped++
			return nil
		}
	}

	// Extended metadata is fetched lazily, only once the sync is certain
	// to proceed.
	if detail, err := s.source.BookDetail(ctx, book.BookID); err != nil {
		log.Warn("book detail fetch failed", "error", err)
	} else {
		book.ISBN = detail.ISBN
		book.Rating = detail.Rating
		book.Intro = detail.Intro
	}

	created := pageID == ""
	if created {
		pageID, err = s.books.Create(ctx, book)
		if err != nil {
			return fmt.Errorf("create book: %w", err)
		}
		stats.BooksCreated++
	} else {
		if err := s.books.Update(ctx, pageID, book); err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		stats.BooksUpdated++
	}
	s.publish(ctx, stats, actionFor(created), "book", book.BookID, pageID, book.Title)

	chapters, err := s.source.Chapters(ctx, book.BookID)
	if err != nil {
		return fmt.Errorf("chapters: %w", err)
	}

	notePageIDs, err := s.syncNotes(ctx, book, pageID, chapters, stats)
	if err != nil {
		return err
	}

	return s.syncHighlights(ctx, book, pageID, chapters, notePageIDs, stats)
}

// syncNotes upserts reviews and paragraph notes and returns the page IDs of
// every note now known for the book, existing or new. Highlights relate to
// this full set, so notes must be processed first.
func (s *SyncService) syncNotes(ctx context.Context, book *domain.Book, bookPageID string, chapters map[int]string, stats *domain.SyncStats) ([]string, error) {
	notes, err := s.source.Notes(ctx, book.BookID)
	if err != nil {
		return nil, fmt.Errorf("notes: %w", err)
	}

	log := s.logger.With("book_id", book.BookID)
	notePageIDs := make([]string, 0, len(notes))

	for i := range notes {
		note := &notes[i]
		if strings.TrimSpace(note.Content) == "" {
			continue
		}

		if note.Kind == domain.NoteKindReview {
			note.ChapterTitle = reviewChapterLabel
		} else {
			note.ChapterTitle = chapters[note.ChapterUID]
		}

		noteID, created, err := s.upsertNote(ctx, note, bookPageID, stats)
		if err != nil {
			stats.Errors++
			log.Error("note upsert failed", "kind", note.Kind, "error", err)
			continue
		}
		notePageIDs = append(notePageIDs, noteID)

		if !created {
			stats.NotesSkipped++
			continue
		}
		stats.NotesCreated++
		s.publish(ctx, stats, "create", "note", book.BookID, noteID, domain.NormalizeTitle(note.Content))

		if err := s.pace(ctx, s.config.Pacing); err != nil {
			return notePageIDs, err
		}
	}

	return notePageIDs, nil
}

func (s *SyncService) syncHighlights(ctx context.Context, book *domain.Book, bookPageID string, chapters map[int]string, notePageIDs []string, stats *domain.SyncStats) error {
	highlights, err := s.source.Highlights(ctx, book.BookID)
	if err != nil {
		return fmt.Errorf("highlights: %w", err)
	}

	log := s.logger.With("book_id", book.BookID)

	for i := range highlights {
		hl := &highlights[i]
		if strings.TrimSpace(hl.Text) == "" {
			continue
		}

		hl.ChapterTitle = chapters[hl.ChapterUID]
		hl.BookTitle = book.Title
		hl.BookURL = book.URL

		hlID, created, err := s.upsertHighlight(ctx, hl, bookPageID, notePageIDs, stats)
		if err != nil {
			stats.Errors++
			log.Error("highlight upsert failed", "error", err)
			continue
		}

		if !created {
			stats.HighlightsSkipped++
			continue
		}
		stats.HighlightsCreated++
		s.publish(ctx, stats, "create", "highlight", book.BookID, hlID, domain.NormalizeTitle(hl.Text))

		if err := s.pace(ctx, s.config.Pacing); err != nil {
			return err
		}
	}

	return nil
}

// upsertNote resolves the note by its natural key and creates it only when
// absent. Existing notes are returned untouched; content is never patched
// after first write.
func (s *SyncService) upsertNote(ctx context.Context, note *domain.Note, bookPageID string, stats *domain.SyncStats) (string, bool, error) {
	key := domain.NormalizeTitle(note.Content)
	if key == "" {
		return "", false, domain.ErrEmptyContent
	}
	if bookPageID == "" {
		return "", false, domain.ErrMissingBookPage
	}

	existing, err := s.notes.Find(ctx, key, bookPageID)
	if err != nil {
		s.logger.Warn("existence check failed, assuming absent", "entity", "note", "error", err)
		stats.Errors++
	} else if existing != "" {
		return existing, false, nil
	}

	pageID, err := s.notes.Create(ctx, note, bookPageID)
	if err != nil {
		return "", false, err
	}
	return pageID, true, nil
}

func (s *SyncService) upsertHighlight(ctx context.Context, hl *domain.Highlight, bookPageID string, notePageIDs []string, stats *domain.SyncStats) (string, bool, error) {
	key := domain.NormalizeTitle(hl.Text)
	if key == "" {
		return "", false, domain.ErrEmptyContent
	}
	if bookPageID == "" {
		return "", false, domain.ErrMissingBookPage
	}

	existing, err := s.highlights.Find(ctx, key, bookPageID)
	if err != nil {
		s.logger.Warn("existence check failed, assuming absent", "entity", "highlight", "error", err)
		stats.Errors++
	} else if existing != "" {
		return existing, false, nil
	}

	pageID, err := s.highlights.Create(ctx, hl, bookPageID, notePageIDs)
	if err != nil {
		return "", false, err
	}
	return pageID, true, nil
}

func (s *SyncService) publish(ctx context.Context, stats *domain.SyncStats, action, kind, bookID, pageID, title string) {
	if s.publisher == nil {
		return
	}

	event := &domain.SyncEvent{
		Action:    action,
		Kind:      kind,
		BookID:    bookID,
		PageID:    pageID,
		Title:     title,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		stats.Errors++
		s.logger.Warn("event publish failed", "kind", kind, "error", err)
		return
	}
	stats.Published++
}

// pace inserts the static inter-request delay between dependent remote
// calls.
func (s *SyncService) pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func actionFor(created bool) string {
	if created {
		return "create"
	}
	return "update"
}
