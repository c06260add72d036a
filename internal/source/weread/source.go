package weread

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"weread_syncer/internal/domain"
)

const (
	SourceName = "WeRead"

	defaultBaseURL = "https://weread.qq.com"

	notebookPath     = "/api/user/notebook"
	bookmarkListPath = "/web/book/bookmarklist"
	chapterInfoPath  = "/web/book/chapterInfos"
	readInfoPath     = "/web/book/readinfo"
	reviewListPath   = "/web/review/list"
	bookInfoPath     = "/web/book/info"
)

// RetryPolicy is the fixed-attempt, fixed-wait retry applied to every read
// against the source service. RefreshSession runs before each retry.
type RetryPolicy struct {
	MaxAttempts int
	Wait        time.Duration
}

// Config holds source configuration.
type Config struct {
	BaseURL string
	Cookie  string
	Timeout time.Duration
	Retry   RetryPolicy
}

// Source is an authenticated client for the reading service.
type Source struct {
	httpClient *http.Client
	baseURL    string
	retry      RetryPolicy
	logger     *slog.Logger
}

// New creates a source client with the session cookies installed.
func New(cfg Config, logger *slog.Logger) (*Source, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}

	cookies, err := parseCookieString(cfg.Cookie)
	if err != nil {
		return nil, fmt.Errorf("parse cookie: %w", err)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar.SetCookies(base, cookies)

	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Jar:     jar,
		},
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		retry:   cfg.Retry,
		logger:  logger.With("source", SourceName),
	}, nil
}

// Name returns the human-readable source name.
func (s *Source) Name() string {
	return SourceName
}

// Handshake primes the session by loading the reader front page, which sets
// the session cookies the API endpoints expect.
func (s *Source) Handshake(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	resp.Body.Close()
	return nil
}

// withRetry runs fn up to the policy's attempt count with a fixed wait,
// re-priming the session before every retry.
func (s *Source) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	attempts := s.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if rerr := s.Handshake(ctx); rerr != nil {
				s.logger.Warn("session refresh failed", "op", op, "error", rerr)
			}
		}

		if err = fn(ctx); err == nil {
			return nil
		}

		if attempt == attempts {
			break
		}

		s.logger.Warn("request failed, retrying",
			"op", op,
			"attempt", attempt,
			"wait", s.retry.Wait,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(s.retry.Wait):
		}
	}

	return fmt.Errorf("%s after %d attempts: %w", op, attempts, err)
}

func (s *Source) get(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := s.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	return s.do(req, out)
}

func (s *Source) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	return s.do(req, out)
}

func (s *Source) do(req *http.Request, out any) error {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// ListBooks fetches the notebook catalog in its provided sort order.
func (s *Source) ListBooks(ctx context.Context) ([]domain.Book, error) {
	var resp notebookResponse
	err := s.withRetry(ctx, "list notebooks", func(ctx context.Context) error {
		return s.get(ctx, notebookPath, nil, &resp)
	})
	if err != nil {
		return nil, err
	}

	entries := resp.Books
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Sort < entries[j].Sort
	})

	books := make([]domain.Book, 0, len(entries))
	for _, e := range entries {
		books = append(books, domain.Book{
			BookID: e.Book.BookID,
			Title:  e.Book.Title,
			Author: e.Book.Author,
			// Thumbnail covers are swapped for the larger rendition.
			Cover: strings.ReplaceAll(e.Book.Cover, "/s_", "/t7_"),
			URL:   ReaderURL(e.Book.BookID),
			Sort:  e.Sort,
		})
	}

	s.logger.Debug("fetched notebook catalog", "books", len(books))
	return books, nil
}

// ReadingInfo fetches the per-book reading-progress record.
func (s *Source) ReadingInfo(ctx context.Context, bookID string) (*domain.ReadingInfo, error) {
	params := url.Values{
		"bookId":           {bookID},
		"readingDetail":    {"1"},
		"readingBookIndex": {"1"},
		"finishedDate":     {"1"},
	}

	var info ReadInfo
	err := s.withRetry(ctx, "read info", func(ctx context.Context) error {
		return s.get(ctx, readInfoPath, params, &info)
	})
	if err != nil {
		return nil, err
	}
	return info.toDomain(), nil
}

// BookDetail fetches the extended metadata of a book.
func (s *Source) BookDetail(ctx context.Context, bookID string) (*domain.BookDetail, error) {
	var resp bookInfoResponse
	err := s.withRetry(ctx, "book info", func(ctx context.Context) error {
		return s.get(ctx, bookInfoPath, url.Values{"bookId": {bookID}}, &resp)
	})
	if err != nil {
		return nil, err
	}

	return &domain.BookDetail{
		ISBN:   resp.ISBN,
		Rating: resp.NewRating / 100, // source rates on a 0-1000 scale
		Intro:  resp.Intro,
	}, nil
}

// Chapters fetches the chapter table of a book as uid→title. A response
// without chapter data yields a nil map, not an error.
func (s *Source) Chapters(ctx context.Context, bookID string) (map[int]string, error) {
	body := map[string]any{
		"bookIds":  []string{bookID},
		"synckeys": []int{0},
		"teenmode": 0,
	}

	var resp chapterInfoResponse
	err := s.withRetry(ctx, "chapter info", func(ctx context.Context) error {
		return s.post(ctx, chapterInfoPath, body, &resp)
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Data) != 1 || len(resp.Data[0].Updated) == 0 {
		return nil, nil
	}

	chapters := make(map[int]string, len(resp.Data[0].Updated))
	for _, c := range resp.Data[0].Updated {
		chapters[c.ChapterUID] = c.Title
	}
	return chapters, nil
}

// Notes fetches the review list and returns book-level reviews followed by
// paragraph notes, in source order within each kind.
func (s *Source) Notes(ctx context.Context, bookID string) ([]domain.Note, error) {
	params := url.Values{
		"bookId":   {bookID},
		"listType": {"11"},
		"mine":     {"1"},
		"syncKey":  {"0"},
	}

	var resp reviewListResponse
	err := s.withRetry(ctx, "review list", func(ctx context.Context) error {
		return s.get(ctx, reviewListPath, params, &resp)
	})
	if err != nil {
		return nil, err
	}

	var reviews, paragraphs []domain.Note
	for _, entry := range resp.Reviews {
		switch entry.Review.Type {
		case reviewTypeSummary:
			reviews = append(reviews, domain.Note{
				Kind:    domain.NoteKindReview,
				Content: entry.Review.Content,
			})
		case reviewTypeParagraph:
			paragraphs = append(paragraphs, domain.Note{
				Kind:       domain.NoteKindParagraph,
				Content:    entry.Review.Content,
				ChapterUID: entry.Review.ChapterUID,
			})
		}
	}

	return append(reviews, paragraphs...), nil
}

// Highlights fetches the bookmark list ordered by chapter and in-chapter
// position.
func (s *Source) Highlights(ctx context.Context, bookID string) ([]domain.Highlight, error) {
	var resp bookmarkListResponse
	err := s.withRetry(ctx, "bookmark list", func(ctx context.Context) error {
		return s.get(ctx, bookmarkListPath, url.Values{"bookId": {bookID}}, &resp)
	})
	if err != nil {
		return nil, err
	}

	highlights := make([]domain.Highlight, 0, len(resp.Updated))
	for _, b := range resp.Updated {
		highlights = append(highlights, domain.Highlight{
			Text:       b.MarkText,
			ChapterUID: b.ChapterUID,
			RangeStart: rangeStart(b.Range),
		})
	}

	sort.SliceStable(highlights, func(i, j int) bool {
		if highlights[i].ChapterUID != highlights[j].ChapterUID {
			return highlights[i].ChapterUID < highlights[j].ChapterUID
		}
		return highlights[i].RangeStart < highlights[j].RangeStart
	})

	return highlights, nil
}

// BookURL returns the reader deep link for a book.
func (s *Source) BookURL(bookID string) string {
	return ReaderURL(bookID)
}

// rangeStart parses the leading offset of a "start-end" bookmark range.
func rangeStart(r string) int {
	start, _, _ := strings.Cut(r, "-")
	n, err := strconv.Atoi(start)
	if err != nil {
		return 0
	}
	return n
}
