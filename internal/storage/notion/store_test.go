package notion

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weread_syncer/internal/domain"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
}

type fakeAPI struct {
	t        *testing.T
	requests []recordedRequest
	respond  func(r *http.Request) (int, any)
}

func (f *fakeAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recordedRequest{Method: r.Method, Path: r.URL.Path}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&rec.Body)
		}
		f.requests = append(f.requests, rec)

		status, payload := http.StatusOK, any(map[string]any{})
		if f.respond != nil {
			status, payload = f.respond(r)
		}
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(payload)
	})
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	server := httptest.NewServer(api.handler())
	t.Cleanup(server.Close)

	return NewClient(Config{
		BaseURL: server.URL,
		Token:   "secret",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func fixedNow() time.Time {
	return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
}

func TestBookStoreFind_FiltersBySourceID(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"results": []map[string]any{{"id": "page-1"}, {"id": "page-2"}}}
	}}
	store := NewBookStore(newTestClient(t, api), "book-db")

	pageID, err := store.Find(context.Background(), "813790")
	require.NoError(t, err)
	assert.Equal(t, "page-1", pageID)

	require.Len(t, api.requests, 1)
	req := api.requests[0]
	assert.Equal(t, "/databases/book-db/query", req.Path)

	filter := req.Body["filter"].(map[string]any)
	assert.Equal(t, propBookID, filter["property"])
	assert.Equal(t, map[string]any{"equals": "813790"}, filter["rich_text"])
}

func TestBookStoreFind_NotFound(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"results": []any{}}
	}}
	store := NewBookStore(newTestClient(t, api), "book-db")

	pageID, err := store.Find(context.Background(), "unknown")
	require.NoError(t, err)
	assert.Empty(t, pageID)
}

func TestBookStoreFind_QueryError(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusServiceUnavailable, map[string]any{"code": "service_unavailable", "message": "down"}
	}}
	store := NewBookStore(newTestClient(t, api), "book-db")

	_, err := store.Find(context.Background(), "813790")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "service_unavailable")
}

func TestBookStoreStatus(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{
			"id": "page-1",
			"properties": map[string]any{
				propStatus: map[string]any{"status": map[string]any{"name": "已经读完"}},
			},
		}
	}}
	store := NewBookStore(newTestClient(t, api), "book-db")

	status, err := store.Status(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFinished, status)
	assert.Equal(t, "/pages/page-1", api.requests[0].Path)
}

func TestBookStoreStatus_Unset(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"id": "page-1", "properties": map[string]any{}}
	}}
	store := NewBookStore(newTestClient(t, api), "book-db")

	status, err := store.Status(context.Background(), "page-1")
	require.NoError(t, err)
	assert.Empty(t, status)
}

func finishedBook() *domain.Book {
	progress := 1.0
	finished := time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)
	return &domain.Book{
		BookID: "813790",
		Title:  "活着",
		Author: "余华",
		Cover:  "https://img/t7_cover.jpg",
		URL:    "https://weread.qq.com/web/reader/3d7325105c6ade3d7a7f600",
		ISBN:   "9787530216781",
		Rating: 9.2,
		Intro:  "intro",
		Reading: &domain.ReadingInfo{
			Status:     domain.StatusFinished,
			Progress:   &progress,
			FinishedAt: &finished,
		},
	}
}

func TestBookStoreCreate_Properties(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"id": "new-page"}
	}}
	store := NewBookStore(newTestClient(t, api), "book-db")
	store.now = fixedNow

	pageID, err := store.Create(context.Background(), finishedBook())
	require.NoError(t, err)
	assert.Equal(t, "new-page", pageID)

	req := api.requests[0]
	assert.Equal(t, "/pages", req.Path)
	assert.Equal(t, "book-db", req.Body["parent"].(map[string]any)["database_id"])

	props := req.Body["properties"].(map[string]any)
	title := props[propName].(map[string]any)["title"].([]any)[0].(map[string]any)
	assert.Equal(t, "活着", title["text"].(map[string]any)["content"])

	status := props[propStatus].(map[string]any)["status"].(map[string]any)
	assert.Equal(t, "已经读完", status["name"])

	assert.Equal(t, 1.0, props[propProgress].(map[string]any)["number"])
	assert.Equal(t, 9.2, props[propRating].(map[string]any)["number"])
	assert.Equal(t, "2024-04-02", props[propFinishedDate].(map[string]any)["date"].(map[string]any)["start"])
	assert.Equal(t, "2024-05-01", props[propAddedDate].(map[string]any)["date"].(map[string]any)["start"])

	icon := req.Body["icon"].(map[string]any)
	assert.Equal(t, "https://img/t7_cover.jpg", icon["external"].(map[string]any)["url"])
}

func TestBookStoreUpdate_NeverRollsBackToPlanned(t *testing.T) {
	api := &fakeAPI{t: t}
	store := NewBookStore(newTestClient(t, api), "book-db")

	book := finishedBook()
	book.Reading = &domain.ReadingInfo{Status: domain.StatusPlanned}

	require.NoError(t, store.Update(context.Background(), "page-1", book))

	req := api.requests[0]
	assert.Equal(t, "/pages/page-1", req.Path)
	assert.Equal(t, http.MethodPatch, req.Method)

	props := req.Body["properties"].(map[string]any)
	_, hasStatus := props[propStatus]
	assert.False(t, hasStatus)
	_, hasAdded := props[propAddedDate]
	assert.False(t, hasAdded)
}

func TestBookStoreCreate_CoverFallback(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"id": "new-page"}
	}}
	store := NewBookStore(newTestClient(t, api), "book-db")

	book := finishedBook()
	book.Cover = "res://not-a-web-url"

	_, err := store.Create(context.Background(), book)
	require.NoError(t, err)

	props := api.requests[0].Body["properties"].(map[string]any)
	file := props[propCover].(map[string]any)["files"].([]any)[0].(map[string]any)
	assert.Equal(t, defaultCover, file["external"].(map[string]any)["url"])
}

func TestNoteStoreFind_CompoundFilter(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"results": []map[string]any{{"id": "note-1"}}}
	}}
	store := NewNoteStore(newTestClient(t, api), "note-db")

	pageID, err := store.Find(context.Background(), "normalized note", "book-page")
	require.NoError(t, err)
	assert.Equal(t, "note-1", pageID)

	req := api.requests[0]
	assert.Equal(t, "/databases/note-db/query", req.Path)

	and := req.Body["filter"].(map[string]any)["and"].([]any)
	require.Len(t, and, 2)

	byTitle := and[0].(map[string]any)
	assert.Equal(t, propName, byTitle["property"])
	assert.Equal(t, map[string]any{"equals": "normalized note"}, byTitle["title"])

	byBook := and[1].(map[string]any)
	assert.Equal(t, propBookRelation, byBook["property"])
	assert.Equal(t, map[string]any{"contains": "book-page"}, byBook["relation"])
}

func TestNoteStoreFind_EmptyKeyShortCircuits(t *testing.T) {
	api := &fakeAPI{t: t}
	store := NewNoteStore(newTestClient(t, api), "note-db")

	pageID, err := store.Find(context.Background(), "", "book-page")
	require.NoError(t, err)
	assert.Empty(t, pageID)
	assert.Empty(t, api.requests)
}

func TestNoteStoreCreate_Validation(t *testing.T) {
	api := &fakeAPI{t: t}
	store := NewNoteStore(newTestClient(t, api), "note-db")

	_, err := store.Create(context.Background(), &domain.Note{Content: " \n\t "}, "book-page")
	assert.ErrorIs(t, err, domain.ErrEmptyContent)

	_, err = store.Create(context.Background(), &domain.Note{Content: "ok"}, "")
	assert.ErrorIs(t, err, domain.ErrMissingBookPage)

	assert.Empty(t, api.requests)
}

func TestNoteStoreCreate_ChunksBodyWithHeading(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"id": "note-1"}
	}}
	store := NewNoteStore(newTestClient(t, api), "note-db")
	store.now = fixedNow

	note := &domain.Note{
		Kind:         domain.NoteKindParagraph,
		Content:      strings.Repeat("n", 4500),
		ChapterTitle: "第三章",
	}

	pageID, err := store.Create(context.Background(), note, "book-page")
	require.NoError(t, err)
	assert.Equal(t, "note-1", pageID)

	require.Len(t, api.requests, 2)

	createReq := api.requests[0]
	props := createReq.Body["properties"].(map[string]any)
	category := props[propNoteCategory].(map[string]any)["status"].(map[string]any)
	assert.Equal(t, noteCategoryName, category["name"])
	relation := props[propBookRelation].(map[string]any)["relation"].([]any)
	assert.Equal(t, "book-page", relation[0].(map[string]any)["id"])

	appendReq := api.requests[1]
	assert.Equal(t, "/blocks/note-1/children", appendReq.Path)
	children := appendReq.Body["children"].([]any)
	require.Len(t, children, 4) // heading + 3 paragraph chunks

	heading := children[0].(map[string]any)
	assert.Equal(t, "heading_3", heading["type"])
	headingText := heading["heading_3"].(map[string]any)["rich_text"].([]any)[0].(map[string]any)
	assert.Equal(t, headingChapterPrefix+"第三章", headingText["text"].(map[string]any)["content"])

	for i, want := range []int{2000, 2000, 500} {
		p := children[i+1].(map[string]any)
		assert.Equal(t, "paragraph", p["type"])
		content := p["paragraph"].(map[string]any)["rich_text"].([]any)[0].(map[string]any)["text"].(map[string]any)["content"].(string)
		assert.Len(t, content, want)
	}
}

func TestHighlightStoreCreate(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"id": "hl-1"}
	}}
	store := NewHighlightStore(newTestClient(t, api), "info-db")
	store.now = fixedNow

	hl := &domain.Highlight{
		Text:         "an excerpt worth keeping",
		ChapterTitle: "第一章",
		BookTitle:    "活着",
		BookURL:      "https://weread.qq.com/web/reader/abc",
	}

	pageID, err := store.Create(context.Background(), hl, "book-page", []string{"note-1", "note-2"})
	require.NoError(t, err)
	assert.Equal(t, "hl-1", pageID)

	props := api.requests[0].Body["properties"].(map[string]any)
	assert.Equal(t, highlightTypeName, props[propHighlightType].(map[string]any)["select"].(map[string]any)["name"])
	assert.Equal(t, highlightStatus, props[propStatus].(map[string]any)["status"].(map[string]any)["name"])
	assert.Equal(t, hl.BookURL, props[propHighlightURL].(map[string]any)["url"])

	notes := props[propNoteRelation].(map[string]any)["relation"].([]any)
	require.Len(t, notes, 2)
	assert.Equal(t, "note-1", notes[0].(map[string]any)["id"])

	children := api.requests[1].Body["children"].([]any)
	require.Len(t, children, 2)
	heading := children[0].(map[string]any)["heading_3"].(map[string]any)["rich_text"].([]any)[0].(map[string]any)
	assert.Equal(t, headingSourcePrefix+"活着 - 第一章", heading["text"].(map[string]any)["content"])
	assert.Equal(t, "quote", children[1].(map[string]any)["type"])
}

func TestHighlightStoreCreate_NoNotesOmitsRelation(t *testing.T) {
	api := &fakeAPI{t: t, respond: func(r *http.Request) (int, any) {
		return http.StatusOK, map[string]any{"id": "hl-1"}
	}}
	store := NewHighlightStore(newTestClient(t, api), "info-db")

	hl := &domain.Highlight{Text: "excerpt", BookTitle: "活着"}
	_, err := store.Create(context.Background(), hl, "book-page", nil)
	require.NoError(t, err)

	props := api.requests[0].Body["properties"].(map[string]any)
	_, hasNotes := props[propNoteRelation]
	assert.False(t, hasNotes)
	_, hasURL := props[propHighlightURL]
	assert.False(t, hasURL)
}

func TestAppendChildren_Batches(t *testing.T) {
	api := &fakeAPI{t: t}
	client := newTestClient(t, api)

	children := make([]Block, 250)
	for i := range children {
		children[i] = Block{Type: "paragraph", Paragraph: &RichTextBlock{RichText: spans("x"), Color: "default"}}
	}

	require.NoError(t, client.AppendChildren(context.Background(), "page-1", children))

	require.Len(t, api.requests, 3)
	assert.Len(t, api.requests[0].Body["children"].([]any), 100)
	assert.Len(t, api.requests[1].Body["children"].([]any), 100)
	assert.Len(t, api.requests[2].Body["children"].([]any), 50)
}
