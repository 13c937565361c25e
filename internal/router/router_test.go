package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/deppfellow/bookshelf/internal/errs"
	"github.com/deppfellow/bookshelf/internal/model"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/deppfellow/bookshelf/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, mutate ...func(*config.Config)) *echo.Echo {
	t.Helper()

	s := testutil.Server(t, mutate...)
	return NewRouter(s, service.NewServices(s, repository.NewRepositories()))
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestUsers(t *testing.T) {
	t.Parallel()

	e := setup(t)

	rec := do(t, e, http.MethodPost, "/api/v1/users", `{"remark":"no name"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	httpErr := decode[errs.HTTPError](t, rec)
	require.Len(t, httpErr.Errors, 1)
	assert.Equal(t, "username", httpErr.Errors[0].Field)

	rec = do(t, e, http.MethodPost, "/api/v1/users", `{"username":"momo","remark":"first","email":"momo@example.com"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decode[model.User](t, rec)
	assert.Positive(t, user.ID)
	assert.Equal(t, "momo", user.Username)

	rec = do(t, e, http.MethodPost, "/api/v1/users", `{"username":"momo"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/api/v1/users", `{"username":"bad","email":"not-an-email"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPut, "/api/v1/users/1", `{"remark":"second"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[model.User](t, rec)
	assert.Equal(t, "momo", updated.Username)
	assert.Equal(t, "second", updated.Remark)
	assert.Equal(t, user.Email, updated.Email)

	rec = do(t, e, http.MethodGet, "/api/v1/users?username=momo", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]model.User](t, rec), 1)

	rec = do(t, e, http.MethodGet, "/api/v1/users/-1", "")
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "USER_NOT_FOUND", decode[errs.HTTPError](t, rec).Code)

	rec = do(t, e, http.MethodGet, "/api/v1/users/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/users?limit=5000", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodDelete, "/api/v1/users/1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, user.ID, decode[model.User](t, rec).ID)

	rec = do(t, e, http.MethodDelete, "/api/v1/users/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestPosts(t *testing.T) {
	t.Parallel()

	e := setup(t)

	rec := do(t, e, http.MethodPost, "/api/v1/posts/batch", `{"posts":[
		{"title":"Go tips","body":"a"},
		{"title":"Go traps","body":"b","published":true},
		{"title":"Rust notes"}
	]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]model.Post](t, rec), 3)

	rec = do(t, e, http.MethodPost, "/api/v1/posts/batch", `{"posts":[{"title":"ok"},{"body":"missing title"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/api/v1/posts", `{"title":"Single"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	single := decode[model.Post](t, rec)

	rec = do(t, e, http.MethodPost, "/api/v1/posts/"+itoa(single.ID)+"/publish", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.True(t, decode[model.Post](t, rec).Published)

	rec = do(t, e, http.MethodGet, "/api/v1/posts?published=true&order=-id", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	published := decode[[]model.Post](t, rec)
	require.Len(t, published, 2)
	assert.Equal(t, "Single", published[0].Title)

	rec = do(t, e, http.MethodGet, "/api/v1/posts?order=nope", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPut, "/api/v1/posts/"+itoa(single.ID), `{"body":"filled"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	post := decode[model.Post](t, rec)
	assert.Equal(t, "Single", post.Title)
	assert.Equal(t, "filled", post.Body)

	rec = do(t, e, http.MethodDelete, "/api/v1/posts?title=Go%25", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())

	rec = do(t, e, http.MethodDelete, "/api/v1/posts", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/posts", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]model.Post](t, rec), 2)

	rec = do(t, e, http.MethodPost, "/api/v1/posts/publish", `{"title":"%notes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"published":1}`, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/api/v1/posts/publish", `{"title":"%notes"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"published":0}`, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/api/v1/posts/publish", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/posts?published=false", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[[]model.Post](t, rec))

	rec = do(t, e, http.MethodDelete, "/api/v1/posts/"+itoa(single.ID), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/posts/"+itoa(single.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
}

func TestBooksAndAuthors(t *testing.T) {
	t.Parallel()

	e := setup(t)

	rec := do(t, e, http.MethodPost, "/api/v1/books/42/pages", `{"page_number":1,"content":"orphan"}`)
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "BOOK_NOT_FOUND", decode[errs.HTTPError](t, rec).Code)

	rec = do(t, e, http.MethodPost, "/api/v1/books", `{"title":"Dune"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dune := decode[model.Book](t, rec)

	rec = do(t, e, http.MethodPost, "/api/v1/books", `{"title":"Blank"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	blank := decode[model.Book](t, rec)

	for i, content := range []string{"one", "two"} {
		rec = do(t, e, http.MethodPost, "/api/v1/books/"+itoa(dune.ID)+"/pages",
			`{"page_number":`+itoa(int64(i+1))+`,"content":"`+content+`"}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, dune.ID, decode[model.Page](t, rec).BookID)
	}

	rec = do(t, e, http.MethodPost, "/api/v1/books/"+itoa(dune.ID)+"/pages", `{"page_number":3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/books/"+itoa(dune.ID), "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[model.BookWithPages](t, rec).Pages, 2)

	rec = do(t, e, http.MethodGet, "/api/v1/books/"+itoa(dune.ID)+"/joined", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[model.BookWithPages](t, rec).Pages, 2)

	rec = do(t, e, http.MethodGet, "/api/v1/books/"+itoa(blank.ID)+"/joined", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Empty(t, decode[model.BookWithPages](t, rec).Pages)

	rec = do(t, e, http.MethodGet, "/api/v1/books/999/joined", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/books/"+itoa(dune.ID)+"/pages", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	pairs := decode[[]model.PageWithBook](t, rec)
	require.Len(t, pairs, 2)
	assert.Equal(t, "Dune", pairs[0].Book.Title)

	rec = do(t, e, http.MethodGet, "/api/v1/books-left-join", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	left := decode[[]model.BookWithPage](t, rec)
	require.Len(t, left, 3)
	var orphans int
	for _, p := range left {
		if p.Page == nil {
			orphans++
			assert.Equal(t, blank.ID, p.Book.ID)
		}
	}
	assert.Equal(t, 1, orphans)

	rec = do(t, e, http.MethodGet, "/api/v1/books", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]model.BookWithPages](t, rec), 2)

	rec = do(t, e, http.MethodPost, "/api/v1/authors", `{"name":"Frank Herbert"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	frank := decode[model.Author](t, rec)

	link := "/api/v1/books/" + itoa(dune.ID) + "/authors/" + itoa(frank.ID)
	rec = do(t, e, http.MethodPost, link, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, model.BookAuthor{BookID: dune.ID, AuthorID: frank.ID}, decode[model.BookAuthor](t, rec))

	rec = do(t, e, http.MethodPost, link, "")
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/api/v1/books/"+itoa(dune.ID)+"/authors/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodGet, "/api/v1/books/"+itoa(dune.ID)+"/authors", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []model.Author{frank}, decode[[]model.Author](t, rec))

	rec = do(t, e, http.MethodGet, "/api/v1/authors/"+itoa(frank.ID)+"/books", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []model.Book{dune}, decode[[]model.Book](t, rec))

	rec = do(t, e, http.MethodGet, "/api/v1/authors", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	authors := decode[[]model.AuthorWithBooks](t, rec)
	require.Len(t, authors, 1)
	assert.Len(t, authors[0].Books, 1)
}

func TestSystemRoutes(t *testing.T) {
	t.Parallel()

	e := setup(t)

	rec := do(t, e, http.MethodGet, "/status", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	status := decode[map[string]any](t, rec)
	assert.Equal(t, "healthy", status["status"])
	assert.Contains(t, status["checks"], "database")

	rec = do(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bookshelf_db_pool")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGlobalErrorHandler(t *testing.T) {
	t.Parallel()

	e := setup(t)

	rec := do(t, e, http.MethodGet, "/api/v1/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	httpErr := decode[errs.HTTPError](t, rec)
	assert.Equal(t, "Route not found", httpErr.Message)
	assert.Equal(t, "NOT_FOUND", httpErr.Code)

	rec = do(t, e, http.MethodPatch, "/api/v1/users", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, e, http.MethodPost, "/api/v1/posts", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, e, http.MethodPost, "/api/v1/posts", `{"title":"`+strings.Repeat("a", 2<<20)+`"}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	e := setup(t)

	rec := do(t, e, http.MethodGet, "/status", "")
	generated := rec.Header().Get("X-Request-ID")
	assert.Len(t, generated, 36)

	const id = "7f1d5c3e-9b0a-4a57-8f3e-2b8e6d1c4a90"
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Request-ID", id)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/status", nil)
	req.Header.Set("X-Request-ID", "<script>")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get("X-Request-ID"))
	assert.Len(t, rec.Header().Get("X-Request-ID"), 36)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	e := setup(t, func(cfg *config.Config) {
		cfg.Server.RateLimitRequests = 2
		cfg.Server.RateLimitWindow = time.Minute
	})

	for i := 0; i < 2; i++ {
		rec := do(t, e, http.MethodGet, "/api/v1/posts", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := do(t, e, http.MethodGet, "/api/v1/posts", "")
	require.Equal(t, http.StatusTooManyRequests, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusTooManyRequests, decode[errs.HTTPError](t, rec).Status)

	// System routes are not limited.
	rec = do(t, e, http.MethodGet, "/status", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
