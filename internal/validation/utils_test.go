package validation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/deppfellow/bookshelf/internal/errs"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pageRequest struct {
	BookID     int64  `param:"id" json:"-"`
	PageNumber int64  `json:"page_number" validate:"min=0"`
	Content    string `json:"content" validate:"required,max=10"`
}

func (r *pageRequest) Validate() error {
	return Struct(r)
}

type customRequest struct{}

func (r *customRequest) Validate() error {
	return CustomValidationErrors{{Field: "title", Message: "is taken"}}
}

func bind(t *testing.T, payload Validatable, id, body string) error {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/books/"+id+"/pages", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/books/:id/pages")
	c.SetParamNames("id")
	c.SetParamValues(id)

	return BindAndValidate(c, payload)
}

func requireHTTPError(t *testing.T, err error) *errs.HTTPError {
	t.Helper()

	require.Error(t, err)
	httpErr, ok := err.(*errs.HTTPError)
	require.True(t, ok, "%T", err)
	assert.Equal(t, http.StatusBadRequest, httpErr.Status)
	return httpErr
}

func TestBindAndValidate(t *testing.T) {
	t.Parallel()

	var ok pageRequest
	require.NoError(t, bind(t, &ok, "7", `{"page_number": 2, "content": "hi"}`))
	assert.Equal(t, pageRequest{BookID: 7, PageNumber: 2, Content: "hi"}, ok)

	var negative pageRequest
	require.NoError(t, bind(t, &negative, "-1", `{"content": "hi"}`))
	assert.EqualValues(t, -1, negative.BookID)

	t.Run("NonNumericID", func(t *testing.T) {
		t.Parallel()
		requireHTTPError(t, bind(t, &pageRequest{}, "abc", `{"content": "hi"}`))
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		t.Parallel()
		requireHTTPError(t, bind(t, &pageRequest{}, "1", `{"content": `))
	})

	t.Run("WrongType", func(t *testing.T) {
		t.Parallel()
		httpErr := requireHTTPError(t, bind(t, &pageRequest{}, "1", `{"page_number": "two", "content": "x"}`))
		assert.Contains(t, httpErr.Message, "Invalid request")
	})

	t.Run("FieldErrors", func(t *testing.T) {
		t.Parallel()
		httpErr := requireHTTPError(t, bind(t, &pageRequest{}, "1", `{"page_number": -3, "content": "much too long"}`))
		assert.Equal(t, "Validation failed", httpErr.Message)
		assert.ElementsMatch(t, []errs.FieldError{
			{Field: "page_number", Error: "must be at least 0"},
			{Field: "content", Error: "must not exceed 10 characters"},
		}, httpErr.Errors)
	})

	t.Run("Required", func(t *testing.T) {
		t.Parallel()
		httpErr := requireHTTPError(t, bind(t, &pageRequest{}, "1", `{}`))
		assert.Equal(t, []errs.FieldError{{Field: "content", Error: "is required"}}, httpErr.Errors)
	})

	t.Run("Custom", func(t *testing.T) {
		t.Parallel()
		httpErr := requireHTTPError(t, bind(t, &customRequest{}, "1", `{}`))
		assert.Equal(t, []errs.FieldError{{Field: "title", Error: "is taken"}}, httpErr.Errors)
	})
}

func TestIsValidUUID(t *testing.T) {
	t.Parallel()

	assert.True(t, IsValidUUID("0b5c2a54-3f0e-4d2a-9a53-0f7a3f1f0e11"))
	assert.False(t, IsValidUUID("not-a-uuid"))
	assert.False(t, IsValidUUID(""))
}
