package errs

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	t.Parallel()

	code := "BOOK_NOT_FOUND"

	for name, tc := range map[string]struct {
		err    *HTTPError
		status int
		code   string
	}{
		"BadRequest":      {err: NewBadRequestError("bad", false, nil, nil, nil), status: http.StatusBadRequest, code: "BAD_REQUEST"},
		"NotFound":        {err: NewNotFoundError("missing", true, &code), status: http.StatusNotFound, code: code},
		"Conflict":        {err: NewConflictError("dup", true, nil), status: http.StatusConflict, code: "CONFLICT"},
		"TooManyRequests": {err: NewTooManyRequestsError("slow down"), status: http.StatusTooManyRequests, code: "TOO_MANY_REQUESTS"},
		"Internal":        {err: NewInternalServerError(), status: http.StatusInternalServerError, code: "INTERNAL_SERVER_ERROR"},
		"Unauthorized":    {err: NewUnauthorizedError("who", false), status: http.StatusUnauthorized, code: "UNAUTHORIZED"},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.status, tc.err.Status)
			assert.Equal(t, tc.code, tc.err.Code)
		})
	}
}

func TestHTTPErrorIs(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("service: %w", NewNotFoundError("gone", false, nil))

	var httpErr *HTTPError
	require.True(t, errors.As(wrapped, &httpErr))
	assert.True(t, errors.Is(wrapped, &HTTPError{}))
	assert.Equal(t, "other", httpErr.WithMessage("other").Message)
	assert.Equal(t, "gone", httpErr.Message)
}
