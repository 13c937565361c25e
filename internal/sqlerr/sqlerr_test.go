package sqlerr

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/deppfellow/bookshelf/internal/errs"
	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		err      error
		expected Kind
	}{
		"NotFound":        {err: NotFound("books", int64(1)), expected: KindNotFound},
		"WrappedNotFound": {err: fmt.Errorf("get: %w", NotFound("books", int64(1))), expected: KindNotFound},
		"PgxNoRows":       {err: pgx.ErrNoRows, expected: KindNotFound},
		"SQLNoRows":       {err: fmt.Errorf("scan: %w", sql.ErrNoRows), expected: KindNotFound},
		"Malformed":       {err: Malformed("unknown column %q", "foo"), expected: KindMalformedInput},
		"PoolExhausted":   {err: fmt.Errorf("acquire: %w", ErrPoolExhausted), expected: KindPoolExhausted},
		"Unavailable":     {err: ErrBackendUnavailable, expected: KindBackendUnavailable},
		"PgUnique": {
			err:      &pgconn.PgError{Code: pgerrcode.UniqueViolation, TableName: "users"},
			expected: KindConstraintViolation,
		},
		"PgForeignKey": {
			err:      fmt.Errorf("insert: %w", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}),
			expected: KindConstraintViolation,
		},
		"PgDataException": {
			err:      &pgconn.PgError{Code: pgerrcode.StringDataRightTruncationDataException},
			expected: KindMalformedInput,
		},
		"PgTooManyConnections": {
			err:      &pgconn.PgError{Code: pgerrcode.TooManyConnections},
			expected: KindBackendUnavailable,
		},
		"PgSyntax": {
			err:      &pgconn.PgError{Code: pgerrcode.SyntaxError},
			expected: KindBackend,
		},
		"MySQLDuplicate": {
			err:      &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'momo' for key 'users.username'"},
			expected: KindConstraintViolation,
		},
		"Other":    {err: errors.New("boom"), expected: KindBackend},
		"Canceled": {err: context.Canceled, expected: KindBackend},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.expected, KindOf(tc.err), "kind %s", KindOf(tc.err))
		})
	}
}

func TestConvertMySQLError(t *testing.T) {
	t.Parallel()

	fk := ConvertMySQLError(&mysql.MySQLError{
		Number: 1452,
		Message: "Cannot add or update a child row: a foreign key constraint fails " +
			"(`bookshelf`.`pages`, CONSTRAINT `pages_ibfk_1` FOREIGN KEY (`book_id`) REFERENCES `books` (`id`))",
	})
	assert.Equal(t, ForeignKeyViolation, fk.Code)
	assert.Equal(t, "pages", fk.TableName)
	assert.Equal(t, "book_id", fk.ColumnName)
	assert.Equal(t, "pages_ibfk_1", fk.ConstraintName)

	dup := ConvertMySQLError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'momo' for key 'users.username'"})
	assert.Equal(t, UniqueViolation, dup.Code)
	assert.Equal(t, "users", dup.TableName)
	assert.Equal(t, "username", dup.ConstraintName)

	null := ConvertMySQLError(&mysql.MySQLError{Number: 1048, Message: "Column 'content' cannot be null"})
	assert.Equal(t, NotNullViolation, null.Code)
	assert.Equal(t, "content", null.ColumnName)
}

func TestMapSeverity(t *testing.T) {
	t.Parallel()

	assert.Equal(t, SeverityFatal, MapSeverity("FATAL"))
	assert.Equal(t, SeverityWarning, MapSeverity("warning"))
	assert.Equal(t, SeverityError, MapSeverity("something"))
}

func TestHandleError(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		err     error
		status  int
		code    string
		message string
	}{
		"NotFound": {
			err:     NotFound("users", int64(-1)),
			status:  http.StatusNotFound,
			code:    "USER_NOT_FOUND",
			message: "User not found",
		},
		"PlainNoRows": {
			err:    pgx.ErrNoRows,
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		"Malformed": {
			err:     Malformed("unknown column %q", "colour"),
			status:  http.StatusBadRequest,
			message: `unknown column "colour"`,
		},
		"Unique": {
			err:     &pgconn.PgError{Code: pgerrcode.UniqueViolation, TableName: "users", ConstraintName: "users_username_key"},
			status:  http.StatusConflict,
			code:    "USER_ALREADY_EXISTS",
			message: "A User with this Username already exists",
		},
		"ForeignKey": {
			err:     &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "pages", ColumnName: "book_id"},
			status:  http.StatusBadRequest,
			code:    "PAGE_NOT_FOUND",
			message: "The referenced Book does not exist",
		},
		"NotNull": {
			err:     &pgconn.PgError{Code: pgerrcode.NotNullViolation, TableName: "pages", ColumnName: "content"},
			status:  http.StatusBadRequest,
			code:    "PAGE_REQUIRED",
			message: "The Content is required",
		},
		"PoolExhausted": {
			err:    ErrPoolExhausted,
			status: http.StatusInternalServerError,
		},
		"Unknown": {
			err:     errors.New("driver exploded"),
			status:  http.StatusInternalServerError,
			message: http.StatusText(http.StatusInternalServerError),
		},
	} {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var httpErr *errs.HTTPError
			require.ErrorAs(t, HandleError(tc.err), &httpErr)
			assert.Equal(t, tc.status, httpErr.Status)

			if tc.code != "" {
				assert.Equal(t, tc.code, httpErr.Code)
			}
			if tc.message != "" {
				assert.Equal(t, tc.message, httpErr.Message)
			}
		})
	}
}

func TestHandleErrorKeepsHTTPError(t *testing.T) {
	t.Parallel()

	original := errs.NewForbiddenError("no", true)
	assert.Same(t, original, HandleError(original))
}
