// Package sqlerr classifies database errors.
//
// Driver errors from pgx, modernc sqlite and go-sql-driver/mysql are
// normalized into *Error, and every failure coming out of the database and
// repository layers is sorted into one Kind. HandleError is the single place
// where a Kind becomes an HTTP response.
package sqlerr

import (
	"errors"
	"fmt"
)

// Code is a driver independent category of a database error.
type Code string

const (
	Other               Code = "other"
	NotNullViolation    Code = "not_null_violation"
	ForeignKeyViolation Code = "foreign_key_violation"
	UniqueViolation     Code = "unique_violation"
	CheckViolation      Code = "check_violation"
	ExclusionViolation  Code = "exclusion_violation"
	DataException       Code = "data_exception"
	TooManyConnections  Code = "too_many_connections"
	ConnectionFailure   Code = "connection_failure"
)

// Severity mirrors the severity reported by Postgres. Other drivers always
// report SeverityError.
type Severity string

const (
	SeverityError   Severity = "ERROR"
	SeverityFatal   Severity = "FATAL"
	SeverityPanic   Severity = "PANIC"
	SeverityWarning Severity = "WARNING"
	SeverityNotice  Severity = "NOTICE"
	SeverityDebug   Severity = "DEBUG"
	SeverityInfo    Severity = "INFO"
	SeverityLog     Severity = "LOG"
)

// Error is a normalized driver error.
type Error struct {
	Code           Code
	Severity       Severity
	DatabaseCode   string
	Message        string
	SchemaName     string
	TableName      string
	ColumnName     string
	DataTypeName   string
	ConstraintName string
	driverErr      error
}

func (e *Error) Error() string {
	if e.TableName != "" {
		return fmt.Sprintf("%s on %s: %s", e.Code, e.TableName, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the original driver error.
func (e *Error) Unwrap() error {
	return e.driverErr
}

// IsConstraint reports whether the error is an integrity constraint violation.
func (e *Error) IsConstraint() bool {
	switch e.Code {
	case NotNullViolation, ForeignKeyViolation, UniqueViolation, CheckViolation, ExclusionViolation:
		return true
	default:
		return false
	}
}

// Kind is the error taxonomy exposed to callers of the database layer.
type Kind int

const (
	// KindBackend is any driver or query failure not covered by another kind.
	KindBackend Kind = iota
	KindNotFound
	KindConstraintViolation
	KindMalformedInput
	KindPoolExhausted
	KindBackendUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindConstraintViolation:
		return "constraint_violation"
	case KindMalformedInput:
		return "malformed_input"
	case KindPoolExhausted:
		return "pool_exhausted"
	case KindBackendUnavailable:
		return "backend_unavailable"
	default:
		return "backend_error"
	}
}

var (
	// ErrNotFound is matched by every not found error, see NotFoundError.
	ErrNotFound = errors.New("record not found")

	// ErrMalformedInput is matched by errors caused by unusable client input.
	ErrMalformedInput = errors.New("malformed input")

	// ErrPoolExhausted is returned when no connection became free in time.
	ErrPoolExhausted = errors.New("connection pool exhausted")

	// ErrBackendUnavailable is returned when the store cannot be reached
	// or the pool has been closed.
	ErrBackendUnavailable = errors.New("database backend unavailable")
)

// NotFoundError reports that a lookup by key matched no row.
type NotFoundError struct {
	Table string
	Key   any
}

// NotFound returns a *NotFoundError for table and key.
func NotFound(table string, key any) error {
	return &NotFoundError{Table: table, Key: key}
}

func (e *NotFoundError) Error() string {
	if e.Key == nil {
		return fmt.Sprintf("%s: %s", e.Table, ErrNotFound)
	}
	return fmt.Sprintf("%s %v: %s", e.Table, e.Key, ErrNotFound)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// MalformedInputError carries a client facing explanation of bad input.
type MalformedInputError struct {
	Message string
}

// Malformed returns a *MalformedInputError with a formatted message.
func Malformed(format string, args ...any) error {
	return &MalformedInputError{Message: fmt.Sprintf(format, args...)}
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMalformedInput, e.Message)
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

// KindOf sorts err into the taxonomy. nil is reported as KindBackend; callers
// only ask about non-nil errors.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrNotFound), isNoRows(err):
		return KindNotFound
	case errors.Is(err, ErrMalformedInput):
		return KindMalformedInput
	case errors.Is(err, ErrPoolExhausted):
		return KindPoolExhausted
	case errors.Is(err, ErrBackendUnavailable):
		return KindBackendUnavailable
	}

	if sqlErr, ok := AsError(err); ok {
		switch {
		case sqlErr.IsConstraint():
			return KindConstraintViolation
		case sqlErr.Code == DataException:
			return KindMalformedInput
		case sqlErr.Code == TooManyConnections, sqlErr.Code == ConnectionFailure:
			return KindBackendUnavailable
		}
	}

	return KindBackend
}

// IsNotFound reports whether err is a not found error. Optional lookups use
// it to treat a missing row as an absent value.
func IsNotFound(err error) bool {
	return err != nil && KindOf(err) == KindNotFound
}

// IsConstraintViolation reports whether err is an integrity constraint violation.
func IsConstraintViolation(err error) bool {
	return err != nil && KindOf(err) == KindConstraintViolation
}
