package sqlerr

import (
	"database/sql"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"
)

// MySQL server error numbers, see
// https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	mysqlTooManyConnections = 1040
	mysqlBadNull            = 1048
	mysqlDupEntry           = 1062
	mysqlNoDefaultForField  = 1364
	mysqlDataTooLong        = 1406
	mysqlRowIsReferenced    = 1451
	mysqlNoReferencedRow    = 1452
	mysqlCheckViolated      = 3819
)

var (
	sqliteConstraintRe = regexp.MustCompile(`constraint failed: ([A-Za-z0-9_]+)\.([A-Za-z0-9_]+)`)
	mysqlFKTableRe     = regexp.MustCompile("\\(`[^`]+`\\.`([^`]+)`, CONSTRAINT `([^`]+)` FOREIGN KEY \\(`([^`]+)`\\)")
	mysqlDupKeyRe      = regexp.MustCompile(`for key '(?:([^'.]+)\.)?([^']+)'`)
	mysqlColumnRe      = regexp.MustCompile(`(?:Column|Field) '([^']+)'`)
)

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows)
}

// MapCode maps a Postgres SQLSTATE onto a Code.
func MapCode(sqlState string) Code {
	switch {
	case sqlState == pgerrcode.NotNullViolation:
		return NotNullViolation
	case sqlState == pgerrcode.ForeignKeyViolation:
		return ForeignKeyViolation
	case sqlState == pgerrcode.UniqueViolation:
		return UniqueViolation
	case sqlState == pgerrcode.CheckViolation:
		return CheckViolation
	case sqlState == pgerrcode.ExclusionViolation:
		return ExclusionViolation
	case sqlState == pgerrcode.TooManyConnections:
		return TooManyConnections
	case pgerrcode.IsConnectionException(sqlState):
		return ConnectionFailure
	case pgerrcode.IsDataException(sqlState):
		return DataException
	default:
		return Other
	}
}

// MapSeverity maps a Postgres severity string onto a Severity.
func MapSeverity(severity string) Severity {
	switch s := Severity(strings.ToUpper(severity)); s {
	case SeverityFatal, SeverityPanic, SeverityWarning, SeverityNotice, SeverityDebug, SeverityInfo, SeverityLog:
		return s
	default:
		return SeverityError
	}
}

// ConvertPgError converts a Postgres server error.
func ConvertPgError(src *pgconn.PgError) *Error {
	return &Error{
		Code:           MapCode(src.Code),
		Severity:       MapSeverity(src.Severity),
		DatabaseCode:   src.Code,
		Message:        src.Message,
		SchemaName:     src.SchemaName,
		TableName:      src.TableName,
		ColumnName:     src.ColumnName,
		DataTypeName:   src.DataTypeName,
		ConstraintName: src.ConstraintName,
		driverErr:      src,
	}
}

// ConvertSQLiteError converts a modernc sqlite error.
//
// SQLite reports table and column only in the message text, e.g.
// "UNIQUE constraint failed: users.username".
func ConvertSQLiteError(src *sqlite.Error) *Error {
	msg := src.Error()
	res := &Error{
		Code:         Other,
		Severity:     SeverityError,
		DatabaseCode: strconv.Itoa(src.Code()),
		Message:      msg,
		driverErr:    src,
	}

	switch src.Code() {
	case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
		res.Code = UniqueViolation
	case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
		res.Code = ForeignKeyViolation
	case sqlitelib.SQLITE_CONSTRAINT_NOTNULL:
		res.Code = NotNullViolation
	case sqlitelib.SQLITE_CONSTRAINT_CHECK:
		res.Code = CheckViolation
	default:
		if src.Code()&0xff == sqlitelib.SQLITE_CONSTRAINT {
			res.Code = sqliteCodeFromMessage(msg)
		}
	}

	if m := sqliteConstraintRe.FindStringSubmatch(msg); m != nil {
		res.TableName, res.ColumnName = m[1], m[2]
	}

	return res
}

func sqliteCodeFromMessage(msg string) Code {
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return UniqueViolation
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return ForeignKeyViolation
	case strings.Contains(msg, "NOT NULL constraint failed"):
		return NotNullViolation
	case strings.Contains(msg, "CHECK constraint failed"):
		return CheckViolation
	default:
		return Other
	}
}

// ConvertMySQLError converts a go-sql-driver/mysql server error.
func ConvertMySQLError(src *mysql.MySQLError) *Error {
	res := &Error{
		Code:         Other,
		Severity:     SeverityError,
		DatabaseCode: string(src.SQLState[:]),
		Message:      src.Message,
		driverErr:    src,
	}

	switch src.Number {
	case mysqlDupEntry:
		res.Code = UniqueViolation
		if m := mysqlDupKeyRe.FindStringSubmatch(src.Message); m != nil {
			res.TableName, res.ConstraintName = m[1], m[2]
		}
	case mysqlRowIsReferenced, mysqlNoReferencedRow:
		res.Code = ForeignKeyViolation
		if m := mysqlFKTableRe.FindStringSubmatch(src.Message); m != nil {
			res.TableName, res.ConstraintName, res.ColumnName = m[1], m[2], m[3]
		}
	case mysqlBadNull, mysqlNoDefaultForField:
		res.Code = NotNullViolation
	case mysqlCheckViolated:
		res.Code = CheckViolation
	case mysqlDataTooLong:
		res.Code = DataException
	case mysqlTooManyConnections:
		res.Code = TooManyConnections
	}

	if res.ColumnName == "" {
		if m := mysqlColumnRe.FindStringSubmatch(src.Message); m != nil {
			res.ColumnName = m[1]
		}
	}

	return res
}

// AsError finds a driver error in err's chain and returns it normalized.
func AsError(err error) (*Error, bool) {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr, true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return ConvertPgError(pgErr), true
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return ConvertSQLiteError(liteErr), true
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return ConvertMySQLError(myErr), true
	}

	return nil, false
}

// Convert returns err with driver errors replaced by their normalized form.
// Errors that are not driver errors are returned unchanged.
func Convert(err error) error {
	if err == nil {
		return nil
	}

	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return err
	}

	if converted, ok := AsError(err); ok {
		return converted
	}

	return err
}

// ErrCode reports the Code of err, or Other when err is not a driver error.
func ErrCode(err error) Code {
	if sqlErr, ok := AsError(err); ok {
		return sqlErr.Code
	}
	return Other
}
