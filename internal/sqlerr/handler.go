package sqlerr

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/bookshelf/internal/errs"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var uniqueKeyRe = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// domainName turns a table name into an upper case singular domain, "books" -> "BOOK".
func domainName(tableName string) string {
	if tableName == "" {
		return "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}
	return domain
}

// generateErrorCode builds a machine readable code like USER_ALREADY_EXISTS.
func generateErrorCode(tableName string, errType Code) string {
	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation, ExclusionViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, DataException:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domainName(tableName), action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation, ExclusionViolation:
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation, DataException:
		if fieldName := humanizeText(sqlErr.ColumnName); fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName prefers a foreign key column ("book_id" -> "Book"), then the
// singular table name, then "record".
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		entity := strings.TrimSuffix(strings.ToLower(columnName), "_id")
		return humanizeText(entity)
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation infers the column from a unique constraint
// name: "unique_users_email", "users_email_key" or MySQL's "users.username".
func extractColumnForUniqueViolation(sqlErr *Error) string {
	if sqlErr.ColumnName != "" {
		return sqlErr.ColumnName
	}

	name := sqlErr.ConstraintName
	if name == "" {
		return ""
	}

	if strings.HasPrefix(name, "unique_") {
		parts := strings.Split(name, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if matches := uniqueKeyRe.FindStringSubmatch(name); len(matches) > 1 {
		return matches[1]
	}

	if !strings.Contains(name, "_") {
		return name
	}

	return ""
}

// HandleError converts any error returned by a service into an *errs.HTTPError.
//
//   - NotFound            -> 404
//   - MalformedInput      -> 400
//   - unique violation    -> 409
//   - other constraints   -> 400
//   - everything else     -> 500, without leaking details
//
// Errors that already are *errs.HTTPError are returned unchanged.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return err
	}

	switch KindOf(err) {
	case KindNotFound:
		var nf *NotFoundError
		if errors.As(err, &nf) {
			code := domainName(nf.Table) + "_NOT_FOUND"
			return errs.NewNotFoundError(fmt.Sprintf("%s not found", getEntityName(nf.Table, "")), true, &code)
		}
		return errs.NewNotFoundError("Resource not found", false, nil)

	case KindMalformedInput:
		var mi *MalformedInputError
		if errors.As(err, &mi) {
			return errs.NewBadRequestError(mi.Message, true, nil, nil, nil)
		}
		if sqlErr, ok := AsError(err); ok {
			code := generateErrorCode(sqlErr.TableName, sqlErr.Code)
			return errs.NewBadRequestError(formatUserFriendlyMessage(sqlErr), true, &code, nil, nil)
		}
		return errs.NewBadRequestError("Malformed input", false, nil, nil, nil)

	case KindConstraintViolation:
		sqlErr, _ := AsError(err)
		return constraintError(sqlErr)

	default:
		return errs.NewInternalServerError()
	}
}

func constraintError(sqlErr *Error) error {
	errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
	userMessage := formatUserFriendlyMessage(sqlErr)

	switch sqlErr.Code {
	case UniqueViolation, ExclusionViolation:
		if columnName := extractColumnForUniqueViolation(sqlErr); columnName != "" {
			userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(columnName))
		}
		return errs.NewConflictError(userMessage, true, &errorCode)

	case NotNullViolation:
		fieldErrors := []errs.FieldError{
			{
				Field: strings.ToLower(sqlErr.ColumnName),
				Error: "is required",
			},
		}
		return errs.NewBadRequestError(userMessage, true, &errorCode, fieldErrors, nil)

	case ForeignKeyViolation:
		return errs.NewBadRequestError(userMessage, false, &errorCode, nil, nil)

	default:
		return errs.NewBadRequestError(userMessage, true, &errorCode, nil, nil)
	}
}
