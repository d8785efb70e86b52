package sqlerr

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/deppfellow/classroom/internal/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Matches constraint names following the "<table>_<column>_key" convention.
var uniqueConstraintColumn = regexp.MustCompile(`^[a-z]+_([a-z]+(?:_id)?)_(?:key|ukey)$`)

var titleCaser = cases.Title(language.English)

// ErrCode returns the Code of err, Other when err is not a *Error.
func ErrCode(err error) Code {
	var sqlErr *Error
	if errors.As(err, &sqlErr) {
		return sqlErr.Code
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return MapCode(pgErr.Code)
	}
	return Other
}

// IsUniqueViolation reports whether err was caused by constraint.
// An empty constraint matches any unique violation.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || MapCode(pgErr.Code) != UniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

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

// errorCode builds codes like GRADE_ALREADY_EXISTS.
func errorCode(tableName string, code Code) string {
	domain := strings.ToUpper(singular(tableName))
	if domain == "" {
		domain = "RECORD"
	}

	action := "ERROR"
	switch code {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation, InvalidTextRepresentation, NumericValueOutOfRange:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func friendlyMessage(sqlErr *Error) string {
	entity := entityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entity)
	case UniqueViolation:
		if column := uniqueColumn(sqlErr.ConstraintName); column != "" {
			return fmt.Sprintf("A %s with this %s already exists", entity, humanize(column))
		}
		return fmt.Sprintf("This %s already exists", entity)
	case NotNullViolation:
		if field := humanize(sqlErr.ColumnName); field != "" {
			return fmt.Sprintf("The %s is required", field)
		}
		return "A required value is missing"
	case CheckViolation, NumericValueOutOfRange:
		if field := humanize(sqlErr.ColumnName); field != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", field)
		}
		return "One or more values do not meet required conditions"
	case InvalidTextRepresentation:
		return "One or more values have an invalid format"
	default:
		return "An error occurred while processing your request"
	}
}

// entityName prefers the referenced entity of a "<name>_id" column.
func entityName(tableName, columnName string) string {
	column := strings.ToLower(columnName)
	if strings.HasSuffix(column, "_id") {
		return strings.ToLower(humanize(strings.TrimSuffix(column, "_id")))
	}
	if tableName != "" {
		return strings.ToLower(humanize(singular(tableName)))
	}
	return "record"
}

func singular(name string) string {
	switch {
	case strings.HasSuffix(name, "classes"):
		return strings.TrimSuffix(name, "es")
	case strings.HasSuffix(name, "s") && len(name) > 1:
		return strings.TrimSuffix(name, "s")
	}
	return name
}

func humanize(text string) string {
	if text == "" {
		return ""
	}
	return titleCaser.String(strings.ReplaceAll(text, "_", " "))
}

func uniqueColumn(constraintName string) string {
	if matches := uniqueConstraintColumn.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}
	return ""
}

// HandleError converts err into an *errs.HTTPError.
//
// HTTP errors pass through untouched, constraint violations become 400s,
// missing rows become 404s and everything else is a 500.
func HandleError(err error) error {
	var httpErr *errs.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		sqlErr := ConvertPgError(pgErr)
		code := errorCode(sqlErr.TableName, sqlErr.Code)
		message := friendlyMessage(sqlErr)

		switch sqlErr.Code {
		case ForeignKeyViolation, CheckViolation, UniqueViolation,
			InvalidTextRepresentation, NumericValueOutOfRange:
			return errs.NewBadRequestError(message, true, &code, nil, nil)
		case NotNullViolation:
			fieldErrors := []errs.FieldError{{Field: strings.ToLower(sqlErr.ColumnName), Error: "is required"}}
			return errs.NewBadRequestError(message, true, &code, fieldErrors, nil)
		default:
			return errs.NewInternalServerError()
		}
	}

	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, sql.ErrNoRows) {
		return errs.NewNotFoundError("Resource not found", false, nil)
	}

	return errs.NewInternalServerError()
}
