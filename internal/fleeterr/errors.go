// Package fleeterr defines the error taxonomy shared by the decoders, the
// storage gateway, the history engine and the HTTP layer.
package fleeterr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure independent of its message. Kinds are usable as
// errors.Is targets.
type Kind int

const (
	KindInternal Kind = iota
	KindSchemaValidation
	KindSchemaVersionMismatch
	KindUnsupportedSchema
	KindNotFound
	KindConflict
	KindValidation
	KindNotAuthenticated
	KindForbidden
)

var kindNames = map[Kind]string{
	KindInternal:              "internal error",
	KindSchemaValidation:      "schema validation error",
	KindSchemaVersionMismatch: "schema version mismatch",
	KindUnsupportedSchema:     "unsupported schema",
	KindNotFound:              "not found",
	KindConflict:              "conflict",
	KindValidation:            "validation error",
	KindNotAuthenticated:      "not authenticated",
	KindForbidden:             "forbidden",
}

func (k Kind) Error() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Status maps the kind to an HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindSchemaValidation, KindSchemaVersionMismatch, KindUnsupportedSchema, KindValidation:
		return http.StatusUnprocessableEntity
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindNotAuthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Code is the machine readable error code returned to clients.
type Code string

const (
	CodeAllianceNotFound          Code = "ALLIANCE_NOT_FOUND"
	CodeCollectionNotFound        Code = "COLLECTION_NOT_FOUND"
	CodeCollectionNotDeleted      Code = "COLLECTION_NOT_DELETED"
	CodeConflict                  Code = "CONFLICT"
	CodeForbidden                 Code = "FORBIDDEN"
	CodeFromDateAfterToDate       Code = "FROM_DATE_AFTER_TO_DATE"
	CodeInvalidJSONFormat         Code = "INVALID_JSON_FORMAT"
	CodeInvalidParameter          Code = "INVALID_PARAMETER"
	CodeNonUniqueTimestamp        Code = "NON_UNIQUE_TIMESTAMP"
	CodeNotAuthenticated          Code = "NOT_AUTHENTICATED"
	CodeNotFound                  Code = "NOT_FOUND"
	CodeParameterAllianceID       Code = "PARAMETER_ALLIANCE_ID_INVALID"
	CodeParameterCollectionID     Code = "PARAMETER_COLLECTION_ID_INVALID"
	CodeParameterDesc             Code = "PARAMETER_DESC_INVALID"
	CodeParameterFromDate         Code = "PARAMETER_FROM_DATE_INVALID"
	CodeParameterFromDateTooEarly Code = "PARAMETER_FROM_DATE_TOO_EARLY"
	CodeParameterInterval         Code = "PARAMETER_INTERVAL_INVALID"
	CodeParameterSkip             Code = "PARAMETER_SKIP_INVALID"
	CodeParameterTake             Code = "PARAMETER_TAKE_INVALID"
	CodeParameterToDate           Code = "PARAMETER_TO_DATE_INVALID"
	CodeParameterToDateTooEarly   Code = "PARAMETER_TO_DATE_TOO_EARLY"
	CodeParameterUserID           Code = "PARAMETER_USER_ID_INVALID"
	CodeSchemaValidation          Code = "INVALID_PARAMETER_VALUE"
	CodeSchemaVersionMismatch     Code = "SCHEMA_VERSION_MISMATCH"
	CodeServerError               Code = "SERVER_ERROR"
	CodeUnsupportedSchema         Code = "UNSUPPORTED_SCHEMA"
	CodeUserNotFound              Code = "USER_NOT_FOUND"
)

// Error is a classified failure carrying everything the API reports.
type Error struct {
	Kind       Kind
	Code       Code
	Message    string
	Details    string
	Suggestion string
	Err        error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches Kind sentinels, so errors.Is(err, KindNotFound) works through
// any amount of wrapping.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// WithSuggestion returns a copy of e carrying a hint for the client.
func (e *Error) WithSuggestion(format string, args ...any) *Error {
	c := *e
	c.Suggestion = fmt.Sprintf(format, args...)
	return &c
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	c := *e
	c.Err = cause
	return &c
}

// New builds an Error of the given kind.
func New(kind Kind, code Code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf builds an Error whose details are formatted.
func Newf(kind Kind, code Code, message, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Details: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindInternal for unclassified errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindInternal
}

// SchemaValidation reports a payload that does not match its declared shape.
func SchemaValidation(format string, args ...any) *Error {
	return Newf(KindSchemaValidation, CodeSchemaValidation, "The uploaded data is not valid", format, args...).
		WithSuggestion("Check the payload against the schema description of its declared schema version.")
}

// SchemaVersionMismatch reports a payload whose shape belongs to another version.
func SchemaVersionMismatch(format string, args ...any) *Error {
	return Newf(KindSchemaVersionMismatch, CodeSchemaVersionMismatch, "The declared schema version does not match the data", format, args...).
		WithSuggestion("Set meta.schema_version to the version the data was recorded with.")
}

// UnsupportedSchema reports a version outside the supported table.
func UnsupportedSchema(format string, args ...any) *Error {
	return Newf(KindUnsupportedSchema, CodeUnsupportedSchema, "The schema of the uploaded data is not supported", format, args...).
		WithSuggestion("Upload data of schema version 2 to 9 with a metadata block.")
}

// Validation reports an out of range or malformed request parameter.
func Validation(code Code, format string, args ...any) *Error {
	return Newf(KindValidation, code, "A parameter is invalid", format, args...)
}

// Conflict reports a uniqueness or identity violation.
func Conflict(code Code, format string, args ...any) *Error {
	return Newf(KindConflict, code, "The request conflicts with existing data", format, args...)
}

// NotFound reports a missing entity.
func NotFound(code Code, format string, args ...any) *Error {
	return Newf(KindNotFound, code, "The requested resource could not be found", format, args...)
}

// Internal wraps an unexpected failure.
func Internal(cause error, format string, args ...any) *Error {
	e := Newf(KindInternal, CodeServerError, "An internal server error occurred", format, args...)
	e.Err = cause
	return e
}

// CollectionNotFound is returned for unknown collection IDs.
func CollectionNotFound(collectionID int64) *Error {
	return NotFound(CodeCollectionNotFound, "a Collection with the ID %d does not exist", collectionID).
		WithSuggestion("List the available collections via GET /collections.")
}

// AllianceNotFound is returned when an alliance has no data at all or none
// within the requested collection.
func AllianceNotFound(allianceID int64) *Error {
	return NotFound(CodeAllianceNotFound, "an Alliance with the ID %d could not be found", allianceID)
}

// UserNotFound is returned when a user has no data at all or none within the
// requested collection.
func UserNotFound(userID int64) *Error {
	return NotFound(CodeUserNotFound, "a User with the ID %d could not be found", userID)
}
