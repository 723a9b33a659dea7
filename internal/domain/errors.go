package domain

import "errors"

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a request value fails validation
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownField is returned when a deed field name is not one of the editable flat fields
	ErrUnknownField = errors.New("unknown deed field")

	// ErrInvalidTableType is returned when a table type tag is not recognised
	ErrInvalidTableType = errors.New("invalid table type")

	// ErrInvalidDate is returned when a date is neither yyyy-MM-dd nor dd-MM-yyyy
	ErrInvalidDate = errors.New("invalid date")

	// ErrSurveyNoRequired is returned when a property document has no survey number
	ErrSurveyNoRequired = errors.New("Survey No is required") //nolint:staticcheck // user-facing message

	// ErrColumnNameRequired is returned when a custom column name is blank
	ErrColumnNameRequired = errors.New("Column name cannot be empty") //nolint:staticcheck // user-facing message

	// ErrColumnExists is returned when a custom column name is already used in the table
	ErrColumnExists = errors.New("Column already exists") //nolint:staticcheck // user-facing message

	// ErrInvalidColumnPosition is returned when a custom column anchor is unknown
	ErrInvalidColumnPosition = errors.New("invalid column position")

	// ErrUnsupportedTemplate is returned when an uploaded template is not a .docx document
	ErrUnsupportedTemplate = errors.New("unsupported template format")

	// ErrSessionNotFound is returned when a drafting session does not exist or has expired
	ErrSessionNotFound = errors.New("session not found")
)
