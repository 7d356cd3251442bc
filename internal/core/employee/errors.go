package employee

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRecord      = errors.New("employee: invalid record")
	ErrInvalidEmail       = errors.New("employee: invalid email")
	ErrInvalidRole        = errors.New("employee: invalid role")
	ErrInvalidSalary      = errors.New("employee: invalid salary")
	ErrInvalidStatus      = errors.New("employee: invalid status")
	ErrInvalidName        = errors.New("employee: invalid name")
	ErrInvalidCompanyName = errors.New("employee: invalid company name")
	ErrInvalidPageSize    = errors.New("employee: invalid page size")
	ErrInvalidPageToken   = errors.New("employee: invalid page token")
	ErrEmailImmutable     = errors.New("employee: email cannot be changed")
	ErrEmployeeNotFound   = errors.New("employee: not found")
	ErrDuplicateEmail     = errors.New("employee: email already exists")
)

// ValidationError は 1 レコードの検証失敗を表します。
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap により errors.Is(err, ErrInvalidRecord) が成立します。
func (e *ValidationError) Unwrap() error {
	return ErrInvalidRecord
}

func missingField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("missing required field: %s", field)}
}

func invalidField(field, value, format string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: fmt.Sprintf(format, value)}
}
