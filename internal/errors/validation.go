package errors

import (
	"net/http"
	"sort"
	"strings"
)

// Validation messages shared by every resource.
const (
	RequiredMessage = "This field is required."
	BlankMessage    = "This field may not be blank."
)

// ValidationError maps field names to their messages. It renders as the
// response body of a 400.
type ValidationError map[string][]string

// Add records msg against field.
func (v ValidationError) Add(field, msg string) {
	v[field] = append(v[field], msg)
}

// Err returns v as an error, or nil when no field failed.
func (v ValidationError) Err() error {
	if len(v) == 0 {
		return nil
	}

	return v
}

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+strings.Join(v[field], " "))
	}

	return "invalid input: " + strings.Join(parts, "; ")
}

func (v ValidationError) Code() int       { return http.StatusBadRequest }
func (v ValidationError) Message() string { return "Invalid input." }
func (v ValidationError) Cause() error    { return nil }
