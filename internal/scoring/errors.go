package scoring

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput is matched by every validation failure returned by Score.
var ErrInvalidInput = errors.New("invalid input")

// FieldError describes one rejected applicant field.
type FieldError struct {
	Field  string
	Reason string
}

// InvalidInputError lists every field that failed validation, in field order.
type InvalidInputError struct {
	Fields []FieldError
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s %s", f.Field, f.Reason)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ValidationFields exposes the failures as field -> reason.
func (e *InvalidInputError) ValidationFields() map[string]string {
	out := make(map[string]string, len(e.Fields))
	for _, f := range e.Fields {
		out[f.Field] = f.Reason
	}
	return out
}
