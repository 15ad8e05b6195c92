package grid

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/editgrid/internal/column"
)

// Precondition errors returned by engine operations.
var (
	ErrRowNotFound      = errors.New("row not found")
	ErrAlreadyEditing   = errors.New("row is already being edited")
	ErrNotEditing       = errors.New("row is not being edited")
	ErrRowNotEditable   = errors.New("row is not editable")
	ErrFieldNotEditable = errors.New("field is not editable")
	ErrUnknownField     = errors.New("unknown field")
	ErrBatchMode        = errors.New("not available in batch mode")
	ErrNotBatchMode     = errors.New("only available in batch mode")
	ErrNoFactory        = errors.New("no new-row factory configured")
	ErrDuplicateKey     = errors.New("duplicate row key")
	ErrKeyNotAssignable = errors.New("generated key cannot be assigned to the data key field")
)

// RowErrorField is the error map key used by the row-level predicate.
const RowErrorField = "_row"

// RowErrorMessage is recorded when the row-level predicate fails.
const RowErrorMessage = "invalid row"

// RowValidationError reports the failing fields of one row.
type RowValidationError struct {
	Key    string
	Errors []column.FieldError
}

// Error implements the error interface.
func (e *RowValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fmt.Sprintf("%s: %s", fe.Field, fe.Message)
	}
	return fmt.Sprintf("row %s invalid: %s", e.Key, strings.Join(parts, "; "))
}

// BatchValidationError reports every invalid row of a batch.
type BatchValidationError struct {
	Rows []RowValidationError
}

// Error implements the error interface.
func (e *BatchValidationError) Error() string {
	keys := make([]string, len(e.Rows))
	for i, r := range e.Rows {
		keys[i] = r.Key
	}
	return fmt.Sprintf("%d invalid row(s): %s", len(e.Rows), strings.Join(keys, ", "))
}

// IsValidationError reports whether err is a row or batch validation error.
// Uses errors.As to handle wrapped errors.
func IsValidationError(err error) bool {
	var re *RowValidationError
	if errors.As(err, &re) {
		return true
	}
	var be *BatchValidationError
	return errors.As(err, &be)
}
