package grid

import (
	"fmt"

	"github.com/roach88/editgrid/internal/column"
)

// ValidateField runs the rule chain of field on an edited row and updates its
// error map. It returns the failure, or nil when the value is valid.
func (e *Engine[T]) ValidateField(row T, field string) (*column.FieldError, error) {
	_, idx, s, err := e.editing(row)
	if err != nil {
		return nil, fmt.Errorf("validate %s: %w", field, err)
	}
	col, ok := e.model.Column(field)
	if !ok {
		return nil, fmt.Errorf("validate %s: %w", field, ErrUnknownField)
	}
	return e.checkField(e.rows[idx], s, col), nil
}

// ValidateRow validates every visible editable column of an edited row and
// the row predicate. It returns the failures in column order.
func (e *Engine[T]) ValidateRow(row T) ([]column.FieldError, error) {
	_, idx, s, err := e.editing(row)
	if err != nil {
		return nil, fmt.Errorf("validate row: %w", err)
	}
	return e.checkRow(e.rows[idx], s), nil
}

func (e *Engine[T]) checkField(row T, s *session[T], col *column.ColumnConfig) *column.FieldError {
	fe := column.Check(col, e.access.Get(row, col.Field))
	if fe == nil {
		delete(s.errors, col.Field)
		return nil
	}
	s.errors[col.Field] = fe.Message
	return fe
}

func (e *Engine[T]) checkRow(row T, s *session[T]) []column.FieldError {
	var errs []column.FieldError
	for i := range e.model.Columns {
		col := &e.model.Columns[i]
		if !col.Visible || col.Edit == nil {
			continue
		}
		if fe := e.checkField(row, s, col); fe != nil {
			errs = append(errs, *fe)
		}
	}

	delete(s.errors, RowErrorField)
	if e.validateRow != nil && !e.validateRow(row) {
		s.errors[RowErrorField] = RowErrorMessage
		errs = append(errs, column.FieldError{Field: RowErrorField, Rule: "row", Message: RowErrorMessage})
	}
	return errs
}
