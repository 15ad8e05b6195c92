package grid

import "fmt"

// ValidateAllRows validates every edited row (every row in batch mode) in
// collection order. Each invalid row emits validationError; the result is a
// *BatchValidationError listing them, or nil.
func (e *Engine[T]) ValidateAllRows() error {
	var invalid []RowValidationError
	for idx, row := range e.rows {
		key := e.Key(row)
		s, ok := e.sessions[key]
		if !ok {
			continue
		}
		errs := e.checkRow(row, s)
		if len(errs) == 0 {
			continue
		}
		invalid = append(invalid, RowValidationError{Key: key, Errors: errs})
		e.emit(Event[T]{Type: EventValidationError, Key: key, Row: row, Index: idx, Errors: errs})
	}
	if len(invalid) > 0 {
		e.logger.Warn("batch validation failed", "table", e.model.Name, "rows", len(invalid))
		return &BatchValidationError{Rows: invalid}
	}
	return nil
}

// CommitBatch validates all rows and, when valid, takes fresh snapshots and
// clears the new-row flags. It returns the rows to persist in one call.
func (e *Engine[T]) CommitBatch() ([]T, error) {
	if !e.batch {
		return nil, fmt.Errorf("commit batch: %w", ErrNotBatchMode)
	}
	if err := e.ValidateAllRows(); err != nil {
		return nil, fmt.Errorf("commit batch: %w", err)
	}
	for _, row := range e.rows {
		if s, ok := e.sessions[e.Key(row)]; ok {
			s.original = e.access.Clone(row)
			s.isNew = false
		}
	}
	e.logger.Debug("batch committed", "table", e.model.Name, "rows", len(e.rows))
	return e.Rows(), nil
}
