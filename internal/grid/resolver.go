package grid

import (
	"fmt"
	"slices"

	"github.com/roach88/editgrid/internal/column"
)

// OnFieldChange writes newValue to field of an edited row, then runs the
// column's change hook, clears dependent fields, re-validates field and
// emits fieldValueChange.
func (e *Engine[T]) OnFieldChange(field string, row T, newValue any) error {
	key, idx, s, err := e.editing(row)
	if err != nil {
		return fmt.Errorf("field change %s: %w", field, err)
	}
	col, ok := e.model.Column(field)
	if !ok {
		return fmt.Errorf("field change %s: %w", field, ErrUnknownField)
	}
	stored := e.rows[idx]
	if !e.canEditCell(stored, col) {
		return fmt.Errorf("field change %s on %q: %w", field, key, ErrFieldNotEditable)
	}

	oldValue := e.access.Get(stored, field)
	e.access.Set(stored, field, newValue)
	if col.Edit.OnChange != nil {
		col.Edit.OnChange(stored, field, oldValue, newValue)
	}
	e.resolveDependents(stored, s, field)
	e.checkField(stored, s, col)

	e.emit(Event[T]{
		Type:     EventFieldValueChange,
		Key:      key,
		Row:      stored,
		Index:    idx,
		Field:    field,
		OldValue: oldValue,
		NewValue: newValue,
	})
	return nil
}

// SetField is OnFieldChange with the row first.
func (e *Engine[T]) SetField(row T, field string, value any) error {
	return e.OnFieldChange(field, row, value)
}

// CanEditCell reports whether field of row accepts edits: the column is
// editable and not the data key, the row passes the row gate and the cell
// predicate allows it.
func (e *Engine[T]) CanEditCell(row T, field string) bool {
	col, ok := e.model.Column(field)
	if !ok {
		return false
	}
	return e.canEditCell(row, col)
}

// The data key column is never editable: sessions are indexed by it.
func (e *Engine[T]) canEditCell(row T, col *column.ColumnConfig) bool {
	if col.Edit == nil || col.Field == e.model.DataKey {
		return false
	}
	if e.canEditRow != nil && !e.canEditRow(row) {
		return false
	}
	return col.Edit.CanEdit == nil || col.Edit.CanEdit(row, col.Field)
}

// Options returns the select options of field for row. Edited rows use the
// session cache; other rows resolve fresh.
func (e *Engine[T]) Options(row T, field string) []column.Option {
	col, ok := e.model.Column(field)
	if !ok {
		return []column.Option{}
	}
	s, ok := e.sessions[e.Key(row)]
	if !ok {
		return e.resolveOptions(row, col)
	}
	opts, cached := s.options[field]
	if !cached {
		opts = e.resolveOptions(row, col)
		s.options[field] = opts
	}
	return slices.Clone(opts)
}

// resolveDependents clears every column depending on field, transitively,
// and recomputes their cached options. Each column is visited once.
func (e *Engine[T]) resolveDependents(row T, s *session[T], field string) {
	visited := map[string]bool{field: true}
	queue := []string{field}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, dep := range e.model.Dependents(parent) {
			if visited[dep.Field] {
				continue
			}
			visited[dep.Field] = true

			e.access.Set(row, dep.Field, nil)
			delete(s.errors, dep.Field)
			delete(s.options, dep.Field)
			s.options[dep.Field] = e.resolveOptions(row, dep)
			queue = append(queue, dep.Field)
		}
	}
}

// resolveOptions picks the first configured source: provider, then the
// parent-keyed map, then the static list. A present source never falls
// through, even when it yields nothing.
func (e *Engine[T]) resolveOptions(row T, col *column.ColumnConfig) []column.Option {
	if col.Edit != nil && col.Edit.OptionsProvider != nil {
		if opts := col.Edit.OptionsProvider(row, col.Field); opts != nil {
			return opts
		}
		return []column.Option{}
	}
	if col.Edit != nil && col.Edit.DependsOn != "" && col.Edit.OptionsMap != nil {
		parent := e.access.Get(row, col.Edit.DependsOn)
		if column.IsEmpty(parent) {
			return []column.Option{}
		}
		if opts, ok := col.Edit.OptionsMap[fmt.Sprint(parent)]; ok {
			return slices.Clone(opts)
		}
		return []column.Option{}
	}
	if col.Options == nil {
		return []column.Option{}
	}
	return slices.Clone(col.Options)
}
