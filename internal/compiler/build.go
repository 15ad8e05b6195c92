package compiler

import (
	"fmt"
	"regexp"
	"slices"
	"time"

	"github.com/roach88/editgrid/internal/column"
)

// Build converts a validated spec into a column model. Host hooks
// (CanEdit, OptionsProvider, OnChange) are attached afterwards with
// Model.Bind.
func Build(spec *TableSpec) (*column.Model, error) {
	m := &column.Model{
		Name:        spec.Name,
		DataKey:     spec.DataKey,
		Permissions: slices.Clone(spec.Permissions),
		Batch:       spec.Batch,
		Columns:     make([]column.ColumnConfig, 0, len(spec.Columns)),
	}

	for _, cs := range spec.Columns {
		col := column.ColumnConfig{
			Field:     cs.Field,
			HeaderKey: cs.Header,
			DataType:  column.DataType(cs.Type),
			Visible:   cs.Visible,
			Width:     cs.Width,
			Translate: column.TranslateMode(cs.Translate),
			Template:  cs.Template,
			Precision: cs.Precision,
			Currency:  cs.Currency,
			Options:   slices.Clone(cs.Options),
		}
		if cs.Edit != nil {
			edit, err := buildEdit(cs)
			if err != nil {
				return nil, fmt.Errorf("table %s: column %s: %w", spec.Name, cs.Field, err)
			}
			col.Edit = edit
		}
		m.Columns = append(m.Columns, col)
	}
	return m, nil
}

func buildEdit(cs ColumnSpec) (*column.ColumnEditConfig, error) {
	es := cs.Edit
	edit := &column.ColumnEditConfig{
		InputType: column.InputType(es.Input),
		DependsOn: es.DependsOn,
		Required:  es.Required,
		Min:       es.Min,
		Max:       es.Max,
	}
	if len(es.OptionsMap) > 0 {
		edit.OptionsMap = make(map[string][]column.Option, len(es.OptionsMap))
		for k, v := range es.OptionsMap {
			edit.OptionsMap[k] = slices.Clone(v)
		}
	}
	if len(es.Errors) > 0 {
		edit.Errors = make(map[string]string, len(es.Errors))
		for k, v := range es.Errors {
			edit.Errors[k] = v
		}
	}

	if es.MinLength != nil {
		edit.Validation = append(edit.Validation, column.MinLength(*es.MinLength))
	}
	if es.MaxLength != nil {
		edit.Validation = append(edit.Validation, column.MaxLength(*es.MaxLength))
	}
	if es.Pattern != "" {
		re, err := regexp.Compile(es.Pattern)
		if err != nil {
			return nil, fmt.Errorf("pattern: %w", err)
		}
		edit.Validation = append(edit.Validation, column.Pattern(re))
	}
	if es.Strict {
		static := slices.Clone(cs.Options)
		edit.Validation = append(edit.Validation, column.OneOf(func() []column.Option { return static }))
	}

	var err error
	if edit.MinDate, err = parseDate(es.MinDate); err != nil {
		return nil, fmt.Errorf("minDate: %w", err)
	}
	if edit.MaxDate, err = parseDate(es.MaxDate); err != nil {
		return nil, fmt.Errorf("maxDate: %w", err)
	}
	return edit, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(column.DateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CompileModel validates spec and builds its model. Validation failures are
// reported together in an *InvalidTableError.
func CompileModel(spec *TableSpec) (*column.Model, error) {
	if errs := Validate(spec); len(errs) > 0 {
		return nil, &InvalidTableError{Table: spec.Name, Errors: errs}
	}
	return Build(spec)
}

// InvalidTableError carries every validation error of a table.
type InvalidTableError struct {
	Table  string
	Errors []ValidationError
}

func (e *InvalidTableError) Error() string {
	msg := fmt.Sprintf("table %s: %d validation error(s)", e.Table, len(e.Errors))
	for _, ve := range e.Errors {
		msg += "\n  " + ve.Error()
	}
	return msg
}
