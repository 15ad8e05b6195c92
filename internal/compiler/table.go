package compiler

import (
	"encoding/json"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"github.com/shopspring/decimal"

	"github.com/roach88/editgrid/internal/column"
)

// TableSpec is the compiled, serializable form of a table declaration.
type TableSpec struct {
	Name        string       `json:"name"`
	DataKey     string       `json:"dataKey"`
	Permissions []string     `json:"permissions,omitempty"`
	Batch       bool         `json:"batch,omitempty"`
	Columns     []ColumnSpec `json:"columns"`
	Line        int          `json:"-"`
}

// ColumnSpec is one declared column.
type ColumnSpec struct {
	Field     string          `json:"field"`
	Header    string          `json:"header,omitempty"`
	Type      string          `json:"type"`
	Visible   bool            `json:"visible"`
	Width     int             `json:"width,omitempty"`
	Template  string          `json:"template,omitempty"`
	Precision int             `json:"precision,omitempty"`
	Currency  string          `json:"currency,omitempty"`
	Translate string          `json:"translate,omitempty"`
	Options   []column.Option `json:"options,omitempty"`
	Edit      *EditSpec       `json:"edit,omitempty"`
	Line      int             `json:"-"`
}

// EditSpec is the declared edit configuration of a column. Bounds are kept
// as declared; Build parses them.
type EditSpec struct {
	Input      string                     `json:"input,omitempty"`
	Required   bool                       `json:"required,omitempty"`
	Strict     bool                       `json:"strict,omitempty"`
	Min        *decimal.Decimal           `json:"min,omitempty"`
	Max        *decimal.Decimal           `json:"max,omitempty"`
	MinLength  *int                       `json:"minLength,omitempty"`
	MaxLength  *int                       `json:"maxLength,omitempty"`
	Pattern    string                     `json:"pattern,omitempty"`
	MinDate    string                     `json:"minDate,omitempty"`
	MaxDate    string                     `json:"maxDate,omitempty"`
	DependsOn  string                     `json:"dependsOn,omitempty"`
	OptionsMap map[string][]column.Option `json:"optionsMap,omitempty"`
	Errors     map[string]string          `json:"errors,omitempty"`
}

// CompileTable parses a CUE value into a TableSpec.
//
// The CUE value should be the table struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`table: Commission: { ... }`)
//	spec, err := CompileTable(v.LookupPath(cue.ParsePath("table.Commission")))
func CompileTable(v cue.Value) (*TableSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &TableSpec{Line: v.Pos().Line()}
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		spec.Name = labels[len(labels)-1].String()
	}

	var err error
	if spec.DataKey, err = optString(v, "dataKey"); err != nil {
		return nil, err
	}
	if spec.Batch, err = optBool(v, "batch"); err != nil {
		return nil, err
	}
	if spec.Permissions, err = optStrings(v, "permissions"); err != nil {
		return nil, err
	}

	colsVal := v.LookupPath(cue.ParsePath("columns"))
	if !colsVal.Exists() {
		return spec, nil
	}
	iter, err := colsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		col, err := parseColumn(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		spec.Columns = append(spec.Columns, col)
	}
	return spec, nil
}

func parseColumn(field string, v cue.Value) (ColumnSpec, error) {
	col := ColumnSpec{Field: field, Visible: true, Line: v.Pos().Line()}

	var err error
	if col.Header, err = optString(v, "header"); err != nil {
		return col, err
	}
	if col.Type, err = optString(v, "type"); err != nil {
		return col, err
	}
	if col.Type == "" {
		col.Type = string(column.DataTypeString)
	}
	if vis := v.LookupPath(cue.ParsePath("visible")); vis.Exists() {
		if col.Visible, err = vis.Bool(); err != nil {
			return col, formatCUEError(err)
		}
	}
	if col.Width, err = optInt(v, "width"); err != nil {
		return col, err
	}
	if col.Template, err = optString(v, "template"); err != nil {
		return col, err
	}
	if col.Precision, err = optInt(v, "precision"); err != nil {
		return col, err
	}
	if col.Currency, err = optString(v, "currency"); err != nil {
		return col, err
	}
	if col.Translate, err = optString(v, "translate"); err != nil {
		return col, err
	}
	if col.Options, err = parseOptions(v.LookupPath(cue.ParsePath("options"))); err != nil {
		return col, err
	}

	editVal := v.LookupPath(cue.ParsePath("edit"))
	if !editVal.Exists() {
		return col, nil
	}
	edit, static, err := parseEdit(editVal)
	if err != nil {
		return col, err
	}
	col.Edit = edit
	col.Options = append(col.Options, static...)
	return col, nil
}

// parseEdit returns the edit spec and any static options declared under
// edit, which belong to the column.
func parseEdit(v cue.Value) (*EditSpec, []column.Option, error) {
	e := &EditSpec{}

	var err error
	if e.Input, err = optString(v, "input"); err != nil {
		return nil, nil, err
	}
	if e.Required, err = optBool(v, "required"); err != nil {
		return nil, nil, err
	}
	if e.Strict, err = optBool(v, "strict"); err != nil {
		return nil, nil, err
	}
	if e.Min, err = optDecimal(v, "min"); err != nil {
		return nil, nil, err
	}
	if e.Max, err = optDecimal(v, "max"); err != nil {
		return nil, nil, err
	}
	if e.MinLength, err = optIntPtr(v, "minLength"); err != nil {
		return nil, nil, err
	}
	if e.MaxLength, err = optIntPtr(v, "maxLength"); err != nil {
		return nil, nil, err
	}
	if e.Pattern, err = optString(v, "pattern"); err != nil {
		return nil, nil, err
	}
	if e.MinDate, err = optString(v, "minDate"); err != nil {
		return nil, nil, err
	}
	if e.MaxDate, err = optString(v, "maxDate"); err != nil {
		return nil, nil, err
	}
	if e.DependsOn, err = optString(v, "dependsOn"); err != nil {
		return nil, nil, err
	}

	if mapVal := v.LookupPath(cue.ParsePath("optionsMap")); mapVal.Exists() {
		iter, err := mapVal.Fields()
		if err != nil {
			return nil, nil, formatCUEError(err)
		}
		e.OptionsMap = make(map[string][]column.Option)
		for iter.Next() {
			opts, err := parseOptions(iter.Value())
			if err != nil {
				return nil, nil, err
			}
			e.OptionsMap[iter.Label()] = opts
		}
	}

	if errVal := v.LookupPath(cue.ParsePath("errors")); errVal.Exists() {
		iter, err := errVal.Fields()
		if err != nil {
			return nil, nil, formatCUEError(err)
		}
		e.Errors = make(map[string]string)
		for iter.Next() {
			msg, err := iter.Value().String()
			if err != nil {
				return nil, nil, formatCUEError(err)
			}
			e.Errors[iter.Label()] = msg
		}
	}

	static, err := parseOptions(v.LookupPath(cue.ParsePath("options")))
	if err != nil {
		return nil, nil, err
	}
	return e, static, nil
}

// parseOptions reads a list of {key, value} structs. Keys may be strings,
// integers or booleans; value defaults to the key's text.
func parseOptions(v cue.Value) ([]column.Option, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var opts []column.Option
	for iter.Next() {
		item := iter.Value()
		keyVal := item.LookupPath(cue.ParsePath("key"))
		if !keyVal.Exists() {
			return nil, &CompileError{Field: "options", Message: "option key is required", Pos: item.Pos()}
		}
		var key any
		switch keyVal.IncompleteKind() {
		case cue.StringKind:
			key, err = keyVal.String()
		case cue.IntKind:
			key, err = keyVal.Int64()
		case cue.BoolKind:
			key, err = keyVal.Bool()
		default:
			return nil, &CompileError{
				Field:   "options",
				Message: fmt.Sprintf("option key must be string, int or bool, got %v", keyVal.IncompleteKind()),
				Pos:     keyVal.Pos(),
			}
		}
		if err != nil {
			return nil, formatCUEError(err)
		}
		label, err := optString(item, "value")
		if err != nil {
			return nil, err
		}
		if label == "" {
			label = fmt.Sprint(key)
		}
		opts = append(opts, column.Option{Key: key, Value: label})
	}
	return opts, nil
}

func optString(v cue.Value, path string) (string, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return "", nil
	}
	s, err := f.String()
	if err != nil {
		return "", &CompileError{Field: path, Message: "must be a string", Pos: f.Pos()}
	}
	return s, nil
}

func optBool(v cue.Value, path string) (bool, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return false, nil
	}
	b, err := f.Bool()
	if err != nil {
		return false, &CompileError{Field: path, Message: "must be a bool", Pos: f.Pos()}
	}
	return b, nil
}

func optInt(v cue.Value, path string) (int, error) {
	p, err := optIntPtr(v, path)
	if err != nil || p == nil {
		return 0, err
	}
	return *p, nil
}

func optIntPtr(v cue.Value, path string) (*int, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return nil, nil
	}
	n, err := f.Int64()
	if err != nil {
		return nil, &CompileError{Field: path, Message: "must be an integer", Pos: f.Pos()}
	}
	i := int(n)
	return &i, nil
}

// optDecimal reads a number exactly, through its JSON text.
func optDecimal(v cue.Value, path string) (*decimal.Decimal, error) {
	f := v.LookupPath(cue.ParsePath(path))
	if !f.Exists() {
		return nil, nil
	}
	k := f.IncompleteKind()
	if k&cue.NumberKind == 0 || k&^cue.NumberKind != 0 {
		return nil, &CompileError{Field: path, Message: "must be a number", Pos: f.Pos()}
	}
	data, err := f.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err)
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return nil, &CompileError{Field: path, Message: err.Error(), Pos: f.Pos()}
	}
	d, err := decimal.NewFromString(num.String())
	if err != nil {
		return nil, &CompileError{Field: path, Message: err.Error(), Pos: f.Pos()}
	}
	return &d, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
