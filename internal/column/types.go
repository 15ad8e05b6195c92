package column

import (
	"time"

	"github.com/shopspring/decimal"
)

// DataType is the value type of a column.
type DataType string

const (
	DataTypeString  DataType = "string"
	DataTypeNumeric DataType = "numeric"
	DataTypeInteger DataType = "integer"
	DataTypeDate    DataType = "date"
	DataTypeBoolean DataType = "boolean"
	DataTypeRaw     DataType = "raw"
)

// ValidDataTypes lists the accepted data types in declaration order.
var ValidDataTypes = []DataType{
	DataTypeString, DataTypeNumeric, DataTypeInteger, DataTypeDate, DataTypeBoolean, DataTypeRaw,
}

// InputType is the kind of editor a cell uses while its row is edited.
type InputType string

const (
	InputText     InputType = "text"
	InputNumber   InputType = "number"
	InputDate     InputType = "date"
	InputCheckbox InputType = "checkbox"
	InputSelect   InputType = "select"
)

// ValidInputTypes lists the accepted input types.
var ValidInputTypes = []InputType{InputText, InputNumber, InputDate, InputCheckbox, InputSelect}

// TranslateMode controls whether a cell value is a translation key.
type TranslateMode string

const (
	TranslateNone      TranslateMode = ""
	TranslateNormal    TranslateMode = "normal"
	TranslateUpperCase TranslateMode = "uppercase"
)

// Option is one entry of a select input.
type Option struct {
	Key   any    `json:"key"`
	Value string `json:"value"`
}

// ColumnConfig describes one column of a table.
type ColumnConfig struct {
	Field     string        `json:"field"`
	HeaderKey string        `json:"header"`
	DataType  DataType      `json:"type"`
	Visible   bool          `json:"visible"`
	Width     int           `json:"width,omitempty"`
	Translate TranslateMode `json:"translate,omitempty"`

	// Template names the renderer; empty means the data type's default.
	Template  string `json:"template,omitempty"`
	Precision int    `json:"precision,omitempty"`
	Currency  string `json:"currency,omitempty"`

	// Options are the static select options (value/key list).
	Options []Option `json:"options,omitempty"`

	// Edit is nil for columns that are never editable.
	Edit *ColumnEditConfig `json:"edit,omitempty"`
}

// ColumnEditConfig describes how a column behaves while its row is edited.
type ColumnEditConfig struct {
	// InputType overrides the inferred input kind.
	InputType InputType `json:"input,omitempty"`

	// CanEdit reports whether the cell is editable for a given row.
	CanEdit func(row any, field string) bool `json:"-"`

	// DependsOn names the parent field of a dependent dropdown.
	DependsOn string `json:"dependsOn,omitempty"`

	// OptionsMap maps the parent's value (formatted with fmt) to options.
	OptionsMap map[string][]Option `json:"optionsMap,omitempty"`

	// OptionsProvider computes options dynamically. When set it wins over
	// OptionsMap and static options, even if it returns nothing.
	OptionsProvider func(row any, field string) []Option `json:"-"`

	Required   bool              `json:"required,omitempty"`
	Validation []Rule            `json:"-"`
	Errors     map[string]string `json:"errors,omitempty"`

	Min     *decimal.Decimal `json:"min,omitempty"`
	Max     *decimal.Decimal `json:"max,omitempty"`
	MinDate *time.Time       `json:"minDate,omitempty"`
	MaxDate *time.Time       `json:"maxDate,omitempty"`

	// OnChange runs after a value is written, before dependents are cleared.
	OnChange func(row any, field string, oldValue, newValue any) `json:"-"`
}

// Editable reports whether the column has an edit configuration.
func (c *ColumnConfig) Editable() bool {
	return c.Edit != nil
}

// EffectiveInputType returns the explicit input type or infers one from the
// data type and the option sources.
func (c *ColumnConfig) EffectiveInputType() InputType {
	if c.Edit != nil && c.Edit.InputType != "" {
		return c.Edit.InputType
	}
	if c.HasOptionSource() {
		return InputSelect
	}
	switch c.DataType {
	case DataTypeNumeric, DataTypeInteger:
		return InputNumber
	case DataTypeDate:
		return InputDate
	case DataTypeBoolean:
		return InputCheckbox
	default:
		return InputText
	}
}

// HasOptionSource reports whether any select option source is configured.
func (c *ColumnConfig) HasOptionSource() bool {
	if len(c.Options) > 0 {
		return true
	}
	if c.Edit == nil {
		return false
	}
	return c.Edit.OptionsProvider != nil || c.Edit.DependsOn != "" || len(c.Edit.OptionsMap) > 0
}

// IsSelect reports whether the column edits through a select input.
func (c *ColumnConfig) IsSelect() bool {
	return c.Edit != nil && c.EffectiveInputType() == InputSelect
}

// Rules returns the ordered rule chain: required first, then the explicit
// rules, then rules derived from numeric and date bounds.
func (e *ColumnEditConfig) Rules() []Rule {
	if e == nil {
		return nil
	}
	rules := make([]Rule, 0, len(e.Validation)+5)
	if e.Required {
		rules = append(rules, Required())
	}
	rules = append(rules, e.Validation...)
	if e.Min != nil {
		rules = append(rules, Min(*e.Min))
	}
	if e.Max != nil {
		rules = append(rules, Max(*e.Max))
	}
	if e.MinDate != nil {
		rules = append(rules, MinDate(*e.MinDate))
	}
	if e.MaxDate != nil {
		rules = append(rules, MaxDate(*e.MaxDate))
	}
	return rules
}
