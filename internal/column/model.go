package column

import "fmt"

// Model is the column model of one table.
type Model struct {
	// Name is the table name, e.g. "Dividend".
	Name string `json:"name"`

	// DataKey is the field identifying a row.
	DataKey string `json:"dataKey"`

	// Permissions are the CRUD permission names granted to the table.
	Permissions []string `json:"permissions,omitempty"`

	// Batch marks tables edited as a whole rather than row by row.
	Batch bool `json:"batch,omitempty"`

	// Columns in display order.
	Columns []ColumnConfig `json:"columns"`
}

// Column returns the column for field.
func (m *Model) Column(field string) (*ColumnConfig, bool) {
	for i := range m.Columns {
		if m.Columns[i].Field == field {
			return &m.Columns[i], true
		}
	}
	return nil, false
}

// Fields returns the column fields in display order.
func (m *Model) Fields() []string {
	fields := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		fields[i] = c.Field
	}
	return fields
}

// Dependents returns the columns whose dropdown depends on field, in
// declaration order.
func (m *Model) Dependents(field string) []*ColumnConfig {
	var deps []*ColumnConfig
	for i := range m.Columns {
		c := &m.Columns[i]
		if c.Edit != nil && c.Edit.DependsOn == field {
			deps = append(deps, c)
		}
	}
	return deps
}

// SelectColumns returns the editable columns using a select input.
func (m *Model) SelectColumns() []*ColumnConfig {
	var cols []*ColumnConfig
	for i := range m.Columns {
		if m.Columns[i].IsSelect() {
			cols = append(cols, &m.Columns[i])
		}
	}
	return cols
}

// Bind attaches host hooks (CanEdit, OptionsProvider, OnChange, extra rules)
// to the edit configuration of field. Columns compiled from declarations
// carry data only; hooks are bound afterwards.
func (m *Model) Bind(field string, fn func(*ColumnEditConfig)) error {
	c, ok := m.Column(field)
	if !ok {
		return fmt.Errorf("bind %q: unknown column", field)
	}
	if c.Edit == nil {
		c.Edit = &ColumnEditConfig{}
	}
	fn(c.Edit)
	return nil
}

// HasPermission reports whether the table grants the named permission.
func (m *Model) HasPermission(name string) bool {
	for _, p := range m.Permissions {
		if p == name {
			return true
		}
	}
	return false
}
