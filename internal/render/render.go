// Package render turns cell values into display strings.
//
// A Registry maps template names to renderer factories. Each column resolves
// its renderer once, through Compile, from its Template (or the default
// template of its data type), precision, currency and translation mode.
package render

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/editgrid/internal/column"
	"github.com/roach88/editgrid/internal/grid"
)

// Template names registered by NewRegistry.
const (
	TemplateText       = "text"
	TemplateNumeric    = "numeric"
	TemplateInteger    = "integer"
	TemplatePercent    = "percent"
	TemplateMoney      = "money"
	TemplateDate       = "date"
	TemplateBoolean    = "boolean"
	TemplateTranslated = "translated"
)

// Renderer formats one cell value. Nil values render as "".
type Renderer func(value any) string

// Factory builds the renderer of a column.
type Factory func(col *column.ColumnConfig, tr Translator) Renderer

// Translator resolves translation keys. Unknown keys are returned unchanged.
type Translator interface {
	Translate(key string) string
}

// TranslatorFunc adapts a function to Translator.
type TranslatorFunc func(key string) string

// Translate implements Translator.
func (f TranslatorFunc) Translate(key string) string { return f(key) }

// MapTranslator translates from a fixed key table.
type MapTranslator map[string]string

// Translate implements Translator.
func (m MapTranslator) Translate(key string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return key
}

type identity struct{}

func (identity) Translate(key string) string { return key }

// UnknownTemplateError is returned when a column names a template that is
// not registered.
type UnknownTemplateError struct {
	Field    string
	Template string
}

// Error implements the error interface.
func (e *UnknownTemplateError) Error() string {
	return fmt.Sprintf("column %q: unknown template %q", e.Field, e.Template)
}

// Registry maps template names to factories. It is safe for concurrent use.
type Registry struct {
	mu         sync.RWMutex
	factories  map[string]Factory
	translator Translator
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithTranslator sets the translator used for headers, translated cells and
// select labels. Default: identity.
func WithTranslator(tr Translator) RegistryOption {
	return func(r *Registry) { r.translator = tr }
}

// NewRegistry returns a registry holding the built-in templates.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		factories: map[string]Factory{
			TemplateText:       textFactory,
			TemplateNumeric:    numericFactory,
			TemplateInteger:    integerFactory,
			TemplatePercent:    percentFactory,
			TemplateMoney:      moneyFactory,
			TemplateDate:       dateFactory,
			TemplateBoolean:    booleanFactory,
			TemplateTranslated: translatedFactory,
		},
		translator: identity{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces a template.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Templates returns the registered template names, sorted.
func (r *Registry) Templates() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for n := range r.factories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Translator returns the registry's translator.
func (r *Registry) Translator() Translator { return r.translator }

// Compile resolves the renderer of col. Select columns with static options
// show the option label instead of the stored key.
func (r *Registry) Compile(col *column.ColumnConfig) (Renderer, error) {
	name := TemplateFor(col)

	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTemplateError{Field: col.Field, Template: name}
	}

	base := f(col, r.translator)
	if col.Template == "" && len(col.Options) > 0 {
		return optionLabel(col.Options, base, r.translator), nil
	}
	if col.Translate != column.TranslateNone && name != TemplateTranslated {
		return translated(col.Translate, r.translator, base), nil
	}
	return base, nil
}

// TemplateFor returns the template a column renders with.
func TemplateFor(col *column.ColumnConfig) string {
	if col.Template != "" {
		return col.Template
	}
	switch col.DataType {
	case column.DataTypeNumeric:
		if col.Currency != "" {
			return TemplateMoney
		}
		return TemplateNumeric
	case column.DataTypeInteger:
		return TemplateInteger
	case column.DataTypeDate:
		return TemplateDate
	case column.DataTypeBoolean:
		return TemplateBoolean
	default:
		return TemplateText
	}
}

// Table holds the compiled renderers of a model's visible columns.
type Table struct {
	Columns   []*column.ColumnConfig
	Headers   []string
	renderers []Renderer
}

// NewTable compiles every visible column of model.
func (r *Registry) NewTable(model *column.Model) (*Table, error) {
	t := &Table{}
	for i := range model.Columns {
		col := &model.Columns[i]
		if !col.Visible {
			continue
		}
		rnd, err := r.Compile(col)
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", model.Name, err)
		}
		t.Columns = append(t.Columns, col)
		t.Headers = append(t.Headers, r.translator.Translate(col.HeaderKey))
		t.renderers = append(t.renderers, rnd)
	}
	return t, nil
}

// Row renders row's visible cells in column order.
func Row[T any](t *Table, access grid.Accessor[T], row T) []string {
	cells := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		cells[i] = t.renderers[i](access.Get(row, col.Field))
	}
	return cells
}

// Rows renders every row.
func Rows[T any](t *Table, access grid.Accessor[T], rows []T) [][]string {
	out := make([][]string, len(rows))
	for i, row := range rows {
		out[i] = Row(t, access, row)
	}
	return out
}

func optionLabel(options []column.Option, fallback Renderer, tr Translator) Renderer {
	labels := make(map[string]string, len(options))
	for _, o := range options {
		labels[fmt.Sprint(o.Key)] = o.Value
	}
	return func(v any) string {
		if v == nil {
			return ""
		}
		if label, ok := labels[fmt.Sprint(v)]; ok {
			return tr.Translate(label)
		}
		return fallback(v)
	}
}

func translated(mode column.TranslateMode, tr Translator, base Renderer) Renderer {
	upper := cases.Upper(language.Und)
	return func(v any) string {
		key := base(v)
		if key == "" {
			return ""
		}
		if mode == column.TranslateUpperCase {
			key = upper.String(key)
		}
		return tr.Translate(key)
	}
}

func translatedFactory(col *column.ColumnConfig, tr Translator) Renderer {
	mode := col.Translate
	if mode == column.TranslateNone {
		mode = column.TranslateNormal
	}
	return translated(mode, tr, plain)
}

func textFactory(*column.ColumnConfig, Translator) Renderer { return plain }

func plain(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case fmt.Stringer:
		return val.String()
	default:
		return strings.TrimSpace(fmt.Sprint(val))
	}
}
