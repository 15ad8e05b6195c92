package grid

import (
	"fmt"
	"maps"
	"reflect"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// Accessor reads and writes row fields.
type Accessor[T any] interface {
	// Get returns the value of field, or nil when absent.
	Get(row T, field string) any

	// Set writes value to field in place.
	Set(row T, field string, value any)

	// Clone returns a snapshot of row that later Set calls on row do not
	// reach.
	Clone(row T) T

	// Restore overwrites dst's fields with src's, in place.
	Restore(dst, src T)
}

// Record is a row held as a JSON-like map.
type Record = map[string]any

// RecordAccessor accesses Record rows. Fields may be dotted paths into
// nested maps ("security.isin").
type RecordAccessor struct{}

var _ Accessor[Record] = RecordAccessor{}

// Get implements Accessor.
func (RecordAccessor) Get(row Record, field string) any {
	if row == nil {
		return nil
	}
	if !strings.Contains(field, ".") {
		return row[field]
	}
	v, err := jsonpath.Get("$."+field, map[string]any(row))
	if err != nil {
		return nil
	}
	return v
}

// Set implements Accessor. Missing intermediate maps are created.
func (RecordAccessor) Set(row Record, field string, value any) {
	if row == nil {
		return
	}
	parts := strings.Split(field, ".")
	cur := row
	for _, p := range parts[:len(parts)-1] {
		next, ok := cur[p].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[p] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// Clone implements Accessor. Nested maps and slices are copied, since Set
// writes dotted paths into them in place.
func (RecordAccessor) Clone(row Record) Record {
	return DeepCopy(row)
}

// Restore implements Accessor. dst shares no nested maps with src.
func (RecordAccessor) Restore(dst, src Record) {
	clear(dst)
	maps.Copy(dst, DeepCopy(src))
}

// StructAccessor accesses pointer-to-struct rows by json tag or field name.
type StructAccessor[T any] struct {
	fields map[string][]int
}

// NewStructAccessor builds an accessor for T, which must be a pointer to a
// struct.
func NewStructAccessor[T any]() (*StructAccessor[T], error) {
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Pointer || typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("struct accessor: %s is not a pointer to struct", typ)
	}
	a := &StructAccessor[T]{fields: make(map[string][]int)}
	for _, f := range reflect.VisibleFields(typ.Elem()) {
		if !f.IsExported() || f.Anonymous {
			continue
		}
		name := f.Name
		if tag, ok := f.Tag.Lookup("json"); ok {
			if tagName, _, _ := strings.Cut(tag, ","); tagName == "-" {
				continue
			} else if tagName != "" {
				name = tagName
			}
		}
		a.fields[name] = f.Index
	}
	return a, nil
}

// Get implements Accessor.
func (a *StructAccessor[T]) Get(row T, field string) any {
	f, ok := a.field(row, field)
	if !ok {
		return nil
	}
	if f.Kind() == reflect.Pointer && f.IsNil() {
		return nil
	}
	return f.Interface()
}

// Set implements Accessor. Values are converted to the field type when
// possible; nil resets the field to its zero value.
func (a *StructAccessor[T]) Set(row T, field string, value any) {
	f, ok := a.field(row, field)
	if !ok || !f.CanSet() {
		return
	}
	if value == nil {
		f.SetZero()
		return
	}
	v := reflect.ValueOf(value)
	switch {
	case v.Type().AssignableTo(f.Type()):
		f.Set(v)
	case v.Type().ConvertibleTo(f.Type()):
		f.Set(v.Convert(f.Type()))
	case f.Kind() == reflect.Pointer && v.Type().ConvertibleTo(f.Type().Elem()):
		p := reflect.New(f.Type().Elem())
		p.Elem().Set(v.Convert(f.Type().Elem()))
		f.Set(p)
	}
}

// Clone implements Accessor.
func (a *StructAccessor[T]) Clone(row T) T {
	src := reflect.ValueOf(row)
	if src.IsNil() {
		return row
	}
	dst := reflect.New(src.Elem().Type())
	dst.Elem().Set(src.Elem())
	return dst.Interface().(T)
}

// Restore implements Accessor.
func (a *StructAccessor[T]) Restore(dst, src T) {
	d, s := reflect.ValueOf(dst), reflect.ValueOf(src)
	if d.IsNil() || s.IsNil() {
		return
	}
	d.Elem().Set(s.Elem())
}

func (a *StructAccessor[T]) field(row T, field string) (reflect.Value, bool) {
	idx, ok := a.fields[field]
	if !ok {
		return reflect.Value{}, false
	}
	v := reflect.ValueOf(row)
	if v.IsNil() {
		return reflect.Value{}, false
	}
	return v.Elem().FieldByIndex(idx), true
}

// DeepCopy copies a record including nested maps and slices.
func DeepCopy(r Record) Record {
	if r == nil {
		return nil
	}
	return deepCopyValue(r).(map[string]any)
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = deepCopyValue(elem)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = deepCopyValue(elem)
		}
		return out
	default:
		return v
	}
}
