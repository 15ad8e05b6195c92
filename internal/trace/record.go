package trace

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/editgrid/internal/grid"
)

// DomainEvent separates event IDs from other hashes. The version suffix
// allows the ID scheme to change without colliding with stored IDs.
const DomainEvent = "editgrid/event/v1"

// Record is the serialized form of one grid event.
type Record struct {
	ID      string
	Session string
	Seq     int64
	Type    grid.EventType
	Key     string
	Index   int
	IsNew   bool
	Field   string
	Old     any
	New     any
	Row     any
	Errors  map[string]string
}

// FromEvent converts ev into a record of session. Rows are reduced to
// JSON-like values so the record does not alias engine state.
func FromEvent[T any](session string, ev grid.Event[T]) (Record, error) {
	row, err := toPlain(ev.Row)
	if err != nil {
		return Record{}, fmt.Errorf("%s row: %w", ev.Type, err)
	}
	rec := Record{
		Session: session,
		Seq:     ev.Seq,
		Type:    ev.Type,
		Key:     ev.Key,
		Index:   ev.Index,
		IsNew:   ev.IsNew,
		Field:   ev.Field,
		Row:     row,
	}
	if ev.Type == grid.EventFieldValueChange {
		if rec.Old, err = toPlain(ev.OldValue); err != nil {
			return Record{}, fmt.Errorf("%s old value: %w", ev.Type, err)
		}
		if rec.New, err = toPlain(ev.NewValue); err != nil {
			return Record{}, fmt.Errorf("%s new value: %w", ev.Type, err)
		}
	}
	if len(ev.Errors) > 0 {
		rec.Errors = make(map[string]string, len(ev.Errors))
		for _, fe := range ev.Errors {
			rec.Errors[fe.Field] = fe.Message
		}
	}
	rec.ID, err = EventID(rec)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Object returns the record as a JSON object. Type-specific fields are
// present only for the event types that carry them.
func (r Record) Object() map[string]any {
	obj := map[string]any{
		"session": r.Session,
		"seq":     r.Seq,
		"type":    string(r.Type),
		"key":     r.Key,
		"index":   r.Index,
		"row":     r.Row,
	}
	if r.ID != "" {
		obj["id"] = r.ID
	}
	switch r.Type {
	case grid.EventRowEditSave, grid.EventRowAdded:
		obj["isNew"] = r.IsNew
	case grid.EventFieldValueChange:
		obj["field"] = r.Field
		obj["old"] = r.Old
		obj["new"] = r.New
	case grid.EventValidationError:
		errs := make(map[string]any, len(r.Errors))
		for k, v := range r.Errors {
			errs[k] = v
		}
		obj["errors"] = errs
	}
	return obj
}

// Canonical returns the canonical JSON of the record.
func (r Record) Canonical() ([]byte, error) {
	return Marshal(r.Object())
}

// EventID computes the content-addressed ID of r, ignoring r.ID.
func EventID(r Record) (string, error) {
	r.ID = ""
	data, err := r.Canonical()
	if err != nil {
		return "", fmt.Errorf("event id: %w", err)
	}
	return hashWithDomain(DomainEvent, data), nil
}

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ParseObject rebuilds a record from its JSON object form.
func ParseObject(obj map[string]any) (Record, error) {
	str := func(k string) string {
		s, _ := obj[k].(string)
		return s
	}
	num := func(k string) (int64, error) {
		switch v := obj[k].(type) {
		case nil:
			return 0, nil
		case float64:
			return int64(v), nil
		case int64:
			return v, nil
		case int:
			return int64(v), nil
		case interface{ Int64() (int64, error) }:
			return v.Int64()
		default:
			return 0, fmt.Errorf("field %q: not an integer: %T", k, v)
		}
	}

	seq, err := num("seq")
	if err != nil {
		return Record{}, err
	}
	index, err := num("index")
	if err != nil {
		return Record{}, err
	}
	rec := Record{
		ID:      str("id"),
		Session: str("session"),
		Seq:     seq,
		Type:    grid.EventType(str("type")),
		Key:     str("key"),
		Index:   int(index),
		Field:   str("field"),
		Old:     obj["old"],
		New:     obj["new"],
		Row:     obj["row"],
	}
	rec.IsNew, _ = obj["isNew"].(bool)
	if errs, ok := obj["errors"].(map[string]any); ok {
		rec.Errors = make(map[string]string, len(errs))
		for k, v := range errs {
			rec.Errors[k] = fmt.Sprint(v)
		}
	}
	return rec, nil
}
