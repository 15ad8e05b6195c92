package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/editgrid/internal/grid"
	"github.com/roach88/editgrid/internal/trace"
)

// marshalRecord converts a row to canonical JSON TEXT for storage.
func marshalRecord(rec grid.Record) (string, error) {
	data, err := trace.Marshal(map[string]any(rec))
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	return string(data), nil
}

// unmarshalRecord parses stored JSON TEXT into a row. Numbers decode as
// float64, matching what a JSON-backed table would deliver to the grid.
func unmarshalRecord(data string) (grid.Record, error) {
	rec := grid.Record{}
	if data == "" || data == "{}" {
		return rec, nil
	}
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// unmarshalObject parses a journal payload. Numbers decode as json.Number so
// sequence values survive exactly.
func unmarshalObject(data string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return obj, nil
}
