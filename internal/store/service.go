package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/roach88/editgrid/internal/crud"
	"github.com/roach88/editgrid/internal/grid"
)

// SyntheticKeyPrefix marks keys the grid generated for unsaved rows. Rows
// saved with such a key get a durable key.
const SyntheticKeyPrefix = "new_"

// TableService persists the rows of one table. It implements
// crud.Service[grid.Record].
type TableService struct {
	store   *Store
	table   string
	dataKey string
	newKey  func() string
}

var _ crud.Service[grid.Record] = (*TableService)(nil)

// ServiceOption configures a TableService.
type ServiceOption func(*TableService)

// WithKeyFunc sets the key generator for new rows. Default: UUIDv7.
func WithKeyFunc(fn func() string) ServiceOption {
	return func(s *TableService) { s.newKey = fn }
}

// NewTableService returns a service for table whose rows are keyed by the
// dataKey field.
func NewTableService(s *Store, table, dataKey string, opts ...ServiceOption) *TableService {
	ts := &TableService{
		store:   s,
		table:   table,
		dataKey: dataKey,
		newKey:  func() string { return uuid.Must(uuid.NewV7()).String() },
	}
	for _, opt := range opts {
		opt(ts)
	}
	return ts
}

// Table returns the table name.
func (ts *TableService) Table() string { return ts.table }

// Read implements crud.Service.
func (ts *TableService) Read(ctx context.Context) ([]grid.Record, error) {
	return ts.store.ListEntities(ctx, ts.table)
}

// Update implements crud.Service. Rows without a key, or with a synthetic
// one, are created under a fresh key. The stored row is returned; the
// argument is not modified.
func (ts *TableService) Update(ctx context.Context, rec grid.Record) (grid.Record, error) {
	out := grid.DeepCopy(rec)
	key := KeyOf(out, ts.dataKey)
	if key == "" || strings.HasPrefix(key, SyntheticKeyPrefix) {
		key = ts.newKey()
		out[ts.dataKey] = key
	}
	if _, err := ts.store.PutEntity(ctx, ts.table, key, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete implements crud.Service.
func (ts *TableService) Delete(ctx context.Context, key string) error {
	return ts.store.DeleteEntity(ctx, ts.table, key)
}

// Key returns the key of rec.
func (ts *TableService) Key(rec grid.Record) string {
	return KeyOf(rec, ts.dataKey)
}

// KeyOf returns the dataKey field of rec as text, or "" when absent.
func KeyOf(rec grid.Record, dataKey string) string {
	v, ok := rec[dataKey]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
