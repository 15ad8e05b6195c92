package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/editgrid/internal/crud"
	"github.com/roach88/editgrid/internal/grid"
)

// ListEntities returns the rows of table in insertion order.
func (s *Store) ListEntities(ctx context.Context, table string) ([]grid.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM entities
		WHERE table_name = ?
		ORDER BY seq ASC, key ASC COLLATE BINARY
	`, table)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var out []grid.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		rec, err := unmarshalRecord(data)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", table, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return out, nil
}

// GetEntity returns the row of table with key, or ErrNotFound.
func (s *Store) GetEntity(ctx context.Context, table, key string) (grid.Record, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `
		SELECT data FROM entities WHERE table_name = ? AND key = ?
	`, table, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get %s %q: %w", table, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s %q: %w", table, key, err)
	}
	return unmarshalRecord(data)
}

// CountEntities returns the number of rows in table.
func (s *Store) CountEntities(ctx context.Context, table string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM entities WHERE table_name = ?
	`, table).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// PutEntity inserts or replaces the row of table with key. Inserts beyond
// the table's row limit fail with *crud.LimitExceededError; updates of
// existing rows are always allowed. It reports whether a row was created.
func (s *Store) PutEntity(ctx context.Context, table, key string, rec grid.Record) (bool, error) {
	data, err := marshalRecord(rec)
	if err != nil {
		return false, fmt.Errorf("put %s %q: %w", table, key, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("put %s %q: %w", table, key, err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE entities SET data = ? WHERE table_name = ? AND key = ?
	`, data, table, key)
	if err != nil {
		return false, fmt.Errorf("put %s %q: %w", table, key, err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, tx.Commit()
	}

	limit, ok, err := readLimit(ctx, tx, table)
	if err != nil {
		return false, fmt.Errorf("put %s %q: %w", table, key, err)
	}
	if ok {
		var count int
		if err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM entities WHERE table_name = ?
		`, table).Scan(&count); err != nil {
			return false, fmt.Errorf("put %s %q: %w", table, key, err)
		}
		if count >= limit {
			return false, &crud.LimitExceededError{Entity: table, Limit: limit}
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO entities (table_name, key, data, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM entities WHERE table_name = ?))
	`, table, key, data, table); err != nil {
		return false, fmt.Errorf("put %s %q: %w", table, key, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("put %s %q: %w", table, key, err)
	}
	return true, nil
}

// DeleteEntity removes the row of table with key, or returns ErrNotFound.
func (s *Store) DeleteEntity(ctx context.Context, table, key string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM entities WHERE table_name = ? AND key = ?
	`, table, key)
	if err != nil {
		return fmt.Errorf("delete %s %q: %w", table, key, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s %q: %w", table, key, ErrNotFound)
	}
	return nil
}

// SetLimit sets the maximum row count of table. A negative maxRows removes
// the limit.
func (s *Store) SetLimit(ctx context.Context, table string, maxRows int) error {
	var err error
	if maxRows < 0 {
		_, err = s.db.ExecContext(ctx, `DELETE FROM row_limits WHERE table_name = ?`, table)
	} else {
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO row_limits (table_name, max_rows) VALUES (?, ?)
			ON CONFLICT(table_name) DO UPDATE SET max_rows = excluded.max_rows
		`, table, maxRows)
	}
	if err != nil {
		return fmt.Errorf("set limit %s: %w", table, err)
	}
	return nil
}

// Limit returns the row limit of table and whether one is set.
func (s *Store) Limit(ctx context.Context, table string) (int, bool, error) {
	return readLimit(ctx, s.db, table)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func readLimit(ctx context.Context, q queryRower, table string) (int, bool, error) {
	var limit int
	err := q.QueryRowContext(ctx, `
		SELECT max_rows FROM row_limits WHERE table_name = ?
	`, table).Scan(&limit)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read limit %s: %w", table, err)
	}
	return limit, true, nil
}
