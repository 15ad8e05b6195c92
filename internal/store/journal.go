package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/roach88/editgrid/internal/grid"
	"github.com/roach88/editgrid/internal/trace"
)

// AppendEvent writes a journal record. Uses ON CONFLICT(id) DO NOTHING for
// idempotency; a record with a known ID is silently ignored.
func (s *Store) AppendEvent(ctx context.Context, rec trace.Record) error {
	if rec.ID == "" {
		id, err := trace.EventID(rec)
		if err != nil {
			return fmt.Errorf("append event: %w", err)
		}
		rec.ID = id
	}
	payload, err := rec.Canonical()
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO grid_events (id, session, seq, type, key, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, rec.ID, rec.Session, rec.Seq, string(rec.Type), rec.Key, string(payload))
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ReadEvents returns the journal of session in seq order.
func (s *Store) ReadEvents(ctx context.Context, session string) ([]trace.Record, error) {
	var out []trace.Record
	err := s.Replay(ctx, session, func(rec trace.Record) error {
		out = append(out, rec)
		return nil
	})
	return out, err
}

// Replay calls fn for each journal record of session in seq order and stops
// at the first error.
func (s *Store) Replay(ctx context.Context, session string, fn func(trace.Record) error) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payload FROM grid_events
		WHERE session = ?
		ORDER BY seq ASC, id ASC COLLATE BINARY
	`, session)
	if err != nil {
		return fmt.Errorf("replay %s: %w", session, err)
	}
	defer rows.Close()

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("replay %s: %w", session, err)
		}
		obj, err := unmarshalObject(payload)
		if err != nil {
			return fmt.Errorf("replay %s: %w", session, err)
		}
		rec, err := trace.ParseObject(obj)
		if err != nil {
			return fmt.Errorf("replay %s: %w", session, err)
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Sessions returns the journaled session IDs, sorted.
func (s *Store) Sessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT session FROM grid_events ORDER BY session ASC COLLATE BINARY
	`)
	if err != nil {
		return nil, fmt.Errorf("sessions: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("sessions: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Journal records the events of one grid engine under a session ID. Its
// Handle method is a grid.Handler.
type Journal[T any] struct {
	store   *Store
	session string
	logger  *slog.Logger
	filter  map[grid.EventType]bool

	mu  sync.Mutex
	err error
}

// JournalOption configures a Journal.
type JournalOption[T any] func(*Journal[T])

// WithEventTypes restricts the journal to the given event types.
func WithEventTypes[T any](types ...grid.EventType) JournalOption[T] {
	return func(j *Journal[T]) {
		j.filter = make(map[grid.EventType]bool, len(types))
		for _, t := range types {
			j.filter[t] = true
		}
	}
}

// WithJournalLogger sets the logger. Default: slog.Default().
func WithJournalLogger[T any](l *slog.Logger) JournalOption[T] {
	return func(j *Journal[T]) { j.logger = l }
}

// NewJournal returns a journal writing to s under session.
func NewJournal[T any](s *Store, session string, opts ...JournalOption[T]) *Journal[T] {
	j := &Journal[T]{store: s, session: session, logger: slog.Default()}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Session returns the session ID.
func (j *Journal[T]) Session() string { return j.session }

// Handle appends ev. Handlers cannot return errors, so the first failure is
// logged and kept for Err.
func (j *Journal[T]) Handle(ev grid.Event[T]) {
	if j.filter != nil && !j.filter[ev.Type] {
		return
	}
	rec, err := trace.FromEvent(j.session, ev)
	if err == nil {
		err = j.store.AppendEvent(context.Background(), rec)
	}
	if err != nil {
		j.logger.Error("journal append failed", "session", j.session, "type", ev.Type, "seq", ev.Seq, "error", err)
		j.mu.Lock()
		if j.err == nil {
			j.err = err
		}
		j.mu.Unlock()
	}
}

// Err returns the first append failure, if any.
func (j *Journal[T]) Err() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.err
}
