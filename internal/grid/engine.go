package grid

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"github.com/roach88/editgrid/internal/column"
)

// session is the edit overlay of one row.
type session[T any] struct {
	original T
	isNew    bool
	options  map[string][]column.Option
	errors   map[string]string
}

// Engine is the row edit state machine of one table.
//
// INVARIANTS:
//   - at most one session per row key
//   - a session exists iff its row is edited (every row in batch mode)
//   - validation writes only the session error map, never row data
type Engine[T any] struct {
	model    *column.Model
	access   Accessor[T]
	rows     []T
	sessions map[string]*session[T]
	expanded map[string]bool
	clock    Sequencer
	keys     KeyGenerator
	handlers []Handler[T]
	logger   *slog.Logger
	batch    bool

	canEditRow   func(T) bool
	validateRow  func(T) bool
	createEntity func() T
}

// EngineOption configures an Engine.
type EngineOption[T any] func(*Engine[T])

// WithBatchMode puts every row in an implicit session.
func WithBatchMode[T any]() EngineOption[T] {
	return func(e *Engine[T]) { e.batch = true }
}

// WithHandler subscribes h to engine events.
func WithHandler[T any](h Handler[T]) EngineOption[T] {
	return func(e *Engine[T]) { e.handlers = append(e.handlers, h) }
}

// WithCanEditRow gates edit-init per row.
func WithCanEditRow[T any](fn func(T) bool) EngineOption[T] {
	return func(e *Engine[T]) { e.canEditRow = fn }
}

// WithValidateRow adds a whole-row predicate evaluated after field rules.
func WithValidateRow[T any](fn func(T) bool) EngineOption[T] {
	return func(e *Engine[T]) { e.validateRow = fn }
}

// WithCreateNewEntity sets the default factory used by AddNewRow.
func WithCreateNewEntity[T any](fn func() T) EngineOption[T] {
	return func(e *Engine[T]) { e.createEntity = fn }
}

// WithKeyGenerator replaces the "new_<n>" key generator.
func WithKeyGenerator[T any](g KeyGenerator) EngineOption[T] {
	return func(e *Engine[T]) { e.keys = g }
}

// WithClock sets the sequencer used to stamp events.
func WithClock[T any](c Sequencer) EngineOption[T] {
	return func(e *Engine[T]) { e.clock = c }
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger[T any](l *slog.Logger) EngineOption[T] {
	return func(e *Engine[T]) { e.logger = l }
}

// New creates an engine over model. Batch mode is on when the model declares
// it or WithBatchMode is given.
func New[T any](model *column.Model, access Accessor[T], opts ...EngineOption[T]) *Engine[T] {
	e := &Engine[T]{
		model:    model,
		access:   access,
		sessions: make(map[string]*session[T]),
		expanded: make(map[string]bool),
		clock:    NewClock(),
		keys:     &CounterKeys{},
		logger:   slog.Default(),
		batch:    model.Batch,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe adds an event handler.
func (e *Engine[T]) Subscribe(h Handler[T]) {
	e.handlers = append(e.handlers, h)
}

// Model returns the column model.
func (e *Engine[T]) Model() *column.Model {
	return e.model
}

// Batch reports whether the engine runs in batch mode.
func (e *Engine[T]) Batch() bool {
	return e.batch
}

// SetRows replaces the row collection with data re-supplied by the host.
//
// In row mode, sessions whose key is still present survive and keep their
// edited row in place of the re-supplied one, so unsaved edits are not
// lost; the rest are dropped. In batch mode every row gets a fresh implicit
// session.
func (e *Engine[T]) SetRows(rows []T) {
	var live map[string]T
	if !e.batch && len(e.sessions) > 0 {
		live = make(map[string]T, len(e.sessions))
		for _, r := range e.rows {
			if key := e.Key(r); e.sessions[key] != nil {
				live[key] = r
			}
		}
	}
	e.rows = slices.Clone(rows)
	for i, r := range e.rows {
		if edited, ok := live[e.Key(r)]; ok {
			e.rows[i] = edited
		}
	}

	present := make(map[string]bool, len(rows))
	for _, r := range e.rows {
		present[e.Key(r)] = true
	}
	for key := range e.expanded {
		if !present[key] {
			delete(e.expanded, key)
		}
	}

	if e.batch {
		e.sessions = make(map[string]*session[T], len(e.rows))
		for _, r := range e.rows {
			e.openSession(e.Key(r), r, false)
		}
		return
	}
	for key := range e.sessions {
		if !present[key] {
			delete(e.sessions, key)
		}
	}
}

// Rows returns the current row collection.
func (e *Engine[T]) Rows() []T {
	return slices.Clone(e.rows)
}

// Key returns the row key of row, or "" when absent.
func (e *Engine[T]) Key(row T) string {
	v := e.access.Get(row, e.model.DataKey)
	if column.IsEmpty(v) {
		return ""
	}
	return fmt.Sprint(v)
}

// Index returns the position of row in the collection, or -1.
func (e *Engine[T]) Index(row T) int {
	return e.indexOf(e.Key(row))
}

// InitRowEdit opens an edit session for row.
func (e *Engine[T]) InitRowEdit(row T) error {
	key := e.Key(row)
	idx := e.indexOf(key)
	if idx < 0 {
		return fmt.Errorf("init row edit %q: %w", key, ErrRowNotFound)
	}
	if e.batch {
		return fmt.Errorf("init row edit %q: %w", key, ErrBatchMode)
	}
	if _, ok := e.sessions[key]; ok {
		return fmt.Errorf("init row edit %q: %w", key, ErrAlreadyEditing)
	}
	stored := e.rows[idx]
	if e.canEditRow != nil && !e.canEditRow(stored) {
		return fmt.Errorf("init row edit %q: %w", key, ErrRowNotEditable)
	}

	e.openSession(key, stored, false)
	e.emit(Event[T]{Type: EventRowEditInit, Key: key, Row: stored, Index: idx})
	return nil
}

// SaveRowEdit validates row and, when valid, closes its session and emits
// rowEditSave. An invalid row keeps its session and yields a
// *RowValidationError.
func (e *Engine[T]) SaveRowEdit(row T) error {
	key, idx, s, err := e.editing(row)
	if err != nil {
		return fmt.Errorf("save row edit: %w", err)
	}
	if e.batch {
		return fmt.Errorf("save row edit %q: %w", key, ErrBatchMode)
	}
	stored := e.rows[idx]

	if errs := e.checkRow(stored, s); len(errs) > 0 {
		e.logger.Warn("row save rejected", "table", e.model.Name, "key", key, "errors", len(errs))
		e.emit(Event[T]{Type: EventValidationError, Key: key, Row: stored, Index: idx, Errors: errs})
		return &RowValidationError{Key: key, Errors: errs}
	}

	delete(e.sessions, key)
	e.emit(Event[T]{
		Type:     EventRowEditSave,
		Key:      key,
		Row:      stored,
		Index:    idx,
		Original: s.original,
		IsNew:    s.isNew,
	})
	return nil
}

// CancelRowEdit discards the edit of row. New rows are removed; other rows
// are restored in place from the snapshot.
func (e *Engine[T]) CancelRowEdit(row T) error {
	key, idx, s, err := e.editing(row)
	if err != nil {
		return fmt.Errorf("cancel row edit: %w", err)
	}
	if e.batch {
		return fmt.Errorf("cancel row edit %q: %w", key, ErrBatchMode)
	}
	stored := e.rows[idx]

	if s.isNew {
		e.rows = slices.Delete(e.rows, idx, idx+1)
	} else {
		e.access.Restore(stored, s.original)
	}
	delete(e.sessions, key)
	delete(e.expanded, key)

	e.emit(Event[T]{Type: EventRowEditCancel, Key: key, Row: stored, Index: idx})
	return nil
}

// AddNewRow appends a row built by factory (or the configured default
// factory) and opens its edit session. Rows without a key get a generated
// one.
func (e *Engine[T]) AddNewRow(factory func() T) (T, error) {
	var zero T
	if factory == nil {
		factory = e.createEntity
	}
	if factory == nil {
		return zero, fmt.Errorf("add new row: %w", ErrNoFactory)
	}

	row := factory()
	if column.IsEmpty(e.access.Get(row, e.model.DataKey)) {
		generated := e.keys.Generate()
		e.access.Set(row, e.model.DataKey, generated)
		if got := e.Key(row); got != generated {
			return zero, fmt.Errorf("add new row %q: %w", generated, ErrKeyNotAssignable)
		}
	}
	key := e.Key(row)
	if e.indexOf(key) >= 0 {
		return zero, fmt.Errorf("add new row %q: %w", key, ErrDuplicateKey)
	}

	e.rows = append(e.rows, row)
	idx := len(e.rows) - 1
	e.emit(Event[T]{Type: EventRowAdded, Key: key, Row: row, Index: idx, IsNew: true})

	e.openSession(key, row, true)
	if !e.batch {
		e.emit(Event[T]{Type: EventRowEditInit, Key: key, Row: row, Index: idx})
	}
	return row, nil
}

// IsEditing reports whether row has a session.
func (e *Engine[T]) IsEditing(row T) bool {
	_, ok := e.sessions[e.Key(row)]
	return ok
}

// IsNew reports whether row is an edited, not yet persisted row.
func (e *Engine[T]) IsNew(row T) bool {
	s, ok := e.sessions[e.Key(row)]
	return ok && s.isNew
}

// Original returns the pre-edit snapshot of row.
func (e *Engine[T]) Original(row T) (T, bool) {
	s, ok := e.sessions[e.Key(row)]
	if !ok {
		var zero T
		return zero, false
	}
	return s.original, true
}

// FieldErrors returns a copy of row's error map.
func (e *Engine[T]) FieldErrors(row T) map[string]string {
	s, ok := e.sessions[e.Key(row)]
	if !ok {
		return map[string]string{}
	}
	out := make(map[string]string, len(s.errors))
	for k, v := range s.errors {
		out[k] = v
	}
	return out
}

// EditingKeys returns the keys of all open sessions, sorted.
func (e *Engine[T]) EditingKeys() []string {
	keys := make([]string, 0, len(e.sessions))
	for k := range e.sessions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Expand marks row's detail section as expanded.
func (e *Engine[T]) Expand(row T) error {
	key := e.Key(row)
	if e.indexOf(key) < 0 {
		return fmt.Errorf("expand %q: %w", key, ErrRowNotFound)
	}
	e.expanded[key] = true
	return nil
}

// Collapse collapses row's detail section.
func (e *Engine[T]) Collapse(row T) {
	delete(e.expanded, e.Key(row))
}

// IsExpanded reports whether row's detail section is expanded.
func (e *Engine[T]) IsExpanded(row T) bool {
	return e.expanded[e.Key(row)]
}

// openSession snapshots row, collapses its detail section and pre-resolves
// the options of every select column.
func (e *Engine[T]) openSession(key string, row T, isNew bool) {
	delete(e.expanded, key)
	s := &session[T]{
		original: e.access.Clone(row),
		isNew:    isNew,
		options:  make(map[string][]column.Option),
		errors:   make(map[string]string),
	}
	for _, col := range e.model.SelectColumns() {
		s.options[col.Field] = e.resolveOptions(row, col)
	}
	e.sessions[key] = s
	e.logger.Debug("edit session opened", "table", e.model.Name, "key", key, "new", isNew)
}

// editing resolves row to its key, index and session.
func (e *Engine[T]) editing(row T) (string, int, *session[T], error) {
	key := e.Key(row)
	idx := e.indexOf(key)
	if idx < 0 {
		return key, -1, nil, fmt.Errorf("%q: %w", key, ErrRowNotFound)
	}
	s, ok := e.sessions[key]
	if !ok {
		return key, idx, nil, fmt.Errorf("%q: %w", key, ErrNotEditing)
	}
	return key, idx, s, nil
}

func (e *Engine[T]) indexOf(key string) int {
	if key == "" {
		return -1
	}
	for i, r := range e.rows {
		if e.Key(r) == key {
			return i
		}
	}
	return -1
}

func (e *Engine[T]) emit(ev Event[T]) {
	ev.Seq = e.clock.Next()
	e.logger.Debug("grid event", "table", e.model.Name, "type", ev.Type, "key", ev.Key, "seq", ev.Seq)
	for _, h := range e.handlers {
		h(ev)
	}
}
