// Package screen wires the grid engine and the CRUD controller to
// persistence, the event journal and cell rendering.
//
// Editable hosts an inline-editable table: saved rows go through the
// service and the grid is re-supplied from it afterwards. Browser hosts a
// read-only table edited through a dialog.
package screen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/editgrid/internal/column"
	"github.com/roach88/editgrid/internal/crud"
	"github.com/roach88/editgrid/internal/grid"
	"github.com/roach88/editgrid/internal/render"
)

// Editable is an inline-editable table backed by a service.
//
// The engine reports saves through rowEditSave; Editable persists them
// after the engine call returns and then reloads, so the grid always shows
// stored data. Persistence failures are reconciled the same way.
type Editable struct {
	engine   *grid.Engine[grid.Record]
	service  crud.Service[grid.Record]
	notifier crud.Notifier
	limits   crud.LimitDialog
	renders  *render.Registry
	logger   *slog.Logger

	pending []grid.Record
}

// EditableOption configures an Editable.
type EditableOption func(*editableConfig)

type editableConfig struct {
	engineOpts []grid.EngineOption[grid.Record]
	handlers   []grid.Handler[grid.Record]
	notifier   crud.Notifier
	limits     crud.LimitDialog
	renders    *render.Registry
	logger     *slog.Logger
}

// WithEngineOptions passes options through to the grid engine.
func WithEngineOptions(opts ...grid.EngineOption[grid.Record]) EditableOption {
	return func(c *editableConfig) { c.engineOpts = append(c.engineOpts, opts...) }
}

// WithEventHandler subscribes h to engine events, e.g. a store journal.
func WithEventHandler(h grid.Handler[grid.Record]) EditableOption {
	return func(c *editableConfig) { c.handlers = append(c.handlers, h) }
}

// WithEditableNotifier sets the notification sink. Default: silent.
func WithEditableNotifier(n crud.Notifier) EditableOption {
	return func(c *editableConfig) { c.notifier = n }
}

// WithEditableLimitDialog sets the dialog shown for row limit errors.
func WithEditableLimitDialog(d crud.LimitDialog) EditableOption {
	return func(c *editableConfig) { c.limits = d }
}

// WithRenderRegistry sets the renderers used by View. Default: built-ins.
func WithRenderRegistry(r *render.Registry) EditableOption {
	return func(c *editableConfig) { c.renders = r }
}

// WithScreenLogger sets the logger. Default: slog.Default().
func WithScreenLogger(l *slog.Logger) EditableOption {
	return func(c *editableConfig) { c.logger = l }
}

// NewEditable creates an editable screen over model.
func NewEditable(model *column.Model, service crud.Service[grid.Record], opts ...EditableOption) *Editable {
	cfg := &editableConfig{logger: slog.Default()}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.notifier == nil {
		cfg.notifier = quiet{}
	}
	if cfg.renders == nil {
		cfg.renders = render.NewRegistry()
	}

	s := &Editable{
		service:  service,
		notifier: cfg.notifier,
		limits:   cfg.limits,
		renders:  cfg.renders,
		logger:   cfg.logger,
	}
	engineOpts := append([]grid.EngineOption[grid.Record]{
		grid.WithLogger[grid.Record](cfg.logger),
		grid.WithHandler[grid.Record](s.handle),
	}, cfg.engineOpts...)
	for _, h := range cfg.handlers {
		engineOpts = append(engineOpts, grid.WithHandler[grid.Record](h))
	}
	s.engine = grid.New(model, grid.RecordAccessor{}, engineOpts...)
	return s
}

// Engine returns the grid engine.
func (s *Editable) Engine() *grid.Engine[grid.Record] { return s.engine }

// Reload re-supplies the grid from the service. Open sessions of rows that
// are still present survive.
func (s *Editable) Reload(ctx context.Context) error {
	rows, err := s.service.Read(ctx)
	if err != nil {
		s.logger.Error("reload failed", "table", s.engine.Model().Name, "error", err)
		return fmt.Errorf("reload %s: %w", s.engine.Model().Name, err)
	}
	s.engine.SetRows(rows)
	return nil
}

// Init opens an edit session on row.
func (s *Editable) Init(row grid.Record) error { return s.engine.InitRowEdit(row) }

// Set changes a field of an editing row.
func (s *Editable) Set(row grid.Record, field string, value any) error {
	return s.engine.SetField(row, field, value)
}

// Cancel discards the session of row.
func (s *Editable) Cancel(row grid.Record) error { return s.engine.CancelRowEdit(row) }

// Add inserts a new row in edit mode.
func (s *Editable) Add(factory func() grid.Record) (grid.Record, error) {
	return s.engine.AddNewRow(factory)
}

// Save saves row in the engine, persists it and reloads.
func (s *Editable) Save(ctx context.Context, row grid.Record) error {
	if err := s.engine.SaveRowEdit(row); err != nil {
		return err
	}
	return s.flush(ctx)
}

// Commit validates and commits every row of a batch-mode grid, persists
// them and reloads.
func (s *Editable) Commit(ctx context.Context) error {
	rows, err := s.engine.CommitBatch()
	if err != nil {
		return err
	}
	s.pending = append(s.pending, rows...)
	return s.flush(ctx)
}

// Delete removes the row with key through the service and reloads.
func (s *Editable) Delete(ctx context.Context, key string) error {
	if err := s.service.Delete(ctx, key); err != nil {
		s.notifier.Error(err.Error())
		return fmt.Errorf("delete %q: %w", key, err)
	}
	s.notifier.Success(crud.MsgDeleted)
	return s.Reload(ctx)
}

// View renders the visible columns of every row.
func (s *Editable) View() ([]string, [][]string, error) {
	table, err := s.renders.NewTable(s.engine.Model())
	if err != nil {
		return nil, nil, err
	}
	return table.Headers, render.Rows(table, grid.RecordAccessor{}, s.engine.Rows()), nil
}

func (s *Editable) handle(ev grid.Event[grid.Record]) {
	if ev.Type == grid.EventRowEditSave {
		s.pending = append(s.pending, ev.Row)
	}
}

// flush persists the pending rows and reloads. The first failure is
// returned after the reload.
func (s *Editable) flush(ctx context.Context) error {
	pending := s.pending
	s.pending = nil

	var firstErr error
	saved := 0
	for _, row := range pending {
		if _, err := s.service.Update(ctx, grid.DeepCopy(row)); err != nil {
			s.report(err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		saved++
	}
	if saved > 0 {
		s.notifier.Success(crud.MsgUpdated)
	}
	if err := s.Reload(ctx); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

func (s *Editable) report(err error) {
	s.logger.Warn("persist failed", "table", s.engine.Model().Name, "error", err)
	var le *crud.LimitExceededError
	if s.limits != nil && asLimit(err, &le) {
		s.limits.ShowLimitExceeded(le)
		return
	}
	s.notifier.Error(err.Error())
}
