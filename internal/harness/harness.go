package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/editgrid/internal/compiler"
	"github.com/roach88/editgrid/internal/crud"
	"github.com/roach88/editgrid/internal/grid"
	"github.com/roach88/editgrid/internal/panel"
	"github.com/roach88/editgrid/internal/screen"
	"github.com/roach88/editgrid/internal/store"
	"github.com/roach88/editgrid/internal/testutil"
)

// Harness holds the components one scenario runs against.
type Harness struct {
	store   *store.Store
	service *store.TableService
	grid    *screen.Editable
	browser *screen.Browser
	journal *store.Journal[grid.Record]
	notices *screen.Notices
	clock   *testutil.DeterministicClock
	logger  *slog.Logger
}

// errorKinds maps expect_error names to matchers.
var errorKinds = map[string]func(error) bool{
	"any":             func(err error) bool { return err != nil },
	"validation":      grid.IsValidationError,
	"already_editing": isAny(grid.ErrAlreadyEditing),
	"not_editing":     isAny(grid.ErrNotEditing),
	"not_found":       isAny(grid.ErrRowNotFound, store.ErrNotFound),
	"not_editable":    isAny(grid.ErrRowNotEditable, grid.ErrFieldNotEditable),
	"unknown_field":   isAny(grid.ErrUnknownField),
	"batch_mode":      isAny(grid.ErrBatchMode, grid.ErrNotBatchMode),
	"not_permitted":   isAny(crud.ErrNotPermitted),
	"dialog_open":     isAny(crud.ErrDialogOpen),
	"no_dialog":       isAny(crud.ErrNoDialog),
	"limit":           crud.IsLimitExceeded,
}

func isAny(targets ...error) func(error) bool {
	return func(err error) bool {
		for _, t := range targets {
			if errors.Is(err, t) {
				return true
			}
		}
		return false
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database with a deterministic
// clock and key generator, so its journal is reproducible.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	v, err := compiler.Load(scenario.Spec)
	if err != nil {
		return nil, fmt.Errorf("failed to load spec: %w", err)
	}
	spec, err := compiler.LookupTable(v, scenario.Table)
	if err != nil {
		return nil, fmt.Errorf("failed to compile table: %w", err)
	}
	model, err := compiler.CompileModel(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to compile table: %w", err)
	}

	st, err := store.OpenMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	session := scenario.Session
	if session == "" {
		session = scenario.Name
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	keys := testutil.NewSequentialKeys("row")

	h := &Harness{
		store:   st,
		service: store.NewTableService(st, model.Name, model.DataKey, store.WithKeyFunc(keys.Generate)),
		notices: screen.NewNotices(logger),
		clock:   testutil.NewDeterministicClock(),
		logger:  logger,
	}
	h.journal = store.NewJournal[grid.Record](st, session, store.WithJournalLogger[grid.Record](logger))
	h.grid = screen.NewEditable(model, h.service,
		screen.WithScreenLogger(logger),
		screen.WithEditableNotifier(h.notices),
		screen.WithEditableLimitDialog(h.notices),
		screen.WithEventHandler(h.journal.Handle),
		screen.WithEngineOptions(grid.WithClock[grid.Record](h.clock)),
	)
	h.browser = screen.NewBrowser(model, h.service, panel.NewRegistry(), nil,
		crud.WithNotifier[grid.Record](h.notices),
		crud.WithConfirmer[grid.Record](h.notices),
		crud.WithLimitDialog[grid.Record](h.notices),
		crud.WithControllerLogger[grid.Record](logger),
	)

	if err := h.seed(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to seed rows: %w", err)
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		err := h.execute(ctx, step)
		switch {
		case step.ExpectError != "" && err == nil:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected %s error, got none", i, step.Op, step.ExpectError))
		case step.ExpectError != "" && !errorKinds[step.ExpectError](err):
			result.AddError(fmt.Sprintf("steps[%d] %s: expected %s error, got: %v", i, step.Op, step.ExpectError, err))
		case step.ExpectError == "" && err != nil:
			result.AddError(fmt.Sprintf("steps[%d] %s: %v", i, step.Op, err))
		}
		h.logger.Debug("step executed", "step", i, "op", step.Op, "key", step.Key, "error", err)
	}
	if err := h.journal.Err(); err != nil {
		return nil, fmt.Errorf("journal: %w", err)
	}

	if result.Events, err = st.ReadEvents(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}
	result.Rows = h.grid.Engine().Rows()
	if result.Stored, err = h.service.Read(ctx); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	result.Notices = h.notices.List()

	for _, msg := range EvaluateAssertions(result, scenario.Assertions, h) {
		result.AddError(msg)
	}
	return result, nil
}

func (h *Harness) seed(ctx context.Context, scenario *Scenario) error {
	if scenario.Limit > 0 {
		if err := h.store.SetLimit(ctx, h.service.Table(), scenario.Limit); err != nil {
			return err
		}
	}
	for _, row := range scenario.Rows {
		if _, err := h.service.Update(ctx, grid.Record(row)); err != nil {
			return err
		}
	}
	if err := h.grid.Reload(ctx); err != nil {
		return err
	}
	return h.browser.Open(ctx)
}

func (h *Harness) execute(ctx context.Context, step Step) error {
	switch step.Op {
	case OpInit:
		return h.withRow(step.Key, h.grid.Init)
	case OpSet:
		return h.withRow(step.Key, func(r grid.Record) error { return h.grid.Set(r, step.Field, step.Value) })
	case OpSave:
		return h.withRow(step.Key, func(r grid.Record) error { return h.grid.Save(ctx, r) })
	case OpCancel:
		return h.withRow(step.Key, h.grid.Cancel)
	case OpExpand:
		return h.withRow(step.Key, h.grid.Engine().Expand)
	case OpAdd:
		_, err := h.grid.Add(func() grid.Record { return grid.DeepCopy(step.Row) })
		return err
	case OpValidateAll:
		return h.grid.Engine().ValidateAllRows()
	case OpCommit:
		return h.grid.Commit(ctx)
	}
	return h.executeCRUD(ctx, step)
}

// executeCRUD runs the controller steps. Changes are mirrored into the grid
// by a reload.
func (h *Harness) executeCRUD(ctx context.Context, step Step) error {
	c := h.browser.Controller()
	switch step.Op {
	case OpSelect:
		if !h.browser.Select(step.Key) {
			return fmt.Errorf("select %q: %w", step.Key, grid.ErrRowNotFound)
		}
		return nil
	case OpDeselect:
		h.browser.Select("")
		return nil
	case OpDelete:
		if !h.browser.Select(step.Key) {
			return fmt.Errorf("delete %q: %w", step.Key, grid.ErrRowNotFound)
		}
		h.notices.SetAnswer(step.Confirm == nil || *step.Confirm)
		if err := h.browser.Run(ctx, crud.MenuDelete); err != nil {
			return err
		}
		return h.grid.Reload(ctx)
	case OpOpenEdit:
		if step.Key == "" {
			return c.OpenEdit(nil)
		}
		if !h.browser.Select(step.Key) {
			return fmt.Errorf("open edit %q: %w", step.Key, grid.ErrRowNotFound)
		}
		return c.OpenEdit(c.Selected())
	case OpCloseDialog:
		if !step.Save {
			return c.CloseDialog(ctx, crud.Result[grid.Record]{Action: crud.NoChange})
		}
		if editing := c.Editing(); editing != nil {
			for k, v := range step.Row {
				(*editing)[k] = v
			}
		}
		if err := c.SaveEdit(ctx); err != nil {
			return err
		}
		return h.grid.Reload(ctx)
	}
	return fmt.Errorf("unknown op %q", step.Op)
}

func (h *Harness) withRow(key string, fn func(grid.Record) error) error {
	row, ok := h.row(key)
	if !ok {
		return fmt.Errorf("row %q: %w", key, grid.ErrRowNotFound)
	}
	return fn(row)
}

func (h *Harness) row(key string) (grid.Record, bool) {
	e := h.grid.Engine()
	for _, r := range e.Rows() {
		if e.Key(r) == key {
			return r, true
		}
	}
	return nil, false
}
