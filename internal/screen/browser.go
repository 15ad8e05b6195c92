package screen

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/editgrid/internal/column"
	"github.com/roach88/editgrid/internal/crud"
	"github.com/roach88/editgrid/internal/grid"
	"github.com/roach88/editgrid/internal/panel"
	"github.com/roach88/editgrid/internal/render"
	"github.com/roach88/editgrid/internal/store"
)

// Browser is a read-only table of records edited through a dialog. It
// drives a crud.Controller configured from the column model.
type Browser struct {
	model      *column.Model
	controller *crud.Controller[grid.Record]
	renders    *render.Registry
}

// NewBrowser creates a browser over model. Permissions come from the
// model; unknown names are logged and skipped. Extra controller options
// are applied after the defaults.
func NewBrowser(
	model *column.Model,
	service crud.Service[grid.Record],
	panels *panel.Registry,
	renders *render.Registry,
	opts ...crud.ControllerOption[grid.Record],
) *Browser {
	perms, unknown := crud.ParsePermissions(model.Permissions)
	if len(unknown) > 0 {
		slog.Default().Warn("unknown permissions ignored", "table", model.Name, "permissions", unknown)
	}
	if renders == nil {
		renders = render.NewRegistry()
	}

	dataKey := model.DataKey
	base := []crud.ControllerOption[grid.Record]{
		crud.WithPermissions[grid.Record](perms...),
		crud.WithDeepCopy[grid.Record](grid.DeepCopy),
		crud.WithNewEntity[grid.Record](func() grid.Record { return grid.Record{} }),
	}
	key := func(r grid.Record) string { return store.KeyOf(r, dataKey) }

	return &Browser{
		model:      model,
		controller: crud.New(model.Name, key, service, panels, append(base, opts...)...),
		renders:    renders,
	}
}

// Controller returns the underlying controller.
func (b *Browser) Controller() *crud.Controller[grid.Record] { return b.controller }

// Open activates the browser panel and loads its data.
func (b *Browser) Open(ctx context.Context) error {
	b.controller.Activate()
	return b.controller.ReadData(ctx)
}

// Select selects the row with key, or clears the selection when key is
// empty or unknown.
func (b *Browser) Select(key string) bool {
	if key == "" {
		b.controller.SelectEntity(nil)
		return true
	}
	for _, r := range b.controller.Entities() {
		if b.keyOf(r) == key {
			b.controller.SelectEntity(&r)
			return true
		}
	}
	b.controller.SelectEntity(nil)
	return false
}

// Run executes the enabled menu item with id.
func (b *Browser) Run(ctx context.Context, id string) error {
	for _, item := range b.controller.Menu() {
		if item.ID != id {
			continue
		}
		if item.Disabled || item.Command == nil {
			return crud.ErrNotPermitted
		}
		return item.Command(ctx)
	}
	return fmt.Errorf("menu item %q: %w", id, crud.ErrNotPermitted)
}

// View renders the visible columns of the loaded records.
func (b *Browser) View() ([]string, [][]string, error) {
	table, err := b.renders.NewTable(b.model)
	if err != nil {
		return nil, nil, err
	}
	return table.Headers, render.Rows(table, grid.RecordAccessor{}, b.controller.Entities()), nil
}

func (b *Browser) keyOf(r grid.Record) string {
	return store.KeyOf(r, b.model.DataKey)
}
