package screen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/editgrid/internal/crud"
	"github.com/roach88/editgrid/internal/grid"
	"github.com/roach88/editgrid/internal/panel"
	"github.com/roach88/editgrid/internal/render"
)

func (f *fixture) browser(t *testing.T, panels *panel.Registry, opts ...crud.ControllerOption[grid.Record]) *Browser {
	t.Helper()
	opts = append([]crud.ControllerOption[grid.Record]{
		crud.WithNotifier[grid.Record](f.notices),
		crud.WithConfirmer[grid.Record](f.notices),
		crud.WithLimitDialog[grid.Record](f.notices),
		crud.WithControllerLogger[grid.Record](discardLogger()),
		crud.WithDeleteRights[grid.Record](func(grid.Record) bool { return true }),
	}, opts...)
	b := NewBrowser(dividendModel(), f.service, panels, nil, opts...)
	require.NoError(t, b.Open(context.Background()))
	return b
}

func menuIDs(items []panel.MenuItem) []string {
	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestBrowser_OpenActivatesPanel(t *testing.T) {
	f := newFixture(t, grid.Record{"id": "1", "name": "Q1"})
	panels := panel.NewRegistry()
	b := f.browser(t, panels)

	assert.True(t, panels.IsActive(b.Controller().Owner()))
	assert.Len(t, b.Controller().Entities(), 1)
	assert.Equal(t, []string{crud.MenuCreate}, menuIDs(b.Controller().Menu()))
}

func TestBrowser_SelectDrivesMenu(t *testing.T) {
	f := newFixture(t, grid.Record{"id": "1", "name": "Q1"})
	b := f.browser(t, panel.NewRegistry())

	require.True(t, b.Select("1"))
	assert.Equal(t, []string{crud.MenuCreate, crud.MenuEdit, crud.MenuDelete}, menuIDs(b.Controller().Menu()))

	assert.False(t, b.Select("missing"))
	assert.Nil(t, b.Controller().Selected())

	require.True(t, b.Select("1"))
	require.True(t, b.Select(""))
	assert.Nil(t, b.Controller().Selected())
}

func TestBrowser_CreateThroughDialog(t *testing.T) {
	f := newFixture(t)
	b := f.browser(t, panel.NewRegistry())
	ctx := context.Background()

	require.NoError(t, b.Run(ctx, crud.MenuCreate))
	require.True(t, b.Controller().CreateMode())

	editing := b.Controller().Editing()
	require.NotNil(t, editing)
	(*editing)["name"] = "Q3"
	require.NoError(t, b.Controller().SaveEdit(ctx))

	entities := b.Controller().Entities()
	require.Len(t, entities, 1)
	assert.Equal(t, "k1", entities[0]["id"])
	require.NotNil(t, b.Controller().Selected())
	assert.Equal(t, "k1", (*b.Controller().Selected())["id"])
}

func TestBrowser_DeleteDeclined(t *testing.T) {
	f := newFixture(t, grid.Record{"id": "1", "name": "Q1"})
	b := f.browser(t, panel.NewRegistry())
	f.notices.SetAnswer(false)

	require.True(t, b.Select("1"))
	require.NoError(t, b.Run(context.Background(), crud.MenuDelete))

	assert.Len(t, b.Controller().Entities(), 1)
	notices := f.notices.List()
	require.Len(t, notices, 1)
	assert.Equal(t, NoticeConfirm, notices[0].Kind)
}

func TestBrowser_DeleteConfirmed(t *testing.T) {
	f := newFixture(t, grid.Record{"id": "1", "name": "Q1"})
	b := f.browser(t, panel.NewRegistry())

	require.True(t, b.Select("1"))
	require.NoError(t, b.Run(context.Background(), crud.MenuDelete))

	assert.Empty(t, b.Controller().Entities())
	assert.Nil(t, b.Controller().Selected())
}

func TestBrowser_RunUnknownOrDisabled(t *testing.T) {
	f := newFixture(t, grid.Record{"id": "1", "name": "Q1"})
	b := f.browser(t, panel.NewRegistry(),
		crud.WithUpdateRights[grid.Record](func(grid.Record) bool { return false }))

	assert.ErrorIs(t, b.Run(context.Background(), "export"), crud.ErrNotPermitted)

	require.True(t, b.Select("1"))
	assert.ErrorIs(t, b.Run(context.Background(), crud.MenuEdit), crud.ErrNotPermitted)
}

func TestBrowser_UnknownPermissionsIgnored(t *testing.T) {
	f := newFixture(t, grid.Record{"id": "1", "name": "Q1"})
	model := dividendModel()
	model.Permissions = []string{"Allow_Edit", "Allow_Export"}

	b := NewBrowser(model, f.service, panel.NewRegistry(), nil,
		crud.WithControllerLogger[grid.Record](discardLogger()))
	assert.True(t, b.Controller().HasPermission(crud.AllowEdit))
	assert.False(t, b.Controller().HasPermission(crud.AllowCreate))
}

func TestBrowser_ViewTranslatesHeaders(t *testing.T) {
	f := newFixture(t, grid.Record{"id": "1", "name": "Q1", "rate": 2})
	renders := render.NewRegistry(render.WithTranslator(render.MapTranslator{"NAME": "Name", "RATE": "Rate"}))

	b := NewBrowser(dividendModel(), f.service, panel.NewRegistry(), renders,
		crud.WithControllerLogger[grid.Record](discardLogger()))
	require.NoError(t, b.Open(context.Background()))

	headers, cells, err := b.View()
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Rate"}, headers)
	assert.Equal(t, [][]string{{"Q1", "2.0"}}, cells)
}
