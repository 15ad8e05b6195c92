package crud

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/editgrid/internal/panel"
)

type security struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Tags    []string `json:"tags"`
	Creator string   `json:"creator"`
}

func (s security) EntityOwner() string { return s.Creator }

type memService struct {
	items     []security
	limit     int
	readErr   error
	deleteErr error
	deleted   []string
	updates   int
}

func (m *memService) Read(context.Context) ([]security, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	return append([]security(nil), m.items...), nil
}

func (m *memService) Update(_ context.Context, s security) (security, error) {
	m.updates++
	for i := range m.items {
		if m.items[i].ID == s.ID {
			m.items[i] = s
			return s, nil
		}
	}
	if m.limit > 0 && len(m.items) >= m.limit {
		return security{}, &LimitExceededError{Entity: "Security", Limit: m.limit}
	}
	if s.ID == "" {
		s.ID = "generated"
	}
	m.items = append(m.items, s)
	return s, nil
}

func (m *memService) Delete(_ context.Context, key string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, key)
	for i := range m.items {
		if m.items[i].ID == key {
			m.items = append(m.items[:i], m.items[i+1:]...)
			break
		}
	}
	return nil
}

type fakeConfirmer struct {
	answer bool
	asked  []string
}

func (f *fakeConfirmer) Confirm(_ context.Context, msg string) (bool, error) {
	f.asked = append(f.asked, msg)
	return f.answer, nil
}

type fakeNotifier struct {
	success []string
	errs    []string
}

func (f *fakeNotifier) Success(m string) { f.success = append(f.success, m) }
func (f *fakeNotifier) Error(m string)   { f.errs = append(f.errs, m) }

type fakeLimitDialog struct {
	shown []*LimitExceededError
}

func (f *fakeLimitDialog) ShowLimitExceeded(err *LimitExceededError) { f.shown = append(f.shown, err) }

func securityKey(s security) string { return s.ID }

func newController(t *testing.T, svc *memService, opts ...ControllerOption[security]) (*Controller[security], *panel.Registry) {
	t.Helper()
	reg := panel.NewRegistry()
	opts = append([]ControllerOption[security]{
		WithControllerLogger[security](slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	c := New[security]("Security", securityKey, svc, reg, opts...)
	require.NoError(t, c.ReadData(context.Background()))
	return c, reg
}

func menuSummary(items []panel.MenuItem) map[string]bool {
	out := make(map[string]bool)
	for _, it := range items {
		if !it.Separator {
			out[it.ID] = it.Disabled
		}
	}
	return out
}

func TestMenuReflectsSelection(t *testing.T) {
	svc := &memService{items: []security{{ID: "1", Creator: "alice"}}}
	c, reg := newController(t, svc,
		WithPermissions[security](AllowDelete),
		WithDeleteRights(func(s security) bool { return s.Creator == "bob" }),
	)

	c.SelectEntity(nil)
	assert.Empty(t, menuSummary(c.Menu()), "no create/edit permission and nothing selected")
	assert.True(t, reg.IsActive(c.Owner()))

	e := c.Entities()[0]
	c.SelectEntity(&e)
	assert.Equal(t, map[string]bool{MenuDelete: true}, menuSummary(c.Menu()), "delete disabled without rights")

	e.Creator = "bob"
	c.SelectEntity(&e)
	assert.Equal(t, map[string]bool{MenuDelete: false}, menuSummary(c.Menu()))

	_, menus, ok := reg.Active()
	require.True(t, ok)
	assert.Equal(t, menuSummary(c.Menu()), menuSummary(menus.Edit))
}

func TestMenuPermissions(t *testing.T) {
	entity := security{ID: "1"}

	tests := []struct {
		name     string
		perms    []Permission
		selected *security
		want     map[string]bool
	}{
		{"create only, no selection", []Permission{AllowCreate}, nil, map[string]bool{MenuCreate: false}},
		{"edit needs selection", []Permission{AllowEdit}, nil, map[string]bool{}},
		{"all, selection", []Permission{AllowCreate, AllowEdit, AllowDelete}, &entity,
			map[string]bool{MenuCreate: false, MenuEdit: false, MenuDelete: false}},
		{"none", nil, &entity, map[string]bool{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newController(t, &memService{items: []security{entity}},
				WithPermissions[security](tt.perms...))
			c.SelectEntity(tt.selected)
			assert.Equal(t, tt.want, menuSummary(c.Menu()))
		})
	}
}

func TestMenuIsPureFunctionOfSelection(t *testing.T) {
	entity := security{ID: "1"}
	c, _ := newController(t, &memService{items: []security{entity}},
		WithPermissions[security](AllowCreate, AllowEdit, AllowDelete))

	c.SelectEntity(&entity)
	first := menuSummary(c.Menu())
	c.SelectEntity(nil)
	c.SelectEntity(&entity)
	assert.Equal(t, first, menuSummary(c.Menu()))
}

func TestDefaultDeleteRightsUseAuditOwnership(t *testing.T) {
	mine := security{ID: "1", Creator: "alice"}
	theirs := security{ID: "2", Creator: "bob"}
	c, _ := newController(t, &memService{items: []security{mine, theirs}},
		WithPermissions[security](AllowDelete),
		WithAudit[security]("alice", nil))

	c.SelectEntity(&mine)
	assert.False(t, menuSummary(c.Menu())[MenuDelete])

	c.SelectEntity(&theirs)
	assert.True(t, menuSummary(c.Menu())[MenuDelete])

	assert.ErrorIs(t, c.DeleteEntity(context.Background(), theirs), ErrNotPermitted)
}

func TestCustomMenu(t *testing.T) {
	c, _ := newController(t, &memService{},
		WithCustomMenu(func(selected *security) []panel.MenuItem {
			return []panel.MenuItem{{ID: "export", Label: "EXPORT_CSV"}}
		}))

	c.SelectEntity(nil)
	menu := c.Menu()
	require.Len(t, menu, 2)
	assert.True(t, menu[0].Separator)
	assert.Equal(t, "export", menu[1].ID)
}

func TestDeleteEntity(t *testing.T) {
	svc := &memService{items: []security{{ID: "1"}, {ID: "2"}}}
	confirm := &fakeConfirmer{answer: true}
	notes := &fakeNotifier{}
	c, _ := newController(t, svc,
		WithPermissions[security](AllowDelete),
		WithConfirmer[security](confirm),
		WithNotifier[security](notes))

	target := c.Entities()[0]
	c.SelectEntity(&target)

	require.NoError(t, c.DeleteEntity(context.Background(), target))

	assert.Equal(t, []string{"MSG_CONFIRM_DELETE_RECORD|Security"}, confirm.asked)
	assert.Equal(t, []string{"1"}, svc.deleted)
	assert.Equal(t, []string{MsgDeleted}, notes.success)
	assert.Nil(t, c.Selected())
	assert.Len(t, c.Entities(), 1)
	assert.Empty(t, menuSummary(c.Menu()))
}

func TestDeleteEntity_Declined(t *testing.T) {
	svc := &memService{items: []security{{ID: "1"}}}
	c, _ := newController(t, svc,
		WithPermissions[security](AllowDelete),
		WithConfirmer[security](&fakeConfirmer{answer: false}))

	target := c.Entities()[0]
	c.SelectEntity(&target)

	require.NoError(t, c.DeleteEntity(context.Background(), target))
	assert.Empty(t, svc.deleted)
	require.NotNil(t, c.Selected())
	assert.Equal(t, "1", c.Selected().ID)
}

func TestDeleteEntity_RequiresConfirmer(t *testing.T) {
	svc := &memService{items: []security{{ID: "1"}}}
	c, _ := newController(t, svc, WithPermissions[security](AllowDelete))

	target := c.Entities()[0]
	c.SelectEntity(&target)

	err := c.DeleteEntity(context.Background(), target)
	require.ErrorIs(t, err, ErrNoConfirmer)
	assert.Empty(t, svc.deleted)
	require.NotNil(t, c.Selected())
	assert.Len(t, c.Entities(), 1)
}

func TestDeleteEntity_FailureKeepsState(t *testing.T) {
	svc := &memService{items: []security{{ID: "1"}}, deleteErr: errors.New("boom")}
	c, _ := newController(t, svc,
		WithPermissions[security](AllowDelete),
		WithConfirmer[security](&fakeConfirmer{answer: true}))

	target := c.Entities()[0]
	c.SelectEntity(&target)

	err := c.DeleteEntity(context.Background(), target)
	require.Error(t, err)
	assert.NotNil(t, c.Selected())
	assert.Len(t, c.Entities(), 1)
}

func TestOpenEdit_DeepCopy(t *testing.T) {
	svc := &memService{items: []security{{ID: "1", Name: "Apple", Tags: []string{"tech"}}}}
	c, _ := newController(t, svc, WithPermissions[security](AllowEdit))

	original := c.Entities()[0]
	require.NoError(t, c.OpenEdit(&original))
	assert.Equal(t, StateDialogOpen, c.State())
	assert.False(t, c.CreateMode())

	c.Editing().Name = "Changed"
	c.Editing().Tags[0] = "changed"
	assert.Equal(t, "Apple", original.Name)
	assert.Equal(t, "tech", original.Tags[0], "nested data is not shared")

	assert.ErrorIs(t, c.OpenEdit(&original), ErrDialogOpen)
}

func TestOpenEdit_Permissions(t *testing.T) {
	c, _ := newController(t, &memService{items: []security{{ID: "1"}}})

	e := c.Entities()[0]
	assert.ErrorIs(t, c.OpenEdit(nil), ErrNotPermitted)
	assert.ErrorIs(t, c.OpenEdit(&e), ErrNotPermitted)
	assert.Equal(t, StateIdle, c.State())
}

func TestSaveEdit_CreateReloadsAndSelects(t *testing.T) {
	svc := &memService{}
	notes := &fakeNotifier{}
	c, _ := newController(t, svc,
		WithPermissions[security](AllowCreate),
		WithNotifier[security](notes),
		WithNewEntity(func() security { return security{Name: "new"} }))

	require.NoError(t, c.OpenEdit(nil))
	assert.True(t, c.CreateMode())
	assert.Equal(t, "new", c.Editing().Name)

	require.NoError(t, c.SaveEdit(context.Background()))

	assert.Equal(t, StateIdle, c.State())
	assert.Nil(t, c.Editing())
	assert.Equal(t, []string{MsgCreated}, notes.success)
	require.Len(t, c.Entities(), 1)
	require.NotNil(t, c.Selected())
	assert.Equal(t, "generated", c.Selected().ID)
}

func TestSaveEdit_LimitExceeded(t *testing.T) {
	svc := &memService{items: []security{{ID: "1"}}, limit: 1}
	limits := &fakeLimitDialog{}
	notes := &fakeNotifier{}
	c, _ := newController(t, svc,
		WithPermissions[security](AllowCreate),
		WithLimitDialog[security](limits),
		WithNotifier[security](notes))

	require.NoError(t, c.OpenEdit(nil))
	err := c.SaveEdit(context.Background())

	require.Error(t, err)
	assert.True(t, IsLimitExceeded(err))
	require.Len(t, limits.shown, 1)
	assert.Equal(t, 1, limits.shown[0].Limit)
	assert.Empty(t, notes.errs, "limit errors bypass the generic notifier")
	assert.Equal(t, StateIdle, c.State())
}

func TestCloseDialog_NoChangeSkipsReload(t *testing.T) {
	svc := &memService{items: []security{{ID: "1"}}}
	c, _ := newController(t, svc, WithPermissions[security](AllowEdit))

	e := c.Entities()[0]
	require.NoError(t, c.OpenEdit(&e))

	svc.readErr = errors.New("must not be called")
	require.NoError(t, c.CloseDialog(context.Background(), Result[security]{Action: NoChange}))
	assert.Equal(t, StateIdle, c.State())
}

func TestRefreshSelectedEntity(t *testing.T) {
	svc := &memService{items: []security{{ID: "1", Name: "old"}, {ID: "2"}}}
	c, _ := newController(t, svc, WithPermissions[security](AllowEdit))

	e := c.Entities()[0]
	c.SelectEntity(&e)

	svc.items[0].Name = "new"
	require.NoError(t, c.ReadData(context.Background()))
	require.NotNil(t, c.Selected())
	assert.Equal(t, "new", c.Selected().Name, "selection re-resolved by key")

	svc.items = svc.items[1:]
	require.NoError(t, c.ReadData(context.Background()))
	assert.Nil(t, c.Selected(), "vanished entity clears the selection")
	assert.Empty(t, menuSummary(c.Menu()))
}

func TestReadData_FailureKeepsList(t *testing.T) {
	svc := &memService{items: []security{{ID: "1"}}}
	c, _ := newController(t, svc)

	svc.readErr = errors.New("offline")
	assert.Error(t, c.ReadData(context.Background()))
	assert.Len(t, c.Entities(), 1)
}

func TestMenuCommands(t *testing.T) {
	svc := &memService{items: []security{{ID: "1"}}}
	c, _ := newController(t, svc,
		WithPermissions[security](AllowEdit, AllowDelete),
		WithConfirmer[security](&fakeConfirmer{answer: true}))

	e := c.Entities()[0]
	c.SelectEntity(&e)

	var edit, del panel.MenuItem
	for _, it := range c.Menu() {
		switch it.ID {
		case MenuEdit:
			edit = it
		case MenuDelete:
			del = it
		}
	}
	require.NotNil(t, edit.Command)
	require.NoError(t, edit.Command(context.Background()))
	assert.Equal(t, StateDialogOpen, c.State())

	require.NoError(t, c.CloseDialog(context.Background(), Result[security]{Action: NoChange}))
	require.NoError(t, del.Command(context.Background()))
	assert.Equal(t, []string{"1"}, svc.deleted)
}

func TestReleaseDeactivatesPanel(t *testing.T) {
	c, reg := newController(t, &memService{})
	c.SelectEntity(nil)
	require.True(t, reg.IsActive(c.Owner()))

	c.Release()
	assert.False(t, reg.IsActive(c.Owner()))
}

func TestParsePermissions(t *testing.T) {
	perms, unknown := ParsePermissions([]string{"Allow_Create", "Allow_Fly", "Allow_Delete"})
	assert.Equal(t, []Permission{AllowCreate, AllowDelete}, perms)
	assert.Equal(t, []string{"Allow_Fly"}, unknown)
}
