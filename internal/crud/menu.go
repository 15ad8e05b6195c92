package crud

import (
	"context"

	"github.com/roach88/editgrid/internal/panel"
)

// Permission names a CRUD capability granted to a table.
type Permission string

const (
	AllowCreate Permission = "Allow_Create"
	AllowEdit   Permission = "Allow_Edit"
	AllowDelete Permission = "Allow_Delete"
)

// ValidPermissions lists the known permissions.
var ValidPermissions = []Permission{AllowCreate, AllowEdit, AllowDelete}

// ParsePermissions converts permission names, skipping unknown ones. The
// second result lists the names that were skipped.
func ParsePermissions(names []string) ([]Permission, []string) {
	var perms []Permission
	var unknown []string
	for _, n := range names {
		p := Permission(n)
		if isValidPermission(p) {
			perms = append(perms, p)
		} else {
			unknown = append(unknown, n)
		}
	}
	return perms, unknown
}

func isValidPermission(p Permission) bool {
	for _, v := range ValidPermissions {
		if v == p {
			return true
		}
	}
	return false
}

// Menu item IDs.
const (
	MenuCreate = "create"
	MenuEdit   = "edit"
	MenuDelete = "delete"
)

// buildMenu derives the command menu from the selection and permissions.
// It reads no other controller state.
func (c *Controller[T]) buildMenu(selected *T) []panel.MenuItem {
	var items []panel.MenuItem

	if c.permissions[AllowCreate] {
		items = append(items, panel.MenuItem{
			ID:       MenuCreate,
			Label:    "CREATE|" + c.entityName,
			Disabled: !c.canCreate(selected),
			Command:  func(context.Context) error { return c.OpenEdit(nil) },
		})
	}

	if selected != nil {
		entity := *selected
		if c.permissions[AllowEdit] {
			items = append(items, panel.MenuItem{
				ID:       MenuEdit,
				Label:    "EDIT_RECORD|" + c.entityName,
				Disabled: !c.canUpdate(entity),
				Command:  func(context.Context) error { return c.OpenEdit(&entity) },
			})
		}
		if c.permissions[AllowDelete] {
			items = append(items, panel.MenuItem{
				ID:       MenuDelete,
				Label:    "DELETE_RECORD|" + c.entityName,
				Disabled: !c.canDelete(entity),
				Command:  func(ctx context.Context) error { return c.DeleteEntity(ctx, entity) },
			})
		}
	}

	if c.custom != nil {
		if extra := c.custom(selected); len(extra) > 0 {
			items = append(items, panel.MenuItem{ID: "separator", Separator: true})
			items = append(items, extra...)
		}
	}
	return items
}
