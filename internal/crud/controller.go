// Package crud implements the selection, menu and dialog lifecycle of
// read-only tables whose entities are edited in a dialog.
//
// The Controller keeps the entity list, the selected entity and a command
// menu derived from the selection and the table's permissions. It registers
// the menu with the panel registry, opens an edit dialog on a deep copy, and
// runs confirm-delete-reload. Persistence goes through an injected Service.
//
// The Controller is not safe for concurrent use.
package crud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/editgrid/internal/panel"
)

// State is the dialog state of a controller.
type State int

const (
	StateIdle State = iota
	StateDialogOpen
)

// String implements fmt.Stringer.
func (s State) String() string {
	if s == StateDialogOpen {
		return "dialogOpen"
	}
	return "idle"
}

// ProcessedAction is the outcome reported when an edit dialog closes.
type ProcessedAction int

const (
	NoChange ProcessedAction = iota
	Created
	Updated
	Deleted
	Rejected
)

// String implements fmt.Stringer.
func (a ProcessedAction) String() string {
	switch a {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Deleted:
		return "deleted"
	case Rejected:
		return "rejected"
	default:
		return "noChange"
	}
}

// Result is what an edit dialog reports when it closes.
type Result[T any] struct {
	Action ProcessedAction
	Entity *T
	Err    error
}

// Notification message keys.
const (
	MsgCreated       = "MSG_CREATE_RECORD"
	MsgUpdated       = "MSG_UPDATE_RECORD"
	MsgDeleted       = "MSG_DELETE_RECORD"
	MsgConfirmDelete = "MSG_CONFIRM_DELETE_RECORD"
)

// Controller is the CRUD state machine of one table.
type Controller[T any] struct {
	entityName  string
	key         func(T) string
	service     Service[T]
	panels      *panel.Registry
	owner       panel.OwnerID
	confirmer   Confirmer
	notifier    Notifier
	limits      LimitDialog
	logger      *slog.Logger
	permissions map[Permission]bool

	canCreate func(selected *T) bool
	canUpdate func(T) bool
	canDelete func(T) bool
	custom    func(selected *T) []panel.MenuItem
	show      []panel.MenuItem
	clone     func(T) (T, error)
	newEntity func() T
	userID    string
	ownerOf   func(T) string

	entities   []T
	selected   *T
	menu       []panel.MenuItem
	state      State
	editing    *T
	createMode bool
}

// ControllerOption configures a Controller.
type ControllerOption[T any] func(*Controller[T])

// WithPermissions grants permissions to the table.
func WithPermissions[T any](perms ...Permission) ControllerOption[T] {
	return func(c *Controller[T]) {
		for _, p := range perms {
			c.permissions[p] = true
		}
	}
}

// WithCreateRights gates the create command. Default: allowed.
func WithCreateRights[T any](fn func(selected *T) bool) ControllerOption[T] {
	return func(c *Controller[T]) { c.canCreate = fn }
}

// WithUpdateRights gates the edit command. Default: allowed.
func WithUpdateRights[T any](fn func(T) bool) ControllerOption[T] {
	return func(c *Controller[T]) { c.canUpdate = fn }
}

// WithDeleteRights gates the delete command. Default: the audit ownership
// check (see WithAudit).
func WithDeleteRights[T any](fn func(T) bool) ControllerOption[T] {
	return func(c *Controller[T]) { c.canDelete = fn }
}

// WithAudit sets the current user and how to find an entity's owner for the
// default delete check. Entities implementing Owned need no ownerOf.
func WithAudit[T any](userID string, ownerOf func(T) string) ControllerOption[T] {
	return func(c *Controller[T]) {
		c.userID = userID
		c.ownerOf = ownerOf
	}
}

// WithCustomMenu appends host items after the CRUD items.
func WithCustomMenu[T any](fn func(selected *T) []panel.MenuItem) ControllerOption[T] {
	return func(c *Controller[T]) { c.custom = fn }
}

// WithShowMenu sets the static "show" menu registered alongside the edit menu.
func WithShowMenu[T any](items ...panel.MenuItem) ControllerOption[T] {
	return func(c *Controller[T]) { c.show = items }
}

// WithConfirmer sets the delete confirmation. Deletes are refused until
// one is set.
func WithConfirmer[T any](cf Confirmer) ControllerOption[T] {
	return func(c *Controller[T]) { c.confirmer = cf }
}

// WithNotifier sets the notification sink. Default: silent.
func WithNotifier[T any](n Notifier) ControllerOption[T] {
	return func(c *Controller[T]) { c.notifier = n }
}

// WithLimitDialog sets the limit dialog. Without one, limit errors are
// reported through the notifier.
func WithLimitDialog[T any](d LimitDialog) ControllerOption[T] {
	return func(c *Controller[T]) { c.limits = d }
}

// WithDeepCopy sets the copy used when opening the edit dialog. Default: a
// JSON round trip.
func WithDeepCopy[T any](fn func(T) T) ControllerOption[T] {
	return func(c *Controller[T]) {
		c.clone = func(v T) (T, error) { return fn(v), nil }
	}
}

// WithNewEntity sets the factory for the create dialog. Default: zero value.
func WithNewEntity[T any](fn func() T) ControllerOption[T] {
	return func(c *Controller[T]) { c.newEntity = fn }
}

// WithControllerLogger sets the logger. Default: slog.Default().
func WithControllerLogger[T any](l *slog.Logger) ControllerOption[T] {
	return func(c *Controller[T]) { c.logger = l }
}

// New creates a controller for entityName. key extracts the entity key used
// for deletes and for re-resolving the selection after reloads.
func New[T any](
	entityName string,
	key func(T) string,
	service Service[T],
	panels *panel.Registry,
	opts ...ControllerOption[T],
) *Controller[T] {
	c := &Controller[T]{
		entityName:  entityName,
		key:         key,
		service:     service,
		panels:      panels,
		owner:       panel.NewOwnerID(),
		notifier:    silentNotifier{},
		logger:      slog.Default(),
		permissions: make(map[Permission]bool),
		canCreate:   func(*T) bool { return true },
		canUpdate:   func(T) bool { return true },
		clone:       jsonCopy[T],
		newEntity:   func() T { var zero T; return zero },
	}
	c.canDelete = c.auditOwnership
	for _, opt := range opts {
		opt(c)
	}
	c.menu = c.buildMenu(nil)
	return c
}

// Owner returns the controller's panel owner ID.
func (c *Controller[T]) Owner() panel.OwnerID { return c.owner }

// Entities returns the current entity list.
func (c *Controller[T]) Entities() []T { return append([]T(nil), c.entities...) }

// Selected returns the selected entity, or nil.
func (c *Controller[T]) Selected() *T { return c.selected }

// Menu returns the current command menu.
func (c *Controller[T]) Menu() []panel.MenuItem { return append([]panel.MenuItem(nil), c.menu...) }

// State returns the dialog state.
func (c *Controller[T]) State() State { return c.state }

// Editing returns the dialog's working copy, or nil when no dialog is open.
func (c *Controller[T]) Editing() *T { return c.editing }

// CreateMode reports whether the open dialog creates a new entity.
func (c *Controller[T]) CreateMode() bool { return c.createMode }

// HasPermission reports whether p is granted.
func (c *Controller[T]) HasPermission(p Permission) bool { return c.permissions[p] }

// SelectEntity selects entity (nil clears the selection), re-derives the
// menu and makes this controller the active panel.
func (c *Controller[T]) SelectEntity(entity *T) {
	if entity == nil {
		c.selected = nil
	} else {
		v := *entity
		c.selected = &v
	}
	c.menu = c.buildMenu(c.selected)
	c.panels.Activate(c.owner, panel.Menus{Edit: c.menu, Show: c.show})
	c.logger.Debug("entity selected", "entity", c.entityName, "selected", c.selected != nil, "menu", len(c.menu))
}

// Activate registers the current menus with the panel registry, e.g. when
// the screen regains focus.
func (c *Controller[T]) Activate() {
	c.panels.Activate(c.owner, panel.Menus{Edit: c.menu, Show: c.show})
}

// Release gives up the active panel.
func (c *Controller[T]) Release() {
	c.panels.Release(c.owner)
}

// ReadData replaces the entity list from the service and re-resolves the
// selection. On failure the list and selection are left untouched.
func (c *Controller[T]) ReadData(ctx context.Context) error {
	list, err := c.service.Read(ctx)
	if err != nil {
		c.logger.Error("read failed", "entity", c.entityName, "error", err)
		return fmt.Errorf("read %s: %w", c.entityName, err)
	}
	c.entities = list
	c.RefreshSelectedEntity()
	c.logger.Debug("entities loaded", "entity", c.entityName, "count", len(list))
	return nil
}

// RefreshSelectedEntity re-resolves the selection by key against the
// current list and re-derives the menu.
func (c *Controller[T]) RefreshSelectedEntity() {
	if c.selected != nil {
		want := c.key(*c.selected)
		c.selected = nil
		for i := range c.entities {
			if c.key(c.entities[i]) == want {
				v := c.entities[i]
				c.selected = &v
				break
			}
		}
	}
	c.menu = c.buildMenu(c.selected)
	if c.panels.IsActive(c.owner) {
		c.Activate()
	}
}

// OpenEdit opens the edit dialog on a deep copy of entity; nil opens it in
// create mode.
func (c *Controller[T]) OpenEdit(entity *T) error {
	if c.state == StateDialogOpen {
		return fmt.Errorf("open edit %s: %w", c.entityName, ErrDialogOpen)
	}

	if entity == nil {
		if !c.permissions[AllowCreate] || !c.canCreate(c.selected) {
			return fmt.Errorf("create %s: %w", c.entityName, ErrNotPermitted)
		}
		v := c.newEntity()
		c.editing = &v
		c.createMode = true
	} else {
		if !c.permissions[AllowEdit] || !c.canUpdate(*entity) {
			return fmt.Errorf("edit %s: %w", c.entityName, ErrNotPermitted)
		}
		v, err := c.clone(*entity)
		if err != nil {
			return fmt.Errorf("edit %s: copy entity: %w", c.entityName, err)
		}
		c.editing = &v
		c.createMode = false
	}

	c.state = StateDialogOpen
	c.logger.Debug("dialog opened", "entity", c.entityName, "create", c.createMode)
	return nil
}

// SaveEdit persists the dialog's working copy and closes the dialog. A limit
// error closes the dialog and shows the limit dialog; other failures keep
// the dialog open.
func (c *Controller[T]) SaveEdit(ctx context.Context) error {
	if c.state != StateDialogOpen {
		return fmt.Errorf("save %s: %w", c.entityName, ErrNoDialog)
	}

	saved, err := c.service.Update(ctx, *c.editing)
	if err != nil {
		if IsLimitExceeded(err) {
			if cerr := c.CloseDialog(ctx, Result[T]{Action: Rejected, Err: err}); cerr != nil {
				return cerr
			}
		} else {
			c.logger.Error("save failed", "entity", c.entityName, "error", err)
			c.notifier.Error(err.Error())
		}
		return fmt.Errorf("save %s: %w", c.entityName, err)
	}

	action := Updated
	if c.createMode {
		action = Created
	}
	return c.CloseDialog(ctx, Result[T]{Action: action, Entity: &saved})
}

// CloseDialog returns to Idle. A change reloads the list after a success
// notification; a limit error opens the limit dialog.
func (c *Controller[T]) CloseDialog(ctx context.Context, result Result[T]) error {
	c.state = StateIdle
	c.editing = nil
	c.createMode = false

	if result.Err != nil {
		var le *LimitExceededError
		if errors.As(result.Err, &le) && c.limits != nil {
			c.limits.ShowLimitExceeded(le)
		} else {
			c.notifier.Error(result.Err.Error())
		}
		c.logger.Warn("dialog closed with error", "entity", c.entityName, "error", result.Err)
		return nil
	}

	switch result.Action {
	case Created:
		c.notifier.Success(MsgCreated)
	case Updated:
		c.notifier.Success(MsgUpdated)
	case Deleted:
		c.notifier.Success(MsgDeleted)
	default:
		return nil
	}
	if result.Entity != nil && result.Action != Deleted {
		v := *result.Entity
		c.selected = &v
	}
	return c.ReadData(ctx)
}

// DeleteEntity confirms, deletes through the service, clears the selection
// and reloads. A declined confirmation is a no-op. Without a Confirmer the
// delete is refused with ErrNoConfirmer.
func (c *Controller[T]) DeleteEntity(ctx context.Context, entity T) error {
	if !c.permissions[AllowDelete] || !c.canDelete(entity) {
		return fmt.Errorf("delete %s: %w", c.entityName, ErrNotPermitted)
	}

	if c.confirmer == nil {
		c.logger.Warn("delete refused without confirmer", "entity", c.entityName)
		return fmt.Errorf("delete %s: %w", c.entityName, ErrNoConfirmer)
	}
	ok, err := c.confirmer.Confirm(ctx, MsgConfirmDelete+"|"+c.entityName)
	if err != nil {
		return fmt.Errorf("delete %s: confirm: %w", c.entityName, err)
	}
	if !ok {
		c.logger.Debug("delete declined", "entity", c.entityName)
		return nil
	}

	key := c.key(entity)
	if err := c.service.Delete(ctx, key); err != nil {
		c.logger.Error("delete failed", "entity", c.entityName, "key", key, "error", err)
		return fmt.Errorf("delete %s %q: %w", c.entityName, key, err)
	}

	c.logger.Info("entity deleted", "entity", c.entityName, "key", key)
	c.notifier.Success(MsgDeleted)
	c.SelectEntity(nil)
	return c.ReadData(ctx)
}

// auditOwnership is the default delete check: without audit information
// every entity is deletable, otherwise only the owner may delete.
func (c *Controller[T]) auditOwnership(entity T) bool {
	if c.userID == "" {
		return true
	}
	var owner string
	switch {
	case c.ownerOf != nil:
		owner = c.ownerOf(entity)
	default:
		if o, ok := any(entity).(Owned); ok {
			owner = o.EntityOwner()
		}
	}
	return owner == "" || owner == c.userID
}

func jsonCopy[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
