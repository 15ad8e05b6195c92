// Package panel brokers the single active panel of the application shell.
//
// Screens register their command menus with the Registry when they gain
// focus; the shell renders the menus of whichever owner is active. Only one
// owner is active at a time.
package panel

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// OwnerID identifies a panel owner (a screen or controller instance).
type OwnerID string

// NewOwnerID returns a fresh time-sortable owner ID (UUIDv7).
func NewOwnerID() OwnerID {
	return OwnerID(uuid.Must(uuid.NewV7()).String())
}

// MenuItem is one command of a panel menu.
type MenuItem struct {
	ID        string `json:"id"`
	Label     string `json:"label"`
	Disabled  bool   `json:"disabled,omitempty"`
	Separator bool   `json:"separator,omitempty"`

	// Command runs the item. Nil for separators.
	Command func(ctx context.Context) error `json:"-"`
}

// Menus are the menus an owner contributes while active.
type Menus struct {
	Edit []MenuItem `json:"edit"`
	Show []MenuItem `json:"show,omitempty"`
}

// Listener is notified whenever the active owner or its menus change.
type Listener func(owner OwnerID, menus Menus)

// Registry tracks the active panel. Safe for concurrent use.
type Registry struct {
	mu        sync.Mutex
	active    OwnerID
	menus     Menus
	listeners []Listener
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Activate makes owner the active panel with the given menus. Activating the
// already active owner replaces its menus.
func (r *Registry) Activate(owner OwnerID, menus Menus) {
	r.mu.Lock()
	r.active = owner
	r.menus = cloneMenus(menus)
	listeners := append([]Listener(nil), r.listeners...)
	snapshot := cloneMenus(r.menus)
	r.mu.Unlock()

	for _, l := range listeners {
		l(owner, snapshot)
	}
}

// IsActive reports whether owner is the active panel.
func (r *Registry) IsActive(owner OwnerID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return owner != "" && r.active == owner
}

// Active returns the active owner and its menus.
func (r *Registry) Active() (OwnerID, Menus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == "" {
		return "", Menus{}, false
	}
	return r.active, cloneMenus(r.menus), true
}

// Release deactivates owner if it is active. Releasing an inactive owner is
// a no-op.
func (r *Registry) Release(owner OwnerID) {
	r.mu.Lock()
	if r.active != owner || owner == "" {
		r.mu.Unlock()
		return
	}
	r.active = ""
	r.menus = Menus{}
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.Unlock()

	for _, l := range listeners {
		l("", Menus{})
	}
}

// Subscribe registers a listener.
func (r *Registry) Subscribe(l Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, l)
}

func cloneMenus(m Menus) Menus {
	return Menus{
		Edit: append([]MenuItem(nil), m.Edit...),
		Show: append([]MenuItem(nil), m.Show...),
	}
}
