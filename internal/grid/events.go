package grid

import (
	"strconv"

	"github.com/roach88/editgrid/internal/column"
)

// EventType names an engine lifecycle event.
type EventType string

const (
	EventRowEditInit      EventType = "rowEditInit"
	EventRowEditSave      EventType = "rowEditSave"
	EventRowEditCancel    EventType = "rowEditCancel"
	EventRowAdded         EventType = "rowAdded"
	EventFieldValueChange EventType = "fieldValueChange"
	EventValidationError  EventType = "validationError"
)

// Event is emitted after the engine state has settled.
type Event[T any] struct {
	Type  EventType
	Seq   int64
	Key   string
	Row   T
	Index int

	// rowEditSave
	Original T
	IsNew    bool

	// fieldValueChange
	Field    string
	OldValue any
	NewValue any

	// validationError
	Errors []column.FieldError
}

// Handler receives engine events.
type Handler[T any] func(Event[T])

// KeyGenerator produces keys for new rows that arrive without one.
type KeyGenerator interface {
	Generate() string
}

// CounterKeys generates "new_1", "new_2", ...
type CounterKeys struct {
	n int
}

// Generate implements KeyGenerator.
func (c *CounterKeys) Generate() string {
	c.n++
	return "new_" + strconv.Itoa(c.n)
}
