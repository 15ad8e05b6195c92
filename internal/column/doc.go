// Package column holds the declarative column model shared by the grid engine,
// the CRUD controller and the renderers.
//
// A Model is pure data: it names the fields of a table, how each one is shown,
// and, for editable columns, how its input behaves (input kind, dependent
// dropdown wiring, validation rules and messages, change hooks).
//
// Hooks receive the row as `any`; hosts type-assert to their row type. The
// model never mutates rows itself.
package column
