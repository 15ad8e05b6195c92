// Package harness runs YAML scenarios against a compiled table.
//
// A scenario names a CUE spec and a table, seeds rows, then drives the grid
// engine and the CRUD controller through a step list. The engine's events
// are journaled to an in-memory store and checked by assertions and golden
// files.
//
// # Scenario Format
//
//	name: commission_dependent_dropdown
//	description: "Changing the parent clears the dependent field"
//	spec: ../specs/commission.cue
//	table: Commission
//	rows:
//	  - {id: "1", comType: A, targetType: X, percentage: 10}
//	steps:
//	  - {op: init, key: "1"}
//	  - {op: set, key: "1", field: comType, value: B}
//	  - {op: save, key: "1", expect_error: validation}
//	assertions:
//	  - type: event_order
//	    events: [rowEditInit, fieldValueChange, validationError]
//	  - type: row_state
//	    key: "1"
//	    expect: {targetType: null}
//
// # Steps
//
// Grid steps: init, set, save, cancel, add, expand, validateAll, commit.
// CRUD steps: select, deselect, delete, openEdit, closeDialog. A step with
// expect_error must fail with that kind of error (validation, not_found,
// limit, not_permitted, ...); any other step must succeed.
//
// # Assertion Types
//
//   - event_order: event types appear in the given relative order
//   - event_count: an event type appears exactly N times
//   - event_contains: some event of a type matches a subset of its object
//   - row_state: a grid (or stored) row has the given field values
//   - row_count: the grid (or store) holds N rows
//   - options: a field's resolved option keys, in order
//   - field_error: a field's current validation message
//   - menu: the controller's menu items and disabled items
//
// # Deterministic Testing
//
// Every run uses a fresh in-memory SQLite store, a deterministic event
// clock (testutil.DeterministicClock) and sequential durable keys
// (testutil.SequentialKeys), so journals and golden files are stable.
package harness
