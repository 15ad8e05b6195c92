// Package grid implements the editable-grid engine: the per-row edit state
// machine, dependent dropdown resolution and validation behind every inline
// editing table.
//
// ARCHITECTURE:
//
// The host owns the rows and their persistence. The engine owns an overlay of
// edit sessions keyed by row key:
//
//	no session --InitRowEdit--> session --SaveRowEdit (valid)--> no session
//	                                    --CancelRowEdit-------> no session
//	AddNewRow ------------------> session (isNew)
//
// A session holds the pre-edit snapshot, the cached select options and the
// field error map. Every state change is announced as an Event stamped with a
// logical sequence number, and the host reacts to events (persist on
// rowEditSave, focus on rowEditInit).
//
// In batch mode every row holds an implicit session, per-row save and cancel
// are unavailable and the host validates and persists all rows at once.
//
// Rows are accessed through an Accessor so the engine works for maps
// (RecordAccessor) and pointer-to-struct rows (StructAccessor) alike. Rows
// must have reference semantics: edits are written in place.
//
// The engine is not safe for concurrent use. Drive it from one goroutine.
package grid
