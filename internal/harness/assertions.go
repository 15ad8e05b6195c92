package harness

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/editgrid/internal/store"
	"github.com/roach88/editgrid/internal/trace"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Events   []trace.Record
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if len(e.Events) > 0 {
		fmt.Fprintf(&buf, "\nEvents:\n")
		for _, ev := range e.Events {
			fmt.Fprintf(&buf, "  [%d] %s %s\n", ev.Seq, ev.Type, ev.Key)
		}
	}
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result. Row,
// option and menu assertions read the live components in h. Returns the
// messages of failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, h *Harness) []string {
	var msgs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertEventOrder:
			err = assertEventOrder(result.Events, a)
		case AssertEventCount:
			err = assertEventCount(result.Events, a)
		case AssertEventContains:
			err = assertEventContains(result.Events, a)
		case AssertRowState:
			err = assertRowState(result, a, h)
		case AssertRowCount:
			err = assertRowCount(result, a)
		case AssertOptions:
			err = assertOptions(a, h)
		case AssertFieldError:
			err = assertFieldError(a, h)
		case AssertMenu:
			err = assertMenu(a, h)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}
		if err != nil {
			msgs = append(msgs, err.Error())
		}
	}
	return msgs
}

// assertEventOrder checks that the first occurrences of the listed event
// types appear in order. Other events may be interleaved.
func assertEventOrder(events []trace.Record, a Assertion) error {
	pos := 0
	for _, want := range a.Events {
		found := false
		for pos < len(events) {
			got := string(events[pos].Type)
			pos++
			if got == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertEventOrder,
				Expected: fmt.Sprintf("events in order: %v", a.Events),
				Actual:   fmt.Sprintf("%s missing after position %d", want, pos),
				Events:   events,
			}
		}
	}
	return nil
}

func assertEventCount(events []trace.Record, a Assertion) error {
	n := 0
	for _, ev := range events {
		if string(ev.Type) == a.Event {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertEventCount,
			Expected: fmt.Sprintf("%d occurrences of %s", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d occurrences", n),
			Events:   events,
		}
	}
	return nil
}

// assertEventContains checks that some event of the type matches every
// entry of a.Match against its canonical object.
func assertEventContains(events []trace.Record, a Assertion) error {
	for _, ev := range events {
		if string(ev.Type) != a.Event {
			continue
		}
		if subsetMatch(ev.Object(), a.Match) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertEventContains,
		Expected: fmt.Sprintf("%s matching %v", a.Event, a.Match),
		Actual:   "not found in journal",
		Events:   events,
	}
}

func assertRowState(result *Result, a Assertion, h *Harness) error {
	rows := result.Rows
	where := "grid"
	if a.Stored {
		rows = result.Stored
		where = "store"
	}
	dataKey := h.grid.Engine().Model().DataKey
	for _, r := range rows {
		if store.KeyOf(r, dataKey) != a.Key {
			continue
		}
		for field, want := range a.Expect {
			if got := r[field]; !sameValue(got, want) {
				return &AssertionError{
					Type:     AssertRowState,
					Expected: fmt.Sprintf("%s row %q field %q = %v", where, a.Key, field, want),
					Actual:   fmt.Sprintf("%v (type %T)", got, got),
				}
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertRowState,
		Expected: fmt.Sprintf("%s row %q", where, a.Key),
		Actual:   "row not found",
	}
}

func assertRowCount(result *Result, a Assertion) error {
	n, where := len(result.Rows), "grid"
	if a.Stored {
		n, where = len(result.Stored), "store"
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertRowCount,
			Expected: fmt.Sprintf("%d %s rows", a.Count, where),
			Actual:   fmt.Sprintf("%d rows", n),
		}
	}
	return nil
}

func assertOptions(a Assertion, h *Harness) error {
	row, ok := h.row(a.Key)
	if !ok {
		return &AssertionError{Type: AssertOptions, Expected: fmt.Sprintf("row %q", a.Key), Actual: "row not found"}
	}
	var keys []any
	for _, o := range h.grid.Engine().Options(row, a.Field) {
		keys = append(keys, o.Key)
	}
	if len(keys) != len(a.Options) || (len(keys) > 0 && !sameValue(keys, a.Options)) {
		return &AssertionError{
			Type:     AssertOptions,
			Expected: fmt.Sprintf("options of %s on %q = %v", a.Field, a.Key, a.Options),
			Actual:   fmt.Sprintf("%v", keys),
		}
	}
	return nil
}

func assertFieldError(a Assertion, h *Harness) error {
	row, ok := h.row(a.Key)
	if !ok {
		return &AssertionError{Type: AssertFieldError, Expected: fmt.Sprintf("row %q", a.Key), Actual: "row not found"}
	}
	got := h.grid.Engine().FieldErrors(row)[a.Field]
	if got != a.Message {
		return &AssertionError{
			Type:     AssertFieldError,
			Expected: fmt.Sprintf("error on %s of %q = %q", a.Field, a.Key, a.Message),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func assertMenu(a Assertion, h *Harness) error {
	var ids, disabled []string
	for _, item := range h.browser.Controller().Menu() {
		if item.Separator {
			continue
		}
		ids = append(ids, item.ID)
		if item.Disabled {
			disabled = append(disabled, item.ID)
		}
	}
	if !slices.Equal(ids, a.Items) {
		return &AssertionError{
			Type:     AssertMenu,
			Expected: fmt.Sprintf("menu %v", a.Items),
			Actual:   fmt.Sprintf("%v", ids),
		}
	}
	if !slices.Equal(disabled, a.Disabled) {
		return &AssertionError{
			Type:     AssertMenu,
			Expected: fmt.Sprintf("disabled items %v", a.Disabled),
			Actual:   fmt.Sprintf("%v", disabled),
		}
	}
	return nil
}

// subsetMatch reports whether every entry of expected is present in actual
// with the same canonical value. Extra keys in actual are ignored.
func subsetMatch(actual, expected map[string]any) bool {
	for k, want := range expected {
		got, ok := actual[k]
		if !ok && want != nil {
			return false
		}
		if !sameValue(got, want) {
			return false
		}
	}
	return true
}

// sameValue compares by canonical JSON, so 10, int64(10) and 10.0 are equal
// and YAML-decoded maps compare with stored rows.
func sameValue(a, b any) bool {
	ca, errA := trace.Marshal(a)
	cb, errB := trace.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return bytes.Equal(ca, cb)
}
