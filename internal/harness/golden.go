package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/editgrid/internal/trace"
)

// GoldenDir is where RunWithGolden keeps golden files, relative to the
// test's package directory.
const GoldenDir = "testdata/golden"

// Snapshot renders the deterministic parts of a result as canonical JSON:
// the journal, the final grid rows and the persisted rows. Event IDs are
// left out; they are derived from the other fields.
func Snapshot(name string, result *Result) ([]byte, error) {
	events := make([]any, len(result.Events))
	for i, ev := range result.Events {
		obj := ev.Object()
		delete(obj, "id")
		events[i] = obj
	}
	notices := make([]any, len(result.Notices))
	for i, n := range result.Notices {
		notices[i] = map[string]any{"kind": n.Kind, "message": n.Message}
	}
	return trace.Marshal(map[string]any{
		"scenario_name": name,
		"events":        events,
		"rows":          recordsToAny(result.Rows),
		"stored":        recordsToAny(result.Stored),
		"notices":       notices,
	})
}

func recordsToAny[T ~map[string]any](rows []T) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = map[string]any(r)
	}
	return out
}

// RunWithGolden executes a scenario and compares its snapshot against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := Snapshot(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir(GoldenDir),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
