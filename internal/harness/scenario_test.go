package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeScenario writes a spec and a scenario into dir and returns the
// scenario path.
func writeScenario(t *testing.T, dir, content string) string {
	t.Helper()
	spec := filepath.Join(dir, "tables.cue")
	require.NoError(t, os.WriteFile(spec, []byte(`table: T: {dataKey: "id", columns: id: {}}`), 0644))
	path := filepath.Join(dir, "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: valid
description: "A valid scenario"
spec: tables.cue
table: T
limit: 2
rows:
  - {id: a}
steps:
  - {op: init, key: a}
  - {op: set, key: a, field: id, value: b, expect_error: not_editable}
  - {op: delete, key: a, confirm: false}
assertions:
  - type: row_count
    count: 1
`)

	scenario, err := LoadScenario(path)
	require.NoError(t, err)

	assert.Equal(t, "valid", scenario.Name)
	assert.Equal(t, filepath.Join(dir, "tables.cue"), scenario.Spec)
	assert.Equal(t, "T", scenario.Table)
	assert.Equal(t, 2, scenario.Limit)
	require.Len(t, scenario.Rows, 1)
	assert.Equal(t, "a", scenario.Rows[0]["id"])
	require.Len(t, scenario.Steps, 3)
	assert.Equal(t, "b", scenario.Steps[1].Value)
	assert.Equal(t, "not_editable", scenario.Steps[1].ExpectError)
	require.NotNil(t, scenario.Steps[2].Confirm)
	assert.False(t, *scenario.Steps[2].Confirm)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestLoadScenario_BasePath(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, `
name: based
description: "Spec resolved against an explicit base"
spec: tables.cue
table: T
steps:
  - {op: validateAll}
assertions:
  - {type: menu}
`)
	other := t.TempDir()
	_, err := LoadScenarioWithBasePath(path, other)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spec not found")

	scenario, err := LoadScenarioWithBasePath(path, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tables.cue"), scenario.Spec)
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown field",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nstep: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing name",
			content: "description: d\nspec: tables.cue\ntable: T\nsteps: [{op: commit}]\nassertions: [{type: menu}]\n",
			wantErr: "name is required",
		},
		{
			name:    "missing table",
			content: "name: x\ndescription: d\nspec: tables.cue\nsteps: [{op: commit}]\nassertions: [{type: menu}]\n",
			wantErr: "table is required",
		},
		{
			name:    "no steps",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nsteps: []\nassertions: [{type: menu}]\n",
			wantErr: "steps list is required",
		},
		{
			name:    "spec missing",
			content: "name: x\ndescription: d\nspec: nope.cue\ntable: T\nsteps: [{op: commit}]\nassertions: [{type: menu}]\n",
			wantErr: "spec not found",
		},
		{
			name:    "unknown op",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nsteps: [{op: fly}]\nassertions: [{type: menu}]\n",
			wantErr: `steps[0]: unknown op "fly"`,
		},
		{
			name:    "keyed op without key",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nsteps: [{op: init}]\nassertions: [{type: menu}]\n",
			wantErr: "key is required for init",
		},
		{
			name:    "set without field",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nsteps: [{op: set, key: a}]\nassertions: [{type: menu}]\n",
			wantErr: "field is required for set",
		},
		{
			name:    "unknown error kind",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nsteps: [{op: commit, expect_error: boom}]\nassertions: [{type: menu}]\n",
			wantErr: `unknown expect_error "boom"`,
		},
		{
			name:    "unknown assertion",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nsteps: [{op: commit}]\nassertions: [{type: vibes}]\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "row_state without expect",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nsteps: [{op: commit}]\nassertions: [{type: row_state, key: a}]\n",
			wantErr: "key and expect are required for row_state",
		},
		{
			name:    "options without field",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nsteps: [{op: commit}]\nassertions: [{type: options, key: a}]\n",
			wantErr: "key and field are required for options",
		},
		{
			name:    "negative limit",
			content: "name: x\ndescription: d\nspec: tables.cue\ntable: T\nlimit: -1\nsteps: [{op: commit}]\nassertions: [{type: menu}]\n",
			wantErr: "limit must be non-negative",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeScenario(t, t.TempDir(), tt.content)
			_, err := LoadScenario(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_TestdataScenarios(t *testing.T) {
	files, err := FindScenarios(scenarioDir, "")
	require.NoError(t, err)
	for _, path := range files {
		_, err := LoadScenario(path)
		assert.NoError(t, err, path)
	}
}
