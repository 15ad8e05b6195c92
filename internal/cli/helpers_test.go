package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

const tablesCUE = `package specs

table: Commission: {
	dataKey: "id"
	permissions: ["Allow_Create", "Allow_Edit", "Allow_Delete"]
	columns: {
		id: {header: "ID", visible: false}
		comType: {
			header: "COM_TYPE"
			edit: {
				required: true
				options: [{key: "A", value: "TYPE_A"}, {key: "B", value: "TYPE_B"}]
			}
		}
		targetType: {
			header: "TARGET_TYPE"
			edit: {
				dependsOn: "comType"
				optionsMap: A: [{key: "X", value: "X"}]
			}
		}
		percentage: {
			header:   "PERCENTAGE"
			type:     "numeric"
			template: "percent"
			edit: {min: 0.1, max: 100}
		}
	}
}

table: Security: {
	dataKey: "id"
	permissions: ["Allow_Delete"]
	columns: {
		id: {visible: false}
		name: {header: "NAME", edit: required: true}
	}
}
`

// writeSpecs writes content as tables.cue into a new specs directory.
func writeSpecs(t *testing.T, content string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "specs")
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tables.cue"), []byte(content), 0644))
	return dir
}

// execute runs cmd with args and returns its stdout.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}
