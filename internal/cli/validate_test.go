package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/editgrid/internal/compiler"
)

const missingDataKeyCUE = `package specs

table: Broken: {
	columns: name: {header: "NAME"}
}
`

func runValidateArgs(t *testing.T, format string, args ...string) (string, error) {
	t.Helper()
	cmd := NewValidateCommand(&RootOptions{Format: format})
	return execute(t, cmd, args...)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		specs    func(t *testing.T) string
		format   string
		wantCode int
		want     []string
	}{
		{
			name:   "valid dir",
			specs:  func(t *testing.T) string { return writeSpecs(t, tablesCUE) },
			format: "text",
			want:   []string{"✓ All specs valid (2 table(s))"},
		},
		{
			name:   "valid file",
			specs:  func(t *testing.T) string { return filepath.Join(writeSpecs(t, tablesCUE), "tables.cue") },
			format: "text",
			want:   []string{"✓ All specs valid (2 table(s))"},
		},
		{
			name:     "missing data key",
			specs:    func(t *testing.T) string { return writeSpecs(t, missingDataKeyCUE) },
			format:   "text",
			wantCode: ExitFailure,
			want:     []string{"✗ Validation failed", compiler.ErrMissingDataKey},
		},
		{
			name:     "missing path",
			specs:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
			format:   "text",
			wantCode: ExitCommandError,
			want:     []string{"Error [E005]: specs path not found"},
		},
		{
			name:     "empty dir",
			specs:    func(t *testing.T) string { return t.TempDir() },
			format:   "text",
			wantCode: ExitCommandError,
			want:     []string{"Error [E003]"},
		},
		{
			name:     "no tables",
			specs:    func(t *testing.T) string { return writeSpecs(t, "package specs\n\nother: 1\n") },
			format:   "text",
			wantCode: ExitCommandError,
			want:     []string{"Error [E006]"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runValidateArgs(t, tt.format, tt.specs(t))
			if tt.wantCode == 0 {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, GetExitCode(err))
			}
			for _, w := range tt.want {
				assert.Contains(t, out, w)
			}
		})
	}
}

func TestValidate_JSON(t *testing.T) {
	out, err := runValidateArgs(t, "json", writeSpecs(t, missingDataKeyCUE))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp struct {
		Status string           `json:"status"`
		Data   ValidationResult `json:"data"`
		Error  *CLIError        `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.False(t, resp.Data.Valid)
	assert.Equal(t, 1, resp.Data.Tables)
	require.NotEmpty(t, resp.Data.Errors)
	assert.Equal(t, compiler.ErrMissingDataKey, resp.Error.Code)
}

func TestValidate_RequiresArg(t *testing.T) {
	_, err := runValidateArgs(t, "text")
	require.Error(t, err)
}
