package compiler

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCUE(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_FileAndDir(t *testing.T) {
	dir := t.TempDir()
	path := writeCUE(t, dir, "tables.cue", "package specs\n"+commissionCUE)

	for _, p := range []string{path, dir} {
		v, err := Load(p)
		require.NoError(t, err, p)

		specs, errs := CompileTables(v)
		require.Empty(t, errs)
		require.Len(t, specs, 1)
		assert.Equal(t, "Commission", specs[0].Name)
	}
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.cue"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_SyntaxErrorHasPosition(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "bad.cue", "table: {\n")

	_, err := LoadFile(path)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid())
}

func TestCompileTables_CollectsErrors(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "tables.cue", `
table: Good: {dataKey: "id", columns: id: {}}
table: Bad: {dataKey: 1, columns: id: {}}
table: Other: {dataKey: "key", columns: key: {}}
`)
	v, err := LoadFile(path)
	require.NoError(t, err)

	specs, errs := CompileTables(v)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), "table Bad")

	var names []string
	for _, s := range specs {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"Good", "Other"}, names)
}

func TestLookupTable(t *testing.T) {
	path := writeCUE(t, t.TempDir(), "tables.cue", commissionCUE)
	v, err := LoadFile(path)
	require.NoError(t, err)

	spec, err := LookupTable(v, "Commission")
	require.NoError(t, err)
	assert.Equal(t, "id", spec.DataKey)

	_, err = LookupTable(v, "Missing")
	assert.Error(t, err)
}
