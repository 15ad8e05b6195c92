package compiler

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

// TablesPath is the top-level CUE field holding table declarations.
const TablesPath = "table"

// Load builds the CUE value at path, which is either a directory holding
// one CUE package or a single .cue file.
func Load(path string) (cue.Value, error) {
	info, err := os.Stat(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("load %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

// LoadDir builds the CUE package in dir.
func LoadDir(dir string) (cue.Value, error) {
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return cue.Value{}, fmt.Errorf("load %s: no CUE instances", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return cue.Value{}, formatCUEError(inst.Err)
	}
	v := cuecontext.New().BuildInstance(inst)
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// LoadFile compiles a single CUE file.
func LoadFile(path string) (cue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cue.Value{}, fmt.Errorf("load %s: %w", path, err)
	}
	v := cuecontext.New().CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return v, nil
}

// CompileTables compiles every table declared under "table" in declaration
// order. Failing tables are skipped and their errors collected.
func CompileTables(v cue.Value) ([]*TableSpec, []error) {
	tables := v.LookupPath(cue.ParsePath(TablesPath))
	if !tables.Exists() {
		return nil, nil
	}
	iter, err := tables.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var specs []*TableSpec
	var errs []error
	for iter.Next() {
		spec, err := CompileTable(iter.Value())
		if err != nil {
			errs = append(errs, fmt.Errorf("table %s: %w", iter.Label(), err))
			continue
		}
		specs = append(specs, spec)
	}
	return specs, errs
}

// LookupTable compiles the table called name.
func LookupTable(v cue.Value, name string) (*TableSpec, error) {
	t := v.LookupPath(cue.MakePath(cue.Str(TablesPath), cue.Str(name)))
	if !t.Exists() {
		return nil, fmt.Errorf("table %q not declared", name)
	}
	return CompileTable(t)
}
