package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/editgrid/internal/compiler"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first failing table.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll compiles every table and collects all errors.
	LoadModeCollectAll
)

// LoadResult holds the tables compiled from a spec path.
type LoadResult struct {
	Tables    []*compiler.TableSpec
	FileCount int
}

// LoadError is a spec loading failure with an error code.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants shared by all commands. Validation codes (E1xx)
// come from the compiler package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load or build failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeNoTables    = "E006" // No tables declared
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeCompile     = "E008" // Table does not match the schema
	ErrCodeDatabase    = "E009" // Journal database error
)

// LoadSpecs compiles the tables declared at path, a CUE file or a
// directory holding one CUE package. A nil result means nothing could be
// compiled; otherwise the errors are per-table compile failures.
func LoadSpecs(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs path: %v", err)}}
	}

	fileCount := 1
	if info.IsDir() {
		files, err := FindCUEFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}}
		}
		fileCount = len(files)
	}

	value, err := compiler.Load(path)
	if err != nil {
		return nil, []error{convertCompileError(err, ErrCodeLoadFailed)}
	}

	tables, compileErrs := compiler.CompileTables(value)
	var errs []error
	for _, err := range compileErrs {
		errs = append(errs, convertCompileError(err, ErrCodeCompile))
		if mode == LoadModeFailFast {
			break
		}
	}
	if len(tables) == 0 && len(errs) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoTables, Message: "no tables declared under \"" + compiler.TablesPath + "\""}}
	}
	return &LoadResult{Tables: tables, FileCount: fileCount}, errs
}

// FindCUEFiles walks dir and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError moves the CUE position of a compiler error out of
// its message.
func convertCompileError(err error, code string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		prefix := strings.TrimSuffix(err.Error(), compileErr.Error())
		return &LoadError{
			Code:    code,
			Message: fmt.Sprintf("%s%s: %s", prefix, compileErr.Field, compileErr.Message),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: code, Message: err.Error()}
}

// lineOf returns the line of pos, or 0.
func lineOf(pos token.Pos) int {
	if pos.IsValid() {
		return pos.Line()
	}
	return 0
}
