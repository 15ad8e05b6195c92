package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/editgrid/internal/column"
	"github.com/roach88/editgrid/internal/compiler"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompilationResult holds the compiled table specs.
type CompilationResult struct {
	Tables []*compiler.TableSpec `json:"tables"`
}

// TableStats summarizes one compiled table.
type TableStats struct {
	Name       string `json:"name"`
	Columns    int    `json:"columns"`
	Editable   int    `json:"editable"`
	Selects    int    `json:"selects"`
	Dependents int    `json:"dependents"`
	Batch      bool   `json:"batch,omitempty"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <specs>",
		Short: "Compile table specs to JSON",
		Long: `Compile CUE table declarations into column models.

Every table is validated and built; the compiled specs are written as
JSON with --output.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, specs string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSpecs(specs, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadError(formatter, loadErrors[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specs)

	errs := loadErrors
	stats := make([]TableStats, 0, len(loadResult.Tables))
	for _, spec := range loadResult.Tables {
		formatter.VerboseLog("Compiling table: %s", spec.Name)
		model, err := compiler.CompileModel(spec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		stats = append(stats, tableStats(model))
	}
	if len(errs) > 0 {
		return outputCompileErrors(formatter, errs)
	}

	result := &CompilationResult{Tables: loadResult.Tables}
	if opts.Output != "" {
		if err := writeSpecsToFile(result, opts.Output); err != nil {
			return commandError(formatter, ErrCodeWriteFailed, fmt.Sprintf("writing output file: %v", err))
		}
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d table(s)\n\n", len(stats))
	for _, s := range stats {
		mode := ""
		if s.Batch {
			mode = ", batch"
		}
		fmt.Fprintf(formatter.Writer, "  %s: %d column(s), %d editable, %d select, %d dependent%s\n",
			s.Name, s.Columns, s.Editable, s.Selects, s.Dependents, mode)
	}
	if opts.Output != "" {
		fmt.Fprintf(formatter.Writer, "\nWrote compiled specs to %s\n", opts.Output)
	}
	return nil
}

func tableStats(m *column.Model) TableStats {
	s := TableStats{Name: m.Name, Columns: len(m.Columns), Batch: m.Batch, Selects: len(m.SelectColumns())}
	for _, c := range m.Columns {
		if c.Edit == nil {
			continue
		}
		s.Editable++
		if c.Edit.DependsOn != "" {
			s.Dependents++
		}
	}
	return s
}

// outputCompileErrors reports load and validation failures with exit code 2.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	var cliErrors []CLIError
	for _, err := range errs {
		cliErrors = append(cliErrors, toCLIErrors(err)...)
	}
	failed := NewExitError(ExitCommandError, fmt.Sprintf("compilation failed with %d error(s)", len(cliErrors)))

	if formatter.JSON() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Error:  &cliErrors[0],
			Data:   cliErrors,
		}); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, e := range cliErrors {
		if pos, ok := e.Details.(string); ok {
			fmt.Fprintln(formatter.Writer, pos)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s\n\n", e.Code, e.Message)
	}
	return failed
}

// toCLIErrors flattens a load or table error. Positions go to Details.
func toCLIErrors(err error) []CLIError {
	var invalid *compiler.InvalidTableError
	if errors.As(err, &invalid) {
		out := make([]CLIError, 0, len(invalid.Errors))
		for _, ve := range invalid.Errors {
			e := CLIError{Code: ve.Code, Message: fmt.Sprintf("table %s: %s: %s", invalid.Table, ve.Field, ve.Message)}
			if ve.Line > 0 {
				e.Details = fmt.Sprintf("line %d", ve.Line)
			}
			out = append(out, e)
		}
		return out
	}
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		e := CLIError{Code: loadErr.Code, Message: loadErr.Message}
		if loadErr.Pos.IsValid() {
			e.Details = fmt.Sprintf("%s:%d:%d", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column())
		}
		return []CLIError{e}
	}
	return []CLIError{{Code: ErrCodeGeneric, Message: err.Error()}}
}

// writeSpecsToFile writes the compilation result as indented JSON.
func writeSpecsToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling specs: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}
