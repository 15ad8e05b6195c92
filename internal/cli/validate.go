package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/editgrid/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Tables int                        `json:"tables"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <specs>",
		Short: "Validate table specs",
		Long: `Validate the CUE table declarations in a file or package directory.

Checks every table against the schema: data key, columns, dependsOn
references and cycles, bounds, input types, option sources, permissions.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, specs string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	loadResult, loadErrors := LoadSpecs(specs, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadError(formatter, loadErrors[0])
	}
	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, specs)

	var errs []compiler.ValidationError
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			errs = append(errs, compiler.ValidationError{
				Field:   "load",
				Message: loadErr.Message,
				Code:    loadErr.Code,
				Line:    lineOf(loadErr.Pos),
			})
		}
	}
	for _, spec := range loadResult.Tables {
		formatter.VerboseLog("Validating table: %s", spec.Name)
		errs = append(errs, compiler.Validate(spec)...)
	}

	if len(errs) > 0 {
		return outputValidationErrors(formatter, len(loadResult.Tables), errs)
	}
	if formatter.JSON() {
		return formatter.Success(ValidationResult{Valid: true, Tables: len(loadResult.Tables)})
	}
	fmt.Fprintf(formatter.Writer, "✓ All specs valid (%d table(s))\n", len(loadResult.Tables))
	return nil
}

// outputLoadError reports a failure that prevented loading any table.
func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return commandError(formatter, loadErr.Code, loadErr.Message)
	}
	return commandError(formatter, ErrCodeGeneric, err.Error())
}

// outputValidationErrors reports schema violations with exit code 1.
func outputValidationErrors(formatter *OutputFormatter, tables int, errs []compiler.ValidationError) error {
	failed := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if formatter.JSON() {
		if err := formatter.Encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Tables: tables, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return failed
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n\n", err.Code, err.Field, err.Message)
	}
	return failed
}
