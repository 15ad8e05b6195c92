package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/roach88/editgrid/internal/column"
	"github.com/roach88/editgrid/internal/compiler"
)

// DescribeOptions holds flags for the describe command.
type DescribeOptions struct {
	*RootOptions
	Raw   bool   // print Markdown without terminal styling
	Style string // glamour style: auto, dark, light, notty, ...
	Width int    // word wrap width
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DescribeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "describe <specs>",
		Short: "Render table column models",
		Long: `Render every declared table as a Markdown document: its data key,
permissions and one row per column with type, template, edit rules and
option source.

Examples:
  editgrid describe ./specs
  editgrid describe ./specs --raw > TABLES.md`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print plain Markdown")
	cmd.Flags().StringVar(&opts.Style, "style", "auto", "terminal style (auto|dark|light|notty)")
	cmd.Flags().IntVar(&opts.Width, "width", 100, "word wrap width")

	return cmd
}

func runDescribe(opts *DescribeOptions, specs string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	loadResult, loadErrors := LoadSpecs(specs, LoadModeCollectAll)
	if loadResult == nil {
		return outputLoadError(formatter, loadErrors[0])
	}
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	if formatter.JSON() {
		return formatter.Success(CompilationResult{Tables: loadResult.Tables})
	}

	doc := DescribeMarkdown(loadResult.Tables)
	if opts.Raw {
		fmt.Fprint(formatter.Writer, doc)
		return nil
	}

	style := glamour.WithAutoStyle()
	if opts.Style != "auto" {
		style = glamour.WithStandardStyle(opts.Style)
	}
	r, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(opts.Width))
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("creating renderer: %v", err))
	}
	out, err := r.Render(doc)
	if err != nil {
		return commandError(formatter, ErrCodeGeneric, fmt.Sprintf("rendering markdown: %v", err))
	}
	fmt.Fprint(formatter.Writer, out)
	return nil
}

// DescribeMarkdown renders tables as Markdown, one section per table.
func DescribeMarkdown(tables []*compiler.TableSpec) string {
	var b strings.Builder
	for i, t := range tables {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "# %s\n\n", t.Name)
		fmt.Fprintf(&b, "- Data key: `%s`\n", t.DataKey)
		perms := "none"
		if len(t.Permissions) > 0 {
			perms = strings.Join(t.Permissions, ", ")
		}
		fmt.Fprintf(&b, "- Permissions: %s\n", perms)
		if t.Batch {
			b.WriteString("- Edit mode: batch\n")
		} else {
			b.WriteString("- Edit mode: row\n")
		}
		b.WriteString("\n| Field | Header | Type | Template | Visible | Edit | Options |\n")
		b.WriteString("|---|---|---|---|---|---|---|\n")
		for _, c := range t.Columns {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s |\n",
				cell(c.Field), cell(c.Header), cell(c.Type), cell(c.Template),
				yesNo(c.Visible), cell(editRules(c.Edit)), cell(optionSource(c)))
		}
	}
	return b.String()
}

// editRules summarizes an edit spec, or "-" for read-only columns.
func editRules(e *compiler.EditSpec) string {
	if e == nil {
		return "-"
	}
	var rules []string
	if e.Input != "" {
		rules = append(rules, e.Input)
	}
	if e.Required {
		rules = append(rules, "required")
	}
	if e.Min != nil {
		rules = append(rules, "min "+e.Min.String())
	}
	if e.Max != nil {
		rules = append(rules, "max "+e.Max.String())
	}
	if e.MinLength != nil {
		rules = append(rules, fmt.Sprintf("minLength %d", *e.MinLength))
	}
	if e.MaxLength != nil {
		rules = append(rules, fmt.Sprintf("maxLength %d", *e.MaxLength))
	}
	if e.Pattern != "" {
		rules = append(rules, "pattern `"+e.Pattern+"`")
	}
	if e.MinDate != "" {
		rules = append(rules, "from "+e.MinDate)
	}
	if e.MaxDate != "" {
		rules = append(rules, "until "+e.MaxDate)
	}
	if e.Strict {
		rules = append(rules, "strict")
	}
	if len(rules) == 0 {
		return "editable"
	}
	return strings.Join(rules, ", ")
}

func optionSource(c compiler.ColumnSpec) string {
	if c.Edit != nil && c.Edit.DependsOn != "" {
		return "by " + c.Edit.DependsOn
	}
	if len(c.Options) == 0 {
		return ""
	}
	keys := make([]string, len(c.Options))
	for i, o := range c.Options {
		keys[i] = optionLabel(o)
	}
	return strings.Join(keys, ", ")
}

func optionLabel(o column.Option) string {
	key := fmt.Sprint(o.Key)
	if o.Value == "" || o.Value == key {
		return key
	}
	return key + "=" + o.Value
}

// cell escapes a Markdown table cell.
func cell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
