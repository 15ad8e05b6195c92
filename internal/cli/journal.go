package cli

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/editgrid/internal/grid"
	"github.com/roach88/editgrid/internal/store"
	"github.com/roach88/editgrid/internal/trace"
)

// JournalOptions holds flags for the journal command.
type JournalOptions struct {
	*RootOptions
	Database string
	Session  string
	Type     string // optional event type filter
}

// JournalResult is the journal of one session.
type JournalResult struct {
	Session string           `json:"session"`
	Events  []map[string]any `json:"events"`
	Stats   JournalStats     `json:"stats"`
}

// JournalStats counts the events of a session by type.
type JournalStats struct {
	Total  int            `json:"total"`
	ByType map[string]int `json:"by_type"`
}

// NewJournalCommand creates the journal command.
func NewJournalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JournalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Show journaled grid events",
		Long: `Show the grid events journaled in a database.

Without --session, lists the journaled sessions. With --session, prints
the session's events in emission order.

Examples:
  editgrid journal --db ./editgrid.db
  editgrid journal --db ./editgrid.db --session commission-1
  editgrid journal --db ./editgrid.db --session commission-1 --type fieldValueChange --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJournal(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (default: db from config)")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session to show")
	cmd.Flags().StringVar(&opts.Type, "type", "", "only show events of this type")

	return cmd
}

func runJournal(opts *JournalOptions, cmd *cobra.Command) error {
	ctx := context.Background()
	formatter := newFormatter(opts.RootOptions, cmd)

	db := opts.Database
	if db == "" {
		db = opts.DB
	}
	if db == "" {
		return commandError(formatter, ErrCodeNotFound, "no database: pass --db or set db in the config")
	}
	if _, err := os.Stat(db); err != nil {
		return commandError(formatter, ErrCodeNotFound, fmt.Sprintf("database not found: %s", db))
	}

	st, err := store.Open(db)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, fmt.Sprintf("failed to open database: %v", err))
	}
	defer st.Close()

	if opts.Session == "" {
		sessions, err := st.Sessions(ctx)
		if err != nil {
			return commandError(formatter, ErrCodeDatabase, err.Error())
		}
		return outputSessions(formatter, sessions)
	}

	events, err := st.ReadEvents(ctx, opts.Session)
	if err != nil {
		return commandError(formatter, ErrCodeDatabase, err.Error())
	}
	result := buildJournal(opts.Session, events, opts.Type)

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputJournalText(formatter, result, events, opts.Type)
}

// buildJournal converts records to objects, keeping only typ when set.
// Stats always cover the whole session.
func buildJournal(session string, events []trace.Record, typ string) JournalResult {
	result := JournalResult{
		Session: session,
		Events:  []map[string]any{},
		Stats:   JournalStats{Total: len(events), ByType: map[string]int{}},
	}
	for _, ev := range events {
		result.Stats.ByType[string(ev.Type)]++
		if typ != "" && string(ev.Type) != typ {
			continue
		}
		result.Events = append(result.Events, ev.Object())
	}
	return result
}

func outputSessions(formatter *OutputFormatter, sessions []string) error {
	if sessions == nil {
		sessions = []string{}
	}
	if formatter.JSON() {
		return formatter.Success(map[string]any{"sessions": sessions})
	}
	if len(sessions) == 0 {
		fmt.Fprintln(formatter.Writer, "No journaled sessions.")
		return nil
	}
	fmt.Fprintln(formatter.Writer, "Sessions:")
	for _, s := range sessions {
		fmt.Fprintf(formatter.Writer, "  %s\n", s)
	}
	return nil
}

func outputJournalText(formatter *OutputFormatter, result JournalResult, events []trace.Record, typ string) error {
	w := formatter.Writer
	if result.Stats.Total == 0 {
		fmt.Fprintf(w, "No events found for session: %s\n", result.Session)
		return nil
	}

	fmt.Fprintf(w, "Session: %s\n\n", result.Session)
	for _, ev := range events {
		if typ != "" && string(ev.Type) != typ {
			continue
		}
		fmt.Fprintf(w, "[%d] %-16s %s%s\n", ev.Seq, ev.Type, ev.Key, describeEvent(ev))
		if formatter.Verbose && ev.ID != "" {
			fmt.Fprintf(w, "     id: %s\n", ev.ID)
		}
	}

	types := make([]string, 0, len(result.Stats.ByType))
	for t := range result.Stats.ByType {
		types = append(types, t)
	}
	sort.Strings(types)
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s=%d", t, result.Stats.ByType[t])
	}
	fmt.Fprintf(w, "\n%d event(s): %s\n", result.Stats.Total, strings.Join(parts, ", "))
	return nil
}

// describeEvent renders the type-specific part of a record.
func describeEvent(ev trace.Record) string {
	switch ev.Type {
	case grid.EventFieldValueChange:
		return fmt.Sprintf(" %s: %v -> %v", ev.Field, ev.Old, ev.New)
	case grid.EventRowEditSave, grid.EventRowAdded:
		if ev.IsNew {
			return " (new)"
		}
	case grid.EventValidationError:
		fields := make([]string, 0, len(ev.Errors))
		for f := range ev.Errors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		parts := make([]string, len(fields))
		for i, f := range fields {
			parts[i] = f + ": " + ev.Errors[f]
		}
		return " {" + strings.Join(parts, ", ") + "}"
	}
	return ""
}
