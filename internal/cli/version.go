package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the release version, set at build time with
// -ldflags "-X github.com/roach88/editgrid/internal/cli.Version=v1.2.3".
var Version = "dev"

// VersionInfo is the JSON form of the version command.
type VersionInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "version",
		Short:         "Print the editgrid version",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			formatter := newFormatter(rootOpts, cmd)
			info := VersionInfo{Version: Version, Go: runtime.Version()}
			if formatter.JSON() {
				return formatter.Success(info)
			}
			fmt.Fprintf(formatter.Writer, "editgrid %s (%s)\n", info.Version, info.Go)
			return nil
		},
	}
}
