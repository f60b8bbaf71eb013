package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/dotcommander/shs/internal/output"
)

// Build information, set by main from -ldflags.
var (
	commit    = "none"
	buildDate = "unknown"
)

// SetVersionInfo records build metadata for the version command and report
// headers.
func SetVersionInfo(version, gitCommit, date string) {
	if version != "" {
		output.Version = version
	}
	if gitCommit != "" {
		commit = gitCommit
	}
	if date != "" {
		buildDate = date
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (commit %s, built %s, %s)\n",
			output.Tool, output.Version, commit, buildDate, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
