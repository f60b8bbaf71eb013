package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dotcommander/shs/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a configuration file with the current settings",
	Long: `Write the effective configuration (defaults, environment and flags) to a
file that later runs pick up. The default path is .shsrc.json in the working
directory. An existing file is kept unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path := ".shsrc.json"
		if len(args) == 1 {
			path = args[0]
		}
		if err := runInit(cmd.OutOrStdout(), path); err != nil {
			fail(cmd, err, 1)
		}
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file")
	rootCmd.AddCommand(initCmd)
}

func runInit(w io.Writer, path string) error {
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.SaveConfig(cfg, path); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "Wrote %s\n", path)
	return err
}
