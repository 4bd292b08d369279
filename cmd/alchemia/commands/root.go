package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "alchemia",
	Short: "Alchemia - file triage pipeline",
	Long: `Alchemia crawls source directories, fingerprints and deduplicates
every file, routes each one to a destination repository through the
classification rule chain, and pushes the approved plan to blob storage.

The pipeline runs in three stages, each reading and writing a shared
inventory document so stages can be inspected and re-run independently:

  intake     crawl, fingerprint, and deduplicate the sources
  absorb     classify every inventory entry against the registry
  alchemize  plan and push classified files to the content store
  status     summarize an inventory document`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command. Errors are printed by the command
// implementations; cobra's own reporting is silenced.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version string shown by --version.
func SetVersionInfo(v, c, d string) {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func cliLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
