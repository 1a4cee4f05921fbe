// Package commands implements gmbp's cobra command tree: a PersistentPreRun
// wires up logging before any subcommand runs, and subcommands share state
// through package-level flags rather than threading a context struct
// through cobra.
package commands

import (
	"github.com/spf13/cobra"

	"gmbp/internal/logging"
)

var (
	verbose bool
	logDir  string
)

var rootCmd = &cobra.Command{
	Use:   "gmbp",
	Short: "gmbp simulates continuous-time multi-type branching processes",
	Long: `gmbp simulates continuous-time multi-type branching (Markov population)
processes: Gillespie's exact stochastic simulation algorithm for systems
with constant per-capita rates, and Ogata thinning for systems with
time-dependent rates.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Init(logging.Options{LogDir: logDir, Verbose: verbose})
	},
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "logs", "directory for rotated log files")
	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(replicateCmd)
}
