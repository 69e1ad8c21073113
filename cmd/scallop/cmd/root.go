package cmd

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "scallop",
	Short: "A Datalog-style declarative relational engine",
	Long: `scallop evaluates stratified Datalog programs with pluggable
provenance annotations (unit, boolean, probabilistic, top-k) to a
fixpoint and reports the resulting relation contents.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetArgsForTest overrides the arguments Execute parses, letting cmd_test
// drive the command tree in-process instead of exec'ing a built binary.
func SetArgsForTest(args []string) {
	rootCmd.SetArgs(args)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML engine configuration file")
}
