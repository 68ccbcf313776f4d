package commands

import (
	"context"
	"fmt"
	"os"

	"flightscraper/internal/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath *string
	verbose    *bool
)

var rootCmd = &cobra.Command{
	Use:   "edreams-cli",
	Short: "edreams-cli scrapes round trip flights from eDreams into snapshot databases.",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		telemetry.InitSlog(*verbose)
	},
}

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "config.json5", "The configuration file, a missing file means the default configuration.")
	verbose = rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging and dump HTTP exchanges into <dev_state>/resty.")
}

// ExecuteContext runs the cli, os.Exit is called on error.
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
