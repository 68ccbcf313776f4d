package commands

import (
	"log/slog"

	"flightscraper/internal/airtable"
	"flightscraper/internal/snapshot"
	"flightscraper/internal/telemetry"
	"flightscraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(uploadCmd)
}

var uploadCmd = &cobra.Command{
	Use:   "upload <snapshot.db>...",
	Short: "Uploads the records of existing snapshot databases to the configured Airtable table.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		if !cfg.Airtable.Enabled() {
			serviceutil.Fatal("the airtable section of the config is missing", nil)
		}

		tel := telemetry.SlogAPI{}
		uploader := airtable.NewUploader(cfg.Airtable, tel)
		instrument(uploader.Client(), "airtable")

		for _, path := range args {
			records, err := snapshot.Load(cmd.Context(), path)
			if err != nil {
				serviceutil.Fatal("failed to read snapshot", err)
			}
			n, err := uploader.Upload(cmd.Context(), records)
			if err != nil {
				serviceutil.Fatal("failed to upload snapshot", err)
			}
			slog.Info("uploaded snapshot", "path", path, "records", n)
		}
	},
}
