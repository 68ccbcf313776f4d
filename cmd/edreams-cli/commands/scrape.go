package commands

import (
	"database/sql"
	"log/slog"
	"os"

	devenv "flightscraper/dev/env"
	"flightscraper/internal/airtable"
	"flightscraper/internal/browser"
	"flightscraper/internal/chrono"
	"flightscraper/internal/iata"
	"flightscraper/internal/notify"
	"flightscraper/internal/pipeline"
	"flightscraper/internal/scrapers/edreams"
	"flightscraper/internal/snapshot"
	"flightscraper/internal/telemetry"
	configlibsql "flightscraper/lib/configutil/libsql"
	"flightscraper/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	scrapeDates   *string
	scrapeSources *string
	scrapeOut     *string
	scrapeUpload  *bool
)

func init() {
	scrapeDates = scrapeCmd.Flags().String("dates", "", `The date ranges to search as json, ex. '[{"from": "2025-03-01", "to": "2025-03-10"}]'.`)
	scrapeSources = scrapeCmd.Flags().String("sources", "", `The origin IATA codes as json, ex. '["MAD", "BCN"]'.`)
	scrapeOut = scrapeCmd.Flags().String("out", "", "The directory to write snapshot databases to, overrides output_dir.")
	scrapeUpload = scrapeCmd.Flags().Bool("upload", false, "Upload every batch to the configured Airtable table.")
	scrapeCmd.MarkFlagRequired("dates")
	scrapeCmd.MarkFlagRequired("sources")
	rootCmd.AddCommand(scrapeCmd)
}

func openArchive(cmd *cobra.Command, cfg configlibsql.Struct) *sql.DB {
	if !cfg.Enabled() {
		return nil
	}
	archive, err := cfg.OpenDB()
	if err != nil {
		serviceutil.Fatal("failed to open archive db", err)
	}
	err = snapshot.EnsureSchema(cmd.Context(), archive)
	if err != nil {
		serviceutil.Fatal("failed to create archive schema", err)
	}
	return archive
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape --dates <json> --sources <json> [--out <dir>] [--upload]",
	Short: "Scrapes every destination of every origin and date range into snapshot databases.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := mustLoadConfig()

		dates, err := parseDates(*scrapeDates)
		if err != nil {
			serviceutil.Fatal("invalid --dates", err)
		}
		sources, err := parseSources(*scrapeSources)
		if err != nil {
			serviceutil.Fatal("invalid --sources", err)
		}
		if *scrapeOut != "" {
			cfg.OutputDir = *scrapeOut
		}

		tel := telemetry.SlogAPI{}
		telemetry.InstrumentPerfStats(ctx, tel)

		ref := mustFetchReference(ctx, cfg, tel)
		validation, err := iata.Check(sources, ref.Codes())
		if err != nil {
			serviceutil.Fatal("no origin to scrape", err)
		}
		warnRejected(validation.Nok, ref)

		outDir, err := devenv.ResolvePath(cfg.OutputDir)
		if err != nil {
			serviceutil.Fatal("failed to resolve output directory", err)
		}
		err = os.MkdirAll(outDir, 0777)
		if err != nil {
			serviceutil.Fatal("failed to create output directory", err)
		}

		archive := openArchive(cmd, cfg.Archive)
		if archive != nil {
			defer archive.Close()
		}

		scraper := edreams.NewScraper(
			browser.NewChromeLauncher(cfg.Browser, tel),
			edreams.HeuristicExtractor{},
			cfg.Edreams,
			tel,
		)
		opts := pipeline.Options{
			Source:  scraper,
			Store:   snapshot.NewWriter(outDir, archive, tel),
			Time:    chrono.NewStandardTime(),
			Printer: tablePrinter{out: os.Stdout},
		}

		if *scrapeUpload {
			if !cfg.Airtable.Enabled() {
				serviceutil.Fatal("--upload needs the airtable section of the config", nil)
			}
			uploader := airtable.NewUploader(cfg.Airtable, tel)
			instrument(uploader.Client(), "airtable")
			opts.Uploader = uploader
		}
		if cfg.Smtp.Enabled() {
			opts.Notifier = notify.NewMailer(cfg.Smtp, tel)
		}

		slog.Info(
			"starting run",
			"origins", validation.Ok,
			"date_ranges", len(dates),
			"output_dir", outDir,
		)
		summary, err := pipeline.New(opts, tel).Run(ctx, validation.Ok, dates, validation.Nok)
		printSummary(os.Stdout, summary)
		if pipeline.IsCancelled(err) {
			slog.Warn("run cancelled before every search finished")
			return
		}
		if err != nil {
			serviceutil.Fatal("run failed", err)
		}
		slog.Info("run finished", "records", summary.TotalRecords(), "seconds", summary.Finished.Sub(summary.Started).Seconds())
	},
}
