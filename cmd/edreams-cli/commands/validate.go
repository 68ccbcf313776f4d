package commands

import (
	"os"
	"strings"

	"flightscraper/internal/iata"
	"flightscraper/internal/telemetry"
	"flightscraper/lib/serviceutil"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var validateSources *string

func init() {
	validateSources = validateCmd.Flags().String("sources", "", `The origin IATA codes as json, ex. '["MAD", "BCN"]'.`)
	validateCmd.MarkFlagRequired("sources")
	rootCmd.AddCommand(validateCmd)
}

var validateCmd = &cobra.Command{
	Use:   "validate --sources <json>",
	Short: "Checks origin codes against the IATA reference without scraping anything.",
	Run: func(cmd *cobra.Command, args []string) {
		sources, err := parseSources(*validateSources)
		if err != nil {
			serviceutil.Fatal("invalid --sources", err)
		}

		cfg := mustLoadConfig()
		ref := mustFetchReference(cmd.Context(), cfg, telemetry.SlogAPI{})
		result := iata.Validate(sources, ref.Codes())

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Code", "Valid", "Airport / Did you mean"})
		for _, code := range result.Ok {
			name, _ := ref.Name(code)
			t.AppendRow(table.Row{code, "yes", name})
		}
		for _, code := range result.Nok {
			t.AppendRow(table.Row{code, "no", strings.Join(iata.Suggest(code, ref, suggestionCount), ", ")})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		if len(result.Ok) == 0 {
			serviceutil.Fatal("no valid origin", iata.ValidationError{Rejected: result.Nok})
		}
	},
}
