package commands

import (
	"fmt"
	"os"
	"strings"

	"flightscraper/internal/telemetry"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var iataFilter *string

func init() {
	iataFilter = iataCmd.Flags().String("filter", "", "Only print airports whose code or name contains this text (case insensitive).")
	rootCmd.AddCommand(iataCmd)
}

var iataCmd = &cobra.Command{
	Use:   "iata [--filter <text>]",
	Short: "Prints the IATA codes that are accepted as origins.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		ref := mustFetchReference(cmd.Context(), cfg, telemetry.SlogAPI{})

		filter := strings.ToLower(*iataFilter)

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Code", "Airport"})

		count := 0
		for _, airport := range ref.Sorted() {
			if filter != "" &&
				!strings.Contains(strings.ToLower(airport.Code), filter) &&
				!strings.Contains(strings.ToLower(airport.Name), filter) {
				continue
			}
			t.AppendRow(table.Row{airport.Code, airport.Name})
			count++
		}
		t.AppendFooter(table.Row{"Total", fmt.Sprintf("%d of %d", count, ref.Len())})

		t.SetStyle(table.StyleRounded)
		t.Render()
	},
}
