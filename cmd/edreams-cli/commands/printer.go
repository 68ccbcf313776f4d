package commands

import (
	"fmt"
	"io"
	"strings"

	"flightscraper/internal/flights"
	"flightscraper/internal/notify"

	"github.com/jedib0t/go-pretty/v6/table"
)

type tablePrinter struct {
	out io.Writer
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (p tablePrinter) PrintBatch(batch flights.Batch) {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetTitle(fmt.Sprintf("%s (%d records)", batch.Search.String(), len(batch.Records)))
	t.AppendHeader(table.Row{
		"Destination",
		"Outbound",
		"Return",
		"Stops",
		"Duration",
		"Airlines",
		"Carry-on",
		"Price",
	})

	for _, r := range batch.Records {
		t.AppendRow(table.Row{
			r.Destination,
			fmt.Sprintf("%s - %s", r.OutboundDepartTime, r.OutboundArriveTime),
			fmt.Sprintf("%s - %s", r.ReturnDepartTime, r.ReturnArriveTime),
			fmt.Sprintf("%d / %d", r.OutboundStops, r.ReturnStops),
			fmt.Sprintf("%s / %s", r.OutboundDuration, r.ReturnDuration),
			strings.Join(r.Airlines, ", "),
			yesNo(r.HasCarryOnBag),
			r.Price,
		})
	}

	t.SetStyle(table.StyleRounded)
	t.Render()
}

func printSummary(out io.Writer, summary notify.RunSummary) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetTitle(fmt.Sprintf("Run %s", summary.RunId))
	t.AppendHeader(table.Row{"Search", "Destinations", "Records", "Snapshot", "Error"})

	for _, s := range summary.Searches {
		errText := ""
		if s.Err != nil {
			errText = s.Err.Error()
		}
		t.AppendRow(table.Row{s.Search, s.Destinations, s.Records, s.SnapshotPath, errText})
	}
	t.AppendFooter(table.Row{"Total", "", summary.TotalRecords(), "", ""})

	t.SetStyle(table.StyleRounded)
	t.Render()
}
