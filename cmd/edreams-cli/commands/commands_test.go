package commands

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"flightscraper/internal/flights"
	"flightscraper/internal/iata"
	"flightscraper/internal/notify"

	"github.com/stretchr/testify/require"
)

func TestParseSources(t *testing.T) {
	sources, err := parseSources(`["MAD", 'BCN',]`)
	require.NoError(t, err)
	require.Equal(t, []string{"MAD", "BCN"}, sources)

	_, err = parseSources(`[]`)
	require.Error(t, err)
	_, err = parseSources(`MAD`)
	require.Error(t, err)
}

func TestParseDates(t *testing.T) {
	dates, err := parseDates(`[{from: "2025-03-01", to: "2025-03-10"}]`)
	require.NoError(t, err)
	require.Equal(t, []flights.DateRange{{From: "2025-03-01", To: "2025-03-10"}}, dates)

	_, err = parseDates(`[]`)
	require.Error(t, err)
}

func TestTablePrinter(t *testing.T) {
	search, err := flights.NewSearchRequest("MAD", "2025-03-01", "2025-03-10")
	require.NoError(t, err)

	var out bytes.Buffer
	tablePrinter{out: &out}.PrintBatch(flights.Batch{
		Search: search,
		Records: []flights.Record{{
			Destination:        "LIS",
			OutboundDepartTime: "07:05",
			OutboundArriveTime: "07:25",
			Airlines:           []string{"Iberia", "TAP"},
			HasCarryOnBag:      true,
			Price:              "120 €",
		}},
	})

	text := out.String()
	require.Contains(t, strings.ToLower(text), "mad - 2025-03-01 to 2025-03-10 (1 records)")
	require.Contains(t, text, "Iberia, TAP")
	require.Contains(t, text, "07:05 - 07:25")
	require.Contains(t, text, "120 €")
}

func TestPrintSummary(t *testing.T) {
	var out bytes.Buffer
	printSummary(&out, notify.RunSummary{
		RunId: "abc",
		Searches: []notify.SearchSummary{
			{Search: "MAD - 2025-03-01 to 2025-03-10", Destinations: 2, Records: 5, SnapshotPath: "out.db"},
			{Search: "BCN - 2025-03-01 to 2025-03-10", Err: errors.New("cookie banner")},
		},
	})

	text := out.String()
	require.Contains(t, strings.ToLower(text), "run abc")
	require.Contains(t, text, "out.db")
	require.Contains(t, text, "cookie banner")
}

func TestWarnRejected(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(previous) })

	ref := iata.NewReference([]iata.Airport{
		{Code: "MAD", Name: "Madrid"},
		{Code: "BCN", Name: "Barcelona"},
		{Code: "LIS", Name: "Lisbon"},
		{Code: "FCO", Name: "Rome"},
	})
	result := iata.Validate([]string{"MAD", "XXX"}, ref.Codes())
	warnRejected(result.Nok, ref)

	lines := strings.Split(strings.TrimSpace(logs.String()), "\n")
	require.Len(t, lines, 1)
	line := lines[0]
	require.Contains(t, line, "level=WARN")
	require.Contains(t, line, "skipping unknown origin")
	require.Contains(t, line, "code=XXX")
	require.Contains(t, line, "did_you_mean=")
	for _, suggestion := range iata.Suggest("XXX", ref, suggestionCount) {
		require.Contains(t, line, suggestion)
	}
	require.NotContains(t, line, "code=MAD")
}
