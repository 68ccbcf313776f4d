package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"flightscraper/internal/chrono"
	"flightscraper/internal/flights"
	"flightscraper/internal/iata"
	"flightscraper/internal/notify"
	"flightscraper/internal/scrapers/edreams"
	"flightscraper/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func rawItinerary(stops string) flights.RawItinerary {
	return flights.RawItinerary{
		Airports:  []string{"A", "B", "B", "A"},
		Airlines:  []string{"Iberia"},
		Times:     []string{"07:10", "09:40", "18:05", "20:45"},
		Durations: []string{"2 h 30 min", "2 h 40 min"},
		Stops:     []string{stops, "directo"},
		Baggage:   []string{"Equipaje de mano", "Artículo personal"},
		UnitPrice: "123",
		Prices:    []string{"123"},
	}
}

type fakeSource struct {
	discoverErr  map[string]error
	destinations map[string][]string
	itineraries  map[string][]flights.RawItinerary
	failDest     map[string]error

	searches []string
	visited  []string
}

func (f *fakeSource) Discover(ctx context.Context, search flights.SearchRequest) ([]flights.DestinationCandidate, error) {
	f.searches = append(f.searches, search.String())
	if err := f.discoverErr[search.Origin()]; err != nil {
		return nil, err
	}
	var out []flights.DestinationCandidate
	for _, code := range f.destinations[search.Origin()] {
		out = append(out, flights.DestinationCandidate{
			Code:      code,
			SearchURL: edreams.ResultsUrl(edreams.DefaultSite, search, code),
		})
	}
	return out, nil
}

func (f *fakeSource) Itineraries(ctx context.Context, dest flights.DestinationCandidate) ([]flights.RawItinerary, error) {
	f.visited = append(f.visited, dest.Code)
	if err := f.failDest[dest.Code]; err != nil {
		return nil, err
	}
	return f.itineraries[dest.Code], nil
}

type fakeStore struct {
	batches []flights.Batch
}

func (f *fakeStore) Write(ctx context.Context, batch flights.Batch) (string, error) {
	f.batches = append(f.batches, batch)
	return fmt.Sprintf("out/%d.db", len(f.batches)), nil
}

type fakeUploader struct {
	uploaded int
}

func (f *fakeUploader) Upload(ctx context.Context, records []flights.Record) (int, error) {
	f.uploaded += len(records)
	return len(records), nil
}

type fakeNotifier struct {
	sent []notify.RunSummary
}

func (f *fakeNotifier) Send(ctx context.Context, summary notify.RunSummary) error {
	f.sent = append(f.sent, summary)
	return nil
}

type fakePrinter struct {
	printed int
}

func (f *fakePrinter) PrintBatch(batch flights.Batch) {
	f.printed++
}

var testDates = []flights.DateRange{{From: "2025-03-01", To: "2025-03-10"}}

func testTime() chrono.TimeAPI {
	return chrono.FixedTime{T: time.Date(2025, time.February, 14, 9, 30, 0, 0, chrono.Madrid())}
}

func TestRun(t *testing.T) {
	source := &fakeSource{
		destinations: map[string][]string{"MAD": {"FCO", "LIS", "OPO"}},
		itineraries: map[string][]flights.RawItinerary{
			"FCO": {rawItinerary("directo"), rawItinerary("1 escala")},
			// stop label that is not a number is dropped
			"LIS": {rawItinerary("escala")},
		},
		failDest: map[string]error{"OPO": fmt.Errorf("paginate: element click intercepted")},
	}
	store := &fakeStore{}
	uploader := &fakeUploader{}
	notifier := &fakeNotifier{}
	printer := &fakePrinter{}
	tel := telemetry.NewRecorderAPI()

	p := New(Options{
		Source:   source,
		Store:    store,
		Time:     testTime(),
		Uploader: uploader,
		Notifier: notifier,
		Printer:  printer,
	}, tel)

	summary, err := p.Run(context.Background(), []string{"MAD"}, testDates, []string{"XXX"})
	require.NoError(t, err)

	require.Equal(t, []string{"FCO", "LIS", "OPO"}, source.visited)
	require.Len(t, store.batches, 1)
	batch := store.batches[0]
	require.Len(t, batch.Records, 2)
	require.Equal(t, "MAD", batch.Search.Origin())
	require.Equal(t, testTime().Now(), batch.CreatedAt)
	require.NotEmpty(t, batch.Id)
	require.Equal(t, 1, batch.Records[1].OutboundStops)

	require.Equal(t, 2, uploader.uploaded)
	require.Equal(t, 1, printer.printed)
	require.Len(t, notifier.sent, 1)

	require.Equal(t, []string{"XXX"}, summary.Skipped)
	require.Equal(t, []notify.SearchSummary{{
		Search:       "MAD - 2025-03-01 to 2025-03-10",
		Destinations: 3,
		Records:      2,
		SnapshotPath: "out/1.db",
	}}, summary.Searches)

	require.Len(t, tel.Reports("warning", report_pipeline_assemble), 1)
	require.Len(t, tel.Reports("warning", report_pipeline_destination), 1)
}

func TestRunDiscoveryFailureContinues(t *testing.T) {
	navErr := edreams.NavigationError{State: edreams.STATE_ORIGIN_ENTERED, Err: fmt.Errorf("element not found")}
	source := &fakeSource{
		discoverErr:  map[string]error{"BCN": navErr},
		destinations: map[string][]string{"MAD": {"FCO"}},
		itineraries:  map[string][]flights.RawItinerary{"FCO": {rawItinerary("directo")}},
	}
	store := &fakeStore{}
	tel := telemetry.NewRecorderAPI()
	p := New(Options{Source: source, Store: store, Time: testTime()}, tel)

	summary, err := p.Run(context.Background(), []string{"BCN", "MAD"}, testDates, nil)
	require.NoError(t, err)
	require.Len(t, summary.Searches, 2)
	require.ErrorIs(t, summary.Searches[0].Err, navErr)
	require.Equal(t, 1, summary.Searches[1].Records)
	require.Len(t, store.batches, 1)
	require.Len(t, tel.Reports("broken", report_pipeline_search), 1)
}

func TestRunEmptyBatchNotPersisted(t *testing.T) {
	source := &fakeSource{destinations: map[string][]string{"MAD": {"FCO"}}}
	store := &fakeStore{}
	p := New(Options{Source: source, Store: store, Time: testTime()}, telemetry.NewRecorderAPI())

	summary, err := p.Run(context.Background(), []string{"MAD"}, testDates, nil)
	require.NoError(t, err)
	require.Empty(t, store.batches)
	require.Equal(t, 0, summary.Searches[0].Records)
	require.Empty(t, summary.Searches[0].SnapshotPath)
}

func TestRunInvalidDates(t *testing.T) {
	source := &fakeSource{}
	p := New(Options{Source: source, Store: &fakeStore{}, Time: testTime()}, telemetry.NewRecorderAPI())

	summary, err := p.Run(context.Background(), []string{"MAD"}, []flights.DateRange{{From: "2025-03-10", To: "2025-03-01"}}, nil)
	require.NoError(t, err)
	require.Empty(t, source.searches)
	require.Error(t, summary.Searches[0].Err)
}

func TestRunCancelled(t *testing.T) {
	source := &fakeSource{}
	p := New(Options{Source: source, Store: &fakeStore{}, Time: testTime()}, telemetry.NewRecorderAPI())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := p.Run(ctx, []string{"MAD"}, testDates, nil)
	require.True(t, IsCancelled(err))
	require.Empty(t, source.searches)
}

func TestValidOriginsOnly(t *testing.T) {
	ref := iata.NewReference([]iata.Airport{{Code: "MAD", Name: "Madrid"}})
	result, err := iata.Check([]string{"MAD", "XXX"}, ref.Codes())
	require.NoError(t, err)
	require.Equal(t, []string{"XXX"}, result.Nok)

	source := &fakeSource{destinations: map[string][]string{"MAD": {"FCO"}}}
	p := New(Options{Source: source, Store: &fakeStore{}, Time: testTime()}, telemetry.NewRecorderAPI())

	summary, err := p.Run(context.Background(), result.Ok, testDates, result.Nok)
	require.NoError(t, err)
	require.Equal(t, []string{"MAD - 2025-03-01 to 2025-03-10"}, source.searches)
	require.Equal(t, []string{"XXX"}, summary.Skipped)
}
