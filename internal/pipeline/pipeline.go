package pipeline

import (
	"context"
	"errors"
	"fmt"

	"flightscraper/internal/assert"
	"flightscraper/internal/chrono"
	"flightscraper/internal/flights"
	"flightscraper/internal/notify"
	"flightscraper/internal/telemetry"

	random "github.com/mazen160/go-random"
)

const (
	report_pipeline_search      = "pipeline.search"
	report_pipeline_destination = "pipeline.destination"
	report_pipeline_assemble    = "pipeline.assemble"
	report_pipeline_persist     = "pipeline.persist"
	report_pipeline_upload      = "pipeline.upload"
	report_pipeline_notify      = "pipeline.notify"
)

// Source is a flight search site.
type Source interface {
	Discover(ctx context.Context, search flights.SearchRequest) ([]flights.DestinationCandidate, error)
	Itineraries(ctx context.Context, dest flights.DestinationCandidate) ([]flights.RawItinerary, error)
}

// Store persists a batch and returns where it was written to.
type Store interface {
	Write(ctx context.Context, batch flights.Batch) (string, error)
}

type Uploader interface {
	Upload(ctx context.Context, records []flights.Record) (int, error)
}

type Notifier interface {
	Send(ctx context.Context, summary notify.RunSummary) error
}

// Printer shows a finished batch to the user.
type Printer interface {
	PrintBatch(batch flights.Batch)
}

// Pipeline runs every search sequentially: discovery, destinations, assembly and
// then persistence of the batch of each search.
type Pipeline struct {
	source   Source
	store    Store
	uploader Uploader
	notifier Notifier
	printer  Printer
	time     chrono.TimeAPI
	tel      telemetry.API
}

type Options struct {
	Source Source
	Store  Store
	Time   chrono.TimeAPI
	// Uploader, Notifier and Printer are optional.
	Uploader Uploader
	Notifier Notifier
	Printer  Printer
}

func New(opts Options, tel telemetry.API) Pipeline {
	assert.NotNil(opts.Source)
	assert.NotNil(opts.Store)
	assert.NotNil(opts.Time)
	assert.NotNil(tel)

	return Pipeline{
		source:   opts.Source,
		store:    opts.Store,
		uploader: opts.Uploader,
		notifier: opts.Notifier,
		printer:  opts.Printer,
		time:     opts.Time,
		tel:      telemetry.NewScopedAPI("pipeline", tel),
	}
}

func newId() string {
	id, err := random.String(12)
	if err != nil {
		panic(err)
	}
	return id
}

// Run scrapes every origin for every date range. A failed search or destination is
// reported and skipped, only a cancelled context stops the run early.
func (p Pipeline) Run(ctx context.Context, origins []string, dates []flights.DateRange, skipped []string) (notify.RunSummary, error) {
	summary := notify.RunSummary{
		RunId:   newId(),
		Started: p.time.Now(),
		Skipped: skipped,
	}

	for _, origin := range origins {
		for _, date := range dates {
			if err := ctx.Err(); err != nil {
				summary.Finished = p.time.Now()
				return summary, err
			}

			search, err := flights.NewSearchRequest(origin, date.From, date.To)
			if err != nil {
				p.tel.ReportWarning(report_pipeline_search, err, origin, date)
				summary.Searches = append(summary.Searches, notify.SearchSummary{
					Search: fmt.Sprintf("%s - %s to %s", origin, date.From, date.To),
					Err:    err,
				})
				continue
			}

			result := p.runSearch(ctx, search)
			summary.Searches = append(summary.Searches, result)
		}
	}

	summary.Finished = p.time.Now()

	if p.notifier != nil {
		err := p.notifier.Send(ctx, summary)
		if err != nil {
			p.tel.ReportBroken(report_pipeline_notify, err)
		}
	}
	return summary, ctx.Err()
}

func (p Pipeline) runSearch(ctx context.Context, search flights.SearchRequest) notify.SearchSummary {
	result := notify.SearchSummary{Search: search.String()}
	p.tel.ReportDebug("processing search", search.String())

	destinations, err := p.source.Discover(ctx, search)
	if err != nil {
		// a search that could not be submitted yields no destinations
		p.tel.ReportBroken(report_pipeline_search, err, search.String())
		result.Err = err
		return result
	}
	result.Destinations = len(destinations)

	batch := flights.Batch{
		Id:     newId(),
		Search: search,
	}
	for i, dest := range destinations {
		if ctx.Err() != nil {
			break
		}
		p.tel.ReportDebug("processing destination", dest.Code, fmt.Sprintf("%d/%d", i+1, len(destinations)))

		records, err := p.scrapeDestination(ctx, search, dest)
		if err != nil {
			p.tel.ReportWarning(report_pipeline_destination, err, dest.Code)
			continue
		}
		batch.Records = append(batch.Records, records...)
	}

	result.Records = len(batch.Records)
	if len(batch.Records) == 0 {
		return result
	}
	batch.CreatedAt = p.time.Now()

	path, err := p.store.Write(ctx, batch)
	if err != nil {
		p.tel.ReportBroken(report_pipeline_persist, err, batch.Id)
		if path == "" {
			result.Err = err
		}
	}
	result.SnapshotPath = path

	if p.printer != nil {
		p.printer.PrintBatch(batch)
	}

	if p.uploader != nil {
		n, err := p.uploader.Upload(ctx, batch.Records)
		if err != nil {
			p.tel.ReportBroken(report_pipeline_upload, err, batch.Id, n)
		}
	}

	return result
}

func (p Pipeline) scrapeDestination(ctx context.Context, search flights.SearchRequest, dest flights.DestinationCandidate) ([]flights.Record, error) {
	itineraries, err := p.source.Itineraries(ctx, dest)
	if err != nil {
		return nil, err
	}

	records := make([]flights.Record, 0, len(itineraries))
	for i, raw := range itineraries {
		record, err := flights.Assemble(search, dest, raw)
		if err != nil {
			p.tel.ReportWarning(report_pipeline_assemble, fmt.Errorf("itinerary %d: %w", i, err), dest.Code)
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

// IsCancelled reports whether the run stopped because its context was cancelled.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
