package edreams

import (
	"context"
	"errors"
	"fmt"

	"flightscraper/internal/assert"
	"flightscraper/internal/browser"
	"flightscraper/internal/flights"
	"flightscraper/internal/telemetry"
	"flightscraper/lib/htmlutil"
)

const (
	report_scraper_discover    = "scraper.discover"
	report_scraper_itineraries = "scraper.itineraries"
	report_scraper_paginate    = "scraper.paginate"
	report_scraper_extract     = "scraper.extract"
)

// Scraper drives the eDreams site: it lists the destinations of a search and reads
// the itineraries of each destination. Every call uses its own browser session.
type Scraper struct {
	launcher  browser.Launcher
	extractor CardExtractor
	cfg       Config
	tel       telemetry.API
}

func NewScraper(launcher browser.Launcher, extractor CardExtractor, cfg Config, tel telemetry.API) Scraper {
	assert.NotNil(launcher)
	assert.NotNil(extractor)
	assert.NotNil(tel)

	if cfg.Site == "" {
		cfg.Site = DefaultSite
	}

	return Scraper{
		launcher:  launcher,
		extractor: extractor,
		cfg:       cfg,
		tel:       telemetry.NewScopedAPI("edreams", tel),
	}
}

// Discover fills in the search form and lists the destinations offered for the search.
// A failure of the form is returned as a NavigationError.
func (s Scraper) Discover(ctx context.Context, search flights.SearchRequest) ([]flights.DestinationCandidate, error) {
	ctx, span := tracer.Start(ctx, "Discover")
	defer span.End()

	b, err := s.launcher.Launch(ctx)
	if err != nil {
		s.tel.ReportBroken(report_scraper_discover, err, search.String())
		return nil, NavigationError{State: STATE_FAILED, Err: err}
	}
	defer b.Close()

	d := &discovery{b: b, cfg: s.cfg, search: search}
	document, err := d.run(ctx)
	if err != nil {
		s.tel.ReportBroken(report_scraper_discover, err, search.String())
		span.RecordError(err)
		return nil, err
	}

	doc, err := htmlutil.Parse(ctx, document)
	if err != nil {
		s.tel.ReportBroken(report_scraper_discover, err, search.String())
		return nil, NavigationError{State: d.state, Err: err}
	}
	destinations := ParseDestinations(doc, s.cfg.Site, search)
	s.tel.ReportCount(report_scraper_discover, int64(len(destinations)))

	return destinations, nil
}

// Itineraries opens the results page of a destination, loads every result and extracts
// the itinerary cards. Cards that cannot be extracted are reported and skipped.
func (s Scraper) Itineraries(ctx context.Context, dest flights.DestinationCandidate) ([]flights.RawItinerary, error) {
	ctx, span := tracer.Start(ctx, "Itineraries")
	defer span.End()

	b, err := s.launcher.Launch(ctx)
	if err != nil {
		s.tel.ReportBroken(report_scraper_itineraries, err, dest.Code)
		return nil, err
	}
	defer b.Close()

	document, err := s.loadResults(ctx, b, dest)
	if err != nil {
		s.tel.ReportBroken(report_scraper_itineraries, err, dest.Code)
		span.RecordError(err)
		return nil, err
	}

	itineraries, failed, err := ExtractItineraries(ctx, document, s.extractor)
	if err != nil {
		s.tel.ReportBroken(report_scraper_extract, err, dest.Code)
		return nil, err
	}
	for _, f := range failed {
		s.tel.ReportWarning(report_scraper_extract, f, dest.Code)
	}
	s.tel.ReportCount(report_scraper_extract, int64(len(itineraries)))

	return itineraries, nil
}

func (s Scraper) loadResults(ctx context.Context, b browser.Browser, dest flights.DestinationCandidate) (string, error) {
	delays := s.cfg.Delays

	err := b.Navigate(ctx, dest.SearchURL)
	if err != nil {
		return "", err
	}
	if err = settle(ctx, delays.PageLoadMs); err != nil {
		return "", err
	}
	err = b.Maximize(ctx)
	if err != nil {
		return "", err
	}
	if err = settle(ctx, delays.ResultsLoadMs); err != nil {
		return "", err
	}

	err = acceptCookies(ctx, b)
	if err != nil {
		return "", err
	}
	if err = settle(ctx, delays.CookieMs); err != nil {
		return "", err
	}

	result, err := s.Paginate(ctx, b)
	if err != nil {
		return "", fmt.Errorf("paginate: %w", err)
	}
	s.tel.ReportDebug(report_scraper_paginate, "destination", dest.Code, "passes", result.Passes, "clicks", result.Clicks)

	if err = settle(ctx, delays.FinalMs); err != nil {
		return "", err
	}
	return b.HTML(ctx)
}

// IsNavigationError reports whether err is a failure of the search form.
func IsNavigationError(err error) bool {
	var navErr NavigationError
	return errors.As(err, &navErr)
}
