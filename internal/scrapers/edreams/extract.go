package edreams

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"flightscraper/internal/flights"
	"flightscraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("flightscraper.internal.scrapers.edreams")

const (
	selectorResultsContainer = "#results_list_container"
	selectorItineraryCard    = `[data-testid="itinerary"]`
)

var ErrNoResultsContainer = errors.New("results container not found")

// CardExtractor turns the markup of a single itinerary card into a RawItinerary.
type CardExtractor interface {
	ExtractCard(card *goquery.Selection) (flights.RawItinerary, error)
}

// ExtractionError is a card that could not be extracted, Index is its position among
// the cards of the results page.
type ExtractionError struct {
	Index int
	Err   error
}

func (e ExtractionError) Error() string {
	return fmt.Sprintf("extract itinerary card %d: %v", e.Index, e.Err)
}

func (e ExtractionError) Unwrap() error {
	return e.Err
}

// ExtractItineraries runs the extractor over every itinerary card of a results page,
// cards that fail are returned as ExtractionErrors and do not affect the others.
func ExtractItineraries(ctx context.Context, document string, extractor CardExtractor) ([]flights.RawItinerary, []ExtractionError, error) {
	ctx, span := tracer.Start(ctx, "ExtractItineraries")
	defer span.End()

	doc, err := htmlutil.Parse(ctx, document)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse results page")
		return nil, nil, err
	}

	container := doc.Find(selectorResultsContainer).First()
	if container.Length() == 0 {
		span.SetStatus(codes.Error, "results container not found")
		return nil, nil, ErrNoResultsContainer
	}

	var itineraries []flights.RawItinerary
	var failed []ExtractionError
	container.Find(selectorItineraryCard).Each(func(i int, card *goquery.Selection) {
		raw, err := extractor.ExtractCard(card)
		if err != nil {
			failed = append(failed, ExtractionError{Index: i, Err: err})
			return
		}
		itineraries = append(itineraries, raw)
	})

	span.SetAttributes(
		attribute.Int("itineraries.extracted", len(itineraries)),
		attribute.Int("itineraries.failed", len(failed)),
	)
	return itineraries, failed, nil
}

var timeLabel = regexp.MustCompile(`^\d{2}:\d{2}$`)

const (
	timeClassSuffix = "BaseText-Body"
	// labels of the same kind repeat for every stop, the airports are every other one
	minAirportLabels = 7
)

// HeuristicExtractor reads cards without relying on stable ids, the markup only has
// generated class names so every field is found through a combination of attributes
// and positions.
type HeuristicExtractor struct{}

func (HeuristicExtractor) ExtractCard(card *goquery.Selection) (flights.RawItinerary, error) {
	var raw flights.RawItinerary

	airports := card.Find(`div[type="small"]`)
	if airports.Length() < minAirportLabels {
		return raw, fmt.Errorf("expected at least %d airport labels, got %d", minAirportLabels, airports.Length())
	}
	for _, i := range []int{0, 2, 4, 6} {
		raw.Airports = append(raw.Airports, strings.TrimSpace(airports.Eq(i).Text()))
	}

	airlines := map[string]struct{}{}
	card.Find("img[alt]").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		airlines[alt] = struct{}{}
	})
	for airline := range airlines {
		raw.Airlines = append(raw.Airlines, airline)
	}
	sort.Strings(raw.Airlines)

	card.Find("span.money-integer").Each(func(_ int, price *goquery.Selection) {
		raw.Prices = append(raw.Prices, price.Text())
	})
	unitPrice := card.Find("a > span > span.money-integer").First()
	if unitPrice.Length() == 0 {
		return raw, fmt.Errorf("unit price not found")
	}
	raw.UnitPrice = unitPrice.Text()

	var layoverErr error
	card.Find("div").Each(func(_ int, div *goquery.Selection) {
		node := div.Nodes[0]
		switch {
		case htmlutil.AttrCount(node) == 1 && htmlutil.HasAttr(node, "class"):
			text := div.Text()
			for _, class := range htmlutil.ClassTokens(node) {
				if strings.HasSuffix(class, timeClassSuffix) && timeLabel.MatchString(strings.TrimSpace(text)) {
					raw.Times = append(raw.Times, text)
				}
			}
		case htmlutil.AttrCount(node) > 1 && htmlutil.HasAttr(node, "orientation"):
			next := div.Next()
			if next.Length() == 0 {
				return
			}
			spans := next.Find("span")
			if spans.Length() == 0 {
				if layoverErr == nil {
					layoverErr = fmt.Errorf("layover without duration")
				}
				return
			}
			raw.Durations = append(raw.Durations, spans.Eq(0).Text())
			stops := "0"
			if spans.Length() > 1 {
				stops = spans.Eq(1).Text()
			}
			raw.Stops = append(raw.Stops, stops)
		}
	})
	if layoverErr != nil {
		return raw, layoverErr
	}

	card.Find("path").Each(func(_ int, path *goquery.Selection) {
		node := path.Nodes[0]
		if htmlutil.AttrCount(node) <= 1 || !htmlutil.HasAttr(node, "clip-rule") {
			return
		}
		ancestor := path.Parent().Parent().Parent()
		if ancestor.Length() == 0 {
			return
		}
		label := ancestor.Next()
		if label.Length() == 0 {
			return
		}
		raw.Baggage = append(raw.Baggage, label.Text())
	})

	return raw, nil
}
