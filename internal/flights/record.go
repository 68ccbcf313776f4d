package flights

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
)

// RawItinerary is everything extracted from a single itinerary card before any normalization.
type RawItinerary struct {
	// outbound-depart, outbound-arrive, return-depart, return-arrive
	Airports  []string
	Airlines  []string
	Times     []string
	Durations []string
	Stops     []string
	Baggage   []string
	// UnitPrice is the authoritative price, Prices holds every price label of the card.
	UnitPrice string
	Prices    []string
}

// Record is a single row of output, one per itinerary card per destination per search.
type Record struct {
	Url                string
	Origin             string
	Destination        string
	SearchStart        string
	SearchEnd          string
	Passengers         int
	OutboundDepartTime string
	OutboundArriveTime string
	ReturnDepartTime   string
	ReturnArriveTime   string
	OutboundStops      int
	ReturnStops        int
	OutboundDuration   string
	ReturnDuration     string
	Airlines           []string
	HasCarryOnBag      bool
	// the site does not expose checked baggage nor the fare class
	HasCheckedBag bool
	Price         string
	FareClass     *string
}

// Columns is the fixed column order of every serialized form of Record.
var Columns = []string{
	"url",
	"origin",
	"destination",
	"search_start",
	"search_end",
	"passengers",
	"outbound_depart_time",
	"outbound_arrive_time",
	"return_depart_time",
	"return_arrive_time",
	"outbound_stops",
	"return_stops",
	"outbound_duration",
	"return_duration",
	"airlines",
	"has_carry_on_bag",
	"has_checked_bag",
	"price",
	"fare_class",
}

// Values returns the fields of the record in Columns order.
func (r Record) Values() []any {
	var fareClass any
	if r.FareClass != nil {
		fareClass = *r.FareClass
	}
	return []any{
		r.Url,
		r.Origin,
		r.Destination,
		r.SearchStart,
		r.SearchEnd,
		r.Passengers,
		r.OutboundDepartTime,
		r.OutboundArriveTime,
		r.ReturnDepartTime,
		r.ReturnArriveTime,
		r.OutboundStops,
		r.ReturnStops,
		r.OutboundDuration,
		r.ReturnDuration,
		r.Airlines,
		r.HasCarryOnBag,
		r.HasCheckedBag,
		r.Price,
		fareClass,
	}
}

const (
	directMarker  = "directo"
	carryOnMarker = "Equipaje de mano"
)

var ErrIncompleteItinerary = errors.New("incomplete itinerary")

// NormalizeStops maps the stop label of a leg to a number, "directo" is 0 and
// anything else is the value of its leading digit ("1 escala" -> 1).
func NormalizeStops(label string) (int, error) {
	if label == directMarker {
		return 0, nil
	}
	if label == "" {
		return 0, fmt.Errorf("empty stop label")
	}
	first := rune(label[0])
	if !unicode.IsDigit(first) {
		return 0, fmt.Errorf("stop label %q does not start with a digit", label)
	}
	return int(first - '0'), nil
}

// NormalizeDuration turns "2 h 35 min" into "2h 35m". It is a plain substring
// replacement, labels missing the hour or minute part are converted as-is.
func NormalizeDuration(label string) string {
	label = strings.ReplaceAll(label, " h", "h")
	return strings.ReplaceAll(label, " min", "m")
}

// Assemble maps a raw itinerary found on the results page of `dest` into a Record.
func Assemble(search SearchRequest, dest DestinationCandidate, raw RawItinerary) (Record, error) {
	if len(raw.Times) < 4 {
		return Record{}, fmt.Errorf("%w: expected 4 times, got %d", ErrIncompleteItinerary, len(raw.Times))
	}
	if len(raw.Durations) < 2 {
		return Record{}, fmt.Errorf("%w: expected 2 durations, got %d", ErrIncompleteItinerary, len(raw.Durations))
	}
	if len(raw.Stops) < 2 {
		return Record{}, fmt.Errorf("%w: expected 2 stop labels, got %d", ErrIncompleteItinerary, len(raw.Stops))
	}

	outboundStops, err := NormalizeStops(raw.Stops[0])
	if err != nil {
		return Record{}, fmt.Errorf("outbound stops: %w", err)
	}
	returnStops, err := NormalizeStops(raw.Stops[1])
	if err != nil {
		return Record{}, fmt.Errorf("return stops: %w", err)
	}

	// only the carry-on bag can be told apart, and only when more than
	// one baggage label was rendered on the card
	carryOn := ""
	if len(raw.Baggage) > 1 {
		carryOn = strings.TrimSpace(raw.Baggage[0])
	}

	return Record{
		Url:                dest.SearchURL,
		Origin:             search.Origin(),
		Destination:        dest.Code,
		SearchStart:        search.DepartISO(),
		SearchEnd:          search.ReturnISO(),
		Passengers:         1,
		OutboundDepartTime: raw.Times[0],
		OutboundArriveTime: raw.Times[1],
		ReturnDepartTime:   raw.Times[2],
		ReturnArriveTime:   raw.Times[3],
		OutboundStops:      outboundStops,
		ReturnStops:        returnStops,
		OutboundDuration:   NormalizeDuration(raw.Durations[0]),
		ReturnDuration:     NormalizeDuration(raw.Durations[1]),
		Airlines:           raw.Airlines,
		HasCarryOnBag:      carryOn == carryOnMarker,
		HasCheckedBag:      false,
		Price:              raw.UnitPrice,
		FareClass:          nil,
	}, nil
}

// Batch is every record produced by one search, it is the unit of persistence.
type Batch struct {
	Id        string
	Search    SearchRequest
	CreatedAt time.Time
	Records   []Record
}
