package flights

import (
	"fmt"
	"time"
)

const isoDate = "2006-01-02"

// SearchRequest is one origin/date-range pair, it drives one destination discovery run.
type SearchRequest struct {
	origin string
	depart time.Time
	ret    time.Time
}

// NewSearchRequest parses the ISO-8601 dates of a search.
func NewSearchRequest(origin, departDate, returnDate string) (SearchRequest, error) {
	if origin == "" {
		return SearchRequest{}, fmt.Errorf("empty origin")
	}
	depart, err := time.Parse(isoDate, departDate)
	if err != nil {
		return SearchRequest{}, fmt.Errorf("parse depart date %q: %w", departDate, err)
	}
	ret, err := time.Parse(isoDate, returnDate)
	if err != nil {
		return SearchRequest{}, fmt.Errorf("parse return date %q: %w", returnDate, err)
	}
	if ret.Before(depart) {
		return SearchRequest{}, fmt.Errorf("return date %s is before depart date %s", returnDate, departDate)
	}
	return SearchRequest{origin: origin, depart: depart, ret: ret}, nil
}

func (s SearchRequest) Origin() string        { return s.origin }
func (s SearchRequest) DepartDate() time.Time { return s.depart }
func (s SearchRequest) ReturnDate() time.Time { return s.ret }
func (s SearchRequest) DepartISO() string     { return s.depart.Format(isoDate) }
func (s SearchRequest) ReturnISO() string     { return s.ret.Format(isoDate) }

func (s SearchRequest) String() string {
	return fmt.Sprintf("%s - %s to %s", s.origin, s.DepartISO(), s.ReturnISO())
}

// DateRange is the `{"from": ..., "to": ...}` input pair.
type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// DestinationCandidate is a destination reachable from the origin of a search,
// SearchURL is the results page of that origin/destination/date combination.
type DestinationCandidate struct {
	Code      string
	SearchURL string
}
