package edreams

import (
	"fmt"
	"strings"

	"flightscraper/internal/flights"
)

// ResultsUrl is the results page of a round trip from the origin of the search to `destination`.
func ResultsUrl(site string, search flights.SearchRequest, destination string) string {
	return fmt.Sprintf(
		"%s/travel/#results/type=R;dep=%s;from=%s;to=%s;ret=%s;collectionmethod=false",
		strings.TrimSuffix(site, "/"),
		search.DepartISO(),
		search.Origin(),
		destination,
		search.ReturnISO(),
	)
}
