package iata

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"flightscraper/internal/assert"
	"flightscraper/internal/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

const DefaultSourceUrl = "https://raw.githubusercontent.com/ip2location/ip2location-iata-icao/refs/heads/master/iata-icao.csv"

const (
	report_loader_fetch = "loader.fetch"
	report_loader_parse = "loader.parse"
)

const (
	columnCode    = "iata"
	columnAirport = "airport"
)

// CodeSet is the set of valid (uppercased) IATA codes.
type CodeSet map[string]struct{}

func (s CodeSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

type Airport struct {
	Code string
	Name string
}

// Reference is the IATA code -> airport name table.
type Reference struct {
	names map[string]string
}

func NewReference(airports []Airport) Reference {
	names := make(map[string]string, len(airports))
	for _, a := range airports {
		code := strings.ToUpper(a.Code)
		if a.Name == "" && names[code] != "" {
			continue
		}
		names[code] = a.Name
	}
	return Reference{names: names}
}

func (r Reference) Codes() CodeSet {
	set := make(CodeSet, len(r.names))
	for code := range r.names {
		set[code] = struct{}{}
	}
	return set
}

func (r Reference) Name(code string) (string, bool) {
	name, ok := r.names[code]
	return name, ok
}

func (r Reference) Len() int {
	return len(r.names)
}

// Sorted returns every airport with a known name ordered by code.
func (r Reference) Sorted() []Airport {
	out := make([]Airport, 0, len(r.names))
	for code, name := range r.names {
		if name == "" {
			continue
		}
		out = append(out, Airport{Code: code, Name: name})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Code < out[j].Code
	})
	return out
}

type FetchReason int

const (
	FETCH_UNREACHABLE FetchReason = iota
	FETCH_MALFORMED
)

func (r FetchReason) String() string {
	switch r {
	case FETCH_UNREACHABLE:
		return "unreachable"
	case FETCH_MALFORMED:
		return "malformed"
	}
	return "unknown"
}

// FetchError is returned when the reference cannot be downloaded or is not a valid table.
type FetchError struct {
	Url    string
	Reason FetchReason
	Err    error
}

func (e FetchError) Error() string {
	return fmt.Sprintf("fetch iata reference (%s) from %s: %v", e.Reason, e.Url, e.Err)
}

func (e FetchError) Unwrap() error {
	return e.Err
}

// Loader downloads the IATA reference table.
type Loader struct {
	url  string
	http *resty.Client
	tel  telemetry.API
}

func NewLoader(url string, tel telemetry.API) Loader {
	assert.NotEmptyStr(url)
	assert.NotNil(tel)

	tel = telemetry.NewScopedAPI("iata", tel)

	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetTimeout(time.Second * 30)
	client.SetHeader("accept", "text/csv, text/plain, */*")
	telemetry.InstrumentResty(client, tel)

	return Loader{url: url, http: client, tel: tel}
}

// Client exposes the underlying http client so callers can attach more instrumentation.
func (l Loader) Client() *resty.Client {
	return l.http
}

func (l Loader) Fetch(ctx context.Context) (Reference, error) {
	res, err := l.http.R().
		SetContext(ctx).
		Get(l.url)
	if err != nil {
		l.tel.ReportBroken(report_loader_fetch, err)
		return Reference{}, FetchError{Url: l.url, Reason: FETCH_UNREACHABLE, Err: err}
	}
	if res.IsError() {
		err := fmt.Errorf("unexpected status %s", res.Status())
		l.tel.ReportBroken(report_loader_fetch, err)
		return Reference{}, FetchError{Url: l.url, Reason: FETCH_UNREACHABLE, Err: err}
	}

	airports, err := ParseCSV(bytes.NewReader(res.Body()))
	if err != nil {
		l.tel.ReportBroken(report_loader_parse, err)
		return Reference{}, FetchError{Url: l.url, Reason: FETCH_MALFORMED, Err: err}
	}
	l.tel.ReportCount(report_loader_fetch, int64(len(airports)))

	return NewReference(airports), nil
}

// ParseCSV reads the iata and airport columns of the table. Rows without a code are
// dropped, a missing airport name is kept as an empty Name.
func ParseCSV(r io.Reader) ([]Airport, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty table")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	codeIdx, airportIdx := -1, -1
	for i, col := range header {
		switch strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")) {
		case columnCode:
			codeIdx = i
		case columnAirport:
			airportIdx = i
		}
	}
	if codeIdx < 0 {
		return nil, fmt.Errorf("missing column %q", columnCode)
	}
	if airportIdx < 0 {
		return nil, fmt.Errorf("missing column %q", columnAirport)
	}

	var out []Airport
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if codeIdx >= len(row) || airportIdx >= len(row) {
			continue
		}
		code := strings.TrimSpace(row[codeIdx])
		name := strings.TrimSpace(row[airportIdx])
		if code == "" {
			continue
		}
		out = append(out, Airport{Code: strings.ToUpper(code), Name: name})
	}
	return out, nil
}
