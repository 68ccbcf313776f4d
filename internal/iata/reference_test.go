package iata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"flightscraper/internal/telemetry"

	"github.com/stretchr/testify/require"
)

const testTable = `country_code,region_name,iata,icao,airport,latitude,longitude
ES,Madrid,MAD,LEMD,Adolfo Suárez Madrid–Barajas Airport,40.4936,-3.56676
ES,Catalonia,bcn,LEBL,Josep Tarradellas Barcelona-El Prat Airport,41.2971,2.07846
ES,Andalusia,,LEZL,Sevilla Airport,37.418,-5.89311
IT,Lazio,FCO,LIRF,,41.8045,12.2508
IT,Lazio,FCO,LIRF,"Leonardo da Vinci–Fiumicino Airport",41.8045,12.2508
XX,Unnamed,xyz,,,0,0
`

func serveTable(t *testing.T, status int, body string) string {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server.URL + "/iata-icao.csv"
}

func TestParseCSV(t *testing.T) {
	airports, err := ParseCSV(strings.NewReader(testTable))
	require.NoError(t, err)
	require.Equal(t, []Airport{
		{Code: "MAD", Name: "Adolfo Suárez Madrid–Barajas Airport"},
		{Code: "BCN", Name: "Josep Tarradellas Barcelona-El Prat Airport"},
		{Code: "FCO", Name: ""},
		{Code: "FCO", Name: "Leonardo da Vinci–Fiumicino Airport"},
		{Code: "XYZ", Name: ""},
	}, airports)
}

func TestUnnamedAirportIsStillValid(t *testing.T) {
	airports, err := ParseCSV(strings.NewReader(testTable))
	require.NoError(t, err)
	ref := NewReference(airports)

	result := Validate([]string{"MAD", "XYZ", "SVQ"}, ref.Codes())
	require.Equal(t, []string{"MAD", "XYZ"}, result.Ok)
	require.Equal(t, []string{"SVQ"}, result.Nok)

	name, ok := ref.Name("XYZ")
	require.True(t, ok)
	require.Empty(t, name)

	for _, airport := range ref.Sorted() {
		require.NotEqual(t, "XYZ", airport.Code)
	}
}

func TestNewReferenceKeepsKnownName(t *testing.T) {
	ref := NewReference([]Airport{
		{Code: "FCO", Name: "Fiumicino"},
		{Code: "FCO", Name: ""},
	})
	name, _ := ref.Name("FCO")
	require.Equal(t, "Fiumicino", name)
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, err := ParseCSV(strings.NewReader("iata,icao\nMAD,LEMD\n"))
	require.ErrorContains(t, err, `missing column "airport"`)

	_, err = ParseCSV(strings.NewReader(""))
	require.Error(t, err)
}

func TestLoaderFetch(t *testing.T) {
	tel := telemetry.NewRecorderAPI()
	loader := NewLoader(serveTable(t, http.StatusOK, testTable), tel)

	ref, err := loader.Fetch(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, ref.Len())
	require.True(t, ref.Codes().Contains("XYZ"))

	name, ok := ref.Name("BCN")
	require.True(t, ok)
	require.Equal(t, "Josep Tarradellas Barcelona-El Prat Airport", name)

	sorted := ref.Sorted()
	require.Equal(t, "BCN", sorted[0].Code)
	require.Equal(t, "FCO", sorted[1].Code)
	require.Equal(t, "MAD", sorted[2].Code)
	require.Len(t, sorted, 3)

	require.Len(t, tel.Reports("count", report_loader_fetch), 1)
}

func TestLoaderFetchErrors(t *testing.T) {
	tel := telemetry.NewRecorderAPI()

	_, err := NewLoader(serveTable(t, http.StatusNotFound, "not found"), tel).
		Fetch(context.Background())
	var fetchErr FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, FETCH_UNREACHABLE, fetchErr.Reason)

	_, err = NewLoader(serveTable(t, http.StatusOK, "code,name\nMAD,Madrid\n"), tel).
		Fetch(context.Background())
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, FETCH_MALFORMED, fetchErr.Reason)

	require.Len(t, tel.Reports("broken", report_loader_parse), 1)
}
