package edreams

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"flightscraper/internal/browser"
	"flightscraper/internal/browser/browsertest"
	"flightscraper/internal/flights"

	"github.com/stretchr/testify/require"
)

func testSearch(t *testing.T) flights.SearchRequest {
	search, err := flights.NewSearchRequest("MAD", "2025-03-01", "2025-03-10")
	require.NoError(t, err)
	return search
}

// searchForm scripts a landing page where every step of the search form succeeds.
func searchForm() *browsertest.Fake {
	departTitles := browser.Within(xpathDepartureDatePicker, xpathCalendarTitles)
	departNext := browser.Within(xpathDepartureDatePicker, xpathCalendarNextMonth)

	fake := browsertest.NewFake().
		SetCount(browser.ById(idCookieAgree), 1).
		SetCount(xpathOriginInput, 1).
		SetCount(originOptionXPath("MAD"), 1).
		SetCount(browser.Within(xpathDestinationPanel, xpathAnyDestination), 1).
		SetTexts(departTitles, "Enero '25", "Febrero '25").
		SetCount(departNext, 1).
		SetCount(browser.Within(xpathDepartureDatePicker, dayXPath("Marzo '25", 1)), 1).
		SetTexts(browser.Within(xpathReturnDatePicker, xpathCalendarTitles), "Marzo '25", "Abril '25").
		SetCount(browser.Within(xpathReturnDatePicker, dayXPath("Marzo '25", 10)), 1).
		SetCount(browser.Within(xpathReturnDatePicker, xpathConfirmDates), 1).
		SetCount(xpathSubmitSearch, 1).
		SetDocument(destinationsPage)
	fake.OnClick = func(f *browsertest.Fake, xpath string) {
		if xpath == departNext {
			f.SetTexts(departTitles, "Febrero '25", "Marzo '25")
		}
	}
	return fake
}

func TestDiscover(t *testing.T) {
	fake := searchForm()
	s, tel := testScraper(browsertest.NewLauncher(fake), testConfig())

	destinations, err := s.Discover(context.Background(), testSearch(t))
	require.NoError(t, err)
	require.Equal(t, []flights.DestinationCandidate{
		{
			Code:      "FCO",
			SearchURL: "https://www.edreams.es/travel/#results/type=R;dep=2025-03-01;from=MAD;to=FCO;ret=2025-03-10;collectionmethod=false",
		},
		{
			Code:      "LIS",
			SearchURL: "https://www.edreams.es/travel/#results/type=R;dep=2025-03-01;from=MAD;to=LIS;ret=2025-03-10;collectionmethod=false",
		},
	}, destinations)

	require.Equal(t, []string{DefaultSite}, fake.Visited())
	require.True(t, fake.Maximized())
	require.True(t, fake.Closed())
	require.Equal(t, []browsertest.SentKeys{{XPath: xpathOriginInput, Keys: "MAD"}}, fake.Keys())

	clicks := fake.Clicks()
	require.Equal(t, browser.ById(idCookieAgree), clicks[0])
	require.Equal(t, xpathSubmitSearch, clicks[len(clicks)-1])

	require.Len(t, tel.Reports("count", report_scraper_discover), 1)
}

func TestDiscoverWithoutCookieBanner(t *testing.T) {
	fake := searchForm().Remove(browser.ById(idCookieAgree))
	s, _ := testScraper(browsertest.NewLauncher(fake), testConfig())

	destinations, err := s.Discover(context.Background(), testSearch(t))
	require.NoError(t, err)
	require.Len(t, destinations, 2)
}

func TestDiscoverFailures(t *testing.T) {
	cases := []struct {
		name     string
		breakIt  func(f *browsertest.Fake)
		expected State
	}{
		{
			name: "cookie click fails",
			breakIt: func(f *browsertest.Fake) {
				f.FailClick(browser.ById(idCookieAgree), fmt.Errorf("not interactable"))
			},
			expected: STATE_START,
		},
		{
			name: "origin not offered",
			breakIt: func(f *browsertest.Fake) {
				f.Remove(originOptionXPath("MAD"))
			},
			expected: STATE_ORIGIN_ENTERED,
		},
		{
			name: "return day missing",
			breakIt: func(f *browsertest.Fake) {
				f.Remove(browser.Within(xpathReturnDatePicker, dayXPath("Marzo '25", 10)))
			},
			expected: STATE_DEPART_DATE_SET,
		},
		{
			name: "search button missing",
			breakIt: func(f *browsertest.Fake) {
				f.Remove(xpathSubmitSearch)
			},
			expected: STATE_DATES_CONFIRMED,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			fake := searchForm()
			test.breakIt(fake)
			s, tel := testScraper(browsertest.NewLauncher(fake), testConfig())

			destinations, err := s.Discover(context.Background(), testSearch(t))
			require.Nil(t, destinations)

			var navErr NavigationError
			require.True(t, errors.As(err, &navErr))
			require.Equal(t, test.expected, navErr.State)
			require.True(t, IsNavigationError(err))
			require.True(t, fake.Closed())
			require.Len(t, tel.Reports("broken", report_scraper_discover), 1)
		})
	}
}

func TestDiscoverCalendarExhausted(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCalendarPages = 1

	fake := searchForm()
	fake.OnClick = nil
	s, _ := testScraper(browsertest.NewLauncher(fake), cfg)

	_, err := s.Discover(context.Background(), testSearch(t))
	require.True(t, errors.Is(err, ErrCalendarExhausted))
	var navErr NavigationError
	require.True(t, errors.As(err, &navErr))
	require.Equal(t, STATE_DESTINATION_WILDCARD_SELECTED, navErr.State)
}

func TestDiscoverLaunchFailure(t *testing.T) {
	launcher := browsertest.NewLauncher()
	launcher.Err = fmt.Errorf("chrome not installed")
	s, _ := testScraper(launcher, testConfig())

	_, err := s.Discover(context.Background(), testSearch(t))
	require.True(t, IsNavigationError(err))
}

func TestDiscoverCancelled(t *testing.T) {
	cfg := testConfig()
	cfg.Delays.StepMs = 60_000
	s, _ := testScraper(browsertest.NewLauncher(searchForm()), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.Discover(ctx, testSearch(t))
	require.True(t, errors.Is(err, context.Canceled))
}
