package edreams

import (
	"context"
	"fmt"

	"flightscraper/internal/browser"
	"flightscraper/internal/flights"
	"flightscraper/lib/htmlutil"

	"github.com/PuerkitoBio/goquery"
)

const (
	idCookieAgree = "didomi-notice-agree-button"

	xpathOriginInput         = `//input[@test-id="input-airport"]`
	xpathDeparturePanel      = `//div[@test-id="airport-departure"]`
	xpathDestinationPanel    = `//div[@test-id="airport-destination"]`
	xpathAnyDestination      = `//div/div/ul/li/div[contains(@class,"odf-dropdown-col") and contains(@class,"lg") and contains(@class,"odf-text-nowrap")]`
	xpathDepartureDatePicker = `//div[@data-testid="departure-date-picker"]`
	xpathReturnDatePicker    = `//div[@data-testid="return-date-picker"]`
	xpathConfirmDates        = `//div/button[contains(text(), "Continuar")]`
	xpathSubmitSearch        = `//button[@test-id="search-flights-btn"]`

	selectorDestinationCard = "article.od-inspirational-grid-col"
	selectorDestinationCode = "figure[data-iata]"
)

func originOptionXPath(origin string) string {
	return browser.Within(
		xpathDeparturePanel,
		fmt.Sprintf(`//ul/li/div/span[contains(text(), "%s")]`, origin),
	)
}

// State is the progress of destination discovery through the search form.
type State int

const (
	STATE_START State = iota
	STATE_COOKIE_ACCEPTED
	STATE_ORIGIN_ENTERED
	STATE_ORIGIN_SELECTED
	STATE_DESTINATION_WILDCARD_SELECTED
	STATE_DEPART_DATE_SET
	STATE_RETURN_DATE_SET
	STATE_DATES_CONFIRMED
	STATE_RESULTS_SUBMITTED
	STATE_DESTINATIONS_LISTED
	STATE_FAILED
)

func (s State) String() string {
	switch s {
	case STATE_START:
		return "start"
	case STATE_COOKIE_ACCEPTED:
		return "cookie-accepted"
	case STATE_ORIGIN_ENTERED:
		return "origin-entered"
	case STATE_ORIGIN_SELECTED:
		return "origin-selected"
	case STATE_DESTINATION_WILDCARD_SELECTED:
		return "destination-wildcard-selected"
	case STATE_DEPART_DATE_SET:
		return "depart-date-set"
	case STATE_RETURN_DATE_SET:
		return "return-date-set"
	case STATE_DATES_CONFIRMED:
		return "dates-confirmed"
	case STATE_RESULTS_SUBMITTED:
		return "results-submitted"
	case STATE_DESTINATIONS_LISTED:
		return "destinations-listed"
	case STATE_FAILED:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// NavigationError is a failed step of the search form, State is the last state reached
// before the failure.
type NavigationError struct {
	State State
	Err   error
}

func (e NavigationError) Error() string {
	return fmt.Sprintf("navigation failed after %s: %v", e.State, e.Err)
}

func (e NavigationError) Unwrap() error {
	return e.Err
}

type discovery struct {
	b      browser.Browser
	cfg    Config
	search flights.SearchRequest
	state  State
}

func (d *discovery) step(ctx context.Context, next State, delayMs int, action func() error) error {
	err := action()
	if err != nil {
		return NavigationError{State: d.state, Err: err}
	}
	d.state = next
	err = settle(ctx, delayMs)
	if err != nil {
		return NavigationError{State: d.state, Err: err}
	}
	return nil
}

func (d *discovery) run(ctx context.Context) (string, error) {
	origin := d.search.Origin()
	delays := d.cfg.Delays

	err := d.step(ctx, STATE_START, delays.PageLoadMs, func() error {
		return d.b.Navigate(ctx, d.cfg.Site)
	})
	if err != nil {
		return "", err
	}
	err = d.step(ctx, STATE_START, delays.PageLoadMs, func() error {
		return d.b.Maximize(ctx)
	})
	if err != nil {
		return "", err
	}

	steps := []struct {
		next  State
		delay int
		run   func() error
	}{
		{
			next:  STATE_COOKIE_ACCEPTED,
			delay: delays.StepMs,
			run: func() error {
				return acceptCookies(ctx, d.b)
			},
		},
		{
			next:  STATE_ORIGIN_ENTERED,
			delay: delays.StepMs,
			run: func() error {
				return d.b.SendKeys(ctx, xpathOriginInput, origin)
			},
		},
		{
			next:  STATE_ORIGIN_SELECTED,
			delay: delays.StepMs,
			run: func() error {
				return d.b.Click(ctx, originOptionXPath(origin))
			},
		},
		{
			next:  STATE_DESTINATION_WILDCARD_SELECTED,
			delay: delays.StepMs,
			run: func() error {
				return d.b.Click(ctx, browser.Within(xpathDestinationPanel, xpathAnyDestination))
			},
		},
		{
			next:  STATE_DEPART_DATE_SET,
			delay: delays.StepMs,
			run: func() error {
				return SetDate(ctx, d.b, xpathDepartureDatePicker, d.search.DepartDate(), d.cfg.calendarPages())
			},
		},
		{
			next:  STATE_RETURN_DATE_SET,
			delay: delays.StepMs,
			run: func() error {
				return SetDate(ctx, d.b, xpathReturnDatePicker, d.search.ReturnDate(), d.cfg.calendarPages())
			},
		},
		{
			next: STATE_DATES_CONFIRMED,
			run: func() error {
				return d.b.Click(ctx, browser.Within(xpathReturnDatePicker, xpathConfirmDates))
			},
		},
		{
			next:  STATE_RESULTS_SUBMITTED,
			delay: delays.SubmitMs,
			run: func() error {
				return d.b.Click(ctx, xpathSubmitSearch)
			},
		},
	}
	for _, s := range steps {
		err := d.step(ctx, s.next, s.delay, s.run)
		if err != nil {
			return "", err
		}
	}

	document, err := d.b.HTML(ctx)
	if err != nil {
		return "", NavigationError{State: d.state, Err: err}
	}
	d.state = STATE_DESTINATIONS_LISTED
	return document, nil
}

// acceptCookies dismisses the cookie banner, a page without the banner is fine but
// a banner that cannot be clicked is not.
func acceptCookies(ctx context.Context, b browser.Browser) error {
	xpath := browser.ById(idCookieAgree)
	n, err := b.Count(ctx, xpath)
	if err != nil {
		return err
	}
	if n == 0 {
		return nil
	}
	err = b.Click(ctx, xpath)
	if err != nil {
		return fmt.Errorf("accept cookies: %w", err)
	}
	return nil
}

// ParseDestinations reads the destination codes out of the inspirational grid of a
// search, duplicate codes keep their first position.
func ParseDestinations(doc *goquery.Document, site string, search flights.SearchRequest) []flights.DestinationCandidate {
	seen := map[string]struct{}{}
	var out []flights.DestinationCandidate

	doc.Find(selectorDestinationCard).Each(func(_ int, card *goquery.Selection) {
		code, ok := card.Find(selectorDestinationCode).First().Attr("data-iata")
		code = htmlutil.CleanText(code)
		if !ok || code == "" {
			return
		}
		if _, dup := seen[code]; dup {
			return
		}
		seen[code] = struct{}{}
		out = append(out, flights.DestinationCandidate{
			Code:      code,
			SearchURL: ResultsUrl(site, search, code),
		})
	})

	return out
}
