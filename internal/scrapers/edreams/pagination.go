package edreams

import (
	"context"
	"strings"

	"flightscraper/internal/browser"
)

const (
	idResultsContainer = "results_list_container"
	idExpiryPrompt     = "sessionAboutToExpireAlert"

	initialScroll = 10000
	scrollStep    = 500
)

var (
	xpathResultsButtons     = browser.Within(browser.ById(idResultsContainer), "//button")
	xpathLastResultsButton  = "(" + xpathResultsButtons + ")[last()]"
	xpathExpiryPromptButton = browser.Within(browser.ById(idExpiryPrompt), "//button")
)

// PaginationResult is how many scroll passes were made over a results page and
// how many of them loaded more results.
type PaginationResult struct {
	Passes int
	Clicks int
}

// dismissExpiryPrompt clicks away the session expiry prompt if it is shown,
// it reports whether something was dismissed.
func (s Scraper) dismissExpiryPrompt(ctx context.Context, b browser.Browser) bool {
	n, err := b.Count(ctx, xpathExpiryPromptButton)
	if err != nil || n == 0 {
		return false
	}
	err = b.Click(ctx, xpathExpiryPromptButton)
	if err != nil {
		s.tel.ReportDebug(report_scraper_paginate, "expiry prompt could not be dismissed", err)
		return false
	}
	_ = settle(ctx, s.cfg.Delays.PromptMs)
	return true
}

// Paginate scrolls the results page and clicks "show more" until there is nothing
// more to load. It stops early after the configured maximum of passes.
func (s Scraper) Paginate(ctx context.Context, b browser.Browser) (PaginationResult, error) {
	var result PaginationResult

	label := s.cfg.showMoreLabel()
	maxPasses := s.cfg.paginationPasses()
	scroll := initialScroll

	for {
		if maxPasses >= 0 && result.Passes >= maxPasses {
			s.tel.ReportWarning(report_scraper_paginate, "stopped at maximum passes", result.Passes)
			return result, nil
		}
		result.Passes++

		err := b.ScrollBy(ctx, scroll)
		if err != nil {
			return result, err
		}
		scroll += scrollStep
		err = settle(ctx, s.cfg.Delays.ScrollMs)
		if err != nil {
			return result, err
		}

		dismissed := s.dismissExpiryPrompt(ctx, b)

		labels, err := b.Texts(ctx, xpathResultsButtons)
		if err != nil {
			return result, err
		}
		if len(labels) > 0 && strings.Contains(labels[len(labels)-1], label) {
			err = b.Click(ctx, xpathLastResultsButton)
			if err == nil {
				result.Clicks++
				continue
			}
			s.tel.ReportDebug(report_scraper_paginate, "show more click failed", err)
			if s.dismissExpiryPrompt(ctx, b) {
				continue
			}
			return result, nil
		}

		if dismissed || s.dismissExpiryPrompt(ctx, b) {
			continue
		}
		return result, nil
	}
}
