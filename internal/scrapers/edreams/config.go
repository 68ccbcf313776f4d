package edreams

import (
	"context"
	"time"
)

const (
	DefaultSite                = "https://www.edreams.es"
	DefaultShowMoreLabel       = "Mostrar "
	DefaultMaxCalendarPages    = 24
	DefaultMaxPaginationPasses = 200
)

// Delays are the fixed settle times (milliseconds) after each browser interaction.
type Delays struct {
	// after the landing page is opened and after the window is maximized
	PageLoadMs int `json:"page_load_ms"`
	// after each step of the search form
	StepMs int `json:"step_ms"`
	// after the search is submitted
	SubmitMs int `json:"submit_ms"`
	// after a results page is opened
	ResultsLoadMs int `json:"results_load_ms"`
	// after the cookie banner of a results page is dismissed
	CookieMs int `json:"cookie_ms"`
	// after each scroll of the results page
	ScrollMs int `json:"scroll_ms"`
	// after the session expiry prompt is dismissed
	PromptMs int `json:"prompt_ms"`
	// after the last pagination pass, before the document is read
	FinalMs int `json:"final_ms"`
}

func DefaultDelays() Delays {
	return Delays{
		PageLoadMs:    1000,
		StepMs:        5000,
		SubmitMs:      10000,
		ResultsLoadMs: 15000,
		CookieMs:      1000,
		ScrollMs:      6000,
		PromptMs:      1000,
		FinalMs:       4000,
	}
}

type Config struct {
	Site          string `json:"site"`
	Delays        Delays `json:"delays"`
	ShowMoreLabel string `json:"show_more_label"`
	// MaxCalendarPages bounds the "next month" clicks per date picker, a negative
	// value removes the bound and 0 means the default.
	MaxCalendarPages int `json:"max_calendar_pages"`
	// MaxPaginationPasses bounds the scroll passes per results page, a negative
	// value removes the bound and 0 means the default.
	MaxPaginationPasses int `json:"max_pagination_passes"`
}

func DefaultConfig() Config {
	return Config{
		Site:                DefaultSite,
		Delays:              DefaultDelays(),
		ShowMoreLabel:       DefaultShowMoreLabel,
		MaxCalendarPages:    DefaultMaxCalendarPages,
		MaxPaginationPasses: DefaultMaxPaginationPasses,
	}
}

func (c Config) calendarPages() int {
	if c.MaxCalendarPages == 0 {
		return DefaultMaxCalendarPages
	}
	return c.MaxCalendarPages
}

func (c Config) paginationPasses() int {
	if c.MaxPaginationPasses == 0 {
		return DefaultMaxPaginationPasses
	}
	return c.MaxPaginationPasses
}

func (c Config) showMoreLabel() string {
	if c.ShowMoreLabel == "" {
		return DefaultShowMoreLabel
	}
	return c.ShowMoreLabel
}

// settle waits for `ms` milliseconds or until the context is done.
func settle(ctx context.Context, ms int) error {
	if ms <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
