package edreams

import (
	"context"
	"fmt"
	"testing"

	"flightscraper/internal/browser/browsertest"
	"flightscraper/internal/telemetry"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		Site:          DefaultSite,
		ShowMoreLabel: DefaultShowMoreLabel,
	}
}

func testScraper(launcher *browsertest.Launcher, cfg Config) (Scraper, telemetry.RecorderAPI) {
	tel := telemetry.NewRecorderAPI()
	return NewScraper(launcher, HeuristicExtractor{}, cfg, tel), tel
}

func TestPaginateNothingToLoad(t *testing.T) {
	s, _ := testScraper(browsertest.NewLauncher(), testConfig())
	fake := browsertest.NewFake()

	result, err := s.Paginate(context.Background(), fake)
	require.NoError(t, err)
	require.Equal(t, PaginationResult{Passes: 1, Clicks: 0}, result)
	require.Equal(t, []int{10000}, fake.Scrolls())
}

func TestPaginateOtherButtonsOnly(t *testing.T) {
	s, _ := testScraper(browsertest.NewLauncher(), testConfig())
	fake := browsertest.NewFake().SetTexts(xpathResultsButtons, "Seleccionar", "Ver detalles")

	result, err := s.Paginate(context.Background(), fake)
	require.NoError(t, err)
	require.Equal(t, PaginationResult{Passes: 1, Clicks: 0}, result)
	require.Empty(t, fake.Clicks())
}

func TestPaginateUntilNoMore(t *testing.T) {
	s, _ := testScraper(browsertest.NewLauncher(), testConfig())

	fake := browsertest.NewFake().
		SetTexts(xpathResultsButtons, "Seleccionar", "Mostrar más resultados").
		SetCount(xpathLastResultsButton, 1)
	clicks := 0
	fake.OnClick = func(f *browsertest.Fake, xpath string) {
		if xpath != xpathLastResultsButton {
			return
		}
		clicks++
		if clicks == 2 {
			f.SetTexts(xpathResultsButtons, "Seleccionar", "Seleccionar")
		}
	}

	result, err := s.Paginate(context.Background(), fake)
	require.NoError(t, err)
	require.Equal(t, PaginationResult{Passes: 3, Clicks: 2}, result)
	require.Equal(t, []int{10000, 10500, 11000}, fake.Scrolls())
}

func TestPaginateDismissesPrompt(t *testing.T) {
	s, _ := testScraper(browsertest.NewLauncher(), testConfig())

	fake := browsertest.NewFake().SetCount(xpathExpiryPromptButton, 1)
	fake.OnClick = func(f *browsertest.Fake, xpath string) {
		if xpath == xpathExpiryPromptButton {
			f.Remove(xpathExpiryPromptButton)
		}
	}

	result, err := s.Paginate(context.Background(), fake)
	require.NoError(t, err)
	require.Equal(t, PaginationResult{Passes: 2, Clicks: 0}, result)
	require.Equal(t, 1, fake.ClickCount(xpathExpiryPromptButton))
}

func TestPaginateClickFailure(t *testing.T) {
	s, _ := testScraper(browsertest.NewLauncher(), testConfig())

	fake := browsertest.NewFake().
		SetTexts(xpathResultsButtons, "Mostrar más resultados").
		SetCount(xpathLastResultsButton, 1).
		FailClick(xpathLastResultsButton, fmt.Errorf("element click intercepted"))

	result, err := s.Paginate(context.Background(), fake)
	require.NoError(t, err)
	require.Equal(t, PaginationResult{Passes: 1, Clicks: 0}, result)
}

func TestPaginateClickFailureRetriesAfterPrompt(t *testing.T) {
	s, _ := testScraper(browsertest.NewLauncher(), testConfig())

	fake := browsertest.NewFake().
		SetTexts(xpathResultsButtons, "Seleccionar", "Mostrar más resultados").
		SetCount(xpathLastResultsButton, 1)

	// the prompt pops up right when "show more" is clicked the first time
	intercepted := false
	fake.BeforeClick = func(f *browsertest.Fake, xpath string) error {
		if xpath != xpathLastResultsButton || intercepted {
			return nil
		}
		intercepted = true
		f.SetCount(xpathExpiryPromptButton, 1)
		return fmt.Errorf("element click intercepted")
	}
	fake.OnClick = func(f *browsertest.Fake, xpath string) {
		switch xpath {
		case xpathExpiryPromptButton:
			f.Remove(xpathExpiryPromptButton)
		case xpathLastResultsButton:
			f.SetTexts(xpathResultsButtons, "Seleccionar", "Seleccionar")
		}
	}

	result, err := s.Paginate(context.Background(), fake)
	require.NoError(t, err)
	require.Equal(t, PaginationResult{Passes: 3, Clicks: 1}, result)
	require.Equal(t, 1, fake.ClickCount(xpathExpiryPromptButton))
}

func TestPaginateBounded(t *testing.T) {
	cfg := testConfig()
	cfg.MaxPaginationPasses = 5
	s, tel := testScraper(browsertest.NewLauncher(), cfg)

	fake := browsertest.NewFake().
		SetTexts(xpathResultsButtons, "Mostrar más resultados").
		SetCount(xpathLastResultsButton, 1)

	result, err := s.Paginate(context.Background(), fake)
	require.NoError(t, err)
	require.Equal(t, PaginationResult{Passes: 5, Clicks: 5}, result)
	require.Len(t, tel.Reports("warning", report_scraper_paginate), 1)
}
