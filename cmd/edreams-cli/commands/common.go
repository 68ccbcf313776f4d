package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"flightscraper/internal/config"
	"flightscraper/internal/flights"
	"flightscraper/internal/iata"
	"flightscraper/internal/telemetry"
	"flightscraper/lib/restyutil"
	"flightscraper/lib/serviceutil"

	"github.com/go-resty/resty/v2"
	"github.com/titanous/json5"
)

const suggestionCount = 3

func mustLoadConfig() config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	return cfg
}

// instrument dumps every exchange of the client into <dev_state>/resty/<name> when
// running verbose.
func instrument(client *resty.Client, name string) {
	if !*verbose {
		return
	}
	output, err := restyutil.NewFilesystemOutput(filepath.Join("<dev_state>", "resty", name))
	if err != nil {
		slog.Warn("failed to create resty output directory", "name", name, "err", err)
		return
	}
	restyutil.InstrumentClient(client, nil, output)
}

func mustFetchReference(ctx context.Context, cfg config.Config, tel telemetry.API) iata.Reference {
	loader := iata.NewLoader(cfg.IataUrl, tel)
	instrument(loader.Client(), "iata")

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	ref, err := loader.Fetch(ctx)
	var fetchErr iata.FetchError
	if errors.As(err, &fetchErr) {
		serviceutil.Fatal(fmt.Sprintf("failed to load the iata reference (%s)", fetchErr.Reason), err)
	}
	if err != nil {
		serviceutil.Fatal("failed to load the iata reference", err)
	}
	slog.Debug("loaded iata reference", "airports", ref.Len())
	return ref
}

func parseSources(value string) ([]string, error) {
	var sources []string
	err := json5.Unmarshal([]byte(value), &sources)
	if err != nil {
		return nil, fmt.Errorf("parse sources %q: %w", value, err)
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources were given")
	}
	return sources, nil
}

func parseDates(value string) ([]flights.DateRange, error) {
	var dates []flights.DateRange
	err := json5.Unmarshal([]byte(value), &dates)
	if err != nil {
		return nil, fmt.Errorf("parse dates %q: %w", value, err)
	}
	if len(dates) == 0 {
		return nil, fmt.Errorf("no date ranges were given")
	}
	return dates, nil
}

// warnRejected logs every unknown origin with its closest known codes.
func warnRejected(rejected []string, ref iata.Reference) {
	for _, code := range rejected {
		slog.Warn(
			"skipping unknown origin",
			"code", code,
			"did_you_mean", iata.Suggest(code, ref, suggestionCount),
		)
	}
}
