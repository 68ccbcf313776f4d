package main

import (
	"context"
	"log/slog"
	"time"

	"flightscraper/cmd/edreams-cli/commands"
	"flightscraper/internal/telemetry"
	"flightscraper/lib/serviceutil"
)

func main() {
	ctx := serviceutil.SignalContext()

	telemetry.InitSlog(false)
	otel, err := telemetry.SetupFromEnv(context.Background(), "edreams-cli")
	if err != nil {
		slog.Warn("failed to setup telemetry, continuing without it", "err", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()
		otel.Shutdown(shutdownCtx)
	}()

	commands.ExecuteContext(ctx)
}
