package main

import (
	"context"
	"log/slog"
	"nesdc-backend/internal/config"
	"nesdc-backend/lib/telemetry"
	"nesdc-backend/lib/util/serviceutil"
)

func InitTelemetry(ctx context.Context, cfg config.Config, verbose bool) {
	telemetry.InitSlog(verbose)

	if verbose {
		slog.DebugContext(ctx, "verbose logging enabled")
	}

	t, err := telemetry.Setup(ctx, "nesdc-server", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("setup telemetry", err)
	}
	go func() {
		<-ctx.Done()
		err := t.Shutdown(context.Background())
		if err != nil {
			slog.Warn("shutdown telemetry", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx)
}
