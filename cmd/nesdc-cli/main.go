package main

import (
	"context"
	"log/slog"
	"nesdc-backend/cmd/nesdc-cli/commands"
	"nesdc-backend/lib/telemetry"
)

func main() {
	telemetry.InitSlog(false)
	t, err := telemetry.SetupFromEnv(context.Background(), "nesdc-cli")
	if err != nil {
		slog.Warn("setup telemetry", "err", err)
	}
	defer t.Shutdown(context.Background())

	commands.ExecuteContext(context.Background())
}
