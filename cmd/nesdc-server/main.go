package main

import (
	"flag"
	"log/slog"
	"nesdc-backend/internal/components/telemetry"
	"nesdc-backend/internal/config"
	"nesdc-backend/internal/scrapers/nesdc"
	"nesdc-backend/lib/util/serviceutil"
	"nesdc-backend/services/polls"
)

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	configPath := flag.String("config", "config.json5", "Path to the config file.")
	flag.Parse()

	ctx := serviceutil.SignalContext()

	cfg, err := config.Load(*configPath)
	if err != nil {
		serviceutil.Fatal("read config", err)
	}

	InitTelemetry(ctx, cfg, *verbose)

	tel := telemetry.SlogAPI{}
	scraper, err := nesdc.NewScraper(cfg.ScraperOptions(), tel)
	if err != nil {
		serviceutil.Fatal("init scraper", err)
	}
	baseUrl, err := nesdc.ParseBaseUrl(cfg.BaseUrl)
	if err != nil {
		serviceutil.Fatal("parse base url", err)
	}

	service := polls.NewService(
		scraper,
		polls.NewRelay(baseUrl, cfg.RequestTimeout(), tel),
		polls.Options{
			Pages:   cfg.Pages,
			Limit:   cfg.Limit,
			Timeout: cfg.PollsTimeout(),
		},
		tel,
	)

	slog.Info("nesdc backend configured", "base_url", cfg.BaseUrl, "ocr", cfg.OcrEndpoint != "")
	err = serviceutil.StartHttpServer(ctx, cfg.Port, service.Handler())
	if err != nil {
		serviceutil.Fatal("serve", err)
	}
}
