package config

import (
	"errors"
	"nesdc-backend/internal/scrapers/nesdc"
	"nesdc-backend/lib/configutil"
	"nesdc-backend/lib/telemetry"
	"time"
)

type Config struct {
	BaseUrl     string `json:"base_url"`
	Pages       int    `json:"pages"`
	Limit       int    `json:"limit"`
	OcrEndpoint string `json:"ocr_endpoint"`
	Port        int    `json:"port"`
	// RequestTimeoutSeconds bounds every single outbound request.
	RequestTimeoutSeconds int `json:"request_timeout_seconds"`
	// PollsTimeoutSeconds bounds a whole /polls request.
	PollsTimeoutSeconds int              `json:"polls_timeout_seconds"`
	RequestsPerSecond   float64          `json:"requests_per_second"`
	Telemetry           telemetry.Config `json:"telemetry"`
}

func Defaults() Config {
	return Config{
		BaseUrl:               nesdc.DefaultBaseUrl,
		Pages:                 2,
		Limit:                 20,
		Port:                  8787,
		RequestTimeoutSeconds: 30,
		PollsTimeoutSeconds:   300,
		RequestsPerSecond:     2,
	}
}

// Load reads `path` (and its .local override) on top of the defaults, then
// applies the NESDC_* and PORT environment variables.
func Load(path string) (Config, error) {
	cfg, _, err := configutil.ReadConfig(path, Defaults())
	if err != nil {
		return Config{}, err
	}

	configutil.EnvString(&cfg.BaseUrl, "NESDC_BASE_URL")
	configutil.EnvString(&cfg.OcrEndpoint, "NESDC_OCR_ENDPOINT")
	err = errors.Join(
		configutil.EnvInt(&cfg.Pages, "NESDC_PAGES"),
		configutil.EnvInt(&cfg.Limit, "NESDC_LIMIT"),
		configutil.EnvInt(&cfg.Port, "PORT"),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) ScraperOptions() nesdc.Options {
	return nesdc.Options{
		BaseUrl:           c.BaseUrl,
		OcrEndpoint:       c.OcrEndpoint,
		RequestTimeout:    time.Duration(c.RequestTimeoutSeconds) * time.Second,
		RequestsPerSecond: c.RequestsPerSecond,
	}
}

func (c Config) PollsTimeout() time.Duration {
	return time.Duration(c.PollsTimeoutSeconds) * time.Second
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
