package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"

	"MarketWorkbook/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// PrintBanner displays the startup banner to stderr.
func PrintBanner(cfg *config.Config, logger arbor.ILogger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 60) + banner.ColorReset
	serviceURL := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  MarketWorkbook %s%s\n", textColor, Version, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n", hr)

	kvLines := [][2]string{
		{"Service URL", serviceURL},
		{"Provider", cfg.Provider.Name},
		{"Export", cfg.Export.Backend},
		{"Daily cron", cfg.Schedule.DailyCron},
		{"Hourly cron", cfg.Schedule.HourlyCron},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	logger.Info().
		Str("version", Version).
		Str("service_url", serviceURL).
		Str("provider", cfg.Provider.Name).
		Str("export_backend", cfg.Export.Backend).
		Msg("Application started")
}
