package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ternarybob/arbor"
	"golang.org/x/sync/errgroup"

	"MarketWorkbook/internal/collector"
	"MarketWorkbook/internal/common"
	"MarketWorkbook/internal/config"
	"MarketWorkbook/internal/export"
	"MarketWorkbook/internal/metrics"
	"MarketWorkbook/internal/notifier"
	"MarketWorkbook/internal/pipeline"
	"MarketWorkbook/internal/recorder"
	"MarketWorkbook/internal/scheduler"
	"MarketWorkbook/internal/server"
	"MarketWorkbook/internal/universe"
)

// mockUniverse is served by the mock provider in place of a live scrape.
var mockUniverse = universe.StaticSource{
	{Name: universe.GroupSP500, Components: []universe.Component{
		{Ticker: "AAPL", Name: "Apple Inc."}, {Ticker: "MSFT", Name: "Microsoft Corp"}, {Ticker: "NVDA", Name: "Nvidia Corp"},
	}},
	{Name: universe.GroupNasdaq100, Components: []universe.Component{
		{Ticker: "AAPL", Name: "Apple Inc."}, {Ticker: "AMZN", Name: "Amazon.com Inc"},
	}},
	{Name: universe.GroupDowJones, Components: []universe.Component{
		{Ticker: "MSFT", Name: "Microsoft Corp"}, {Ticker: "JPM", Name: "JPMorgan Chase & Co."},
	}},
	{Name: universe.GroupETFs, Components: []universe.Component{{Ticker: "SPY"}, {Ticker: "QQQ"}}},
	{Name: universe.GroupOther, Components: []universe.Component{{Ticker: "BTC-USD"}}},
}

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config validation: %v\n", err)
		os.Exit(1)
	}

	logger := common.NewLogger(cfg.Logging)
	common.PrintBanner(cfg, logger)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("MarketWorkbook stopped with error")
	}
	logger.Info().Msg("MarketWorkbook stopped")
}

func run(cfg *config.Config, logger arbor.ILogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Provider and universe source
	timeout := time.Duration(cfg.Provider.TimeoutSeconds) * time.Second
	var (
		fetcher collector.Fetcher
		source  universe.ComponentSource
	)
	switch cfg.Provider.Name {
	case "mock":
		fetcher = &collector.MockFetcher{}
		source = mockUniverse
	default:
		fetcher = collector.NewYahooFetcher(cfg.Provider.BaseURL, cfg.Proxy, timeout, cfg.Provider.RequestsPerSecond, logger)
		source = universe.NewSlickChartsSource(cfg.Provider.ComponentsBaseURL, cfg.Proxy, timeout, logger)
	}
	logger.Info().Str("provider", fetcher.Name()).Msg("Quote provider ready")

	// Run history
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}
	defer rec.Close()

	exports := export.NewRegistry(cfg.Export, logger)
	svc := pipeline.NewService(
		universe.NewResolver(source, logger),
		collector.NewCollector(fetcher, m, logger),
		exports, rec, m, logger,
	)

	srv := server.New(cfg.Server, svc, rec, logger, server.Options{
		Metrics:  m.Handler(),
		Observer: m,
		Version:  common.Version,
	})
	httpServer := srv.HTTPServer(cfg.Server)

	// Telegram is optional; a nil notifier disables notifications.
	var (
		notify notifier.Notifier
		tn     *notifier.TelegramNotifier
	)
	if cfg.Telegram.Enabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)
		notify = tn
	}

	sched := scheduler.NewScheduler(ctx, svc, notify, rec, logger)
	if !cfg.Schedule.Disabled {
		if err := sched.RegisterAll(cfg.Schedule.DailyCron, cfg.Schedule.HourlyCron); err != nil {
			return fmt.Errorf("register cron tasks: %w", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info().Str("addr", httpServer.Addr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info().Msg("Shutdown signal received, stopping...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if tn != nil {
		g.Go(func() error {
			tn.StartPolling(gctx, sched.HandleCommand)
			return nil
		})
		logger.Info().Msg("Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info().Msg("RUN_ON_START enabled, executing daily export now")
		go sched.RunDailyNow()
	}

	return g.Wait()
}
