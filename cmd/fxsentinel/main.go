package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"FXSentinel/internal/collector"
	"FXSentinel/internal/config"
	"FXSentinel/internal/logger"
	"FXSentinel/internal/metrics"
	"FXSentinel/internal/model"
	"FXSentinel/internal/notifier"
	"FXSentinel/internal/pacer"
	"FXSentinel/internal/recorder"
	"FXSentinel/internal/retrier"
	"FXSentinel/internal/scheduler"
)

func main() {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatal("load config", err)
	}
	if err := cfg.Validate(); err != nil {
		fatal("config validation", err)
	}
	pairs, err := cfg.ParsedPairs()
	if err != nil {
		fatal("config validation", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fatal("init logger", err)
	}
	defer func() { _ = log.Sync() }()
	log.Info("FXSentinel starting", zap.Int("pairs", len(pairs)), zap.String("config", cfgPath))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Init provider
	av := collector.NewAlphaVantage(
		cfg.Provider.APIKey, cfg.Proxy, cfg.Provider.Timeout,
		pacer.NewIntervalPacer(cfg.Provider.Pacing), newRetrier(cfg), log.Named("alphavantage"),
	)
	av.BaseURL = cfg.Provider.BaseURL
	av.Observe = m.RecordProviderCall
	log.Info("data source", zap.String("provider", av.Name()), zap.Duration("pacing", cfg.Provider.Pacing))

	col := collector.NewCollector(av, collector.Params{
		DailyDepth:   cfg.Indicators.DailyDepth,
		TenDayWindow: cfg.Indicators.TenDayWindow,
		BandPeriod:   cfg.Indicators.BandPeriod,
		BandMult:     cfg.Indicators.BandMult,
	}, log.Named("collector"))

	store := openStore(cfg, log)
	defer store.Close()
	log.Info("record store", zap.String("store", store.Name()))

	orch := scheduler.NewOrchestrator(col, store, pairs, m, log.Named("orchestrator"))

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, log.Named("telegram"))
	}
	afterRun := func(report scheduler.Report) {
		if tn != nil {
			if err := tn.SendWithRetry(ctx, notifier.FormatRunSummary(report), 3); err != nil {
				log.Error("send run summary", zap.Error(err))
			}
		}
		if cfg.Metrics.PushgatewayURL != "" {
			if err := m.Push(cfg.Metrics.PushgatewayURL, cfg.Metrics.Job); err != nil {
				log.Error("push metrics", zap.Error(err))
			}
		}
	}

	if cfg.Schedule.Cron == "" {
		afterRun(orch.Run(ctx))
		return
	}

	sched := scheduler.NewScheduler(ctx, orch, afterRun, log.Named("scheduler"))
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatal("register cron task", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, (&notifier.Commands{Scheduler: sched}).Handle)
		log.Info("telegram polling started")
	}

	if cfg.Schedule.RunOnStart {
		log.Info("RUN_ON_START enabled, executing sync now")
		go sched.RunNow()
	}

	log.Info("FXSentinel is running, press Ctrl+C to stop", zap.String("cron", cfg.Schedule.Cron))
	<-ctx.Done()
	log.Info("shutdown signal received, stopping")
}

func newRetrier(cfg *config.Config) *retrier.Retrier {
	return retrier.New(
		retrier.WithMaxRetries(cfg.Provider.MaxRetries),
		retrier.WithRetryIf(model.IsRetryable),
	)
}

// openStore picks Notion, then SQLite, then the dry-run store.
func openStore(cfg *config.Config, log *zap.Logger) recorder.Store {
	if cfg.NotionEnabled() {
		ns := recorder.NewNotionStore(cfg.Notion.Token, cfg.Notion.DatabaseID, cfg.Proxy,
			cfg.Provider.Timeout, newRetrier(cfg), log.Named("notion"))
		ns.BaseURL = cfg.Notion.BaseURL
		return ns
	}
	if cfg.Database.SQLitePath != "" {
		ss, err := recorder.NewSQLiteStore(cfg.Database.SQLitePath, log.Named("sqlite"))
		if err == nil {
			return ss
		}
		log.Warn("init sqlite store failed, using dry-run", zap.Error(err))
	}
	return recorder.NewNoopStore(log.Named("noop"))
}

func fatal(what string, err error) {
	fmt.Fprintf(os.Stderr, "fxsentinel: %s: %v\n", what, err)
	os.Exit(1)
}
