package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/tx-code/subwatch/internal/config"
	"github.com/tx-code/subwatch/internal/domain/schedule"
	"github.com/tx-code/subwatch/internal/obs"
	"github.com/tx-code/subwatch/internal/repository/file"
	"github.com/tx-code/subwatch/internal/services/dashboard"
	"github.com/tx-code/subwatch/internal/services/monitor"
)

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func main() {
	cfgPath := flag.String("config", "config/subwatchd.yaml", "path to bootstrap config")
	once := flag.Bool("once", false, "run a single monitoring cycle and exit")
	flag.Parse()

	// init
	root, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	// logger
	l, err := obs.NewLogger(cfg.Log.AsLoggerConfig())
	if err != nil {
		log.Fatal(err)
	}

	// otel
	otelCloser, err := obs.SetupOTel(root, cfg.OTEL.AsOTELConfig())
	if err != nil {
		l.Fatal("otel init", zap.Error(err))
	}
	defer func() { _ = otelCloser.Shutdown(context.Background()) }()

	// state + wiring
	clock := systemClock{}
	defaults := schedule.DefaultState(
		cfg.Monitor.URL,
		cfg.Monitor.IntervalMinutes,
		cfg.Monitor.DataDirectory,
		cfg.Monitor.ContinuousMode,
		clock.Now(),
	)
	store := file.NewStateStore(cfg.StateFile, defaults, clock, l)
	observations := file.NewObservationLog(store.State().Monitor.DataDirectory)

	cycle := &monitor.Cycle{
		Log:          l,
		Store:        store,
		Observations: observations,
		Fetcher: monitor.NewFetcher(monitor.FetchConfig{
			Timeout:   cfg.Fetch.Timeout,
			UserAgent: cfg.Fetch.UserAgent,
		}, l),
		Extractor: monitor.NewPageExtractor(),
		Clock:     clock,
	}
	runner := monitor.NewRunner(l, cycle, store,
		monitor.RunnerConfig{Poll: cfg.Monitor.PollInterval},
		prometheus.DefaultRegisterer,
	)

	if *once {
		ok, err := runner.CheckNow(root)
		if err != nil {
			l.Error("single check", zap.Error(err))
			os.Exit(1)
		}
		if !ok {
			os.Exit(1)
		}
		return
	}

	// metrics
	ms := obs.BootstrapMetricsServer(cfg.Server.MetricsAddr, func(context.Context) error {
		return store.Ping()
	}, l)

	// dashboard
	ds := dashboard.Bootstrap(
		cfg.Server.DashboardAddr,
		dashboard.New(l, runner, store, observations).Router(),
		l,
	)

	// run
	errCh := make(chan error, 1)
	go func() { errCh <- runner.Run(root) }()

	l.Info("subwatchd started",
		zap.String("url", store.State().Monitor.URL),
		zap.String("dashboard", cfg.Server.DashboardAddr),
	)

	// loop
	select {
	case <-root.Done():
	case err = <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			l.Error("runner error", zap.Error(err))
		}
	}

	// graceful shutdown
	shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = ds.Shutdown(shCtx)
	_ = ms.Shutdown(shCtx)
	l.Info("bye")
}
