package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/krishimitra/yield-service/internal/config"
	"github.com/krishimitra/yield-service/internal/engine"
	"github.com/krishimitra/yield-service/internal/repository/mongodb"
	"github.com/krishimitra/yield-service/internal/repository/sheets"
	"github.com/krishimitra/yield-service/internal/scheduler"
	"github.com/krishimitra/yield-service/internal/server/handlers"
	"github.com/krishimitra/yield-service/internal/server/router"
	accuracysvc "github.com/krishimitra/yield-service/internal/service/accuracy"
	"github.com/krishimitra/yield-service/pkg/clients/alerts"
	"github.com/krishimitra/yield-service/pkg/clients/mandi"
	"github.com/krishimitra/yield-service/pkg/clients/weather"
	"github.com/krishimitra/yield-service/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	repo, err := mongodb.NewPredictionRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName)
	if err != nil {
		baseLogger.Fatal("failed to init prediction repository", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var priceProvider engine.PriceProvider
	if cfg.Mandi.Enabled() {
		priceProvider = mandi.NewClient(cfg.Mandi)
		baseLogger.Info("mandi price provider enabled")
	} else {
		baseLogger.Warn("mandi service url missing, financial projections will use default prices")
	}

	var weatherProvider engine.WeatherProvider
	if cfg.Weather.Enabled() {
		weatherProvider = weather.NewClient(cfg.Weather)
		baseLogger.Info("weather provider enabled")
	} else {
		baseLogger.Warn("weather service url missing, weather auto-fill disabled")
	}

	params := engine.Params{
		ModelVersion:              cfg.Model.Version,
		ConfidenceIntervalPercent: cfg.Model.ConfidenceIntervalPercent,
		SignificantDeviationPct:   cfg.Model.SignificantDeviationPct,
		NeutralVarianceBandPct:    cfg.Model.NeutralVarianceBandPct,
		CostPerQuintal:            cfg.Model.CostPerQuintal,
		DefaultModalPrice:         cfg.Model.DefaultModalPricePerQuintal,
	}
	yieldEngine := engine.New(engine.DefaultTables(), params, repo, priceProvider, weatherProvider, baseLogger.Named("svc.engine"))

	var alertsClient alerts.Client
	if cfg.Alerts.Enabled() {
		alertsClient = alerts.NewClient(cfg.Alerts)
		baseLogger.Info("deviation alerts enabled")
	} else {
		baseLogger.Warn("notification service url missing, deviation alerts disabled")
	}

	var accuracyExporter scheduler.AccuracyExporter
	if cfg.Sheets.Enabled() {
		exporter, err := sheets.NewGoogleSheetExporter(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets exporter", zap.Error(err))
		}
		accuracyExporter = accuracysvc.NewService(repo, exporter, baseLogger.Named("svc.accuracy"))
		baseLogger.Info("model accuracy export enabled")
	} else {
		baseLogger.Warn("sheets credentials missing, model accuracy export disabled")
	}

	yieldHandler := handlers.NewYieldHandler(yieldEngine, baseLogger.Named("handlers.yield"))
	engineRouter := router.New(yieldHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Scheduler, yieldEngine, alertsClient, accuracyExporter, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engineRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
