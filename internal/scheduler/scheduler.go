package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/krishimitra/yield-service/internal/config"
	"github.com/krishimitra/yield-service/internal/domain/models"
	"github.com/krishimitra/yield-service/pkg/clients/alerts"
)

// NotificationSource provides the predictions awaiting alert dispatch.
type NotificationSource interface {
	PredictionsNeedingNotification(ctx context.Context) ([]models.YieldPrediction, error)
	MarkNotified(ctx context.Context, predictionID string) error
}

// AccuracyExporter produces the periodic model-accuracy review export.
type AccuracyExporter interface {
	ExportWeekly(ctx context.Context, asOf time.Time) error
}

// Scheduler manages the background jobs: the deviation-alert sweep and the
// weekly model-accuracy export.
type Scheduler struct {
	cron     *cron.Cron
	cfg      config.SchedulerConfig
	source   NotificationSource
	alerts   alerts.Client
	accuracy AccuracyExporter
	logger   *zap.Logger
}

// NewScheduler creates a new scheduler instance. Alerts and accuracy export
// are optional; a nil collaborator disables the corresponding job.
func NewScheduler(cfg config.SchedulerConfig, source NotificationSource, alertsClient alerts.Client, accuracySvc AccuracyExporter, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	location, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Warn("unknown timezone, falling back to local", zap.String("timezone", cfg.Timezone), zap.Error(err))
		location = time.Local
	}

	return &Scheduler{
		cron:     cron.New(cron.WithLocation(location)),
		cfg:      cfg,
		source:   source,
		alerts:   alertsClient,
		accuracy: accuracySvc,
		logger:   logger,
	}
}

// Start registers and starts the background jobs.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if s.alerts != nil {
		if _, err := s.cron.AddFunc(s.cfg.NotificationCron, s.dispatchDeviationAlerts); err != nil {
			s.logger.Error("failed to schedule deviation alert sweep", zap.Error(err))
		}
	}

	if s.accuracy != nil {
		if _, err := s.cron.AddFunc(s.cfg.AccuracyCron, s.exportAccuracyReport); err != nil {
			s.logger.Error("failed to schedule accuracy export", zap.Error(err))
		}
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

// dispatchDeviationAlerts sends one alert per undispatched significant
// deviation. A failed send leaves the prediction flagged for the next sweep.
func (s *Scheduler) dispatchDeviationAlerts() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	predictions, err := s.source.PredictionsNeedingNotification(ctx)
	if err != nil {
		s.logger.Error("failed to load predictions needing notification", zap.Error(err))
		return
	}

	for i := range predictions {
		p := &predictions[i]

		req := alerts.DeviationAlertRequest{
			FarmerID:         p.FarmerID,
			CropInstanceID:   p.CropInstanceID,
			PredictionID:     p.ID,
			Title:            "Yield Estimate Updated",
			Message:          fmt.Sprintf("Yield estimate changed by %s%% from previous prediction", p.DeviationPercent.StringFixed(1)),
			DeviationPercent: p.DeviationPercent.String(),
		}

		if err := s.alerts.SendDeviationAlert(ctx, req); err != nil {
			s.logger.Error("failed to send deviation alert",
				zap.String("prediction_id", p.ID), zap.Error(err))
			continue
		}

		if err := s.source.MarkNotified(ctx, p.ID); err != nil {
			s.logger.Error("failed to mark prediction notified",
				zap.String("prediction_id", p.ID), zap.Error(err))
			continue
		}

		s.logger.Info("deviation alert dispatched",
			zap.String("prediction_id", p.ID),
			zap.String("farmer_id", p.FarmerID))
	}
}

func (s *Scheduler) exportAccuracyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.accuracy.ExportWeekly(ctx, time.Now()); err != nil {
		s.logger.Error("failed to export accuracy report", zap.Error(err))
		return
	}
	s.logger.Info("accuracy report exported")
}
