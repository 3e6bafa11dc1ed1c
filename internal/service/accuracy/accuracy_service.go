package accuracy

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/krishimitra/yield-service/internal/domain/models"
	"github.com/krishimitra/yield-service/internal/engine"
	"github.com/krishimitra/yield-service/internal/repository/sheets"
)

const (
	dateLayout  = "2006-01-02"
	reviewRange = "ModelAccuracy!A:E"
)

// PredictionSource provides the harvested predictions the accuracy report is
// built from.
type PredictionSource interface {
	AllWithActuals(ctx context.Context) ([]models.YieldPrediction, error)
}

// Service produces periodic model-accuracy summaries for agronomist review.
type Service struct {
	source   PredictionSource
	exporter sheets.Exporter
	logger   *zap.Logger
}

// NewService wires a new accuracy reporting service instance.
func NewService(source PredictionSource, exporter sheets.Exporter, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, exporter: exporter, logger: logger}
}

// ExportWeekly recomputes the per-crop variance summaries from all harvested
// predictions and appends one review row per crop to the spreadsheet.
func (s *Service) ExportWeekly(ctx context.Context, asOf time.Time) error {
	predictions, err := s.source.AllWithActuals(ctx)
	if err != nil {
		return fmt.Errorf("load harvested predictions: %w", err)
	}

	byCrop := make(map[string][]models.YieldPrediction)
	for _, p := range predictions {
		byCrop[p.CropName] = append(byCrop[p.CropName], p)
	}

	crops := make([]string, 0, len(byCrop))
	for crop := range byCrop {
		crops = append(crops, crop)
	}
	sort.Strings(crops)

	for _, crop := range crops {
		summary := engine.SummarizeVariance(crop, byCrop[crop])
		if summary.SampleCount == 0 {
			continue
		}

		row := []interface{}{
			asOf.Format(dateLayout),
			summary.CropName,
			summary.SampleCount,
			summary.AverageVariancePercent.StringFixed(2),
			byCrop[crop][0].ModelVersion,
		}
		if err := s.exporter.AppendRow(ctx, reviewRange, row); err != nil {
			return fmt.Errorf("export summary for crop %s: %w", crop, err)
		}

		s.logger.Info("exported model accuracy summary",
			zap.String("crop", summary.CropName),
			zap.Int("samples", summary.SampleCount),
			zap.String("avg_variance_percent", summary.AverageVariancePercent.String()))
	}

	return nil
}
