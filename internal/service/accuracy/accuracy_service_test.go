package accuracy

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishimitra/yield-service/internal/domain/models"
)

type stubSource struct {
	predictions []models.YieldPrediction
	err         error
}

func (s *stubSource) AllWithActuals(_ context.Context) ([]models.YieldPrediction, error) {
	return s.predictions, s.err
}

type stubExporter struct {
	ranges []string
	rows   [][]interface{}
	err    error
}

func (s *stubExporter) AppendRow(_ context.Context, writeRange string, row []interface{}) error {
	if s.err != nil {
		return s.err
	}
	s.ranges = append(s.ranges, writeRange)
	s.rows = append(s.rows, row)
	return nil
}

func pct(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestExportWeekly(t *testing.T) {
	source := &stubSource{predictions: []models.YieldPrediction{
		{CropName: "WHEAT", ModelVersion: "1.0.0", VariancePercent: pct("6")},
		{CropName: "RICE", ModelVersion: "1.0.0", VariancePercent: pct("-15")},
		{CropName: "RICE", ModelVersion: "1.0.0", VariancePercent: pct("5")},
	}}
	exporter := &stubExporter{}
	svc := NewService(source, exporter, nil)

	asOf := time.Date(2026, time.March, 6, 20, 0, 0, 0, time.UTC)
	require.NoError(t, svc.ExportWeekly(context.Background(), asOf))

	require.Len(t, exporter.rows, 2)
	assert.Equal(t, "ModelAccuracy!A:E", exporter.ranges[0])

	// crops are exported in sorted order
	assert.Equal(t, []interface{}{"2026-03-06", "RICE", 2, "10.00", "1.0.0"}, exporter.rows[0])
	assert.Equal(t, []interface{}{"2026-03-06", "WHEAT", 1, "6.00", "1.0.0"}, exporter.rows[1])
}

func TestExportWeeklySkipsCropsWithoutSamples(t *testing.T) {
	source := &stubSource{predictions: []models.YieldPrediction{
		{CropName: "MAIZE", ModelVersion: "1.0.0"},
	}}
	exporter := &stubExporter{}
	svc := NewService(source, exporter, nil)

	require.NoError(t, svc.ExportWeekly(context.Background(), time.Now()))
	assert.Empty(t, exporter.rows)
}

func TestExportWeeklyPropagatesErrors(t *testing.T) {
	t.Run("source failure", func(t *testing.T) {
		svc := NewService(&stubSource{err: errors.New("db down")}, &stubExporter{}, nil)
		assert.Error(t, svc.ExportWeekly(context.Background(), time.Now()))
	})

	t.Run("exporter failure", func(t *testing.T) {
		source := &stubSource{predictions: []models.YieldPrediction{
			{CropName: "RICE", ModelVersion: "1.0.0", VariancePercent: pct("5")},
		}}
		svc := NewService(source, &stubExporter{err: errors.New("quota exceeded")}, nil)
		assert.Error(t, svc.ExportWeekly(context.Background(), time.Now()))
	})
}
