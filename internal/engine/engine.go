package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/krishimitra/yield-service/internal/domain/models"
)

// ErrPredictionNotFound signals that variance recording was requested for a
// crop instance that has no prediction on record.
var ErrPredictionNotFound = errors.New("no prediction found for crop instance")

// ValidationError rejects malformed input before any computation or write.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// PredictionStore is the persistence boundary for yield predictions.
type PredictionStore interface {
	Save(ctx context.Context, p *models.YieldPrediction) error
	LatestByCropInstance(ctx context.Context, cropInstanceID string) (*models.YieldPrediction, error)
	SetActuals(ctx context.Context, predictionID string, actual, varianceQuintals decimal.Decimal, variancePercent *decimal.Decimal) error
	WithActuals(ctx context.Context, cropInstanceID string) ([]models.YieldPrediction, error)
	AllWithActuals(ctx context.Context) ([]models.YieldPrediction, error)
	ActualsByFarmerAndCrop(ctx context.Context, farmerID, cropName string) ([]models.YieldPrediction, error)
	HistoryByCropInstance(ctx context.Context, cropInstanceID string) ([]models.YieldPrediction, error)
	RecentByFarmer(ctx context.Context, farmerID string, since time.Time) ([]models.YieldPrediction, error)
	NeedingNotification(ctx context.Context) ([]models.YieldPrediction, error)
	MarkNotified(ctx context.Context, predictionID string, at time.Time) error
}

// WeatherSummary is the season aggregate a weather provider returns.
type WeatherSummary struct {
	TotalRainfallMm     decimal.Decimal
	AverageTemperatureC decimal.Decimal
	ExtremeEventCount   int
}

// WeatherProvider fills in weather observations the caller did not supply.
// A failure degrades the weather factor to neutral, never the whole estimate.
type WeatherProvider interface {
	SeasonSummary(ctx context.Context, location string) (WeatherSummary, error)
}

// Engine is the yield estimation and variance-tracking core. Stateless per
// request: every call reads at most one prior record and writes at most one.
type Engine struct {
	tables  Tables
	params  Params
	store   PredictionStore
	prices  PriceProvider
	weather WeatherProvider
	logger  *zap.Logger
}

// New wires an engine. Price and weather providers are optional; a nil
// provider behaves like a permanently unavailable one.
func New(tables Tables, params Params, store PredictionStore, prices PriceProvider, weather WeatherProvider, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		tables:  tables,
		params:  params,
		store:   store,
		prices:  prices,
		weather: weather,
		logger:  logger,
	}
}

// Estimate runs the multi-factor model once and persists the resulting
// prediction.
func (e *Engine) Estimate(ctx context.Context, req models.YieldEstimateRequest) (*models.YieldEstimateResponse, error) {
	e.logger.Info("generating yield estimate",
		zap.String("farmer_id", req.FarmerID),
		zap.String("crop_instance_id", req.CropInstanceID),
		zap.String("crop", req.CropName))

	area := one
	if req.AreaAcres != nil {
		if req.AreaAcres.Sign() <= 0 {
			return nil, &ValidationError{Field: "areaAcres", Reason: "must be greater than zero"}
		}
		area = *req.AreaAcres
	}

	base := e.tables.BaseYieldFor(req.CropName)
	weatherIn := e.resolveWeather(ctx, req)

	cumulative := one
	var notes []FactorNote
	apply := func(m decimal.Decimal, ns []FactorNote) {
		cumulative = cumulative.Mul(m)
		notes = append(notes, ns...)
	}

	apply(GrowthStageMultiplier(e.tables, req.GrowthStage))
	apply(WeatherMultiplier(e.tables, weatherIn))
	apply(SoilMultiplier(e.tables, SoilInput{
		NitrogenKgHa:   req.SoilNitrogenKgHa,
		PhosphorusKgHa: req.SoilPhosphorusKgHa,
		PotassiumKgHa:  req.SoilPotassiumKgHa,
		Ph:             req.SoilPh,
	}))
	apply(IrrigationMultiplier(e.tables, IrrigationInput{
		Type:             req.IrrigationType,
		FrequencyPerWeek: req.IrrigationFrequencyPerWeek,
	}))
	apply(PestDiseaseMultiplier(e.tables, PestDiseaseInput{
		PestIncidentCount:    intValue(req.PestIncidentCount),
		DiseaseIncidentCount: intValue(req.DiseaseIncidentCount),
		ControlStatus:        req.PestDiseaseControlStatus,
		AffectedAreaPercent:  req.AffectedAreaPercent,
	}))

	historicalCrop := req.HistoricalCropName
	if historicalCrop == "" {
		historicalCrop = req.CropName
	}
	var historicalAvg *decimal.Decimal
	if req.IncludeHistoricalData {
		historicalAvg = e.historicalAveragePerAcre(ctx, req.FarmerID, historicalCrop)
		if historicalAvg != nil {
			apply(HistoricalMultiplier(base, *historicalAvg, historicalCrop))
		}
	}

	comp := Compose(base, cumulative, e.params.ConfidenceIntervalPercent, area)

	previous, err := e.store.LatestByCropInstance(ctx, req.CropInstanceID)
	if err != nil {
		return nil, fmt.Errorf("load previous prediction: %w", err)
	}
	deviationPct, significant := DetectDeviation(comp.ExpectedTotal, previous, e.params.SignificantDeviationPct)

	factors, adjustments := splitNotes(notes)
	now := time.Now().UTC()

	prediction := &models.YieldPrediction{
		CropInstanceID: req.CropInstanceID,
		FarmerID:       req.FarmerID,
		CropName:       req.CropName,
		PredictionDate: now,
		AreaAcres:      area,

		MinQuintals:               comp.MinTotal,
		ExpectedQuintals:          comp.ExpectedTotal,
		MaxQuintals:               comp.MaxTotal,
		ConfidenceIntervalPercent: e.params.ConfidenceIntervalPercent,

		FactorsConsidered: factors,
		FactorAdjustments: adjustments,
		ModelVersion:      e.params.ModelVersion,

		DeviationPercent:     deviationPct,
		SignificantDeviation: significant,

		NotificationSent: false,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if previous != nil {
		prediction.PreviousPredictionID = previous.ID
	}

	if err := e.store.Save(ctx, prediction); err != nil {
		return nil, fmt.Errorf("save prediction: %w", err)
	}

	resp := &models.YieldEstimateResponse{
		Success:     true,
		Message:     "Yield estimate generated successfully",
		GeneratedAt: now,

		PredictionID:   prediction.ID,
		CropInstanceID: req.CropInstanceID,
		FarmerID:       req.FarmerID,
		CropName:       req.CropName,
		CropVariety:    req.CropVariety,
		AreaAcres:      area,

		MinQuintalsPerAcre:      comp.MinPerAcre,
		ExpectedQuintalsPerAcre: comp.ExpectedPerAcre,
		MaxQuintalsPerAcre:      comp.MaxPerAcre,
		MinQuintals:             comp.MinTotal,
		ExpectedQuintals:        comp.ExpectedTotal,
		MaxQuintals:             comp.MaxTotal,

		ConfidenceIntervalPercent: e.params.ConfidenceIntervalPercent,
		FactorsConsidered:         factors,
		FactorAdjustments:         adjustments,
		ModelVersion:              e.params.ModelVersion,
		CurrentGrowthStage:        req.GrowthStage,

		SignificantDeviationFromPrevious: significant,
		DeviationFromPreviousPercent:     deviationPct,
	}

	if req.IncludeFinancialProjection {
		quote := e.fetchQuote(ctx, req.CropName)
		proj := ProjectFinancials(e.params, req.CropName, comp.MinTotal, comp.ExpectedTotal, comp.MaxTotal, quote)
		resp.FinancialProjection = &proj
	}

	if req.IncludeHistoricalData && historicalAvg != nil && historicalAvg.Sign() > 0 {
		variance := comp.ExpectedPerAcre.Sub(*historicalAvg).Mul(hundred).DivRound(*historicalAvg, 2)
		direction := "above"
		if variance.Sign() < 0 {
			direction = "below"
		}
		resp.HistoricalAverageYieldQuintalsPerAcre = historicalAvg
		resp.YieldVarianceFromHistoricalPercent = &variance
		resp.HistoricalComparisonNote = fmt.Sprintf("%s%% %s your historical average of %s quintals/acre",
			variance.Abs().StringFixed(1), direction, historicalAvg.StringFixed(2))
	}

	return resp, nil
}

// RecordActualYield reconciles a harvest against the most recent prediction
// for the crop instance. Recording twice overwrites; it never duplicates.
func (e *Engine) RecordActualYield(ctx context.Context, req models.ActualYieldRequest) (*models.VarianceTrackingResponse, error) {
	if req.ActualYieldQuintals.Sign() < 0 {
		return nil, &ValidationError{Field: "actualYieldQuintals", Reason: "must not be negative"}
	}

	e.logger.Info("recording actual yield",
		zap.String("crop_instance_id", req.CropInstanceID),
		zap.String("actual_quintals", req.ActualYieldQuintals.String()))

	prediction, err := e.store.LatestByCropInstance(ctx, req.CropInstanceID)
	if err != nil {
		return nil, fmt.Errorf("load prediction: %w", err)
	}
	if prediction == nil {
		return nil, fmt.Errorf("%w: %s", ErrPredictionNotFound, req.CropInstanceID)
	}

	varianceQ, variancePct := ComputeVariance(prediction.ExpectedQuintals, req.ActualYieldQuintals)
	if err := e.store.SetActuals(ctx, prediction.ID, req.ActualYieldQuintals, varianceQ, variancePct); err != nil {
		return nil, fmt.Errorf("persist variance: %w", err)
	}

	resp := &models.VarianceTrackingResponse{
		PredictionID:   prediction.ID,
		CropInstanceID: prediction.CropInstanceID,
		FarmerID:       prediction.FarmerID,

		ExpectedQuintals: prediction.ExpectedQuintals,
		ActualQuintals:   req.ActualYieldQuintals,
		VarianceQuintals: varianceQ,
		VariancePercent:  variancePct,
		VarianceCategory: CategorizeVariance(variancePct, e.params.NeutralVarianceBandPct),

		ModelVersion: prediction.ModelVersion,
	}

	withActuals, err := e.store.WithActuals(ctx, req.CropInstanceID)
	if err != nil {
		e.logger.Warn("could not compute average variance for crop", zap.Error(err))
		return resp, nil
	}
	resp.AverageVarianceForCrop = SummarizeVariance(prediction.CropName, withActuals).AverageVariancePercent

	return resp, nil
}

// VarianceSummary recomputes model-accuracy feedback for a crop instance from
// its stored predictions with actuals.
func (e *Engine) VarianceSummary(ctx context.Context, cropInstanceID string) (models.VarianceSummary, []models.YieldPrediction, error) {
	predictions, err := e.store.WithActuals(ctx, cropInstanceID)
	if err != nil {
		return models.VarianceSummary{}, nil, fmt.Errorf("load predictions with actuals: %w", err)
	}

	cropName := ""
	if len(predictions) > 0 {
		cropName = predictions[0].CropName
	}
	return SummarizeVariance(cropName, predictions), predictions, nil
}

// History returns all predictions for a crop instance, newest first.
func (e *Engine) History(ctx context.Context, cropInstanceID string) ([]models.YieldPrediction, error) {
	predictions, err := e.store.HistoryByCropInstance(ctx, cropInstanceID)
	if err != nil {
		return nil, fmt.Errorf("load prediction history: %w", err)
	}
	return predictions, nil
}

// RecentForFarmer returns a farmer's predictions from the last season window.
func (e *Engine) RecentForFarmer(ctx context.Context, farmerID string, since time.Time) ([]models.YieldPrediction, error) {
	predictions, err := e.store.RecentByFarmer(ctx, farmerID, since)
	if err != nil {
		return nil, fmt.Errorf("load farmer predictions: %w", err)
	}
	return predictions, nil
}

// PredictionsNeedingNotification lists significant-deviation predictions that
// have not been dispatched yet.
func (e *Engine) PredictionsNeedingNotification(ctx context.Context) ([]models.YieldPrediction, error) {
	return e.store.NeedingNotification(ctx)
}

// MarkNotified flips the one-way notification flag.
func (e *Engine) MarkNotified(ctx context.Context, predictionID string) error {
	return e.store.MarkNotified(ctx, predictionID, time.Now().UTC())
}

// resolveWeather fills missing weather observations from the provider when a
// location is known. Provider failure simply leaves the inputs empty.
func (e *Engine) resolveWeather(ctx context.Context, req models.YieldEstimateRequest) WeatherInput {
	in := WeatherInput{
		TotalRainfallMm:     req.TotalRainfallMm,
		AverageTemperatureC: req.AverageTemperatureCelsius,
		ExtremeEventCount:   intValue(req.ExtremeWeatherEventCount),
	}

	hasAny := in.TotalRainfallMm != nil || in.AverageTemperatureC != nil || req.ExtremeWeatherEventCount != nil
	if hasAny || req.Location == "" || e.weather == nil {
		return in
	}

	summary, err := e.weather.SeasonSummary(ctx, req.Location)
	if err != nil {
		e.logger.Warn("weather provider unavailable, skipping weather factor",
			zap.String("location", req.Location), zap.Error(err))
		return in
	}

	in.TotalRainfallMm = &summary.TotalRainfallMm
	in.AverageTemperatureC = &summary.AverageTemperatureC
	in.ExtremeEventCount = summary.ExtremeEventCount
	return in
}

func (e *Engine) fetchQuote(ctx context.Context, cropName string) *PriceQuote {
	if e.prices == nil {
		return nil
	}
	quote, err := e.prices.CurrentPrice(ctx, cropName)
	if err != nil {
		e.logger.Warn("could not fetch mandi prices for financial projection",
			zap.String("crop", cropName), zap.Error(err))
		return nil
	}
	return &quote
}

// historicalAveragePerAcre averages the farmer's recorded actual yields per
// acre for a crop. Missing data or a read failure yields nil, degrading the
// historical factor to neutral.
func (e *Engine) historicalAveragePerAcre(ctx context.Context, farmerID, cropName string) *decimal.Decimal {
	predictions, err := e.store.ActualsByFarmerAndCrop(ctx, farmerID, cropName)
	if err != nil {
		e.logger.Warn("could not load historical yields", zap.String("farmer_id", farmerID), zap.Error(err))
		return nil
	}

	sum := decimal.Zero
	count := 0
	for i := range predictions {
		p := &predictions[i]
		if p.ActualQuintals == nil || p.AreaAcres.Sign() <= 0 {
			continue
		}
		sum = sum.Add(p.ActualQuintals.DivRound(p.AreaAcres, 4))
		count++
	}
	if count == 0 {
		return nil
	}

	avg := sum.DivRound(decimal.NewFromInt(int64(count)), 2)
	return &avg
}

func splitNotes(notes []FactorNote) ([]string, []string) {
	factors := make([]string, 0, len(notes))
	adjustments := make([]string, 0, len(notes))
	for _, n := range notes {
		factors = append(factors, n.Considered)
		adjustments = append(adjustments, n.Adjustment)
	}
	return factors, adjustments
}

func intValue(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
