package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GrowthStage identifies where a crop instance sits in its growth cycle.
type GrowthStage string

const (
	StageSowing      GrowthStage = "SOWING"
	StageGermination GrowthStage = "GERMINATION"
	StageVegetative  GrowthStage = "VEGETATIVE"
	StageFlowering   GrowthStage = "FLOWERING"
	StageFruiting    GrowthStage = "FRUITING"
	StageMaturation  GrowthStage = "MATURATION"
	StageHarvest     GrowthStage = "HARVEST"
)

// IrrigationType identifies how a crop instance is watered.
type IrrigationType string

const (
	IrrigationRainfed   IrrigationType = "RAINFED"
	IrrigationDrip      IrrigationType = "DRIP"
	IrrigationSprinkler IrrigationType = "SPRINKLER"
	IrrigationCanal     IrrigationType = "CANAL"
	IrrigationBorewell  IrrigationType = "BOREWELL"
)

// Variance categories assigned after harvest.
const (
	VariancePositive = "positive"
	VarianceNegative = "negative"
	VarianceNeutral  = "neutral"
)

// YieldPrediction is the persisted outcome of one estimation run. It is
// immutable after creation except for the actual/variance fields, which are
// set once harvest data arrives, and the notification flag, which only ever
// flips false to true.
type YieldPrediction struct {
	ID             string `json:"id"`
	CropInstanceID string `json:"cropInstanceId"`
	FarmerID       string `json:"farmerId"`
	CropName       string `json:"cropName"`

	PredictionDate time.Time       `json:"predictionDate"`
	AreaAcres      decimal.Decimal `json:"areaAcres"`

	MinQuintals               decimal.Decimal `json:"minQuintals"`
	ExpectedQuintals          decimal.Decimal `json:"expectedQuintals"`
	MaxQuintals               decimal.Decimal `json:"maxQuintals"`
	ConfidenceIntervalPercent decimal.Decimal `json:"confidenceIntervalPercent"`

	FactorsConsidered []string `json:"factorsConsidered"`
	FactorAdjustments []string `json:"factorAdjustments"`
	ModelVersion      string   `json:"modelVersion"`

	// Weak back-reference to the most recent earlier prediction for the same
	// crop instance. Lookup only, no ownership.
	PreviousPredictionID string          `json:"previousPredictionId,omitempty"`
	DeviationPercent     decimal.Decimal `json:"deviationFromPreviousPercent"`
	SignificantDeviation bool            `json:"significantDeviationFromPrevious"`

	ActualQuintals   *decimal.Decimal `json:"actualQuintals,omitempty"`
	VarianceQuintals *decimal.Decimal `json:"varianceQuintals,omitempty"`
	VariancePercent  *decimal.Decimal `json:"variancePercent,omitempty"`

	NotificationSent   bool       `json:"notificationSent"`
	NotificationSentAt *time.Time `json:"notificationSentAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasActual reports whether harvest data has been recorded for this prediction.
func (p *YieldPrediction) HasActual() bool {
	return p.ActualQuintals != nil
}

// VarianceSummary is the running model-accuracy feedback for one crop,
// recomputed on demand from stored predictions with actuals.
type VarianceSummary struct {
	CropName               string          `json:"cropName"`
	SampleCount            int             `json:"sampleCount"`
	AverageVariancePercent decimal.Decimal `json:"averageVariancePercent"`
}
