package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// YieldEstimateRequest carries everything a caller knows about a crop
// instance. Only the identifiers are mandatory; every missing observation
// degrades to a neutral adjustment rather than an error.
type YieldEstimateRequest struct {
	CropInstanceID string `json:"cropInstanceId" binding:"required"`
	FarmerID       string `json:"farmerId" binding:"required"`
	CropName       string `json:"cropName"`
	CropVariety    string `json:"cropVariety"`
	Location       string `json:"location"`

	AreaAcres   *decimal.Decimal `json:"areaAcres"`
	GrowthStage string           `json:"growthStage"`

	TotalRainfallMm           *decimal.Decimal `json:"totalRainfallMm"`
	AverageTemperatureCelsius *decimal.Decimal `json:"averageTemperatureCelsius"`
	ExtremeWeatherEventCount  *int             `json:"extremeWeatherEventCount"`

	SoilNitrogenKgHa   *decimal.Decimal `json:"soilNitrogenKgHa"`
	SoilPhosphorusKgHa *decimal.Decimal `json:"soilPhosphorusKgHa"`
	SoilPotassiumKgHa  *decimal.Decimal `json:"soilPotassiumKgHa"`
	SoilPh             *decimal.Decimal `json:"soilPh"`

	IrrigationType             string `json:"irrigationType"`
	IrrigationFrequencyPerWeek *int   `json:"irrigationFrequencyPerWeek"`

	PestIncidentCount        *int             `json:"pestIncidentCount"`
	DiseaseIncidentCount     *int             `json:"diseaseIncidentCount"`
	PestDiseaseControlStatus string           `json:"pestDiseaseControlStatus"`
	AffectedAreaPercent      *decimal.Decimal `json:"affectedAreaPercent"`

	IncludeHistoricalData      bool   `json:"includeHistoricalData"`
	IncludeFinancialProjection bool   `json:"includeFinancialProjection"`
	HistoricalCropName         string `json:"historicalCropName"`
}

// FinancialProjection converts a yield range into revenue, profit, and ROI
// estimates using current mandi prices.
type FinancialProjection struct {
	CommodityName          string          `json:"commodityName"`
	EstimatedYieldQuintals decimal.Decimal `json:"estimatedYieldQuintals"`

	CurrentPricePerQuintal decimal.Decimal `json:"currentPricePerQuintal"`
	MinPricePerQuintal     decimal.Decimal `json:"minPricePerQuintal"`
	MaxPricePerQuintal     decimal.Decimal `json:"maxPricePerQuintal"`
	PriceSource            string          `json:"priceSource"`

	EstimatedRevenueMin      decimal.Decimal `json:"estimatedRevenueMin"`
	EstimatedRevenueExpected decimal.Decimal `json:"estimatedRevenueExpected"`
	EstimatedRevenueMax      decimal.Decimal `json:"estimatedRevenueMax"`

	TotalEstimatedCosts     decimal.Decimal `json:"totalEstimatedCosts"`
	EstimatedProfitMin      decimal.Decimal `json:"estimatedProfitMin"`
	EstimatedProfitExpected decimal.Decimal `json:"estimatedProfitExpected"`
	EstimatedProfitMax      decimal.Decimal `json:"estimatedProfitMax"`
	EstimatedRoiPercent     decimal.Decimal `json:"estimatedRoiPercent"`

	MarketAdvisory string `json:"marketAdvisory"`
	AdvisoryReason string `json:"advisoryReason"`
	Degraded       bool   `json:"degraded"`
}

// YieldEstimateResponse is the full estimation result returned to the caller.
type YieldEstimateResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	GeneratedAt time.Time `json:"generatedAt"`

	PredictionID   string `json:"predictionId,omitempty"`
	CropInstanceID string `json:"cropInstanceId,omitempty"`
	FarmerID       string `json:"farmerId,omitempty"`
	CropName       string `json:"cropName,omitempty"`
	CropVariety    string `json:"cropVariety,omitempty"`

	AreaAcres decimal.Decimal `json:"areaAcres"`

	MinQuintalsPerAcre      decimal.Decimal `json:"minQuintalsPerAcre"`
	ExpectedQuintalsPerAcre decimal.Decimal `json:"expectedQuintalsPerAcre"`
	MaxQuintalsPerAcre      decimal.Decimal `json:"maxQuintalsPerAcre"`

	MinQuintals      decimal.Decimal `json:"minQuintals"`
	ExpectedQuintals decimal.Decimal `json:"expectedQuintals"`
	MaxQuintals      decimal.Decimal `json:"maxQuintals"`

	ConfidenceIntervalPercent decimal.Decimal `json:"confidenceIntervalPercent"`
	FactorsConsidered         []string        `json:"factorsConsidered"`
	FactorAdjustments         []string        `json:"factorAdjustments"`
	ModelVersion              string          `json:"modelVersion"`
	CurrentGrowthStage        string          `json:"currentGrowthStage,omitempty"`

	SignificantDeviationFromPrevious bool            `json:"significantDeviationFromPrevious"`
	DeviationFromPreviousPercent     decimal.Decimal `json:"deviationFromPreviousPercent"`

	FinancialProjection *FinancialProjection `json:"financialProjection,omitempty"`

	HistoricalAverageYieldQuintalsPerAcre *decimal.Decimal `json:"historicalAverageYieldQuintalsPerAcre,omitempty"`
	YieldVarianceFromHistoricalPercent    *decimal.Decimal `json:"yieldVarianceFromHistoricalPercent,omitempty"`
	HistoricalComparisonNote              string           `json:"historicalComparisonNote,omitempty"`
}

// ActualYieldRequest records the harvested quantity for a crop instance.
type ActualYieldRequest struct {
	CropInstanceID      string          `json:"cropInstanceId" binding:"required"`
	ActualYieldQuintals decimal.Decimal `json:"actualYieldQuintals"`
}

// VarianceTrackingResponse reports prediction-vs-actual variance after a
// harvest has been recorded.
type VarianceTrackingResponse struct {
	PredictionID   string `json:"predictionId"`
	CropInstanceID string `json:"cropInstanceId"`
	FarmerID       string `json:"farmerId"`

	ExpectedQuintals decimal.Decimal  `json:"expectedQuintals"`
	ActualQuintals   decimal.Decimal  `json:"actualQuintals"`
	VarianceQuintals decimal.Decimal  `json:"varianceQuintals"`
	VariancePercent  *decimal.Decimal `json:"variancePercent,omitempty"`
	VarianceCategory string           `json:"varianceCategory,omitempty"`

	ModelVersion           string          `json:"modelVersion"`
	AverageVarianceForCrop decimal.Decimal `json:"averageVarianceForCrop"`
}
