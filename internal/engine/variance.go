package engine

import (
	"github.com/shopspring/decimal"

	"github.com/krishimitra/yield-service/internal/domain/models"
)

// ComputeVariance derives the quintal and percentage variance of an actual
// harvest against the predicted expectation. The percentage is nil when the
// expectation is not positive.
func ComputeVariance(expected, actual decimal.Decimal) (decimal.Decimal, *decimal.Decimal) {
	varianceQ := actual.Sub(expected)
	if expected.Sign() <= 0 {
		return varianceQ, nil
	}
	pct := varianceQ.Mul(hundred).DivRound(expected, 2)
	return varianceQ, &pct
}

// CategorizeVariance buckets a variance percentage: within the neutral band
// it is "neutral", above it "positive", below it "negative". An undefined
// percentage yields an empty category.
func CategorizeVariance(variancePct *decimal.Decimal, neutralBandPct decimal.Decimal) string {
	if variancePct == nil {
		return ""
	}
	switch {
	case variancePct.Cmp(neutralBandPct.Neg()) > 0 && variancePct.Cmp(neutralBandPct) < 0:
		return models.VarianceNeutral
	case variancePct.Sign() > 0:
		return models.VariancePositive
	default:
		return models.VarianceNegative
	}
}

// SummarizeVariance computes the running mean of absolute variance
// percentages across predictions that have harvest data, as model-accuracy
// feedback for one crop.
func SummarizeVariance(cropName string, predictions []models.YieldPrediction) models.VarianceSummary {
	sum := decimal.Zero
	count := 0
	for i := range predictions {
		if predictions[i].VariancePercent == nil {
			continue
		}
		sum = sum.Add(predictions[i].VariancePercent.Abs())
		count++
	}

	summary := models.VarianceSummary{CropName: cropName, SampleCount: count}
	if count > 0 {
		summary.AverageVariancePercent = sum.DivRound(decimal.NewFromInt(int64(count)), 2)
	}
	return summary
}
