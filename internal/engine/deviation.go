package engine

import (
	"github.com/shopspring/decimal"

	"github.com/krishimitra/yield-service/internal/domain/models"
)

// DetectDeviation compares the new total expected yield against the most
// recent prior prediction for the same crop instance. Returns zero and false
// when there is no usable prior expectation.
func DetectDeviation(newExpected decimal.Decimal, previous *models.YieldPrediction, thresholdPct decimal.Decimal) (decimal.Decimal, bool) {
	if previous == nil || previous.ExpectedQuintals.Sign() <= 0 {
		return decimal.Zero, false
	}

	pct := newExpected.Sub(previous.ExpectedQuintals).
		Abs().
		Mul(hundred).
		DivRound(previous.ExpectedQuintals, 2)

	return pct, pct.Cmp(thresholdPct) >= 0
}
