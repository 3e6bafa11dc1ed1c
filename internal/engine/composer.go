package engine

import "github.com/shopspring/decimal"

// Composition is the bounded yield forecast, per acre and scaled to the
// requested area. Guarantees 0 <= Min <= Expected <= Max on both scales.
type Composition struct {
	MinPerAcre      decimal.Decimal
	ExpectedPerAcre decimal.Decimal
	MaxPerAcre      decimal.Decimal

	MinTotal      decimal.Decimal
	ExpectedTotal decimal.Decimal
	MaxTotal      decimal.Decimal
}

// Floor and ceiling guards applied around the confidence-interval range.
var (
	minFloorRatio   = dec("0.7")
	maxCeilingRatio = dec("1.1")
)

// Compose applies the cumulative multiplier to the base band and derives the
// min/max spread from the confidence interval. The min is floored at 70% of
// the base low and the max lifted to at least 110% of the base high, then
// both are clamped so ordering always holds.
func Compose(base BaseYield, cumulative, confidencePercent, area decimal.Decimal) Composition {
	expected := base.Expected.Mul(cumulative).Round(2)

	confidence := confidencePercent.DivRound(hundred, 4)
	spread := base.Expected.Sub(base.Low).Mul(confidence)

	min := decimal.Max(expected.Sub(spread), base.Low.Mul(minFloorRatio)).Round(2)
	max := decimal.Max(expected.Add(spread), base.High.Mul(maxCeilingRatio)).Round(2)

	if min.Cmp(expected) > 0 {
		min = expected
	}
	if max.Cmp(expected) < 0 {
		max = expected
	}

	return Composition{
		MinPerAcre:      min,
		ExpectedPerAcre: expected,
		MaxPerAcre:      max,

		MinTotal:      min.Mul(area).Round(2),
		ExpectedTotal: expected.Mul(area).Round(2),
		MaxTotal:      max.Mul(area).Round(2),
	}
}
