package engine

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/krishimitra/yield-service/internal/domain/models"
)

// PriceQuote is a mandi price band for a commodity, rupees per quintal.
type PriceQuote struct {
	Modal  decimal.Decimal
	Min    decimal.Decimal
	Max    decimal.Decimal
	Source string
}

// PriceProvider looks up current commodity prices. Failures degrade the
// financial projection to default prices rather than failing the estimate.
type PriceProvider interface {
	CurrentPrice(ctx context.Context, commodity string) (PriceQuote, error)
}

var (
	fallbackMinRatio = dec("0.9")
	fallbackMaxRatio = dec("1.1")
)

// ProjectFinancials converts a total yield band into revenue, profit, and ROI
// estimates. A nil quote means the price provider was unavailable; the
// projection then uses the default modal price and is marked degraded.
// Cost is a flat per-quintal input cost placeholder until a real cost model
// exists; profit = revenue - cost holds for each band, and ROI is zero rather
// than undefined when cost is zero.
func ProjectFinancials(p Params, cropName string, minYield, expectedYield, maxYield decimal.Decimal, quote *PriceQuote) models.FinancialProjection {
	degraded := quote == nil
	if degraded {
		modal := p.DefaultModalPrice
		quote = &PriceQuote{
			Modal:  modal,
			Min:    modal.Mul(fallbackMinRatio),
			Max:    modal.Mul(fallbackMaxRatio),
			Source: "FALLBACK",
		}
	}

	minRevenue := minYield.Mul(quote.Min).Round(0)
	expectedRevenue := expectedYield.Mul(quote.Modal).Round(0)
	maxRevenue := maxYield.Mul(quote.Max).Round(0)

	costs := expectedYield.Mul(p.CostPerQuintal).Round(0)

	minProfit := minRevenue.Sub(costs)
	expectedProfit := expectedRevenue.Sub(costs)
	maxProfit := maxRevenue.Sub(costs)

	roi := decimal.Zero
	if costs.Sign() > 0 {
		roi = expectedProfit.Mul(hundred).DivRound(costs, 2)
	}

	advisory := "monitor"
	reason := "Monitor prices and sell when trends indicate improvement"
	if degraded {
		reason = "Price data unavailable - please check local mandi prices"
	}

	return models.FinancialProjection{
		CommodityName:          cropName,
		EstimatedYieldQuintals: expectedYield,

		CurrentPricePerQuintal: quote.Modal,
		MinPricePerQuintal:     quote.Min,
		MaxPricePerQuintal:     quote.Max,
		PriceSource:            quote.Source,

		EstimatedRevenueMin:      minRevenue,
		EstimatedRevenueExpected: expectedRevenue,
		EstimatedRevenueMax:      maxRevenue,

		TotalEstimatedCosts:     costs,
		EstimatedProfitMin:      minProfit,
		EstimatedProfitExpected: expectedProfit,
		EstimatedProfitMax:      maxProfit,
		EstimatedRoiPercent:     roi,

		MarketAdvisory: advisory,
		AdvisoryReason: reason,
		Degraded:       degraded,
	}
}
