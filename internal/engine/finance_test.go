package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestProjectFinancials(t *testing.T) {
	params := DefaultParams()
	minYield := decimal.RequireFromString("23")
	expectedYield := decimal.RequireFromString("40")
	maxYield := decimal.RequireFromString("77")

	t.Run("live quote", func(t *testing.T) {
		quote := &PriceQuote{
			Modal:  decimal.RequireFromString("2250"),
			Min:    decimal.RequireFromString("2000"),
			Max:    decimal.RequireFromString("2400"),
			Source: "AGMARKNET",
		}

		proj := ProjectFinancials(params, "RICE", minYield, expectedYield, maxYield, quote)

		assert.Equal(t, "RICE", proj.CommodityName)
		assert.Equal(t, "AGMARKNET", proj.PriceSource)
		assert.False(t, proj.Degraded)

		assertDec(t, "46000", proj.EstimatedRevenueMin)
		assertDec(t, "90000", proj.EstimatedRevenueExpected)
		assertDec(t, "184800", proj.EstimatedRevenueMax)

		assertDec(t, "20000", proj.TotalEstimatedCosts)
		assertDec(t, "26000", proj.EstimatedProfitMin)
		assertDec(t, "70000", proj.EstimatedProfitExpected)
		assertDec(t, "164800", proj.EstimatedProfitMax)
		assertDec(t, "350.00", proj.EstimatedRoiPercent)
	})

	t.Run("missing quote degrades to default prices", func(t *testing.T) {
		proj := ProjectFinancials(params, "RICE", minYield, expectedYield, maxYield, nil)

		assert.True(t, proj.Degraded)
		assert.Equal(t, "FALLBACK", proj.PriceSource)
		assert.Equal(t, "Price data unavailable - please check local mandi prices", proj.AdvisoryReason)

		assertDec(t, "2000", proj.CurrentPricePerQuintal)
		assertDec(t, "1800", proj.MinPricePerQuintal)
		assertDec(t, "2200", proj.MaxPricePerQuintal)

		assertDec(t, "41400", proj.EstimatedRevenueMin)
		assertDec(t, "80000", proj.EstimatedRevenueExpected)
		assertDec(t, "169400", proj.EstimatedRevenueMax)
		assertDec(t, "300.00", proj.EstimatedRoiPercent)
	})

	t.Run("profit equals revenue minus cost on every band", func(t *testing.T) {
		proj := ProjectFinancials(params, "WHEAT", minYield, expectedYield, maxYield, nil)

		assertDec(t, proj.EstimatedRevenueMin.Sub(proj.TotalEstimatedCosts).String(), proj.EstimatedProfitMin)
		assertDec(t, proj.EstimatedRevenueExpected.Sub(proj.TotalEstimatedCosts).String(), proj.EstimatedProfitExpected)
		assertDec(t, proj.EstimatedRevenueMax.Sub(proj.TotalEstimatedCosts).String(), proj.EstimatedProfitMax)
	})

	t.Run("zero cost yields zero roi rather than dividing", func(t *testing.T) {
		free := params
		free.CostPerQuintal = decimal.Zero

		proj := ProjectFinancials(free, "RICE", minYield, expectedYield, maxYield, nil)

		assert.True(t, proj.TotalEstimatedCosts.IsZero())
		assert.True(t, proj.EstimatedRoiPercent.IsZero())
	})
}
