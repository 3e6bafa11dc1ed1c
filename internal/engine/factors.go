package engine

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/krishimitra/yield-service/internal/domain/models"
)

// FactorNote describes one non-default adjustment that was applied. The
// Considered and Adjustment strings are kept parallel so callers can zip them.
type FactorNote struct {
	Considered string
	Adjustment string
}

// Penalty rates, caps, and floors for the factor calculators. Each calculator
// enforces its own floor; the cumulative multiplier may only drop below these
// through the product of several factors.
var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	rainfallPenaltyRate    = dec("0.1")
	maxRainfallPenalty     = dec("0.2")
	maxRainfallBonus       = dec("0.1")
	temperaturePenaltyRate = dec("0.15")
	maxTemperaturePenalty  = dec("0.25")
	maxExtremeEventPenalty = dec("0.30")
	weatherFloor           = dec("0.5")

	nitrogenWeight   = dec("0.2")
	phosphorusWeight = dec("0.15")
	potassiumWeight  = dec("0.1")
	phDeviationBand  = dec("0.5")
	phPenaltyRate    = dec("0.1")
	maxPhPenalty     = dec("0.15")
	soilFloor        = dec("0.6")

	maxPestPenalty       = dec("0.25")
	maxDiseasePenalty    = dec("0.30")
	uncontrolledDoubling = decimal.NewFromInt(2)
	affectedAreaRate     = dec("0.3")
	pestDiseaseFloor     = dec("0.4")

	highFrequencyBonus = dec("1.05")

	historicalNoteLow  = dec("0.8")
	historicalNoteHigh = dec("1.2")
)

// highIrrigationFrequency is the per-week watering count that earns the bonus.
const highIrrigationFrequency = 3

func normalizeCrop(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func normalizeStage(stage string) models.GrowthStage {
	return models.GrowthStage(strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(stage)), " ", "_"))
}

func signedPct(d decimal.Decimal) string {
	if d.Sign() >= 0 {
		return "+" + d.StringFixed(1)
	}
	return d.StringFixed(1)
}

// GrowthStageMultiplier looks the stage up in the fixed table. Unknown or
// missing stages are neutral and produce no note.
func GrowthStageMultiplier(t Tables, stage string) (decimal.Decimal, []FactorNote) {
	if stage == "" {
		return one, nil
	}
	m, ok := t.StageMultipliers[normalizeStage(stage)]
	if !ok || m.Equal(one) {
		return one, nil
	}
	return m, []FactorNote{{
		Considered: "Growth Stage: " + stage,
		Adjustment: fmt.Sprintf("Growth stage adjustment: %s%%", m.Mul(hundred).Sub(hundred).StringFixed(1)),
	}}
}

// WeatherInput carries the season's weather observations. Nil fields were not
// observed and do not influence the multiplier.
type WeatherInput struct {
	TotalRainfallMm     *decimal.Decimal
	AverageTemperatureC *decimal.Decimal
	ExtremeEventCount   int
}

// WeatherMultiplier scores rainfall deviation, temperature deviation, and
// extreme weather events. Deficit rainfall penalizes up to a cap, surplus
// rewards up to a smaller cap; temperature deviation always penalizes. The
// result never drops below 0.5.
func WeatherMultiplier(t Tables, in WeatherInput) (decimal.Decimal, []FactorNote) {
	m := one
	var notes []FactorNote

	if in.TotalRainfallMm != nil {
		rain := *in.TotalRainfallMm
		adj := rain.Sub(t.OptimalRainfallMm).Abs().
			DivRound(t.OptimalRainfallMm, 4).
			Mul(rainfallPenaltyRate)

		if rain.Cmp(t.OptimalRainfallMm) < 0 {
			m = m.Sub(decimal.Min(adj, maxRainfallPenalty))
			notes = append(notes, FactorNote{
				Considered: fmt.Sprintf("Rainfall: %smm", rain.String()),
				Adjustment: fmt.Sprintf("Below optimal rainfall (%smm): -%s%%", rain.StringFixed(0), adj.Mul(hundred).StringFixed(1)),
			})
		} else if adj.Sign() > 0 {
			m = m.Add(decimal.Min(adj, maxRainfallBonus))
			notes = append(notes, FactorNote{
				Considered: fmt.Sprintf("Rainfall: %smm", rain.String()),
				Adjustment: fmt.Sprintf("Above optimal rainfall (%smm): +%s%%", rain.StringFixed(0), adj.Mul(hundred).StringFixed(1)),
			})
		}
	}

	if in.AverageTemperatureC != nil {
		temp := *in.AverageTemperatureC
		diff := temp.Sub(t.OptimalTemperatureC).Abs()
		adj := diff.DivRound(t.OptimalTemperatureC, 4).Mul(temperaturePenaltyRate)
		if adj.Sign() > 0 {
			m = m.Sub(decimal.Min(adj, maxTemperaturePenalty))
			notes = append(notes, FactorNote{
				Considered: fmt.Sprintf("Temperature: %s°C", temp.String()),
				Adjustment: fmt.Sprintf("Temperature deviation (%s°C): -%s%%", diff.StringFixed(1), adj.Mul(hundred).StringFixed(1)),
			})
		}
	}

	if in.ExtremeEventCount > 0 {
		penalty := decimal.Min(
			t.ExtremeEventPenalty.Mul(decimal.NewFromInt(int64(in.ExtremeEventCount))),
			maxExtremeEventPenalty)
		m = m.Sub(penalty)
		notes = append(notes, FactorNote{
			Considered: fmt.Sprintf("Extreme Weather Events: %d", in.ExtremeEventCount),
			Adjustment: fmt.Sprintf("Extreme weather events (%d): -%s%%", in.ExtremeEventCount, penalty.Mul(hundred).StringFixed(1)),
		})
	}

	return decimal.Max(m, weatherFloor), notes
}

// SoilInput carries soil health card readings. Nil fields were not measured.
type SoilInput struct {
	NitrogenKgHa   *decimal.Decimal
	PhosphorusKgHa *decimal.Decimal
	PotassiumKgHa  *decimal.Decimal
	Ph             *decimal.Decimal
}

// SoilMultiplier penalizes nutrient shortfall relative to the optimal levels.
// Surplus nutrients are never rewarded. A pH reading further than the band
// from optimal adds a capped penalty. The result never drops below 0.6.
func SoilMultiplier(t Tables, in SoilInput) (decimal.Decimal, []FactorNote) {
	m := one
	var notes []FactorNote

	nutrient := func(value *decimal.Decimal, optimal, weight decimal.Decimal, label, unit string) {
		if value == nil {
			return
		}
		shortfall := decimal.Max(optimal.Sub(*value), decimal.Zero)
		if shortfall.Sign() == 0 {
			return
		}
		adj := shortfall.DivRound(optimal, 4).Mul(weight)
		m = m.Sub(adj)
		notes = append(notes, FactorNote{
			Considered: fmt.Sprintf("Soil %s: %s %s", label, value.String(), unit),
			Adjustment: fmt.Sprintf("Soil %s (%s %s): -%s%%", nutrientName(label), value.String(), unit, adj.Mul(hundred).StringFixed(1)),
		})
	}

	nutrient(in.NitrogenKgHa, t.OptimalNitrogenKgHa, nitrogenWeight, "N", "kg/ha")
	nutrient(in.PhosphorusKgHa, t.OptimalPhosphorusKgHa, phosphorusWeight, "P", "kg/ha")
	nutrient(in.PotassiumKgHa, t.OptimalPotassiumKgHa, potassiumWeight, "K", "kg/ha")

	if in.Ph != nil {
		diff := in.Ph.Sub(t.OptimalPh).Abs()
		if diff.Cmp(phDeviationBand) > 0 {
			adj := diff.Mul(phPenaltyRate)
			m = m.Sub(decimal.Min(adj, maxPhPenalty))
			notes = append(notes, FactorNote{
				Considered: fmt.Sprintf("Soil pH: %s", in.Ph.String()),
				Adjustment: fmt.Sprintf("Soil pH deviation (%s): -%s%%", diff.StringFixed(1), adj.Mul(hundred).StringFixed(1)),
			})
		}
	}

	return decimal.Max(m, soilFloor), notes
}

func nutrientName(label string) string {
	switch label {
	case "N":
		return "nitrogen"
	case "P":
		return "phosphorus"
	case "K":
		return "potassium"
	}
	return label
}

// IrrigationInput carries the watering method and cadence for the instance.
type IrrigationInput struct {
	Type             string
	FrequencyPerWeek *int
}

// IrrigationMultiplier looks the method up in the fixed table; watering three
// or more times a week earns a small bonus on top. A missing method is
// neutral, but the frequency bonus still applies: the caller told us how
// often the field is watered even if not how.
func IrrigationMultiplier(t Tables, in IrrigationInput) (decimal.Decimal, []FactorNote) {
	m := one
	var notes []FactorNote

	if in.Type != "" {
		method := models.IrrigationType(strings.ToUpper(strings.TrimSpace(in.Type)))
		if known, ok := t.IrrigationMultipliers[method]; ok {
			m = known
		}
		if !m.Equal(one) {
			notes = append(notes, FactorNote{
				Considered: "Irrigation: " + string(method),
				Adjustment: fmt.Sprintf("Irrigation type (%s): %s%%", method, signedPct(m.Sub(one).Mul(hundred))),
			})
		}
	}

	if in.FrequencyPerWeek != nil && *in.FrequencyPerWeek >= highIrrigationFrequency {
		m = m.Mul(highFrequencyBonus)
		notes = append(notes, FactorNote{
			Considered: fmt.Sprintf("Irrigation Frequency: %d/week", *in.FrequencyPerWeek),
			Adjustment: "High irrigation frequency: +5.0%",
		})
	}

	return m, notes
}

// PestDiseaseInput carries pest and disease pressure observations.
type PestDiseaseInput struct {
	PestIncidentCount    int
	DiseaseIncidentCount int
	ControlStatus        string
	AffectedAreaPercent  *decimal.Decimal
}

func (in PestDiseaseInput) uncontrolled() bool {
	status := strings.ToLower(strings.TrimSpace(in.ControlStatus))
	return status == "ongoing" || status == "severe"
}

// PestDiseaseMultiplier subtracts a per-incident penalty for pests and
// diseases, capped separately and doubled while control is ongoing or the
// outbreak is severe, plus a penalty proportional to the affected area
// fraction. The result never drops below 0.4.
func PestDiseaseMultiplier(t Tables, in PestDiseaseInput) (decimal.Decimal, []FactorNote) {
	m := one
	var notes []FactorNote

	if in.PestIncidentCount > 0 {
		penalty := decimal.Min(
			t.PestIncidentPenalty.Mul(decimal.NewFromInt(int64(in.PestIncidentCount))),
			maxPestPenalty)
		if in.uncontrolled() {
			penalty = penalty.Mul(uncontrolledDoubling)
		}
		m = m.Sub(penalty)
		notes = append(notes, FactorNote{
			Considered: fmt.Sprintf("Pest Incidents: %d", in.PestIncidentCount),
			Adjustment: fmt.Sprintf("Pest incidents (%d): -%s%%", in.PestIncidentCount, penalty.Mul(hundred).StringFixed(1)),
		})
	}

	if in.DiseaseIncidentCount > 0 {
		penalty := decimal.Min(
			t.DiseaseIncidentPenalty.Mul(decimal.NewFromInt(int64(in.DiseaseIncidentCount))),
			maxDiseasePenalty)
		if in.uncontrolled() {
			penalty = penalty.Mul(uncontrolledDoubling)
		}
		m = m.Sub(penalty)
		notes = append(notes, FactorNote{
			Considered: fmt.Sprintf("Disease Incidents: %d", in.DiseaseIncidentCount),
			Adjustment: fmt.Sprintf("Disease incidents (%d): -%s%%", in.DiseaseIncidentCount, penalty.Mul(hundred).StringFixed(1)),
		})
	}

	if in.AffectedAreaPercent != nil && in.AffectedAreaPercent.Sign() > 0 {
		penalty := in.AffectedAreaPercent.DivRound(hundred, 4).Mul(affectedAreaRate)
		m = m.Sub(penalty)
		notes = append(notes, FactorNote{
			Considered: fmt.Sprintf("Affected Area: %s%%", in.AffectedAreaPercent.String()),
			Adjustment: fmt.Sprintf("Affected area (%s%%): -%s%%", in.AffectedAreaPercent.StringFixed(1), penalty.Mul(hundred).StringFixed(1)),
		})
	}

	return decimal.Max(m, pestDiseaseFloor), notes
}

// HistoricalMultiplier is the ratio of the farmer's historical average actual
// yield per acre to the crop's base expected yield. The ratio is applied
// as-is whenever historical data exists, but it is only surfaced as a factor
// when it leaves the ±20% band around the base expectation. This
// apply-always, report-sometimes asymmetry is deliberate and matches the
// model predictions already on record.
func HistoricalMultiplier(base BaseYield, historicalAvgPerAcre decimal.Decimal, cropName string) (decimal.Decimal, []FactorNote) {
	if historicalAvgPerAcre.Sign() <= 0 {
		return one, nil
	}

	ratio := historicalAvgPerAcre.DivRound(base.Expected, 4)
	if ratio.Cmp(historicalNoteLow) >= 0 && ratio.Cmp(historicalNoteHigh) <= 0 {
		return ratio, nil
	}

	return ratio, []FactorNote{{
		Considered: fmt.Sprintf("Historical Data: Based on your %s records", cropName),
		Adjustment: fmt.Sprintf("Historical yield adjustment: %s%%", signedPct(ratio.Sub(one).Mul(hundred))),
	}}
}
