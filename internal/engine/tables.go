package engine

import (
	"github.com/shopspring/decimal"

	"github.com/krishimitra/yield-service/internal/domain/models"
)

// BaseYield is the crop-type reference yield band in quintals per acre.
// Invariant: 0 < Low <= Expected <= High.
type BaseYield struct {
	Low      decimal.Decimal
	Expected decimal.Decimal
	High     decimal.Decimal
}

// Tables holds the static reference data the model is built on. It is
// constructed once at startup and must never be mutated afterwards; the
// engine only ever reads from it.
type Tables struct {
	BaseYields       map[string]BaseYield
	DefaultBaseYield BaseYield

	StageMultipliers      map[models.GrowthStage]decimal.Decimal
	IrrigationMultipliers map[models.IrrigationType]decimal.Decimal

	OptimalRainfallMm   decimal.Decimal
	OptimalTemperatureC decimal.Decimal
	ExtremeEventPenalty decimal.Decimal

	OptimalNitrogenKgHa   decimal.Decimal
	OptimalPhosphorusKgHa decimal.Decimal
	OptimalPotassiumKgHa  decimal.Decimal
	OptimalPh             decimal.Decimal

	PestIncidentPenalty    decimal.Decimal
	DiseaseIncidentPenalty decimal.Decimal
}

// Params carries the tunable model thresholds. Kept separate from Tables so
// deployments can adjust behaviour without touching reference data.
type Params struct {
	ModelVersion              string
	ConfidenceIntervalPercent decimal.Decimal
	SignificantDeviationPct   decimal.Decimal
	NeutralVarianceBandPct    decimal.Decimal
	CostPerQuintal            decimal.Decimal
	DefaultModalPrice         decimal.Decimal
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// DefaultTables returns the reference data the production model ships with.
// Yields are quintals per acre.
func DefaultTables() Tables {
	return Tables{
		BaseYields: map[string]BaseYield{
			"RICE":      {dec("15"), dec("25"), dec("35")},
			"WHEAT":     {dec("12"), dec("20"), dec("28")},
			"COTTON":    {dec("8"), dec("15"), dec("22")},
			"SOYBEAN":   {dec("8"), dec("12"), dec("18")},
			"GROUNDNUT": {dec("10"), dec("15"), dec("22")},
			"MUSTARD":   {dec("6"), dec("10"), dec("15")},
			"PULSES":    {dec("5"), dec("8"), dec("12")},
			"MAIZE":     {dec("18"), dec("28"), dec("40")},
			"SUGARCANE": {dec("250"), dec("350"), dec("450")},
			"POTATO":    {dec("80"), dec("120"), dec("160")},
			"ONION":     {dec("100"), dec("150"), dec("200")},
			"TOMATO":    {dec("120"), dec("180"), dec("250")},
		},
		DefaultBaseYield: BaseYield{dec("15"), dec("25"), dec("35")},

		StageMultipliers: map[models.GrowthStage]decimal.Decimal{
			models.StageSowing:      dec("0.95"),
			models.StageGermination: dec("0.90"),
			models.StageVegetative:  dec("0.85"),
			models.StageFlowering:   dec("0.80"),
			models.StageFruiting:    dec("0.85"),
			models.StageMaturation:  dec("0.90"),
			models.StageHarvest:     dec("1.00"),
		},

		IrrigationMultipliers: map[models.IrrigationType]decimal.Decimal{
			models.IrrigationRainfed:   dec("0.85"),
			models.IrrigationDrip:      dec("1.15"),
			models.IrrigationSprinkler: dec("1.10"),
			models.IrrigationCanal:     dec("1.05"),
			models.IrrigationBorewell:  dec("1.08"),
		},

		OptimalRainfallMm:   dec("500"),
		OptimalTemperatureC: dec("28"),
		ExtremeEventPenalty: dec("0.15"),

		OptimalNitrogenKgHa:   dec("280"),
		OptimalPhosphorusKgHa: dec("10"),
		OptimalPotassiumKgHa:  dec("108"),
		OptimalPh:             dec("6.5"),

		PestIncidentPenalty:    dec("0.05"),
		DiseaseIncidentPenalty: dec("0.08"),
	}
}

// DefaultParams returns the production thresholds.
func DefaultParams() Params {
	return Params{
		ModelVersion:              "1.0.0",
		ConfidenceIntervalPercent: dec("85"),
		SignificantDeviationPct:   dec("10"),
		NeutralVarianceBandPct:    dec("10"),
		CostPerQuintal:            dec("500"),
		DefaultModalPrice:         dec("2000"),
	}
}

// BaseYieldFor resolves the reference band for a crop name, falling back to
// the default band for unknown crops.
func (t Tables) BaseYieldFor(cropName string) BaseYield {
	if b, ok := t.BaseYields[normalizeCrop(cropName)]; ok {
		return b
	}
	return t.DefaultBaseYield
}
