package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, got.Equal(decimal.RequireFromString(want)), "want %s, got %s", want, got.String())
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func intPtr(v int) *int { return &v }

func TestGrowthStageMultiplier(t *testing.T) {
	tables := DefaultTables()

	tests := []struct {
		name      string
		stage     string
		want      string
		wantNotes int
	}{
		{name: "missing stage is neutral", stage: "", want: "1", wantNotes: 0},
		{name: "flowering", stage: "FLOWERING", want: "0.80", wantNotes: 1},
		{name: "lowercase is normalized", stage: "flowering", want: "0.80", wantNotes: 1},
		{name: "sowing", stage: "SOWING", want: "0.95", wantNotes: 1},
		{name: "harvest is neutral without a note", stage: "HARVEST", want: "1.00", wantNotes: 0},
		{name: "unknown stage is neutral", stage: "DORMANT", want: "1", wantNotes: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, notes := GrowthStageMultiplier(tables, tt.stage)
			assertDec(t, tt.want, m)
			assert.Len(t, notes, tt.wantNotes)
		})
	}
}

func TestGrowthStageMultiplierNoteFormat(t *testing.T) {
	m, notes := GrowthStageMultiplier(DefaultTables(), "FLOWERING")

	assertDec(t, "0.80", m)
	require.Len(t, notes, 1)
	assert.Equal(t, "Growth Stage: FLOWERING", notes[0].Considered)
	assert.Equal(t, "Growth stage adjustment: -20.0%", notes[0].Adjustment)
}

func TestWeatherMultiplier(t *testing.T) {
	tables := DefaultTables()

	t.Run("no observations is neutral", func(t *testing.T) {
		m, notes := WeatherMultiplier(tables, WeatherInput{})
		assertDec(t, "1", m)
		assert.Empty(t, notes)
	})

	t.Run("rainfall deficit penalizes proportionally", func(t *testing.T) {
		m, notes := WeatherMultiplier(tables, WeatherInput{TotalRainfallMm: decPtr("300")})
		assertDec(t, "0.96", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Rainfall: 300mm", notes[0].Considered)
		assert.Equal(t, "Below optimal rainfall (300mm): -4.0%", notes[0].Adjustment)
	})

	t.Run("rainfall surplus bonus is capped but the note reports the raw adjustment", func(t *testing.T) {
		m, notes := WeatherMultiplier(tables, WeatherInput{TotalRainfallMm: decPtr("1200")})
		assertDec(t, "1.1", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Above optimal rainfall (1200mm): +14.0%", notes[0].Adjustment)
	})

	t.Run("optimal rainfall adds nothing", func(t *testing.T) {
		m, notes := WeatherMultiplier(tables, WeatherInput{TotalRainfallMm: decPtr("500")})
		assertDec(t, "1", m)
		assert.Empty(t, notes)
	})

	t.Run("temperature deviation always penalizes", func(t *testing.T) {
		m, notes := WeatherMultiplier(tables, WeatherInput{AverageTemperatureC: decPtr("42")})
		assertDec(t, "0.925", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Temperature deviation (14.0°C): -7.5%", notes[0].Adjustment)
	})

	t.Run("extreme events are capped at thirty percent", func(t *testing.T) {
		m, notes := WeatherMultiplier(tables, WeatherInput{ExtremeEventCount: 3})
		assertDec(t, "0.70", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Extreme Weather Events: 3", notes[0].Considered)
		assert.Equal(t, "Extreme weather events (3): -30.0%", notes[0].Adjustment)
	})

	t.Run("combined penalties never drop below the floor", func(t *testing.T) {
		m, notes := WeatherMultiplier(tables, WeatherInput{
			TotalRainfallMm:     decPtr("0"),
			AverageTemperatureC: decPtr("80"),
			ExtremeEventCount:   3,
		})
		assertDec(t, "0.5", m)
		assert.Len(t, notes, 3)
	})
}

func TestSoilMultiplier(t *testing.T) {
	tables := DefaultTables()

	t.Run("no readings is neutral", func(t *testing.T) {
		m, notes := SoilMultiplier(tables, SoilInput{})
		assertDec(t, "1", m)
		assert.Empty(t, notes)
	})

	t.Run("nutrient shortfalls stack by weight", func(t *testing.T) {
		m, notes := SoilMultiplier(tables, SoilInput{
			NitrogenKgHa:   decPtr("140"),
			PhosphorusKgHa: decPtr("5"),
			PotassiumKgHa:  decPtr("54"),
		})
		assertDec(t, "0.775", m)
		require.Len(t, notes, 3)
		assert.Equal(t, "Soil nitrogen (140 kg/ha): -10.0%", notes[0].Adjustment)
		assert.Equal(t, "Soil phosphorus (5 kg/ha): -7.5%", notes[1].Adjustment)
		assert.Equal(t, "Soil potassium (54 kg/ha): -5.0%", notes[2].Adjustment)
	})

	t.Run("surplus nutrients are never rewarded", func(t *testing.T) {
		m, notes := SoilMultiplier(tables, SoilInput{NitrogenKgHa: decPtr("400")})
		assertDec(t, "1", m)
		assert.Empty(t, notes)
	})

	t.Run("ph inside the band is neutral", func(t *testing.T) {
		m, notes := SoilMultiplier(tables, SoilInput{Ph: decPtr("7.0")})
		assertDec(t, "1", m)
		assert.Empty(t, notes)
	})

	t.Run("ph outside the band penalizes per point of deviation", func(t *testing.T) {
		m, notes := SoilMultiplier(tables, SoilInput{Ph: decPtr("7.5")})
		assertDec(t, "0.9", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Soil pH: 7.5", notes[0].Considered)
		assert.Equal(t, "Soil pH deviation (1.0): -10.0%", notes[0].Adjustment)
	})

	t.Run("ph penalty is capped", func(t *testing.T) {
		m, _ := SoilMultiplier(tables, SoilInput{Ph: decPtr("10")})
		assertDec(t, "0.85", m)
	})

	t.Run("depleted soil never drops below the floor", func(t *testing.T) {
		m, _ := SoilMultiplier(tables, SoilInput{
			NitrogenKgHa:   decPtr("0"),
			PhosphorusKgHa: decPtr("0"),
			PotassiumKgHa:  decPtr("0"),
			Ph:             decPtr("10"),
		})
		assertDec(t, "0.6", m)
	})
}

func TestIrrigationMultiplier(t *testing.T) {
	tables := DefaultTables()

	t.Run("missing type is neutral", func(t *testing.T) {
		m, notes := IrrigationMultiplier(tables, IrrigationInput{})
		assertDec(t, "1", m)
		assert.Empty(t, notes)
	})

	t.Run("drip rewards", func(t *testing.T) {
		m, notes := IrrigationMultiplier(tables, IrrigationInput{Type: "drip"})
		assertDec(t, "1.15", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Irrigation: DRIP", notes[0].Considered)
		assert.Equal(t, "Irrigation type (DRIP): +15.0%", notes[0].Adjustment)
	})

	t.Run("rainfed penalizes", func(t *testing.T) {
		m, notes := IrrigationMultiplier(tables, IrrigationInput{Type: "RAINFED"})
		assertDec(t, "0.85", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Irrigation type (RAINFED): -15.0%", notes[0].Adjustment)
	})

	t.Run("frequent watering earns a bonus on top", func(t *testing.T) {
		m, notes := IrrigationMultiplier(tables, IrrigationInput{Type: "DRIP", FrequencyPerWeek: intPtr(3)})
		assertDec(t, "1.2075", m)
		require.Len(t, notes, 2)
		assert.Equal(t, "Irrigation Frequency: 3/week", notes[1].Considered)
		assert.Equal(t, "High irrigation frequency: +5.0%", notes[1].Adjustment)
	})

	t.Run("missing type still honors the frequency bonus", func(t *testing.T) {
		m, notes := IrrigationMultiplier(tables, IrrigationInput{FrequencyPerWeek: intPtr(5)})
		assertDec(t, "1.05", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Irrigation Frequency: 5/week", notes[0].Considered)
		assert.Equal(t, "High irrigation frequency: +5.0%", notes[0].Adjustment)
	})

	t.Run("unknown type still honors the frequency bonus", func(t *testing.T) {
		m, notes := IrrigationMultiplier(tables, IrrigationInput{Type: "FLOOD", FrequencyPerWeek: intPtr(4)})
		assertDec(t, "1.05", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Irrigation Frequency: 4/week", notes[0].Considered)
	})

	t.Run("infrequent watering earns no bonus", func(t *testing.T) {
		m, notes := IrrigationMultiplier(tables, IrrigationInput{Type: "CANAL", FrequencyPerWeek: intPtr(2)})
		assertDec(t, "1.05", m)
		assert.Len(t, notes, 1)
	})
}

func TestPestDiseaseMultiplier(t *testing.T) {
	tables := DefaultTables()

	t.Run("no pressure is neutral", func(t *testing.T) {
		m, notes := PestDiseaseMultiplier(tables, PestDiseaseInput{})
		assertDec(t, "1", m)
		assert.Empty(t, notes)
	})

	t.Run("pest incidents penalize per incident", func(t *testing.T) {
		m, notes := PestDiseaseMultiplier(tables, PestDiseaseInput{PestIncidentCount: 2})
		assertDec(t, "0.90", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Pest Incidents: 2", notes[0].Considered)
		assert.Equal(t, "Pest incidents (2): -10.0%", notes[0].Adjustment)
	})

	t.Run("pest penalty is capped before doubling", func(t *testing.T) {
		m, notes := PestDiseaseMultiplier(tables, PestDiseaseInput{PestIncidentCount: 6, ControlStatus: "ongoing"})
		assertDec(t, "0.50", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Pest incidents (6): -50.0%", notes[0].Adjustment)
	})

	t.Run("disease incidents penalize harder", func(t *testing.T) {
		m, notes := PestDiseaseMultiplier(tables, PestDiseaseInput{DiseaseIncidentCount: 2})
		assertDec(t, "0.84", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Disease incidents (2): -16.0%", notes[0].Adjustment)
	})

	t.Run("affected area penalizes by fraction", func(t *testing.T) {
		m, notes := PestDiseaseMultiplier(tables, PestDiseaseInput{AffectedAreaPercent: decPtr("50")})
		assertDec(t, "0.85", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Affected Area: 50%", notes[0].Considered)
		assert.Equal(t, "Affected area (50.0%): -15.0%", notes[0].Adjustment)
	})

	t.Run("severe combined pressure never drops below the floor", func(t *testing.T) {
		m, notes := PestDiseaseMultiplier(tables, PestDiseaseInput{
			PestIncidentCount:    6,
			DiseaseIncidentCount: 5,
			ControlStatus:        "severe",
			AffectedAreaPercent:  decPtr("100"),
		})
		assertDec(t, "0.4", m)
		assert.Len(t, notes, 3)
	})
}

func TestHistoricalMultiplier(t *testing.T) {
	base := DefaultTables().BaseYieldFor("RICE")

	t.Run("no history is neutral", func(t *testing.T) {
		m, notes := HistoricalMultiplier(base, decimal.Zero, "RICE")
		assertDec(t, "1", m)
		assert.Empty(t, notes)
	})

	t.Run("ratio inside the band applies silently", func(t *testing.T) {
		m, notes := HistoricalMultiplier(base, decimal.RequireFromString("30"), "RICE")
		assertDec(t, "1.2", m)
		assert.Empty(t, notes)
	})

	t.Run("band edges apply silently", func(t *testing.T) {
		m, notes := HistoricalMultiplier(base, decimal.RequireFromString("20"), "RICE")
		assertDec(t, "0.8", m)
		assert.Empty(t, notes)
	})

	t.Run("strong history surfaces a note", func(t *testing.T) {
		m, notes := HistoricalMultiplier(base, decimal.RequireFromString("32.5"), "RICE")
		assertDec(t, "1.3", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Historical Data: Based on your RICE records", notes[0].Considered)
		assert.Equal(t, "Historical yield adjustment: +30.0%", notes[0].Adjustment)
	})

	t.Run("weak history surfaces a note", func(t *testing.T) {
		m, notes := HistoricalMultiplier(base, decimal.RequireFromString("10"), "RICE")
		assertDec(t, "0.4", m)
		require.Len(t, notes, 1)
		assert.Equal(t, "Historical yield adjustment: -60.0%", notes[0].Adjustment)
	})
}
