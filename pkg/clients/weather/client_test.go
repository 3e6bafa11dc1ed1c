package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishimitra/yield-service/internal/config"
)

func TestSeasonSummary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/weather/season", r.URL.Path)
		assert.Equal(t, "Nashik", r.URL.Query().Get("location"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"totalRainfallMm":420.5,"averageTemperatureCelsius":31.2,"extremeWeatherEvents":2}`))
	}))
	defer server.Close()

	client := NewClient(config.ProviderConfig{BaseURL: server.URL})

	summary, err := client.SeasonSummary(context.Background(), "Nashik")

	require.NoError(t, err)
	assert.Equal(t, "420.5", summary.TotalRainfallMm.String())
	assert.Equal(t, "31.2", summary.AverageTemperatureC.String())
	assert.Equal(t, 2, summary.ExtremeEventCount)
}

func TestSeasonSummaryServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(config.ProviderConfig{BaseURL: server.URL})

	_, err := client.SeasonSummary(context.Background(), "Nashik")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=503")
}
