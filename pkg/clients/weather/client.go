package weather

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"

	"github.com/krishimitra/yield-service/internal/config"
	"github.com/krishimitra/yield-service/internal/engine"
)

// APIClient fetches season weather aggregates from the weather service. It
// satisfies engine.WeatherProvider; a failure leaves the weather factor
// neutral rather than failing the estimate.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a weather client from the provider configuration.
func NewClient(cfg config.ProviderConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{httpClient: restyClient}
}

type seasonResponse struct {
	TotalRainfallMm           decimal.Decimal `json:"totalRainfallMm"`
	AverageTemperatureCelsius decimal.Decimal `json:"averageTemperatureCelsius"`
	ExtremeWeatherEvents      int             `json:"extremeWeatherEvents"`
}

// SeasonSummary returns cumulative rainfall, average temperature, and the
// extreme weather event count for a location's current season.
func (c *APIClient) SeasonSummary(ctx context.Context, location string) (engine.WeatherSummary, error) {
	result := new(seasonResponse)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetQueryParam("location", location).
		Get("/api/v1/weather/season")
	if err != nil {
		return engine.WeatherSummary{}, fmt.Errorf("fetch season weather: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return engine.WeatherSummary{}, fmt.Errorf("weather api error: status=%d", resp.StatusCode())
	}

	return engine.WeatherSummary{
		TotalRainfallMm:     result.TotalRainfallMm,
		AverageTemperatureC: result.AverageTemperatureCelsius,
		ExtremeEventCount:   result.ExtremeWeatherEvents,
	}, nil
}
