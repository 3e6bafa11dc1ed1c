package mandi

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

// APIClient fetches current mandi prices from the mandi service. It satisfies
// engine.PriceProvider; failures are returned to the engine, which degrades
// the financial projection instead of failing the estimate.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a mandi price client from the provider configuration.
func NewClient(cfg config.ProviderConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	return &APIClient{httpClient: restyClient}
}

type priceResponse struct {
	Prices []struct {
		ModalPrice decimal.Decimal `json:"modalPrice"`
		MinPrice   decimal.Decimal `json:"minPrice"`
		MaxPrice   decimal.Decimal `json:"maxPrice"`
	} `json:"prices"`
}

// CurrentPrice returns the latest modal/min/max price band for a commodity.
func (c *APIClient) CurrentPrice(ctx context.Context, commodity string) (engine.PriceQuote, error) {
	result := new(priceResponse)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(result).
		SetPathParam("commodity", strings.ToUpper(strings.TrimSpace(commodity))).
		Get("/api/v1/mandi/prices/{commodity}")
	if err != nil {
		return engine.PriceQuote{}, fmt.Errorf("fetch mandi price: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		return engine.PriceQuote{}, fmt.Errorf("mandi api error: status=%d", resp.StatusCode())
	}

	if len(result.Prices) == 0 {
		return engine.PriceQuote{}, fmt.Errorf("no prices available for commodity %s", commodity)
	}

	latest := result.Prices[0]
	return engine.PriceQuote{
		Modal:  latest.ModalPrice,
		Min:    latest.MinPrice,
		Max:    latest.MaxPrice,
		Source: "AGMARKNET",
	}, nil
}
