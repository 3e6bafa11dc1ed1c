package alerts

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/krishimitra/yield-service/internal/config"
)

// Client dispatches yield-deviation alerts to the notification service.
type Client interface {
	SendDeviationAlert(ctx context.Context, req DeviationAlertRequest) error
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a notification-service client using the provided
// configuration values.
func NewClient(cfg config.AlertsConfig) *APIClient {
	restyClient := resty.New()
	restyClient.
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)

	if cfg.APIToken != "" {
		restyClient.SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIToken))
	}

	return &APIClient{httpClient: restyClient}
}

// DeviationAlertRequest describes one significant-deviation notification.
type DeviationAlertRequest struct {
	FarmerID         string `json:"farmerId"`
	CropInstanceID   string `json:"cropInstanceId"`
	PredictionID     string `json:"predictionId"`
	Title            string `json:"title"`
	Message          string `json:"message"`
	DeviationPercent string `json:"deviationPercent"`
}

// apiError represents a notification-service error payload.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// SendDeviationAlert posts the alert to the notification service.
func (c *APIClient) SendDeviationAlert(ctx context.Context, req DeviationAlertRequest) error {
	apiErr := new(apiError)

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(req).
		SetError(apiErr).
		Post("/api/v1/notifications")
	if err != nil {
		return fmt.Errorf("send deviation alert: %w", err)
	}

	if resp.StatusCode() >= http.StatusBadRequest {
		message := apiErr.Error.Message
		code := resp.StatusCode()
		if apiErr.Error.Code != 0 {
			code = apiErr.Error.Code
		}
		return fmt.Errorf("notification api error: code=%d, message=%s", code, message)
	}

	return nil
}
