package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/krishimitra/yield-service/internal/domain/models"
	"github.com/krishimitra/yield-service/internal/engine"
)

const defaultFarmerWindowDays = 90

// YieldService describes the engine operations the HTTP layer exposes.
type YieldService interface {
	Estimate(ctx context.Context, req models.YieldEstimateRequest) (*models.YieldEstimateResponse, error)
	RecordActualYield(ctx context.Context, req models.ActualYieldRequest) (*models.VarianceTrackingResponse, error)
	History(ctx context.Context, cropInstanceID string) ([]models.YieldPrediction, error)
	RecentForFarmer(ctx context.Context, farmerID string, since time.Time) ([]models.YieldPrediction, error)
	VarianceSummary(ctx context.Context, cropInstanceID string) (models.VarianceSummary, []models.YieldPrediction, error)
}

// YieldHandler handles yield estimation and variance-tracking HTTP requests.
type YieldHandler struct {
	svc    YieldService
	logger *zap.Logger
}

// NewYieldHandler constructs the HTTP handler adapter.
func NewYieldHandler(svc YieldService, logger *zap.Logger) *YieldHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YieldHandler{svc: svc, logger: logger}
}

// Estimate runs the estimation model and returns the bounded forecast.
func (h *YieldHandler) Estimate(c *gin.Context) {
	var req models.YieldEstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid estimate payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.svc.Estimate(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "failed to generate yield estimate")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// RecordActual records a harvest and returns the variance tracking result.
func (h *YieldHandler) RecordActual(c *gin.Context) {
	var req models.ActualYieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid actual yield payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := h.svc.RecordActualYield(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "failed to record actual yield")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// History returns all predictions for a crop instance, newest first.
func (h *YieldHandler) History(c *gin.Context) {
	predictions, err := h.svc.History(c.Request.Context(), c.Param("cropInstanceId"))
	if err != nil {
		h.respondError(c, err, "failed to load prediction history")
		return
	}
	if predictions == nil {
		predictions = []models.YieldPrediction{}
	}

	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// FarmerPredictions returns a farmer's predictions inside a day window.
func (h *YieldHandler) FarmerPredictions(c *gin.Context) {
	days := defaultFarmerWindowDays
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "days must be a positive integer"})
			return
		}
		days = parsed
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	predictions, err := h.svc.RecentForFarmer(c.Request.Context(), c.Param("farmerId"), since)
	if err != nil {
		h.respondError(c, err, "failed to load farmer predictions")
		return
	}
	if predictions == nil {
		predictions = []models.YieldPrediction{}
	}

	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// VarianceSummary returns the crop instance's model-accuracy feedback.
func (h *YieldHandler) VarianceSummary(c *gin.Context) {
	summary, predictions, err := h.svc.VarianceSummary(c.Request.Context(), c.Param("cropInstanceId"))
	if err != nil {
		h.respondError(c, err, "failed to compute variance summary")
		return
	}
	if predictions == nil {
		predictions = []models.YieldPrediction{}
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary, "predictions": predictions})
}

func (h *YieldHandler) respondError(c *gin.Context, err error, logMessage string) {
	var validationErr *engine.ValidationError
	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
	case errors.Is(err, engine.ErrPredictionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error(logMessage, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": logMessage})
	}
}
