// Package handlers holds the JSON and websocket endpoints.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"risk-backend/internal/anomaly"
	"risk-backend/internal/predict"
	"risk-backend/internal/recommend"
	"risk-backend/internal/risk"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	defaultAttackType    = "phishing"
	defaultThreshold     = 0.5
	defaultContamination = 0.1
)

// API bundles the dependencies every handler needs.
type API struct {
	Manager   *risk.Manager
	Detector  anomaly.Detector
	Generator recommend.Generator
	StepDelay time.Duration
	Log       *zap.Logger
}

func attackTypeQuery(c *gin.Context) string {
	if v := c.Query("attack_type"); v != "" {
		return v
	}
	return defaultAttackType
}

// fail maps component errors onto the {"error": ...} JSON contract:
// unknown attack types are the caller's fault, everything else is a
// dependency failure.
func (a *API) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, predict.ErrUnknownAttackType) {
		status = http.StatusBadRequest
	}
	if status >= 500 {
		a.Log.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
