package handlers

import (
	"net/http"
	"strconv"

	"risk-backend/internal/predict"

	"github.com/gin-gonic/gin"
)

// PersonRisks returns the composite breakdown for every person.
func (a *API) PersonRisks(c *gin.Context) {
	risks, err := a.Manager.AllPersonRisks(c.Request.Context(), attackTypeQuery(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, risks)
}

// PersonDetails returns one person's breakdown.
func (a *API) PersonDetails(c *gin.Context) {
	personID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid person id"})
		return
	}

	details, err := a.Manager.PersonDetails(c.Request.Context(), personID, attackTypeQuery(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	if details == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "person not found"})
		return
	}
	c.JSON(http.StatusOK, details)
}

type predictRequest struct {
	Attributes []float64 `json:"attributes" binding:"required"`
	AttackType string    `json:"attack_type"`
}

// PredictRisk passes a raw attribute vector to the model.
func (a *API) PredictRisk(c *gin.Context) {
	var req predictRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Attributes) != predict.AttributeCount {
		c.JSON(http.StatusBadRequest, gin.H{"error": "'attributes' must be a list of 6 numbers"})
		return
	}
	if req.AttackType == "" {
		req.AttackType = defaultAttackType
	}

	var attrs [predict.AttributeCount]float64
	copy(attrs[:], req.Attributes)

	prob, err := a.Manager.PredictRisk(c.Request.Context(), attrs, req.AttackType)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"predicted_risk": prob})
}

// AnomalyAlerts returns the breakdowns flagged anomalous by the external
// detector.
func (a *API) AnomalyAlerts(c *gin.Context) {
	contamination := defaultContamination
	if raw := c.Query("contamination"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v >= 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "contamination must be in (0, 1)"})
			return
		}
		contamination = v
	}

	alerts, err := a.Manager.AnomalyAlerts(c.Request.Context(), attackTypeQuery(c), contamination)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, alerts)
}
