package server

import (
	"net/http"

	"risk-backend/internal/handlers"
	"risk-backend/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func NewRouter(api *handlers.API, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics())
	r.Use(middleware.CORS())

	// RISK ANALYTICS
	r.GET("/api/person_risks", api.PersonRisks)
	r.GET("/api/person_details/:id", api.PersonDetails)
	r.POST("/api/predict_risk", api.PredictRisk)
	r.GET("/api/anomaly_alerts", api.AnomalyAlerts)

	// GRAPH AND DIAGRAM
	r.GET("/api/graph", api.Graph)
	r.GET("/api/diagram", api.Diagram)

	// SIMULATION
	r.POST("/api/simulate_attack", api.SimulateAttack)
	r.POST("/api/simulate_flow", api.SimulateFlow)
	r.GET("/ws/simulation", api.SimulationSocket)

	// HR STORE PASS-THROUGH
	r.GET("/api/persons", api.Persons)
	r.GET("/api/entities", api.Entities)
	r.GET("/api/relationships", api.Relationships)
	r.GET("/api/clustering", api.Clustering)
	r.DELETE("/api/persons/:id", api.DeletePerson)
	r.DELETE("/api/entities/:id", api.DeleteEntity)
	r.POST("/api/clear_cache", api.ClearCache)

	// OPERATIONAL
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	return r
}
