package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"risk-backend/internal/bpmn"
	"risk-backend/internal/risk"

	"github.com/gin-gonic/gin"
)

// Graph returns the node/link view of the risk graph.
func (a *API) Graph(c *gin.Context) {
	view, err := a.Manager.GraphData(c.Request.Context(), attackTypeQuery(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Diagram renders the risk graph as an importable BPMN document.
func (a *API) Diagram(c *gin.Context) {
	view, err := a.Manager.GraphData(c.Request.Context(), attackTypeQuery(c))
	if err != nil {
		a.fail(c, err)
		return
	}
	xml, err := bpmn.RenderDiagram(view)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "application/xml", xml)
}

type simulateRequest struct {
	// InitialNode accepts both the numeric person form (7 or "7") and the
	// entity form ("entity_7").
	InitialNode json.RawMessage `json:"initial_node" binding:"required"`
	AttackType  string          `json:"attack_type"`
	Threshold   *float64        `json:"threshold"`
}

func parseInitialNode(raw json.RawMessage) (risk.NodeID, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return risk.ParseNodeID(s)
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return risk.PersonID(n), nil
	}
	return risk.NodeID{}, fmt.Errorf("initial_node must be a node id or person number")
}

// SimulateAttack runs threshold-gated propagation over the risk graph.
func (a *API) SimulateAttack(c *gin.Context) {
	var req simulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing initial_node parameter"})
		return
	}

	initial, err := parseInitialNode(req.InitialNode)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid initial_node"})
		return
	}

	attackType := req.AttackType
	if attackType == "" {
		attackType = defaultAttackType
	}
	threshold := defaultThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	result, err := a.Manager.SimulateAttack(c.Request.Context(), initial, attackType, threshold)
	if err != nil {
		a.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
