package handlers

import (
	"context"
	"net/http"

	"risk-backend/internal/bpmn"
	"risk-backend/internal/risk"
	"risk-backend/internal/simulation"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type flowAttack struct {
	Type      string   `json:"type"`
	TargetID  string   `json:"target_id"`
	Threshold *float64 `json:"threshold"`
}

type flowRequest struct {
	BpmnXML string     `json:"bpmn_xml" binding:"required"`
	StartID string     `json:"start_id" binding:"required"`
	EndID   string     `json:"end_id" binding:"required"`
	Attack  flowAttack `json:"attack"`
}

func (r *flowRequest) attackType() string {
	if r.Attack.Type != "" {
		return r.Attack.Type
	}
	return defaultAttackType
}

func (r *flowRequest) threshold() float64 {
	if r.Attack.Threshold != nil {
		return *r.Attack.Threshold
	}
	return defaultThreshold
}

// buildRun assembles everything a path simulation needs: the flow graph
// from the posted diagram, the read-only risk/name/breakdown tables, and
// the anomaly alerts over the current person scores. Anomaly detection is
// best-effort here; a failed detector degrades to no alerts.
func (a *API) buildRun(ctx context.Context, req *flowRequest) (*simulation.Run, error) {
	flow, err := bpmn.ParseFlow([]byte(req.BpmnXML))
	if err != nil {
		return nil, err
	}

	risks, err := a.Manager.AllPersonRisks(ctx, req.attackType())
	if err != nil {
		return nil, err
	}
	entities, err := a.Manager.Proxy().Entities(ctx)
	if err != nil {
		return nil, err
	}

	lookup := &simulation.Lookup{
		Risk:      make(map[string]float64),
		Name:      make(map[string]string),
		Breakdown: make(map[string]any),
	}
	for i := range risks {
		r := &risks[i]
		id := bpmn.FlowNodeID(risk.PersonID(r.PersonID))
		lookup.Risk[id] = r.CompositeRisk
		lookup.Name[id] = r.FullName
		lookup.Breakdown[id] = r
	}
	for i := range entities {
		e := &entities[i]
		id := bpmn.FlowNodeID(risk.EntityID(e.ID))
		lookup.Risk[id] = e.RiskScore
		lookup.Name[id] = e.Name
		lookup.Breakdown[id] = e
	}

	scores := make([]float64, len(risks))
	for i, r := range risks {
		scores[i] = r.CompositeRisk
	}
	var alerts []simulation.AnomalyAlert
	indices, err := a.Detector.Detect(ctx, scores, defaultContamination)
	if err != nil {
		a.Log.Warn("anomaly detection degraded to empty", zap.Error(err))
	} else {
		for _, i := range indices {
			alerts = append(alerts, simulation.AnomalyAlert{
				PersonID:      risks[i].PersonID,
				FullName:      risks[i].FullName,
				CompositeRisk: risks[i].CompositeRisk,
			})
		}
	}

	return simulation.NewRun(flow, req.StartID, req.EndID, req.threshold(),
		lookup, alerts, a.Generator, a.StepDelay, a.Log), nil
}

// SimulateFlow is the synchronous variant: it walks the path without
// pacing and returns the collected steps with the terminal summary.
func (a *API) SimulateFlow(c *gin.Context) {
	var req flowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bpmn_xml, start_id and end_id are required"})
		return
	}

	run, err := a.buildRun(c.Request.Context(), &req)
	if err != nil {
		a.fail(c, err)
		return
	}
	run = run.WithDelay(0)

	var steps []simulation.StepEvent
	complete, err := run.Execute(c.Request.Context(), func(env simulation.Envelope) error {
		if step, ok := env.Data.(simulation.StepEvent); ok {
			steps = append(steps, step)
		}
		return nil
	})
	if err != nil {
		a.fail(c, err)
		return
	}
	if steps == nil {
		steps = []simulation.StepEvent{}
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":         run.ID,
		"steps":          steps,
		"compromised":    complete.Compromised,
		"anomalies":      complete.Anomalies,
		"recommendation": complete.Recommendation,
	})
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SimulationSocket is the streaming variant: the client connects, sends
// one flowRequest, and receives the run's ordered events on the same
// socket. A dropped connection cancels the run before its next event; no
// terminal event follows a cancellation.
func (a *API) SimulationSocket(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		a.Log.Error("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	var req flowRequest
	if err := ws.ReadJSON(&req); err != nil {
		a.Log.Info("websocket client sent invalid request", zap.Error(err))
		return
	}
	if req.BpmnXML == "" || req.StartID == "" || req.EndID == "" {
		_ = ws.WriteJSON(gin.H{"error": "bpmn_xml, start_id and end_id are required"})
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	run, err := a.buildRun(ctx, &req)
	if err != nil {
		_ = ws.WriteJSON(gin.H{"error": err.Error()})
		return
	}

	// Reader pump: its only job is to notice the peer going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.NextReader(); err != nil {
				return
			}
		}
	}()

	emit := func(env simulation.Envelope) error { return ws.WriteJSON(env) }
	if _, err := run.Execute(ctx, emit); err != nil {
		a.Log.Info("simulation run stopped early",
			zap.String("run_id", run.ID), zap.Error(err))
	}
}
