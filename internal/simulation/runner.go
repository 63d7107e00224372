package simulation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"risk-backend/internal/recommend"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Status string

const (
	StatusCompromised Status = "compromised"
	StatusSafe        Status = "safe"
)

// Event names on the wire.
const (
	EventStep     = "simulation_step"
	EventComplete = "simulation_complete"
)

// Envelope wraps every message of one run.
type Envelope struct {
	RunID string `json:"run_id"`
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// StepEvent is one traversed edge on the simulated path.
type StepEvent struct {
	Step       int     `json:"step"`
	From       string  `json:"from"`
	To         string  `json:"to"`
	FromName   string  `json:"from_name"`
	ToName     string  `json:"to_name"`
	EdgeWeight float64 `json:"edge_weight"`
	TargetRisk float64 `json:"target_risk"`
	Status     Status  `json:"status"`
	Breakdown  any     `json:"breakdown"`
}

// AnomalyAlert is the trimmed per-person outlier record carried by the
// terminal event.
type AnomalyAlert struct {
	PersonID      int     `json:"person_id"`
	FullName      string  `json:"full_name"`
	CompositeRisk float64 `json:"composite_risk"`
}

// CompleteEvent terminates every run that was not cancelled.
type CompleteEvent struct {
	Compromised    []string       `json:"compromised"`
	Anomalies      []AnomalyAlert `json:"anomalies"`
	Recommendation string         `json:"recommendation"`
}

// Lookup carries the read-only tables a run needs: risk, display name, and
// breakdown payload per flow-node id. Built once before the run starts;
// never written during it.
type Lookup struct {
	Risk      map[string]float64
	Name      map[string]string
	Breakdown map[string]any
}

func (l *Lookup) name(id string) string {
	if n, ok := l.Name[id]; ok {
		return n
	}
	return id
}

// Run is one path simulation: the shortest start→end path replayed as
// ordered step events with a fixed delay between them, then a single
// terminal event.
type Run struct {
	ID        string
	graph     *FlowGraph
	startID   string
	endID     string
	threshold float64
	lookup    *Lookup
	anomalies []AnomalyAlert
	generator recommend.Generator
	delay     time.Duration
	log       *zap.Logger
}

func NewRun(graph *FlowGraph, startID, endID string, threshold float64, lookup *Lookup,
	anomalies []AnomalyAlert, generator recommend.Generator, delay time.Duration, log *zap.Logger) *Run {
	if anomalies == nil {
		anomalies = []AnomalyAlert{}
	}
	return &Run{
		ID:        uuid.New().String(),
		graph:     graph,
		startID:   startID,
		endID:     endID,
		threshold: threshold,
		lookup:    lookup,
		anomalies: anomalies,
		generator: generator,
		delay:     delay,
		log:       log,
	}
}

// WithDelay returns the run with a different pacing delay. Used by the
// synchronous endpoint, which collects events instead of streaming them.
func (r *Run) WithDelay(delay time.Duration) *Run {
	r.delay = delay
	return r
}

// Execute drives the run, pushing each event through emit. Events are
// strictly ordered: step 1, step 2, ..., complete. A cancelled context or
// a failed emit stops the run before the next event; no terminal event is
// sent in that case. The returned CompleteEvent is non-nil exactly when
// the terminal event was emitted.
func (r *Run) Execute(ctx context.Context, emit func(Envelope) error) (*CompleteEvent, error) {
	path := r.graph.ShortestPath(r.startID, r.endID)
	r.log.Info("simulation run started",
		zap.String("run_id", r.ID),
		zap.String("start", r.startID),
		zap.String("end", r.endID),
		zap.Int("path_len", len(path)))

	for i := 0; i+1 < len(path); i++ {
		src, dst := path[i], path[i+1]
		risk := r.lookup.Risk[dst]
		status := StatusSafe
		if risk >= r.threshold {
			status = StatusCompromised
		}

		step := StepEvent{
			Step:       i + 1,
			From:       src,
			To:         dst,
			FromName:   r.lookup.name(src),
			ToName:     r.lookup.name(dst),
			EdgeWeight: r.graph.EdgeWeight(src, dst),
			TargetRisk: risk,
			Status:     status,
			Breakdown:  r.lookup.Breakdown[dst],
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := emit(Envelope{RunID: r.ID, Event: EventStep, Data: step}); err != nil {
			return nil, fmt.Errorf("emit step %d: %w", step.Step, err)
		}

		// Pacing between steps; a scheduling point, not a busy wait.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(r.delay):
		}
	}

	var compromised []string
	for _, node := range path {
		if r.lookup.Risk[node] >= r.threshold {
			compromised = append(compromised, node)
		}
	}
	if compromised == nil {
		compromised = []string{}
	}

	complete := CompleteEvent{
		Compromised:    compromised,
		Anomalies:      r.anomalies,
		Recommendation: r.generator.Recommend(ctx, r.prompt(compromised)),
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := emit(Envelope{RunID: r.ID, Event: EventComplete, Data: complete}); err != nil {
		return nil, fmt.Errorf("emit complete: %w", err)
	}

	r.log.Info("simulation run complete",
		zap.String("run_id", r.ID),
		zap.Int("compromised", len(compromised)))
	return &complete, nil
}

func (r *Run) prompt(compromised []string) string {
	var b strings.Builder
	b.WriteString("Compromised: ")
	b.WriteString(strings.Join(compromised, ", "))
	b.WriteString("\nAnomalies:")
	for _, a := range r.anomalies {
		fmt.Fprintf(&b, " %s (%.2f)", a.FullName, a.CompositeRisk)
	}
	b.WriteString("\nSuggest actionable mitigation strategies:")
	return b.String()
}
