package simulation

import (
	"context"
	"testing"

	"risk-backend/internal/recommend"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGenerator struct {
	text    string
	prompts []string
}

func (g *stubGenerator) Recommend(_ context.Context, prompt string) string {
	g.prompts = append(g.prompts, prompt)
	return g.text
}

func testLookup() *Lookup {
	return &Lookup{
		Risk: map[string]float64{
			"Person_1": 0.2,
			"Person_2": 0.7,
			"Entity_3": 0.9,
		},
		Name: map[string]string{
			"Person_1": "Ada Lovelace",
			"Person_2": "Alan Turing",
			"Entity_3": "CRM",
		},
		Breakdown: map[string]any{},
	}
}

func pathGraph() *FlowGraph {
	g := NewFlowGraph()
	g.AddEdge("Person_1", "Person_2", 0.8)
	g.AddEdge("Person_2", "Entity_3", 1.0)
	return g
}

func collect(run *Run, ctx context.Context) ([]Envelope, *CompleteEvent, error) {
	var events []Envelope
	complete, err := run.Execute(ctx, func(env Envelope) error {
		events = append(events, env)
		return nil
	})
	return events, complete, err
}

func TestRunEmitsOrderedSteps(t *testing.T) {
	gen := &stubGenerator{text: "rotate credentials"}
	run := NewRun(pathGraph(), "Person_1", "Entity_3", 0.5, testLookup(), nil, gen, 0, zap.NewNop())

	events, complete, err := collect(run, context.Background())
	require.NoError(t, err)
	require.NotNil(t, complete)
	require.Len(t, events, 3)

	for _, env := range events {
		assert.Equal(t, run.ID, env.RunID)
	}

	step1 := events[0].Data.(StepEvent)
	assert.Equal(t, 1, step1.Step)
	assert.Equal(t, "Person_1", step1.From)
	assert.Equal(t, "Person_2", step1.To)
	assert.Equal(t, "Ada Lovelace", step1.FromName)
	assert.Equal(t, "Alan Turing", step1.ToName)
	assert.Equal(t, 0.8, step1.EdgeWeight)
	assert.Equal(t, 0.7, step1.TargetRisk)
	assert.Equal(t, StatusCompromised, step1.Status)

	step2 := events[1].Data.(StepEvent)
	assert.Equal(t, 2, step2.Step)
	assert.Equal(t, "Entity_3", step2.To)

	assert.Equal(t, EventComplete, events[2].Event)
	// Person_1 (0.2) is below the threshold and not compromised.
	assert.Equal(t, []string{"Person_2", "Entity_3"}, complete.Compromised)
	assert.Equal(t, "rotate credentials", complete.Recommendation)
	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Person_2")
}

func TestRunStatusSafeBelowThreshold(t *testing.T) {
	run := NewRun(pathGraph(), "Person_1", "Entity_3", 0.8, testLookup(), nil,
		recommend.NoopGenerator{}, 0, zap.NewNop())

	events, complete, err := collect(run, context.Background())
	require.NoError(t, err)

	step1 := events[0].Data.(StepEvent)
	assert.Equal(t, StatusSafe, step1.Status)
	assert.Equal(t, []string{"Entity_3"}, complete.Compromised)
}

func TestRunNoPathEmitsOnlyTerminalEvent(t *testing.T) {
	g := NewFlowGraph()
	g.AddEdge("Person_1", "Person_2", 1.0)
	g.AddNode("Entity_9")

	run := NewRun(g, "Person_1", "Entity_9", 0.5, testLookup(), nil,
		recommend.NoopGenerator{}, 0, zap.NewNop())

	events, complete, err := collect(run, context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventComplete, events[0].Event)
	assert.Empty(t, complete.Compromised)
	assert.NotNil(t, complete.Compromised, "compromised must serialize as [], not null")
}

func TestRunDegradedRecommendation(t *testing.T) {
	run := NewRun(pathGraph(), "Person_1", "Entity_3", 0.5, testLookup(), nil,
		recommend.NoopGenerator{}, 0, zap.NewNop())

	_, complete, err := collect(run, context.Background())
	require.NoError(t, err)
	assert.Equal(t, recommend.Unavailable, complete.Recommendation)
}

func TestRunCancellationSkipsTerminalEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	run := NewRun(pathGraph(), "Person_1", "Entity_3", 0.5, testLookup(), nil,
		recommend.NoopGenerator{}, 0, zap.NewNop())

	var events []Envelope
	complete, err := run.Execute(ctx, func(env Envelope) error {
		events = append(events, env)
		cancel() // consumer goes away after the first event
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, complete)
	require.Len(t, events, 1)
	assert.Equal(t, EventStep, events[0].Event)
}

func TestRunEmitFailureStopsRun(t *testing.T) {
	run := NewRun(pathGraph(), "Person_1", "Entity_3", 0.5, testLookup(), nil,
		recommend.NoopGenerator{}, 0, zap.NewNop())

	calls := 0
	_, err := run.Execute(context.Background(), func(Envelope) error {
		calls++
		return assert.AnError
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRunCarriesAnomalies(t *testing.T) {
	alerts := []AnomalyAlert{{PersonID: 2, FullName: "Alan Turing", CompositeRisk: 0.7}}
	run := NewRun(pathGraph(), "Person_1", "Entity_3", 0.5, testLookup(), alerts,
		recommend.NoopGenerator{}, 0, zap.NewNop())

	_, complete, err := collect(run, context.Background())
	require.NoError(t, err)
	assert.Equal(t, alerts, complete.Anomalies)
}
