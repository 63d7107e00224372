package risk

import (
	"testing"

	"risk-backend/internal/hrstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// chainGraph builds A(0.2) -> B(0.6) -> C(0.9) as persons 1, 2, 3.
func chainGraph(t *testing.T) *Graph {
	t.Helper()
	persons := []hrstore.Person{
		{ID: 1, FirstName: "A"},
		{ID: 2, FirstName: "B"},
		{ID: 3, FirstName: "C"},
	}
	relationships := []hrstore.Relationship{
		{ID: 1, ParentID: 1, ParentType: "person", ChildID: 2, ChildType: "person"},
		{ID: 2, ParentID: 2, ParentType: "person", ChildID: 3, ChildType: "person"},
	}
	breakdowns := []Breakdown{
		{PersonID: 1, CompositeRisk: 0.2},
		{PersonID: 2, CompositeRisk: 0.6},
		{PersonID: 3, CompositeRisk: 0.9},
	}
	g, err := BuildGraph(persons, nil, relationships, breakdowns, SkipWithWarning, zap.NewNop())
	require.NoError(t, err)
	return g
}

func TestPropagateChain(t *testing.T) {
	g := chainGraph(t)

	compromised, log := Propagate(g, PersonID(1), 0.5)

	assert.Equal(t, []NodeID{PersonID(1), PersonID(2), PersonID(3)}, compromised)
	require.Len(t, log, 2)
	assert.Equal(t, PersonID(1), log[0].From)
	assert.Equal(t, PersonID(2), log[0].To)
	assert.Equal(t, 0.6, log[0].TargetRisk)
	assert.Equal(t, PersonID(2), log[1].From)
	assert.Equal(t, PersonID(3), log[1].To)
	assert.Equal(t, 0.9, log[1].TargetRisk)
}

func TestPropagateZeroThresholdReachesEverything(t *testing.T) {
	g := chainGraph(t)

	compromised, _ := Propagate(g, PersonID(1), 0)
	assert.Len(t, compromised, 3)
}

func TestPropagateThresholdAboveRangeStopsImmediately(t *testing.T) {
	g := chainGraph(t)

	compromised, log := Propagate(g, PersonID(1), 1.01)
	assert.Equal(t, []NodeID{PersonID(1)}, compromised)
	assert.Empty(t, log)
}

func TestPropagateAbsentInitialNode(t *testing.T) {
	g := chainGraph(t)

	compromised, log := Propagate(g, PersonID(99), 0.5)
	assert.Equal(t, []NodeID{PersonID(99)}, compromised)
	assert.Empty(t, log)
}

func TestPropagateIsIdempotent(t *testing.T) {
	g := chainGraph(t)

	first, firstLog := Propagate(g, PersonID(1), 0.5)
	second, secondLog := Propagate(g, PersonID(1), 0.5)
	assert.Equal(t, first, second)
	assert.Equal(t, firstLog, secondLog)
}

func TestPropagateHandlesCycles(t *testing.T) {
	persons := []hrstore.Person{{ID: 1}, {ID: 2}}
	relationships := []hrstore.Relationship{
		{ID: 1, ParentID: 1, ParentType: "person", ChildID: 2, ChildType: "person"},
		{ID: 2, ParentID: 2, ParentType: "person", ChildID: 1, ChildType: "person"},
	}
	breakdowns := []Breakdown{
		{PersonID: 1, CompositeRisk: 0.9},
		{PersonID: 2, CompositeRisk: 0.9},
	}
	g, err := BuildGraph(persons, nil, relationships, breakdowns, SkipWithWarning, zap.NewNop())
	require.NoError(t, err)

	compromised, log := Propagate(g, PersonID(1), 0.5)
	assert.Len(t, compromised, 2)
	assert.Len(t, log, 1)
}
