package risk

import (
	"errors"
	"fmt"

	"risk-backend/internal/hrstore"

	"go.uber.org/zap"
)

// ErrNodeNotFound is returned by a strict build when a relationship
// references a person or entity id that was never added to the graph.
var ErrNodeNotFound = errors.New("relationship endpoint not found in graph")

// Strictness controls what a build does with a relationship whose
// endpoints cannot be resolved: reject the whole build, or skip the edge
// and report it.
type Strictness int

const (
	SkipWithWarning Strictness = iota
	StrictFail
)

type Node struct {
	ID   NodeID
	Name string
	Risk float64

	// Person nodes carry the full breakdown; entity nodes carry the
	// static entity record instead.
	Breakdown *Breakdown
	Entity    *hrstore.Entity
}

type Edge struct {
	From   NodeID
	To     NodeID
	Weight float64
}

// SkippedEdge records a relationship dropped by a lenient build.
type SkippedEdge struct {
	Relationship hrstore.Relationship
	Reason       string
}

// Graph is the directed, weighted risk graph for one attack type. It is
// built once per request and read-only afterwards; the adjacency lists are
// shared by both propagation algorithms.
type Graph struct {
	nodes map[NodeID]*Node
	order []NodeID
	adj   map[NodeID][]Edge
	risk  map[NodeID]float64

	Skipped []SkippedEdge
}

// BuildGraph adds one node per person (composite risk attached), one node
// per entity (static risk score), and one edge per relationship. Node
// insertion order and adjacency order follow input order, so two builds
// from the same inputs are identical.
func BuildGraph(persons []hrstore.Person, entities []hrstore.Entity, relationships []hrstore.Relationship,
	breakdowns []Breakdown, strictness Strictness, log *zap.Logger) (*Graph, error) {

	g := &Graph{
		nodes: make(map[NodeID]*Node, len(persons)+len(entities)),
		adj:   make(map[NodeID][]Edge),
		risk:  make(map[NodeID]float64, len(persons)+len(entities)),
	}

	byPerson := make(map[int]*Breakdown, len(breakdowns))
	for i := range breakdowns {
		byPerson[breakdowns[i].PersonID] = &breakdowns[i]
	}

	for _, p := range persons {
		id := PersonID(p.ID)
		node := &Node{ID: id, Name: p.FullName()}
		if br, ok := byPerson[p.ID]; ok {
			node.Risk = br.CompositeRisk
			node.Breakdown = br
		}
		g.addNode(node)
	}

	for i := range entities {
		e := entities[i]
		id := EntityID(e.ID)
		g.addNode(&Node{ID: id, Name: e.Name, Risk: e.RiskScore, Entity: &e})
	}

	for _, rel := range relationships {
		from, err := endpointID(rel.ParentType, rel.ParentID)
		if err == nil {
			_, ok := g.nodes[from]
			if !ok {
				err = fmt.Errorf("%w: %s", ErrNodeNotFound, from)
			}
		}
		var to NodeID
		if err == nil {
			to, err = endpointID(rel.ChildType, rel.ChildID)
			if err == nil {
				if _, ok := g.nodes[to]; !ok {
					err = fmt.Errorf("%w: %s", ErrNodeNotFound, to)
				}
			}
		}
		if err != nil {
			if strictness == StrictFail {
				return nil, fmt.Errorf("relationship %d: %w", rel.ID, err)
			}
			log.Warn("skipping unresolvable relationship",
				zap.Int("relationship_id", rel.ID),
				zap.Error(err))
			g.Skipped = append(g.Skipped, SkippedEdge{Relationship: rel, Reason: err.Error()})
			continue
		}

		edge := Edge{From: from, To: to, Weight: rel.WeightOrDefault()}
		g.adj[from] = append(g.adj[from], edge)
	}

	return g, nil
}

func endpointID(kind string, id int) (NodeID, error) {
	switch NodeKind(kind) {
	case KindPerson:
		return PersonID(id), nil
	case KindEntity:
		return EntityID(id), nil
	default:
		return NodeID{}, fmt.Errorf("unknown endpoint type %q", kind)
	}
}

func (g *Graph) addNode(n *Node) {
	if _, ok := g.nodes[n.ID]; ok {
		return
	}
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	g.risk[n.ID] = n.Risk
}

// Node returns the node for id, or nil.
func (g *Graph) Node(id NodeID) *Node { return g.nodes[id] }

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Edges returns every edge grouped by source, in insertion order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, id := range g.order {
		out = append(out, g.adj[id]...)
	}
	return out
}

// Successors returns the outgoing edges of id in insertion order. The
// returned slice is shared; callers must not modify it.
func (g *Graph) Successors(id NodeID) []Edge { return g.adj[id] }

// Risk returns the node's risk, or 0 for unknown nodes.
func (g *Graph) Risk(id NodeID) float64 { return g.risk[id] }

// RiskLookup exposes the node → risk map.
func (g *Graph) RiskLookup() map[NodeID]float64 { return g.risk }
