// Package simulation replays an attack along a diagram flow graph as a
// paced, ordered event stream.
package simulation

import "slices"

// FlowEdge is a directed edge in the diagram graph. Weight defaults to 1.
type FlowEdge struct {
	To     string
	Weight float64
}

// FlowGraph is the directed graph parsed from a BPMN-like diagram. Node
// and adjacency order follow insertion order so path tie-breaking is
// deterministic.
type FlowGraph struct {
	order []string
	adj   map[string][]FlowEdge
	seen  map[string]bool
}

func NewFlowGraph() *FlowGraph {
	return &FlowGraph{
		adj:  make(map[string][]FlowEdge),
		seen: make(map[string]bool),
	}
}

func (g *FlowGraph) AddNode(id string) {
	if g.seen[id] {
		return
	}
	g.seen[id] = true
	g.order = append(g.order, id)
}

func (g *FlowGraph) AddEdge(from, to string, weight float64) {
	g.AddNode(from)
	g.AddNode(to)
	g.adj[from] = append(g.adj[from], FlowEdge{To: to, Weight: weight})
}

func (g *FlowGraph) Nodes() []string { return slices.Clone(g.order) }

func (g *FlowGraph) HasNode(id string) bool { return g.seen[id] }

// EdgeWeight returns the weight of the first from→to edge, or 1 when the
// edge does not exist.
func (g *FlowGraph) EdgeWeight(from, to string) float64 {
	for _, e := range g.adj[from] {
		if e.To == to {
			return e.Weight
		}
	}
	return 1.0
}

// ShortestPath returns the node sequence from start to end minimizing hop
// count (unweighted BFS, ties broken by adjacency insertion order), both
// endpoints included. It returns nil when either id is empty or no path
// exists.
func (g *FlowGraph) ShortestPath(start, end string) []string {
	if start == "" || end == "" || !g.seen[start] {
		return nil
	}

	prev := map[string]string{start: start}
	queue := []string{start}
	for head := 0; head < len(queue); head++ {
		cur := queue[head]
		if cur == end {
			break
		}
		for _, e := range g.adj[cur] {
			if _, visited := prev[e.To]; visited {
				continue
			}
			prev[e.To] = cur
			queue = append(queue, e.To)
		}
	}

	if _, ok := prev[end]; !ok {
		return nil
	}

	var path []string
	for cur := end; ; cur = prev[cur] {
		path = append(path, cur)
		if cur == start {
			break
		}
	}
	slices.Reverse(path)
	return path
}
