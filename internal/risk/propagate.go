package risk

// LogEntry is one hop of a propagation run, in BFS visitation order.
type LogEntry struct {
	From       NodeID  `json:"from"`
	To         NodeID  `json:"to"`
	EdgeWeight float64 `json:"edge_weight"`
	TargetRisk float64 `json:"target_risk"`
}

type queueItem struct {
	node   NodeID
	parent *NodeID
	weight float64
}

// Propagate floods compromise from initial through the graph. A successor
// is compromised when its risk meets the threshold; each node enters the
// queue at most once, so cycles terminate. The returned slice lists
// compromised nodes in visitation order; the log has one entry per
// traversed edge.
//
// An initial node absent from the graph is still considered compromised:
// it has no successors, so the result is just that node.
func Propagate(g *Graph, initial NodeID, threshold float64) ([]NodeID, []LogEntry) {
	compromised := map[NodeID]bool{initial: true}
	order := []NodeID{initial}
	log := []LogEntry{}

	queue := []queueItem{{node: initial}}
	for head := 0; head < len(queue); head++ {
		item := queue[head]

		if item.parent != nil {
			log = append(log, LogEntry{
				From:       *item.parent,
				To:         item.node,
				EdgeWeight: item.weight,
				TargetRisk: g.Risk(item.node),
			})
		}

		for _, edge := range g.Successors(item.node) {
			next := edge.To
			if compromised[next] || g.Risk(next) < threshold {
				continue
			}
			compromised[next] = true
			order = append(order, next)
			parent := item.node
			queue = append(queue, queueItem{node: next, parent: &parent, weight: edge.Weight})
		}
	}

	return order, log
}
