package risk

import (
	"context"
	"fmt"

	"risk-backend/internal/anomaly"
	"risk-backend/internal/hrstore"
	"risk-backend/internal/predict"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Manager wires the cached HR proxy, the scorer, and the anomaly detector
// into the operations the HTTP surface exposes. Graphs and breakdowns are
// rebuilt per call; nothing here outlives a request.
type Manager struct {
	proxy      *hrstore.Proxy
	scorer     *Scorer
	detector   anomaly.Detector
	strictness Strictness
	log        *zap.Logger
}

func NewManager(proxy *hrstore.Proxy, scorer *Scorer, detector anomaly.Detector,
	strictness Strictness, log *zap.Logger) *Manager {
	return &Manager{
		proxy:      proxy,
		scorer:     scorer,
		detector:   detector,
		strictness: strictness,
		log:        log,
	}
}

// snapshot is one consistent read of the HR store for a scoring pass.
type snapshot struct {
	persons       []hrstore.Person
	entities      []hrstore.Entity
	relationships []hrstore.Relationship
	assessments   []hrstore.Assessment
}

func (m *Manager) fetchSnapshot(ctx context.Context) (*snapshot, error) {
	var snap snapshot
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { snap.persons, err = m.proxy.Persons(ctx); return })
	g.Go(func() (err error) { snap.entities, err = m.proxy.Entities(ctx); return })
	g.Go(func() (err error) { snap.relationships, err = m.proxy.Relationships(ctx); return })
	g.Go(func() (err error) { snap.assessments, err = m.proxy.Assessments(ctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}

// relatedEntities indexes person id → entities they are linked to, in
// relationship order. Relationships pointing at entities the store never
// returned are logged and skipped; that is an upstream data defect, not a
// scoring failure.
func (m *Manager) relatedEntities(snap *snapshot) map[int][]hrstore.Entity {
	byID := make(map[int]hrstore.Entity, len(snap.entities))
	for _, e := range snap.entities {
		byID[e.ID] = e
	}

	related := make(map[int][]hrstore.Entity)
	for _, rel := range snap.relationships {
		if NodeKind(rel.ParentType) != KindPerson || NodeKind(rel.ChildType) != KindEntity {
			continue
		}
		e, ok := byID[rel.ChildID]
		if !ok {
			m.log.Warn("relationship references unknown entity",
				zap.Int("relationship_id", rel.ID),
				zap.Int("entity_id", rel.ChildID))
			continue
		}
		related[rel.ParentID] = append(related[rel.ParentID], e)
	}
	return related
}

func (m *Manager) scoreAll(ctx context.Context, snap *snapshot, attackType string) ([]Breakdown, error) {
	latest := hrstore.LatestAssessments(snap.assessments)
	related := m.relatedEntities(snap)

	out := make([]Breakdown, 0, len(snap.persons))
	for _, p := range snap.persons {
		var assessment *hrstore.Assessment
		if a, ok := latest[p.ID]; ok {
			a := a
			assessment = &a
		}
		br, err := m.scorer.Score(ctx, p, assessment, related[p.ID], attackType, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	return out, nil
}

// AllPersonRisks computes the composite breakdown for every person, in
// store order.
func (m *Manager) AllPersonRisks(ctx context.Context, attackType string) ([]Breakdown, error) {
	snap, err := m.fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	return m.scoreAll(ctx, snap, attackType)
}

// PersonDetails returns one person's breakdown, or nil when unknown.
func (m *Manager) PersonDetails(ctx context.Context, personID int, attackType string) (*Breakdown, error) {
	risks, err := m.AllPersonRisks(ctx, attackType)
	if err != nil {
		return nil, err
	}
	for i := range risks {
		if risks[i].PersonID == personID {
			return &risks[i], nil
		}
	}
	return nil, nil
}

// BuildGraph assembles the risk graph for one attack type.
func (m *Manager) BuildGraph(ctx context.Context, attackType string) (*Graph, error) {
	snap, err := m.fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	breakdowns, err := m.scoreAll(ctx, snap, attackType)
	if err != nil {
		return nil, err
	}
	return BuildGraph(snap.persons, snap.entities, snap.relationships, breakdowns, m.strictness, m.log)
}

// CompromisedNode is the serialized view of one compromised graph node.
type CompromisedNode struct {
	ID       NodeID  `json:"id"`
	FullName string  `json:"full_name"`
	Risk     float64 `json:"risk"`
}

type SimulationResult struct {
	Compromised   []CompromisedNode `json:"compromised"`
	SimulationLog []LogEntry        `json:"simulation_log"`
}

// SimulateAttack builds the graph and floods compromise from the initial
// node at the given threshold.
func (m *Manager) SimulateAttack(ctx context.Context, initial NodeID, attackType string, threshold float64) (*SimulationResult, error) {
	g, err := m.BuildGraph(ctx, attackType)
	if err != nil {
		return nil, err
	}

	compromised, simLog := Propagate(g, initial, threshold)

	details := make([]CompromisedNode, 0, len(compromised))
	for _, id := range compromised {
		detail := CompromisedNode{ID: id, Risk: g.Risk(id)}
		if n := g.Node(id); n != nil {
			detail.FullName = n.Name
		}
		details = append(details, detail)
	}

	m.log.Info("attack simulation finished",
		zap.String("initial_node", initial.String()),
		zap.String("attack_type", attackType),
		zap.Float64("threshold", threshold),
		zap.Int("compromised", len(details)))

	return &SimulationResult{Compromised: details, SimulationLog: simLog}, nil
}

// NodeView / LinkView are the dashboard-facing graph DTOs.
type NodeView struct {
	ID              NodeID              `json:"id"`
	FullName        string              `json:"full_name"`
	Type            NodeKind            `json:"type"`
	Risk            float64             `json:"risk"`
	Department      string              `json:"department,omitempty"`
	Email           string              `json:"email,omitempty"`
	Assessment      *hrstore.Assessment `json:"assessment,omitempty"`
	RelatedEntities []hrstore.Entity    `json:"related_entities,omitempty"`
	EntityType      string              `json:"entity_type,omitempty"`
	Vulnerability   float64             `json:"vulnerability,omitempty"`
}

type LinkView struct {
	Source NodeID  `json:"source"`
	Target NodeID  `json:"target"`
	Weight float64 `json:"weight"`
}

type GraphView struct {
	Nodes []NodeView `json:"nodes"`
	Links []LinkView `json:"links"`
}

// GraphData returns the node/link view the dashboard renders.
func (m *Manager) GraphData(ctx context.Context, attackType string) (*GraphView, error) {
	snap, err := m.fetchSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	breakdowns, err := m.scoreAll(ctx, snap, attackType)
	if err != nil {
		return nil, err
	}
	g, err := BuildGraph(snap.persons, snap.entities, snap.relationships, breakdowns, m.strictness, m.log)
	if err != nil {
		return nil, err
	}

	byPerson := make(map[int]*Breakdown, len(breakdowns))
	for i := range breakdowns {
		byPerson[breakdowns[i].PersonID] = &breakdowns[i]
	}

	view := &GraphView{Nodes: make([]NodeView, 0, len(g.Nodes())), Links: make([]LinkView, 0)}
	for _, p := range snap.persons {
		nv := NodeView{
			ID:         PersonID(p.ID),
			FullName:   p.FullName(),
			Type:       KindPerson,
			Department: orUnknown(p.Department),
			Email:      p.Email,
		}
		if br, ok := byPerson[p.ID]; ok {
			nv.Risk = br.CompositeRisk
			nv.Assessment = br.Assessment
			nv.RelatedEntities = br.RelatedEntities
		}
		view.Nodes = append(view.Nodes, nv)
	}
	for _, e := range snap.entities {
		view.Nodes = append(view.Nodes, NodeView{
			ID:            EntityID(e.ID),
			FullName:      e.Name,
			Type:          KindEntity,
			EntityType:    e.EntityType,
			Risk:          e.RiskScore,
			Vulnerability: e.VulnerabilityScore,
		})
	}
	for _, edge := range g.Edges() {
		view.Links = append(view.Links, LinkView{Source: edge.From, Target: edge.To, Weight: edge.Weight})
	}
	return view, nil
}

// AnomalyAlerts returns the breakdowns the external detector flags as
// outliers among the current composite scores.
func (m *Manager) AnomalyAlerts(ctx context.Context, attackType string, contamination float64) ([]Breakdown, error) {
	risks, err := m.AllPersonRisks(ctx, attackType)
	if err != nil {
		return nil, err
	}

	scores := make([]float64, len(risks))
	for i, r := range risks {
		scores[i] = r.CompositeRisk
	}

	indices, err := m.detector.Detect(ctx, scores, contamination)
	if err != nil {
		return nil, fmt.Errorf("anomaly detection: %w", err)
	}

	alerts := make([]Breakdown, 0, len(indices))
	for _, i := range indices {
		alerts = append(alerts, risks[i])
	}
	return alerts, nil
}

// PredictRisk passes a raw attribute vector straight to the model.
func (m *Manager) PredictRisk(ctx context.Context, attrs [predict.AttributeCount]float64, attackType string) (float64, error) {
	return m.scorer.model.Predict(ctx, attrs, attackType)
}

// Proxy exposes the underlying cached store for the plain data endpoints.
func (m *Manager) Proxy() *hrstore.Proxy { return m.proxy }

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
