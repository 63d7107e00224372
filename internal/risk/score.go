package risk

import (
	"context"
	"fmt"

	"risk-backend/internal/hrstore"
	"risk-backend/internal/predict"
)

// Weights blend the two risk factors. They are not required to sum to 1;
// the composite is clamped afterwards.
type Weights struct {
	Psychometric float64 `json:"psychometric"`
	Entity       float64 `json:"entity"`
}

var DefaultWeights = Weights{Psychometric: 0.7, Entity: 0.3}

// entityRiskScale divides the aggregated entity vulnerability. Calibration
// constant carried over from the trained model's companion formula.
const entityRiskScale = 10.0

type EntityDetail struct {
	EntityID      int     `json:"entity_id"`
	Vulnerability float64 `json:"vulnerability"`
	Connectivity  float64 `json:"connectivity"`
	Weighted      float64 `json:"weighted"`
}

// Breakdown is the per-person risk result for one attack type. Computed
// once, never mutated; rebuild it instead.
type Breakdown struct {
	PersonID         int                 `json:"person_id"`
	FullName         string              `json:"full_name"`
	PsychometricRisk float64             `json:"psychometric_risk"`
	EntityRisk       float64             `json:"entity_risk"`
	EntityDetails    []EntityDetail      `json:"entity_details"`
	Weights          Weights             `json:"weights"`
	CompositeRisk    float64             `json:"composite_risk"`
	Assessment       *hrstore.Assessment `json:"assessment"`
	RelatedEntities  []hrstore.Entity    `json:"related_entities"`
}

// Scorer computes composite risk from the predictive model's psychometric
// probability and the person's connected entity vulnerabilities.
type Scorer struct {
	model predict.Model
}

func NewScorer(model predict.Model) *Scorer {
	return &Scorer{model: model}
}

// Score is pure given a fixed model: same inputs, same Breakdown.
// assessment may be nil, in which case all attributes default to zero and
// connectivity to 0.5. weights may be nil for the defaults.
func (s *Scorer) Score(ctx context.Context, person hrstore.Person, assessment *hrstore.Assessment,
	related []hrstore.Entity, attackType string, weights *Weights) (Breakdown, error) {

	w := DefaultWeights
	if weights != nil {
		w = *weights
	}

	var attrs [predict.AttributeCount]float64
	connectivity := hrstore.DefaultConnectivity
	if assessment != nil {
		connectivity = assessment.ConnectivityOrDefault()
		attrs = [predict.AttributeCount]float64{
			assessment.Awareness,
			assessment.Conscientiousness,
			assessment.Stress,
			assessment.Neuroticism,
			assessment.RiskTolerance,
			connectivity,
		}
	} else {
		attrs[predict.AttributeCount-1] = connectivity
	}

	psychRisk, err := s.model.Predict(ctx, attrs, attackType)
	if err != nil {
		return Breakdown{}, fmt.Errorf("score person %d: %w", person.ID, err)
	}

	var riskSum, totalWeight float64
	details := make([]EntityDetail, 0, len(related))
	for _, e := range related {
		weighted := e.VulnerabilityScore * e.Connectivity
		riskSum += weighted
		totalWeight += e.Connectivity
		details = append(details, EntityDetail{
			EntityID:      e.ID,
			Vulnerability: e.VulnerabilityScore,
			Connectivity:  e.Connectivity,
			Weighted:      weighted,
		})
	}

	entityRisk := 0.0
	if totalWeight > 0 {
		entityRisk = riskSum / totalWeight / entityRiskScale
	}

	composite := w.Psychometric*psychRisk + w.Entity*entityRisk
	composite = clamp01(composite)

	return Breakdown{
		PersonID:         person.ID,
		FullName:         person.FullName(),
		PsychometricRisk: psychRisk,
		EntityRisk:       entityRisk,
		EntityDetails:    details,
		Weights:          w,
		CompositeRisk:    composite,
		Assessment:       assessment,
		RelatedEntities:  related,
	}, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
