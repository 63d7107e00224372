package risk

import (
	"context"
	"testing"

	"risk-backend/internal/hrstore"
	"risk-backend/internal/predict"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubModel struct {
	prob     float64
	err      error
	gotAttrs [predict.AttributeCount]float64
	gotType  string
}

func (m *stubModel) Predict(_ context.Context, attrs [predict.AttributeCount]float64, attackType string) (float64, error) {
	m.gotAttrs = attrs
	m.gotType = attackType
	return m.prob, m.err
}

func floatPtr(v float64) *float64 { return &v }

func TestScoreBlendsFactors(t *testing.T) {
	model := &stubModel{prob: 0.8}
	scorer := NewScorer(model)

	assessment := &hrstore.Assessment{
		Awareness:         0.2,
		Conscientiousness: 0.3,
		Stress:            0.7,
		Neuroticism:       0.6,
		RiskTolerance:     0.4,
		Connectivity:      floatPtr(0.9),
	}
	related := []hrstore.Entity{
		{ID: 1, VulnerabilityScore: 0.8, Connectivity: 0.5},
		{ID: 2, VulnerabilityScore: 0.4, Connectivity: 1.0},
	}

	br, err := scorer.Score(context.Background(), hrstore.Person{ID: 7, FirstName: "Ada"}, assessment, related, "phishing", nil)
	require.NoError(t, err)

	assert.Equal(t, [6]float64{0.2, 0.3, 0.7, 0.6, 0.4, 0.9}, model.gotAttrs)
	assert.Equal(t, "phishing", model.gotType)

	// entity risk = (0.8*0.5 + 0.4*1.0) / (0.5+1.0) / 10
	wantEntity := (0.8*0.5 + 0.4*1.0) / 1.5 / 10
	assert.InDelta(t, wantEntity, br.EntityRisk, 1e-9)
	assert.InDelta(t, 0.7*0.8+0.3*wantEntity, br.CompositeRisk, 1e-9)
	assert.Len(t, br.EntityDetails, 2)
	assert.Equal(t, DefaultWeights, br.Weights)
}

func TestScoreMissingAssessmentDefaults(t *testing.T) {
	model := &stubModel{prob: 0.5}
	scorer := NewScorer(model)

	_, err := scorer.Score(context.Background(), hrstore.Person{ID: 1}, nil, nil, "phishing", nil)
	require.NoError(t, err)

	// All attributes default to zero, connectivity to 0.5.
	assert.Equal(t, [6]float64{0, 0, 0, 0, 0, 0.5}, model.gotAttrs)
}

func TestScoreNoRelatedEntities(t *testing.T) {
	scorer := NewScorer(&stubModel{prob: 0.6})

	br, err := scorer.Score(context.Background(), hrstore.Person{ID: 1}, nil, nil, "phishing", nil)
	require.NoError(t, err)
	assert.Zero(t, br.EntityRisk)
	assert.InDelta(t, 0.7*0.6, br.CompositeRisk, 1e-9)
}

func TestScoreClampsComposite(t *testing.T) {
	// Weights summing past 1 must still yield a composite in [0,1].
	scorer := NewScorer(&stubModel{prob: 1.0})
	heavy := &Weights{Psychometric: 2.0, Entity: 2.0}

	br, err := scorer.Score(context.Background(), hrstore.Person{ID: 1}, nil, nil, "phishing", heavy)
	require.NoError(t, err)
	assert.Equal(t, 1.0, br.CompositeRisk)

	scorer = NewScorer(&stubModel{prob: 0.0})
	br, err = scorer.Score(context.Background(), hrstore.Person{ID: 1}, nil, nil, "phishing", heavy)
	require.NoError(t, err)
	assert.Equal(t, 0.0, br.CompositeRisk)
}

func TestScoreUnknownAttackType(t *testing.T) {
	scorer := NewScorer(&stubModel{err: predict.ErrUnknownAttackType})

	_, err := scorer.Score(context.Background(), hrstore.Person{ID: 1}, nil, nil, "bogus", nil)
	require.ErrorIs(t, err, predict.ErrUnknownAttackType)
}
