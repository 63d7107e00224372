// Package predict is the boundary to the trained susceptibility model.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnknownAttackType is returned when the label is not among the model's
// trained classes. Callers must surface this, never substitute a default
// score.
var ErrUnknownAttackType = errors.New("unknown attack type")

// AttributeCount is the fixed width of the model's input vector:
// awareness, conscientiousness, stress, neuroticism, risk_tolerance,
// connectivity.
const AttributeCount = 6

// Model predicts the probability, in [0,1], that a person with the given
// attribute vector is susceptible to the given attack type.
type Model interface {
	Predict(ctx context.Context, attrs [AttributeCount]float64, attackType string) (float64, error)
}

// HTTPModel calls the external model service.
type HTTPModel struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewHTTPModel(baseURL string, log *zap.Logger) *HTTPModel {
	return &HTTPModel{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

type predictRequest struct {
	Attributes []float64 `json:"attributes"`
	AttackType string    `json:"attack_type"`
}

type predictResponse struct {
	PredictedRisk float64 `json:"predicted_risk"`
	Error         string  `json:"error"`
}

func (m *HTTPModel) Predict(ctx context.Context, attrs [AttributeCount]float64, attackType string) (float64, error) {
	body, err := json.Marshal(predictRequest{
		Attributes: attrs[:],
		AttackType: attackType,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/predict", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("predict call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		var pr predictResponse
		_ = json.NewDecoder(resp.Body).Decode(&pr)
		m.log.Warn("model rejected prediction", zap.String("attack_type", attackType), zap.String("detail", pr.Error))
		return 0, fmt.Errorf("%w: %q", ErrUnknownAttackType, attackType)
	}
	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, fmt.Errorf("model returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return 0, fmt.Errorf("decode prediction: %w", err)
	}
	if pr.PredictedRisk < 0 || pr.PredictedRisk > 1 {
		return 0, fmt.Errorf("model returned probability %v outside [0,1]", pr.PredictedRisk)
	}
	return pr.PredictedRisk, nil
}
