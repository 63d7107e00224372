// Package anomaly is the boundary to the external outlier model. The
// algorithm (isolation forest upstream) is the model service's business;
// this side only ships scores out and indices back.
package anomaly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Detector returns the indices of statistical outliers among scores.
// Contamination is the expected fraction of outliers.
type Detector interface {
	Detect(ctx context.Context, scores []float64, contamination float64) ([]int, error)
}

type HTTPDetector struct {
	baseURL string
	http    *http.Client
}

func NewHTTPDetector(baseURL string) *HTTPDetector {
	return &HTTPDetector{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type detectRequest struct {
	Scores        []float64 `json:"scores"`
	Contamination float64   `json:"contamination"`
}

type detectResponse struct {
	Anomalies []int `json:"anomalies"`
}

func (d *HTTPDetector) Detect(ctx context.Context, scores []float64, contamination float64) ([]int, error) {
	body, err := json.Marshal(detectRequest{Scores: scores, Contamination: contamination})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/detect_anomalies", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("anomaly call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("anomaly model returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var dr detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return nil, fmt.Errorf("decode anomalies: %w", err)
	}
	for _, i := range dr.Anomalies {
		if i < 0 || i >= len(scores) {
			return nil, fmt.Errorf("anomaly index %d out of range (n=%d)", i, len(scores))
		}
	}
	return dr.Anomalies, nil
}
