package hrstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Client talks to the HR backend REST API. It performs no caching; wrap it
// in a Proxy for that.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		log:     log,
	}
}

func (c *Client) Persons(ctx context.Context) ([]Person, error) {
	var out []Person
	if err := c.getJSON(ctx, "/persons", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch persons: %w", err)
	}
	return out, nil
}

func (c *Client) Entities(ctx context.Context) ([]Entity, error) {
	var out []Entity
	if err := c.getJSON(ctx, "/entities", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch entities: %w", err)
	}
	return out, nil
}

func (c *Client) Relationships(ctx context.Context) ([]Relationship, error) {
	var out []Relationship
	if err := c.getJSON(ctx, "/relationships", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch relationships: %w", err)
	}
	return out, nil
}

func (c *Client) Assessments(ctx context.Context) ([]Assessment, error) {
	var out []Assessment
	if err := c.getJSON(ctx, "/psychometric_assessments", nil, &out); err != nil {
		return nil, fmt.Errorf("fetch assessments: %w", err)
	}
	return out, nil
}

func (c *Client) AssessmentsFor(ctx context.Context, personID int) ([]Assessment, error) {
	q := url.Values{"person_id": {strconv.Itoa(personID)}}
	var out []Assessment
	if err := c.getJSON(ctx, "/psychometric_assessments", q, &out); err != nil {
		return nil, fmt.Errorf("fetch assessments for person %d: %w", personID, err)
	}
	return out, nil
}

// Clustering passes the HR backend's K-means convenience endpoint through
// untouched.
func (c *Client) Clustering(ctx context.Context, nClusters int, attributes []string) (json.RawMessage, error) {
	q := url.Values{"n_clusters": {strconv.Itoa(nClusters)}}
	for _, attr := range attributes {
		q.Add("attributes", attr)
	}
	var out json.RawMessage
	if err := c.getJSON(ctx, "/clustering", q, &out); err != nil {
		return nil, fmt.Errorf("fetch clustering: %w", err)
	}
	return out, nil
}

func (c *Client) DeletePerson(ctx context.Context, personID int) error {
	if err := c.delete(ctx, "/persons/"+strconv.Itoa(personID)); err != nil {
		return fmt.Errorf("delete person %d: %w", personID, err)
	}
	return nil
}

func (c *Client) DeleteEntity(ctx context.Context, entityID int) error {
	if err := c.delete(ctx, "/entities/"+strconv.Itoa(entityID)); err != nil {
		return fmt.Errorf("delete entity %d: %w", entityID, err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	c.log.Debug("hr store call",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)))

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hr store returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("hr store returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}
