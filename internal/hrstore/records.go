// Package hrstore fronts the external HR backend. It owns the record
// types returned by that API, a thin HTTP client, and the TTL cache that
// keeps request handlers from hammering the store.
package hrstore

import "strings"

// Timestamps come from the HR API as "YYYY-MM-DD HH:MM:SS" strings, which
// order lexicographically, so they are kept as strings here.

type Person struct {
	ID         int    `json:"id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func (p Person) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type Entity struct {
	ID                 int     `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	EntityType         string  `json:"entity_type"`
	Connectivity       float64 `json:"connectivity"`
	VulnerabilityScore float64 `json:"vulnerability_score"`
	RiskScore          float64 `json:"risk_score"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type Assessment struct {
	ID                int      `json:"id"`
	PersonID          int      `json:"person_id"`
	Awareness         float64  `json:"awareness"`
	Conscientiousness float64  `json:"conscientiousness"`
	Neuroticism       float64  `json:"neuroticism"`
	Stress            float64  `json:"stress"`
	RiskTolerance     float64  `json:"risk_tolerance"`
	Connectivity      *float64 `json:"connectivity,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at"`
}

// DefaultConnectivity is assumed when an assessment does not carry one.
const DefaultConnectivity = 0.5

func (a Assessment) ConnectivityOrDefault() float64 {
	if a.Connectivity == nil {
		return DefaultConnectivity
	}
	return *a.Connectivity
}

type Relationship struct {
	ID               int      `json:"id"`
	ParentID         int      `json:"parent_id"`
	ParentType       string   `json:"parent_type"`
	ChildID          int      `json:"child_id"`
	ChildType        string   `json:"child_type"`
	RelationshipType string   `json:"relationship_type"`
	Weight           *float64 `json:"relationship_weight,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

func (r Relationship) WeightOrDefault() float64 {
	if r.Weight == nil {
		return 1.0
	}
	return *r.Weight
}

// LatestAssessments picks the authoritative assessment per person when the
// store returns several: greatest updated_at wins, ties broken by highest
// id. Which record is authoritative is still an open question upstream;
// keep the rule isolated here.
func LatestAssessments(assessments []Assessment) map[int]Assessment {
	latest := make(map[int]Assessment, len(assessments))
	for _, a := range assessments {
		cur, ok := latest[a.PersonID]
		if !ok {
			latest[a.PersonID] = a
			continue
		}
		if a.UpdatedAt > cur.UpdatedAt || (a.UpdatedAt == cur.UpdatedAt && a.ID > cur.ID) {
			latest[a.PersonID] = a
		}
	}
	return latest
}
