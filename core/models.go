package core

import (
	"maps"
	"slices"
)

// DemographicsKey is the KeyValues entry holding the free-text demographic
// block of a persona ("Gender: Male\nAge: 30-49\n...").
const DemographicsKey = "demographics"

// Persona is a single consumer record from the persona store.
// Personas are read-only once loaded; the engine never mutates them.
type Persona struct {
	Id                     string
	EmbeddingProfileText   string            // Text the retrieval vector was built from
	EmbeddingVector        []float32         // Retrieval vector, unit length
	ClusterEmbeddingVector []float32         // Clustering vector, unit length, may differ in dimension
	KeyValues              map[string]any    // string, []any or map[string]any values
	ConsumerSummary        map[string]string // Narrative field -> description
}

// Demographics returns the raw demographics text of the persona.
// The exact key is preferred; otherwise the first key matching it
// case-insensitively is used. Non-string values yield "".
func (p *Persona) Demographics() string {
	if p == nil || p.KeyValues == nil {
		return ""
	}
	if v, ok := p.KeyValues[DemographicsKey].(string); ok {
		return v
	}
	for _, k := range slices.Sorted(maps.Keys(p.KeyValues)) {
		if IsDemographicsKey(k) {
			if s, ok := p.KeyValues[k].(string); ok {
				return s
			}
		}
	}
	return ""
}

// RetrievalResult is one ranked hit from the embedding index.
// Score is the cosine similarity between the query and the persona.
type RetrievalResult struct {
	Id      string
	Score   float64
	Persona *Persona
}

// Personas unwraps the persona records of a ranked result list, preserving order.
func Personas(results []*RetrievalResult) []*Persona {
	out := make([]*Persona, 0, len(results))
	for _, r := range results {
		if r != nil && r.Persona != nil {
			out = append(out, r.Persona)
		}
	}
	return out
}

// ClusterAssignment is the final segmentation of a persona subset.
type ClusterAssignment struct {
	Labels          []int          // Final cluster id per input persona, aligned with input order
	Representatives map[int]string // Cluster id -> representative persona id
	Counts          map[int]int    // Cluster id -> member count
}

// NumClusters returns the number of final clusters.
func (a *ClusterAssignment) NumClusters() int {
	return len(a.Counts)
}

// Demographics are the fixed demographic fields parsed from a persona's
// demographics text. Fields that could not be parsed are left empty.
type Demographics struct {
	Gender           string `json:"gender,omitempty"`
	Age              string `json:"age,omitempty"`
	MaritalStatus    string `json:"marital_status,omitempty"`
	Income           string `json:"income,omitempty"`
	EmploymentStatus string `json:"employment_status,omitempty"`
}

// Profile describes one customer segment in a Report.
type Profile struct {
	Tags         []string     `json:"tags"`
	Demographics Demographics `json:"demographics"`
	PID          string       `json:"pid"`
	Percentage   float64      `json:"percentage"`
}

// Report is the result of matching a product description against the persona population.
type Report struct {
	GenderDistribution map[string]int      `json:"gender_distribution"`
	AgeDistribution    map[string]int      `json:"age_distribution"`
	CustomerProfile    map[string]*Profile `json:"customer_profile"`
}
