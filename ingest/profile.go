package ingest

import (
	"regexp"
	"slices"
	"strings"

	"github.com/poiesic/cohort/core"
)

// Fields of the demographics block that go into the profile text, in order.
var profileDemographics = []*regexp.Regexp{
	regexp.MustCompile(`Gender:\s*([^\n]+)`),
	regexp.MustCompile(`Age:\s*([^\n]+)`),
	regexp.MustCompile(`Geographic region:\s*([^\n]+)`),
	regexp.MustCompile(`Education level:\s*([^\n]+)`),
	regexp.MustCompile(`Employment status:\s*([^\n]+)`),
	regexp.MustCompile(`Income:\s*([^\n]+)`),
	regexp.MustCompile(`Marital status:\s*([^\n]+)`),
}

// Consumer summary fields describing the persona's behaviour, in profile order.
var profileSummaryFields = []string{
	"cognitive_style",
	"decision_motivation",
	"risk_preference",
	"emotional_state",
	"financial_attitude",
	"social_orientation",
	"environmental_values",
	"consumption_pattern",
	"self_concept_and_values",
}

// Consumer summary fields the clustering text is built from.
var clusterSummaryFields = []string{
	"demographic_overview",
	"consumption_pattern",
	"financial_attitude",
	"environmental_values",
}

// ProfileText builds the retrieval embedding text of a persona:
// a demographics line followed by the behavioural summary fields.
// Absent fields leave an empty sentence, keeping the layout fixed.
// It is empty when the persona has neither demographics nor summary fields.
func ProfileText(p *core.Persona) string {
	demographics := p.Demographics()
	parts := make([]string, 0, len(profileDemographics))
	for _, re := range profileDemographics {
		value := ""
		if m := re.FindStringSubmatch(demographics); m != nil {
			value = strings.TrimSpace(m[1])
		}
		parts = append(parts, value)
	}
	empty := !slices.ContainsFunc(parts, func(v string) bool { return v != "" })
	for _, field := range profileSummaryFields {
		empty = empty && p.ConsumerSummary[field] == ""
	}
	if empty {
		return ""
	}

	var b strings.Builder
	b.WriteString("Demographics: ")
	b.WriteString(strings.Join(strings.Fields(strings.Join(parts, ", ")), " "))
	b.WriteString(".")
	for _, field := range profileSummaryFields {
		b.WriteString(" ")
		b.WriteString(p.ConsumerSummary[field])
		b.WriteString(".")
	}
	return strings.TrimSpace(strings.ReplaceAll(b.String(), "\n", " "))
}

// ClusterText builds the clustering embedding text of a persona.
// It is empty when the persona has none of the clustering fields.
func ClusterText(p *core.Persona) string {
	parts := make([]string, 0, len(clusterSummaryFields))
	for _, field := range clusterSummaryFields {
		parts = append(parts, p.ConsumerSummary[field])
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
