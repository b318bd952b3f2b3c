package summary

import "github.com/poiesic/cohort/core"

// Summarize looks up each representative persona and returns its parsed
// demographics and consumer summary per cluster. Representatives missing
// from personas are skipped.
func Summarize(personas []*core.Persona, representatives map[int]string) (map[int]core.Demographics, map[int]map[string]string) {
	byID := make(map[string]*core.Persona, len(personas))
	for _, p := range personas {
		if p != nil {
			byID[p.Id] = p
		}
	}

	demographics := make(map[int]core.Demographics, len(representatives))
	narratives := make(map[int]map[string]string, len(representatives))
	for cluster, id := range representatives {
		p, ok := byID[id]
		if !ok {
			continue
		}
		demographics[cluster] = ParseDemographics(p.Demographics())
		narrative := p.ConsumerSummary
		if narrative == nil {
			narrative = map[string]string{}
		}
		narratives[cluster] = narrative
	}
	return demographics, narratives
}
