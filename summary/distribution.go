package summary

import (
	"strings"

	"github.com/poiesic/cohort/core"
)

// Gender buckets.
const (
	Male   = "Male"
	Female = "Female"
)

// Age buckets.
const (
	Age18to29 = "18-29"
	Age30to49 = "30-49"
	Age50to64 = "50-64"
	Age65Plus = "65+"
)

var ageBuckets = []string{Age18to29, Age30to49, Age50to64, Age65Plus}

// GenderDistribution counts personas whose demographics text contains
// "Gender: Male" or "Gender: Female". Other personas are not counted.
func GenderDistribution(personas []*core.Persona) map[string]int {
	counts := map[string]int{Male: 0, Female: 0}
	for _, p := range personas {
		d := p.Demographics()
		switch {
		case strings.Contains(d, "Gender: "+Male):
			counts[Male]++
		case strings.Contains(d, "Gender: "+Female):
			counts[Female]++
		}
	}
	return counts
}

// AgeDistribution counts personas into the fixed age buckets by exact
// "Age: <bucket>" substring. The first matching bucket wins.
func AgeDistribution(personas []*core.Persona) map[string]int {
	counts := make(map[string]int, len(ageBuckets))
	for _, b := range ageBuckets {
		counts[b] = 0
	}
	for _, p := range personas {
		d := p.Demographics()
		for _, b := range ageBuckets {
			if strings.Contains(d, "Age: "+b) {
				counts[b]++
				break
			}
		}
	}
	return counts
}

// GlobalDistributions returns the gender and age tallies over every persona.
func GlobalDistributions(personas []*core.Persona) (gender, age map[string]int) {
	return GenderDistribution(personas), AgeDistribution(personas)
}
