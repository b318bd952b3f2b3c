package summary

import (
	"regexp"
	"strings"

	"github.com/poiesic/cohort/core"
)

var (
	genderPattern     = regexp.MustCompile(`Gender:\s*(\w+)`)
	agePattern        = regexp.MustCompile(`Age:\s*([\d\-\+]+)`)
	maritalPattern    = regexp.MustCompile(`Marital status:\s*([^\n]+)`)
	incomePattern     = regexp.MustCompile(`Income:\s*([^\n]+)`)
	employmentPattern = regexp.MustCompile(`Employment status:\s*([^\n]+)`)
)

// ParseDemographics extracts the fixed demographic fields from a
// demographics text block. Unmatched fields are left empty.
func ParseDemographics(text string) core.Demographics {
	return core.Demographics{
		Gender:           firstGroup(genderPattern, text),
		Age:              firstGroup(agePattern, text),
		MaritalStatus:    strings.TrimSpace(firstGroup(maritalPattern, text)),
		Income:           strings.TrimSpace(firstGroup(incomePattern, text)),
		EmploymentStatus: strings.TrimSpace(firstGroup(employmentPattern, text)),
	}
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}
