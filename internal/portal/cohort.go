package portal

import (
	"strings"

	"github.com/RishiKendai/assignment-portal/internal/models"
)

// CohortMatches compares year, branch and section after trimming and
// case-folding each part.
func CohortMatches(a, b models.Cohort) bool {
	return foldEqual(a.Year, b.Year) &&
		foldEqual(a.Branch, b.Branch) &&
		foldEqual(a.Section, b.Section)
}

func foldEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CleanCohort trims each part; stored cohorts keep the caller's casing
func CleanCohort(c models.Cohort) models.Cohort {
	return models.Cohort{
		Year:    strings.TrimSpace(c.Year),
		Branch:  strings.TrimSpace(c.Branch),
		Section: strings.TrimSpace(c.Section),
	}
}
