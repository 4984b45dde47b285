package repository

import (
	"regexp"
	"strings"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// foldedEquals matches a stored string equal to value after trimming both
// sides and ignoring case.
func foldedEquals(value string) primitive.Regex {
	return primitive.Regex{
		Pattern: `^\s*` + regexp.QuoteMeta(strings.TrimSpace(value)) + `\s*$`,
		Options: "i",
	}
}

func cohortFilter(cohort models.Cohort) bson.M {
	return bson.M{
		"cohort.year":    foldedEquals(cohort.Year),
		"cohort.branch":  foldedEquals(cohort.Branch),
		"cohort.section": foldedEquals(cohort.Section),
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
