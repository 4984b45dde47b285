package portal

import (
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
)

type AvailableAssignment struct {
	Assignment models.Assignment `json:"assignment"`
	DaysLeft   int               `json:"daysLeft"`
	Tier       Tier              `json:"tier"`
	CanUpload  bool              `json:"canUpload"`
}

type SubmittedAssignment struct {
	Assignment models.Assignment `json:"assignment"`
	Submission models.Submission `json:"submission"`
}

// Dashboard splits a student's assignments into those still to do and
// those already handed in.
type Dashboard struct {
	Available []AvailableAssignment `json:"available"`
	Submitted []SubmittedAssignment `json:"submitted"`
}

// Derive builds the dashboard for a student. Assignments outside the
// student's cohort are dropped, and an assignment the student has a
// submission for is always listed as submitted whatever its deadline.
// Input order is preserved within each partition.
func Derive(cohort models.Cohort, assignments []models.Assignment, submissions []models.Submission, today time.Time) Dashboard {
	byAssignment := make(map[string]models.Submission, len(submissions))
	for _, s := range submissions {
		byAssignment[s.AssignmentID] = s
	}

	dash := Dashboard{
		Available: []AvailableAssignment{},
		Submitted: []SubmittedAssignment{},
	}
	for _, a := range assignments {
		if !CohortMatches(cohort, a.Cohort) {
			continue
		}
		if sub, ok := byAssignment[a.ID]; ok {
			dash.Submitted = append(dash.Submitted, SubmittedAssignment{Assignment: a, Submission: sub})
			continue
		}

		daysLeft := DaysLeft(a.DueDate, today)
		dash.Available = append(dash.Available, AvailableAssignment{
			Assignment: a,
			DaysLeft:   daysLeft,
			Tier:       TierFor(daysLeft),
			CanUpload:  CanUpload(daysLeft),
		})
	}
	return dash
}
