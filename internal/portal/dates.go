package portal

import (
	"fmt"
	"strings"
	"time"

	"github.com/RishiKendai/assignment-portal/internal/models"
)

type Tier string

const (
	TierExpired Tier = "expired"
	TierUrgent  Tier = "urgent"
	TierNormal  Tier = "normal"
)

// urgentDays is the last days_left value still shown as urgent
const urgentDays = 2

// ParseDueDate reads a YYYY-MM-DD date and stores it as midnight UTC
func ParseDueDate(s string) (time.Time, error) {
	due, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("due date must be YYYY-MM-DD: %w", err)
	}
	return due, nil
}

// Today returns the current calendar date in loc, as midnight UTC
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return calendarDate(now.In(loc))
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysLeft is the whole number of calendar days from today to due. Both
// arguments are read by their calendar date; the clock time is ignored.
func DaysLeft(due, today time.Time) int {
	return int(calendarDate(due).Sub(calendarDate(today)).Hours() / 24)
}

func TierFor(daysLeft int) Tier {
	switch {
	case daysLeft < 0:
		return TierExpired
	case daysLeft <= urgentDays:
		return TierUrgent
	default:
		return TierNormal
	}
}

// CanUpload reports whether work may still be uploaded or withdrawn.
// The due date itself is still open.
func CanUpload(daysLeft int) bool {
	return daysLeft >= 0
}
