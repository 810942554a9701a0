// Package schedule holds the pure date and routing rules of the
// notification workflow: when the reminder fires and whether a freshly
// ingested appointment still warrants an initial confirmation.
package schedule

import (
	"strings"
	"time"
)

// DateLayout is the DD/MM/YYYY format used throughout the export and the
// store.
const DateLayout = "02/01/2006"

// reminderLeadDays is how many days before the visit the reminder fires
const reminderLeadDays = 4

// Path is the dispatch decision for a newly ingested appointment
type Path int

const (
	// PathInitial sends the initial confirmation now and leaves the
	// reminder to the daily sweep.
	PathInitial Path = iota
	// PathReminderOnly skips the initial confirmation and sends the
	// reminder immediately: the record arrived too close to its reminder
	// date for a separate confirmation to be useful.
	PathReminderOnly
)

func (p Path) String() string {
	if p == PathReminderOnly {
		return "reminder_only"
	}
	return "initial"
}

// ReminderDate computes the reminder date (scheduled date minus four days).
// Returns false when the scheduled date does not parse; such records must
// be rejected before persistence.
func ReminderDate(scheduledDate string) (string, bool) {
	d, err := time.Parse(DateLayout, scheduledDate)
	if err != nil {
		return "", false
	}
	return d.AddDate(0, 0, -reminderLeadDays).Format(DateLayout), true
}

// DaysBetween returns the number of days from the inclusion timestamp
// (date part only, a trailing HH:MM:SS is ignored) to the given date.
// Returns false when either side fails to parse.
func DaysBetween(inclusionTS, date string) (int, bool) {
	inclusionDate, _, _ := strings.Cut(inclusionTS, " ")

	from, err := time.Parse(DateLayout, inclusionDate)
	if err != nil {
		return 0, false
	}
	to, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, false
	}

	return int(to.Sub(from).Hours() / 24), true
}

// DecidePath picks the dispatch path from the distance between inclusion
// and reminder date. An unparseable distance falls back to the initial
// path, treating the record as far from its reminder.
func DecidePath(days int, ok bool) Path {
	if ok && days <= reminderLeadDays {
		return PathReminderOnly
	}
	return PathInitial
}
