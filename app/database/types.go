package database

import (
	"time"
)

// Status values for a notification stage. A stage leaves StatusPending at
// most once; there is no automatic resend.
const (
	StatusPending = "PENDING"
	StatusSent    = "SENT"
	StatusFailed  = "FAILED"
	// StatusSkippedReminderOnly applies to the initial stage only: the
	// record was ingested too close to its reminder date, so the initial
	// confirmation was skipped in favor of an immediate reminder.
	StatusSkippedReminderOnly = "SKIPPED_REMINDER_ONLY"
)

// Stage identifies which notification stage a status update targets
type Stage string

const (
	StageInitial  Stage = "initial"
	StageReminder Stage = "reminder"
)

// Appointment is one row of the appointments table. Rows are unique per
// (SubscriberID, InclusionTS, ScheduledDate) and are never deleted.
type Appointment struct {
	ID            int64
	SubscriberID  string // "Usuário" column of the export
	InclusionTS   string // DD/MM/YYYY[ HH:MM:SS]
	ScheduledDate string // DD/MM/YYYY
	ScheduledTime string // HH:MM, seconds truncated

	UnitCode           string // "U.S.At." column, descriptive only
	FacilityName       string
	PractitionerName   string
	Specialty          string // CBO description, upper-cased
	PatientCode        string
	PatientName        string
	Phone              string
	CellPhone          string
	ContactPhone       string
	VisitReason        string
	Street             string
	FacilityNumber     string
	FacilityComplement string
	District           string
	Municipality       string // title-cased

	InstanceID     string
	InitialStatus  string
	ReminderStatus string
	ReminderDate   string // ScheduledDate - 4 days, DD/MM/YYYY
	LastSentAt     *time.Time
	CreatedAt      time.Time
}

// Instance is one row of the instance_mappings table
type Instance struct {
	SubscriberID string
	InstanceID   string
	InstanceName string
	Token        string
}

// DueReminder is an appointment due for its reminder today, joined with
// the gateway credentials it routes through
type DueReminder struct {
	Appointment
	InstanceName string
	Token        string
}

// StatusCounts is the per-stage status breakdown exposed by /stats
type StatusCounts struct {
	Initial  map[string]int
	Reminder map[string]int
}
