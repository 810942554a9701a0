package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

var _ AppointmentRepository = (*AppointmentRepositoryImpl)(nil)

// AppointmentRepositoryImpl handles database operations for appointments
type AppointmentRepositoryImpl struct {
	db *DB
}

func NewAppointmentRepository(db *DB) *AppointmentRepositoryImpl {
	return &AppointmentRepositoryImpl{db: db}
}

const appointmentColumns = `id, subscriber_id, inclusion_ts, scheduled_date, scheduled_time,
	unit_code, facility_name, practitioner_name, specialty, patient_code, patient_name,
	phone, cellphone, contact_phone, visit_reason, street, facility_number,
	facility_complement, district, municipality, instance_id,
	initial_status, reminder_status, reminder_date, last_sent_at, created_at`

func scanAppointment(row interface{ Scan(...any) error }) (Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.SubscriberID, &a.InclusionTS, &a.ScheduledDate, &a.ScheduledTime,
		&a.UnitCode, &a.FacilityName, &a.PractitionerName, &a.Specialty, &a.PatientCode, &a.PatientName,
		&a.Phone, &a.CellPhone, &a.ContactPhone, &a.VisitReason, &a.Street, &a.FacilityNumber,
		&a.FacilityComplement, &a.District, &a.Municipality, &a.InstanceID,
		&a.InitialStatus, &a.ReminderStatus, &a.ReminderDate, &a.LastSentAt, &a.CreatedAt,
	)
	return a, err
}

// Insert stores a new appointment under the natural-key uniqueness
// constraint and returns its row id. Returns false when a row with the
// same (subscriber_id, inclusion_ts, scheduled_date) already exists; the
// existing row is left untouched, which makes re-ingesting the same
// export a no-op.
func (r *AppointmentRepositoryImpl) Insert(ctx context.Context, appt Appointment) (int64, bool, error) {
	result, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO appointments (
			subscriber_id, inclusion_ts, scheduled_date, scheduled_time,
			unit_code, facility_name, practitioner_name, specialty, patient_code, patient_name,
			phone, cellphone, contact_phone, visit_reason, street, facility_number,
			facility_complement, district, municipality, instance_id,
			initial_status, reminder_status, reminder_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		appt.SubscriberID, appt.InclusionTS, appt.ScheduledDate, appt.ScheduledTime,
		appt.UnitCode, appt.FacilityName, appt.PractitionerName, appt.Specialty, appt.PatientCode, appt.PatientName,
		appt.Phone, appt.CellPhone, appt.ContactPhone, appt.VisitReason, appt.Street, appt.FacilityNumber,
		appt.FacilityComplement, appt.District, appt.Municipality, appt.InstanceID,
		StatusPending, StatusPending, appt.ReminderDate,
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert appointment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to read inserted row id: %w", err)
	}

	return id, true, nil
}

// GetByID retrieves an appointment by its row id
func (r *AppointmentRepositoryImpl) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments WHERE id = ?", id)

	appt, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}

	return &appt, nil
}

// GetByNaturalKey retrieves an appointment by its natural key
func (r *AppointmentRepositoryImpl) GetByNaturalKey(ctx context.Context, subscriberID, inclusionTS, scheduledDate string) (*Appointment, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+appointmentColumns+` FROM appointments
		 WHERE subscriber_id = ? AND inclusion_ts = ? AND scheduled_date = ?`,
		subscriberID, inclusionTS, scheduledDate)

	appt, err := scanAppointment(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment by natural key: %w", err)
	}

	return &appt, nil
}

// UpdateStatus records the outcome of a send attempt for one stage of one
// appointment. Single-row update; the connection pool is capped at one
// connection, so ingestion and sweep updates never interleave on a row.
func (r *AppointmentRepositoryImpl) UpdateStatus(ctx context.Context, id int64, stage Stage, status string, sentAt time.Time) error {
	var column string
	switch stage {
	case StageInitial:
		column = "initial_status"
	case StageReminder:
		column = "reminder_status"
	default:
		return fmt.Errorf("unknown notification stage: %q", stage)
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE appointments
		SET `+column+` = ?, last_sent_at = ?
		WHERE id = ?
	`, status, sentAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update %s status: %w", column, err)
	}

	return nil
}

// FindDueReminders returns appointments whose reminder is scheduled for
// today (DD/MM/YYYY) and still pending, joined with the gateway instance
// they route through. Records whose mapping has since disappeared are not
// returned; they stay pending and surface again once the mapping is back.
func (r *AppointmentRepositoryImpl) FindDueReminders(ctx context.Context, today string) ([]DueReminder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT a.id, a.subscriber_id, a.inclusion_ts, a.scheduled_date, a.scheduled_time,
		       a.unit_code, a.facility_name, a.practitioner_name, a.specialty, a.patient_code, a.patient_name,
		       a.phone, a.cellphone, a.contact_phone, a.visit_reason, a.street, a.facility_number,
		       a.facility_complement, a.district, a.municipality, a.instance_id,
		       a.initial_status, a.reminder_status, a.reminder_date, a.last_sent_at, a.created_at,
		       im.instance_name, im.token
		FROM appointments a
		JOIN instance_mappings im ON a.subscriber_id = im.subscriber_id
		WHERE a.reminder_date = ? AND a.reminder_status = ?
		ORDER BY a.id
	`, today, StatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	var due []DueReminder
	for rows.Next() {
		var d DueReminder
		err := rows.Scan(
			&d.ID, &d.SubscriberID, &d.InclusionTS, &d.ScheduledDate, &d.ScheduledTime,
			&d.UnitCode, &d.FacilityName, &d.PractitionerName, &d.Specialty, &d.PatientCode, &d.PatientName,
			&d.Phone, &d.CellPhone, &d.ContactPhone, &d.VisitReason, &d.Street, &d.FacilityNumber,
			&d.FacilityComplement, &d.District, &d.Municipality, &d.InstanceID,
			&d.InitialStatus, &d.ReminderStatus, &d.ReminderDate, &d.LastSentAt, &d.CreatedAt,
			&d.InstanceName, &d.Token,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due reminder: %w", err)
		}
		due = append(due, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating due reminders: %w", err)
	}

	return due, nil
}

// GetAppointmentCount returns the total number of stored appointments
func (r *AppointmentRepositoryImpl) GetAppointmentCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM appointments").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get appointment count: %w", err)
	}
	return count, nil
}

// GetStatusCounts returns the status breakdown for both stages
func (r *AppointmentRepositoryImpl) GetStatusCounts(ctx context.Context) (StatusCounts, error) {
	counts := StatusCounts{
		Initial:  make(map[string]int),
		Reminder: make(map[string]int),
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT initial_status, reminder_status, COUNT(*)
		FROM appointments
		GROUP BY initial_status, reminder_status
	`)
	if err != nil {
		return counts, fmt.Errorf("failed to get status counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var initial, reminder string
		var n int
		if err := rows.Scan(&initial, &reminder, &n); err != nil {
			return counts, fmt.Errorf("failed to scan status counts: %w", err)
		}
		counts.Initial[initial] += n
		counts.Reminder[reminder] += n
	}

	if err := rows.Err(); err != nil {
		return counts, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// ListRecent returns the most recently created appointments
func (r *AppointmentRepositoryImpl) ListRecent(ctx context.Context, limit int) ([]Appointment, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+appointmentColumns+" FROM appointments ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan appointment: %w", err)
		}
		appts = append(appts, appt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating appointments: %w", err)
	}

	return appts, nil
}
