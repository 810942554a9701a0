package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/agendazap/agendazap/app/database"
	"github.com/agendazap/agendazap/app/export"
	"github.com/agendazap/agendazap/app/notify"
	"github.com/agendazap/agendazap/app/schedule"
)

// IngestExportTask processes one export file: normalize, route, persist,
// dispatch, then dispose of the file. Per-record failures are recovered
// locally; only a file-level failure returns an error (and leaves the
// file in place for the retry).
type IngestExportTask struct {
	Task
	FilePath   string
	parser     *export.Parser
	apptRepo   database.AppointmentRepository
	instRepo   database.InstanceRepository
	dispatcher *notify.Dispatcher
}

func NewIngestExportTask(filePath string, parser *export.Parser, apptRepo database.AppointmentRepository,
	instRepo database.InstanceRepository, dispatcher *notify.Dispatcher) *IngestExportTask {
	return &IngestExportTask{
		Task:       NewTask(TaskTypeIngestExport, filePath),
		FilePath:   filePath,
		parser:     parser,
		apptRepo:   apptRepo,
		instRepo:   instRepo,
		dispatcher: dispatcher,
	}
}

func (t *IngestExportTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	records, stats, err := t.parser.ParseFile(t.FilePath)
	if err != nil {
		slog.Error("Task failed", "type", "IngestExport", "file", t.FilePath, "error", err)
		return fmt.Errorf("failed to parse export file: %w", err)
	}

	inserted := 0
	duplicates := 0
	unroutable := 0
	invalidDates := 0

	for _, rec := range records {
		inst, err := t.instRepo.Resolve(ctx, rec.SubscriberID)
		if err != nil {
			return fmt.Errorf("failed to resolve instance: %w", err)
		}
		if inst == nil {
			unroutable++
			slog.Warn("No instance mapping for subscriber, record dropped",
				"subscriber_id", rec.SubscriberID, "patient", rec.PatientName)
			continue
		}

		reminderDate, ok := schedule.ReminderDate(rec.ScheduledDate)
		if !ok {
			invalidDates++
			slog.Warn("Invalid scheduled date, record dropped",
				"scheduled_date", rec.ScheduledDate, "patient", rec.PatientName)
			continue
		}

		appt := recordToAppointment(rec, inst.InstanceID, reminderDate)

		id, wasInserted, err := t.apptRepo.Insert(ctx, appt)
		if err != nil {
			return fmt.Errorf("failed to insert appointment: %w", err)
		}
		if !wasInserted {
			duplicates++
			continue
		}
		inserted++
		appt.ID = id

		// Delivery failures are persisted per record and never abort the
		// batch; only a status-write failure does.
		if err := t.dispatcher.DispatchNew(ctx, appt, *inst); err != nil {
			return fmt.Errorf("failed to record dispatch outcome: %w", err)
		}
	}

	if err := os.Remove(t.FilePath); err != nil {
		return fmt.Errorf("failed to remove processed export file: %w", err)
	}

	slog.Info("Task completed",
		"type", "IngestExport",
		"file", t.FilePath,
		"rows", stats.Rows,
		"records", stats.Records,
		"inserted", inserted,
		"duplicates", duplicates,
		"unroutable", unroutable,
		"invalid_dates", invalidDates,
		"skipped_empty", stats.SkippedEmpty,
		"skipped_missing_key", stats.SkippedMissingKey,
		"duration", t.GetDuration())

	return nil
}

func recordToAppointment(rec export.Record, instanceID, reminderDate string) database.Appointment {
	return database.Appointment{
		SubscriberID:       rec.SubscriberID,
		InclusionTS:        rec.InclusionTS,
		ScheduledDate:      rec.ScheduledDate,
		ScheduledTime:      rec.ScheduledTime,
		UnitCode:           rec.UnitCode,
		FacilityName:       rec.FacilityName,
		PractitionerName:   rec.PractitionerName,
		Specialty:          rec.Specialty,
		PatientCode:        rec.PatientCode,
		PatientName:        rec.PatientName,
		Phone:              rec.Phone,
		CellPhone:          rec.CellPhone,
		ContactPhone:       rec.ContactPhone,
		VisitReason:        rec.VisitReason,
		Street:             rec.Street,
		FacilityNumber:     rec.FacilityNumber,
		FacilityComplement: rec.FacilityComplement,
		District:           rec.District,
		Municipality:       rec.Municipality,
		InstanceID:         instanceID,
		InitialStatus:      database.StatusPending,
		ReminderStatus:     database.StatusPending,
		ReminderDate:       reminderDate,
	}
}
