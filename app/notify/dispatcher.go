package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/agendazap/agendazap/app/database"
	"github.com/agendazap/agendazap/app/schedule"
)

// Sender delivers one message through a gateway instance
type Sender interface {
	Send(ctx context.Context, instanceName, token, number, text string) error
}

// StatusWriter persists per-stage send outcomes
type StatusWriter interface {
	UpdateStatus(ctx context.Context, id int64, stage database.Stage, status string, sentAt time.Time) error
}

// Dispatcher drives the per-record notification state machine. Each stage
// of each record moves out of PENDING at most once, and every transition
// is persisted before the next record is touched, so a crash loses at most
// the in-flight outcome.
type Dispatcher struct {
	store   StatusWriter
	sender  Sender
	orgName string
	now     func() time.Time
}

func NewDispatcher(store StatusWriter, sender Sender, orgName string) *Dispatcher {
	return &Dispatcher{
		store:   store,
		sender:  sender,
		orgName: orgName,
		now:     time.Now,
	}
}

// DispatchNew runs the ingestion-time stages for a freshly inserted
// appointment: either the initial confirmation, or — when the record
// arrived within the reminder window — an immediate reminder with the
// initial stage marked skipped.
func (d *Dispatcher) DispatchNew(ctx context.Context, appt database.Appointment, inst database.Instance) error {
	phone, ok := schedule.SelectPhone(appt.CellPhone, appt.ContactPhone, appt.Phone)
	if !ok {
		slog.Warn("No usable phone number, initial message failed",
			"appointment", appt.ID, "patient", appt.PatientName)
		return d.writeStatus(ctx, appt.ID, database.StageInitial, database.StatusFailed)
	}

	days, parsed := schedule.DaysBetween(appt.InclusionTS, appt.ReminderDate)
	if !parsed {
		slog.Warn("Unparseable inclusion date, falling back to initial message",
			"appointment", appt.ID, "inclusion_ts", appt.InclusionTS)
	}

	if schedule.DecidePath(days, parsed) == schedule.PathReminderOnly {
		slog.Info("Inclusion within reminder window, skipping initial message",
			"appointment", appt.ID, "days", days)
		if err := d.writeStatus(ctx, appt.ID, database.StageInitial, database.StatusSkippedReminderOnly); err != nil {
			return err
		}
		return d.sendStage(ctx, appt.ID, database.StageReminder, inst, phone, ReminderMessage(appt, d.orgName))
	}

	return d.sendStage(ctx, appt.ID, database.StageInitial, inst, phone, InitialMessage(appt, d.orgName))
}

// DispatchReminder runs the reminder stage for a record the sweep found
// due today.
func (d *Dispatcher) DispatchReminder(ctx context.Context, due database.DueReminder) error {
	phone, ok := schedule.SelectPhone(due.CellPhone, due.ContactPhone, due.Phone)
	if !ok {
		slog.Warn("No usable phone number, reminder failed",
			"appointment", due.ID, "patient", due.PatientName)
		return d.writeStatus(ctx, due.ID, database.StageReminder, database.StatusFailed)
	}

	inst := database.Instance{
		SubscriberID: due.SubscriberID,
		InstanceID:   due.InstanceID,
		InstanceName: due.InstanceName,
		Token:        due.Token,
	}

	return d.sendStage(ctx, due.ID, database.StageReminder, inst, phone, ReminderMessage(due.Appointment, d.orgName))
}

// sendStage attempts delivery and records the outcome. A delivery failure
// is not an error: it is persisted as FAILED and the batch moves on.
func (d *Dispatcher) sendStage(ctx context.Context, id int64, stage database.Stage, inst database.Instance, phone, text string) error {
	status := database.StatusSent
	if err := d.sender.Send(ctx, inst.InstanceName, inst.Token, phone, text); err != nil {
		status = database.StatusFailed
		slog.Warn("Message delivery failed",
			"appointment", id, "stage", string(stage), "phone", phone, "error", err)
	} else {
		slog.Info("Message delivered",
			"appointment", id, "stage", string(stage), "phone", phone)
	}

	return d.writeStatus(ctx, id, stage, status)
}

func (d *Dispatcher) writeStatus(ctx context.Context, id int64, stage database.Stage, status string) error {
	if err := d.store.UpdateStatus(ctx, id, stage, status, d.now()); err != nil {
		slog.Error("Failed to persist send outcome",
			"appointment", id, "stage", string(stage), "status", status, "error", err)
		return err
	}
	return nil
}
