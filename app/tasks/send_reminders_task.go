package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agendazap/agendazap/app/database"
	"github.com/agendazap/agendazap/app/notify"
)

// SendRemindersTask is the periodic sweep: it picks every appointment
// whose reminder date equals today and whose reminder is still pending,
// and dispatches the reminder. A record dispatched once leaves PENDING
// and is never picked up again.
type SendRemindersTask struct {
	Task
	Today      string
	apptRepo   database.AppointmentRepository
	dispatcher *notify.Dispatcher
}

func NewSendRemindersTask(today string, apptRepo database.AppointmentRepository, dispatcher *notify.Dispatcher) *SendRemindersTask {
	return &SendRemindersTask{
		Task:       NewTask(TaskTypeSendReminders, today),
		Today:      today,
		apptRepo:   apptRepo,
		dispatcher: dispatcher,
	}
}

func (t *SendRemindersTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	due, err := t.apptRepo.FindDueReminders(ctx, t.Today)
	if err != nil {
		slog.Error("Task failed", "type", "SendReminders", "today", t.Today, "error", err)
		return fmt.Errorf("failed to find due reminders: %w", err)
	}

	if len(due) == 0 {
		slog.Debug("No reminders due", "today", t.Today)
		return nil
	}

	for _, reminder := range due {
		if err := t.dispatcher.DispatchReminder(ctx, reminder); err != nil {
			return fmt.Errorf("failed to record reminder outcome: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "SendReminders",
		"today", t.Today,
		"due", len(due),
		"duration", t.GetDuration())

	return nil
}
