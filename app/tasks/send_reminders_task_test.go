package tasks

import (
	"context"
	"strings"
	"testing"

	"github.com/agendazap/agendazap/app/database"
)

func seedAppointment(t *testing.T, env *testEnv, reminderDate string) int64 {
	t.Helper()

	id, inserted, err := env.apptRepo.Insert(context.Background(), database.Appointment{
		SubscriberID:   "2",
		InclusionTS:    "01/01/2025 08:00:00",
		ScheduledDate:  "20/05/2025",
		ScheduledTime:  "14:30",
		FacilityName:   "UBS CENTRAL",
		PatientName:    "Maria de Souza",
		CellPhone:      "17991406399",
		InstanceID:     "9cb57386",
		InitialStatus:  database.StatusSent,
		ReminderStatus: database.StatusPending,
		ReminderDate:   reminderDate,
	})
	if err != nil || !inserted {
		t.Fatalf("Failed to seed appointment: inserted=%v err=%v", inserted, err)
	}
	return id
}

func TestSendRemindersTaskExecute(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	id := seedAppointment(t, env, "16/05/2025")
	seedAppointment(t, env, "21/05/2025") // scheduled later, not yet due

	task := NewSendRemindersTask("16/05/2025", env.apptRepo, env.dispatcher)
	if err := task.Execute(ctx); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	if len(env.sender.sent) != 1 {
		t.Fatalf("Expected 1 reminder sent, got: %d", len(env.sender.sent))
	}
	if env.sender.sent[0].Instance != "TesteWebApp" {
		t.Errorf("Expected mapped instance, got: %s", env.sender.sent[0].Instance)
	}
	if !strings.Contains(env.sender.sent[0].Text, "Lembrete") {
		t.Errorf("Expected reminder text, got: %q", env.sender.sent[0].Text)
	}

	stored, err := env.apptRepo.GetByID(ctx, id)
	if err != nil || stored == nil {
		t.Fatalf("GetByID() failed: %v", err)
	}
	if stored.ReminderStatus != database.StatusSent {
		t.Errorf("Expected reminder SENT, got: %s", stored.ReminderStatus)
	}
}

func TestSendRemindersTaskSecondSweepIsEmpty(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	seedAppointment(t, env, "16/05/2025")

	for i := 0; i < 2; i++ {
		task := NewSendRemindersTask("16/05/2025", env.apptRepo, env.dispatcher)
		if err := task.Execute(ctx); err != nil {
			t.Fatalf("Execute() #%d error: %v", i+1, err)
		}
	}

	if len(env.sender.sent) != 1 {
		t.Errorf("Expected exactly 1 reminder across both sweeps, got: %d", len(env.sender.sent))
	}
}

func TestSendRemindersTaskNothingDue(t *testing.T) {
	env := setupTestEnv(t)

	task := NewSendRemindersTask("16/05/2025", env.apptRepo, env.dispatcher)
	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}
	if len(env.sender.sent) != 0 {
		t.Errorf("Expected no sends, got: %d", len(env.sender.sent))
	}
}
