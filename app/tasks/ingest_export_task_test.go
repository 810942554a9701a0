package tasks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agendazap/agendazap/app/database"
	"github.com/agendazap/agendazap/app/export"
	"github.com/agendazap/agendazap/app/notify"
)

const exportHeader = "U.S.At.;Razão Social da Unidade de Saúde de Aten;Nome do Profissional;" +
	"Descrição do CBO Profissional;Data;Código;Usuário;Nome do Usuário;Telefone;Tel.Celular;" +
	"Tel.Contato;Descrição Motivo da Consulta;Horário;Inclusão;Complemento da Un. de Atendimento;" +
	"Número da Unidade de Atendimento;Nome do Município da Un. Atendimento;" +
	"Nome do Bairro Un. Atendimento;Nome do Logradouro da Un. Atendimento"

type sentMessage struct {
	Instance string
	Number   string
	Text     string
}

type fakeSender struct {
	sent []sentMessage
}

func (f *fakeSender) Send(ctx context.Context, instanceName, token, number, text string) error {
	f.sent = append(f.sent, sentMessage{Instance: instanceName, Number: number, Text: text})
	return nil
}

type testEnv struct {
	apptRepo   *database.AppointmentRepositoryImpl
	instRepo   *database.InstanceRepositoryImpl
	dispatcher *notify.Dispatcher
	sender     *fakeSender
	dir        string
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()

	db, err := database.NewConnection(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	apptRepo := database.NewAppointmentRepository(db)
	instRepo := database.NewInstanceRepository(db)

	err = instRepo.Upsert(context.Background(), database.Instance{
		SubscriberID: "2", InstanceID: "9cb57386", InstanceName: "TesteWebApp", Token: "tok",
	})
	if err != nil {
		t.Fatalf("Failed to seed instance mapping: %v", err)
	}

	sender := &fakeSender{}
	dispatcher := notify.NewDispatcher(apptRepo, sender, "Secretaria de Saúde")

	return &testEnv{
		apptRepo:   apptRepo,
		instRepo:   instRepo,
		dispatcher: dispatcher,
		sender:     sender,
		dir:        dir,
	}
}

func writeExportFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func exportRow(subscriberID, scheduledDate, inclusionTS, cellPhone string) string {
	return subscriberID + ";UBS CENTRAL;Dr. João;MÉDICO;" + scheduledDate +
		";123;" + subscriberID + ";Maria de Souza;;" + cellPhone +
		";;consulta;14:30:00;" + inclusionTS + ";;45;BEBEDOURO;Centro;Rua A\n"
}

func TestIngestExportTaskExecute(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	data := exportHeader + "\n" + exportRow("2", "20/05/2025", "01/01/2025 08:00:00", "17991406399")
	path := writeExportFile(t, env.dir, "Agendamento de Consulta.csv", data)

	task := NewIngestExportTask(path, export.NewParser(), env.apptRepo, env.instRepo, env.dispatcher)
	if err := task.Execute(ctx); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	count, _ := env.apptRepo.GetAppointmentCount(ctx)
	if count != 1 {
		t.Fatalf("Expected 1 appointment, got: %d", count)
	}

	appts, err := env.apptRepo.ListRecent(ctx, 1)
	if err != nil || len(appts) != 1 {
		t.Fatalf("ListRecent() failed: %v", err)
	}
	if appts[0].InitialStatus != database.StatusSent {
		t.Errorf("Expected initial SENT, got: %s", appts[0].InitialStatus)
	}
	if appts[0].ReminderDate != "16/05/2025" {
		t.Errorf("Expected reminder date 4 days before visit, got: %s", appts[0].ReminderDate)
	}
	if appts[0].InstanceID != "9cb57386" {
		t.Errorf("Expected routed instance id, got: %s", appts[0].InstanceID)
	}

	if len(env.sender.sent) != 1 {
		t.Fatalf("Expected 1 message sent, got: %d", len(env.sender.sent))
	}
	if env.sender.sent[0].Number != "+5517991406399" {
		t.Errorf("Expected formatted number, got: %s", env.sender.sent[0].Number)
	}
	if !strings.Contains(env.sender.sent[0].Text, "confirmar o seu agendamento") {
		t.Errorf("Expected initial confirmation text, got: %q", env.sender.sent[0].Text)
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected processed file to be removed")
	}
}

func TestIngestExportTaskIdempotentReingestion(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	data := exportHeader + "\n" + exportRow("2", "20/05/2025", "01/01/2025 08:00:00", "17991406399")

	for i := 0; i < 2; i++ {
		path := writeExportFile(t, env.dir, "export.csv", data)
		task := NewIngestExportTask(path, export.NewParser(), env.apptRepo, env.instRepo, env.dispatcher)
		if err := task.Execute(ctx); err != nil {
			t.Fatalf("Execute() #%d error: %v", i+1, err)
		}
	}

	count, _ := env.apptRepo.GetAppointmentCount(ctx)
	if count != 1 {
		t.Errorf("Expected re-ingestion to insert nothing, got %d rows", count)
	}
	if len(env.sender.sent) != 1 {
		t.Errorf("Expected no message for the duplicate, got: %d", len(env.sender.sent))
	}
}

func TestIngestExportTaskDropsUnmappedSubscriber(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	data := exportHeader + "\n" +
		exportRow("99", "20/05/2025", "01/01/2025 08:00:00", "17991406399") +
		exportRow("2", "20/05/2025", "01/01/2025 08:00:00", "17991406399")
	path := writeExportFile(t, env.dir, "export.csv", data)

	task := NewIngestExportTask(path, export.NewParser(), env.apptRepo, env.instRepo, env.dispatcher)
	if err := task.Execute(ctx); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	count, _ := env.apptRepo.GetAppointmentCount(ctx)
	if count != 1 {
		t.Errorf("Expected unmapped record to be dropped, got %d rows", count)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("Expected file to be removed despite dropped records")
	}
}

func TestIngestExportTaskDropsInvalidScheduledDate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	data := exportHeader + "\n" + exportRow("2", "not-a-date", "01/01/2025 08:00:00", "17991406399")
	path := writeExportFile(t, env.dir, "export.csv", data)

	task := NewIngestExportTask(path, export.NewParser(), env.apptRepo, env.instRepo, env.dispatcher)
	if err := task.Execute(ctx); err != nil {
		t.Fatalf("Execute() error: %v", err)
	}

	count, _ := env.apptRepo.GetAppointmentCount(ctx)
	if count != 0 {
		t.Errorf("Expected invalid date record to be dropped, got %d rows", count)
	}
	if len(env.sender.sent) != 0 {
		t.Errorf("Expected no messages, got: %d", len(env.sender.sent))
	}
}

func TestIngestExportTaskParseFailureKeepsFile(t *testing.T) {
	env := setupTestEnv(t)

	path := writeExportFile(t, env.dir, "export.csv", "")

	task := NewIngestExportTask(path, export.NewParser(), env.apptRepo, env.instRepo, env.dispatcher)
	if err := task.Execute(context.Background()); err == nil {
		t.Fatal("Expected error for unparseable file")
	}

	if _, err := os.Stat(path); err != nil {
		t.Error("Expected unparseable file to stay in place")
	}
}

func TestIngestExportTaskCancelledContext(t *testing.T) {
	env := setupTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewIngestExportTask("ignored.csv", export.NewParser(), env.apptRepo, env.instRepo, env.dispatcher)
	if err := task.Execute(ctx); err == nil {
		t.Error("Expected context error")
	}
}
