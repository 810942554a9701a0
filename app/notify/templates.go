package notify

import (
	"fmt"
	"strings"

	"github.com/agendazap/agendazap/app/database"
)

// InitialMessage builds the confirmation text sent right after an
// appointment is ingested.
func InitialMessage(appt database.Appointment, orgName string) string {
	return fmt.Sprintf(
		"Olá, %s, Sou a Assistente Virtual de Agendamentos da %s.\n\n"+
			"Estamos entrando em contato para confirmar o seu agendamento do dia %s às %s com o %s, %s.\n\n"+
			"LOCAL DE ATENDIMENTO: %s, Rua %s - %s, %s, %s",
		appt.PatientName, orgName,
		appt.ScheduledDate, appt.ScheduledTime, appt.PractitionerName, appt.Specialty,
		appt.FacilityName, appt.Street, appt.FacilityNumber, appt.District, appt.Municipality,
	)
}

// ReminderMessage builds the reminder text sent four days before the
// visit (or immediately, on the reminder-only path).
func ReminderMessage(appt database.Appointment, orgName string) string {
	return fmt.Sprintf(
		"Olá, %s, Sou a Assistente Virtual de Agendamentos da %s.\n\n"+
			"Lembrete: sua consulta está marcada para %s às %s \n\n"+
			"Com %s, %s.\n\n"+
			"Podemos confirmar sua presença?\n\n"+
			"LOCAL DE ATENDIMENTO: %s \n\n"+
			"RUA %s - %s, %s, %s",
		appt.PatientName, orgName,
		appt.ScheduledDate, appt.ScheduledTime,
		strings.ToUpper(appt.PractitionerName), strings.ToUpper(appt.Specialty),
		appt.FacilityName,
		strings.ToUpper(appt.Street), appt.FacilityNumber,
		strings.ToUpper(appt.District), strings.ToUpper(appt.Municipality),
	)
}
