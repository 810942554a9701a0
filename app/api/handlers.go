package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/agendazap/agendazap/app/database"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	apptRepo database.AppointmentRepository
	instRepo database.InstanceRepository
}

func NewHandler(apptRepo database.AppointmentRepository, instRepo database.InstanceRepository) *Handler {
	return &Handler{
		apptRepo: apptRepo,
		instRepo: instRepo,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	count, err := h.apptRepo.GetAppointmentCount(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "appointment_count", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unreachable"})
		return
	}
	health["status"] = "ok"
	health["appointments"] = count

	if instances, err := h.instRepo.GetInstanceCount(c.Request.Context()); err == nil {
		health["instances"] = instances
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	counts, err := h.apptRepo.GetStatusCounts(c.Request.Context())
	if err != nil {
		slog.Error("Database error", "operation", "status_counts", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"initial_message": counts.Initial,
		"reminder":        counts.Reminder,
	})
}

func (h *Handler) APIListAppointments(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	appts, err := h.apptRepo.ListRecent(c.Request.Context(), limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_appointments", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	out := make([]map[string]interface{}, 0, len(appts))
	for _, a := range appts {
		out = append(out, map[string]interface{}{
			"id":              a.ID,
			"subscriber_id":   a.SubscriberID,
			"patient_name":    a.PatientName,
			"cellphone":       redactPhone(a.CellPhone),
			"scheduled_date":  a.ScheduledDate,
			"scheduled_time":  a.ScheduledTime,
			"facility":        a.FacilityName,
			"practitioner":    a.PractitionerName,
			"specialty":       a.Specialty,
			"initial_status":  a.InitialStatus,
			"reminder_status": a.ReminderStatus,
			"reminder_date":   a.ReminderDate,
			"last_sent_at":    a.LastSentAt,
			"created_at":      a.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"appointments": out,
		"total":        len(out),
	})
}

// redactPhone keeps only the last four digits of a stored number
func redactPhone(phone string) string {
	if len(phone) <= 4 {
		return phone
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
