package database

import (
	"context"
	"time"
)

type AppointmentRepository interface {
	Insert(ctx context.Context, appt Appointment) (int64, bool, error)
	UpdateStatus(ctx context.Context, id int64, stage Stage, status string, sentAt time.Time) error
	FindDueReminders(ctx context.Context, today string) ([]DueReminder, error)

	GetAppointmentCount(ctx context.Context) (int, error)
	GetStatusCounts(ctx context.Context) (StatusCounts, error)
	ListRecent(ctx context.Context, limit int) ([]Appointment, error)
}

type InstanceRepository interface {
	Resolve(ctx context.Context, subscriberID string) (*Instance, error)
	Upsert(ctx context.Context, inst Instance) error
	GetInstanceCount(ctx context.Context) (int, error)
}
