package tasks

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/agendazap/agendazap/app/config"
	"github.com/agendazap/agendazap/app/database"
)

// SyncInstancesTask mirrors the configured instance mappings into the
// store so ingestion can resolve routes with a single lookup.
type SyncInstancesTask struct {
	Task
	Instances []config.InstanceConfig
	instRepo  database.InstanceRepository
}

func NewSyncInstancesTask(instances []config.InstanceConfig, instRepo database.InstanceRepository) *SyncInstancesTask {
	return &SyncInstancesTask{
		Task:      NewTask(TaskTypeSyncInstances, "instances"),
		Instances: instances,
		instRepo:  instRepo,
	}
}

func (t *SyncInstancesTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for _, inst := range t.Instances {
		err := t.instRepo.Upsert(ctx, database.Instance{
			SubscriberID: inst.SubscriberID,
			InstanceID:   inst.InstanceID,
			InstanceName: inst.InstanceName,
			Token:        inst.Token,
		})
		if err != nil {
			slog.Error("Task failed", "type", "SyncInstances", "subscriber_id", inst.SubscriberID, "error", err)
			return fmt.Errorf("failed to sync instance mapping: %w", err)
		}
	}

	slog.Info("Task completed",
		"type", "SyncInstances",
		"count", len(t.Instances),
		"duration", t.GetDuration())

	return nil
}
