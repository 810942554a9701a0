package database

import (
	"context"
	"database/sql"
	"fmt"
)

var _ InstanceRepository = (*InstanceRepositoryImpl)(nil)

// InstanceRepositoryImpl handles database operations for instance mappings
type InstanceRepositoryImpl struct {
	db *DB
}

func NewInstanceRepository(db *DB) *InstanceRepositoryImpl {
	return &InstanceRepositoryImpl{db: db}
}

// Resolve looks up the gateway instance for a subscriber. Returns nil when
// no mapping exists; an unmapped subscriber cannot be notified and its
// records must not be persisted.
func (r *InstanceRepositoryImpl) Resolve(ctx context.Context, subscriberID string) (*Instance, error) {
	var inst Instance
	err := r.db.QueryRowContext(ctx, `
		SELECT subscriber_id, instance_id, instance_name, token
		FROM instance_mappings
		WHERE subscriber_id = ?
	`, subscriberID).Scan(&inst.SubscriberID, &inst.InstanceID, &inst.InstanceName, &inst.Token)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve instance: %w", err)
	}

	return &inst, nil
}

// Upsert inserts or replaces a mapping; the mapping table is reference
// data synced from configuration files at startup.
func (r *InstanceRepositoryImpl) Upsert(ctx context.Context, inst Instance) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO instance_mappings (subscriber_id, instance_id, instance_name, token)
		VALUES (?, ?, ?, ?)
	`, inst.SubscriberID, inst.InstanceID, inst.InstanceName, inst.Token)
	if err != nil {
		return fmt.Errorf("failed to upsert instance mapping: %w", err)
	}

	return nil
}

// GetInstanceCount returns the number of configured mappings
func (r *InstanceRepositoryImpl) GetInstanceCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM instance_mappings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get instance count: %w", err)
	}
	return count, nil
}
