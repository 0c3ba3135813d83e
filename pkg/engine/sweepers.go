package engine

import (
	"context"
	"fmt"
	"time"
)

// DefaultRetentionDays is how long notification audit records are kept.
const DefaultRetentionDays = 30

// ResetBudgetFlags clears every budget's alert flags for the new
// period. Idempotent: a second run in the same period touches flags
// that are already false. Running late never causes a wrong alert,
// only a delayed re-fire.
func (e *Engine) ResetBudgetFlags(ctx context.Context) (int64, error) {
	count, err := e.store.ResetAlertFlags(ctx)
	if err != nil {
		return 0, fmt.Errorf("reset alert flags: %w", err)
	}
	e.logger.Info("budget alert flags reset", "budgets", count)
	return count, nil
}

// PurgeNotifications deletes audit records older than horizonDays.
// Safe to run concurrently with anything: audit records are only ever
// created or deleted, never mutated.
func (e *Engine) PurgeNotifications(ctx context.Context, horizonDays int) (int64, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultRetentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -horizonDays)

	count, err := e.store.PurgeNotifications(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge notifications: %w", err)
	}
	e.logger.Info("old notifications purged", "deleted", count, "horizon_days", horizonDays)
	return count, nil
}
