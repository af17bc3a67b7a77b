package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/connectivity"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/database"
	"github.com/JAM6481/bella-speaks-smartly-sub000/internal/settings"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger   *slog.Logger
	Store    database.Store
	Monitor  *connectivity.Monitor
	Settings *settings.Service
}

// RegisterAllTasks initializes and returns a map of all registered scheduled
// tasks. The keys match the task names used in the scheduler configuration.
func RegisterAllTasks(deps TaskDeps) map[string]TaskFunc {
	tasks := make(map[string]TaskFunc)

	tasks["connectivity_probe"] = newConnectivityProbeTask(deps)
	tasks["retention_cleanup"] = newRetentionCleanupTask(deps)

	deps.Logger.Info("Initialized scheduled tasks", "count", len(tasks))
	return tasks
}

// newConnectivityProbeTask refreshes the connection status snapshot. The
// consecutive-failure count is carried over unchanged by Refresh.
func newConnectivityProbeTask(deps TaskDeps) TaskFunc {
	return func(ctx context.Context) error {
		status := deps.Monitor.Refresh(ctx)
		deps.Logger.DebugContext(ctx, "connectivity probe completed",
			"online", status.IsOnline, "latency_ms", status.LatencyMs, "class", status.Class)
		return nil
	}
}

// newRetentionCleanupTask deletes messages older than the safety policy's
// retention limit.
func newRetentionCleanupTask(deps TaskDeps) TaskFunc {
	return func(ctx context.Context) error {
		policy := deps.Settings.SafetyPolicy(ctx)
		if policy.RetentionLimitDays <= 0 {
			deps.Logger.DebugContext(ctx, "retention cleanup skipped, no limit configured")
			return nil
		}

		cutoff := time.Now().AddDate(0, 0, -policy.RetentionLimitDays)
		deleted, err := deps.Store.DeleteMessagesBefore(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("retention cleanup failed: %w", err)
		}

		deps.Logger.InfoContext(ctx, "retention cleanup completed",
			"retention_days", policy.RetentionLimitDays, "deleted", deleted)
		return nil
	}
}
