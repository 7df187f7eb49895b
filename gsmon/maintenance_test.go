package gsmon

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLogFile(t *testing.T, dir, name string, age time.Duration, now time.Time) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("x\n"), 0600))

	mtime := now.Add(-age)
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	return path
}

func TestPruneLogs(t *testing.T) {
	dir := t.TempDir()
	now := time.Now()

	old := writeLogFile(t, dir, "old.log", LogRetention+time.Hour, now)
	edge := writeLogFile(t, dir, "edge.log", LogRetention, now)
	fresh := writeLogFile(t, dir, "fresh.log", time.Hour, now)
	other := writeLogFile(t, dir, "notes.txt", LogRetention+time.Hour, now)

	removed, err := pruneLogs(dir, LogRetention, now)
	require.NoError(t, err)
	require.Equal(t, []string{old}, removed)

	assert.NoFileExists(t, old)
	// Exactly at the retention boundary is kept.
	assert.FileExists(t, edge)
	assert.FileExists(t, fresh)
	// Non-log files are never touched.
	assert.FileExists(t, other)
}

func TestScheduler(t *testing.T) {
	t.Run("disabled scheduler does nothing", func(t *testing.T) {
		j := mockJournal{}

		cfg := DefaultConfig()
		cfg.MaintenanceEnabled = false

		sched, err := NewScheduler(cfg, t.TempDir(), &j)
		require.NoError(t, err)

		now := time.Now()
		assert.False(t, sched.Due(now))
		assert.False(t, sched.Due(now.Add(48*time.Hour)))

		assert.Nil(t, sched.Run(now))
		assert.Empty(t, j.Journals())
	})

	t.Run("due check follows the cron schedule", func(t *testing.T) {
		j := mockJournal{}

		cfg := DefaultConfig()
		cfg.MaintenanceSchedule = "@every 1h"

		sched, err := NewScheduler(cfg, t.TempDir(), &j)
		require.NoError(t, err)

		now := time.Now()
		assert.False(t, sched.Due(now), "first due-check only arms the schedule")
		assert.False(t, sched.Due(now.Add(30*time.Minute)))
		assert.True(t, sched.Due(now.Add(time.Hour)))

		later := now.Add(time.Hour)
		sched.Run(later)
		assert.False(t, sched.Due(later), "a pass advances the schedule")
		assert.True(t, sched.Due(later.Add(time.Hour)))
	})

	t.Run("cycle runs all tasks and journals results", func(t *testing.T) {
		j := mockJournal{}
		dir := t.TempDir()
		now := time.Now()

		writeLogFile(t, dir, "stale.log", LogRetention+time.Hour, now)

		sched, err := NewScheduler(DefaultConfig(), dir, &j)
		require.NoError(t, err)

		results := sched.Run(now)
		require.Len(t, results, 3)

		assert.Equal(t, TaskLogCleanup, results[0].Task)
		assert.Equal(t, MaintenanceOK, results[0].Status)
		assert.Equal(t, "removed 1 stale log files", results[0].Detail)

		assert.Equal(t, TaskDiskCheck, results[1].Task)
		assert.NotEqual(t, MaintenanceFailed, results[1].Status)
		assert.NotEmpty(t, results[1].Detail)

		assert.Equal(t, TaskHealthCheck, results[2].Task)
		assert.Equal(t, MaintenanceOK, results[2].Status)

		events := j.Count(func(ev Event) bool {
			_, ok := ev.(*EventMaintenance)
			return ok
		})
		assert.Equal(t, 3, events)

		for _, task := range []string{TaskLogCleanup, TaskDiskCheck, TaskHealthCheck} {
			assert.Equal(t, now, sched.LastRun(task))
		}
	})

	t.Run("task failure does not stop siblings", func(t *testing.T) {
		j := mockJournal{}

		sched, err := NewScheduler(DefaultConfig(), t.TempDir(), &j)
		require.NoError(t, err)

		sched.tasks = []maintenanceTask{
			{name: "boom", run: func(time.Time) MaintenanceResult {
				return MaintenanceResult{Task: "boom", Status: MaintenanceFailed, Detail: "disk on fire"}
			}},
			{name: "fine", run: func(time.Time) MaintenanceResult {
				return MaintenanceResult{Task: "fine", Status: MaintenanceOK}
			}},
		}

		results := sched.Run(time.Now())
		require.Len(t, results, 2)
		assert.Equal(t, MaintenanceFailed, results[0].Status)
		assert.Equal(t, MaintenanceOK, results[1].Status)

		j.Verify(t, true, []Event{
			&EventMaintenance{Task: "boom", Status: "failed", Detail: "disk on fire"},
			&EventMaintenance{Task: "fine", Status: "ok"},
		})
	})

	t.Run("last-run timestamps never move backwards", func(t *testing.T) {
		j := mockJournal{}

		sched, err := NewScheduler(DefaultConfig(), t.TempDir(), &j)
		require.NoError(t, err)

		now := time.Now()
		sched.Run(now)
		sched.Run(now.Add(-time.Hour))

		assert.Equal(t, now, sched.LastRun(TaskLogCleanup))
	})

	t.Run("bad schedule is a config error", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.MaintenanceSchedule = "not a schedule"

		_, err := NewScheduler(cfg, t.TempDir(), &mockJournal{})

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, "MaintenanceSchedule", cfgErr.Field)
	})
}
