package gsmon

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"golang.org/x/sys/unix"
)

// LogRetention is how long pruned log files are kept. Files exactly this
// old are retained; only strictly older ones are removed.
const LogRetention = 7 * 24 * time.Hour

// diskUsageWarnPercent is the usage percentage above which the disk check
// reports a warning instead of ok.
const diskUsageWarnPercent = 90.0

const (
	TaskLogCleanup  = "log cleanup"
	TaskDiskCheck   = "disk check"
	TaskHealthCheck = "health check"
)

// MaintenanceStatus is the per-task outcome of a maintenance cycle.
type MaintenanceStatus string

const (
	MaintenanceOK      MaintenanceStatus = "ok"
	MaintenanceWarning MaintenanceStatus = "warning"
	MaintenanceFailed  MaintenanceStatus = "failed"
)

// MaintenanceResult is the outcome of one task within a cycle.
type MaintenanceResult struct {
	Task   string
	Status MaintenanceStatus
	Detail string
}

type maintenanceTask struct {
	name string
	run  func(now time.Time) MaintenanceResult
}

// Scheduler runs periodic housekeeping on its own cadence, independent of
// the monitor interval. It does not own a clock; the monitor loop drives
// it through Due and Run.
type Scheduler struct {
	// Enabled mirrors maintenance_enabled; a disabled scheduler is never
	// due and Run is a no-op returning no results.
	Enabled bool

	j     Journaler
	sched cron.Schedule
	next  time.Time

	lastRun map[string]time.Time
	tasks   []maintenanceTask
}

// NewScheduler creates a maintenance scheduler pruning and checking the
// given log directory. An unparseable schedule is a ConfigError.
func NewScheduler(cfg Config, logDir string, j Journaler) (*Scheduler, error) {
	sched, err := cron.ParseStandard(cfg.MaintenanceSchedule)
	if err != nil {
		return nil, &ConfigError{Field: "MaintenanceSchedule", Reason: err.Error()}
	}

	s := &Scheduler{
		Enabled: cfg.MaintenanceEnabled,
		j:       j,
		sched:   sched,
		lastRun: make(map[string]time.Time),
	}

	s.tasks = []maintenanceTask{
		{name: TaskLogCleanup, run: s.cleanLogs(logDir)},
		{name: TaskDiskCheck, run: s.checkDisk("/")},
		{name: TaskHealthCheck, run: s.checkHealth(logDir)},
	}

	return s, nil
}

// Due reports whether a maintenance cycle is due at now. The first call of
// a run only arms the schedule, so maintenance never fires on the very
// first tick.
func (s *Scheduler) Due(now time.Time) bool {
	if !s.Enabled {
		return false
	}

	if s.next.IsZero() {
		s.next = s.sched.Next(now)
		return false
	}

	return !now.Before(s.next)
}

// Run performs one maintenance cycle, executing every task regardless of
// sibling failures, journaling each result. A disabled scheduler returns
// no results. The next due time is advanced from now.
func (s *Scheduler) Run(now time.Time) []MaintenanceResult {
	if !s.Enabled {
		return nil
	}

	s.next = s.sched.Next(now)

	results := make([]MaintenanceResult, 0, len(s.tasks))
	for _, t := range s.tasks {
		res := t.run(now)

		// Last-run timestamps never move backwards.
		if now.After(s.lastRun[t.name]) {
			s.lastRun[t.name] = now
		}

		s.j.Write(&EventMaintenance{
			Task:   res.Task,
			Status: string(res.Status),
			Detail: res.Detail,
		})

		results = append(results, res)
	}

	return results
}

// LastRun returns when the named task last ran, or the zero time.
func (s *Scheduler) LastRun(task string) time.Time {
	return s.lastRun[task]
}

func (s *Scheduler) cleanLogs(dir string) func(time.Time) MaintenanceResult {
	return func(now time.Time) MaintenanceResult {
		removed, err := pruneLogs(dir, LogRetention, now)
		if err != nil {
			return MaintenanceResult{
				Task:   TaskLogCleanup,
				Status: MaintenanceFailed,
				Detail: err.Error(),
			}
		}

		return MaintenanceResult{
			Task:   TaskLogCleanup,
			Status: MaintenanceOK,
			Detail: fmt.Sprintf("removed %d stale log files", len(removed)),
		}
	}
}

func (s *Scheduler) checkDisk(path string) func(time.Time) MaintenanceResult {
	return func(time.Time) MaintenanceResult {
		var stat unix.Statfs_t
		if err := unix.Statfs(path, &stat); err != nil {
			return MaintenanceResult{
				Task:   TaskDiskCheck,
				Status: MaintenanceFailed,
				Detail: errors.Wrap(err, "statfs failed").Error(),
			}
		}

		total := stat.Blocks * uint64(stat.Bsize)
		free := stat.Bavail * uint64(stat.Bsize)
		if total == 0 {
			return MaintenanceResult{
				Task:   TaskDiskCheck,
				Status: MaintenanceFailed,
				Detail: "statfs reported zero total blocks",
			}
		}

		pct := float64(total-free) / float64(total) * 100
		detail := fmt.Sprintf("disk usage %.2f%% (%d bytes free)", pct, free)

		status := MaintenanceOK
		if pct > diskUsageWarnPercent {
			status = MaintenanceWarning
			detail = "high disk usage: " + detail
		}

		return MaintenanceResult{Task: TaskDiskCheck, Status: status, Detail: detail}
	}
}

// checkHealth verifies that the log sink directory is still writable.
func (s *Scheduler) checkHealth(dir string) func(time.Time) MaintenanceResult {
	return func(time.Time) MaintenanceResult {
		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			return MaintenanceResult{
				Task:   TaskHealthCheck,
				Status: MaintenanceFailed,
				Detail: errors.Wrap(err, "log sink not writable").Error(),
			}
		}

		f.Close()
		os.Remove(f.Name())

		return MaintenanceResult{
			Task:   TaskHealthCheck,
			Status: MaintenanceOK,
			Detail: "log sink writable",
		}
	}
}

// pruneLogs removes *.log files in dir whose age exceeds olderThan. Files
// exactly olderThan old are kept.
func pruneLogs(dir string, olderThan time.Duration, now time.Time) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read log directory")
	}

	var removed []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".log") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if now.Sub(info.ModTime()) <= olderThan {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil {
			return removed, errors.Wrapf(err, "failed to remove %q", path)
		}

		removed = append(removed, path)
	}

	return removed, nil
}
