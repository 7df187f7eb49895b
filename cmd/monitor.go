package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gsocket-tools/gsmon/gsmon"
	"github.com/gsocket-tools/gsmon/gsmon/journal"
)

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "run the monitoring loop until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor()
		},
	}
}

func runMonitor() error {
	cfg, err := gsmon.LoadOrCreateConfig(configPath)
	if err != nil {
		return err
	}

	zl, err := newLogger()
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer zl.Sync()

	fj, err := journal.NewFileLockJournaler(accessLogPath())
	if err != nil {
		if errors.Is(err, journal.ErrLockedElsewhere) {
			// Non-fatal error.
			zl.Sugar().Info("gsmon is already running")
			return nil
		}

		return errors.Wrap(err, "failed to acquire journal lock")
	}
	defer fj.Close()

	j := journal.MultiWriter(fj, journal.NewZapWriter(zl))
	j.Write(&gsmon.EventAcquired{})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	checker, err := gsmon.NewHTTPChecker(cfg.Endpoint, cfg.ProbeTimeout())
	if err != nil {
		return err
	}

	restorer, err := gsmon.NewRestorer(cfg, checker.Client)
	if err != nil {
		return err
	}

	sched, err := gsmon.NewScheduler(cfg, logDir, j)
	if err != nil {
		return err
	}

	gsmon.TryWatch(ctx, configPath, j)

	probe := gsmon.JournaledProbe(checker, j, cfg.Endpoint)
	rec := gsmon.NewRecoverer(probe, restorer, cfg.MaxRetries, cfg.RestoreDelay(), j)

	m := gsmon.NewMonitor(cfg.Interval(), probe, rec, sched)
	m.Run(ctx)

	return nil
}
