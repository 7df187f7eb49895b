package cmd

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gsocket-tools/gsmon/gsmon"
	"github.com/gsocket-tools/gsmon/gsmon/journal"
)

func newMaintainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "maintain",
		Short: "run one maintenance pass",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMaintain(cmd)
		},
	}
}

func runMaintain(cmd *cobra.Command) error {
	cfg, err := gsmon.LoadOrCreateConfig(configPath)
	if err != nil {
		return err
	}

	zl, err := newLogger()
	if err != nil {
		return errors.Wrap(err, "failed to create logger")
	}
	defer zl.Sync()

	// No lock: a one-shot pass must not contend with a running monitor.
	fj, err := journal.NewFileJournaler(accessLogPath())
	if err != nil {
		return err
	}
	defer fj.Close()

	j := journal.MultiWriter(fj, journal.NewZapWriter(zl))

	sched, err := gsmon.NewScheduler(cfg, logDir, j)
	if err != nil {
		return err
	}

	results := sched.Run(time.Now())
	if results == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "maintenance is disabled in configuration")
		return nil
	}

	var failed int
	for _, res := range results {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%s)\n", res.Task, res.Status, res.Detail)
		if res.Status == gsmon.MaintenanceFailed {
			failed++
		}
	}

	if failed > 0 {
		return errors.Errorf("%d of %d maintenance tasks failed", failed, len(results))
	}

	return nil
}
