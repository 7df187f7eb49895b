package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/gsocket-tools/gsmon/gsmon"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "probe the gsocket endpoint once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd)
		},
	}
}

func runCheck(cmd *cobra.Command) error {
	cfg, err := gsmon.LoadOrCreateConfig(configPath)
	if err != nil {
		return err
	}

	checker, err := gsmon.NewHTTPChecker(cfg.Endpoint, cfg.ProbeTimeout())
	if err != nil {
		return err
	}

	res := checker.Check(context.Background())
	if !res.Reachable {
		return errors.Errorf("gsocket access failed: %s: %s", res.Reason, res.Detail)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "gsocket access OK: %s (%.2fms)\n",
		cfg.Endpoint, float64(res.Latency)/float64(time.Millisecond))

	return nil
}
