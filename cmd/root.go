// Package cmd wires the gsmon CLI: monitor (default), check, maintain and
// config subcommands.
package cmd

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath string
	logDir     string
)

// NewRootCmd builds the root command. Running it with no subcommand starts
// the monitor loop.
func NewRootCmd() *cobra.Command {
	if dir, err := os.UserConfigDir(); err == nil {
		configPath = filepath.Join(dir, "gsmon", "config.json")
		logDir = filepath.Join(dir, "gsmon", "logs")
	}

	root := &cobra.Command{
		Use:   "gsmon",
		Short: "gsocket access monitor and maintenance daemon",
		Long: "gsmon periodically probes a gsocket endpoint, attempts automatic\n" +
			"recovery when the probe fails, and runs periodic maintenance\n" +
			"(log pruning, disk-space checks, health checks).",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", configPath, "configuration file path")
	root.PersistentFlags().StringVarP(&logDir, "log-dir", "l", logDir, "log directory path")

	root.AddCommand(
		newMonitorCmd(),
		newCheckCmd(),
		newMaintainCmd(),
		newConfigCmd(),
	)

	return root
}

// accessLogPath is the append-only event sink pruned by maintenance.
func accessLogPath() string {
	return filepath.Join(logDir, "access.log")
}

// newLogger builds the console logger used alongside the file journal.
func newLogger() (*zap.Logger, error) {
	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapcore.InfoLevel),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
		Encoding:         "console",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey:  "msg",
			LevelKey:    "level",
			TimeKey:     "time",
			LineEnding:  zapcore.DefaultLineEnding,
			EncodeLevel: zapcore.LowercaseLevelEncoder,
			EncodeTime:  zapcore.ISO8601TimeEncoder,
		},
	}

	return cfg.Build()
}
