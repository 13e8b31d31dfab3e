// Package cmd wires the backburner demo CLI: a small cobra application
// that exercises scheduling, debounce/throttle, delayed execution, and
// cron-driven recurrence against a live Backburner, optionally wired to
// an audit sink and an OTLP trace exporter.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/backburner/internal/config"
)

var (
	configPath string
	debugFlag  bool
	appCfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "backburner",
	Short: "Run-loop scheduler demo and operational CLI",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if debugFlag {
			cfg.SetDebug(true)
		}
		appCfg = cfg
		return nil
	},
}

func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config %q: %w", configPath, err)
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a JSON config file")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "enable DEBUG mode on the scheduler")
}

// Execute runs the CLI, exiting the process on error the way cobra's
// documented entry point does.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("backburner: command failed", "error", err)
		os.Exit(1)
	}
}
