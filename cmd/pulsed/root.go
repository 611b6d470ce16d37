package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// Version information
var (
	Version = "dev"
	Commit  = "none"
)

// NewRootCommand creates the pulsed command.
func NewRootCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		logLevel   string
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "pulsed",
		Short: "pulsed - analytics dispatch daemon",
		Long: `pulsed runs a pulse client behind an HTTP API.
Events posted to /v1 are fanned out to every integration named in the config file.`,
		Version:      fmt.Sprintf("%s (commit: %s)", Version, Commit),
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(strings.ToUpper(logLevel))); err != nil {
				return fmt.Errorf("invalid log level %q", logLevel)
			}
			logger := slog.New(slog.NewJSONHandler(cmd.OutOrStdout(), &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, logger, configPath, addr, watch)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "pulse.yaml", "Path to the YAML, JSON or TOML config file")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "HTTP listen address")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Reload integration settings when the config file changes")

	return cmd
}
