package main

import (
	"fmt"

	"github.com/phrazzld/scry-notes/internal/config"
	"github.com/phrazzld/scry-notes/internal/platform/logger"
	"github.com/spf13/cobra"
)

// appLoader builds the application for a command invocation.
type appLoader func(cmd *cobra.Command) (*application, error)

// newRootCmd creates the scry-notes command tree. A nil load builds the real
// application from configuration.
func newRootCmd(load appLoader) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:   "scry-notes",
		Short: "Read study notes and track reading progress",
		Long: `scry-notes lists and edits study notes from the notes API.

In watch mode it starts a reading timer for every note that has a topic and an
estimated reading time, and marks the topic completed when the timer elapses.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "",
		"config file (default ./scry-notes.yaml or $HOME/.config/scry-notes/scry-notes.yaml)")

	if load == nil {
		load = func(cmd *cobra.Command) (*application, error) {
			return loadApplication(cmd, configPath)
		}
	}

	root.AddCommand(
		newListCmd(load),
		newWatchCmd(load),
		newEditCmd(load),
		newDeleteCmd(load),
	)

	return root
}

// loadApplication reads configuration, sets up logging and wires the
// application dependencies.
func loadApplication(cmd *cobra.Command, configPath string) (*application, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(logger.LoggerConfig{
		Level:  cfg.Server.LogLevel,
		Format: cfg.Server.LogFormat,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Debug("configuration loaded",
		"api_base_url", cfg.API.BaseURL,
		"api_token_present", cfg.API.Token != "",
		"log_level", cfg.Server.LogLevel,
		"minute_duration", cfg.Reader.MinuteDuration,
		"refresh_interval", cfg.Reader.RefreshInterval)

	return newApplication(cfg, log, cmd.OutOrStdout())
}
