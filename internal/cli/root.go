// Package cli defines the command-line interface for pctl.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hnaderi/pctl/internal/config"
	"github.com/hnaderi/pctl/internal/logging"
	"github.com/hnaderi/pctl/internal/portainer"
	"github.com/hnaderi/pctl/internal/session"
)

// Options stores global CLI options shared between commands.
type Options struct {
	SettingsPath string
	LogLevel     string

	// Settings is loaded before any subcommand runs.
	Settings *config.Settings

	// factory overrides the HTTP transport factory.
	factory portainer.TransportFactory
	// readPassword overrides the terminal password prompt.
	readPassword func(prompt string) (string, error)
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	rootCmd := newRootCommand(&Options{}, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "pctl",
		Short:         "pctl deploys and destroys Portainer swarm stacks",
		Long:          "pctl is a scriptable client for Portainer: it logs in, selects exactly one endpoint and deploys or destroys stacks together with their configs and secrets.",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			envVars := rootEnv{}
			if err := parseEnv(&envVars); err != nil {
				return err
			}
			if !cmd.Flags().Changed("settings") && envPresent("PCTL_SETTINGS") {
				opts.SettingsPath = envVars.SettingsPath
			}

			settings, err := config.Load(opts.SettingsPath)
			if err != nil {
				return err
			}
			opts.Settings = settings

			levelName := settings.LogLevel
			if cmd.Flags().Changed("log-level") {
				levelName = opts.LogLevel
			}
			level := logging.ParseLevel(levelName)
			logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("settings loaded", "level", level, "sessions_file", settings.SessionsFile, "timeout", settings.Timeout)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.SettingsPath, "settings", "", "Path to the pctl settings file (TOML)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newLoginCommand(opts),
		newLogoutCommand(opts),
		newSessionsCommand(opts),
		newDeployCommand(opts),
		newDestroyCommand(opts),
	)

	return cmd
}

// transportFactory returns the factory used to reach the control plane.
func (o *Options) transportFactory(logger *slog.Logger) portainer.TransportFactory {
	if o.factory != nil {
		return o.factory
	}
	return portainer.HTTPFactory(portainer.Options{
		Timeout:            o.Settings.Timeout,
		InsecureSkipVerify: o.Settings.InsecureSkipVerify,
		Logger:             logger,
	})
}

// sessionStore returns the file-backed store named by the settings.
func (o *Options) sessionStore() *session.FileStore {
	return session.NewFileStore(o.Settings.SessionsFile)
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}

// commandIO returns the input and output streams of cmd.
func commandIO(cmd *cobra.Command) (io.Reader, io.Writer) {
	return cmd.InOrStdin(), cmd.OutOrStdout()
}
