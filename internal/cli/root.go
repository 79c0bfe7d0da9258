package cli

import (
	"fmt"
	"os"

	"github.com/pointy-labs/pointy/internal/apperr"
	"github.com/pointy-labs/pointy/internal/branding"
	"github.com/pointy-labs/pointy/internal/config"
	"github.com/pointy-labs/pointy/internal/launcher"
	"github.com/pointy-labs/pointy/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string

	logLevel string
	logger   = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` manages the extensions of the launcher: it installs them
from the online index, keeps them up to date, and runs their native entry points.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.Load()
		settings := config.Current()

		level := settings.LogLevel
		if logLevel != "" {
			level = logLevel
		}
		l, err := logging.New(logging.Options{
			Level:  level,
			Format: settings.LogFormat,
			Writer: cmd.ErrOrStderr(),
		})
		if err != nil {
			return fmt.Errorf("configuring logging: %w", err)
		}
		logger = l
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the log level (debug, info, warn, error)")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", apperr.Message(err))
	}
	return err
}

func versionInfo() launcher.VersionInfo {
	return launcher.VersionInfo{Version: buildVersion, Commit: buildCommit, Date: buildDate}
}

// newService wires the launcher from the loaded settings.
func newService() (*launcher.Service, error) {
	svc, err := launcher.New(launcher.DefaultPaths(), config.Current(),
		launcher.WithLogger(logger),
		launcher.WithVersion(versionInfo()))
	if err != nil {
		return nil, fmt.Errorf("opening launcher state: %w", err)
	}
	return svc, nil
}

// withService runs fn against a fresh service and closes it afterwards.
func withService(fn func(*launcher.Service) error) error {
	svc, err := newService()
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc)
}
