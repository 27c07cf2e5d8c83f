// Package cli provides the command-line interface for pomodoro.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"pomodoro/internal/app"
	"pomodoro/internal/control"
	"pomodoro/internal/logging"
	"pomodoro/internal/storage"
)

// Command group IDs.
const (
	groupControl = "control"
	groupLocal   = "local"
)

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	dbPath     string
	logLevel   string
	lang       string
}

// runAppFunc is a function variable for running the application, allowing it to be mocked in tests.
var runAppFunc = runApp

// NewRootCommand creates the root command for pomodoro.
func NewRootCommand(version string) *cobra.Command {
	flags := &globalFlags{}
	var headless bool

	root := &cobra.Command{
		Use:   "pomodoro",
		Short: "Pomodoro timer with a D-Bus control plane",
		Long: `pomodoro runs a focus timer in the system tray.

Without a subcommand it starts the application. The control subcommands
talk to the running application over the session bus, so they can be bound
to global shortcuts or status bars.`,
		Version: version,
		// SilenceUsage prevents usage from being printed on errors
		SilenceUsage: true,
		// SilenceErrors prevents Cobra from printing errors (we handle it in main)
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			options, err := flags.appOptions()
			if err != nil {
				return err
			}
			return runAppFunc(cmd.Context(), options, headless)
		},
	}

	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "settings file (default $XDG_CONFIG_HOME/pomodoro/settings.yaml)")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "history database (default $XDG_DATA_HOME/pomodoro/history.db)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().StringVar(&flags.lang, "lang", "", "output language: en, tr (default from LANG)")
	root.Flags().BoolVar(&headless, "headless", false, "run without the system tray")

	root.AddGroup(
		&cobra.Group{ID: groupControl, Title: "Control Commands:"},
		&cobra.Group{ID: groupLocal, Title: "Local Commands:"},
	)

	for _, cmd := range newControlCommands() {
		cmd.GroupID = groupControl
		root.AddCommand(cmd)
	}
	status := newStatusCommand(flags)
	status.GroupID = groupControl
	root.AddCommand(status)

	stats := newStatsCommand(flags)
	stats.GroupID = groupLocal
	root.AddCommand(stats)

	autostart := newAutostartCommand(flags)
	autostart.GroupID = groupLocal
	root.AddCommand(autostart)

	return root
}

func (flags *globalFlags) locale() control.Locale {
	if flags.lang != "" {
		return control.ParseLocale(flags.lang)
	}
	return control.DetectLocale(os.Getenv)
}

func (flags *globalFlags) settingsPath() (string, error) {
	if flags.configPath != "" {
		return flags.configPath, nil
	}
	return storage.SettingsPath(app.Name)
}

func (flags *globalFlags) historyPath() (string, error) {
	if flags.dbPath != "" {
		return flags.dbPath, nil
	}
	return storage.HistoryPath(app.Name)
}

func (flags *globalFlags) appOptions() (app.Options, error) {
	settingsPath, err := flags.settingsPath()
	if err != nil {
		return app.Options{}, err
	}

	level := flags.logLevel
	if level == "" {
		// An unreadable file is reported by the application itself.
		if settings, err := storage.LoadSettings(settingsPath); err == nil {
			level = settings.LogLevel
		}
	}
	config := logging.DefaultConfig()
	config.Level = level

	return app.Options{
		SettingsPath: settingsPath,
		HistoryPath:  flags.dbPath,
		Logger:       logging.New(config),
		Locale:       flags.locale(),
	}, nil
}

func runApp(ctx context.Context, options app.Options, headless bool) error {
	if !headless {
		err := app.RunDesktop(ctx, options)
		if !errors.Is(err, app.ErrTrayUnsupported) {
			return err
		}
		options.Logger.Warn("system tray unavailable; running headless")
	}

	application, err := app.New(ctx, options)
	if err != nil {
		return err
	}
	return application.Run(ctx)
}
