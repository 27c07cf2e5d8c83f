package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"pomodoro/internal/app"
	"pomodoro/internal/platform"
	"pomodoro/internal/storage"
)

// nowFunc and newAutostartFunc are function variables so tests can pin the clock and the login entry.
var (
	nowFunc          = time.Now
	newAutostartFunc = platform.NewAutostart
)

func newStatsCommand(flags *globalFlags) *cobra.Command {
	var week, month bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completed focus sessions",
		Long: `Show completed focus sessions from the local history.

Without flags prints today; --week prints the current week starting on
Monday; --month prints the current month. Dates are UTC.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if week && month {
				return errors.New("--week and --month are mutually exclusive")
			}
			path, err := flags.historyPath()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			history, err := storage.OpenHistory(ctx, path)
			if err != nil {
				return err
			}
			defer history.Close()

			today := nowFunc().UTC()
			var stats []storage.DayStat
			switch {
			case week:
				offset := (int(today.Weekday()) + 6) % 7
				stats, err = history.WeeklyStats(ctx, today.AddDate(0, 0, -offset).Format("2006-01-02"))
			case month:
				stats, err = history.MonthlyStats(ctx, today.Year(), today.Month())
			default:
				var stat storage.DayStat
				stat, err = history.DailyStats(ctx, today.Format("2006-01-02"))
				stats = []storage.DayStat{stat}
			}
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}

	cmd.Flags().BoolVar(&week, "week", false, "show the current week")
	cmd.Flags().BoolVar(&month, "month", false, "show the current month")
	return cmd
}

func printStats(out io.Writer, stats []storage.DayStat) {
	var (
		count   int
		minutes float64
	)
	for _, stat := range stats {
		_, _ = fmt.Fprintf(out, "%s  %3d sessions  %6.1f min\n", stat.Date, stat.Count, stat.TotalMinutes)
		count += stat.Count
		minutes += stat.TotalMinutes
	}
	if len(stats) != 1 {
		_, _ = fmt.Fprintf(out, "total       %3d sessions  %6.1f min\n", count, minutes)
	}
}

func newAutostartCommand(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage launching pomodoro at login",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "enable",
			Short: "Launch pomodoro at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				execPath, err := os.Executable()
				if err != nil {
					return fmt.Errorf("resolve executable: %w", err)
				}
				if err := newAutostartFunc(app.Name).Enable(execPath); err != nil {
					return err
				}
				if err := saveAutostartSetting(flags, true); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Autostart enabled.")
				return nil
			},
		},
		&cobra.Command{
			Use:   "disable",
			Short: "Stop launching pomodoro at login",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := newAutostartFunc(app.Name).Disable(); err != nil {
					return err
				}
				if err := saveAutostartSetting(flags, false); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Autostart disabled.")
				return nil
			},
		},
	)
	return cmd
}

// saveAutostartSetting keeps settings.yaml in line with the login entry so
// the running application does not undo the change.
func saveAutostartSetting(flags *globalFlags, enabled bool) error {
	path, err := flags.settingsPath()
	if err != nil {
		return err
	}
	settings, err := storage.LoadSettings(path)
	if err != nil {
		return err
	}
	settings.Autostart = enabled
	return storage.SaveSettings(path, settings)
}
