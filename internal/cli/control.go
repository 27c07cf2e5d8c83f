package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"pomodoro/internal/control"
	"pomodoro/internal/core/model"
)

const (
	callTimeout          = 5 * time.Second
	defaultExtendSeconds = 60
)

var errNotRunning = errors.New("pomodoro is not running; start the application first")

// controlClient is the part of control.Client the commands use.
type controlClient interface {
	Toggle(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Skip(ctx context.Context) error
	Reset(ctx context.Context) error
	Extend(ctx context.Context, seconds uint32) error
	Status(ctx context.Context) (model.Snapshot, error)
	Close() error
}

// dialFunc is a function variable for reaching the running application, allowing it to be mocked in tests.
var dialFunc = func(ctx context.Context) (controlClient, error) {
	client, err := control.Dial(ctx)
	if err != nil {
		return nil, err
	}
	return client, nil
}

type controlCommand struct {
	use     string
	short   string
	message string
	call    func(client controlClient, ctx context.Context) error
}

func newControlCommands() []*cobra.Command {
	simple := []controlCommand{
		{"toggle", "Start the timer if stopped, stop it if running", "Timer toggled.", controlClient.Toggle},
		{"start", "Start the timer", "Timer started.", controlClient.Start},
		{"stop", "Stop the timer", "Timer stopped.", controlClient.Stop},
		{"skip", "Skip to the next session", "Session skipped.", controlClient.Skip},
		{"reset", "Reset the current session", "Timer reset.", controlClient.Reset},
	}

	commands := make([]*cobra.Command, 0, len(simple)+1)
	for _, entry := range simple {
		entry := entry
		commands = append(commands, &cobra.Command{
			Use:   entry.use,
			Short: entry.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := withClient(cmd.Context(), func(ctx context.Context, client controlClient) error {
					return entry.call(client, ctx)
				}); err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), entry.message)
				return nil
			},
		})
	}
	return append(commands, newExtendCommand())
}

func newExtendCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "extend [seconds]",
		Short: "Add time to the current session (default 60 seconds)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds := uint32(defaultExtendSeconds)
			if len(args) == 1 {
				parsed, err := strconv.ParseUint(args[0], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid seconds %q: must be an integer between 0 and 4294967295", args[0])
				}
				seconds = uint32(parsed)
			}
			if err := withClient(cmd.Context(), func(ctx context.Context, client controlClient) error {
				return client.Extend(ctx, seconds)
			}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Timer extended by %d seconds.\n", seconds)
			return nil
		},
	}
}

// statusJSON follows the custom module format of status bars such as waybar.
type statusJSON struct {
	Text              string `json:"text"`
	Alt               string `json:"alt"`
	Tooltip           string `json:"tooltip"`
	Class             string `json:"class"`
	Mode              string `json:"mode"`
	TimeLeft          uint32 `json:"time_left"`
	IsActive          bool   `json:"is_active"`
	SessionsCompleted uint32 `json:"sessions_completed"`
}

func newStatusCommand(flags *globalFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the timer state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var snapshot model.Snapshot
			if err := withClient(cmd.Context(), func(ctx context.Context, client controlClient) error {
				var err error
				snapshot, err = client.Status(ctx)
				return err
			}); err != nil {
				return err
			}

			locale := flags.locale()
			if !asJSON {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), control.FormatStatus(snapshot, locale))
				return nil
			}

			alt := "paused"
			if snapshot.IsActive {
				alt = "running"
			}
			encoded, err := json.Marshal(statusJSON{
				Text:              control.FormatClock(snapshot.TimeLeft),
				Alt:               alt,
				Tooltip:           control.FormatStatus(snapshot, locale),
				Class:             string(snapshot.Mode),
				Mode:              string(snapshot.Mode),
				TimeLeft:          snapshot.TimeLeft,
				IsActive:          snapshot.IsActive,
				SessionsCompleted: snapshot.SessionsCompleted,
			})
			if err != nil {
				return fmt.Errorf("encode status: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(encoded))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print a JSON object for status bars")
	return cmd
}

// withClient dials the running application, runs fn and maps failures to
// the user-facing messages.
func withClient(ctx context.Context, fn func(ctx context.Context, client controlClient) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	client, err := dialFunc(ctx)
	if err != nil {
		return controlError(err)
	}
	defer client.Close()

	if err := fn(ctx, client); err != nil {
		return controlError(err)
	}
	return nil
}

func controlError(err error) error {
	if errors.Is(err, control.ErrNotRunning) {
		return errNotRunning
	}
	return fmt.Errorf("dbus: %w", err)
}
