package control

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/godbus/dbus/v5"

	"pomodoro/internal/core/model"
)

// ErrNotRunning indicates that no pomodoro instance could be reached.
var ErrNotRunning = errors.New("pomodoro is not running")

// Client issues one-shot commands against a running ControlService.
type Client struct {
	object dbus.BusObject
	closer io.Closer
}

// Dial connects to the session bus and locates the control service.
// Failing to connect, a lookup that times out or breaks the transport, and
// finding BusName unowned all yield ErrNotRunning.
func Dial(ctx context.Context) (*Client, error) {
	conn, err := dbus.ConnectSessionBus(dbus.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("%w: connect session bus: %v", ErrNotRunning, err)
	}

	var owned bool
	err = conn.BusObject().CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, BusName).Store(&owned)
	if err != nil {
		_ = conn.Close()
		return nil, locateError(err)
	}
	if !owned {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: %s has no owner", ErrNotRunning, BusName)
	}

	return newClient(conn.Object(BusName, ObjectPath), conn), nil
}

// locateError classifies a failed NameHasOwner lookup. Only errors the bus
// daemon replied with keep their own identity.
func locateError(err error) error {
	var (
		replyErr    dbus.Error
		replyErrPtr *dbus.Error
	)
	replied := errors.As(err, &replyErr) || errors.As(err, &replyErrPtr)
	if errors.Is(err, context.DeadlineExceeded) || !replied {
		return fmt.Errorf("%w: locate %s: %v", ErrNotRunning, BusName, err)
	}
	return fmt.Errorf("locate %s: %w", BusName, err)
}

func newClient(object dbus.BusObject, closer io.Closer) *Client {
	return &Client{object: object, closer: closer}
}

// Close releases the bus connection.
func (client *Client) Close() error {
	if client == nil || client.closer == nil {
		return nil
	}
	return client.closer.Close()
}

func (client *Client) Toggle(ctx context.Context) error { return client.call(ctx, "Toggle") }
func (client *Client) Start(ctx context.Context) error  { return client.call(ctx, "Start") }
func (client *Client) Stop(ctx context.Context) error   { return client.call(ctx, "Stop") }
func (client *Client) Skip(ctx context.Context) error   { return client.call(ctx, "Skip") }
func (client *Client) Reset(ctx context.Context) error  { return client.call(ctx, "Reset") }

// Extend asks the timer to add seconds to the current phase.
func (client *Client) Extend(ctx context.Context, seconds uint32) error {
	return client.call(ctx, "Extend", seconds)
}

// Status reads the four exposed properties. The mode string is kept as sent
// so that unknown values can still be shown.
func (client *Client) Status(ctx context.Context) (model.Snapshot, error) {
	var (
		state    string
		snapshot model.Snapshot
	)
	if err := client.property(ctx, PropertyState, &state); err != nil {
		return snapshot, err
	}
	if err := client.property(ctx, PropertyTimeLeft, &snapshot.TimeLeft); err != nil {
		return snapshot, err
	}
	if err := client.property(ctx, PropertyIsActive, &snapshot.IsActive); err != nil {
		return snapshot, err
	}
	if err := client.property(ctx, PropertySessionsCompleted, &snapshot.SessionsCompleted); err != nil {
		return snapshot, err
	}
	snapshot.Mode = model.Mode(state)
	return snapshot, nil
}

func (client *Client) call(ctx context.Context, method string, args ...interface{}) error {
	call := client.object.GoWithContext(ctx, Interface+"."+method, dbus.FlagNoReplyExpected, nil, args...)
	if call.Err != nil {
		return fmt.Errorf("call %s: %w", method, call.Err)
	}
	return nil
}

func (client *Client) property(ctx context.Context, name string, dest interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	value, err := client.object.GetProperty(Interface + "." + name)
	if err != nil {
		return fmt.Errorf("get %s: %w", name, err)
	}
	if err := dbus.Store([]interface{}{value.Value()}, dest); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
