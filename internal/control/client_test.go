package control

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pomodoro/internal/core/model"
)

// loopbackObject routes client calls straight into a Service.
type loopbackObject struct {
	dbus.BusObject
	service *Service
	methods []string
	flags   []dbus.Flags
	callErr error
	propErr error
}

func (object *loopbackObject) GoWithContext(_ context.Context, method string, flags dbus.Flags, _ chan *dbus.Call, args ...interface{}) *dbus.Call {
	object.methods = append(object.methods, method)
	object.flags = append(object.flags, flags)
	if object.callErr != nil {
		return &dbus.Call{Err: object.callErr}
	}
	exported := serviceObject{service: object.service}
	switch strings.TrimPrefix(method, Interface+".") {
	case "Toggle":
		exported.Toggle()
	case "Start":
		exported.Start()
	case "Stop":
		exported.Stop()
	case "Skip":
		exported.Skip()
	case "Reset":
		exported.Reset()
	case "Extend":
		exported.Extend(args[0].(uint32))
	}
	return &dbus.Call{}
}

func (object *loopbackObject) GetProperty(p string) (dbus.Variant, error) {
	if object.propErr != nil {
		return dbus.Variant{}, object.propErr
	}
	index := strings.LastIndex(p, ".")
	value, dbusErr := propertiesObject{service: object.service}.Get(p[:index], p[index+1:])
	if dbusErr != nil {
		return dbus.Variant{}, dbusErr
	}
	return value, nil
}

type closeCounter struct{ closed int }

func (counter *closeCounter) Close() error {
	counter.closed++
	return nil
}

func newLoopbackClient() (*Client, *loopbackObject, *Register, *recordingSink) {
	service, register, sink := newTestService()
	object := &loopbackObject{service: service}
	return newClient(object, &closeCounter{}), object, register, sink
}

func TestClient_CommandsAreFireAndForget(t *testing.T) {
	client, object, _, sink := newLoopbackClient()
	ctx := context.Background()

	require.NoError(t, client.Toggle(ctx))
	require.NoError(t, client.Start(ctx))
	require.NoError(t, client.Stop(ctx))
	require.NoError(t, client.Skip(ctx))
	require.NoError(t, client.Reset(ctx))
	require.NoError(t, client.Extend(ctx, 60))

	assert.Equal(t, []string{
		Interface + ".Toggle",
		Interface + ".Start",
		Interface + ".Stop",
		Interface + ".Skip",
		Interface + ".Reset",
		Interface + ".Extend",
	}, object.methods)
	for _, flags := range object.flags {
		assert.Equal(t, dbus.FlagNoReplyExpected, flags)
	}
	assert.Equal(t, Event{Name: EventExtend, Seconds: 60}, sink.Events()[5])
}

func TestClient_StatusOnFreshProcess(t *testing.T) {
	client, _, _, _ := newLoopbackClient()

	snapshot, err := client.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.DefaultSnapshot(), snapshot)
	assert.Equal(t, "Mode: Focus | Paused | 25:00 | Sessions: 0", FormatStatus(snapshot, LocaleEnglish))
}

func TestClient_StatusReflectsRegister(t *testing.T) {
	client, _, register, _ := newLoopbackClient()
	register.Update(model.Snapshot{Mode: model.ModeLongBreak, TimeLeft: 61, IsActive: true, SessionsCompleted: 8})

	snapshot, err := client.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, model.Snapshot{Mode: model.ModeLongBreak, TimeLeft: 61, IsActive: true, SessionsCompleted: 8}, snapshot)
}

func TestClient_TimeLeftStableAcrossToggle(t *testing.T) {
	client, _, register, _ := newLoopbackClient()
	register.Update(model.Snapshot{Mode: model.ModeWork, TimeLeft: 1234, IsActive: true})
	ctx := context.Background()

	before, err := client.Status(ctx)
	require.NoError(t, err)
	require.NoError(t, client.Toggle(ctx))
	after, err := client.Status(ctx)
	require.NoError(t, err)

	assert.Equal(t, before.TimeLeft, after.TimeLeft)
}

func TestClient_CallErrorIsSurfaced(t *testing.T) {
	client, object, _, _ := newLoopbackClient()
	object.callErr = dbus.ErrClosed

	err := client.Skip(context.Background())

	assert.ErrorIs(t, err, dbus.ErrClosed)
	assert.NotErrorIs(t, err, ErrNotRunning)
}

func TestClient_PropertyErrorIsSurfaced(t *testing.T) {
	client, object, _, _ := newLoopbackClient()
	object.propErr = errors.New("access denied")

	_, err := client.Status(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
}

func TestClient_Close(t *testing.T) {
	counter := &closeCounter{}
	client := newClient(&loopbackObject{}, counter)

	require.NoError(t, client.Close())
	assert.Equal(t, 1, counter.closed)

	var nilClient *Client
	assert.NoError(t, nilClient.Close())
}

func TestLocateError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		notRunning bool
	}{
		{"lookup timed out", context.DeadlineExceeded, true},
		{"transport broke", errors.New("connection reset by peer"), true},
		{"bus replied with an error", dbus.Error{Name: "org.freedesktop.DBus.Error.AccessDenied"}, false},
		{"bus reply pointer", &dbus.Error{Name: "org.freedesktop.DBus.Error.AccessDenied"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := locateError(tt.err)

			assert.Equal(t, tt.notRunning, errors.Is(err, ErrNotRunning))
			assert.Contains(t, err.Error(), BusName)
		})
	}
}
