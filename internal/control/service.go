// Package control is the inter-process control plane of pomodoro: the shared
// state register, the event bus toward the timer, the D-Bus service that
// exposes both to other processes, and the client used by the CLI.
package control

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
	"github.com/godbus/dbus/v5/prop"
)

// Bus coordinates of the control service.
const (
	BusName    = "com.osmandulundu.pomodoro"
	ObjectPath = dbus.ObjectPath("/com/osmandulundu/pomodoro")
	Interface  = "com.osmandulundu.pomodoro"

	propertiesInterface = "org.freedesktop.DBus.Properties"
)

// Property names exposed on Interface.
const (
	PropertyState             = "State"
	PropertyTimeLeft          = "TimeLeft"
	PropertyIsActive          = "IsActive"
	PropertySessionsCompleted = "SessionsCompleted"
)

// ErrNameTaken indicates another process already owns BusName.
var ErrNameTaken = errors.New("bus name already owned")

// Exporter is the subset of *dbus.Conn the service needs.
type Exporter interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	RequestName(name string, flags dbus.RequestNameFlags) (dbus.RequestNameReply, error)
}

// Service translates bus calls into events and answers property reads from
// the register. It keeps no state of its own.
type Service struct {
	register *Register
	sink     Publisher
	logger   *slog.Logger
}

// NewService binds a service to one register and one event sink.
func NewService(register *Register, sink Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{register: register, sink: sink, logger: logger}
}

// Serve exports the service objects on conn and claims BusName.
func (service *Service) Serve(conn Exporter) error {
	if err := conn.Export(serviceObject{service: service}, ObjectPath, Interface); err != nil {
		return fmt.Errorf("export %s: %w", Interface, err)
	}
	if err := conn.Export(propertiesObject{service: service}, ObjectPath, propertiesInterface); err != nil {
		return fmt.Errorf("export properties: %w", err)
	}
	introspectable := introspect.NewIntrospectable(introspectNode())
	if err := conn.Export(introspectable, ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		return fmt.Errorf("export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request name %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("request name %s: %w", BusName, ErrNameTaken)
	}
	service.logger.Info("control service registered", "name", BusName, "path", ObjectPath)
	return nil
}

// Each command publishes exactly one event and returns without waiting.

func (service *Service) Toggle() { service.publish(Event{Name: EventToggle}) }
func (service *Service) Start()  { service.publish(Event{Name: EventStart}) }
func (service *Service) Stop()   { service.publish(Event{Name: EventStop}) }
func (service *Service) Skip()   { service.publish(Event{Name: EventSkip}) }
func (service *Service) Reset()  { service.publish(Event{Name: EventReset}) }

// Extend relays seconds unchanged; range policy belongs to the timer.
func (service *Service) Extend(seconds uint32) {
	service.publish(Event{Name: EventExtend, Seconds: seconds})
}

// Properties reads all exposed properties from the register at call time.
func (service *Service) Properties() map[string]dbus.Variant {
	snapshot := service.register.Read()
	return map[string]dbus.Variant{
		PropertyState:             dbus.MakeVariant(string(snapshot.Mode)),
		PropertyTimeLeft:          dbus.MakeVariant(snapshot.TimeLeft),
		PropertyIsActive:          dbus.MakeVariant(snapshot.IsActive),
		PropertySessionsCompleted: dbus.MakeVariant(snapshot.SessionsCompleted),
	}
}

// Property reads a single property from the register at call time.
func (service *Service) Property(name string) (dbus.Variant, bool) {
	value, ok := service.Properties()[name]
	return value, ok
}

func (service *Service) publish(event Event) {
	service.logger.Debug("control command", "event", event.Name, "seconds", event.Seconds)
	service.sink.Publish(event)
}

// serviceObject carries only the methods exported on Interface.
type serviceObject struct {
	service *Service
}

func (object serviceObject) Toggle() *dbus.Error {
	object.service.Toggle()
	return nil
}

func (object serviceObject) Start() *dbus.Error {
	object.service.Start()
	return nil
}

func (object serviceObject) Stop() *dbus.Error {
	object.service.Stop()
	return nil
}

func (object serviceObject) Skip() *dbus.Error {
	object.service.Skip()
	return nil
}

func (object serviceObject) Reset() *dbus.Error {
	object.service.Reset()
	return nil
}

func (object serviceObject) Extend(seconds uint32) *dbus.Error {
	object.service.Extend(seconds)
	return nil
}

// propertiesObject implements org.freedesktop.DBus.Properties without
// caching, so every Get sees the current register contents.
type propertiesObject struct {
	service *Service
}

func (object propertiesObject) Get(iface, name string) (dbus.Variant, *dbus.Error) {
	if iface != Interface {
		return dbus.Variant{}, unknownInterface(iface)
	}
	value, ok := object.service.Property(name)
	if !ok {
		return dbus.Variant{}, unknownProperty(name)
	}
	return value, nil
}

func (object propertiesObject) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	if iface != Interface {
		return nil, unknownInterface(iface)
	}
	return object.service.Properties(), nil
}

func (object propertiesObject) Set(iface, name string, _ dbus.Variant) *dbus.Error {
	if iface != Interface {
		return unknownInterface(iface)
	}
	if _, ok := object.service.Property(name); !ok {
		return unknownProperty(name)
	}
	return dbus.NewError("org.freedesktop.DBus.Error.PropertyReadOnly",
		[]interface{}{fmt.Sprintf("property %s is read-only", name)})
}

func unknownInterface(iface string) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.UnknownInterface",
		[]interface{}{fmt.Sprintf("unknown interface %s", iface)})
}

func unknownProperty(name string) *dbus.Error {
	return dbus.NewError("org.freedesktop.DBus.Error.UnknownProperty",
		[]interface{}{fmt.Sprintf("unknown property %s", name)})
}

func introspectNode() *introspect.Node {
	noArgs := func(name string) introspect.Method {
		return introspect.Method{Name: name}
	}
	return &introspect.Node{
		Name: string(ObjectPath),
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			prop.IntrospectData,
			{
				Name: Interface,
				Methods: []introspect.Method{
					noArgs("Toggle"),
					noArgs("Start"),
					noArgs("Stop"),
					noArgs("Skip"),
					noArgs("Reset"),
					{
						Name: "Extend",
						Args: []introspect.Arg{{Name: "seconds", Type: "u", Direction: "in"}},
					},
				},
				Properties: []introspect.Property{
					{Name: PropertyState, Type: "s", Access: "read"},
					{Name: PropertyTimeLeft, Type: "u", Access: "read"},
					{Name: PropertyIsActive, Type: "b", Access: "read"},
					{Name: PropertySessionsCompleted, Type: "u", Access: "read"},
				},
			},
		},
	}
}
