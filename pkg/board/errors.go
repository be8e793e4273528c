package board

import (
	"errors"
	"fmt"

	"github.com/robotalks/dino.go/pkg/wire"
)

var (
	// ErrDisconnected indicates the transport is gone.
	ErrDisconnected = errors.New("board disconnected")
	// ErrRunning indicates the reader loop is already running.
	ErrRunning = errors.New("reader loop already running")
	// ErrPinConflict indicates a pin is already claimed.
	ErrPinConflict = errors.New("pin conflict")
	// ErrNoPins indicates an empty pin set.
	ErrNoPins = errors.New("no pins")
	// ErrRegistered indicates the component is already registered.
	ErrRegistered = errors.New("component already registered")
	// ErrNotAttached indicates the component is not registered.
	ErrNotAttached = errors.New("component not attached")
	// ErrUnknownRole indicates no factory exists for a role.
	ErrUnknownRole = errors.New("unknown role")
	// ErrBadBinding indicates an invalid component binding.
	ErrBadBinding = errors.New("bad binding")
	// ErrUnsupportedAction indicates the component can't perform an action.
	ErrUnsupportedAction = errors.New("unsupported action")
)

// TransportError wraps a failure of the underlying transport.
type TransportError struct {
	Op  string
	Err error
}

// Error implements error.
func (e *TransportError) Error() string {
	return fmt.Sprintf("transport %s: %v", e.Op, e.Err)
}

// Unwrap returns the cause.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// PinConflictError is returned when registering a pin owned by another
// component.
type PinConflictError struct {
	Pin   int
	Owner Role
	Role  Role
}

// Error implements error.
func (e *PinConflictError) Error() string {
	return fmt.Sprintf("pin %d claimed by %s, requested by %s", e.Pin, e.Owner, e.Role)
}

// Is matches ErrPinConflict.
func (e *PinConflictError) Is(target error) bool {
	return target == ErrPinConflict
}

// UnhandledEventError reports an event on a pin no component owns.
type UnhandledEventError struct {
	Event *wire.Event
}

// Error implements error.
func (e *UnhandledEventError) Error() string {
	return fmt.Sprintf("unhandled event: %v", e.Event)
}

// ListenerError reports a listener which failed or panicked.
type ListenerError struct {
	Pin      int
	Index    int
	Observer bool
	Err      error
	Panic    any
}

// Error implements error.
func (e *ListenerError) Error() string {
	who := "listener"
	if e.Observer {
		who = "observer"
	}
	if e.Panic != nil {
		return fmt.Sprintf("%s %d on pin %d panic: %v", who, e.Index, e.Pin, e.Panic)
	}
	return fmt.Sprintf("%s %d on pin %d: %v", who, e.Index, e.Pin, e.Err)
}

// Unwrap returns the cause.
func (e *ListenerError) Unwrap() error {
	return e.Err
}

// ComponentPanicError reports a component which panicked handling an event.
type ComponentPanicError struct {
	Pin   int
	Role  Role
	Panic any
}

// Error implements error.
func (e *ComponentPanicError) Error() string {
	return fmt.Sprintf("%s on pin %d panic: %v", e.Role, e.Pin, e.Panic)
}

// UnsupportedActionError is returned by Apply for actions a role can't perform.
type UnsupportedActionError struct {
	Role   Role
	Action Action
}

// Unsupported creates an UnsupportedActionError.
func Unsupported(role Role, action Action) error {
	return &UnsupportedActionError{Role: role, Action: action}
}

// Error implements error.
func (e *UnsupportedActionError) Error() string {
	return fmt.Sprintf("%s: unsupported action %v", e.Role, e.Action)
}

// Is matches ErrUnsupportedAction.
func (e *UnsupportedActionError) Is(target error) bool {
	return target == ErrUnsupportedAction
}
