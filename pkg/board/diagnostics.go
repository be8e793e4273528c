package board

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/glog"
	"github.com/robotalks/dino.go/pkg/wire"
)

// DiagnosticKind classifies a Diagnostic.
type DiagnosticKind int

// Diagnostic kinds.
const (
	DiagCorruptFrame DiagnosticKind = iota + 1
	DiagUnhandledEvent
	DiagDisconnected
	DiagPinConflict
	DiagListenerError
	DiagComponentError
)

// NoPin is the pin of diagnostics not related to a pin.
const NoPin = -1

var diagKindNames = map[DiagnosticKind]string{
	DiagCorruptFrame:   "corrupt-frame",
	DiagUnhandledEvent: "unhandled-event",
	DiagDisconnected:   "disconnected",
	DiagPinConflict:    "pin-conflict",
	DiagListenerError:  "listener-error",
	DiagComponentError: "component-error",
}

// String implements fmt.Stringer.
func (k DiagnosticKind) String() string {
	if name, ok := diagKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("diag(%d)", int(k))
}

// Diagnostic reports a non-fatal problem.
type Diagnostic struct {
	Kind DiagnosticKind
	Pin  int
	Err  error
}

// String implements fmt.Stringer.
func (d Diagnostic) String() string {
	if d.Pin == NoPin {
		return fmt.Sprintf("%v: %v", d.Kind, d.Err)
	}
	return fmt.Sprintf("%v pin %d: %v", d.Kind, d.Pin, d.Err)
}

// DiagnosticHandler receives diagnostics.
// It's called from the goroutine where the problem is found, mostly the
// reader loop, and must not block.
type DiagnosticHandler interface {
	HandleDiagnostic(context.Context, Diagnostic)
}

// HandleDiagnosticFunc is the func form of DiagnosticHandler.
type HandleDiagnosticFunc func(context.Context, Diagnostic)

// HandleDiagnostic implements DiagnosticHandler.
func (f HandleDiagnosticFunc) HandleDiagnostic(ctx context.Context, d Diagnostic) {
	f(ctx, d)
}

// LogDiagnostics logs diagnostics using glog.
var LogDiagnostics DiagnosticHandler = HandleDiagnosticFunc(logDiagnostic)

func logDiagnostic(_ context.Context, d Diagnostic) {
	switch d.Kind {
	case DiagDisconnected:
		glog.Errorf("board: %v", d)
	case DiagUnhandledEvent:
		glog.V(2).Infof("board: %v", d)
	default:
		glog.Warningf("board: %v", d)
	}
}

type multiDiagnostics []DiagnosticHandler

// MultiDiagnostics fans out diagnostics to all handlers in order.
func MultiDiagnostics(handlers ...DiagnosticHandler) DiagnosticHandler {
	var m multiDiagnostics
	for _, h := range handlers {
		if h != nil {
			m = append(m, h)
		}
	}
	return m
}

// HandleDiagnostic implements DiagnosticHandler.
func (m multiDiagnostics) HandleDiagnostic(ctx context.Context, d Diagnostic) {
	for _, h := range m {
		h.HandleDiagnostic(ctx, d)
	}
}

func corruptFrame(err error) Diagnostic {
	d := Diagnostic{Kind: DiagCorruptFrame, Pin: NoPin, Err: err}
	var decErr *wire.DecodeError
	if errors.As(err, &decErr) {
		d.Pin = decErr.Pin
	}
	return d
}
