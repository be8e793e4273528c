package components

import (
	"context"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// Button is a digital input reporting changes.
// Params:
//
//	pullup: use the internal pull-up resistor (default false)
//	invert: pressed is low level (default same as pullup)
type Button struct {
	*board.Base
	pullup bool
	invert bool
}

// NewButton creates a Button.
func NewButton(b *board.Board, bd board.Binding) (*Button, error) {
	if err := bd.RequirePins(1); err != nil {
		return nil, err
	}
	pullup, err := bd.ParamBool("pullup", false)
	if err != nil {
		return nil, err
	}
	invert, err := bd.ParamBool("invert", pullup)
	if err != nil {
		return nil, err
	}
	return &Button{Base: board.NewBase(b, bd), pullup: pullup, invert: invert}, nil
}

// Init implements board.Initializer.
func (c *Button) Init(ctx context.Context) error {
	mode := wire.ModeInput
	if c.pullup {
		mode = wire.ModeInputPullup
	}
	return c.Send(ctx,
		wire.SetMode(c.Pin(0), mode),
		wire.SetListener(c.Pin(0), wire.ListenDigital, true))
}

// Apply implements board.Component.
func (c *Button) Apply(a board.Action) (*wire.Command, error) {
	if a == Read {
		return wire.DigitalRead(c.Pin(0)), nil
	}
	return nil, board.Unsupported(c.Role(), a)
}

// OnEvent implements board.Component.
func (c *Button) OnEvent(ev *wire.Event) error {
	switch ev.Kind {
	case wire.KindDigital:
		c.SetValue(ev.High() != c.invert)
	case wire.KindAck:
	default:
		return unexpected(c.Role(), ev)
	}
	return nil
}

// Pressed reports the last known state.
func (c *Button) Pressed() bool {
	pressed, _ := c.Value().(bool)
	return pressed
}

// OnChange subscribes fn to state changes.
func (c *Button) OnChange(fn func(pressed bool)) (*board.Subscription, error) {
	return c.Board().Subscribe(c, board.ListenerFunc(func(_ context.Context, _ board.Component, ev *wire.Event) error {
		if ev.Kind == wire.KindDigital {
			fn(c.Pressed())
		}
		return nil
	}))
}
