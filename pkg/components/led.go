package components

import (
	"context"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// LedAction switches a Led.
type LedAction bool

// Led actions.
const (
	LedOff LedAction = false
	LedOn  LedAction = true
)

// String implements fmt.Stringer.
func (a LedAction) String() string {
	if a {
		return "on"
	}
	return "off"
}

// Led is a single digital output. Value is a bool, nil until confirmed.
type Led struct {
	*board.Base
}

// NewLed creates a Led.
func NewLed(b *board.Board, bd board.Binding) (*Led, error) {
	if err := bd.RequirePins(1); err != nil {
		return nil, err
	}
	return &Led{Base: board.NewBase(b, bd)}, nil
}

// Init implements board.Initializer.
func (c *Led) Init(ctx context.Context) error {
	return c.Send(ctx, wire.SetMode(c.Pin(0), wire.ModeOutput))
}

// Apply implements board.Component.
func (c *Led) Apply(a board.Action) (*wire.Command, error) {
	if on, ok := a.(LedAction); ok {
		return wire.DigitalWrite(c.Pin(0), bool(on)), nil
	}
	return nil, board.Unsupported(c.Role(), a)
}

// OnEvent implements board.Component.
func (c *Led) OnEvent(ev *wire.Event) error {
	if data, ok := acked(ev, wire.OpDigitalWrite); ok && len(data) == 1 {
		c.SetValue(data[0] != 0)
	} else if ev.Kind == wire.KindDigital {
		c.SetValue(ev.High())
	}
	return nil
}

// IsOn reports the confirmed state.
func (c *Led) IsOn() bool {
	on, _ := c.Value().(bool)
	return on
}

// On turns the Led on.
func (c *Led) On(ctx context.Context) error {
	return c.Do(ctx, LedOn)
}

// Off turns the Led off.
func (c *Led) Off(ctx context.Context) error {
	return c.Do(ctx, LedOff)
}

// Toggle flips the confirmed state.
func (c *Led) Toggle(ctx context.Context) error {
	return c.Do(ctx, LedAction(!c.IsOn()))
}
