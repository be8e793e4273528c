package components

import (
	"context"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// Sensor is an analog input. Value is the last uint16 reading.
// With param listen=false (default true) it's only read on request.
type Sensor struct {
	*board.Base
	listen bool
}

// NewSensor creates a Sensor.
func NewSensor(b *board.Board, bd board.Binding) (*Sensor, error) {
	if err := bd.RequirePins(1); err != nil {
		return nil, err
	}
	listen, err := bd.ParamBool("listen", true)
	if err != nil {
		return nil, err
	}
	return &Sensor{Base: board.NewBase(b, bd), listen: listen}, nil
}

// Init implements board.Initializer.
func (c *Sensor) Init(ctx context.Context) error {
	cmds := []*wire.Command{wire.SetMode(c.Pin(0), wire.ModeInput)}
	if c.listen {
		cmds = append(cmds, wire.SetListener(c.Pin(0), wire.ListenAnalog, true))
	}
	return c.Send(ctx, cmds...)
}

// Apply implements board.Component.
func (c *Sensor) Apply(a board.Action) (*wire.Command, error) {
	if a == Read {
		return wire.AnalogRead(c.Pin(0)), nil
	}
	return nil, board.Unsupported(c.Role(), a)
}

// OnEvent implements board.Component.
func (c *Sensor) OnEvent(ev *wire.Event) error {
	switch ev.Kind {
	case wire.KindAnalog:
		c.SetValue(uint16(ev.Value))
	case wire.KindAck:
	default:
		return unexpected(c.Role(), ev)
	}
	return nil
}

// Reading returns the last reading, ok is false before the first one.
func (c *Sensor) Reading() (value uint16, ok bool) {
	value, ok = c.Value().(uint16)
	return
}

// Read requests a reading. The result arrives as an event.
func (c *Sensor) Read(ctx context.Context) error {
	return c.Do(ctx, Read)
}
