package components

import (
	"context"
	"fmt"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// ServoAngle moves a servo, in degrees.
type ServoAngle uint16

// String implements fmt.Stringer.
func (a ServoAngle) String() string {
	return fmt.Sprintf("%d°", uint16(a))
}

// Servo is a hobby servo. Params min and max bound the angle (0..180).
type Servo struct {
	*board.Base
	min, max int
}

// NewServo creates a Servo.
func NewServo(b *board.Board, bd board.Binding) (*Servo, error) {
	if err := bd.RequirePins(1); err != nil {
		return nil, err
	}
	lo, err := bd.ParamInt("min", 0)
	if err != nil {
		return nil, err
	}
	hi, err := bd.ParamInt("max", 180)
	if err != nil {
		return nil, err
	}
	if lo < 0 || hi > 180 || lo > hi {
		return nil, fmt.Errorf("%w %q: servo range %d..%d", board.ErrBadBinding, bd.Name, lo, hi)
	}
	return &Servo{Base: board.NewBase(b, bd), min: lo, max: hi}, nil
}

// Init implements board.Initializer.
func (c *Servo) Init(ctx context.Context) error {
	return c.Send(ctx,
		wire.SetMode(c.Pin(0), wire.ModeServo),
		wire.ServoToggle(c.Pin(0), true))
}

// Apply implements board.Component.
func (c *Servo) Apply(a board.Action) (*wire.Command, error) {
	angle, ok := a.(ServoAngle)
	if !ok {
		return nil, board.Unsupported(c.Role(), a)
	}
	if int(angle) < c.min || int(angle) > c.max {
		return nil, fmt.Errorf("%s angle %d not in %d..%d: %w", c.Role(), angle, c.min, c.max, ErrOutOfRange)
	}
	return wire.ServoWrite(c.Pin(0), uint16(angle)), nil
}

// OnEvent implements board.Component.
func (c *Servo) OnEvent(ev *wire.Event) error {
	if data, ok := acked(ev, wire.OpServoWrite); ok {
		angle, ok := u16(data)
		if !ok {
			return fmt.Errorf("%s: invalid angle in %v", c.Role(), ev)
		}
		c.SetValue(angle)
	}
	return nil
}

// Angle returns the confirmed angle, ok is false before the first write.
func (c *Servo) Angle() (angle uint16, ok bool) {
	angle, ok = c.Value().(uint16)
	return
}

// Write moves the servo.
func (c *Servo) Write(ctx context.Context, angle uint16) error {
	return c.Do(ctx, ServoAngle(angle))
}

// Release detaches the servo driver from the pin, the pin stays claimed.
func (c *Servo) Release(ctx context.Context) error {
	return c.Send(ctx, wire.ServoToggle(c.Pin(0), false))
}
