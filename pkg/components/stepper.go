package components

import (
	"context"
	"fmt"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// StepperDir sets the direction, true is forward.
type StepperDir bool

// String implements fmt.Stringer.
func (a StepperDir) String() string {
	if a {
		return "forward"
	}
	return "backward"
}

// StepperPulse drives the step pin.
type StepperPulse bool

// String implements fmt.Stringer.
func (a StepperPulse) String() string {
	return fmt.Sprintf("pulse %v", bool(a))
}

// Stepper is a step/dir driven stepper motor with pins step, dir.
// Value is the int position, counted from confirmed rising pulses.
type Stepper struct {
	*board.Base
	forward  bool
	position int
}

// NewStepper creates a Stepper.
func NewStepper(b *board.Board, bd board.Binding) (*Stepper, error) {
	if err := bd.RequirePins(2); err != nil {
		return nil, err
	}
	c := &Stepper{Base: board.NewBase(b, bd), forward: true}
	c.SetValue(0)
	return c, nil
}

// Init implements board.Initializer.
func (c *Stepper) Init(ctx context.Context) error {
	return c.Send(ctx,
		wire.SetMode(c.Pin(0), wire.ModeOutput),
		wire.SetMode(c.Pin(1), wire.ModeOutput))
}

// Apply implements board.Component.
func (c *Stepper) Apply(a board.Action) (*wire.Command, error) {
	switch act := a.(type) {
	case StepperDir:
		return wire.DigitalWrite(c.Pin(1), bool(act)), nil
	case StepperPulse:
		return wire.DigitalWrite(c.Pin(0), bool(act)), nil
	}
	return nil, board.Unsupported(c.Role(), a)
}

// OnEvent implements board.Component.
func (c *Stepper) OnEvent(ev *wire.Event) error {
	data, ok := acked(ev, wire.OpDigitalWrite)
	if !ok || len(data) != 1 {
		return nil
	}
	switch ev.Pin {
	case c.Pin(1):
		c.forward = data[0] != 0
	case c.Pin(0):
		if data[0] == 0 {
			break
		}
		if c.forward {
			c.position++
		} else {
			c.position--
		}
		c.SetValue(c.position)
	}
	return nil
}

// Position returns the confirmed position.
func (c *Stepper) Position() int {
	pos, _ := c.Value().(int)
	return pos
}

// Step moves steps forward, or backward if negative.
func (c *Stepper) Step(ctx context.Context, steps int) error {
	if steps == 0 {
		return nil
	}
	forward := steps > 0
	if !forward {
		steps = -steps
	}
	cmds := make([]*wire.Command, 0, 1+2*steps)
	cmds = append(cmds, wire.DigitalWrite(c.Pin(1), forward))
	for range steps {
		cmds = append(cmds,
			wire.DigitalWrite(c.Pin(0), true),
			wire.DigitalWrite(c.Pin(0), false))
	}
	return c.Send(ctx, cmds...)
}
