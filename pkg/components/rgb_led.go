package components

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// Color is an RGB color.
type Color struct {
	R, G, B uint8
}

// String implements fmt.Stringer.
func (c Color) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (Color, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// RgbChannel sets the level of one channel: 0 red, 1 green, 2 blue.
type RgbChannel struct {
	Channel int
	Level   uint8
}

// String implements fmt.Stringer.
func (a RgbChannel) String() string {
	return fmt.Sprintf("channel %d = %d", a.Channel, a.Level)
}

// RgbLed is a 3-pin PWM led with pins red, green, blue.
// Param anode=true drives a common-anode led. Value is a Color.
type RgbLed struct {
	*board.Base
	anode bool
	color Color
}

// NewRgbLed creates a RgbLed.
func NewRgbLed(b *board.Board, bd board.Binding) (*RgbLed, error) {
	if err := bd.RequirePins(3); err != nil {
		return nil, err
	}
	anode, err := bd.ParamBool("anode", false)
	if err != nil {
		return nil, err
	}
	return &RgbLed{Base: board.NewBase(b, bd), anode: anode}, nil
}

// Init implements board.Initializer.
func (c *RgbLed) Init(ctx context.Context) error {
	cmds := make([]*wire.Command, 3)
	for n := range cmds {
		cmds[n] = wire.SetMode(c.Pin(n), wire.ModePWM)
	}
	return c.Send(ctx, cmds...)
}

// Apply implements board.Component.
func (c *RgbLed) Apply(a board.Action) (*wire.Command, error) {
	ch, ok := a.(RgbChannel)
	if !ok {
		return nil, board.Unsupported(c.Role(), a)
	}
	if ch.Channel < 0 || ch.Channel > 2 {
		return nil, fmt.Errorf("%s channel %d: %w", c.Role(), ch.Channel, ErrOutOfRange)
	}
	return wire.AnalogWrite(c.Pin(ch.Channel), uint16(c.level(ch.Level))), nil
}

func (c *RgbLed) level(v uint8) uint8 {
	if c.anode {
		return 0xff - v
	}
	return v
}

// OnEvent implements board.Component.
func (c *RgbLed) OnEvent(ev *wire.Event) error {
	data, ok := acked(ev, wire.OpAnalogWrite)
	if !ok {
		return nil
	}
	duty, ok := u16(data)
	if !ok || duty > 0xff {
		return fmt.Errorf("%s: invalid duty in %v", c.Role(), ev)
	}
	level := c.level(uint8(duty))
	switch slices.Index(c.Pins(), ev.Pin) {
	case 0:
		c.color.R = level
	case 1:
		c.color.G = level
	case 2:
		c.color.B = level
	}
	c.SetValue(c.color)
	return nil
}

// Color returns the confirmed color.
func (c *RgbLed) Color() Color {
	color, _ := c.Value().(Color)
	return color
}

// SetColor writes all three channels at once.
func (c *RgbLed) SetColor(ctx context.Context, color Color) error {
	cmds := make([]*wire.Command, 0, 3)
	for n, level := range []uint8{color.R, color.G, color.B} {
		cmd, err := c.Apply(RgbChannel{Channel: n, Level: level})
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
	}
	return c.Send(ctx, cmds...)
}
