package components

import (
	"context"
	"fmt"
	"slices"
	"unicode"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// Segment switches one segment of a SSD, index 0..6 for a..g, 7 for dp.
type Segment struct {
	Index int
	On    bool
}

// String implements fmt.Stringer.
func (a Segment) String() string {
	return fmt.Sprintf("segment %c %v", "abcdefgp"[a.Index&7], a.On)
}

// segment bits are gfedcba.
var glyphs = map[rune]uint8{
	'0': 0x3f, '1': 0x06, '2': 0x5b, '3': 0x4f, '4': 0x66,
	'5': 0x6d, '6': 0x7d, '7': 0x07, '8': 0x7f, '9': 0x6f,
	'a': 0x77, 'b': 0x7c, 'c': 0x39, 'd': 0x5e, 'e': 0x79, 'f': 0x71,
	'h': 0x76, 'l': 0x38, 'o': 0x5c, 'p': 0x73, 'u': 0x3e,
	'-': 0x40, '_': 0x08, ' ': 0x00,
}

// SSD is a seven segment display wired with pins a..g and an optional dp.
// Param anode=true drives a common-anode display. Value is the uint8
// segment mask.
type SSD struct {
	*board.Base
	anode bool
	mask  uint8
}

// NewSSD creates a SSD.
func NewSSD(b *board.Board, bd board.Binding) (*SSD, error) {
	if err := bd.RequirePins(7, 8); err != nil {
		return nil, err
	}
	anode, err := bd.ParamBool("anode", false)
	if err != nil {
		return nil, err
	}
	return &SSD{Base: board.NewBase(b, bd), anode: anode}, nil
}

// Init implements board.Initializer.
func (c *SSD) Init(ctx context.Context) error {
	pins := c.Pins()
	cmds := make([]*wire.Command, len(pins))
	for n, pin := range pins {
		cmds[n] = wire.SetMode(pin, wire.ModeOutput)
	}
	return c.Send(ctx, cmds...)
}

// Apply implements board.Component.
func (c *SSD) Apply(a board.Action) (*wire.Command, error) {
	seg, ok := a.(Segment)
	if !ok {
		return nil, board.Unsupported(c.Role(), a)
	}
	if seg.Index < 0 || seg.Index >= len(c.Pins()) {
		return nil, fmt.Errorf("%s segment %d: %w", c.Role(), seg.Index, ErrOutOfRange)
	}
	return wire.DigitalWrite(c.Pin(seg.Index), seg.On != c.anode), nil
}

// OnEvent implements board.Component.
func (c *SSD) OnEvent(ev *wire.Event) error {
	data, ok := acked(ev, wire.OpDigitalWrite)
	if !ok || len(data) != 1 {
		return nil
	}
	idx := slices.Index(c.Pins(), ev.Pin)
	if idx < 0 {
		return nil
	}
	if (data[0] != 0) != c.anode {
		c.mask |= 1 << idx
	} else {
		c.mask &^= 1 << idx
	}
	c.SetValue(c.mask)
	return nil
}

// Mask returns the confirmed segment mask.
func (c *SSD) Mask() uint8 {
	mask, _ := c.Value().(uint8)
	return mask
}

// Display shows a character. The dp segment is left untouched.
func (c *SSD) Display(ctx context.Context, ch rune) error {
	glyph, ok := glyphs[unicode.ToLower(ch)]
	if !ok {
		return fmt.Errorf("%s: no glyph for %q: %w", c.Role(), ch, ErrOutOfRange)
	}
	cmds := make([]*wire.Command, 7)
	for n := range cmds {
		cmd, err := c.Apply(Segment{Index: n, On: glyph&(1<<n) != 0})
		if err != nil {
			return err
		}
		cmds[n] = cmd
	}
	return c.Send(ctx, cmds...)
}
