package components

import (
	"context"
	"fmt"
	"strings"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// LCDClearAction clears the display.
type LCDClearAction struct{}

// String implements fmt.Stringer.
func (LCDClearAction) String() string {
	return "clear"
}

// LCDCursor moves the cursor.
type LCDCursor struct {
	Col, Row int
}

// String implements fmt.Stringer.
func (a LCDCursor) String() string {
	return fmt.Sprintf("cursor %d,%d", a.Col, a.Row)
}

// LCDPrint prints text at the cursor. It must fit in a single frame.
type LCDPrint string

// String implements fmt.Stringer.
func (a LCDPrint) String() string {
	return fmt.Sprintf("print %q", string(a))
}

const lcdMaxText = wire.MaxPayload - 1

// LCD is a HD44780 character display in 4-bit mode with pins
// rs, enable, d4, d5, d6, d7. Params cols (16) and rows (2) set the size.
// Value is a []string with the confirmed content of each row.
type LCD struct {
	*board.Base
	cols, rows int

	grid     [][]byte
	col, row int
}

// NewLCD creates a LCD.
func NewLCD(b *board.Board, bd board.Binding) (*LCD, error) {
	if err := bd.RequirePins(6); err != nil {
		return nil, err
	}
	cols, err := bd.ParamInt("cols", 16)
	if err != nil {
		return nil, err
	}
	rows, err := bd.ParamInt("rows", 2)
	if err != nil {
		return nil, err
	}
	if cols < 1 || cols > 40 || rows < 1 || rows > 4 {
		return nil, fmt.Errorf("%w %q: lcd size %dx%d", board.ErrBadBinding, bd.Name, cols, rows)
	}
	c := &LCD{Base: board.NewBase(b, bd), cols: cols, rows: rows}
	c.clear()
	return c, nil
}

// Init implements board.Initializer.
func (c *LCD) Init(ctx context.Context) error {
	data := []byte{byte(c.cols), byte(c.rows)}
	for _, pin := range c.Pins() {
		data = append(data, byte(pin))
	}
	return c.Send(ctx, wire.LCD(c.Pin(0), wire.LCDBegin, data...))
}

// Apply implements board.Component.
func (c *LCD) Apply(a board.Action) (*wire.Command, error) {
	switch act := a.(type) {
	case LCDClearAction:
		return wire.LCD(c.Pin(0), wire.LCDClear), nil
	case LCDCursor:
		if act.Col < 0 || act.Col >= c.cols || act.Row < 0 || act.Row >= c.rows {
			return nil, fmt.Errorf("%s %v: %w", c.Role(), act, ErrOutOfRange)
		}
		return wire.LCD(c.Pin(0), wire.LCDSetCursor, byte(act.Col), byte(act.Row)), nil
	case LCDPrint:
		if len(act) > lcdMaxText {
			return nil, fmt.Errorf("%s: text of %d bytes: %w", c.Role(), len(act), ErrOutOfRange)
		}
		return wire.LCD(c.Pin(0), wire.LCDPrint, []byte(act)...), nil
	}
	return nil, board.Unsupported(c.Role(), a)
}

// OnEvent implements board.Component.
func (c *LCD) OnEvent(ev *wire.Event) error {
	data, ok := acked(ev, wire.OpLCD)
	if !ok || len(data) == 0 {
		return nil
	}
	switch wire.LCDOp(data[0]) {
	case wire.LCDBegin, wire.LCDClear:
		c.clear()
	case wire.LCDSetCursor:
		if len(data) != 3 {
			return fmt.Errorf("%s: invalid cursor in %v", c.Role(), ev)
		}
		c.col, c.row = min(int(data[1]), c.cols), min(int(data[2]), c.rows-1)
	case wire.LCDPrint:
		for _, ch := range data[1:] {
			if c.col < c.cols {
				c.grid[c.row][c.col] = ch
				c.col++
			}
		}
	}
	c.publish()
	return nil
}

func (c *LCD) clear() {
	c.grid = make([][]byte, c.rows)
	for n := range c.grid {
		c.grid[n] = []byte(strings.Repeat(" ", c.cols))
	}
	c.col, c.row = 0, 0
	c.publish()
}

func (c *LCD) publish() {
	lines := make([]string, len(c.grid))
	for n, row := range c.grid {
		lines[n] = string(row)
	}
	c.SetValue(lines)
}

// Lines returns the confirmed content.
func (c *LCD) Lines() []string {
	lines, _ := c.Value().([]string)
	return lines
}

// Clear clears the display.
func (c *LCD) Clear(ctx context.Context) error {
	return c.Do(ctx, LCDClearAction{})
}

// SetCursor moves the cursor.
func (c *LCD) SetCursor(ctx context.Context, col, row int) error {
	return c.Do(ctx, LCDCursor{Col: col, Row: row})
}

// Print prints text at the cursor, splitting it into as many frames as
// needed.
func (c *LCD) Print(ctx context.Context, text string) error {
	var cmds []*wire.Command
	for len(text) > 0 {
		n := min(len(text), lcdMaxText)
		cmd, err := c.Apply(LCDPrint(text[:n]))
		if err != nil {
			return err
		}
		cmds = append(cmds, cmd)
		text = text[n:]
	}
	return c.Send(ctx, cmds...)
}
