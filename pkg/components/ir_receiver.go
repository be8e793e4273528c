package components

import (
	"context"
	"fmt"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// IRCode is a received infrared code.
type IRCode struct {
	Code uint32
	Raw  []byte
}

// String implements fmt.Stringer.
func (c IRCode) String() string {
	return fmt.Sprintf("0x%08x", c.Code)
}

// IrReceiver reports infrared codes. Value is the last IRCode.
type IrReceiver struct {
	*board.Base
}

// NewIrReceiver creates an IrReceiver.
func NewIrReceiver(b *board.Board, bd board.Binding) (*IrReceiver, error) {
	if err := bd.RequirePins(1); err != nil {
		return nil, err
	}
	return &IrReceiver{Base: board.NewBase(b, bd)}, nil
}

// Init implements board.Initializer.
func (c *IrReceiver) Init(ctx context.Context) error {
	return c.Send(ctx,
		wire.SetMode(c.Pin(0), wire.ModeInput),
		wire.SetListener(c.Pin(0), wire.ListenIR, true))
}

// Apply implements board.Component.
func (c *IrReceiver) Apply(a board.Action) (*wire.Command, error) {
	return nil, board.Unsupported(c.Role(), a)
}

// OnEvent implements board.Component.
func (c *IrReceiver) OnEvent(ev *wire.Event) error {
	switch ev.Kind {
	case wire.KindIRCode:
		c.SetValue(IRCode{Code: ev.Value, Raw: ev.Data})
	case wire.KindAck:
	default:
		return unexpected(c.Role(), ev)
	}
	return nil
}

// Last returns the last code, ok is false if nothing received.
func (c *IrReceiver) Last() (code IRCode, ok bool) {
	code, ok = c.Value().(IRCode)
	return
}
