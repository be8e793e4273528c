package components

import (
	"errors"
	"fmt"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// Roles of the components in this package.
const (
	RoleLed        board.Role = "led"
	RoleButton     board.Role = "button"
	RoleSensor     board.Role = "sensor"
	RoleRgbLed     board.Role = "rgb_led"
	RoleServo      board.Role = "servo"
	RoleSSD        board.Role = "ssd"
	RoleStepper    board.Role = "stepper"
	RoleIrReceiver board.Role = "ir_receiver"
	RoleLCD        board.Role = "lcd"
)

// ErrOutOfRange indicates an action argument is out of range.
var ErrOutOfRange = errors.New("out of range")

// Factories returns the factory table of all components.
func Factories() board.Factories {
	return board.Factories{
		RoleLed:        factory(NewLed),
		RoleButton:     factory(NewButton),
		RoleSensor:     factory(NewSensor),
		RoleRgbLed:     factory(NewRgbLed),
		RoleServo:      factory(NewServo),
		RoleSSD:        factory(NewSSD),
		RoleStepper:    factory(NewStepper),
		RoleIrReceiver: factory(NewIrReceiver),
		RoleLCD:        factory(NewLCD),
	}
}

func factory[T board.Component](fn func(*board.Board, board.Binding) (T, error)) board.Factory {
	return func(b *board.Board, bd board.Binding) (board.Component, error) {
		c, err := fn(b, bd)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}

// ReadAction requests a one-shot reading.
type ReadAction struct{}

// Read is the ReadAction.
var Read board.Action = ReadAction{}

// String implements fmt.Stringer.
func (ReadAction) String() string {
	return "read"
}

// acked returns the echoed payload if ev acknowledges op.
func acked(ev *wire.Event, op wire.Opcode) ([]byte, bool) {
	if ev.Kind != wire.KindAck || ev.Acked() != op {
		return nil, false
	}
	return ev.Data, true
}

func unexpected(role board.Role, ev *wire.Event) error {
	return fmt.Errorf("%s: unexpected event %v", role, ev)
}

func u16(data []byte) (uint16, bool) {
	if len(data) != 2 {
		return 0, false
	}
	return uint16(data[0]) | uint16(data[1])<<8, true
}
