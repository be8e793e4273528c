package wire

import (
	"encoding/binary"
	"fmt"
)

// Command is an immutable request to the board.
type Command struct {
	op      Opcode
	pin     int
	payload []byte
}

// NewCommand creates a Command. The payload is copied.
func NewCommand(op Opcode, pin int, payload ...byte) *Command {
	c := &Command{op: op, pin: pin}
	if len(payload) > 0 {
		c.payload = append([]byte(nil), payload...)
	}
	return c
}

// Opcode returns the opcode.
func (c *Command) Opcode() Opcode { return c.op }

// Pin returns the target pin.
func (c *Command) Pin() int { return c.pin }

// Payload returns a copy of the payload.
func (c *Command) Payload() []byte {
	if len(c.payload) == 0 {
		return nil
	}
	return append([]byte(nil), c.payload...)
}

// Frame validates the command and converts it into a Frame.
func (c *Command) Frame() (*Frame, error) {
	if c.pin < 0 || c.pin > MaxPin {
		return nil, &EncodingError{Opcode: c.op, Pin: c.pin, Err: ErrPinOutOfRange}
	}
	if len(c.payload) > MaxPayload {
		return nil, &EncodingError{Opcode: c.op, Pin: c.pin, Err: ErrPayloadTooLarge}
	}
	return &Frame{Opcode: c.op, Pin: byte(c.pin), Payload: c.payload}, nil
}

// String implements fmt.Stringer.
func (c *Command) String() string {
	return fmt.Sprintf("%v pin=%d payload=% x", c.op, c.pin, c.payload)
}

// Encode encodes a command into frame bytes.
func Encode(c *Command) ([]byte, error) {
	f, err := c.Frame()
	if err != nil {
		return nil, err
	}
	return f.Bytes()
}

// SetMode configures the mode of a pin.
func SetMode(pin int, mode PinMode) *Command {
	return NewCommand(OpSetMode, pin, byte(mode))
}

// DigitalWrite drives a pin high or low.
func DigitalWrite(pin int, high bool) *Command {
	return NewCommand(OpDigitalWrite, pin, boolByte(high))
}

// AnalogWrite writes a PWM duty value.
func AnalogWrite(pin int, value uint16) *Command {
	return NewCommand(OpAnalogWrite, pin, le16(value)...)
}

// DigitalRead requests a one-shot digital event.
func DigitalRead(pin int) *Command {
	return NewCommand(OpDigitalRead, pin)
}

// AnalogRead requests a one-shot analog event.
func AnalogRead(pin int) *Command {
	return NewCommand(OpAnalogRead, pin)
}

// SetListener enables or disables continuous reports on a pin.
func SetListener(pin int, kind ListenKind, enable bool) *Command {
	return NewCommand(OpSetListener, pin, byte(kind), boolByte(enable))
}

// ServoToggle attaches or detaches the servo driver on a pin.
func ServoToggle(pin int, attach bool) *Command {
	return NewCommand(OpServoToggle, pin, boolByte(attach))
}

// ServoWrite moves a servo to an angle in degrees.
func ServoWrite(pin int, angle uint16) *Command {
	return NewCommand(OpServoWrite, pin, le16(angle)...)
}

// LCD sends a character display operation. pin is the display's first pin.
func LCD(pin int, op LCDOp, data ...byte) *Command {
	return NewCommand(OpLCD, pin, append([]byte{byte(op)}, data...)...)
}

// Reset asks the board to release all pins.
func Reset() *Command {
	return NewCommand(OpReset, 0)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func le16(v uint16) []byte {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return b
}
