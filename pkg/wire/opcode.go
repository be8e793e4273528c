package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// Opcode identifies the operation carried by a frame.
type Opcode byte

// Command opcodes, sent from host to board.
const (
	OpSetMode      Opcode = 0x01
	OpDigitalWrite Opcode = 0x02
	OpAnalogWrite  Opcode = 0x03
	OpDigitalRead  Opcode = 0x04
	OpAnalogRead   Opcode = 0x05
	OpSetListener  Opcode = 0x06
	OpServoToggle  Opcode = 0x07
	OpServoWrite   Opcode = 0x08
	OpLCD          Opcode = 0x09
	OpReset        Opcode = 0x0f
)

// Event opcodes, sent from board to host.
const (
	OpDigitalEvent Opcode = 0x81
	OpAnalogEvent  Opcode = 0x82
	OpIRCodeEvent  Opcode = 0x83
	OpAck          Opcode = 0x84
)

const opEventMask Opcode = 0x80

var opcodeNames = map[Opcode]string{
	OpSetMode:      "SET_MODE",
	OpDigitalWrite: "DIGITAL_WRITE",
	OpAnalogWrite:  "ANALOG_WRITE",
	OpDigitalRead:  "DIGITAL_READ",
	OpAnalogRead:   "ANALOG_READ",
	OpSetListener:  "SET_LISTENER",
	OpServoToggle:  "SERVO_TOGGLE",
	OpServoWrite:   "SERVO_WRITE",
	OpLCD:          "LCD",
	OpReset:        "RESET",
	OpDigitalEvent: "DIGITAL_EVENT",
	OpAnalogEvent:  "ANALOG_EVENT",
	OpIRCodeEvent:  "IR_CODE_EVENT",
	OpAck:          "ACK",
}

// IsEvent indicates the opcode is sent by the board.
func (o Opcode) IsEvent() bool {
	return o&opEventMask != 0
}

// String implements fmt.Stringer.
func (o Opcode) String() string {
	if name, ok := opcodeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("OP_%02X", byte(o))
}

// ParseOpcode parses an opcode name like "DIGITAL_WRITE" (case insensitive)
// or a number like 0x02.
func ParseOpcode(s string) (Opcode, error) {
	name := strings.ToUpper(s)
	for op, n := range opcodeNames {
		if n == name {
			return op, nil
		}
	}
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("unknown opcode %q", s)
	}
	return Opcode(v), nil
}

// PinMode is the payload of OpSetMode.
type PinMode byte

// Pin modes.
const (
	ModeInput       PinMode = 0x00
	ModeOutput      PinMode = 0x01
	ModeInputPullup PinMode = 0x02
	ModePWM         PinMode = 0x03
	ModeServo       PinMode = 0x04
)

// ListenKind selects which reports OpSetListener enables on a pin.
type ListenKind byte

// Listener kinds.
const (
	ListenDigital ListenKind = 0x01
	ListenAnalog  ListenKind = 0x02
	ListenIR      ListenKind = 0x03
)

// LCDOp is the first payload byte of OpLCD.
type LCDOp byte

// LCD operations.
const (
	LCDBegin     LCDOp = 0x00 // [cols, rows, pins...]
	LCDClear     LCDOp = 0x01
	LCDSetCursor LCDOp = 0x02 // [col, row]
	LCDPrint     LCDOp = 0x03 // [text...]
)
