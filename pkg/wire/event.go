package wire

import (
	"encoding/binary"
	"fmt"
)

// EventKind is the kind of an event reported by the board.
type EventKind int

// Event kinds.
const (
	KindDigital EventKind = iota + 1
	KindAnalog
	KindIRCode
	KindAck
)

// DefaultAnalogBits is the default ADC resolution.
const DefaultAnalogBits = 10

var kindOpcodes = map[EventKind]Opcode{
	KindDigital: OpDigitalEvent,
	KindAnalog:  OpAnalogEvent,
	KindIRCode:  OpIRCodeEvent,
	KindAck:     OpAck,
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	switch k {
	case KindDigital:
		return "digital"
	case KindAnalog:
		return "analog"
	case KindIRCode:
		return "ir"
	case KindAck:
		return "ack"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Event is a decoded report from the board.
// The meaningful fields depend on Kind:
//
//	KindDigital: Value is 0 or 1
//	KindAnalog:  Value is the unsigned ADC reading
//	KindIRCode:  Data is the raw code, Value its little-endian prefix (<= 4 bytes)
//	KindAck:     Value is the acknowledged opcode, Data the echoed payload
type Event struct {
	Kind  EventKind
	Pin   int
	Value uint32
	Data  []byte
}

// High indicates a digital event reports a high level.
func (e *Event) High() bool {
	return e.Value != 0
}

// Acked returns the acknowledged opcode of an ack event.
func (e *Event) Acked() Opcode {
	return Opcode(e.Value)
}

// String implements fmt.Stringer.
func (e *Event) String() string {
	switch e.Kind {
	case KindAck:
		return fmt.Sprintf("ack pin=%d op=%v payload=% x", e.Pin, e.Acked(), e.Data)
	case KindIRCode:
		return fmt.Sprintf("ir pin=%d code=% x", e.Pin, e.Data)
	default:
		return fmt.Sprintf("%v pin=%d value=%d", e.Kind, e.Pin, e.Value)
	}
}

// Frame converts the event back into a frame, as the board would send it.
func (e *Event) Frame() (*Frame, error) {
	op, ok := kindOpcodes[e.Kind]
	if !ok {
		return nil, &EncodingError{Pin: e.Pin, Err: fmt.Errorf("unknown event kind %v", e.Kind)}
	}
	if e.Pin < 0 || e.Pin > MaxPin {
		return nil, &EncodingError{Opcode: op, Pin: e.Pin, Err: ErrPinOutOfRange}
	}
	f := &Frame{Opcode: op, Pin: byte(e.Pin)}
	switch e.Kind {
	case KindDigital:
		f.Payload = []byte{byte(e.Value)}
	case KindAnalog:
		f.Payload = le16(uint16(e.Value))
	case KindIRCode:
		f.Payload = e.Data
	case KindAck:
		f.Payload = append([]byte{byte(e.Value)}, e.Data...)
	}
	if len(f.Payload) > MaxPayload {
		return nil, &EncodingError{Opcode: op, Pin: e.Pin, Err: ErrPayloadTooLarge}
	}
	return f, nil
}

// DigitalEvent creates a digital event.
func DigitalEvent(pin int, high bool) *Event {
	return &Event{Kind: KindDigital, Pin: pin, Value: uint32(boolByte(high))}
}

// AnalogEvent creates an analog event.
func AnalogEvent(pin int, value uint16) *Event {
	return &Event{Kind: KindAnalog, Pin: pin, Value: uint32(value)}
}

// IRCodeEvent creates an IR code event.
func IRCodeEvent(pin int, code ...byte) *Event {
	data := append([]byte(nil), code...)
	return &Event{Kind: KindIRCode, Pin: pin, Value: lePrefix(data), Data: data}
}

// AckEvent creates the acknowledgement the board sends for a command.
func AckEvent(c *Command) *Event {
	return &Event{Kind: KindAck, Pin: c.Pin(), Value: uint32(c.Opcode()), Data: c.Payload()}
}

// EventFromFrame decodes an event frame. analogMax bounds analog readings.
func EventFromFrame(f *Frame, analogMax uint32) (*Event, error) {
	ev := &Event{Pin: int(f.Pin)}
	switch f.Opcode {
	case OpDigitalEvent:
		if len(f.Payload) != 1 || f.Payload[0] > 1 {
			return nil, payloadError(f, "digital value must be a single 0/1 byte")
		}
		ev.Kind, ev.Value = KindDigital, uint32(f.Payload[0])
	case OpAnalogEvent:
		if len(f.Payload) != 2 {
			return nil, payloadError(f, "analog value must be 2 bytes")
		}
		ev.Kind, ev.Value = KindAnalog, uint32(binary.LittleEndian.Uint16(f.Payload))
		if ev.Value > analogMax {
			return nil, payloadError(f, fmt.Sprintf("analog value %d exceeds %d", ev.Value, analogMax))
		}
	case OpIRCodeEvent:
		if len(f.Payload) == 0 {
			return nil, payloadError(f, "empty IR code")
		}
		ev.Kind, ev.Data = KindIRCode, append([]byte(nil), f.Payload...)
		ev.Value = lePrefix(ev.Data)
	case OpAck:
		if len(f.Payload) == 0 {
			return nil, payloadError(f, "ack without opcode")
		}
		ev.Kind, ev.Value = KindAck, uint32(f.Payload[0])
		if len(f.Payload) > 1 {
			ev.Data = append([]byte(nil), f.Payload[1:]...)
		}
	default:
		return nil, &DecodeError{
			Reason:    ReasonOpcode,
			Opcode:    f.Opcode,
			Pin:       int(f.Pin),
			Discarded: f.Size(),
		}
	}
	return ev, nil
}

func payloadError(f *Frame, detail string) *DecodeError {
	return &DecodeError{
		Reason:    ReasonPayload,
		Opcode:    f.Opcode,
		Pin:       int(f.Pin),
		Discarded: f.Size(),
		Detail:    detail,
	}
}

func lePrefix(data []byte) uint32 {
	var v uint32
	for i := 0; i < len(data) && i < 4; i++ {
		v |= uint32(data[i]) << (8 * i)
	}
	return v
}
