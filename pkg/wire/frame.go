package wire

import "io"

// Frame structure constants.
const (
	// FrameStart marks the beginning of a frame.
	FrameStart byte = 0xf0
	// FrameEnd marks the end of a frame.
	FrameEnd byte = 0xf7
	// MaxPayload is the sanity bound of LEN.
	MaxPayload = 32
	// MaxPin is the largest pin number representable on the wire.
	MaxPin = 0xff
	// MinFrameSize is START + OPCODE + PIN + LEN + CHK(2) + END.
	MinFrameSize = 7
)

// Frame contains the information of a complete frame.
type Frame struct {
	Opcode  Opcode
	Pin     byte
	Payload []byte
}

// Size returns the encoded size.
func (f *Frame) Size() int {
	return MinFrameSize + len(f.Payload)
}

// AppendTo appends encoded bytes to b.
func (f *Frame) AppendTo(b []byte) ([]byte, error) {
	if len(f.Payload) > MaxPayload {
		return b, &EncodingError{Opcode: f.Opcode, Pin: int(f.Pin), Err: ErrPayloadTooLarge}
	}
	start := len(b)
	b = append(b, FrameStart, byte(f.Opcode), f.Pin, byte(len(f.Payload)))
	b = append(b, f.Payload...)
	chk := Checksum(b[start+1:])
	return append(b, byte(chk), byte(chk>>8), FrameEnd), nil
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() ([]byte, error) {
	return f.AppendTo(make([]byte, 0, f.Size()))
}

// WriteTo writes the encoded frame with a single Write.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}
