package wire

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge indicates the payload exceeds MaxPayload.
	ErrPayloadTooLarge = errors.New("payload too large")
	// ErrPinOutOfRange indicates the pin can't be represented on the wire.
	ErrPinOutOfRange = errors.New("pin out of range")
)

// EncodingError is returned when a command can't be encoded.
// The command is never sent.
type EncodingError struct {
	Opcode Opcode
	Pin    int
	Err    error
}

// Error implements error.
func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode %v pin %d: %v", e.Opcode, e.Pin, e.Err)
}

// Unwrap returns the cause.
func (e *EncodingError) Unwrap() error {
	return e.Err
}

// DecodeReason tells why a frame was dropped.
type DecodeReason int

// Decode failure reasons.
const (
	ReasonLength DecodeReason = iota + 1
	ReasonChecksum
	ReasonTerminator
	ReasonOpcode
	ReasonPayload
)

// String implements fmt.Stringer.
func (r DecodeReason) String() string {
	switch r {
	case ReasonLength:
		return "length"
	case ReasonChecksum:
		return "checksum"
	case ReasonTerminator:
		return "terminator"
	case ReasonOpcode:
		return "opcode"
	case ReasonPayload:
		return "payload"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// DecodeError reports a dropped frame. It's a diagnostic: the decoder has
// already resynchronized when it's returned.
type DecodeError struct {
	Reason    DecodeReason
	Opcode    Opcode
	Pin       int
	Discarded int // bytes spanned by the dropped frame; all but START are scanned again
	Detail    string
}

// Error implements error.
func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("frame dropped (%v): %v pin %d, %d bytes spanned",
		e.Reason, e.Opcode, e.Pin, e.Discarded)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}
