package wire

import "iter"

// Decoder decodes frames from a byte stream received in arbitrary chunks.
// It's not safe for concurrent use; the board feeds it from its reader loop.
type Decoder struct {
	// AnalogBits is the ADC resolution used to validate analog events.
	AnalogBits uint

	state   parseState
	frame   *Frame
	recvLen int
	sum     uint16
	chk     uint16
	raw     []byte
	pending []byte
	stats   Stats
}

// Stats counts decoder activity since creation.
type Stats struct {
	Frames  uint64 // complete frames
	Dropped uint64 // frames dropped with a DecodeError
	Skipped uint64 // garbage bytes outside frames, rescanned bytes included
}

// ParseResult is the result of one parsing step.
type ParseResult struct {
	Frame *Frame
	Err   *DecodeError
}

type parseState int

const (
	stateStart   parseState = iota // scanning for FrameStart
	stateOpcode                    // waiting for opcode
	statePin                       // waiting for pin
	stateLen                       // waiting for payload length
	statePayload                   // waiting for payload bytes
	stateChkLo                     // waiting for checksum low byte
	stateChkHi                     // waiting for checksum high byte
	stateEnd                       // waiting for FrameEnd
)

// NewDecoder creates a Decoder with default resolution.
func NewDecoder() *Decoder {
	return &Decoder{AnalogBits: DefaultAnalogBits}
}

// Stats returns the counters.
func (d *Decoder) Stats() Stats {
	return d.stats
}

// Reset drops the partial frame and any pending input.
func (d *Decoder) Reset() {
	d.resync()
	d.pending = nil
}

// Parse consumes one byte. A dropped frame is scanned again from the byte
// after its start marker, so one byte may complete several results.
func (d *Decoder) Parse(b byte) []ParseResult {
	var results []ParseResult
	for f, err := range d.Frames([]byte{b}) {
		pr := ParseResult{Frame: f}
		if err != nil {
			pr.Err = err.(*DecodeError)
		}
		results = append(results, pr)
	}
	return results
}

// Frames appends chunk to the pending input and returns a sequence of
// frames decoded from it. Input is consumed only while the sequence is
// iterated; what's left when iteration stops early is decoded by the next
// call. Each dropped frame is yielded as a (nil, *DecodeError) pair.
func (d *Decoder) Frames(chunk []byte) iter.Seq2[*Frame, error] {
	d.pending = append(d.pending, chunk...)
	return func(yield func(*Frame, error) bool) {
		for len(d.pending) > 0 {
			b := d.pending[0]
			d.pending = d.pending[1:]
			f, err := d.parseByte(b)
			switch {
			case err != nil:
				if !yield(nil, err) {
					return
				}
			case f != nil:
				if !yield(f, nil) {
					return
				}
			}
		}
	}
}

// Feed is like Frames but converts frames into events. Frames which are not
// valid events are yielded as (nil, *DecodeError).
func (d *Decoder) Feed(chunk []byte) iter.Seq2[*Event, error] {
	frames := d.Frames(chunk)
	return func(yield func(*Event, error) bool) {
		for f, err := range frames {
			var ev *Event
			if err == nil {
				if ev, err = EventFromFrame(f, d.analogMax()); err != nil {
					d.stats.Dropped++
				}
			}
			if !yield(ev, err) {
				return
			}
		}
	}
}

func (d *Decoder) analogMax() uint32 {
	bits := d.AnalogBits
	if bits == 0 {
		bits = DefaultAnalogBits
	}
	if bits >= 16 {
		return 0xffff
	}
	return 1<<bits - 1
}

func (d *Decoder) parseByte(b byte) (*Frame, *DecodeError) {
	if d.state != stateStart {
		d.raw = append(d.raw, b)
	}
	switch d.state {
	case stateStart:
		if b != FrameStart {
			d.stats.Skipped++
			return nil, nil
		}
		d.begin()
	case stateOpcode:
		d.frame.Opcode = Opcode(b)
		d.sum += uint16(b)
		d.state = statePin
	case statePin:
		d.frame.Pin = b
		d.sum += uint16(b)
		d.state = stateLen
	case stateLen:
		if int(b) > MaxPayload {
			return nil, d.abort(ReasonLength)
		}
		d.sum += uint16(b)
		if b == 0 {
			d.state = stateChkLo
		} else {
			d.frame.Payload, d.recvLen = make([]byte, b), 0
			d.state = statePayload
		}
	case statePayload:
		d.frame.Payload[d.recvLen] = b
		d.recvLen++
		d.sum += uint16(b)
		if d.recvLen >= len(d.frame.Payload) {
			d.state = stateChkLo
		}
	case stateChkLo:
		d.chk = uint16(b)
		d.state = stateChkHi
	case stateChkHi:
		d.chk |= uint16(b) << 8
		if d.sum+d.chk != 0 {
			return nil, d.abort(ReasonChecksum)
		}
		d.state = stateEnd
	case stateEnd:
		if b != FrameEnd {
			return nil, d.abort(ReasonTerminator)
		}
		return d.frameReady(), nil
	}
	return nil, nil
}

func (d *Decoder) begin() {
	d.frame = &Frame{}
	d.sum, d.chk, d.recvLen = 0, 0, 0
	d.raw = append(d.raw[:0], FrameStart)
	d.state = stateOpcode
}

// abort drops the current frame. Its bytes after the start marker go back
// to the front of the pending input: a frame following a truncated or
// corrupted one may start anywhere inside it.
func (d *Decoder) abort(reason DecodeReason) *DecodeError {
	err := &DecodeError{
		Reason:    reason,
		Opcode:    d.frame.Opcode,
		Pin:       int(d.frame.Pin),
		Discarded: len(d.raw),
	}
	d.stats.Dropped++
	rescan := append([]byte(nil), d.raw[1:]...)
	d.pending = append(rescan, d.pending...)
	d.resync()
	return err
}

func (d *Decoder) resync() {
	d.state = stateStart
	d.frame = nil
	d.raw = d.raw[:0]
}

func (d *Decoder) frameReady() *Frame {
	f := d.frame
	d.stats.Frames++
	d.resync()
	return f
}
