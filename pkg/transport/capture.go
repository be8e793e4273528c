package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/robotalks/dino.go/pkg/board"
)

// Direction of recorded traffic.
type Direction byte

// Directions.
const (
	DirRead  Direction = 'R'
	DirWrite Direction = 'W'
)

// String implements fmt.Stringer.
func (d Direction) String() string {
	switch d {
	case DirRead:
		return "read"
	case DirWrite:
		return "write"
	default:
		return fmt.Sprintf("dir(%d)", byte(d))
	}
}

// MaxRecordSize bounds the data of a single record.
const MaxRecordSize = 256 * board.DefaultReadBufferSize

// ErrRecordTooLarge indicates a record exceeding MaxRecordSize.
var ErrRecordTooLarge = errors.New("record too large")

// Record is a chunk of traffic.
// It's encoded as the direction byte, the 4-byte (little-endian) length
// and the data.
type Record struct {
	Dir  Direction
	Data []byte
}

// WriteRecord encodes a record.
func WriteRecord(w io.Writer, rec Record) error {
	if len(rec.Data) > MaxRecordSize {
		return fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, len(rec.Data))
	}
	hdr := make([]byte, 5)
	hdr[0] = byte(rec.Dir)
	binary.LittleEndian.PutUint32(hdr[1:], uint32(len(rec.Data)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	_, err := w.Write(rec.Data)
	return err
}

// ReadRecord decodes a record.
func ReadRecord(r io.Reader) (rec Record, err error) {
	var dir [1]byte
	if _, err = io.ReadFull(r, dir[:]); err != nil {
		return
	}
	rec.Dir = Direction(dir[0])
	if rec.Dir != DirRead && rec.Dir != DirWrite {
		return rec, fmt.Errorf("invalid record direction 0x%02x", dir[0])
	}
	var size uint32
	if err = binary.Read(r, binary.LittleEndian, &size); err != nil {
		return rec, noEOF(err)
	}
	if size > MaxRecordSize {
		return rec, fmt.Errorf("%w: %d bytes", ErrRecordTooLarge, size)
	}
	rec.Data = make([]byte, size)
	_, err = io.ReadFull(r, rec.Data)
	return rec, noEOF(err)
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// CaptureTransport records the traffic of a transport.
type CaptureTransport struct {
	board.Transport
	lock sync.Mutex
	sink io.Writer
	err  error
}

// Capture wraps t to record its traffic into sink. Recording failures
// don't affect the transport, the first one is kept in Err.
func Capture(t board.Transport, sink io.Writer) *CaptureTransport {
	return &CaptureTransport{Transport: t, sink: sink}
}

// Read implements io.Reader.
func (c *CaptureTransport) Read(p []byte) (int, error) {
	n, err := c.Transport.Read(p)
	if n > 0 {
		c.record(DirRead, p[:n])
	}
	return n, err
}

// Write implements io.Writer.
func (c *CaptureTransport) Write(p []byte) (int, error) {
	n, err := c.Transport.Write(p)
	if n > 0 {
		c.record(DirWrite, p[:n])
	}
	return n, err
}

// Err returns the first recording failure.
func (c *CaptureTransport) Err() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	return c.err
}

func (c *CaptureTransport) record(dir Direction, data []byte) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.err != nil {
		return
	}
	for len(data) > 0 && c.err == nil {
		n := min(len(data), MaxRecordSize)
		c.err = WriteRecord(c.sink, Record{Dir: dir, Data: data[:n]})
		data = data[n:]
	}
}

// Replay is a transport which plays back the read records of a capture.
// Writes are discarded. Read returns io.EOF after the last record.
type Replay struct {
	source io.Reader
	closer io.Closer
	buf    []byte
	done   chan struct{}
	once   sync.Once
}

// NewReplay creates a Replay reading records from source.
// source is closed with the Replay if it's an io.Closer.
func NewReplay(source io.Reader) *Replay {
	r := &Replay{source: source, done: make(chan struct{})}
	r.closer, _ = source.(io.Closer)
	return r
}

// Read implements io.Reader.
func (r *Replay) Read(p []byte) (int, error) {
	for len(r.buf) == 0 {
		select {
		case <-r.done:
			return 0, io.ErrClosedPipe
		default:
		}
		rec, err := ReadRecord(r.source)
		if err != nil {
			return 0, err
		}
		if rec.Dir == DirRead {
			r.buf = rec.Data
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Write implements io.Writer.
func (r *Replay) Write(p []byte) (int, error) {
	select {
	case <-r.done:
		return 0, io.ErrClosedPipe
	default:
		return len(p), nil
	}
}

// Close implements io.Closer.
func (r *Replay) Close() (err error) {
	r.once.Do(func() {
		close(r.done)
		if r.closer != nil {
			err = r.closer.Close()
		}
	})
	return
}
