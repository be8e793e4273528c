package transport

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tarm/serial"
)

// Serial defaults.
const (
	DefaultBaud        = 115200
	DefaultReadTimeout = 100 * time.Millisecond
)

// ParseSerialURL converts a serial URL into a port config.
// Query parameters: baud, timeout (duration).
func ParseSerialURL(u *url.URL) (*serial.Config, error) {
	cfg := &serial.Config{
		Name:        u.Path,
		Baud:        DefaultBaud,
		ReadTimeout: DefaultReadTimeout,
	}
	if u.Opaque != "" {
		cfg.Name = u.Opaque
	}
	if cfg.Name == "" {
		return nil, fmt.Errorf("serial %q: missing device", u)
	}
	query := u.Query()
	if val := query.Get("baud"); val != "" {
		baud, err := strconv.Atoi(val)
		if err != nil || baud <= 0 {
			return nil, fmt.Errorf("serial %q: invalid baud %q", u, val)
		}
		cfg.Baud = baud
	}
	if val := query.Get("timeout"); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil || timeout <= 0 {
			return nil, fmt.Errorf("serial %q: invalid timeout %q", u, val)
		}
		cfg.ReadTimeout = timeout
	}
	return cfg, nil
}

// SerialPort wraps a serial port.
// Reads time out periodically so Close is observed by a blocked reader;
// a timed out Read returns (0, nil).
type SerialPort struct {
	port   *serial.Port
	closed atomic.Bool
}

// OpenSerial opens a serial port.
func OpenSerial(cfg *serial.Config) (*SerialPort, error) {
	if cfg.ReadTimeout == 0 {
		c := *cfg
		c.ReadTimeout = DefaultReadTimeout
		cfg = &c
	}
	port, err := serial.OpenPort(cfg)
	if err != nil {
		return nil, err
	}
	return &SerialPort{port: port}, nil
}

// Read implements io.Reader.
func (p *SerialPort) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if p.closed.Load() {
		return n, io.ErrClosedPipe
	}
	if n == 0 && errors.Is(err, io.EOF) {
		return 0, nil
	}
	return n, err
}

// Write implements io.Writer.
func (p *SerialPort) Write(b []byte) (int, error) {
	if p.closed.Load() {
		return 0, io.ErrClosedPipe
	}
	return p.port.Write(b)
}

// Close implements io.Closer.
func (p *SerialPort) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	return p.port.Close()
}
