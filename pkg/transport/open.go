package transport

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/golang/glog"
	"github.com/robotalks/dino.go/pkg/board"
)

// DialTimeout bounds network connection attempts.
var DialTimeout = 10 * time.Second

// Open opens a transport from a URL.
// A bare device path like /dev/ttyUSB0 is treated as serial.
func Open(rawURL string) (board.Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("transport %q: %w", rawURL, err)
	}
	glog.V(2).Infof("transport: open %s", u.Redacted())
	switch u.Scheme {
	case "serial", "":
		cfg, err := ParseSerialURL(u)
		if err != nil {
			return nil, err
		}
		port, err := OpenSerial(cfg)
		if err != nil {
			return nil, err
		}
		return port, nil
	case "tcp":
		return net.DialTimeout("tcp", u.Host, DialTimeout)
	case "ws", "wss":
		conn, err := DialWebsocket(u.String(), "")
		if err != nil {
			return nil, err
		}
		return conn, nil
	default:
		return nil, fmt.Errorf("transport %q: unsupported scheme %q", rawURL, u.Scheme)
	}
}
