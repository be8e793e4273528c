package transport

import (
	"net"
	"net/url"

	"golang.org/x/net/websocket"
)

// DialWebsocket connects to a network bridge exposing the board over a
// websocket. Frames are sent as binary messages.
func DialWebsocket(rawURL, origin string) (*websocket.Conn, error) {
	if origin == "" {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		scheme := "http"
		if u.Scheme == "wss" {
			scheme = "https"
		}
		origin = scheme + "://" + u.Host
	}
	config, err := websocket.NewConfig(rawURL, origin)
	if err != nil {
		return nil, err
	}
	config.Dialer = &net.Dialer{Timeout: DialTimeout}
	conn, err := websocket.DialConfig(config)
	if err != nil {
		return nil, err
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}
