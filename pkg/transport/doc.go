// Package transport opens the byte streams a board is connected through.
//
// Supported URLs:
//
//	serial:///dev/ttyACM0?baud=115200&timeout=100ms
//	tcp://192.168.1.20:3466
//	ws://192.168.1.20:8080/board
//
// Capture wraps a transport to record the traffic in both directions.
package transport
