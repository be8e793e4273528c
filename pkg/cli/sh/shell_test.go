package sh

import (
	"bytes"
	"context"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/components"
	"github.com/robotalks/dino.go/pkg/env"
	"github.com/robotalks/dino.go/pkg/wire"
)

type syncBuffer struct {
	lock sync.Mutex
	buf  bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) take() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	s := b.buf.String()
	b.buf.Reset()
	return s
}

type testPeer struct {
	conn   net.Conn
	frames chan *wire.Frame
}

func (p *testPeer) expect(t *testing.T, op wire.Opcode, pin int, payload ...byte) {
	select {
	case f, ok := <-p.frames:
		require.True(t, ok, "peer closed")
		assert.Equal(t, op, f.Opcode)
		assert.Equal(t, pin, int(f.Pin))
		assert.True(t, bytes.Equal(payload, f.Payload), "payload % x", f.Payload)
	case <-time.After(time.Second):
		t.Fatalf("expect %v on pin %d: timeout", op, pin)
	}
}

func (p *testPeer) ack(t *testing.T, cmd *wire.Command) {
	f, err := wire.AckEvent(cmd).Frame()
	require.NoError(t, err)
	_, err = f.WriteTo(p.conn)
	require.NoError(t, err)
}

func newTestShell(t *testing.T) (*Shell, *syncBuffer, *testPeer) {
	host, dev := net.Pipe()
	peer := &testPeer{conn: dev, frames: make(chan *wire.Frame, 64)}
	go func() {
		defer close(peer.frames)
		dec := wire.NewDecoder()
		buf := make([]byte, 256)
		for {
			n, err := dev.Read(buf)
			if err != nil {
				return
			}
			for f, err := range dec.Frames(buf[:n]) {
				if err == nil {
					peer.frames <- f
				}
			}
		}
	}()
	b := board.New(host,
		board.WithFactories(components.Factories()),
		board.WithDiagnostics(board.HandleDiagnosticFunc(func(context.Context, board.Diagnostic) {})))
	out := &syncBuffer{}
	s := New(env.NewConfig())
	s.Shell.SetOut(out)
	s.Use(b, "test")
	t.Cleanup(func() {
		s.Disconnect()
		dev.Close()
	})
	return s, out, peer
}

func TestShellDrivesLed(t *testing.T) {
	s, out, peer := newTestShell(t)

	require.NoError(t, s.Shell.Process("attach", "led", "13", "name=status"))
	peer.expect(t, wire.OpSetMode, 13, byte(wire.ModeOutput))
	assert.Contains(t, out.take(), `[13] led "status" = ?`)

	require.NoError(t, s.Shell.Process("on", "13"))
	peer.expect(t, wire.OpDigitalWrite, 13, 1)
	peer.ack(t, wire.DigitalWrite(13, true))
	led, ok := s.Board.Registry().Lookup(13)
	require.True(t, ok)
	require.Eventually(t, func() bool {
		return led.(*components.Led).IsOn()
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Shell.Process("value", "13"))
	assert.Equal(t, "true\n", out.take())

	require.NoError(t, s.Shell.Process("toggle", "13"))
	peer.expect(t, wire.OpDigitalWrite, 13, 0)

	err := s.Shell.Process("angle", "13", "90")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pin 13 is led, not servo")

	require.NoError(t, s.Shell.Process("detach", "13"))
	require.NoError(t, s.Shell.Process("list"))
	assert.Equal(t, "No components attached\n", out.take())
}

func TestShellSend(t *testing.T) {
	s, _, peer := newTestShell(t)

	require.NoError(t, s.Shell.Process("send", "reset", "0"))
	peer.expect(t, wire.OpReset, 0)
	require.NoError(t, s.Shell.Process("send", "0x03", "9", "0x80", "0"))
	peer.expect(t, wire.OpAnalogWrite, 9, 0x80, 0)

	require.Error(t, s.Shell.Process("send", "ack", "0"))
	require.Error(t, s.Shell.Process("send", "reset"))
	require.Error(t, s.Shell.Process("send", "reset", "0", "256"))
}

func TestShellAttachErrors(t *testing.T) {
	s, _, _ := newTestShell(t)

	require.ErrorIs(t, s.Shell.Process("attach", "bogus", "1"), board.ErrUnknownRole)
	require.Error(t, s.Shell.Process("attach", "led"))
}

func TestShellUnconnected(t *testing.T) {
	s := New(env.NewConfig())
	s.Shell.SetOut(&syncBuffer{})
	require.ErrorIs(t, s.Shell.Process("list"), board.ErrDisconnected)
	require.ErrorIs(t, s.Shell.Process("on", "13"), board.ErrDisconnected)
}

func TestParseBinding(t *testing.T) {
	bd, err := parseBinding(strings.Fields("servo 9 name=pan min=10 max=0x80 anode=true label=x"))
	require.NoError(t, err)
	assert.Equal(t, board.Binding{
		Name: "pan",
		Role: components.RoleServo,
		Pins: []int{9},
		Params: map[string]any{
			"min":   int64(10),
			"max":   int64(0x80),
			"anode": true,
			"label": "x",
		},
	}, bd)

	_, err = parseBinding([]string{"led"})
	require.Error(t, err)
	_, err = parseBinding([]string{"led", "x"})
	require.Error(t, err)
	_, err = parseBinding([]string{"led", "300"})
	require.ErrorIs(t, err, board.ErrBadBinding)
}
