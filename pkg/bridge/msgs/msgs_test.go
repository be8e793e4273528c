package msgs

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

func TestEventMsg(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	ev := wire.IRCodeEvent(11, 0xef, 0x10)
	m := NewEventMsg(ev, nil, at)
	b, err := Marshal(m)
	require.NoError(t, err)

	var decoded EventMsg
	require.NoError(t, Unmarshal(b, &decoded))
	assert.Equal(t, int64(1700000000123), decoded.TimestampMs)
	assert.Empty(t, decoded.Component)
	assert.Equal(t, ev, decoded.Event())
}

func TestCommandMsg(t *testing.T) {
	b, err := Marshal(NewCommandMsg(wire.ServoWrite(9, 120)))
	require.NoError(t, err)
	var m CommandMsg
	require.NoError(t, Unmarshal(b, &m))
	cmd, err := m.Command()
	require.NoError(t, err)
	assert.Equal(t, wire.ServoWrite(9, 120), cmd)

	_, err = (&CommandMsg{Opcode: uint32(wire.OpAck), Pin: 1}).Command()
	require.Error(t, err)
	_, err = (&CommandMsg{Opcode: 0x102, Pin: 1}).Command()
	require.Error(t, err)
	_, err = (&CommandMsg{Opcode: uint32(wire.OpDigitalWrite), Pin: 256}).Command()
	require.ErrorIs(t, err, wire.ErrPinOutOfRange)
}

func TestDiagnosticMsg(t *testing.T) {
	m := NewDiagnosticMsg(board.Diagnostic{Kind: board.DiagUnhandledEvent, Pin: 4, Err: errors.New("nobody")}, time.UnixMilli(5))
	assert.Equal(t, &DiagnosticMsg{Kind: "unhandled-event", Pin: 4, Message: "nobody", TimestampMs: 5}, m)
}

func TestDecodeTopic(t *testing.T) {
	payload, err := Marshal(NewCommandMsg(wire.DigitalWrite(13, true)))
	require.NoError(t, err)
	m, err := DecodeTopic("dino/b1/cmd", payload)
	require.NoError(t, err)
	cmd, err := m.(*CommandMsg).Command()
	require.NoError(t, err)
	assert.Equal(t, wire.DigitalWrite(13, true), cmd)

	assert.IsType(t, &EventMsg{}, ForTopic("dino/b1/event/13"))
	assert.IsType(t, &DiagnosticMsg{}, ForTopic("b1/diag"))
	assert.IsType(t, &MetaMsg{}, ForTopic("b1/meta"))
	assert.Nil(t, ForTopic("b1/other"))
	assert.Nil(t, ForTopic("event"))

	_, err = DecodeTopic("b1/other", payload)
	require.Error(t, err)
	_, err = DecodeTopic("b1/meta", []byte{0xff})
	require.Error(t, err)
}
