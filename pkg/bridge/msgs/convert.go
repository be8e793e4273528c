package msgs

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang/protobuf/proto"

	"github.com/robotalks/dino.go/pkg/board"
	"github.com/robotalks/dino.go/pkg/wire"
)

// Named is implemented by components with a binding name.
type Named interface {
	Name() string
}

// NewEventMsg converts an event. c may be nil for unhandled events.
func NewEventMsg(ev *wire.Event, c board.Component, at time.Time) *EventMsg {
	m := &EventMsg{
		Kind:        uint32(ev.Kind),
		Pin:         int32(ev.Pin),
		Value:       ev.Value,
		Data:        ev.Data,
		TimestampMs: at.UnixMilli(),
	}
	if named, ok := c.(Named); ok {
		m.Component = named.Name()
	}
	return m
}

// Event converts back into a wire event.
func (m *EventMsg) Event() *wire.Event {
	return &wire.Event{
		Kind:  wire.EventKind(m.Kind),
		Pin:   int(m.Pin),
		Value: m.Value,
		Data:  m.Data,
	}
}

// NewCommandMsg converts a command.
func NewCommandMsg(cmd *wire.Command) *CommandMsg {
	return &CommandMsg{
		Opcode:  uint32(cmd.Opcode()),
		Pin:     int32(cmd.Pin()),
		Payload: cmd.Payload(),
	}
}

// Command validates and converts the message into a command.
func (m *CommandMsg) Command() (*wire.Command, error) {
	op := wire.Opcode(m.Opcode)
	if m.Opcode > 0xff || op.IsEvent() {
		return nil, fmt.Errorf("invalid command opcode 0x%x", m.Opcode)
	}
	cmd := wire.NewCommand(op, int(m.Pin), m.Payload...)
	if _, err := cmd.Frame(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// NewDiagnosticMsg converts a diagnostic.
func NewDiagnosticMsg(d board.Diagnostic, at time.Time) *DiagnosticMsg {
	m := &DiagnosticMsg{
		Kind:        d.Kind.String(),
		Pin:         int32(d.Pin),
		TimestampMs: at.UnixMilli(),
	}
	if d.Err != nil {
		m.Message = d.Err.Error()
	}
	return m
}

// NewMetaMsg describes a board and its components.
func NewMetaMsg(id string, online bool, comps []board.Component) *MetaMsg {
	m := &MetaMsg{BoardId: id, Online: online}
	for _, c := range comps {
		cm := &ComponentMsg{Role: string(c.Role())}
		if named, ok := c.(Named); ok {
			cm.Name = named.Name()
		}
		for _, pin := range c.Pins() {
			cm.Pins = append(cm.Pins, int32(pin))
		}
		m.Components = append(m.Components, cm)
	}
	return m
}

// Marshal encodes a message.
func Marshal(m proto.Message) ([]byte, error) {
	return proto.Marshal(m)
}

// Unmarshal decodes a message.
func Unmarshal(b []byte, m proto.Message) error {
	return proto.Unmarshal(b, m)
}

// ForTopic returns an empty message of the type published on a bridge
// topic, or nil if the topic isn't a bridge topic.
func ForTopic(topic string) proto.Message {
	segs := strings.Split(topic, "/")
	switch {
	case len(segs) >= 3 && segs[len(segs)-2] == "event":
		return &EventMsg{}
	}
	switch segs[len(segs)-1] {
	case "cmd":
		return &CommandMsg{}
	case "diag":
		return &DiagnosticMsg{}
	case "meta":
		return &MetaMsg{}
	}
	return nil
}

// DecodeTopic decodes the payload of a bridge topic.
func DecodeTopic(topic string, payload []byte) (proto.Message, error) {
	m := ForTopic(topic)
	if m == nil {
		return nil, fmt.Errorf("unknown topic %q", topic)
	}
	if err := Unmarshal(payload, m); err != nil {
		return nil, err
	}
	return m, nil
}
