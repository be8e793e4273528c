package msgs

import (
	"github.com/golang/protobuf/proto"
)

// EventMsg is a decoded board event.
type EventMsg struct {
	Kind        uint32 `protobuf:"varint,1,opt,name=kind,proto3" json:"kind,omitempty"`
	Pin         int32  `protobuf:"varint,2,opt,name=pin,proto3" json:"pin,omitempty"`
	Value       uint32 `protobuf:"varint,3,opt,name=value,proto3" json:"value,omitempty"`
	Data        []byte `protobuf:"bytes,4,opt,name=data,proto3" json:"data,omitempty"`
	Component   string `protobuf:"bytes,5,opt,name=component,proto3" json:"component,omitempty"`
	TimestampMs int64  `protobuf:"varint,6,opt,name=timestamp_ms,json=timestampMs,proto3" json:"timestamp_ms,omitempty"`
}

// Reset implements proto.Message.
func (m *EventMsg) Reset() { *m = EventMsg{} }

// String implements proto.Message.
func (m *EventMsg) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*EventMsg) ProtoMessage() {}

// CommandMsg requests a command to be sent to the board.
type CommandMsg struct {
	Opcode  uint32 `protobuf:"varint,1,opt,name=opcode,proto3" json:"opcode,omitempty"`
	Pin     int32  `protobuf:"varint,2,opt,name=pin,proto3" json:"pin,omitempty"`
	Payload []byte `protobuf:"bytes,3,opt,name=payload,proto3" json:"payload,omitempty"`
}

// Reset implements proto.Message.
func (m *CommandMsg) Reset() { *m = CommandMsg{} }

// String implements proto.Message.
func (m *CommandMsg) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*CommandMsg) ProtoMessage() {}

// DiagnosticMsg reports a board diagnostic.
type DiagnosticMsg struct {
	Kind        string `protobuf:"bytes,1,opt,name=kind,proto3" json:"kind,omitempty"`
	Pin         int32  `protobuf:"varint,2,opt,name=pin,proto3" json:"pin,omitempty"`
	Message     string `protobuf:"bytes,3,opt,name=message,proto3" json:"message,omitempty"`
	TimestampMs int64  `protobuf:"varint,4,opt,name=timestamp_ms,json=timestampMs,proto3" json:"timestamp_ms,omitempty"`
}

// Reset implements proto.Message.
func (m *DiagnosticMsg) Reset() { *m = DiagnosticMsg{} }

// String implements proto.Message.
func (m *DiagnosticMsg) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*DiagnosticMsg) ProtoMessage() {}

// ComponentMsg describes an attached component.
type ComponentMsg struct {
	Name string  `protobuf:"bytes,1,opt,name=name,proto3" json:"name,omitempty"`
	Role string  `protobuf:"bytes,2,opt,name=role,proto3" json:"role,omitempty"`
	Pins []int32 `protobuf:"varint,3,rep,packed,name=pins,proto3" json:"pins,omitempty"`
}

// Reset implements proto.Message.
func (m *ComponentMsg) Reset() { *m = ComponentMsg{} }

// String implements proto.Message.
func (m *ComponentMsg) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*ComponentMsg) ProtoMessage() {}

// MetaMsg is the retained status of a bridged board.
type MetaMsg struct {
	BoardId    string          `protobuf:"bytes,1,opt,name=board_id,json=boardId,proto3" json:"board_id,omitempty"`
	Online     bool            `protobuf:"varint,2,opt,name=online,proto3" json:"online,omitempty"`
	Components []*ComponentMsg `protobuf:"bytes,3,rep,name=components,proto3" json:"components,omitempty"`
}

// Reset implements proto.Message.
func (m *MetaMsg) Reset() { *m = MetaMsg{} }

// String implements proto.Message.
func (m *MetaMsg) String() string { return proto.CompactTextString(m) }

// ProtoMessage implements proto.Message.
func (*MetaMsg) ProtoMessage() {}
