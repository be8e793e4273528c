// Package msgs defines the messages exchanged with the MQTT bridge.
//
// Messages are protobuf encoded, the schema is board.proto. Topics, relative
// to the bridge prefix:
//
//	<board>/event/<pin>  EventMsg, every decoded event
//	<board>/diag         DiagnosticMsg
//	<board>/meta         MetaMsg, retained
//	<board>/cmd          CommandMsg, consumed by the bridge
package msgs
