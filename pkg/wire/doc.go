// Package wire provides the board protocol codec.
package wire

// The board protocol is communicated between the board firmware and the
// host over a peer-to-peer byte stream (e.g. serial port).
//
// Every frame is length-delimited and carries a 16-bit checksum:
//
//	[START][OPCODE][PIN][LEN][PAYLOAD...][CHK_L][CHK_H][END]
//
// START and END are fixed sentinels. Payload bytes are never escaped, the
// decoder relies on LEN instead. A corrupted frame is dropped and the
// decoder resynchronizes on the next START, so corruption never stops the
// stream.
//
// Commands: host -> board (opcode high bit clear)
// Events:   board -> host (opcode high bit set)
