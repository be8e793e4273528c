package wire

// Checksum computes the 16-bit frame checksum over OPCODE..PAYLOAD.
// It's the two's complement of the byte sum, so sum+checksum == 0.
func Checksum(data []byte) uint16 {
	var sum uint16
	for _, b := range data {
		sum += uint16(b)
	}
	return 1 + (0xffff ^ sum)
}
