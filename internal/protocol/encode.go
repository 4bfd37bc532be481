package protocol

import "encoding/binary"

// Checksum sums every byte of the given chunks and keeps the low 16 bits.
func Checksum(chunks ...[]byte) uint16 {
	var sum uint32
	for _, chunk := range chunks {
		for _, b := range chunk {
			sum += uint32(b)
		}
	}
	return uint16(sum)
}

// EncodeFrame renders m as a complete wire frame, marker included. extra words
// are appended after the twelve measurement fields (the PMS5003 sends one
// reserved word there).
func EncodeFrame(m Measurement, extra ...uint16) []byte {
	words := append(m.words(), extra...)
	length := len(words)*2 + checksumFieldSize

	buf := make([]byte, 0, len(StartOfFrame)+lengthFieldSize+length)
	buf = append(buf, StartOfFrame[:]...)
	buf = binary.BigEndian.AppendUint16(buf, uint16(length))
	for _, w := range words {
		buf = binary.BigEndian.AppendUint16(buf, w)
	}
	return binary.BigEndian.AppendUint16(buf, Checksum(buf))
}
