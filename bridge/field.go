package bridge

import (
	"bytes"
	"encoding/binary"
	"strconv"
)

// Long2Buff encodes n as 8 bytes big endian.
func Long2Buff(n int64) []byte {
	buff := make([]byte, 8)
	binary.BigEndian.PutUint64(buff, uint64(n))
	return buff
}

// Buff2Long decodes 8 bytes big endian starting at offset.
func Buff2Long(buff []byte, offset int) int64 {
	return int64(binary.BigEndian.Uint64(buff[offset : offset+8]))
}

// Buff2Int decodes 4 bytes big endian starting at offset.
func Buff2Int(buff []byte, offset int) uint32 {
	return binary.BigEndian.Uint32(buff[offset : offset+4])
}

// PackField returns a zero filled buffer of exactly size bytes holding
// the left aligned value. Longer values are silently truncated.
func PackField(value string, size int) []byte {
	buff := make([]byte, size)
	copy(buff, value)
	return buff
}

// UnpackField trims the zero padding (and blanks) of a fixed width field.
func UnpackField(buff []byte) string {
	return string(bytes.TrimSpace(bytes.TrimRight(buff, "\x00")))
}

// FormatIPAddress formats 4 bytes starting at offset as a dotted quad.
func FormatIPAddress(buff []byte, offset int) string {
	var sb bytes.Buffer
	for i := 0; i < 4; i++ {
		if i > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(strconv.Itoa(int(buff[offset+i])))
	}
	return sb.String()
}
