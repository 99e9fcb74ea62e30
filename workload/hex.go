package workload

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// wordSize is the alignment of the hex encoding, one 256-bit word.
const wordSize = 32

// EncodeHex encodes data as a 32-byte big-endian length word followed by
// the data, zero padded to a multiple of 32 bytes, in lowercase hex.
func EncodeHex(data []byte) string {
	var sb strings.Builder

	padded := (len(data) + wordSize - 1) / wordSize * wordSize
	sb.Grow(2 * (wordSize + padded))

	fmt.Fprintf(&sb, "%064x", len(data))
	sb.WriteString(hex.EncodeToString(data))
	sb.WriteString(strings.Repeat("00", padded-len(data)))

	return sb.String()
}
