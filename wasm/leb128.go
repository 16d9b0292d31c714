package wasm

import (
	"fmt"
	"io"
)

// AppendUleb128 appends the unsigned LEB128 encoding of v.
func AppendUleb128(dst []byte, v uint64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		dst = append(dst, b)
		if v == 0 {
			return dst
		}
	}
}

// AppendSleb128 appends the signed LEB128 encoding of v.
func AppendSleb128(dst []byte, v int64) []byte {
	for {
		b := byte(v & 0x7F)
		v >>= 7 // arithmetic shift keeps the sign
		signBit := b&0x40 != 0
		if (v == 0 && !signBit) || (v == -1 && signBit) {
			return append(dst, b)
		}
		dst = append(dst, b|0x80)
	}
}

// maxVarintLen is the longest legal LEB128 encoding of a 64-bit value.
const maxVarintLen = 10

// ReadUleb128 decodes an unsigned LEB128 value from buf, returning the
// value and the number of bytes consumed.
func ReadUleb128(buf []byte) (uint64, int, error) {
	var result uint64
	var shift uint
	for i, b := range buf {
		if i == maxVarintLen {
			return 0, 0, fmt.Errorf("uleb128 value too long")
		}
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			return result, i + 1, nil
		}
		shift += 7
	}
	return 0, 0, io.ErrUnexpectedEOF
}

// ReadSleb128 decodes a signed LEB128 value from buf, returning the value
// and the number of bytes consumed.
func ReadSleb128(buf []byte) (int64, int, error) {
	var result int64
	var shift uint
	for i, b := range buf {
		if i == maxVarintLen {
			return 0, 0, fmt.Errorf("sleb128 value too long")
		}
		result |= int64(b&0x7F) << shift
		shift += 7
		if b&0x80 == 0 {
			if shift < 64 && b&0x40 != 0 {
				result |= -1 << shift
			}
			return result, i + 1, nil
		}
	}
	return 0, 0, io.ErrUnexpectedEOF
}
