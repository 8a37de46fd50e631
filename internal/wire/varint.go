// Package wire implements the Minecraft Java-Edition wire codec: VarInt and
// VarLong encoding, fixed-width big-endian integers, length-prefixed
// strings, UUIDs, packed positions, BitSets, and the optional compression
// and encryption filters layered on top of a packet frame.
package wire

import "github.com/parallelstone/mcserver-core/internal/protoerr"

const (
	// MaxVarIntBytes is the maximum number of bytes a VarInt may occupy.
	MaxVarIntBytes = 5
	// MaxVarLongBytes is the maximum number of bytes a VarLong may occupy.
	MaxVarLongBytes = 10

	segmentBits = 0x7F
	continueBit = 0x80
)

// EncodeVarInt returns the LEB128-style encoding of v, 1 to 5 bytes.
func EncodeVarInt(v int32) []byte {
	out := make([]byte, 0, MaxVarIntBytes)
	u := uint32(v)
	for {
		b := byte(u & segmentBits)
		u >>= 7
		if u != 0 {
			b |= continueBit
		}
		out = append(out, b)
		if u == 0 {
			break
		}
	}
	return out
}

// EncodeVarLong returns the LEB128-style encoding of v, 1 to 10 bytes.
func EncodeVarLong(v int64) []byte {
	out := make([]byte, 0, MaxVarLongBytes)
	u := uint64(v)
	for {
		b := byte(u & segmentBits)
		u >>= 7
		if u != 0 {
			b |= continueBit
		}
		out = append(out, b)
		if u == 0 {
			break
		}
	}
	return out
}

// byteSource is the minimal interface VarInt/VarLong decoding needs; both
// Buffer and PacketView satisfy it without exposing their other internals.
type byteSource interface {
	NextByte() (byte, error)
}

// DecodeVarInt reads a VarInt from src, rejecting a 6th continuation byte.
func DecodeVarInt(src byteSource) (int32, int, error) {
	var result uint32
	var n int
	for {
		b, err := src.NextByte()
		if err != nil {
			return 0, n, err
		}
		n++
		result |= uint32(b&segmentBits) << (7 * (n - 1))
		if b&continueBit == 0 {
			return int32(result), n, nil
		}
		if n >= MaxVarIntBytes {
			return 0, n, protoerr.Protocol("varint is too big (more than %d bytes)", MaxVarIntBytes)
		}
	}
}

// DecodeVarLong reads a VarLong from src, rejecting an 11th continuation byte.
func DecodeVarLong(src byteSource) (int64, int, error) {
	var result uint64
	var n int
	for {
		b, err := src.NextByte()
		if err != nil {
			return 0, n, err
		}
		n++
		result |= uint64(b&segmentBits) << (7 * (n - 1))
		if b&continueBit == 0 {
			return int64(result), n, nil
		}
		if n >= MaxVarLongBytes {
			return 0, n, protoerr.Protocol("varlong is too big (more than %d bytes)", MaxVarLongBytes)
		}
	}
}

// PeekVarInt decodes a VarInt out of a plain byte slice without requiring a
// byteSource, returning ok=false if the slice ends before a terminating
// byte is found (an incomplete VarInt). ok is also false when the first
// MaxVarIntBytes bytes all carry the continuation bit (a malformed VarInt);
// callers tell the two apart by whether MaxVarIntBytes bytes were present.
func PeekVarInt(b []byte) (value int32, n int, ok bool) {
	var result uint32
	for n = 0; n < len(b) && n < MaxVarIntBytes; n++ {
		cur := b[n]
		result |= uint32(cur&segmentBits) << (7 * n)
		if cur&continueBit == 0 {
			return int32(result), n + 1, true
		}
	}
	return 0, 0, false
}
