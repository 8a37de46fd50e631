package wire

import (
	"unicode/utf8"

	"github.com/bits-and-blooms/bitset"
	"github.com/google/uuid"

	"github.com/parallelstone/mcserver-core/internal/protoerr"
)

// MaxStringLength is the maximum number of UTF-8 scalar values a
// length-prefixed protocol string may contain (spec.md §4.1/§4.3).
const MaxStringLength = 32767

// EncodeString validates s against MaxStringLength and returns
// VarInt(byte length) ‖ UTF-8 bytes.
func EncodeString(s string) ([]byte, error) {
	if utf8.RuneCountInString(s) > MaxStringLength {
		return nil, protoerr.Protocol("string exceeds %d scalar values", MaxStringLength)
	}
	b := []byte(s)
	out := make([]byte, 0, len(b)+MaxVarIntBytes)
	out = append(out, EncodeVarInt(int32(len(b)))...)
	out = append(out, b...)
	return out, nil
}

// ValidateDecodedStringLength rejects strings whose declared length prefix
// (the UTF-8 byte count) exceeds MaxStringLength before the byte payload is
// even read. A string of more than MaxStringLength bytes is therefore
// rejected on decode even when EncodeString accepts it.
func ValidateDecodedStringLength(runeCount int) error {
	if runeCount > MaxStringLength {
		return protoerr.Protocol("string exceeds %d scalar values (got %d)", MaxStringLength, runeCount)
	}
	return nil
}

// UUID is the 128-bit identifier type used for player UUIDs, encoded on
// the wire as two big-endian u64s (most significant, least significant).
type UUID struct {
	Most  uint64
	Least uint64
}

// FromGoogleUUID converts a github.com/google/uuid value into the wire
// MSB/LSB representation.
func FromGoogleUUID(u uuid.UUID) UUID {
	return UUID{
		Most:  beUint64(u[0:8]),
		Least: beUint64(u[8:16]),
	}
}

// ToGoogleUUID converts the wire MSB/LSB representation back into a
// github.com/google/uuid value.
func (u UUID) ToGoogleUUID() uuid.UUID {
	var out uuid.UUID
	putBeUint64(out[0:8], u.Most)
	putBeUint64(out[8:16], u.Least)
	return out
}

func beUint64(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func putBeUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// Position is a block-coordinate triple packed into a single big-endian
// i64: bits [63..38]=x (26-bit signed), [37..12]=z (26-bit signed),
// [11..0]=y (12-bit signed).
type Position struct {
	X, Z int32
	Y    int32
}

// EncodePosition packs p into the wire i64 representation.
func EncodePosition(p Position) int64 {
	return ((int64(p.X) & 0x3FFFFFF) << 38) |
		((int64(p.Z) & 0x3FFFFFF) << 12) |
		(int64(p.Y) & 0xFFF)
}

// DecodePosition unpacks a wire i64 into a Position, sign-extending all
// three fields.
func DecodePosition(encoded int64) Position {
	x := int32(encoded >> 38)
	z := int32((encoded >> 12) & 0x3FFFFFF)
	y := int32(encoded & 0xFFF)

	if x >= 1<<25 {
		x -= 1 << 26
	}
	if z >= 1<<25 {
		z -= 1 << 26
	}
	if y >= 1<<11 {
		y -= 1 << 12
	}
	return Position{X: x, Y: y, Z: z}
}

// EncodeBitSet serializes bs as VarInt(long_count) ‖ long_count × i64,
// each long holding bit k at position k%64 of long k/64.
func EncodeBitSet(bs *bitset.BitSet) []byte {
	words := bs.Bytes() // little-endian []uint64 words, per bits-and-blooms/bitset
	out := make([]byte, 0, MaxVarIntBytes+len(words)*8)
	out = append(out, EncodeVarInt(int32(len(words)))...)
	for _, w := range words {
		var b [8]byte
		putBeUint64(b[:], w)
		out = append(out, b[:]...)
	}
	return out
}

// DecodeBitSet builds a BitSet from the longs of an already-parsed
// long_count + longs encoding; its length is len(longs)*64.
func DecodeBitSet(longs []int64) *bitset.BitSet {
	words := make([]uint64, len(longs))
	for i, l := range longs {
		words[i] = uint64(l)
	}
	return bitset.From(words)
}
