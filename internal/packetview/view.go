// Package packetview implements the packet view (spec.md §3/§4.2, C2): a
// borrowed, read-only cursor over exactly one packet's payload. A View
// never grows, never compacts, and never mutates the bytes it references;
// its lifetime must not exceed the dispatch call that created it, because
// the receive buffer may compact immediately afterward.
package packetview

import (
	"math"

	"github.com/parallelstone/mcserver-core/internal/protoerr"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

// View is a non-owning cursor {base, len, pos} over a slice of bytes.
// It is not clonable (no exported copy constructor) but is freely passed
// by pointer within a single dispatch call; SubView borrows a prefix of
// the remaining window for a nested payload.
type View struct {
	base []byte
	pos  int
}

// New borrows data for the lifetime of the returned View. Callers MUST NOT
// mutate data, and MUST NOT retain the View past the buffer range's next
// mutation (e.g. Buffer.Compact).
func New(data []byte) *View {
	return &View{base: data}
}

func (v *View) Len() int            { return len(v.base) }
func (v *View) Pos() int            { return v.pos }
func (v *View) ReadableBytes() int  { return len(v.base) - v.pos }

// checkBounds uses overflow-safe addition: pos+n is compared against len
// without ever wrapping (n is bounds-checked against the remaining space
// first, so pos+n cannot overflow an int on any supported platform).
func (v *View) checkBounds(n int) error {
	if n < 0 {
		return protoerr.Protocol("negative read length %d", n)
	}
	if n > v.ReadableBytes() {
		return protoerr.Protocol("packet view underflow: requested %d bytes, %d available", n, v.ReadableBytes())
	}
	return nil
}

// ReadBytes returns the next n bytes without copying them; the returned
// slice aliases the View's backing array and must not outlive dispatch.
func (v *View) ReadBytes(n int) ([]byte, error) {
	if err := v.checkBounds(n); err != nil {
		return nil, err
	}
	out := v.base[v.pos : v.pos+n]
	v.pos += n
	return out, nil
}

// Skip advances pos by n without returning the bytes.
func (v *View) Skip(n int) error {
	_, err := v.ReadBytes(n)
	return err
}

// NextByte satisfies wire's byteSource interface for VarInt/VarLong decode.
func (v *View) NextByte() (byte, error) {
	if err := v.checkBounds(1); err != nil {
		return 0, err
	}
	b := v.base[v.pos]
	v.pos++
	return b, nil
}

func (v *View) ReadU8() (uint8, error) { return v.NextByte() }
func (v *View) ReadI8() (int8, error) {
	b, err := v.NextByte()
	return int8(b), err
}

func (v *View) ReadBool() (bool, error) {
	b, err := v.ReadU8()
	return b != 0, err
}

func (v *View) ReadU16() (uint16, error) {
	raw, err := v.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(raw[0])<<8 | uint16(raw[1]), nil
}
func (v *View) ReadI16() (int16, error) {
	u, err := v.ReadU16()
	return int16(u), err
}

func (v *View) ReadU32() (uint32, error) {
	raw, err := v.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]), nil
}
func (v *View) ReadI32() (int32, error) {
	u, err := v.ReadU32()
	return int32(u), err
}

func (v *View) ReadU64() (uint64, error) {
	raw, err := v.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	var val uint64
	for _, c := range raw {
		val = val<<8 | uint64(c)
	}
	return val, nil
}
func (v *View) ReadI64() (int64, error) {
	u, err := v.ReadU64()
	return int64(u), err
}

func (v *View) ReadF32() (float32, error) {
	u, err := v.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(u), nil
}
func (v *View) ReadF64() (float64, error) {
	u, err := v.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(u), nil
}

// ReadVarInt reads a VarInt, rejecting a 6th continuation byte.
func (v *View) ReadVarInt() (int32, error) {
	val, _, err := wire.DecodeVarInt(v)
	return val, err
}

// ReadVarLong reads a VarLong, rejecting an 11th continuation byte.
func (v *View) ReadVarLong() (int64, error) {
	val, _, err := wire.DecodeVarLong(v)
	return val, err
}

// ReadString reads a VarInt-length-prefixed UTF-8 string.
func (v *View) ReadString() (string, error) {
	runeCount, err := v.ReadVarInt()
	if err != nil {
		return "", err
	}
	if err := wire.ValidateDecodedStringLength(int(runeCount)); err != nil {
		return "", err
	}
	raw, err := v.ReadBytes(int(runeCount))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (v *View) ReadUUID() (wire.UUID, error) {
	most, err := v.ReadU64()
	if err != nil {
		return wire.UUID{}, err
	}
	least, err := v.ReadU64()
	if err != nil {
		return wire.UUID{}, err
	}
	return wire.UUID{Most: most, Least: least}, nil
}

// ReadPosition reads a packed block-position i64 and unpacks it.
func (v *View) ReadPosition() (wire.Position, error) {
	raw, err := v.ReadI64()
	if err != nil {
		return wire.Position{}, err
	}
	return wire.DecodePosition(raw), nil
}

// ReadVarIntLongArray reads VarInt(count) ‖ count × i64, the shape used by
// BitSet and similar length-prefixed long arrays.
func (v *View) ReadVarIntLongArray() ([]int64, error) {
	count, err := v.ReadVarInt()
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, protoerr.Protocol("negative long array count %d", count)
	}
	out := make([]int64, count)
	for i := range out {
		out[i], err = v.ReadI64()
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// PeekByte returns the next byte without advancing pos.
func (v *View) PeekByte() (byte, error) {
	if err := v.checkBounds(1); err != nil {
		return 0, err
	}
	return v.base[v.pos], nil
}

// SubView borrows a prefix of the remaining window of length n (or the
// rest of the view, if n is negative) for a nested payload. The returned
// View shares the backing array; advancing it does not advance v.
func (v *View) SubView(n int) (*View, error) {
	if n < 0 {
		n = v.ReadableBytes()
	}
	raw, err := v.ReadBytes(n)
	if err != nil {
		return nil, err
	}
	return New(raw), nil
}
