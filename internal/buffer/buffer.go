// Package buffer implements the framed byte buffer (spec.md §3/§4.1, C1):
// an append-only write side and a monotonic read side over one contiguous
// byte region, with VarInt-aware packet-boundary queries and compaction.
// It is exclusively owned by its Session; there is no internal locking.
package buffer

import (
	"math"

	"github.com/parallelstone/mcserver-core/internal/protoerr"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

const defaultInitialCapacity = 4096

// Buffer is a growable byte region with read_pos <= write_pos <= capacity.
type Buffer struct {
	data     []byte
	readPos  int
	writePos int
}

// New returns a Buffer with the given initial capacity (0 selects a
// reasonable default, matching the teacher's receive-buffer sizing).
func New(initialCapacity int) *Buffer {
	if initialCapacity <= 0 {
		initialCapacity = defaultInitialCapacity
	}
	return &Buffer{data: make([]byte, initialCapacity)}
}

func (b *Buffer) ReadPos() int     { return b.readPos }
func (b *Buffer) WritePos() int    { return b.writePos }
func (b *Buffer) Capacity() int    { return len(b.data) }
func (b *Buffer) ReadableBytes() int  { return b.writePos - b.readPos }
func (b *Buffer) WritableBytes() int  { return len(b.data) - b.writePos }
func (b *Buffer) HasReadableData() bool { return b.readPos < b.writePos }

// WritableRegion returns the slice an async receive should write directly
// into (zero-copy ingress, spec.md §4.7/§9).
func (b *Buffer) WritableRegion() []byte { return b.data[b.writePos:] }

// Written returns everything appended so far. Used when a Buffer is reused
// as a scratch packet-body builder rather than a receive window.
func (b *Buffer) Written() []byte { return b.data[:b.writePos] }

// AdvanceWritePosition extends write_pos by n after bytes have been
// written directly into WritableRegion (e.g. by a socket read).
func (b *Buffer) AdvanceWritePosition(n int) {
	b.writePos += n
}

// ensureCapacity grows the backing array geometrically so write_pos+size
// fits, never shrinking and never discarding already-written bytes.
func (b *Buffer) ensureCapacity(size int) {
	need := b.writePos + size
	if need <= len(b.data) {
		return
	}
	newCap := len(b.data)
	if newCap == 0 {
		newCap = defaultInitialCapacity
	}
	for newCap < need {
		newCap *= 2
	}
	grown := make([]byte, newCap)
	copy(grown, b.data[:b.writePos])
	b.data = grown
}

// WriteBytes appends src to the buffer, growing capacity if needed.
func (b *Buffer) WriteBytes(src []byte) {
	b.ensureCapacity(len(src))
	copy(b.data[b.writePos:], src)
	b.writePos += len(src)
}

func (b *Buffer) WriteU8(v uint8) { b.WriteBytes([]byte{v}) }
func (b *Buffer) WriteI8(v int8)  { b.WriteBytes([]byte{byte(v)}) }

func (b *Buffer) WriteU16(v uint16) {
	b.WriteBytes([]byte{byte(v >> 8), byte(v)})
}
func (b *Buffer) WriteI16(v int16) { b.WriteU16(uint16(v)) }

func (b *Buffer) WriteU32(v uint32) {
	b.WriteBytes([]byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)})
}
func (b *Buffer) WriteI32(v int32) { b.WriteU32(uint32(v)) }

func (b *Buffer) WriteU64(v uint64) {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (56 - 8*i))
	}
	b.WriteBytes(buf[:])
}
func (b *Buffer) WriteI64(v int64) { b.WriteU64(uint64(v)) }

func (b *Buffer) WriteF32(v float32) { b.WriteU32(math.Float32bits(v)) }
func (b *Buffer) WriteF64(v float64) { b.WriteU64(math.Float64bits(v)) }

func (b *Buffer) WriteBool(v bool) {
	if v {
		b.WriteU8(1)
	} else {
		b.WriteU8(0)
	}
}

func (b *Buffer) WriteVarInt(v int32)  { b.WriteBytes(wire.EncodeVarInt(v)) }
func (b *Buffer) WriteVarLong(v int64) { b.WriteBytes(wire.EncodeVarLong(v)) }

// WriteString encodes s as VarInt(byte length) ‖ UTF-8 bytes, rejecting
// strings over wire.MaxStringLength Unicode scalar values.
func (b *Buffer) WriteString(s string) error {
	enc, err := wire.EncodeString(s)
	if err != nil {
		return err
	}
	b.WriteBytes(enc)
	return nil
}

func (b *Buffer) WriteUUID(u wire.UUID) {
	b.WriteU64(u.Most)
	b.WriteU64(u.Least)
}

// --- reading ---

func (b *Buffer) checkReadable(n int) error {
	if b.readPos+n > b.writePos {
		return protoerr.Protocol("buffer underflow: requested %d bytes, %d available", n, b.ReadableBytes())
	}
	return nil
}

// ReadBytes reads exactly n bytes, advancing read_pos.
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if err := b.checkReadable(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b.data[b.readPos:b.readPos+n])
	b.readPos += n
	return out, nil
}

// NextByte satisfies wire's byteSource interface for VarInt/VarLong decode.
func (b *Buffer) NextByte() (byte, error) {
	if err := b.checkReadable(1); err != nil {
		return 0, err
	}
	v := b.data[b.readPos]
	b.readPos++
	return v, nil
}

func (b *Buffer) ReadU8() (uint8, error) {
	v, err := b.NextByte()
	return v, err
}

func (b *Buffer) ReadI8() (int8, error) {
	v, err := b.NextByte()
	return int8(v), err
}

func (b *Buffer) ReadBool() (bool, error) {
	v, err := b.ReadU8()
	return v != 0, err
}

func (b *Buffer) ReadU16() (uint16, error) {
	raw, err := b.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return uint16(raw[0])<<8 | uint16(raw[1]), nil
}
func (b *Buffer) ReadI16() (int16, error) {
	v, err := b.ReadU16()
	return int16(v), err
}

func (b *Buffer) ReadU32() (uint32, error) {
	raw, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]), nil
}
func (b *Buffer) ReadI32() (int32, error) {
	v, err := b.ReadU32()
	return int32(v), err
}

func (b *Buffer) ReadU64() (uint64, error) {
	raw, err := b.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	var v uint64
	for _, c := range raw {
		v = v<<8 | uint64(c)
	}
	return v, nil
}
func (b *Buffer) ReadI64() (int64, error) {
	v, err := b.ReadU64()
	return int64(v), err
}

func (b *Buffer) ReadF32() (float32, error) {
	v, err := b.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}
func (b *Buffer) ReadF64() (float64, error) {
	v, err := b.ReadU64()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// ReadVarInt reads a VarInt, rejecting a 6th continuation byte.
func (b *Buffer) ReadVarInt() (int32, error) {
	v, _, err := wire.DecodeVarInt(b)
	return v, err
}

// ReadVarLong reads a VarLong, rejecting an 11th continuation byte.
func (b *Buffer) ReadVarLong() (int64, error) {
	v, _, err := wire.DecodeVarLong(b)
	return v, err
}

// ReadString reads a VarInt-length-prefixed UTF-8 string.
func (b *Buffer) ReadString() (string, error) {
	runeCount, err := b.ReadVarInt()
	if err != nil {
		return "", err
	}
	if err := wire.ValidateDecodedStringLength(int(runeCount)); err != nil {
		return "", err
	}
	raw, err := b.ReadBytes(int(runeCount))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (b *Buffer) ReadUUID() (wire.UUID, error) {
	most, err := b.ReadU64()
	if err != nil {
		return wire.UUID{}, err
	}
	least, err := b.ReadU64()
	if err != nil {
		return wire.UUID{}, err
	}
	return wire.UUID{Most: most, Least: least}, nil
}

// AdvanceReadPosition advances read_pos by n, failing if that would exceed
// write_pos.
func (b *Buffer) AdvanceReadPosition(n int) error {
	if err := b.checkReadable(n); err != nil {
		return err
	}
	b.readPos += n
	return nil
}

// HasCompletePacket reports whether the buffer holds a full VarInt length
// prefix and at least that many subsequent bytes.
func (b *Buffer) HasCompletePacket() bool {
	length, n, ok := wire.PeekVarInt(b.data[b.readPos:b.writePos])
	if !ok {
		return false
	}
	return b.ReadableBytes()-n >= int(length)
}

// PeekByte returns the next unread byte without advancing read_pos. ok is
// false if no byte is available yet.
func (b *Buffer) PeekByte() (v byte, ok bool) {
	if b.readPos >= b.writePos {
		return 0, false
	}
	return b.data[b.readPos], true
}

// PeekPacketLength decodes the length VarInt without advancing read_pos.
// ok is false if the VarInt is incomplete in the buffer, and also if its
// first wire.MaxVarIntBytes bytes all carry the continuation bit (malformed).
func (b *Buffer) PeekPacketLength() (length int32, ok bool) {
	length, _, ok = wire.PeekVarInt(b.data[b.readPos:b.writePos])
	return length, ok
}

// SkipPacketLength advances read_pos past the length VarInt.
func (b *Buffer) SkipPacketLength() error {
	_, n, ok := wire.PeekVarInt(b.data[b.readPos:b.writePos])
	if !ok {
		return protoerr.Internal("skip_packet_length called without a complete length varint")
	}
	b.readPos += n
	return nil
}

// CurrentReadSlice returns the slice at the current read position, used to
// build a zero-copy PacketView over the next n bytes (C2).
func (b *Buffer) CurrentReadSlice(n int) ([]byte, error) {
	if err := b.checkReadable(n); err != nil {
		return nil, err
	}
	return b.data[b.readPos : b.readPos+n], nil
}

// Compact copies [read_pos, write_pos) to offset 0 and resets
// read_pos=0, write_pos=len, preserving all readable data.
func (b *Buffer) Compact() {
	if b.readPos == 0 {
		return
	}
	n := copy(b.data, b.data[b.readPos:b.writePos])
	b.readPos = 0
	b.writePos = n
}

// Grow forces capacity growth to at least size bytes beyond write_pos,
// used when compaction alone does not free enough writable space.
func (b *Buffer) Grow(size int) {
	b.ensureCapacity(size)
}
