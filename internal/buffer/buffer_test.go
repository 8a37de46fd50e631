package buffer_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelstone/mcserver-core/internal/buffer"
)

func TestWriteReadRoundTrip(t *testing.T) {
	b := buffer.New(16)
	b.WriteU8(0xAB)
	b.WriteBool(true)
	b.WriteI16(-7)
	b.WriteU32(0xDEADBEEF)
	b.WriteI64(-1)
	require.NoError(t, b.WriteString("hello"))
	b.WriteVarInt(300)
	b.WriteVarLong(-300)

	u8, err := b.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 0xAB, u8)

	bl, err := b.ReadBool()
	require.NoError(t, err)
	require.True(t, bl)

	i16, err := b.ReadI16()
	require.NoError(t, err)
	require.EqualValues(t, -7, i16)

	u32, err := b.ReadU32()
	require.NoError(t, err)
	require.EqualValues(t, 0xDEADBEEF, u32)

	i64, err := b.ReadI64()
	require.NoError(t, err)
	require.EqualValues(t, -1, i64)

	s, err := b.ReadString()
	require.NoError(t, err)
	require.Equal(t, "hello", s)

	vi, err := b.ReadVarInt()
	require.NoError(t, err)
	require.EqualValues(t, 300, vi)

	vl, err := b.ReadVarLong()
	require.NoError(t, err)
	require.EqualValues(t, -300, vl)

	require.Equal(t, b.WritePos(), b.ReadPos())
}

func TestReadUnderflowReturnsProtocolError(t *testing.T) {
	b := buffer.New(4)
	b.WriteU8(1)
	_, err := b.ReadU32()
	require.Error(t, err)
}

func TestCompactPreservesReadableSequence(t *testing.T) {
	b := buffer.New(8)
	b.WriteBytes([]byte{1, 2, 3, 4, 5})
	first, err := b.ReadBytes(2)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2}, first)

	b.Compact()
	require.Equal(t, 0, b.ReadPos())

	rest, err := b.ReadBytes(3)
	require.NoError(t, err)
	require.Equal(t, []byte{3, 4, 5}, rest)
}

func TestHasCompletePacket(t *testing.T) {
	b := buffer.New(8)
	require.False(t, b.HasCompletePacket())

	b.WriteVarInt(3)
	require.False(t, b.HasCompletePacket(), "length known but body not yet arrived")

	b.WriteBytes([]byte{0x00, 0x01, 0x02})
	require.True(t, b.HasCompletePacket())
}

func TestPeekPacketLengthIncompleteVarInt(t *testing.T) {
	b := buffer.New(8)
	b.WriteBytes([]byte{0x80}) // continuation bit set, no terminating byte
	_, ok := b.PeekPacketLength()
	require.False(t, ok)
}

func TestGeometricGrowthNeverShrinks(t *testing.T) {
	b := buffer.New(1)
	initial := b.Capacity()
	b.WriteBytes(make([]byte, 1000))
	require.Greater(t, b.Capacity(), initial)
	grown := b.Capacity()

	_, _ = b.ReadBytes(1000)
	b.Compact()
	require.GreaterOrEqual(t, b.Capacity(), grown, "capacity never shrinks implicitly")
}

func TestAdvanceReadPositionBeyondWritePosFails(t *testing.T) {
	b := buffer.New(8)
	b.WriteBytes([]byte{1, 2})
	require.Error(t, b.AdvanceReadPosition(3))
}
