package packetview_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

func TestViewTypedReads(t *testing.T) {
	body := append(wire.EncodeVarInt(42), []byte("hi")...)
	v := packetview.New(body)

	n, err := v.ReadVarInt()
	require.NoError(t, err)
	require.EqualValues(t, 42, n)

	raw, err := v.ReadBytes(2)
	require.NoError(t, err)
	require.Equal(t, "hi", string(raw))

	require.Zero(t, v.ReadableBytes())
}

func TestViewBoundsChecked(t *testing.T) {
	v := packetview.New([]byte{0x01})
	_, err := v.ReadBytes(5)
	require.Error(t, err)
}

func TestViewOverflowSafeBounds(t *testing.T) {
	v := packetview.New([]byte{0x01, 0x02})
	_, err := v.ReadBytes(-1)
	require.Error(t, err)
}

func TestSubViewIsIndependentCursor(t *testing.T) {
	v := packetview.New([]byte{1, 2, 3, 4})
	sub, err := v.SubView(2)
	require.NoError(t, err)

	require.Equal(t, 2, v.Pos())

	b, err := sub.ReadU8()
	require.NoError(t, err)
	require.EqualValues(t, 1, b)
	require.Equal(t, 2, v.Pos(), "advancing the sub-view must not advance the parent")
}

func TestPackedPositionRoundTrip(t *testing.T) {
	p := wire.Position{X: -12345, Y: 100, Z: 6789}
	encoded := wire.EncodePosition(p)

	b := append(append([]byte{}, encode64(encoded)...))
	v := packetview.New(b)
	got, err := v.ReadPosition()
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func encode64(v int64) []byte {
	u := uint64(v)
	out := make([]byte, 8)
	for i := 7; i >= 0; i-- {
		out[i] = byte(u)
		u >>= 8
	}
	return out
}
