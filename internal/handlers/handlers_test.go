package handlers_test

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/buffer"
	"github.com/parallelstone/mcserver-core/internal/handlers"
	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/session"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

type nopDispatcher struct{}

func (nopDispatcher) Dispatch(*session.Session, int32, *packetview.View) (session.Outcome, error) {
	return session.Continue(), nil
}

func newTestSession(t *testing.T) (*session.Session, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })
	s := session.New("t1", server, nopDispatcher{}, zap.NewNop(), session.DefaultOptions(), nil)
	return s, client
}

func testDeps() *handlers.Deps {
	return &handlers.Deps{
		ProtocolVersion: 765,
		VersionName:     "1.20.4",
		Motd:            "test server",
		MaxPlayers:      20,
		Log:             zap.NewNop(),
	}
}

func TestLoginStartDerivesOfflineUUIDAndTransitions(t *testing.T) {
	s, client := newTestSession(t)
	defer client.Close()
	go s.Run()

	body := buffer.New(32)
	require.NoError(t, body.WriteString("Steve"))
	body.WriteBool(false)
	view := packetview.New(body.Written())

	outcome, err := handlers.LoginStart(testDeps())(s, view)
	require.NoError(t, err)

	require.Equal(t, "Steve", s.PlayerName())
	require.NotZero(t, s.PlayerUUID())

	buf := make([]byte, 256)
	n, rerr := client.Read(buf)
	require.NoError(t, rerr)
	require.Greater(t, n, 0)

	require.Equal(t, session.TransitionTo(session.StateConfiguration), outcome)
}

func TestLoginStartEnablesCompressionWhenConfigured(t *testing.T) {
	s, client := newTestSession(t)
	defer client.Close()
	go s.Run()

	deps := testDeps()
	deps.CompressionThreshold = 0

	body := buffer.New(32)
	require.NoError(t, body.WriteString("Alex"))
	body.WriteBool(false)
	view := packetview.New(body.Written())

	_, err := handlers.LoginStart(deps)(s, view)
	require.NoError(t, err)

	buf := make([]byte, 512)
	n, rerr := client.Read(buf)
	require.NoError(t, rerr)
	readSetCompressionFrame(t, buf[:n])

	n, rerr = client.Read(buf)
	require.NoError(t, rerr)
	readCompressedLoginSuccessFrame(t, buf[:n])
}

// readSetCompressionFrame parses a raw (uncompressed) Set Compression
// frame and asserts its packet id and threshold.
func readSetCompressionFrame(t *testing.T, frame []byte) {
	t.Helper()
	totalLen, n, ok := wire.PeekVarInt(frame)
	require.True(t, ok)
	payload := frame[n : n+int(totalLen)]
	packetID, n2, ok := wire.PeekVarInt(payload)
	require.True(t, ok)
	require.EqualValues(t, 0x03, packetID)
	threshold, _, ok := wire.PeekVarInt(payload[n2:])
	require.True(t, ok)
	require.EqualValues(t, 0, threshold)
}

// readCompressedLoginSuccessFrame parses a compression-layer frame and
// asserts the inner packet is Login Success (0x02).
func readCompressedLoginSuccessFrame(t *testing.T, frame []byte) {
	t.Helper()
	totalLen, n, ok := wire.PeekVarInt(frame)
	require.True(t, ok)
	payload := frame[n : n+int(totalLen)]
	raw, _, err := wire.DecompressFrame(payload)
	require.NoError(t, err)
	packetID, _, ok := wire.PeekVarInt(raw)
	require.True(t, ok)
	require.EqualValues(t, 0x02, packetID)
}

func TestLoginStartRejectsInvalidUsername(t *testing.T) {
	s, client := newTestSession(t)
	defer client.Close()

	body := buffer.New(32)
	require.NoError(t, body.WriteString("a b")) // spaces are not allowed
	body.WriteBool(false)
	view := packetview.New(body.Written())

	_, err := handlers.LoginStart(testDeps())(s, view)
	require.Error(t, err)
}

func TestSetPlayerPositionRejectsOutOfRange(t *testing.T) {
	s, client := newTestSession(t)
	defer client.Close()

	body := buffer.New(32)
	body.WriteF64(1e9) // |x| > 3e7
	body.WriteF64(64)
	body.WriteF64(0)
	body.WriteBool(true)
	view := packetview.New(body.Written())

	_, err := handlers.SetPlayerPosition(testDeps())(s, view)
	require.Error(t, err)
}

func TestSetPlayerPositionAcceptsValid(t *testing.T) {
	s, client := newTestSession(t)
	defer client.Close()

	body := buffer.New(32)
	body.WriteF64(100)
	body.WriteF64(64)
	body.WriteF64(-100)
	body.WriteBool(true)
	view := packetview.New(body.Written())

	outcome, err := handlers.SetPlayerPosition(testDeps())(s, view)
	require.NoError(t, err)
	_ = outcome
}

func TestPlayerActionDropsOutOfRangeStatusWithoutError(t *testing.T) {
	s, client := newTestSession(t)
	defer client.Close()

	body := buffer.New(32)
	body.WriteVarInt(99) // status out of [0,6]
	body.WriteI64(0)     // packed position
	body.WriteU8(0)
	body.WriteVarInt(1)
	view := packetview.New(body.Written())

	_, err := handlers.PlayerAction(testDeps())(s, view)
	require.NoError(t, err, "in-game action validation failures must be dropped, not disconnected")
}

func TestStatusRequestRepliesWithJSON(t *testing.T) {
	s, client := newTestSession(t)
	defer client.Close()
	go s.Run()

	deps := testDeps()
	deps.OnlineCount = func() int { return 3 }
	view := packetview.New(nil)

	_, err := handlers.StatusRequest(deps)(s, view)
	require.NoError(t, err)

	buf := make([]byte, 1024)
	n, rerr := client.Read(buf)
	require.NoError(t, rerr)
	require.Contains(t, string(buf[:n]), "test server")
}
