package dispatch_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/dispatch"
	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/session"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

// advancingTable wires just enough handlers to legally walk a session
// through Handshaking -> Status (or -> Login -> Configuration -> Play),
// since State is only ever advanced by a dispatched Outcome.
func advancingTable(t *testing.T) *dispatch.Table {
	t.Helper()
	table := dispatch.NewTable(zap.NewNop())
	table.Register(session.StateHandshaking, 0x00, func(s *session.Session, v *packetview.View) (session.Outcome, error) {
		next, _ := v.ReadVarInt()
		if next == 1 {
			return session.TransitionTo(session.StateStatus), nil
		}
		return session.TransitionTo(session.StateLogin), nil
	})
	table.Register(session.StateLogin, 0x00, func(s *session.Session, v *packetview.View) (session.Outcome, error) {
		return session.TransitionTo(session.StateConfiguration), nil
	})
	table.Register(session.StateConfiguration, 0x00, func(s *session.Session, v *packetview.View) (session.Outcome, error) {
		return session.TransitionTo(session.StatePlay), nil
	})
	return table
}

func newPipe(t *testing.T, table *dispatch.Table) (*session.Session, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })
	s := session.New("d1", server, table, zap.NewNop(), session.DefaultOptions(), nil)
	go s.Run()
	return s, client
}

func TestDispatchRoutesRegisteredHandler(t *testing.T) {
	table := advancingTable(t)
	called := false
	table.Register(session.StateStatus, 0x01, func(*session.Session, *packetview.View) (session.Outcome, error) {
		called = true
		return session.Continue(), nil
	})

	s, client := newPipe(t, table)
	go func() { _, _ = client.Write(wire.FrameRaw(0x00, []byte{0x01})) }() // -> Status
	require.Eventually(t, func() bool { return s.State() == session.StateStatus }, time.Second, time.Millisecond)

	go func() { _, _ = client.Write(wire.FrameRaw(0x01, nil)) }()
	require.Eventually(t, func() bool { return called }, time.Second, time.Millisecond)
}

func TestDispatchSkipsUnknownInPlay(t *testing.T) {
	table := advancingTable(t)
	s, client := newPipe(t, table)

	go func() {
		_, _ = client.Write(wire.FrameRaw(0x00, []byte{0x02})) // -> Login
	}()
	require.Eventually(t, func() bool { return s.State() == session.StateLogin }, time.Second, time.Millisecond)
	go func() { _, _ = client.Write(wire.FrameRaw(0x00, nil)) }() // -> Configuration
	require.Eventually(t, func() bool { return s.State() == session.StateConfiguration }, time.Second, time.Millisecond)
	go func() { _, _ = client.Write(wire.FrameRaw(0x00, nil)) }() // -> Play
	require.Eventually(t, func() bool { return s.State() == session.StatePlay }, time.Second, time.Millisecond)

	outcome, err := table.Dispatch(s, 0x7F, packetview.New(nil))
	require.NoError(t, err)
	require.Equal(t, session.Continue(), outcome)
}

func TestDispatchRejectsUnknownOutsidePlay(t *testing.T) {
	table := advancingTable(t)
	s, client := newPipe(t, table)

	go func() { _, _ = client.Write(wire.FrameRaw(0x00, []byte{0x01})) }() // -> Status
	require.Eventually(t, func() bool { return s.State() == session.StateStatus }, time.Second, time.Millisecond)

	_, err := table.Dispatch(s, 0x7F, packetview.New(nil))
	require.Error(t, err)
}
