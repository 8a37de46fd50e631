package session_test

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/session"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

type recordingDispatcher struct {
	seenIDs []int32
	outcome session.Outcome
	err     error
}

func (d *recordingDispatcher) Dispatch(s *session.Session, packetID int32, view *packetview.View) (session.Outcome, error) {
	d.seenIDs = append(d.seenIDs, packetID)
	return d.outcome, d.err
}

func newPipeSession(t *testing.T, disp session.Dispatcher) (*session.Session, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close() })

	var disconnected session.DisconnectReason
	s := session.New("sess-1", server, disp, zap.NewNop(), session.DefaultOptions(), func(sess *session.Session, reason session.DisconnectReason) {
		disconnected = reason
	})
	_ = disconnected
	return s, client
}

func TestDispatchOnePacketAdvancesDeclaredLength(t *testing.T) {
	disp := &recordingDispatcher{outcome: session.Continue()}
	s, client := newPipeSession(t, disp)
	go s.Run()

	// The dispatcher never reads the 0xAA 0xBB body; the second packet is
	// only found if read_pos moved by the first packet's declared length.
	frame := append(wire.FrameRaw(0x00, []byte{0xAA, 0xBB}), wire.FrameRaw(0x01, nil)...)
	go func() { _, _ = client.Write(frame) }()

	require.Eventually(t, func() bool { return len(disp.seenIDs) == 2 }, time.Second, time.Millisecond)
	require.Equal(t, []int32{0x00, 0x01}, disp.seenIDs)

	s.Disconnect(session.ClientClose())
	<-s.Done()
}

func TestDisconnectIsIdempotent(t *testing.T) {
	calls := 0
	client, server := net.Pipe()
	defer client.Close()

	disp := &recordingDispatcher{outcome: session.Continue()}
	s := session.New("sess-2", server, disp, zap.NewNop(), session.DefaultOptions(), func(sess *session.Session, reason session.DisconnectReason) {
		calls++
	})
	go s.Run()

	s.Disconnect(session.ClientClose())
	s.Disconnect(session.Timeout())
	<-s.Done()

	require.Equal(t, 1, calls)
}

func TestHandlerDisconnectOutcomeTearsDownSession(t *testing.T) {
	disp := &recordingDispatcher{outcome: session.DisconnectWith(session.ProtocolError("bad packet"))}
	s, client := newPipeSession(t, disp)
	go s.Run()

	frame := wire.FrameRaw(0x00, nil)
	go func() { _, _ = client.Write(frame) }()

	<-s.Done()
	require.Equal(t, session.ReasonProtocolError, s.Reason().Kind)
}

func TestSendDropsWhenQueueFull(t *testing.T) {
	disp := &recordingDispatcher{outcome: session.Continue()}
	opts := session.DefaultOptions()
	opts.MaxQueuedPackets = 1
	client, server := net.Pipe()
	defer client.Close()
	s := session.New("sess-3", server, disp, zap.NewNop(), opts, nil)

	// No egress goroutine draining yet (Run not called): first Send fills
	// the queue, subsequent Sends must be dropped without blocking.
	s.Send(0x00, []byte{1})
	done := make(chan struct{})
	go func() {
		s.Send(0x00, []byte{2})
		s.Send(0x00, []byte{3})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Send blocked instead of dropping when queue is full")
	}
}
