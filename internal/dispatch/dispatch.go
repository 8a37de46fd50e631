// Package dispatch implements the Packet Dispatcher (spec.md §4.5, C5): a
// (state, packet_id) -> handler lookup table, consulted once per packet by
// Session after it has framed and decompressed the payload.
package dispatch

import (
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/session"
)

// HandlerFunc processes one packet's body and reports the resulting Outcome.
type HandlerFunc func(s *session.Session, view *packetview.View) (session.Outcome, error)

// Table implements session.Dispatcher over a fixed registration set built at
// startup; it is read-only after handlers.BuildTable returns and safe for
// concurrent use by every session goroutine.
type Table struct {
	log      *zap.Logger
	byState  map[session.State]map[int32]HandlerFunc
}

// NewTable returns an empty Table; call Register for every packet spec.md
// §4.6 lists before handing the Table to sessions.
func NewTable(log *zap.Logger) *Table {
	return &Table{
		log:     log,
		byState: make(map[session.State]map[int32]HandlerFunc),
	}
}

// Register binds packetID in state to fn. Re-registering the same
// (state, packetID) pair overwrites the previous entry.
func (t *Table) Register(state session.State, packetID int32, fn HandlerFunc) {
	m, ok := t.byState[state]
	if !ok {
		m = make(map[int32]HandlerFunc)
		t.byState[state] = m
	}
	m[packetID] = fn
}

// Dispatch implements session.Dispatcher. Per spec.md §4.5: a packet ID
// with no registered handler in the current state is a protocol error in
// every state except Play, where unknown packet IDs are silently skipped
// (Play carries client-only or cosmetic packets this core does not model).
func (t *Table) Dispatch(s *session.Session, packetID int32, view *packetview.View) (session.Outcome, error) {
	state := s.State()
	handlers := t.byState[state]
	fn, ok := handlers[packetID]
	if !ok {
		if state == session.StatePlay {
			t.log.Debug("skipping unrecognized play packet",
				zap.Int32("packet_id", packetID), zap.String("session", s.ID))
			return session.Continue(), nil
		}
		return session.Outcome{}, unknownPacket(state, packetID)
	}
	return fn(s, view)
}

func unknownPacket(state session.State, packetID int32) error {
	return &unknownPacketError{state: state, packetID: packetID}
}

type unknownPacketError struct {
	state    session.State
	packetID int32
}

func (e *unknownPacketError) Error() string {
	return "unknown packet id 0x" + hex(e.packetID) + " in state " + e.state.String()
}

func hex(v int32) string {
	const digits = "0123456789abcdef"
	u := uint32(v)
	if u == 0 {
		return "0"
	}
	var buf [8]byte
	i := len(buf)
	for u > 0 {
		i--
		buf[i] = digits[u&0xF]
		u >>= 4
	}
	return string(buf[i:])
}
