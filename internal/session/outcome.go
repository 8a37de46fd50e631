package session

import "github.com/parallelstone/mcserver-core/internal/packetview"

// Outcome is what a handler (or the Dispatcher routing a packet) returns
// after processing one packet: Continue (state unchanged), Transition(next),
// or Disconnect(reason). The state is applied by Session after the
// Outcome is returned, never from inside a read on the buffer (spec.md §4.4).
type Outcome struct {
	hasNext    bool
	next       State
	disconnect bool
	reason     DisconnectReason
}

// Continue leaves the session's state unchanged.
func Continue() Outcome { return Outcome{} }

// TransitionTo requests a state change to next, validated against
// legalTransitions before being applied.
func TransitionTo(next State) Outcome { return Outcome{hasNext: true, next: next} }

// DisconnectWith requests that the session be torn down with reason.
func DisconnectWith(reason DisconnectReason) Outcome {
	return Outcome{disconnect: true, reason: reason}
}

// Dispatcher routes one packet to its handler, given the session's current
// state. Implemented by internal/dispatch.Table; declared here (at the
// point of use) so this package need not import the dispatch package.
type Dispatcher interface {
	Dispatch(s *Session, packetID int32, view *packetview.View) (Outcome, error)
}
