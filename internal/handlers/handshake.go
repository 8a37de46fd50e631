package handlers

import (
	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/protoerr"
	"github.com/parallelstone/mcserver-core/internal/session"
)

// Handshake handles the single Handshaking-state packet, id 0x00
// (spec.md §4.6): protocol_version, server_addr, server_port, next_state.
func Handshake(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		protocolVersion, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadString(); err != nil { // server_addr, unused by this core
			return session.Outcome{}, err
		}
		if _, err := view.ReadU16(); err != nil { // server_port, unused by this core
			return session.Outcome{}, err
		}
		nextState, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}

		s.SetProtocolVersion(protocolVersion)

		switch nextState {
		case 1:
			return session.TransitionTo(session.StateStatus), nil
		case 2:
			return session.TransitionTo(session.StateLogin), nil
		default:
			return session.Outcome{}, protoerr.Protocol("handshake next_state %d out of range {1,2}", nextState)
		}
	}
}
