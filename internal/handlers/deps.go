// Package handlers implements the Protocol Handlers (spec.md §4.6, C6): one
// function per packet, each taking the session and a borrowed PacketView
// and returning a session.Outcome. Handlers never touch the receive buffer
// or the wire framing directly; those are Session's job.
package handlers

import (
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/metrics"
	"github.com/parallelstone/mcserver-core/internal/session"
	"github.com/parallelstone/mcserver-core/internal/worldprovider"
)

// Deps bundles the server-wide configuration and collaborators every
// handler closure needs. One Deps is built at startup and shared read-only
// across every session.
type Deps struct {
	ProtocolVersion      int32
	VersionName          string
	Motd                 string
	MaxPlayers           int
	OnlineMode           bool
	CompressionThreshold int32 // negative disables compression
	World                worldprovider.Provider
	Metrics              *metrics.Metrics
	Log                  *zap.Logger

	// OnlineCount reports how many sessions are currently registered, for
	// the Status response's players.online field.
	OnlineCount func() int

	// OnIdentity is called once a session's player name and UUID have been
	// set by Login Start, so the Session Manager can index it.
	OnIdentity func(*session.Session)
}
