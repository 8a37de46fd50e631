package handlers

import (
	"github.com/parallelstone/mcserver-core/internal/dispatch"
	"github.com/parallelstone/mcserver-core/internal/session"
)

// BuildTable wires every handler in this package into a dispatch.Table,
// keyed by the (state, packet_id) pairs spec.md §4.6 defines.
func BuildTable(deps *Deps) *dispatch.Table {
	t := dispatch.NewTable(deps.Log)

	t.Register(session.StateHandshaking, 0x00, Handshake(deps))

	t.Register(session.StateStatus, 0x00, StatusRequest(deps))
	t.Register(session.StateStatus, 0x01, PingRequest(deps))

	t.Register(session.StateLogin, 0x00, LoginStart(deps))
	t.Register(session.StateLogin, 0x01, EncryptionResponse(deps))
	t.Register(session.StateLogin, 0x02, LoginPluginResponse(deps))

	t.Register(session.StateConfiguration, 0x00, ClientInformationConfig(deps))
	t.Register(session.StateConfiguration, 0x01, PluginMessageConfig(deps))
	t.Register(session.StateConfiguration, 0x02, FinishConfiguration(deps))
	t.Register(session.StateConfiguration, 0x03, KeepAliveConfig(deps))
	t.Register(session.StateConfiguration, 0x04, PongConfig(deps))
	t.Register(session.StateConfiguration, 0x05, ResourcePackResponse(deps))

	t.Register(session.StatePlay, 0x00, ConfirmTeleportation(deps))
	t.Register(session.StatePlay, 0x05, ChatMessage(deps))
	t.Register(session.StatePlay, 0x08, ClientInformationPlay(deps))
	t.Register(session.StatePlay, 0x12, KeepAlivePlay(deps))
	t.Register(session.StatePlay, 0x13, SetPlayerPosition(deps))
	t.Register(session.StatePlay, 0x14, SetPlayerPositionAndRotation(deps))
	t.Register(session.StatePlay, 0x15, SetPlayerRotation(deps))
	t.Register(session.StatePlay, 0x16, SetPlayerOnGround(deps))
	t.Register(session.StatePlay, 0x1D, PlayerAction(deps))
	t.Register(session.StatePlay, 0x2E, UseItemOn(deps))
	t.Register(session.StatePlay, 0x2F, UseItem(deps))
	t.Register(session.StatePlay, 0x30, SwingArm(deps))

	return t
}
