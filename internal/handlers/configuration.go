package handlers

import (
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/buffer"
	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/session"
	"github.com/parallelstone/mcserver-core/internal/worldprovider"
)

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClientInformationConfig handles Configuration-state inbound 0x00
// (spec.md §4.6): view distance, chat mode, and main hand are clamped
// rather than rejected.
func ClientInformationConfig(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		if _, err := view.ReadString(); err != nil { // locale
			return session.Outcome{}, err
		}
		viewDistance, err := view.ReadI8()
		if err != nil {
			return session.Outcome{}, err
		}
		chatMode, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadBool(); err != nil { // chat_colors
			return session.Outcome{}, err
		}
		if _, err := view.ReadU8(); err != nil { // displayed_skin_parts
			return session.Outcome{}, err
		}
		mainHand, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadBool(); err != nil { // enable_text_filtering
			return session.Outcome{}, err
		}
		if _, err := view.ReadBool(); err != nil { // allow_server_listings
			return session.Outcome{}, err
		}

		// clamped, not stored: no per-player client-settings state exists
		// here for the clamped values to feed into.
		_ = clampI32(int32(viewDistance), 2, 32)
		_ = clampI32(chatMode, 0, 2)
		_ = clampI32(mainHand, 0, 1)
		return session.Continue(), nil
	}
}

// PluginMessageConfig handles Configuration-state inbound 0x01: captures
// the minecraft:brand payload, otherwise ignores the channel.
func PluginMessageConfig(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		channel, err := view.ReadString()
		if err != nil {
			return session.Outcome{}, err
		}
		rest, err := view.SubView(-1)
		if err != nil {
			return session.Outcome{}, err
		}
		if channel == "minecraft:brand" {
			if brand, err := rest.ReadString(); err == nil {
				deps.Log.Debug("client brand", zap.String("session", s.ID), zap.String("brand", brand))
			}
		}
		return session.Continue(), nil
	}
}

// FinishConfiguration handles Configuration-state inbound 0x02: emits the
// Play/Login packet and advances to Play (spec.md §4.6).
func FinishConfiguration(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		info := worldprovider.DefaultLoginPlayInfo()
		if deps.World != nil {
			info = deps.World.LoginPlayInfo()
		}
		s.Send(0x2B, encodeLoginPlay(info))
		return session.TransitionTo(session.StatePlay), nil
	}
}

func encodeLoginPlay(info worldprovider.LoginPlayInfo) []byte {
	out := buffer.New(128)
	out.WriteI32(info.EntityID)
	out.WriteBool(info.IsHardcore)
	out.WriteVarInt(int32(len(info.DimensionNames)))
	for _, name := range info.DimensionNames {
		_ = out.WriteString(name)
	}
	out.WriteVarInt(info.MaxPlayers)
	out.WriteVarInt(info.ViewDistance)
	out.WriteVarInt(info.SimulationDist)
	out.WriteBool(info.ReducedDebugInfo)
	out.WriteBool(info.RespawnScreen)
	out.WriteBool(info.DoLimitedCrafting)
	_ = out.WriteString(info.DimensionType)
	_ = out.WriteString(info.DimensionName)
	out.WriteI64(info.HashedSeed)
	out.WriteU8(info.GameMode)
	out.WriteI8(info.PreviousGameMode)
	out.WriteBool(info.IsDebug)
	out.WriteBool(info.IsFlat)
	out.WriteBool(false) // has_death_location
	out.WriteVarInt(info.PortalCooldown)
	out.WriteVarInt(info.SeaLevel)
	out.WriteBool(info.EnforceSecureChat)
	return out.Written()
}

// KeepAliveConfig handles Configuration-state inbound 0x03: last_activity
// is updated unconditionally by Session after dispatch, so this handler
// only needs to consume the payload.
func KeepAliveConfig(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		if _, err := view.ReadI64(); err != nil {
			return session.Outcome{}, err
		}
		return session.Continue(), nil
	}
}

// PongConfig handles Configuration-state inbound 0x04.
func PongConfig(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		if _, err := view.ReadI32(); err != nil {
			return session.Outcome{}, err
		}
		return session.Continue(), nil
	}
}

// ResourcePackResponse handles Configuration-state inbound 0x05: accepted
// and logged (spec.md §4.6), never rejected.
func ResourcePackResponse(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		id, err := view.ReadUUID()
		if err != nil {
			return session.Outcome{}, err
		}
		uuidStr := id.ToGoogleUUID().String()
		result, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		deps.Log.Debug("resource pack response",
			zap.String("session", s.ID), zap.String("uuid", uuidStr), zap.Int32("result", result))
		return session.Continue(), nil
	}
}
