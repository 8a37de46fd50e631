package handlers

import (
	"math"

	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/protoerr"
	"github.com/parallelstone/mcserver-core/internal/session"
)

// ConfirmTeleportation handles Play-state inbound 0x00.
func ConfirmTeleportation(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		if _, err := view.ReadVarInt(); err != nil {
			return session.Outcome{}, err
		}
		return session.Continue(), nil
	}
}

const maxChatMessageLen = 256

// ChatMessage handles Play-state inbound 0x05. An over-length message is an
// in-game-action failure: non-fatal, the packet is dropped (spec.md §4.6).
func ChatMessage(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		msg, err := view.ReadString()
		if err != nil {
			return session.Outcome{}, err
		}
		if len([]rune(msg)) > maxChatMessageLen {
			return session.Continue(), nil
		}
		// timestamp, salt, signature, and acknowledgment fields follow but
		// are not modeled by this core; read_pos is advanced past them by
		// Session regardless of how much of the body this handler reads.
		return session.Continue(), nil
	}
}

// ClientInformationPlay handles Play-state inbound 0x08, identical
// clamping rules to Configuration's Client Information.
func ClientInformationPlay(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return ClientInformationConfig(deps)
}

// KeepAlivePlay handles Play-state inbound 0x12.
func KeepAlivePlay(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		if _, err := view.ReadI64(); err != nil {
			return session.Outcome{}, err
		}
		return session.Continue(), nil
	}
}

func validCoordinate(x, z, y float64) bool {
	if math.IsNaN(x) || math.IsNaN(y) || math.IsNaN(z) ||
		math.IsInf(x, 0) || math.IsInf(y, 0) || math.IsInf(z, 0) {
		return false
	}
	if math.Abs(x) > 3e7 || math.Abs(z) > 3e7 {
		return false
	}
	return y >= -2048 && y <= 2048
}

// SetPlayerPosition handles Play-state inbound 0x13. Movement validation
// failures are fatal (spec.md §4.6).
func SetPlayerPosition(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		x, err := view.ReadF64()
		if err != nil {
			return session.Outcome{}, err
		}
		y, err := view.ReadF64()
		if err != nil {
			return session.Outcome{}, err
		}
		z, err := view.ReadF64()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadBool(); err != nil { // on_ground
			return session.Outcome{}, err
		}
		if !validCoordinate(x, z, y) {
			return session.Outcome{}, protoerr.Protocol("player position out of range: x=%v y=%v z=%v", x, y, z)
		}
		return session.Continue(), nil
	}
}

func clampPitch(pitch float32) float32 {
	if pitch < -90 {
		return -90
	}
	if pitch > 90 {
		return 90
	}
	return pitch
}

// SetPlayerPositionAndRotation handles Play-state inbound 0x14: position
// validation is fatal, pitch is clamped rather than rejected.
func SetPlayerPositionAndRotation(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		x, err := view.ReadF64()
		if err != nil {
			return session.Outcome{}, err
		}
		y, err := view.ReadF64()
		if err != nil {
			return session.Outcome{}, err
		}
		z, err := view.ReadF64()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadF32(); err != nil { // yaw
			return session.Outcome{}, err
		}
		pitch, err := view.ReadF32()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadBool(); err != nil { // on_ground
			return session.Outcome{}, err
		}
		if !validCoordinate(x, z, y) {
			return session.Outcome{}, protoerr.Protocol("player position out of range: x=%v y=%v z=%v", x, y, z)
		}
		_ = clampPitch(pitch)
		return session.Continue(), nil
	}
}

// SetPlayerRotation handles Play-state inbound 0x15: pitch is clamped;
// non-finite yaw/pitch is treated as a movement-family fatal error.
func SetPlayerRotation(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		yaw, err := view.ReadF32()
		if err != nil {
			return session.Outcome{}, err
		}
		pitch, err := view.ReadF32()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadBool(); err != nil { // on_ground
			return session.Outcome{}, err
		}
		if math.IsNaN(float64(yaw)) || math.IsInf(float64(yaw), 0) ||
			math.IsNaN(float64(pitch)) || math.IsInf(float64(pitch), 0) {
			return session.Outcome{}, protoerr.Protocol("player rotation is non-finite")
		}
		_ = clampPitch(pitch)
		return session.Continue(), nil
	}
}

// SetPlayerOnGround handles Play-state inbound 0x16.
func SetPlayerOnGround(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		if _, err := view.ReadBool(); err != nil {
			return session.Outcome{}, err
		}
		return session.Continue(), nil
	}
}

// PlayerAction handles Play-state inbound 0x1D. Out-of-range fields are an
// in-game-action failure: non-fatal, the packet is dropped.
func PlayerAction(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		status, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadPosition(); err != nil {
			return session.Outcome{}, err
		}
		face, err := view.ReadU8()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadVarInt(); err != nil { // sequence
			return session.Outcome{}, err
		}
		if status < 0 || status > 6 || face > 5 {
			// dropped: no world/block state exists here to act on anyway.
			return session.Continue(), nil
		}
		return session.Continue(), nil
	}
}

// UseItemOn handles Play-state inbound 0x2E. Out-of-range fields are
// non-fatal.
func UseItemOn(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		hand, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		if _, err := view.ReadPosition(); err != nil {
			return session.Outcome{}, err
		}
		face, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		cx, err := view.ReadF32()
		if err != nil {
			return session.Outcome{}, err
		}
		cy, err := view.ReadF32()
		if err != nil {
			return session.Outcome{}, err
		}
		cz, err := view.ReadF32()
		if err != nil {
			return session.Outcome{}, err
		}
		if hand < 0 || hand > 1 || face < 0 || face > 5 ||
			cx < 0 || cx > 1 || cy < 0 || cy > 1 || cz < 0 || cz > 1 {
			// dropped: no world/block state exists here to act on anyway.
			return session.Continue(), nil
		}
		return session.Continue(), nil
	}
}

// UseItem handles Play-state inbound 0x2F. Out-of-range hand is non-fatal.
func UseItem(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		hand, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		_ = hand
		return session.Continue(), nil
	}
}

// SwingArm handles Play-state inbound 0x30. Out-of-range hand is non-fatal.
func SwingArm(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		hand, err := view.ReadVarInt()
		if err != nil {
			return session.Outcome{}, err
		}
		_ = hand
		return session.Continue(), nil
	}
}
