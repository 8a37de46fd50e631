package handlers

import (
	"go.uber.org/zap"

	"github.com/parallelstone/mcserver-core/internal/auth"
	"github.com/parallelstone/mcserver-core/internal/buffer"
	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/protoerr"
	"github.com/parallelstone/mcserver-core/internal/session"
	"github.com/parallelstone/mcserver-core/internal/wire"
)

// LoginStart handles Login-state inbound 0x00 (spec.md §4.6): validates the
// username, derives the offline UUID if the client didn't send one, replies
// with Login Success, and advances to Configuration.
func LoginStart(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		name, err := view.ReadString()
		if err != nil {
			return session.Outcome{}, err
		}
		if err := auth.ValidateUsername(name); err != nil {
			return session.Outcome{}, err
		}
		hasUUID, err := view.ReadBool()
		if err != nil {
			return session.Outcome{}, err
		}
		var id wire.UUID
		if hasUUID {
			id, err = view.ReadUUID()
			if err != nil {
				return session.Outcome{}, err
			}
		} else {
			id = auth.OfflineUUID(name)
		}

		s.SetIdentity(name, id)
		if deps.OnIdentity != nil {
			deps.OnIdentity(s)
		}

		if deps.CompressionThreshold >= 0 {
			comp := buffer.New(4)
			comp.WriteVarInt(deps.CompressionThreshold)
			s.Send(0x03, comp.Written())
			s.EnableCompression(deps.CompressionThreshold)
		}

		out := buffer.New(16 + len(name) + 8)
		out.WriteUUID(id)
		if err := out.WriteString(name); err != nil {
			return session.Outcome{}, err
		}
		out.WriteVarInt(0) // properties array, empty
		s.Send(0x02, out.Written())

		deps.Log.Info("login success", zap.String("session", s.ID), zap.String("name", name))
		return session.TransitionTo(session.StateConfiguration), nil
	}
}

// EncryptionResponse handles Login-state inbound 0x01. Online-mode
// authentication is a non-goal for this core (spec.md §1): the step is
// always rejected.
func EncryptionResponse(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		return session.DisconnectWith(session.AuthFailed("online-mode encryption is not supported by this server")), nil
	}
}

// LoginPluginResponse handles Login-state inbound 0x02: login plugin
// channels are not supported.
func LoginPluginResponse(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		return session.Outcome{}, protoerr.Protocol("plugins not supported")
	}
}
