package handlers

import (
	"encoding/json"

	"github.com/parallelstone/mcserver-core/internal/buffer"
	"github.com/parallelstone/mcserver-core/internal/packetview"
	"github.com/parallelstone/mcserver-core/internal/session"
)

type statusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type statusPlayerSample struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type statusPlayers struct {
	Max    int                  `json:"max"`
	Online int                  `json:"online"`
	Sample []statusPlayerSample `json:"sample"`
}

type statusDescription struct {
	Text string `json:"text"`
}

type statusResponse struct {
	Version           statusVersion     `json:"version"`
	Players           statusPlayers     `json:"players"`
	Description       statusDescription `json:"description"`
	EnforcesSecureChat bool             `json:"enforcesSecureChat"`
	PreviewsChat      bool              `json:"previewsChat"`
}

// StatusRequest handles Status-state inbound 0x00 (empty body): reply with
// the status JSON document (spec.md §4.6).
func StatusRequest(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		online := 0
		if deps.OnlineCount != nil {
			online = deps.OnlineCount()
		}
		resp := statusResponse{
			Version: statusVersion{Name: deps.VersionName, Protocol: deps.ProtocolVersion},
			Players: statusPlayers{Max: deps.MaxPlayers, Online: online, Sample: []statusPlayerSample{}},
			Description: statusDescription{Text: deps.Motd},
		}
		body, err := json.Marshal(resp)
		if err != nil {
			return session.Outcome{}, err
		}

		out := buffer.New(len(body) + 8)
		if err := out.WriteString(string(body)); err != nil {
			return session.Outcome{}, err
		}
		s.Send(0x00, out.Written())
		return session.Continue(), nil
	}
}

// PingRequest handles Status-state inbound 0x01: echo payload back, then
// disconnect (spec.md §4.6).
func PingRequest(deps *Deps) func(*session.Session, *packetview.View) (session.Outcome, error) {
	return func(s *session.Session, view *packetview.View) (session.Outcome, error) {
		payload, err := view.ReadI64()
		if err != nil {
			return session.Outcome{}, err
		}
		out := buffer.New(8)
		out.WriteI64(payload)
		s.Send(0x01, out.Written())
		return session.DisconnectWith(session.ClientClose()), nil
	}
}
