package session

// DisconnectReason tags why a Session was terminated (spec.md §3).
type DisconnectReason struct {
	Kind ReasonKind
	Msg  string
	Err  error
}

type ReasonKind int

const (
	ReasonClientClose ReasonKind = iota
	ReasonServerShutdown
	ReasonTimeout
	ReasonProtocolError
	ReasonAuthFailed
	ReasonServerFull
	ReasonBanned
	ReasonNetworkError
	ReasonInternalError
)

func (k ReasonKind) String() string {
	switch k {
	case ReasonClientClose:
		return "ClientClose"
	case ReasonServerShutdown:
		return "ServerShutdown"
	case ReasonTimeout:
		return "Timeout"
	case ReasonProtocolError:
		return "ProtocolError"
	case ReasonAuthFailed:
		return "AuthFailed"
	case ReasonServerFull:
		return "ServerFull"
	case ReasonBanned:
		return "Banned"
	case ReasonNetworkError:
		return "NetworkError"
	case ReasonInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

func (r DisconnectReason) String() string {
	if r.Msg == "" {
		return r.Kind.String()
	}
	return r.Kind.String() + ": " + r.Msg
}

func ClientClose() DisconnectReason            { return DisconnectReason{Kind: ReasonClientClose} }
func ServerShutdown() DisconnectReason         { return DisconnectReason{Kind: ReasonServerShutdown} }
func Timeout() DisconnectReason                { return DisconnectReason{Kind: ReasonTimeout} }
func ServerFull() DisconnectReason             { return DisconnectReason{Kind: ReasonServerFull} }
func Banned() DisconnectReason                 { return DisconnectReason{Kind: ReasonBanned} }
func ProtocolError(msg string) DisconnectReason {
	return DisconnectReason{Kind: ReasonProtocolError, Msg: msg}
}
func AuthFailed(msg string) DisconnectReason {
	return DisconnectReason{Kind: ReasonAuthFailed, Msg: msg}
}
func NetworkError(err error) DisconnectReason {
	return DisconnectReason{Kind: ReasonNetworkError, Err: err, Msg: errString(err)}
}
func InternalError(msg string) DisconnectReason {
	return DisconnectReason{Kind: ReasonInternalError, Msg: msg}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
