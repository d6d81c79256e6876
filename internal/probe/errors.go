package probe

import "fmt"

// ErrorKind classifies where a probe went wrong.
type ErrorKind int

const (
	// ConnectFailed covers DNS failures, refused connections and other
	// transport-level errors before a response came back.
	ConnectFailed ErrorKind = iota
	// AuthFailed means the proxy answered with an authentication challenge.
	AuthFailed
	// Timeout means no response arrived within the configured bound.
	Timeout
	// MalformedResponse means the endpoint answered but the body carried
	// no parseable IP literal.
	MalformedResponse
)

func (k ErrorKind) String() string {
	switch k {
	case AuthFailed:
		return "auth_failed"
	case Timeout:
		return "timeout"
	case MalformedResponse:
		return "malformed_response"
	default:
		return "connect_failed"
	}
}

// Error is the typed probe failure. Callers pick it out with errors.As to
// map the Kind onto a failure stage.
type Error struct {
	Kind  ErrorKind
	Proxy string // host:port of the proxy under test
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("probe %s via %s: %v", e.Kind, e.Proxy, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
