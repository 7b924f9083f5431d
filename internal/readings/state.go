package readings

// ConnectionState is the hub session state surfaced to consumers.
type ConnectionState int

const (
	// StateDisconnected means no transport handle is open.
	StateDisconnected ConnectionState = iota

	// StateAuthenticating means a handle is open and auth has not completed.
	StateAuthenticating

	// StateConnected means the hub accepted the credential.
	StateConnected
)

// String returns the string representation of a ConnectionState.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateAuthenticating:
		return "authenticating"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// ParseConnectionState converts a state name back to a ConnectionState.
func ParseConnectionState(name string) (ConnectionState, bool) {
	switch name {
	case "disconnected":
		return StateDisconnected, true
	case "authenticating":
		return StateAuthenticating, true
	case "connected":
		return StateConnected, true
	default:
		return StateDisconnected, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s ConnectionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
