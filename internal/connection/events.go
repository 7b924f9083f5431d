package connection

import "github.com/janisvco/stepfeed/internal/readings"

// eventKind identifies an input to the session state machine.
type eventKind int

const (
	evConnect eventKind = iota
	evOpened
	evFrame
	evTransportError
	evTransportClosed
	evCredential
	evReconnectDue
	evHeartbeatTick
	evSetState
	evShutdown
)

func (k eventKind) String() string {
	switch k {
	case evConnect:
		return "connect"
	case evOpened:
		return "opened"
	case evFrame:
		return "frame"
	case evTransportError:
		return "transport_error"
	case evTransportClosed:
		return "transport_closed"
	case evCredential:
		return "credential"
	case evReconnectDue:
		return "reconnect_due"
	case evHeartbeatTick:
		return "heartbeat_tick"
	case evSetState:
		return "set_state"
	case evShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// event is one serialized input to the loop. gen identifies the transport
// handle or timer that produced it.
type event struct {
	kind      eventKind
	gen       uint64
	data      []byte
	err       error
	token     string
	reconnect bool
	state     readings.ConnectionState
	done      chan struct{}
}

// transportEvent converts a transport notification for handle gen.
func transportEvent(gen uint64, ev TransportEvent) event {
	out := event{gen: gen, data: ev.Data, err: ev.Err}
	switch ev.Kind {
	case TransportOpened:
		out.kind = evOpened
	case TransportMessage:
		out.kind = evFrame
	case TransportClosed:
		out.kind = evTransportClosed
	default:
		out.kind = evTransportError
	}
	return out
}
