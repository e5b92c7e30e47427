package ingestion

// EventKind is the classified shape of an inbound payload.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventSMS
	EventCallRinging
	EventCallConnected
	EventCallEnded
	EventSimStatus
	EventHeartbeat
)

func (k EventKind) String() string {
	switch k {
	case EventSMS:
		return "sms"
	case EventCallRinging:
		return "call_ringing"
	case EventCallConnected:
		return "call_connected"
	case EventCallEnded:
		return "call_ended"
	case EventSimStatus:
		return "sim_status"
	case EventHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// simStatusCodes are carried through verbatim as the SIM's new status code.
var simStatusCodes = map[int]bool{
	202: true,
	203: true,
	204: true,
	205: true,
	209: true,
}

// Classify maps the payload's type discriminator to an event kind. Pure
// mapping with no failure path: unrecognized types classify as unknown and
// are logged, never rejected.
func Classify(p *WebhookPayload) EventKind {
	switch p.Type {
	case TypeSMS:
		return EventSMS
	case TypeCallRinging:
		return EventCallRinging
	case TypeCallConnected:
		return EventCallConnected
	case TypeCallEnded:
		return EventCallEnded
	case TypeHeartbeat:
		return EventHeartbeat
	}
	if simStatusCodes[p.Type] {
		return EventSimStatus
	}
	return EventUnknown
}
