package model

type DeviceStatus string

const (
	DeviceActive   DeviceStatus = "active"
	DeviceInactive DeviceStatus = "inactive"
	DeviceOffline  DeviceStatus = "offline"
)

type SimStatus string

const (
	SimRegistering SimStatus = "registering"
	SimIDRead      SimStatus = "id_read"
	SimReady       SimStatus = "ready"
	SimEjected     SimStatus = "ejected"
	SimCardError   SimStatus = "card_error"
)

// SimStatusFromCode maps the gateway's numeric SIM status codes to the
// stored status. The raw code is persisted alongside the mapped value.
func SimStatusFromCode(code int) SimStatus {
	switch code {
	case 202:
		return SimRegistering
	case 203:
		return SimIDRead
	case 204:
		return SimReady
	case 205:
		return SimEjected
	case 209:
		return SimCardError
	default:
		return SimCardError
	}
}

type CallState string

const (
	CallIdle      CallState = "idle"
	CallRinging   CallState = "ringing"
	CallConnected CallState = "connected"
	CallEnded     CallState = "ended"
)
