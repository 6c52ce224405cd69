// Package fsm is the single actor that orchestrates discovery,
// registration, registered operation, rediscovery and peer-to-peer mode
// (spec.md §4.1). It owns no lock: the foreground pump and the background
// heartbeat/rediscovery tasks communicate only through the resource
// grain's wake channel and plain outcome channels, per spec.md §9's
// explicit replacement of the shared lock/condition-variable model with
// message-passing.
package fsm

// Mode is one of the agent's five states (spec.md §3).
type Mode int

const (
	ModeInitialDiscovery Mode = iota
	ModeInitialRegistration
	ModeRegisteredOperation
	ModeRediscovery
	ModePeerToPeer
)

func (m Mode) String() string {
	switch m {
	case ModeInitialDiscovery:
		return "INITIAL_DISCOVERY"
	case ModeInitialRegistration:
		return "INITIAL_REGISTRATION"
	case ModeRegisteredOperation:
		return "REGISTERED_OPERATION"
	case ModeRediscovery:
		return "REDISCOVERY"
	case ModePeerToPeer:
		return "PEER_TO_PEER"
	default:
		return "UNKNOWN"
	}
}
