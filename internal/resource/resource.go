// Package resource defines the data the Node Behaviour Agent observes: the
// resource event model, the change-event grain the agent drains, and the
// per-type version counters used in peer-to-peer mode.
package resource

import "fmt"

// Type is one of the six NMOS IS-04 resource types the agent registers.
type Type string

const (
	TypeNode     Type = "node"
	TypeDevice   Type = "device"
	TypeSource   Type = "source"
	TypeFlow     Type = "flow"
	TypeSender   Type = "sender"
	TypeReceiver Type = "receiver"
)

// Types enumerates every resource type, in the order TXT records are
// documented in spec.md §6 (ver_slf, ver_dev, ver_src, ver_flw, ver_snd, ver_rcv).
var Types = []Type{TypeNode, TypeDevice, TypeSource, TypeFlow, TypeSender, TypeReceiver}

// Plural returns the resource-type-plural path segment used in registry
// URLs and event paths, e.g. "sender" -> "senders".
func (t Type) Plural() string {
	switch t {
	case TypeDevice:
		return "devices"
	default:
		return string(t) + "s"
	}
}

// Kind is the nature of a change observed on a resource.
type Kind string

const (
	KindAdded    Kind = "added"
	KindModified Kind = "modified"
	KindRemoved  Kind = "removed"
	KindSync     Kind = "sync"
)

// Event is a single resource change, as produced by the Resource Store and
// consumed by the agent. Path is "<type-plural>/<id>".
type Event struct {
	Path Path
	Kind Kind
	// Pre is the resource payload before the change. Present for Modified
	// and Removed.
	Pre map[string]any
	// Post is the resource payload after the change. Present for Added,
	// Modified and Sync.
	Post map[string]any
}

// Path identifies a resource by its type and id.
type Path struct {
	Type Type
	ID   string
}

func (p Path) String() string { return fmt.Sprintf("%s/%s", p.Type.Plural(), p.ID) }

// Data returns the payload to register: Post for everything but a pure
// deletion, where only Pre is available.
func (e Event) Data() map[string]any {
	if e.Post != nil {
		return e.Post
	}
	return e.Pre
}
