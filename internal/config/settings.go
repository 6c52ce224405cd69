// Package config holds the Settings recognised by the Node Behaviour Agent
// (spec.md §6) and a small scaled-backoff helper used between initial
// discovery attempts.
package config

import "time"

// Settings enumerates the recognised settings keys from spec.md §6. It is
// an ordinary struct, not a file-backed config object: the teacher never
// reaches for a config library either (see SPEC_FULL.md §A.3), and loading
// this from JSON, flags, or anything else is the caller's concern.
type Settings struct {
	HostAddress      string   `json:"host_address"`
	HostAddresses    []string `json:"host_addresses"`
	ConnectionPort   int      `json:"connection_port"`
	EventsPort       int      `json:"events_port"`
	RegistrationPort int      `json:"registration_port"`

	RegistryAddress string `json:"registry_address"`
	RegistryVersion string `json:"registry_version"`

	DiscoveryBackoffMin    float64 `json:"discovery_backoff_min"`
	DiscoveryBackoffMax    float64 `json:"discovery_backoff_max"`
	DiscoveryBackoffFactor float64 `json:"discovery_backoff_factor"`

	RegistrationHeartbeatInterval time.Duration `json:"registration_heartbeat_interval"`

	Pri          uint   `json:"pri"`
	ClientSecure bool   `json:"client_secure"`
	SeedID       string `json:"seed_id"`
}

// NoPriority is the reserved pri value meaning "do not advertise this entry"
// (spec.md §3, §6).
const NoPriority uint = 100

// Merge fills any zero-valued field of cfg from def, following the
// teacher's Config.Merge idiom (internal/cluster/gossip/config.go,
// internal/kv/config.go, root options.go).
func (s Settings) Merge(def Settings) Settings {
	if s.HostAddress == "" {
		s.HostAddress = def.HostAddress
	}
	if len(s.HostAddresses) == 0 {
		s.HostAddresses = def.HostAddresses
	}
	if s.ConnectionPort == 0 {
		s.ConnectionPort = def.ConnectionPort
	}
	if s.EventsPort == 0 {
		s.EventsPort = def.EventsPort
	}
	if s.RegistrationPort == 0 {
		s.RegistrationPort = def.RegistrationPort
	}
	if s.RegistryAddress == "" {
		s.RegistryAddress = def.RegistryAddress
	}
	if s.RegistryVersion == "" {
		s.RegistryVersion = def.RegistryVersion
	}
	if s.DiscoveryBackoffMin == 0 {
		s.DiscoveryBackoffMin = def.DiscoveryBackoffMin
	}
	if s.DiscoveryBackoffMax == 0 {
		s.DiscoveryBackoffMax = def.DiscoveryBackoffMax
	}
	if s.DiscoveryBackoffFactor == 0 {
		s.DiscoveryBackoffFactor = def.DiscoveryBackoffFactor
	}
	if s.RegistrationHeartbeatInterval == 0 {
		s.RegistrationHeartbeatInterval = def.RegistrationHeartbeatInterval
	}
	if s.SeedID == "" {
		s.SeedID = def.SeedID
	}
	return s
}

// DefaultSettings mirrors the values the original nmos-cpp node ships with.
func DefaultSettings() Settings {
	return Settings{
		ConnectionPort:                80,
		RegistrationPort:              80,
		RegistryVersion:               "v1.3",
		DiscoveryBackoffMin:           5,
		DiscoveryBackoffMax:           30,
		DiscoveryBackoffFactor:        1.5,
		RegistrationHeartbeatInterval: 5 * time.Second,
		// Pri 0 is the highest priority; NoPriority (100) must be set
		// explicitly by a caller that wants to run unadvertised.
		Pri: 0,
	}
}
