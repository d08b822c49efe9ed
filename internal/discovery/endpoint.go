package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Endpoint is a frame receiver found on the network
type Endpoint struct {
	// Instance is the mDNS instance name (e.g., "tc2-frames")
	Instance string

	// Hostname is the advertised host (e.g., "192.168.4.16.local.")
	Hostname string

	// IP is the receiver address, IPv4 preferred
	IP string

	// Port is the TCP port the receiver listens on
	Port int

	// Metadata contains the TXT record key/value pairs
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was seen
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("Frame receiver %s (%s) at %s", e.Instance, e.Hostname, e.Addr())
}

// Addr returns the host:port to dial
func (e *Endpoint) Addr() string {
	return net.JoinHostPort(e.IP, strconv.Itoa(e.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
