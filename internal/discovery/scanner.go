package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

// DefaultScanTimeout is the default timeout for receiver discovery
const DefaultScanTimeout = 5 * time.Second

// Scanner browses for frame receivers
type Scanner struct {
	// Timeout is the maximum time to wait for discovery
	Timeout time.Duration

	// Instance limits results to one instance name; empty accepts any
	Instance string
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout:  DefaultScanTimeout,
		Instance: DefaultInstance,
	}
}

// Scan collects every receiver seen before the timeout.
func (s *Scanner) Scan(ctx context.Context) ([]*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	var (
		mu        sync.Mutex
		endpoints = make([]*Endpoint, 0)
		collected = make(chan struct{})
	)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		defer close(collected)
		for entry := range entries {
			if ep := s.parseServiceEntry(entry); ep != nil {
				mu.Lock()
				endpoints = append(endpoints, ep)
				mu.Unlock()
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	// zeroconf closes entries once browsing stops
	select {
	case <-collected:
	case <-time.After(time.Second):
	}

	mu.Lock()
	defer mu.Unlock()
	return endpoints, nil
}

// Find waits for the first receiver to appear.
func (s *Scanner) Find(ctx context.Context) (*Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Endpoint, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			if ep := s.parseServiceEntry(entry); ep != nil {
				select {
				case found <- ep:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case ep := <-found:
		return ep, nil
	case <-ctx.Done():
		select {
		case ep := <-found:
			return ep, nil
		default:
		}
		return nil, fmt.Errorf("no frame receiver found within %v", s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Endpoint
// Returns nil if the entry is not a usable receiver
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Endpoint {
	if entry == nil {
		return nil
	}
	if s.Instance != "" && entry.Instance != s.Instance {
		return nil
	}
	if entry.Port <= 0 {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	for _, addr := range entry.AddrIPv4 {
		ip = addr.String()
		break
	}
	if ip == "" && len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}

	return &Endpoint{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
