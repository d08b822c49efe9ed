package discovery

import (
	"errors"
	"fmt"
	"net"
)

// ErrNoIPv4 is returned when no usable IPv4 address exists.
var ErrNoIPv4 = errors.New("no non-loopback IPv4 address found")

// LocalIPv4 returns the first non-loopback IPv4 address of an interface
// that is up.
func LocalIPv4() (net.IP, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		if ip := firstIPv4(addrs); ip != nil {
			return ip, nil
		}
	}
	return nil, ErrNoIPv4
}

// ResolveIP returns the address to advertise: host itself when it is an
// IPv4 literal, the local address otherwise.
func ResolveIP(host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil && !ip.IsUnspecified() {
		if v4 := ip.To4(); v4 != nil {
			return v4, nil
		}
		return nil, fmt.Errorf("%s: %w", host, ErrNoIPv4)
	}
	return LocalIPv4()
}

func firstIPv4(addrs []net.Addr) net.IP {
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}
		if v4 := ip.To4(); v4 != nil {
			return v4
		}
	}
	return nil
}
