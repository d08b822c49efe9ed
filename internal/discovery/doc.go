// Package discovery publishes and finds the frame receiver over mDNS.
//
// The receiver advertises itself as "_mdns-tc2-frames._udp.local." with
// instance name "tc2-frames", so a camera on the same network segment can
// find the address and port to stream to without configuration.
//
// # Advertising
//
//	ip, err := discovery.LocalIPv4()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	svc := discovery.DefaultService()
//	svc.IP = ip
//	svc.Port = rcv.Port()
//
//	adv, err := discovery.Advertise(svc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adv.Shutdown()
//
// The advertised host is "<ip>.local.". A failure to find an IPv4 address
// or to register is fatal at startup.
//
// # Browsing
//
// Scanner is the other side of the same service. The camera simulator and
// the discover command use it to check that a receiver is visible:
//
//	ep, err := discovery.NewScanner().Find(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	conn, err := net.Dial("tcp", ep.Addr())
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Camera and receiver must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
