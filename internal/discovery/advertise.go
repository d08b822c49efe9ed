package discovery

import (
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/tc2frames/internal/logging"
)

const (
	// ServiceType is the mDNS service type cameras browse for
	ServiceType = "_mdns-tc2-frames._udp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultInstance is the advertised instance name
	DefaultInstance = "tc2-frames"
)

// DefaultProperties are the TXT properties cameras currently expect.
var DefaultProperties = map[string]string{
	"property_1": "test",
	"property_2": "1234",
}

// Service describes what to publish.
type Service struct {
	Type       string
	Instance   string
	Domain     string
	IP         net.IP
	Port       int
	Properties map[string]string
}

// DefaultService returns the service cameras look for, without address.
func DefaultService() Service {
	props := make(map[string]string, len(DefaultProperties))
	for k, v := range DefaultProperties {
		props[k] = v
	}
	return Service{
		Type:       ServiceType,
		Instance:   DefaultInstance,
		Domain:     ServiceDomain,
		Properties: props,
	}
}

// Host returns the advertised host name, "<ip>.local.".
func (s Service) Host() string {
	return fmt.Sprintf("%s.%s", s.IP, strings.TrimSuffix(s.Domain, ".")) + "."
}

// TXT returns the properties as sorted "key=value" records.
func (s Service) TXT() []string {
	txt := make([]string, 0, len(s.Properties))
	for k, v := range s.Properties {
		txt = append(txt, k+"="+v)
	}
	sort.Strings(txt)
	return txt
}

// Validate checks that the service can be registered.
func (s Service) Validate() error {
	if s.Type == "" || s.Instance == "" || s.Domain == "" {
		return errors.New("service type, instance and domain are required")
	}
	if s.IP.To4() == nil {
		return fmt.Errorf("advertised address %v is not IPv4", s.IP)
	}
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	return nil
}

// registrar is the subset of zeroconf used for publishing.
type registrar func(instance, service, domain string, port int, host string, ips []string, text []string, ifaces []net.Interface) (shutdowner, error)

type shutdowner interface {
	Shutdown()
}

func zeroconfRegistrar(instance, service, domain string, port int, host string, ips []string, text []string, ifaces []net.Interface) (shutdowner, error) {
	return zeroconf.RegisterProxy(instance, service, domain, port, host, ips, text, ifaces)
}

// Advertiser publishes a Service over mDNS.
type Advertiser struct {
	register registrar
}

// NewAdvertiser creates an advertiser backed by zeroconf.
func NewAdvertiser() *Advertiser {
	return &Advertiser{register: zeroconfRegistrar}
}

// Advertisement is a live registration.
type Advertisement struct {
	Service Service
	server  shutdowner
}

// Shutdown withdraws the registration.
func (a *Advertisement) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	logging.Info("Withdrew mDNS advertisement",
		zap.String("instance", a.Service.Instance),
		zap.String("service", a.Service.Type),
	)
}

// Advertise registers svc. Registration is fire-and-forget: once it
// succeeds nothing else is reported.
func (a *Advertiser) Advertise(svc Service) (*Advertisement, error) {
	if err := svc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid service: %w", err)
	}

	host := svc.Host()
	server, err := a.register(svc.Instance, svc.Type, svc.Domain, svc.Port, host,
		[]string{svc.IP.String()}, svc.TXT(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}

	logging.Info("Advertising frame receiver",
		zap.String("instance", svc.Instance),
		zap.String("service", svc.Type+"."+svc.Domain),
		zap.String("host", host),
		zap.Int("port", svc.Port),
		zap.Strings("txt", svc.TXT()),
	)
	return &Advertisement{Service: svc, server: server}, nil
}

// Advertise publishes svc with the default zeroconf advertiser.
func Advertise(svc Service) (*Advertisement, error) {
	return NewAdvertiser().Advertise(svc)
}
