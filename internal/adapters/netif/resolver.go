package netif

import (
	"fmt"
	"net"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// link is the part of net.Interface the resolver reads.
type link struct {
	name  string
	mac   net.HardwareAddr
	addrs []net.Addr
}

// SystemResolver reads addresses from the host's interfaces.
type SystemResolver struct {
	byName func(name string) (link, error)
	all    func() ([]link, error)
}

var _ ports.InterfaceResolver = (*SystemResolver)(nil)

func NewSystemResolver() *SystemResolver {
	return &SystemResolver{byName: systemLink, all: systemLinks}
}

func systemLink(name string) (link, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return link{}, err
	}
	return toLink(*ifi)
}

func systemLinks() ([]link, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	links := make([]link, 0, len(ifaces))
	for _, ifi := range ifaces {
		l, err := toLink(ifi)
		if err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

func toLink(ifi net.Interface) (link, error) {
	addrs, err := ifi.Addrs()
	if err != nil {
		return link{}, fmt.Errorf("addresses of %s: %w", ifi.Name, err)
	}
	return link{name: ifi.Name, mac: ifi.HardwareAddr, addrs: addrs}, nil
}

// HardwareAddr returns the MAC address of iface.
func (r *SystemResolver) HardwareAddr(iface string) (net.HardwareAddr, error) {
	l, err := r.byName(iface)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInterface, iface, err)
	}
	if len(l.mac) == 0 {
		return nil, fmt.Errorf("%w: %s has no hardware address", domain.ErrAddressNotFound, iface)
	}
	return l.mac, nil
}

// IPv4Addr returns the first IPv4 address configured on iface.
func (r *SystemResolver) IPv4Addr(iface string) (net.IP, error) {
	l, err := r.byName(iface)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInterface, iface, err)
	}
	for _, a := range l.addrs {
		if ip := addrIP(a).To4(); ip != nil {
			return ip, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no IPv4 address", domain.ErrAddressNotFound, iface)
}

// IPv6Addrs lists every IPv6 address on the host with its scope.
func (r *SystemResolver) IPv6Addrs() ([]domain.IPv6Addr, error) {
	links, err := r.all()
	if err != nil {
		return nil, fmt.Errorf("listing interfaces: %w", err)
	}
	var out []domain.IPv6Addr
	for _, l := range links {
		for _, a := range l.addrs {
			ip := addrIP(a)
			if ip == nil || ip.To4() != nil {
				continue
			}
			out = append(out, domain.IPv6Addr{Addr: ip, Type: domain.ClassifyIPv6(ip), Interface: l.name})
		}
	}
	return out, nil
}

func addrIP(a net.Addr) net.IP {
	switch v := a.(type) {
	case *net.IPNet:
		return v.IP
	case *net.IPAddr:
		return v.IP
	}
	return nil
}
