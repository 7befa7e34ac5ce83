package packetgen

import (
	"fmt"
	"net"
	"strings"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// Configuration keys shared by the generators.
const (
	KeyInterface   = "interf"
	KeySrcMAC      = "src_mac"
	KeyDstMAC      = "dst_mac"
	KeySrcIPv4     = "src_ipv4"
	KeyDstIPv4     = "dst_ipv4"
	KeyGwIPv4      = "gw_ipv4"
	KeySubnetMask  = "subnet_mask"
	KeySrcIPv6     = "src_ipv6"
	KeyDstIPv6     = "dst_ipv6"
	KeySrcIPv6Type = "src_ipv6_type"
)

// Params is the flat key/value configuration a generator is built from.
type Params map[string]string

func (p Params) require(key string) (string, error) {
	v, ok := p[key]
	if !ok {
		return "", &domain.MissingFieldError{Field: key}
	}
	return v, nil
}

// addressing resolves configured addresses, reading the local interface
// for values set to "get_local".
type addressing struct {
	iface    string
	resolver ports.InterfaceResolver
}

func newAddressing(p Params, resolver ports.InterfaceResolver) (addressing, error) {
	iface, err := p.require(KeyInterface)
	if err != nil {
		return addressing{}, err
	}
	return addressing{iface: iface, resolver: resolver}, nil
}

func (a addressing) needResolver(key string) error {
	if a.resolver == nil {
		return fmt.Errorf("%w: %s requires interface lookup but no resolver is configured", domain.ErrConfiguration, key)
	}
	return nil
}

func (a addressing) mac(p Params, key string) (net.HardwareAddr, error) {
	raw, err := p.require(key)
	if err != nil {
		return nil, err
	}
	spec := domain.ParseAddrSpec(raw)
	if spec.IsFromInterface() {
		if err := a.needResolver(key); err != nil {
			return nil, err
		}
		return a.resolver.HardwareAddr(a.iface)
	}
	return parseMAC(key, spec.Value())
}

func (a addressing) ipv4(p Params, key string) (net.IP, error) {
	raw, err := p.require(key)
	if err != nil {
		return nil, err
	}
	spec := domain.ParseAddrSpec(raw)
	if spec.IsFromInterface() {
		if err := a.needResolver(key); err != nil {
			return nil, err
		}
		return a.resolver.IPv4Addr(a.iface)
	}
	return parseIPv4(key, spec.Value())
}

// ipv6 reads key and the address type selector. The selector is always
// required, even for explicit addresses.
func (a addressing) ipv6(p Params, key string) (net.IP, error) {
	raw, err := p.require(key)
	if err != nil {
		return nil, err
	}
	rawType, err := p.require(KeySrcIPv6Type)
	if err != nil {
		return nil, err
	}
	spec := domain.ParseAddrSpec(raw)
	if !spec.IsFromInterface() {
		return parseIPv6(key, spec.Value())
	}
	typ, err := domain.ParseIPv6AddrType(rawType)
	if err != nil {
		return nil, err
	}
	if err := a.needResolver(key); err != nil {
		return nil, err
	}
	addrs, err := a.resolver.IPv6Addrs()
	if err != nil {
		return nil, err
	}
	return lookupIPv6(addrs, a.iface, typ)
}

// lookupIPv6 returns the first address of typ on iface.
func lookupIPv6(addrs []domain.IPv6Addr, iface string, typ domain.IPv6AddrType) (net.IP, error) {
	for _, a := range addrs {
		if a.Interface == iface && a.Type == typ {
			return a.Addr, nil
		}
	}
	return nil, fmt.Errorf("%w: no %s IPv6 address on %s", domain.ErrAddressNotFound, typ, iface)
}

func parseMAC(field, raw string) (net.HardwareAddr, error) {
	hw, err := net.ParseMAC(strings.TrimSpace(raw))
	if err != nil || len(hw) != 6 {
		return nil, &domain.InvalidFieldError{Field: field, Value: raw, Err: err}
	}
	return hw, nil
}

func parseIPv4(field, raw string) (net.IP, error) {
	ip := net.ParseIP(strings.TrimSpace(raw)).To4()
	if ip == nil {
		return nil, &domain.InvalidFieldError{Field: field, Value: raw}
	}
	return ip, nil
}

func parseIPv6(field, raw string) (net.IP, error) {
	ip := net.ParseIP(strings.TrimSpace(raw))
	if ip == nil || ip.To4() != nil {
		return nil, &domain.InvalidFieldError{Field: field, Value: raw}
	}
	return ip, nil
}

// Override helpers: an empty override keeps the fallback.

func macOr(field, override string, fallback net.HardwareAddr) (net.HardwareAddr, error) {
	if override == "" {
		return fallback, nil
	}
	return parseMAC(field, override)
}

func ipv4Or(field, override string, fallback net.IP) (net.IP, error) {
	if override == "" {
		return fallback, nil
	}
	return parseIPv4(field, override)
}

func ipv6Or(field, override string, fallback net.IP) (net.IP, error) {
	if override == "" {
		return fallback, nil
	}
	return parseIPv6(field, override)
}
