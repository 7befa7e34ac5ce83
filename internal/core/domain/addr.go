package domain

import (
	"fmt"
	"net"
	"strings"
)

// LocalAddrKeyword is the configuration value asking for an address to be
// read from the local interface.
const LocalAddrKeyword = "get_local"

// AddrSource tells where an address comes from.
type AddrSource int

const (
	SourceExplicit AddrSource = iota
	SourceInterface
)

// AddrSpec is either an explicit address or a request to resolve it from
// the configured interface.
type AddrSpec struct {
	source AddrSource
	value  string
}

// Explicit returns an AddrSpec holding a literal address.
func Explicit(value string) AddrSpec {
	return AddrSpec{source: SourceExplicit, value: value}
}

// FromInterface returns an AddrSpec resolved from the local interface.
func FromInterface() AddrSpec {
	return AddrSpec{source: SourceInterface}
}

// ParseAddrSpec maps configuration text onto an AddrSpec.
func ParseAddrSpec(raw string) AddrSpec {
	raw = strings.TrimSpace(raw)
	if raw == LocalAddrKeyword {
		return FromInterface()
	}
	return Explicit(raw)
}

func (a AddrSpec) Source() AddrSource    { return a.source }
func (a AddrSpec) IsFromInterface() bool { return a.source == SourceInterface }

// Value returns the literal address. It is empty for FromInterface specs.
func (a AddrSpec) Value() string { return a.value }

func (a AddrSpec) String() string {
	if a.IsFromInterface() {
		return LocalAddrKeyword
	}
	return a.value
}

// IPv6AddrType classifies an IPv6 address by scope.
type IPv6AddrType string

const (
	IPv6Global    IPv6AddrType = "global"
	IPv6LinkLocal IPv6AddrType = "link_local"
	IPv6SiteLocal IPv6AddrType = "site_local"
	IPv6Loopback  IPv6AddrType = "loopback"
)

var siteLocalNet = &net.IPNet{IP: net.ParseIP("fec0::"), Mask: net.CIDRMask(10, 128)}

// ParseIPv6AddrType accepts the canonical names plus a few common aliases.
func ParseIPv6AddrType(raw string) (IPv6AddrType, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "global", "0":
		return IPv6Global, nil
	case "link_local", "linklocal", "link-local", "32":
		return IPv6LinkLocal, nil
	case "site_local", "sitelocal", "site-local", "64":
		return IPv6SiteLocal, nil
	case "loopback", "16":
		return IPv6Loopback, nil
	}
	return "", &InvalidFieldError{Field: "src_ipv6_type", Value: raw}
}

// ClassifyIPv6 returns the scope type of ip. ip must be an IPv6 address.
func ClassifyIPv6(ip net.IP) IPv6AddrType {
	switch {
	case ip.IsLoopback():
		return IPv6Loopback
	case ip.IsLinkLocalUnicast():
		return IPv6LinkLocal
	case siteLocalNet.Contains(ip):
		return IPv6SiteLocal
	default:
		return IPv6Global
	}
}

// IPv6Addr is one enumerated address of a local interface.
type IPv6Addr struct {
	Addr      net.IP
	Type      IPv6AddrType
	Interface string
}

func (a IPv6Addr) String() string {
	return fmt.Sprintf("%s (%s) on %s", a.Addr, a.Type, a.Interface)
}
