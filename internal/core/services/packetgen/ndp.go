package packetgen

import (
	"encoding/binary"
	"net"

	"github.com/google/gopacket/layers"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

const (
	ndpHopLimit = 255

	// ICMPv6OptRDNSS is the Recursive DNS Server option (RFC 8106).
	ICMPv6OptRDNSS layers.ICMPv6Opt = 25

	raPrefixLen      = 64
	raPreferenceHigh = 0x08
	prefixFlagOnLink = 0x80
	prefixFlagAuto   = 0x40
	infiniteLifetime = 0xffffffff
)

var (
	RAMAC     = net.HardwareAddr{0x33, 0x33, 0x00, 0x00, 0x00, 0x01}
	RAIP      = net.ParseIP("ff02::1")
	RAPrefix  = net.ParseIP("d00d::")
	nsmaBase  = net.ParseIP("ff02::1:ff00:0")
	ipv6McMAC = net.HardwareAddr{0x33, 0x33, 0, 0, 0, 0}
)

// SolicitedNodeMulticast returns ff02::1:ffXX:XXXX for ip.
func SolicitedNodeMulticast(ip net.IP) net.IP {
	out := make(net.IP, net.IPv6len)
	copy(out, nsmaBase)
	ip16 := ip.To16()
	copy(out[13:], ip16[13:])
	return out
}

// MulticastMAC maps an IPv6 multicast address to its 33:33:xx:xx:xx:xx MAC.
func MulticastMAC(group net.IP) net.HardwareAddr {
	out := make(net.HardwareAddr, 6)
	copy(out, ipv6McMAC)
	copy(out[2:], group.To16()[12:])
	return out
}

func sourceLLOption(mac net.HardwareAddr) layers.ICMPv6Option {
	return layers.ICMPv6Option{Type: layers.ICMPv6OptSourceAddress, Data: []byte(mac)}
}

// ndpOptions lays options out in wire order. gopacket prepends each option,
// so the slice is stored reversed.
func ndpOptions(opts ...layers.ICMPv6Option) layers.ICMPv6Options {
	out := make(layers.ICMPv6Options, len(opts))
	for i, o := range opts {
		out[len(opts)-1-i] = o
	}
	return out
}

// NsGenerator builds IPv6 Neighbor Solicitations.
type NsGenerator struct {
	iface   string
	srcMAC  net.HardwareAddr
	dstIPv6 net.IP
	srcIPv6 net.IP
}

// NsOptions overrides the target and link-layer destination.
type NsOptions struct {
	IPDst  string // solicited target, default dst_ipv6
	EthDst string // default the solicited-node multicast MAC
}

// NewNsGenerator reads interf, src_mac, dst_ipv6, src_ipv6_type and src_ipv6.
func NewNsGenerator(p Params, resolver ports.InterfaceResolver) (*NsGenerator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &NsGenerator{iface: addr.iface}
	if g.srcMAC, err = addr.mac(p, KeySrcMAC); err != nil {
		return nil, err
	}
	dst, err := p.require(KeyDstIPv6)
	if err != nil {
		return nil, err
	}
	if g.dstIPv6, err = parseIPv6(KeyDstIPv6, dst); err != nil {
		return nil, err
	}
	if g.srcIPv6, err = addr.ipv6(p, KeySrcIPv6); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *NsGenerator) Interface() string { return g.iface }

// Generate returns Ethernet/IPv6/ICMPv6 NS with a source link-layer option,
// sent to the target's solicited-node group.
func (g *NsGenerator) Generate(opts NsOptions) (*domain.Packet, error) {
	target, err := ipv6Or("ip_dst", opts.IPDst, g.dstIPv6)
	if err != nil {
		return nil, err
	}
	group := SolicitedNodeMulticast(target)
	ethDst, err := macOr("eth_dst", opts.EthDst, MulticastMAC(group))
	if err != nil {
		return nil, err
	}

	ip := ipv6Header(g.srcIPv6, group, ndpHopLimit, layers.IPProtocolICMPv6)
	icmp := &layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeNeighborSolicitation, 0)}
	if err := icmp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}
	ns := &layers.ICMPv6NeighborSolicitation{
		TargetAddress: target,
		Options:       ndpOptions(sourceLLOption(g.srcMAC)),
	}
	return serialize(domain.KindNS, defaultSerializeOpts,
		ethernet(g.srcMAC, ethDst, layers.EthernetTypeIPv6), ip, icmp, ns)
}

// RaGenerator builds IPv6 Router Advertisements announcing d00d::/64.
type RaGenerator struct {
	iface   string
	srcMAC  net.HardwareAddr
	srcIPv6 net.IP
}

// RaOptions controls the advertisement contents.
type RaOptions struct {
	Lifetime    uint16 // router lifetime in seconds
	EnableDNS   bool   // append an RDNSS option naming the source address
	DNSLifetime uint32
	IPDst       string // default ff02::1
	EthDst      string // default 33:33:00:00:00:01
}

// NewRaGenerator reads interf, src_mac, src_ipv6_type and src_ipv6.
func NewRaGenerator(p Params, resolver ports.InterfaceResolver) (*RaGenerator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &RaGenerator{iface: addr.iface}
	if g.srcMAC, err = addr.mac(p, KeySrcMAC); err != nil {
		return nil, err
	}
	if g.srcIPv6, err = addr.ipv6(p, KeySrcIPv6); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *RaGenerator) Interface() string { return g.iface }

// Generate returns Ethernet/IPv6/ICMPv6 RA with source link-layer, prefix
// information and optionally RDNSS options, in that order.
func (g *RaGenerator) Generate(opts RaOptions) (*domain.Packet, error) {
	ipDst, err := ipv6Or("ip_dst", opts.IPDst, RAIP)
	if err != nil {
		return nil, err
	}
	ethDst, err := macOr("eth_dst", opts.EthDst, RAMAC)
	if err != nil {
		return nil, err
	}

	options := []layers.ICMPv6Option{sourceLLOption(g.srcMAC), prefixInfoOption()}
	if opts.EnableDNS {
		options = append(options, rdnssOption(opts.DNSLifetime, g.srcIPv6))
	}

	ip := ipv6Header(g.srcIPv6, ipDst, ndpHopLimit, layers.IPProtocolICMPv6)
	icmp := &layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeRouterAdvertisement, 0)}
	if err := icmp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}
	ra := &layers.ICMPv6RouterAdvertisement{
		Flags:          raPreferenceHigh,
		RouterLifetime: opts.Lifetime,
		Options:        ndpOptions(options...),
	}
	return serialize(domain.KindRA, defaultSerializeOpts,
		ethernet(g.srcMAC, ethDst, layers.EthernetTypeIPv6), ip, icmp, ra)
}

// prefixInfoOption is 30 bytes of option data: prefix length, L/A flags,
// valid and preferred lifetimes, 4 reserved bytes and the prefix.
func prefixInfoOption() layers.ICMPv6Option {
	data := make([]byte, 30)
	data[0] = raPrefixLen
	data[1] = prefixFlagOnLink | prefixFlagAuto
	binary.BigEndian.PutUint32(data[2:6], infiniteLifetime)
	binary.BigEndian.PutUint32(data[6:10], infiniteLifetime)
	copy(data[14:30], RAPrefix.To16())
	return layers.ICMPv6Option{Type: layers.ICMPv6OptPrefixInfo, Data: data}
}

// rdnssOption carries a single server, giving an option length of 3.
func rdnssOption(lifetime uint32, server net.IP) layers.ICMPv6Option {
	data := make([]byte, 22)
	binary.BigEndian.PutUint32(data[2:6], lifetime)
	copy(data[6:22], server.To16())
	return layers.ICMPv6Option{Type: ICMPv6OptRDNSS, Data: data}
}
