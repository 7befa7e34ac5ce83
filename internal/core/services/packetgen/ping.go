package packetgen

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// Ping6Data is the echo payload of every ICMPv6 request.
const Ping6Data = "BEST PING6 EVER"

const defaultTTL = 64

// PingOptions overrides the destination of an echo request.
type PingOptions struct {
	IPDst  string
	EthDst string
}

// Ping6Generator builds ICMPv6 echo requests.
type Ping6Generator struct {
	iface   string
	dstMAC  net.HardwareAddr
	srcMAC  net.HardwareAddr
	dstIPv6 net.IP
	srcIPv6 net.IP
}

// NewPing6Generator reads interf, dst_mac, src_mac, dst_ipv6, src_ipv6_type
// and src_ipv6.
func NewPing6Generator(p Params, resolver ports.InterfaceResolver) (*Ping6Generator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &Ping6Generator{iface: addr.iface}
	dstMAC, err := p.require(KeyDstMAC)
	if err != nil {
		return nil, err
	}
	if g.dstMAC, err = parseMAC(KeyDstMAC, dstMAC); err != nil {
		return nil, err
	}
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

func (g *Ping6Generator) Interface() string { return g.iface }

func (g *Ping6Generator) Generate(opts PingOptions) (*domain.Packet, error) {
	ipDst, err := ipv6Or("ip_dst", opts.IPDst, g.dstIPv6)
	if err != nil {
		return nil, err
	}
	ethDst, err := macOr("eth_dst", opts.EthDst, g.dstMAC)
	if err != nil {
		return nil, err
	}

	ip := ipv6Header(g.srcIPv6, ipDst, defaultTTL, layers.IPProtocolICMPv6)
	icmp := &layers.ICMPv6{TypeCode: layers.CreateICMPv6TypeCode(layers.ICMPv6TypeEchoRequest, 0)}
	if err := icmp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}
	return serialize(domain.KindPing6, defaultSerializeOpts,
		ethernet(g.srcMAC, ethDst, layers.EthernetTypeIPv6), ip, icmp,
		&layers.ICMPv6Echo{}, gopacket.Payload(Ping6Data))
}

// Ping4Generator builds ICMP echo requests.
type Ping4Generator struct {
	iface   string
	dstMAC  net.HardwareAddr
	srcMAC  net.HardwareAddr
	dstIPv4 net.IP
	srcIPv4 net.IP
}

// NewPing4Generator reads interf, dst_mac, src_mac, dst_ipv4 and src_ipv4.
func NewPing4Generator(p Params, resolver ports.InterfaceResolver) (*Ping4Generator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &Ping4Generator{iface: addr.iface}
	dstMAC, err := p.require(KeyDstMAC)
	if err != nil {
		return nil, err
	}
	if g.dstMAC, err = parseMAC(KeyDstMAC, dstMAC); err != nil {
		return nil, err
	}
	if g.srcMAC, err = addr.mac(p, KeySrcMAC); err != nil {
		return nil, err
	}
	dst, err := p.require(KeyDstIPv4)
	if err != nil {
		return nil, err
	}
	if g.dstIPv4, err = parseIPv4(KeyDstIPv4, dst); err != nil {
		return nil, err
	}
	if g.srcIPv4, err = addr.ipv4(p, KeySrcIPv4); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Ping4Generator) Interface() string { return g.iface }

func (g *Ping4Generator) Generate(opts PingOptions) (*domain.Packet, error) {
	ipDst, err := ipv4Or("ip_dst", opts.IPDst, g.dstIPv4)
	if err != nil {
		return nil, err
	}
	ethDst, err := macOr("eth_dst", opts.EthDst, g.dstMAC)
	if err != nil {
		return nil, err
	}

	icmp := &layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)}
	return serialize(domain.KindPing4, defaultSerializeOpts,
		ethernet(g.srcMAC, ethDst, layers.EthernetTypeIPv4),
		ipv4Header(g.srcIPv4, ipDst, defaultTTL, layers.IPProtocolICMPv4), icmp)
}
