package packetgen

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/miekg/dns"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

const (
	mdnsPort = 5353
	mdnsTTL  = 255
)

var (
	MDNSv4Group = net.IPv4(224, 0, 0, 251).To4()
	MDNSv4MAC   = net.HardwareAddr{0x01, 0x00, 0x5e, 0x00, 0x00, 0xfb}
	MDNSv6Group = net.ParseIP("ff02::fb")
	MDNSv6MAC   = net.HardwareAddr{0x33, 0x33, 0x00, 0x00, 0x00, 0xfb}
)

// MdnsOptions overrides the multicast destination.
type MdnsOptions struct {
	IPDst  string
	EthDst string
}

// mdnsQuery packs a PTR question for name with the RD bit set and id 0.
func mdnsQuery(name string) ([]byte, error) {
	msg := new(dns.Msg)
	msg.Id = 0
	msg.RecursionDesired = true
	msg.Question = []dns.Question{{
		Name:   dns.Fqdn(name),
		Qtype:  dns.TypePTR,
		Qclass: dns.ClassINET,
	}}
	payload, err := msg.Pack()
	if err != nil {
		return nil, fmt.Errorf("pack mdns query %q: %w", name, err)
	}
	return payload, nil
}

// Mdns6Generator builds mDNS PTR queries over IPv6.
type Mdns6Generator struct {
	iface   string
	srcMAC  net.HardwareAddr
	srcIPv6 net.IP
}

// NewMdns6Generator reads interf, src_mac, src_ipv6_type and src_ipv6.
func NewMdns6Generator(p Params, resolver ports.InterfaceResolver) (*Mdns6Generator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &Mdns6Generator{iface: addr.iface}
	if g.srcMAC, err = addr.mac(p, KeySrcMAC); err != nil {
		return nil, err
	}
	if g.srcIPv6, err = addr.ipv6(p, KeySrcIPv6); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Mdns6Generator) Interface() string { return g.iface }

// Generate queries the PTR record named after the source address.
func (g *Mdns6Generator) Generate(opts MdnsOptions) (*domain.Packet, error) {
	ipDst, err := ipv6Or("ip_dst", opts.IPDst, MDNSv6Group)
	if err != nil {
		return nil, err
	}
	ethDst, err := macOr("eth_dst", opts.EthDst, MDNSv6MAC)
	if err != nil {
		return nil, err
	}
	payload, err := mdnsQuery(g.srcIPv6.String())
	if err != nil {
		return nil, err
	}

	ip := ipv6Header(g.srcIPv6, ipDst, defaultTTL, layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: mdnsPort, DstPort: mdnsPort}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}
	return serialize(domain.KindMDNS6, defaultSerializeOpts,
		ethernet(g.srcMAC, ethDst, layers.EthernetTypeIPv6), ip, udp, gopacket.Payload(payload))
}

// Mdns4Generator builds mDNS PTR queries over IPv4.
type Mdns4Generator struct {
	iface   string
	srcMAC  net.HardwareAddr
	srcIPv4 net.IP
}

// NewMdns4Generator reads interf, src_mac and src_ipv4.
func NewMdns4Generator(p Params, resolver ports.InterfaceResolver) (*Mdns4Generator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &Mdns4Generator{iface: addr.iface}
	if g.srcMAC, err = addr.mac(p, KeySrcMAC); err != nil {
		return nil, err
	}
	if g.srcIPv4, err = addr.ipv4(p, KeySrcIPv4); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *Mdns4Generator) Interface() string { return g.iface }

func (g *Mdns4Generator) Generate(opts MdnsOptions) (*domain.Packet, error) {
	ipDst, err := ipv4Or("ip_dst", opts.IPDst, MDNSv4Group)
	if err != nil {
		return nil, err
	}
	ethDst, err := macOr("eth_dst", opts.EthDst, MDNSv4MAC)
	if err != nil {
		return nil, err
	}
	payload, err := mdnsQuery(g.srcIPv4.String())
	if err != nil {
		return nil, err
	}

	ip := ipv4Header(g.srcIPv4, ipDst, mdnsTTL, layers.IPProtocolUDP)
	udp := &layers.UDP{SrcPort: mdnsPort, DstPort: mdnsPort}
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}
	return serialize(domain.KindMDNS4, defaultSerializeOpts,
		ethernet(g.srcMAC, ethDst, layers.EthernetTypeIPv4), ip, udp, gopacket.Payload(payload))
}
