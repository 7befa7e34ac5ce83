package packetgen

import (
	"net"
	"strings"

	"github.com/google/gopacket/layers"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// ArpGenerator builds ARP requests and replies.
type ArpGenerator struct {
	iface   string
	srcMAC  net.HardwareAddr
	srcIPv4 net.IP
	dstIPv4 net.IP
}

// ArpOptions overrides the addressing of a single frame. Empty fields keep
// the configured value or the protocol default.
type ArpOptions struct {
	Op     string // "who-has" (default) or "is-at"
	IPDst  string
	IPSrc  string
	HwSrc  string
	HwDst  string
	EthDst string
}

// NewArpGenerator reads interf, src_mac, src_ipv4 and dst_ipv4.
func NewArpGenerator(p Params, resolver ports.InterfaceResolver) (*ArpGenerator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &ArpGenerator{iface: addr.iface}
	if g.srcMAC, err = addr.mac(p, KeySrcMAC); err != nil {
		return nil, err
	}
	if g.dstIPv4, err = addr.ipv4(p, KeyDstIPv4); err != nil {
		return nil, err
	}
	if g.srcIPv4, err = addr.ipv4(p, KeySrcIPv4); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *ArpGenerator) Interface() string { return g.iface }

// Generate returns an Ethernet/ARP frame.
func (g *ArpGenerator) Generate(opts ArpOptions) (*domain.Packet, error) {
	op, err := parseArpOp(opts.Op)
	if err != nil {
		return nil, err
	}
	hwSrc, err := macOr("hwsrc", opts.HwSrc, g.srcMAC)
	if err != nil {
		return nil, err
	}
	hwDst, err := macOr("hwdst", opts.HwDst, MACZero)
	if err != nil {
		return nil, err
	}
	ipDst, err := ipv4Or("ip_dst", opts.IPDst, g.dstIPv4)
	if err != nil {
		return nil, err
	}
	ipSrc, err := ipv4Or("ip_src", opts.IPSrc, g.srcIPv4)
	if err != nil {
		return nil, err
	}
	ethDst, err := macOr("eth_dst", opts.EthDst, MACBroadcast)
	if err != nil {
		return nil, err
	}

	arp := &layers.ARP{
		AddrType:          layers.LinkTypeEthernet,
		Protocol:          layers.EthernetTypeIPv4,
		HwAddressSize:     6,
		ProtAddressSize:   4,
		Operation:         op,
		SourceHwAddress:   hwSrc,
		SourceProtAddress: ipSrc.To4(),
		DstHwAddress:      hwDst,
		DstProtAddress:    ipDst.To4(),
	}
	return serialize(domain.KindARP, defaultSerializeOpts,
		ethernet(g.srcMAC, ethDst, layers.EthernetTypeARP), arp)
}

func parseArpOp(raw string) (uint16, error) {
	switch strings.ToLower(raw) {
	case "", "who-has", "request", "1":
		return layers.ARPRequest, nil
	case "is-at", "reply", "2":
		return layers.ARPReply, nil
	}
	return 0, &domain.InvalidFieldError{Field: "op", Value: raw}
}
