package packetgen

import (
	"net"

	"github.com/google/gopacket/layers"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

const (
	dhcpServerPort = 67
	dhcpClientPort = 68
	dhcpOfferXid   = 0x01020304
)

// DhcpOfferGenerator builds unsolicited DHCP OFFER frames.
type DhcpOfferGenerator struct {
	iface      string
	subnetMask net.IP
	dstMAC     net.HardwareAddr
	srcMAC     net.HardwareAddr
	dstIPv4    net.IP
	srcIPv4    net.IP
	gwIPv4     net.IP
}

// DhcpOfferOptions selects the station the offer is addressed to.
type DhcpOfferOptions struct {
	ChaddrMAC string // client hardware address, default dst_mac
	YourIP    string // offered address, default dst_ipv4
}

// NewDhcpOfferGenerator reads interf, subnet_mask, dst_mac, src_mac,
// dst_ipv4, src_ipv4 and gw_ipv4.
func NewDhcpOfferGenerator(p Params, resolver ports.InterfaceResolver) (*DhcpOfferGenerator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &DhcpOfferGenerator{iface: addr.iface}

	mask, err := p.require(KeySubnetMask)
	if err != nil {
		return nil, err
	}
	if g.subnetMask, err = parseIPv4(KeySubnetMask, mask); err != nil {
		return nil, err
	}
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
	dstIP, err := p.require(KeyDstIPv4)
	if err != nil {
		return nil, err
	}
	if g.dstIPv4, err = parseIPv4(KeyDstIPv4, dstIP); err != nil {
		return nil, err
	}
	if g.srcIPv4, err = addr.ipv4(p, KeySrcIPv4); err != nil {
		return nil, err
	}
	gw, err := p.require(KeyGwIPv4)
	if err != nil {
		return nil, err
	}
	if g.gwIPv4, err = parseIPv4(KeyGwIPv4, gw); err != nil {
		return nil, err
	}
	return g, nil
}

func (g *DhcpOfferGenerator) Interface() string { return g.iface }

// Generate returns an Ethernet/IPv4/UDP/BOOTP frame carrying a DHCP offer.
func (g *DhcpOfferGenerator) Generate(opts DhcpOfferOptions) (*domain.Packet, error) {
	staHW, err := macOr("cha_mac", opts.ChaddrMAC, g.dstMAC)
	if err != nil {
		return nil, err
	}
	staIP, err := ipv4Or("dst_ip", opts.YourIP, g.dstIPv4)
	if err != nil {
		return nil, err
	}

	dhcp := &layers.DHCPv4{
		Operation:    layers.DHCPOpReply,
		HardwareType: layers.LinkTypeEthernet,
		HardwareLen:  6,
		Xid:          dhcpOfferXid,
		ClientIP:     net.IPv4zero.To4(),
		YourClientIP: staIP,
		NextServerIP: g.srcIPv4,
		RelayAgentIP: g.gwIPv4,
		ClientHWAddr: staHW,
		Options: layers.DHCPOptions{
			layers.NewDHCPOption(layers.DHCPOptMessageType, []byte{byte(layers.DHCPMsgTypeOffer)}),
			layers.NewDHCPOption(layers.DHCPOptSubnetMask, []byte(g.subnetMask.To4())),
			layers.NewDHCPOption(layers.DHCPOptServerID, []byte(g.srcIPv4.To4())),
		},
	}
	udp := &layers.UDP{SrcPort: dhcpServerPort, DstPort: dhcpClientPort}
	ip := ipv4Header(g.srcIPv4, IPv4Broadcast, 64, layers.IPProtocolUDP)
	if err := udp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, err
	}
	return serialize(domain.KindDHCPOffer, defaultSerializeOpts,
		ethernet(g.srcMAC, MACBroadcast, layers.EthernetTypeIPv4), ip, udp, dhcp)
}
