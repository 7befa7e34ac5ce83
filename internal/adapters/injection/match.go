package injection

import (
	"bytes"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// isReply reports whether recv answers sent. It mirrors the usual
// request/response pairs of the frames this module generates and falls
// back to "addressed to the sender" for anything else.
func isReply(sent, recv gopacket.Packet) bool {
	if bytes.Equal(sent.Data(), recv.Data()) {
		return false
	}
	sEth, ok1 := sent.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	rEth, ok2 := recv.Layer(layers.LayerTypeEthernet).(*layers.Ethernet)
	if !ok1 || !ok2 || !bytes.Equal(rEth.DstMAC, sEth.SrcMAC) {
		return false
	}

	if sArp, ok := sent.Layer(layers.LayerTypeARP).(*layers.ARP); ok {
		rArp, ok := recv.Layer(layers.LayerTypeARP).(*layers.ARP)
		return ok && sArp.Operation == layers.ARPRequest && rArp.Operation == layers.ARPReply &&
			bytes.Equal(rArp.SourceProtAddress, sArp.DstProtAddress)
	}

	if sDHCP, ok := sent.Layer(layers.LayerTypeDHCPv4).(*layers.DHCPv4); ok {
		rDHCP, ok := recv.Layer(layers.LayerTypeDHCPv4).(*layers.DHCPv4)
		return ok && rDHCP.Operation == layers.DHCPOpRequest && rDHCP.Xid == sDHCP.Xid
	}

	if sICMP, ok := sent.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4); ok {
		rICMP, ok := recv.Layer(layers.LayerTypeICMPv4).(*layers.ICMPv4)
		if !ok || sICMP.TypeCode.Type() != layers.ICMPv4TypeEchoRequest {
			return false
		}
		return rICMP.TypeCode.Type() == layers.ICMPv4TypeEchoReply &&
			rICMP.Id == sICMP.Id && ipv4From(recv, ipv4To(sent))
	}

	if sICMP, ok := sent.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6); ok {
		rICMP, ok := recv.Layer(layers.LayerTypeICMPv6).(*layers.ICMPv6)
		if !ok {
			return false
		}
		switch sICMP.TypeCode.Type() {
		case layers.ICMPv6TypeEchoRequest:
			return rICMP.TypeCode.Type() == layers.ICMPv6TypeEchoReply
		case layers.ICMPv6TypeNeighborSolicitation:
			ns, _ := sent.Layer(layers.LayerTypeICMPv6NeighborSolicitation).(*layers.ICMPv6NeighborSolicitation)
			na, ok := recv.Layer(layers.LayerTypeICMPv6NeighborAdvertisement).(*layers.ICMPv6NeighborAdvertisement)
			return ok && ns != nil && na.TargetAddress.Equal(ns.TargetAddress)
		case layers.ICMPv6TypeRouterAdvertisement:
			return rICMP.TypeCode.Type() == layers.ICMPv6TypeRouterSolicitation
		}
		return false
	}

	if sUDP, ok := sent.Layer(layers.LayerTypeUDP).(*layers.UDP); ok {
		rUDP, ok := recv.Layer(layers.LayerTypeUDP).(*layers.UDP)
		return ok && rUDP.SrcPort == sUDP.DstPort && rUDP.DstPort == sUDP.SrcPort
	}

	return true
}

func ipv4To(p gopacket.Packet) net.IP {
	if ip, ok := p.Layer(layers.LayerTypeIPv4).(*layers.IPv4); ok {
		return ip.DstIP
	}
	return nil
}

func ipv4From(p gopacket.Packet, want net.IP) bool {
	ip, ok := p.Layer(layers.LayerTypeIPv4).(*layers.IPv4)
	return ok && (want == nil || ip.SrcIP.Equal(want))
}
