package packetgen

import (
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

// Well-known addresses.
var (
	MACBroadcast  = net.HardwareAddr{0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	MACZero       = net.HardwareAddr{0, 0, 0, 0, 0, 0}
	IPv4Broadcast = net.IPv4(255, 255, 255, 255).To4()
)

var defaultSerializeOpts = gopacket.SerializeOptions{
	FixLengths:       true,
	ComputeChecksums: true,
}

func serialize(kind domain.PacketKind, opts gopacket.SerializeOptions, ls ...gopacket.SerializableLayer) (*domain.Packet, error) {
	buf := gopacket.NewSerializeBuffer()
	if err := gopacket.SerializeLayers(buf, opts, ls...); err != nil {
		return nil, fmt.Errorf("serialize %s failed: %w", kind, err)
	}
	return domain.NewPacket(kind, buf.Bytes()), nil
}

func ethernet(src, dst net.HardwareAddr, typ layers.EthernetType) *layers.Ethernet {
	return &layers.Ethernet{SrcMAC: src, DstMAC: dst, EthernetType: typ}
}

func ipv4Header(src, dst net.IP, ttl uint8, proto layers.IPProtocol) *layers.IPv4 {
	return &layers.IPv4{
		Version:  4,
		IHL:      5,
		Id:       1,
		TTL:      ttl,
		Protocol: proto,
		SrcIP:    src,
		DstIP:    dst,
	}
}

func ipv6Header(src, dst net.IP, hopLimit uint8, next layers.IPProtocol) *layers.IPv6 {
	return &layers.IPv6{
		Version:    6,
		NextHeader: next,
		HopLimit:   hopLimit,
		SrcIP:      src,
		DstIP:      dst,
	}
}
