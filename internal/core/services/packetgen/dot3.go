package packetgen

import (
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

const (
	// Dot3PadLen is both the 802.3 length field and the number of zero
	// bytes appended to every frame.
	Dot3PadLen = 128

	LLCXIDControl = 0xbf
	SNAPSAP       = 0xaa
	SNAPControl   = 0x03
)

// SNAPOUICisco is OUI 0x00000c.
var SNAPOUICisco = [3]byte{0x00, 0x00, 0x0c}

// Dot3Options overrides the destination of a raw 802.3 frame.
type Dot3Options struct {
	EthDst string
}

// LLCOptions holds the raw 802.2 header bytes. DSAP and SSAP include the
// I/G and C/R bits.
type LLCOptions struct {
	EthDst  string
	DSAP    uint8
	SSAP    uint8
	Control uint16
}

// DefaultLLCOptions is an XID command between SAPs 2 and 3.
func DefaultLLCOptions() LLCOptions {
	return LLCOptions{DSAP: 2, SSAP: 3, Control: LLCXIDControl}
}

// SNAPOptions holds the LLC and SNAP header fields.
type SNAPOptions struct {
	LLCOptions
	OUI  [3]byte
	Code layers.EthernetType
}

// DefaultSNAPOptions carries IPv4 under the Cisco OUI.
func DefaultSNAPOptions() SNAPOptions {
	return SNAPOptions{
		LLCOptions: LLCOptions{DSAP: SNAPSAP, SSAP: SNAPSAP, Control: SNAPControl},
		OUI:        SNAPOUICisco,
		Code:       layers.EthernetTypeIPv4,
	}
}

// Dot3Generator builds padded IEEE 802.3 length-framed packets.
type Dot3Generator struct {
	iface  string
	dstMAC net.HardwareAddr
	srcMAC net.HardwareAddr
}

// NewDot3Generator reads interf, dst_mac and src_mac.
func NewDot3Generator(p Params, resolver ports.InterfaceResolver) (*Dot3Generator, error) {
	addr, err := newAddressing(p, resolver)
	if err != nil {
		return nil, err
	}
	g := &Dot3Generator{iface: addr.iface}
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
	return g, nil
}

func (g *Dot3Generator) Interface() string { return g.iface }

// Generate returns a bare 802.3 header followed by padding.
func (g *Dot3Generator) Generate(opts Dot3Options) (*domain.Packet, error) {
	return g.build(domain.KindDot3, opts.EthDst)
}

// GenerateLLC adds an 802.2 LLC header.
func (g *Dot3Generator) GenerateLLC(opts LLCOptions) (*domain.Packet, error) {
	return g.build(domain.KindDot3LLC, opts.EthDst, llcLayer(opts))
}

// GenerateSNAP adds LLC and SNAP headers.
func (g *Dot3Generator) GenerateSNAP(opts SNAPOptions) (*domain.Packet, error) {
	snap := &layers.SNAP{OrganizationalCode: opts.OUI[:], Type: opts.Code}
	return g.build(domain.KindDot3SNAP, opts.EthDst, llcLayer(opts.LLCOptions), snap)
}

// build keeps the length field at Dot3PadLen whatever the headers add,
// so lengths are not fixed up during serialization.
func (g *Dot3Generator) build(kind domain.PacketKind, ethDstOverride string, headers ...gopacket.SerializableLayer) (*domain.Packet, error) {
	ethDst, err := macOr("eth_dst", ethDstOverride, g.dstMAC)
	if err != nil {
		return nil, err
	}
	eth := &layers.Ethernet{
		SrcMAC:       g.srcMAC,
		DstMAC:       ethDst,
		EthernetType: layers.EthernetTypeLLC,
		Length:       Dot3PadLen,
	}
	ls := make([]gopacket.SerializableLayer, 0, len(headers)+2)
	ls = append(ls, eth)
	ls = append(ls, headers...)
	ls = append(ls, gopacket.Payload(make([]byte, Dot3PadLen)))
	return serialize(kind, gopacket.SerializeOptions{}, ls...)
}

// llcLayer splits the raw SAP bytes into gopacket's address and flag fields.
func llcLayer(o LLCOptions) *layers.LLC {
	return &layers.LLC{
		DSAP:    o.DSAP &^ 0x01,
		IG:      o.DSAP&0x01 != 0,
		SSAP:    o.SSAP &^ 0x01,
		CR:      o.SSAP&0x01 != 0,
		Control: o.Control,
	}
}
