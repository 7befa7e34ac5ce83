package domain

// PacketKind names the generator that produced a frame.
type PacketKind string

const (
	KindARP       PacketKind = "arp"
	KindDHCPOffer PacketKind = "dhcp_offer"
	KindNS        PacketKind = "ns"
	KindRA        PacketKind = "ra"
	KindPing4     PacketKind = "ping4"
	KindPing6     PacketKind = "ping6"
	KindMDNS4     PacketKind = "mdns4"
	KindMDNS6     PacketKind = "mdns6"
	KindDot3      PacketKind = "dot3"
	KindDot3LLC   PacketKind = "dot3_llc"
	KindDot3SNAP  PacketKind = "dot3_snap"
	KindRaw       PacketKind = "raw"
)

// Packet is a serialized link-layer frame. It is immutable once built.
type Packet struct {
	kind PacketKind
	data []byte
}

// NewPacket copies data into a new Packet.
func NewPacket(kind PacketKind, data []byte) *Packet {
	buf := make([]byte, len(data))
	copy(buf, data)
	return &Packet{kind: kind, data: buf}
}

func (p *Packet) Kind() PacketKind { return p.kind }
func (p *Packet) Len() int         { return len(p.data) }

// Bytes returns a copy of the frame.
func (p *Packet) Bytes() []byte {
	buf := make([]byte, len(p.data))
	copy(buf, p.data)
	return buf
}

// PacketSpec describes a packet declaratively: the generator kind, its
// configuration and the per-call overrides.
type PacketSpec struct {
	Kind    PacketKind        `json:"kind" yaml:"kind"`
	Params  map[string]string `json:"params" yaml:"params"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}
