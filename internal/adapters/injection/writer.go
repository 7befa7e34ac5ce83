package injection

import (
	"fmt"

	"github.com/google/gopacket/pcap"
)

// FrameWriter is a transmit-only mechanism for raw frames.
type FrameWriter interface {
	Inject(frame []byte) error
	Close() error
}

type PcapWriter struct {
	handle *pcap.Handle
}

func NewPcapWriter(iface string) (FrameWriter, error) {
	handle, err := pcap.OpenLive(iface, 1024, false, pcap.BlockForever)
	if err != nil {
		return nil, fmt.Errorf("pcap open failed: %w", err)
	}
	return &PcapWriter{handle: handle}, nil
}

func (p *PcapWriter) Inject(frame []byte) error {
	return p.handle.WritePacketData(frame)
}

func (p *PcapWriter) Close() error {
	p.handle.Close()
	return nil
}
