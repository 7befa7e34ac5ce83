package injection

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"

	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

const (
	captureSnaplen     = 65536
	captureReadTimeout = 50 * time.Millisecond
)

// captureHandle is the subset of *pcap.Handle used to wait for replies.
type captureHandle interface {
	gopacket.PacketDataSource
	LinkType() layers.LinkType
	SetBPFFilter(expr string) error
	Close()
}

// openCapture allows mocking in tests
var openCapture = func(iface string) (captureHandle, error) {
	return pcap.OpenLive(iface, captureSnaplen, true, captureReadTimeout)
}

// Injector writes frames on one interface and can wait for the answer to a
// frame on a short-lived capture handle.
type Injector struct {
	iface     string
	mu        sync.Mutex
	mechanism FrameWriter
	log       *slog.Logger
}

var _ ports.FrameInjector = (*Injector)(nil)

// NewInjector prefers a raw AF_PACKET socket and falls back to pcap.
func NewInjector(iface string) (*Injector, error) {
	log := slog.Default().With("component", "injector", "interface", iface)

	mech, err := NewRawWriter(iface)
	if err != nil {
		log.Info("raw injection unavailable, falling back to pcap", "error", err)
		mech, err = NewPcapWriter(iface)
		if err != nil {
			return nil, fmt.Errorf("injection init failed: %w", err)
		}
	} else {
		log.Debug("using raw socket injection")
	}
	return newInjector(iface, mech, log), nil
}

func newInjector(iface string, mech FrameWriter, log *slog.Logger) *Injector {
	return &Injector{iface: iface, mechanism: mech, log: log}
}

func (i *Injector) Interface() string { return i.iface }

// Inject writes a single frame.
func (i *Injector) Inject(frame []byte) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.mechanism == nil {
		return net.ErrClosed
	}
	return i.mechanism.Inject(frame)
}

// InjectAndWait writes frame and returns the first captured frame that
// answers it, or nil once timeout elapses.
func (i *Injector) InjectAndWait(ctx context.Context, frame []byte, timeout time.Duration) ([]byte, error) {
	sent := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)

	// The capture must be open before the frame leaves, or a fast reply is lost.
	handle, err := openCapture(i.iface)
	if err != nil {
		return nil, fmt.Errorf("capture handle: %w", err)
	}
	defer handle.Close()

	if eth, ok := sent.Layer(layers.LayerTypeEthernet).(*layers.Ethernet); ok {
		filter := fmt.Sprintf("ether dst %s", eth.SrcMAC)
		if err := handle.SetBPFFilter(filter); err != nil {
			i.log.Debug("bpf filter rejected, matching in userspace", "filter", filter, "error", err)
		}
	}

	source := gopacket.NewPacketSource(handle, handle.LinkType())
	packets := source.Packets()

	if err := i.Inject(frame); err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	for {
		select {
		case pkt, ok := <-packets:
			if !ok {
				return nil, nil
			}
			if isReply(sent, pkt) {
				return pkt.Data(), nil
			}
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, nil
		}
	}
}

// Close releases the injection mechanism. It is safe to call twice.
func (i *Injector) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.mechanism == nil {
		return nil
	}
	err := i.mechanism.Close()
	i.mechanism = nil
	return err
}
