package injection

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/pktsender/internal/core/services/packetgen"
)

var (
	localMAC  = net.HardwareAddr{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}
	remoteMAC = net.HardwareAddr{0x11, 0x22, 0x33, 0x44, 0x55, 0x66}
)

// fakeCapture replays canned frames, then reports EOF.
type fakeCapture struct {
	mu     sync.Mutex
	frames [][]byte
	filter string
	closed bool
	block  bool
}

func (f *fakeCapture) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		if f.block && !f.closed {
			f.mu.Unlock()
			time.Sleep(5 * time.Millisecond)
			f.mu.Lock()
			return nil, gopacket.CaptureInfo{}, syscall.EAGAIN
		}
		return nil, gopacket.CaptureInfo{}, io.EOF
	}
	data := f.frames[0]
	f.frames = f.frames[1:]
	return data, gopacket.CaptureInfo{CaptureLength: len(data), Length: len(data), Timestamp: time.Now()}, nil
}

func (f *fakeCapture) LinkType() layers.LinkType { return layers.LinkTypeEthernet }

func (f *fakeCapture) SetBPFFilter(expr string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter = expr
	return nil
}

func (f *fakeCapture) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

type recordingWriter struct {
	frames [][]byte
	err    error
	closed bool
}

func (w *recordingWriter) Inject(frame []byte) error {
	if w.err != nil {
		return w.err
	}
	w.frames = append(w.frames, frame)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func withCapture(t *testing.T, c captureHandle) {
	t.Helper()
	orig := openCapture
	openCapture = func(string) (captureHandle, error) { return c, nil }
	t.Cleanup(func() { openCapture = orig })
}

func serializeFrame(t *testing.T, ls ...gopacket.SerializableLayer) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}, ls...))
	return buf.Bytes()
}

func arpRequest(t *testing.T) []byte {
	g, err := packetgen.NewArpGenerator(packetgen.Params{
		"interf": "eth0", "src_mac": localMAC.String(), "src_ipv4": "10.0.0.1", "dst_ipv4": "10.0.0.2",
	}, nil)
	require.NoError(t, err)
	p, err := g.Generate(packetgen.ArpOptions{})
	require.NoError(t, err)
	return p.Bytes()
}

func arpReply(t *testing.T, from net.IP) []byte {
	return serializeFrame(t,
		&layers.Ethernet{SrcMAC: remoteMAC, DstMAC: localMAC, EthernetType: layers.EthernetTypeARP},
		&layers.ARP{
			AddrType: layers.LinkTypeEthernet, Protocol: layers.EthernetTypeIPv4,
			HwAddressSize: 6, ProtAddressSize: 4, Operation: layers.ARPReply,
			SourceHwAddress: remoteMAC, SourceProtAddress: from.To4(),
			DstHwAddress: localMAC, DstProtAddress: net.IPv4(10, 0, 0, 1).To4(),
		})
}

func TestInjector_InjectAndClose(t *testing.T) {
	w := &recordingWriter{}
	inj := newInjector("eth0", w, nil)

	require.NoError(t, inj.Inject([]byte{1, 2, 3}))
	assert.Len(t, w.frames, 1)
	assert.Equal(t, "eth0", inj.Interface())

	require.NoError(t, inj.Close())
	assert.True(t, w.closed)
	require.NoError(t, inj.Close())
	assert.ErrorIs(t, inj.Inject([]byte{1}), net.ErrClosed)
}

func TestInjector_InjectAndWait_MatchesReply(t *testing.T) {
	request := arpRequest(t)
	capture := &fakeCapture{frames: [][]byte{
		request,                            // our own frame looped back
		arpReply(t, net.IPv4(10, 0, 0, 9)), // answers someone else
		arpReply(t, net.IPv4(10, 0, 0, 2)), // the answer
	}}
	withCapture(t, capture)

	w := &recordingWriter{}
	inj := newInjector("eth0", w, nopLogger())

	reply, err := inj.InjectAndWait(context.Background(), request, time.Second)
	require.NoError(t, err)
	require.NotNil(t, reply)

	pkt := gopacket.NewPacket(reply, layers.LayerTypeEthernet, gopacket.Default)
	arp := pkt.Layer(layers.LayerTypeARP).(*layers.ARP)
	assert.Equal(t, []byte(net.IPv4(10, 0, 0, 2).To4()), arp.SourceProtAddress)
	assert.Equal(t, "ether dst aa:bb:cc:dd:ee:ff", capture.filter)
	assert.Len(t, w.frames, 1)
}

func TestInjector_InjectAndWait_NoReply(t *testing.T) {
	withCapture(t, &fakeCapture{})
	inj := newInjector("eth0", &recordingWriter{}, nopLogger())

	reply, err := inj.InjectAndWait(context.Background(), arpRequest(t), 100*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, reply)
}

func TestInjector_InjectAndWait_Timeout(t *testing.T) {
	withCapture(t, &fakeCapture{block: true})
	inj := newInjector("eth0", &recordingWriter{}, nopLogger())

	start := time.Now()
	reply, err := inj.InjectAndWait(context.Background(), arpRequest(t), 50*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, reply)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestInjector_InjectAndWait_WriteError(t *testing.T) {
	withCapture(t, &fakeCapture{})
	boom := errors.New("network down")
	inj := newInjector("eth0", &recordingWriter{err: boom}, nopLogger())

	_, err := inj.InjectAndWait(context.Background(), arpRequest(t), time.Second)
	assert.ErrorIs(t, err, boom)
}

func TestIsReply(t *testing.T) {
	decode := func(b []byte) gopacket.Packet {
		return gopacket.NewPacket(b, layers.LayerTypeEthernet, gopacket.Default)
	}

	echo4 := serializeFrame(t,
		&layers.Ethernet{SrcMAC: localMAC, DstMAC: remoteMAC, EthernetType: layers.EthernetTypeIPv4},
		&layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolICMPv4, SrcIP: net.IPv4(10, 0, 0, 1), DstIP: net.IPv4(10, 0, 0, 2)},
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0)})
	reply4 := serializeFrame(t,
		&layers.Ethernet{SrcMAC: remoteMAC, DstMAC: localMAC, EthernetType: layers.EthernetTypeIPv4},
		&layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolICMPv4, SrcIP: net.IPv4(10, 0, 0, 2), DstIP: net.IPv4(10, 0, 0, 1)},
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0)})
	strayReply := serializeFrame(t,
		&layers.Ethernet{SrcMAC: remoteMAC, DstMAC: localMAC, EthernetType: layers.EthernetTypeIPv4},
		&layers.IPv4{Version: 4, IHL: 5, TTL: 64, Protocol: layers.IPProtocolICMPv4, SrcIP: net.IPv4(10, 0, 0, 7), DstIP: net.IPv4(10, 0, 0, 1)},
		&layers.ICMPv4{TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0)})

	assert.True(t, isReply(decode(echo4), decode(reply4)))
	assert.False(t, isReply(decode(echo4), decode(strayReply)))
	assert.False(t, isReply(decode(echo4), decode(echo4)))
	assert.False(t, isReply(decode(echo4), decode(arpReply(t, net.IPv4(10, 0, 0, 2)))))
	assert.True(t, isReply(decode(arpRequest(t)), decode(arpReply(t, net.IPv4(10, 0, 0, 2)))))
}

func TestMockInjector(t *testing.T) {
	m := NewMockInjector("eth0")
	m.FailAfter = 2

	require.NoError(t, m.Inject([]byte{1}))
	require.NoError(t, m.Inject([]byte{2}))
	assert.ErrorIs(t, m.Inject([]byte{3}), ErrMockTransport)
	assert.Equal(t, 2, m.Count())

	m.SetFailAfter(0)
	m.QueueReply([]byte{9})
	reply, err := m.InjectAndWait(context.Background(), []byte{4}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{9}, reply)

	reply, err = m.InjectAndWait(context.Background(), []byte{5}, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, reply)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.InjectAndWait(ctx, []byte{6}, time.Second)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Len(t, m.GetPackets(), 5)
	m.ClearPackets()
	assert.Zero(t, m.Count())

	require.NoError(t, m.Close())
	assert.True(t, m.IsClosed())
	assert.Error(t, m.Inject([]byte{7}))
}

func TestMockRegistry(t *testing.T) {
	reg := NewMockRegistry()
	inj, err := reg.Factory("eth1")
	require.NoError(t, err)
	require.NoError(t, inj.Inject([]byte{1}))
	assert.Equal(t, 1, reg.Get("eth1").Count())
	assert.Nil(t, reg.Get("eth2"))

	mockFactory := NewFactory(true)
	inj, err = mockFactory("eth3")
	require.NoError(t, err)
	assert.IsType(t, &MockInjector{}, inj)
}
