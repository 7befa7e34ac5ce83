package injection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// ErrMockTransport is the failure MockInjector reports once FailAfter
// frames have been written.
var ErrMockTransport = errors.New("mock transport failure")

// MockInjector implements ports.FrameInjector for testing purposes and for
// running without capture privileges. It records frames in memory.
type MockInjector struct {
	mu         sync.Mutex
	iface      string
	ReqPackets [][]byte
	Replies    [][]byte
	// FailAfter > 0 makes every Inject after that many frames fail.
	FailAfter int
	// Delay blocks each Inject, simulating a slow link.
	Delay  time.Duration
	Closed bool
}

var _ ports.FrameInjector = (*MockInjector)(nil)

// NewMockInjector creates a new instance of MockInjector.
func NewMockInjector(iface string) *MockInjector {
	return &MockInjector{
		iface:      iface,
		ReqPackets: make([][]byte, 0),
	}
}

func (m *MockInjector) Interface() string { return m.iface }

// Inject stores a copy of the frame.
func (m *MockInjector) Inject(frame []byte) error {
	m.mu.Lock()
	delay := m.Delay
	m.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Closed {
		return ErrMockTransport
	}
	if m.FailAfter > 0 && len(m.ReqPackets) >= m.FailAfter {
		return ErrMockTransport
	}

	p := make([]byte, len(frame))
	copy(p, frame)
	m.ReqPackets = append(m.ReqPackets, p)
	return nil
}

// InjectAndWait stores the frame and pops the next queued reply. With no
// queued reply it waits out the timeout like a silent network.
func (m *MockInjector) InjectAndWait(ctx context.Context, frame []byte, timeout time.Duration) ([]byte, error) {
	if err := m.Inject(frame); err != nil {
		return nil, err
	}

	m.mu.Lock()
	if len(m.Replies) > 0 {
		reply := m.Replies[0]
		m.Replies = m.Replies[1:]
		m.mu.Unlock()
		return reply, nil
	}
	m.mu.Unlock()

	select {
	case <-time.After(timeout):
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// QueueReply makes the next InjectAndWait return reply.
func (m *MockInjector) QueueReply(reply []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies = append(m.Replies, reply)
}

// SetFailAfter changes FailAfter while the injector is in use.
func (m *MockInjector) SetFailAfter(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailAfter = n
}

// SetDelay changes Delay while the injector is in use.
func (m *MockInjector) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Delay = d
}

// Close marks the injector as closed.
func (m *MockInjector) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

func (m *MockInjector) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Closed
}

// GetPackets returns a copy of the captured frames.
func (m *MockInjector) GetPackets() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	packets := make([][]byte, len(m.ReqPackets))
	for i, p := range m.ReqPackets {
		packets[i] = make([]byte, len(p))
		copy(packets[i], p)
	}
	return packets
}

func (m *MockInjector) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ReqPackets)
}

// ClearPackets clears the captured frames buffer.
func (m *MockInjector) ClearPackets() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ReqPackets = make([][]byte, 0)
}
