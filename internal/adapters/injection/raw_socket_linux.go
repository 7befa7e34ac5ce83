//go:build linux

package injection

import (
	"fmt"
	"net"
	"syscall"
)

type RawWriter struct {
	fd      int
	ifIndex int
}

// NewRawWriter opens an AF_PACKET socket bound to iface. Protocol 0 makes
// the socket transmit-only: the kernel queues nothing for reading.
func NewRawWriter(iface string) (FrameWriter, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("interface %s not found: %w", iface, err)
	}

	fd, err := syscall.Socket(syscall.AF_PACKET, syscall.SOCK_RAW, 0)
	if err != nil {
		return nil, fmt.Errorf("socket creation failed: %w", err)
	}

	ll := syscall.SockaddrLinklayer{Ifindex: ifi.Index}
	if err := syscall.Bind(fd, &ll); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("bind failed: %w", err)
	}

	return &RawWriter{fd: fd, ifIndex: ifi.Index}, nil
}

func (r *RawWriter) Inject(frame []byte) error {
	ll := syscall.SockaddrLinklayer{Ifindex: r.ifIndex}
	return syscall.Sendto(r.fd, frame, 0, &ll)
}

func (r *RawWriter) Close() error {
	return syscall.Close(r.fd)
}
