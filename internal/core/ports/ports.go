package ports

import (
	"context"
	"net"
	"time"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
)

// FrameInjector transmits raw link-layer frames on one interface.
type FrameInjector interface {
	// Inject writes a single frame.
	Inject(frame []byte) error
	// InjectAndWait writes frame and returns the first reply seen within
	// timeout. A nil reply with a nil error means nothing answered.
	InjectAndWait(ctx context.Context, frame []byte, timeout time.Duration) ([]byte, error)
	// Close releases the underlying handle.
	Close() error
}

// InjectorFactory opens a FrameInjector bound to iface.
type InjectorFactory func(iface string) (FrameInjector, error)

// InterfaceResolver answers questions about local interfaces.
type InterfaceResolver interface {
	HardwareAddr(iface string) (net.HardwareAddr, error)
	IPv4Addr(iface string) (net.IP, error)
	// IPv6Addrs enumerates every IPv6 address on the host.
	IPv6Addrs() ([]domain.IPv6Addr, error)
}

// ActivityRepository handles the persistence of sender activity.
type ActivityRepository interface {
	SaveActivity(ctx context.Context, rec domain.ActivityRecord) error
	// ListActivity returns the newest records first. An empty iface lists all.
	ListActivity(ctx context.Context, iface string, limit int) ([]domain.ActivityRecord, error)
	Close() error
}

// FleetService drives the configured senders by interface name.
type FleetService interface {
	Senders(ctx context.Context) []domain.SenderStatus
	Send(ctx context.Context, iface string, req domain.SendRequest) (domain.SendResult, error)
	Start(ctx context.Context, iface string, req domain.StartRequest) (domain.SenderStatus, error)
	Stop(ctx context.Context, iface string, ignoreStatus bool) (domain.SenderStatus, error)
	Activity(ctx context.Context, iface string, limit int) ([]domain.ActivityRecord, error)
}

// SenderEvent is published whenever a sender changes state.
type SenderEvent struct {
	Type   string              `json:"type"`
	Status domain.SenderStatus `json:"status"`
}

// EventPublisher fans sender events out to listeners.
type EventPublisher interface {
	Publish(event SenderEvent)
}

// ReportRenderer renders an activity report as a printable document.
type ReportRenderer interface {
	ExportActivityReport(report *domain.ActivityReport) ([]byte, error)
}
