package sender

import (
	"errors"
	"fmt"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// Create builds one sender per record. If any injector fails to open, the
// senders created so far are closed and the error is returned.
func Create(configs []domain.SenderConfig, factory ports.InjectorFactory, opts ...Option) ([]*PacketSender, error) {
	senders := make([]*PacketSender, 0, len(configs))
	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			Destroy(senders)
			return nil, err
		}
		inj, err := factory(cfg.Interface)
		if err != nil {
			Destroy(senders)
			return nil, &domain.TransportError{Interface: cfg.Interface, Op: "open", Err: err}
		}
		senders = append(senders, New(cfg.Interface, inj, opts...))
	}
	return senders, nil
}

// Destroy stops every sender that is still sending and releases it.
func Destroy(senders []*PacketSender) error {
	var errs []error
	for _, s := range senders {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.Interface(), err))
		}
	}
	return errors.Join(errs...)
}

// GetInfo returns the interface each sender is bound to.
func GetInfo(senders []*PacketSender) []string {
	info := make([]string, len(senders))
	for i, s := range senders {
		info[i] = s.Interface()
	}
	return info
}
