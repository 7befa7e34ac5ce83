package sender

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
	"github.com/lcalzada-xor/pktsender/internal/telemetry"
)

// DefaultGracePeriod is how long StopSending waits for a worker to honour
// the stop request before cancelling it.
const DefaultGracePeriod = 2 * time.Second

// PacketSender sends frames on a single interface, either synchronously or
// from one background worker.
type PacketSender struct {
	iface    string
	injector ports.FrameInjector
	log      *slog.Logger
	grace    time.Duration
	onChange func(domain.SenderStatus)

	// lifecycle serialises StartSending and StopSending.
	lifecycle sync.Mutex

	mu     sync.Mutex
	worker *worker
	last   *worker
}

// Option configures a PacketSender.
type Option func(*PacketSender)

func WithLogger(log *slog.Logger) Option {
	return func(s *PacketSender) { s.log = log }
}

// WithGracePeriod bounds each of the two waits performed by StopSending.
func WithGracePeriod(d time.Duration) Option {
	return func(s *PacketSender) { s.grace = d }
}

// WithStateHook registers fn to be called whenever a worker starts or exits.
// fn runs on the worker goroutine for exits and must not block.
func WithStateHook(fn func(domain.SenderStatus)) Option {
	return func(s *PacketSender) { s.onChange = fn }
}

// New binds a sender to iface, transmitting through injector.
func New(iface string, injector ports.FrameInjector, opts ...Option) *PacketSender {
	s := &PacketSender{
		iface:    iface,
		injector: injector,
		grace:    DefaultGracePeriod,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default().With("component", "packet_sender")
	}
	s.log = s.log.With("interface", iface)
	return s
}

func (s *PacketSender) Interface() string { return s.iface }

// SendNTimes transmits packet n times, sleeping interval between
// transmissions. It returns how many frames went out. A transport failure
// aborts the remaining iterations.
func (s *PacketSender) SendNTimes(ctx context.Context, packet *domain.Packet, n int, interval time.Duration) (int, error) {
	if packet == nil {
		return 0, domain.ErrNoPacket
	}
	frame := packet.Bytes()
	kind := string(packet.Kind())

	sent := 0
	for i := 0; i < n; i++ {
		if i > 0 {
			if err := sleep(ctx, interval); err != nil {
				return sent, err
			}
		} else if err := ctx.Err(); err != nil {
			return sent, err
		}

		if err := s.injector.Inject(frame); err != nil {
			telemetry.SendErrors.WithLabelValues(s.iface, kind).Inc()
			s.log.Error("Caught socket exception", "error", err, "sent", sent, "requested", n)
			return sent, &domain.TransportError{Interface: s.iface, Op: "send", Err: err}
		}
		sent++
		telemetry.FramesSent.WithLabelValues(s.iface, kind).Inc()
	}
	s.log.Debug("burst complete", "kind", kind, "sent", sent)
	return sent, nil
}

// SendReceiveNTimes transmits packet n times and after each transmission
// waits up to interval for one reply. Replies are counted, not returned.
// sent reports the transmissions that succeeded, also on error.
func (s *PacketSender) SendReceiveNTimes(ctx context.Context, packet *domain.Packet, n int, interval time.Duration) (sent, replies int, err error) {
	if packet == nil {
		return 0, 0, domain.ErrNoPacket
	}
	frame := packet.Bytes()
	kind := string(packet.Kind())

	for i := 0; i < n; i++ {
		if i > 0 {
			if err := sleep(ctx, interval); err != nil {
				return sent, replies, err
			}
		}

		reply, err := s.injector.InjectAndWait(ctx, frame, interval)
		if err != nil {
			if ctx.Err() != nil {
				return sent, replies, ctx.Err()
			}
			telemetry.SendErrors.WithLabelValues(s.iface, kind).Inc()
			s.log.Error("Caught socket exception", "error", err, "iteration", i, "requested", n)
			return sent, replies, &domain.TransportError{Interface: s.iface, Op: "send_receive", Err: err}
		}
		sent++
		telemetry.FramesSent.WithLabelValues(s.iface, kind).Inc()
		if reply != nil {
			replies++
			telemetry.RepliesReceived.WithLabelValues(s.iface, kind).Inc()
		}
	}
	s.log.Debug("send/receive complete", "kind", kind, "requested", n, "replies", replies)
	return sent, replies, nil
}

// StartSending launches the background worker.
func (s *PacketSender) StartSending(packet *domain.Packet, interval time.Duration) error {
	if packet == nil {
		return domain.ErrNoPacket
	}

	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	if s.activeLocked() != nil {
		s.mu.Unlock()
		return domain.ErrAlreadySending
	}
	w := newWorker(packet, interval)
	s.worker = w
	s.mu.Unlock()

	s.notify(w)
	go w.run(s.iface, s.injector, s.log, func() { s.notify(w) })
	return nil
}

// StopSending stops the background worker. With ignoreStatus set, stopping
// an idle sender is not an error.
func (s *PacketSender) StopSending(ignoreStatus bool) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	w := s.activeLocked()
	s.mu.Unlock()
	if w == nil {
		if ignoreStatus {
			return nil
		}
		return domain.ErrNotSending
	}

	close(w.stop)
	if !w.waitFor(s.grace) {
		s.log.Warn("worker ignored stop request, cancelling it", "run_id", w.runID, "grace", s.grace)
		telemetry.ForcedStops.WithLabelValues(s.iface).Inc()
		w.cancel()
		if !w.waitFor(s.grace) {
			s.log.Error("worker still running after cancellation, abandoning it", "run_id", w.runID)
			w.abandoned.Store(true)
			if s.onChange != nil {
				st := w.status(s.iface)
				st.State = domain.SenderIdle
				s.onChange(st)
			}
		}
	}
	w.cancel()

	s.mu.Lock()
	s.retireLocked(w)
	s.mu.Unlock()
	return nil
}

// State reports whether a worker is running.
func (s *PacketSender) State() domain.SenderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activeLocked() != nil {
		return domain.SenderSending
	}
	return domain.SenderIdle
}

// Status describes the running worker, or the last one to exit.
func (s *PacketSender) Status() domain.SenderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w := s.activeLocked(); w != nil {
		return w.status(s.iface)
	}
	if s.last != nil {
		st := s.last.status(s.iface)
		st.State = domain.SenderIdle
		return st
	}
	return domain.SenderStatus{Interface: s.iface, State: domain.SenderIdle}
}

// Close stops any worker and releases the injector.
func (s *PacketSender) Close() error {
	if err := s.StopSending(true); err != nil {
		return err
	}
	return s.injector.Close()
}

// activeLocked returns the running worker, retiring one that has exited.
func (s *PacketSender) activeLocked() *worker {
	if s.worker == nil {
		return nil
	}
	if s.worker.exited() {
		s.retireLocked(s.worker)
		return nil
	}
	return s.worker
}

func (s *PacketSender) retireLocked(w *worker) {
	if s.worker == w {
		s.worker = nil
	}
	s.last = w
}

func (s *PacketSender) notify(w *worker) {
	if s.onChange != nil {
		s.onChange(w.status(s.iface))
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
