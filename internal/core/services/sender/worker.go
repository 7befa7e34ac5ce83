package sender

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
	"github.com/lcalzada-xor/pktsender/internal/telemetry"
)

// worker keeps transmitting one frame until it is told to stop, its
// context is cancelled, or the injector fails.
type worker struct {
	runID     string
	kind      domain.PacketKind
	frame     []byte
	interval  time.Duration
	startedAt time.Time

	stop   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	sent atomic.Int64
	// abandoned is set when StopSending gives up waiting; the exit of an
	// abandoned worker is no longer reported.
	abandoned atomic.Bool
	// err is written before done is closed.
	err error
}

func newWorker(packet *domain.Packet, interval time.Duration) *worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &worker{
		runID:     uuid.NewString(),
		kind:      packet.Kind(),
		frame:     packet.Bytes(),
		interval:  interval,
		startedAt: time.Now().UTC(),
		stop:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

func (w *worker) run(iface string, inj ports.FrameInjector, log *slog.Logger, onExit func()) {
	log = log.With("run_id", w.runID, "kind", w.kind)
	gauge := telemetry.ActiveStreams.WithLabelValues(iface)
	gauge.Inc()

	defer func() {
		gauge.Dec()
		close(w.done)
		if onExit != nil && !w.abandoned.Load() {
			onExit()
		}
	}()

	log.Info("Packet Sending Started.")
	for {
		select {
		case <-w.stop:
			log.Info("Packet Sending Stopped.", "sent", w.sent.Load())
			return
		case <-w.ctx.Done():
			log.Warn("Packet Sending Cancelled.", "sent", w.sent.Load())
			return
		default:
		}

		if err := inj.Inject(w.frame); err != nil {
			w.err = &domain.TransportError{Interface: iface, Op: "send", Err: err}
			telemetry.SendErrors.WithLabelValues(iface, string(w.kind)).Inc()
			log.Error("Exception when trying to send packet", "error", err, "sent", w.sent.Load())
			return
		}
		w.sent.Add(1)
		telemetry.FramesSent.WithLabelValues(iface, string(w.kind)).Inc()

		if w.interval <= 0 {
			continue
		}
		timer := time.NewTimer(w.interval)
		select {
		case <-timer.C:
		case <-w.stop:
			timer.Stop()
		case <-w.ctx.Done():
			timer.Stop()
		}
	}
}

func (w *worker) exited() bool {
	select {
	case <-w.done:
		return true
	default:
		return false
	}
}

// waitFor blocks until the worker exits or d elapses.
func (w *worker) waitFor(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-w.done:
		return true
	case <-timer.C:
		return false
	}
}

func (w *worker) status(iface string) domain.SenderStatus {
	st := domain.SenderStatus{
		Interface:  iface,
		State:      domain.SenderIdle,
		RunID:      w.runID,
		PacketKind: w.kind,
		FramesSent: w.sent.Load(),
		StartedAt:  w.startedAt,
	}
	if !w.exited() {
		st.State = domain.SenderSending
	} else if w.err != nil {
		st.LastError = w.err.Error()
	}
	return st
}
