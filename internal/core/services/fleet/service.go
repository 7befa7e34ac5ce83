package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
	"github.com/lcalzada-xor/pktsender/internal/core/services/packetgen"
	"github.com/lcalzada-xor/pktsender/internal/core/services/sender"
)

const (
	EventStateChanged = "sender_state"

	// DefaultActivityLimit caps Activity when the caller passes no limit.
	DefaultActivityLimit = 100
	journalTimeout       = 2 * time.Second
)

// Service routes operations to named senders, journals them and
// publishes state changes.
type Service struct {
	senders  []*sender.PacketSender
	byIface  map[string]*sender.PacketSender
	resolver ports.InterfaceResolver

	journal    ports.ActivityRepository
	publisher  ports.EventPublisher
	log        *slog.Logger
	senderOpts []sender.Option
	tracer     trace.Tracer
}

var _ ports.FleetService = (*Service)(nil)

type Option func(*Service)

func WithJournal(repo ports.ActivityRepository) Option {
	return func(s *Service) { s.journal = repo }
}

func WithPublisher(p ports.EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithSenderOptions is passed through to every sender the fleet creates.
func WithSenderOptions(opts ...sender.Option) Option {
	return func(s *Service) { s.senderOpts = append(s.senderOpts, opts...) }
}

// New creates one sender per config. resolver serves "get_local" lookups
// when packets are built from specs.
func New(configs []domain.SenderConfig, factory ports.InjectorFactory, resolver ports.InterfaceResolver, opts ...Option) (*Service, error) {
	s := &Service{
		byIface:  make(map[string]*sender.PacketSender),
		resolver: resolver,
		tracer:   otel.Tracer("fleet-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = slog.Default().With("component", "fleet")
	}

	senderOpts := append([]sender.Option{
		sender.WithLogger(s.log),
		sender.WithStateHook(s.onStateChange),
	}, s.senderOpts...)

	senders, err := sender.Create(configs, factory, senderOpts...)
	if err != nil {
		return nil, err
	}
	for _, ps := range senders {
		if _, dup := s.byIface[ps.Interface()]; dup {
			sender.Destroy(senders)
			return nil, fmt.Errorf("%w: interface %s configured twice", domain.ErrConfiguration, ps.Interface())
		}
		s.byIface[ps.Interface()] = ps
	}
	s.senders = senders
	s.log.Info("packet senders ready", "interfaces", sender.GetInfo(senders))
	return s, nil
}

// Interfaces returns the bound interface names in configuration order.
func (s *Service) Interfaces() []string { return sender.GetInfo(s.senders) }

// Senders returns a status snapshot of every sender.
func (s *Service) Senders(ctx context.Context) []domain.SenderStatus {
	out := make([]domain.SenderStatus, len(s.senders))
	for i, ps := range s.senders {
		out[i] = ps.Status()
	}
	return out
}

// Send builds the requested packet and transmits it Count times, optionally
// waiting for replies.
func (s *Service) Send(ctx context.Context, iface string, req domain.SendRequest) (domain.SendResult, error) {
	ctx, span := s.tracer.Start(ctx, "Send")
	defer span.End()
	span.SetAttributes(
		attribute.String("sender.interface", iface),
		attribute.String("packet.kind", string(req.Packet.Kind)),
		attribute.Int("send.count", req.Count),
		attribute.Bool("send.await_reply", req.AwaitReply),
	)

	result := domain.SendResult{RunID: uuid.NewString(), Interface: iface, Requested: req.Count}

	ps, err := s.lookup(iface)
	if err != nil {
		return result, spanError(span, err)
	}
	if req.Count < 0 {
		return result, spanError(span, &domain.InvalidFieldError{Field: "count", Value: fmt.Sprint(req.Count)})
	}
	packet, err := s.build(iface, req.Packet)
	if err != nil {
		return result, spanError(span, err)
	}
	result.PacketKind = packet.Kind()

	action := domain.ActionSendBurst
	if req.AwaitReply {
		action = domain.ActionSendReceive
		result.Sent, result.Replies, err = ps.SendReceiveNTimes(ctx, packet, req.Count, req.Interval())
	} else {
		result.Sent, err = ps.SendNTimes(ctx, packet, req.Count, req.Interval())
	}
	span.SetAttributes(attribute.Int("send.sent", result.Sent), attribute.Int("send.replies", result.Replies))

	s.record(ctx, result.RunID, iface, action, packet.Kind(), func(rec *domain.ActivityRecord) {
		rec.Requested = req.Count
		rec.Sent = result.Sent
		rec.Replies = result.Replies
		rec.Fail(err)
	})
	if err != nil {
		return result, spanError(span, err)
	}
	return result, nil
}

// Start launches the background worker of iface.
func (s *Service) Start(ctx context.Context, iface string, req domain.StartRequest) (domain.SenderStatus, error) {
	ctx, span := s.tracer.Start(ctx, "Start")
	defer span.End()
	span.SetAttributes(
		attribute.String("sender.interface", iface),
		attribute.String("packet.kind", string(req.Packet.Kind)),
		attribute.Int("send.interval_ms", req.IntervalMS),
	)

	ps, err := s.lookup(iface)
	if err != nil {
		return domain.SenderStatus{}, spanError(span, err)
	}
	packet, err := s.build(iface, req.Packet)
	if err != nil {
		return ps.Status(), spanError(span, err)
	}
	if err := ps.StartSending(packet, req.Interval()); err != nil {
		return ps.Status(), spanError(span, err)
	}

	st := ps.Status()
	span.SetAttributes(attribute.String("sender.run_id", st.RunID))
	s.record(ctx, st.RunID, iface, domain.ActionStreamStart, packet.Kind(), nil)
	return st, nil
}

// Stop stops the background worker of iface.
func (s *Service) Stop(ctx context.Context, iface string, ignoreStatus bool) (domain.SenderStatus, error) {
	ctx, span := s.tracer.Start(ctx, "Stop")
	defer span.End()
	span.SetAttributes(attribute.String("sender.interface", iface), attribute.Bool("stop.ignore_status", ignoreStatus))

	ps, err := s.lookup(iface)
	if err != nil {
		return domain.SenderStatus{}, spanError(span, err)
	}
	wasSending := ps.State() == domain.SenderSending
	if err := ps.StopSending(ignoreStatus); err != nil {
		return ps.Status(), spanError(span, err)
	}

	st := ps.Status()
	if wasSending {
		s.record(ctx, st.RunID, iface, domain.ActionStreamStop, st.PacketKind, func(rec *domain.ActivityRecord) {
			rec.Sent = int(st.FramesSent)
		})
	}
	return st, nil
}

// Activity lists journal entries, newest first.
func (s *Service) Activity(ctx context.Context, iface string, limit int) ([]domain.ActivityRecord, error) {
	if s.journal == nil {
		return []domain.ActivityRecord{}, nil
	}
	if limit <= 0 {
		limit = DefaultActivityLimit
	}
	return s.journal.ListActivity(ctx, iface, limit)
}

// Close stops and releases every sender.
func (s *Service) Close() error {
	return sender.Destroy(s.senders)
}

func (s *Service) lookup(iface string) (*sender.PacketSender, error) {
	ps, ok := s.byIface[iface]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSenderNotFound, iface)
	}
	return ps, nil
}

// build fills in the sender's interface when the spec leaves it out.
func (s *Service) build(iface string, spec domain.PacketSpec) (*domain.Packet, error) {
	params := make(map[string]string, len(spec.Params)+1)
	for k, v := range spec.Params {
		params[k] = v
	}
	if _, ok := params[packetgen.KeyInterface]; !ok {
		params[packetgen.KeyInterface] = iface
	}
	spec.Params = params
	return packetgen.Build(spec, s.resolver)
}

func (s *Service) record(ctx context.Context, runID, iface string, action domain.ActivityAction, kind domain.PacketKind, fill func(*domain.ActivityRecord)) {
	if s.journal == nil {
		return
	}
	rec, err := domain.NewActivityRecord(runID, iface, action, kind)
	if err != nil {
		s.log.Warn("activity record rejected", "error", err)
		return
	}
	if fill != nil {
		fill(rec)
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), journalTimeout)
	defer cancel()
	if err := s.journal.SaveActivity(ctx, *rec); err != nil {
		s.log.Warn("failed to journal activity", "action", action, "interface", iface, "error", err)
	}
}

// onStateChange runs for every worker start and exit.
func (s *Service) onStateChange(st domain.SenderStatus) {
	if s.publisher != nil {
		s.publisher.Publish(ports.SenderEvent{Type: EventStateChanged, Status: st})
	}
	if st.State == domain.SenderIdle && st.LastError != "" {
		s.record(context.Background(), st.RunID, st.Interface, domain.ActionStreamStop, st.PacketKind, func(rec *domain.ActivityRecord) {
			rec.Sent = int(st.FramesSent)
			rec.Error = st.LastError
		})
	}
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
