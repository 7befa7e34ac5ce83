package fleet

import (
	"context"
	"io"
	"log/slog"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/lcalzada-xor/pktsender/internal/adapters/injection"
	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
	"github.com/lcalzada-xor/pktsender/internal/core/services/sender"
)

type memJournal struct {
	mu   sync.Mutex
	recs []domain.ActivityRecord
}

func (j *memJournal) SaveActivity(_ context.Context, rec domain.ActivityRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	rec.ID = uint(len(j.recs) + 1)
	j.recs = append(j.recs, rec)
	return nil
}

func (j *memJournal) ListActivity(_ context.Context, iface string, limit int) ([]domain.ActivityRecord, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []domain.ActivityRecord
	for i := len(j.recs) - 1; i >= 0 && len(out) < limit; i-- {
		if iface == "" || j.recs[i].Interface == iface {
			out = append(out, j.recs[i])
		}
	}
	return out, nil
}

func (j *memJournal) Close() error { return nil }

func (j *memJournal) actions() []domain.ActivityAction {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.ActivityAction, len(j.recs))
	for i, r := range j.recs {
		out[i] = r.Action
	}
	return out
}

type eventSink struct {
	mu     sync.Mutex
	events []ports.SenderEvent
}

func (e *eventSink) Publish(ev ports.SenderEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *eventSink) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.events)
}

type staticResolver struct{}

func (staticResolver) HardwareAddr(string) (net.HardwareAddr, error) {
	return net.HardwareAddr{0x02, 0, 0, 0, 0, 0x01}, nil
}
func (staticResolver) IPv4Addr(string) (net.IP, error)       { return net.IPv4(10, 0, 0, 1), nil }
func (staticResolver) IPv6Addrs() ([]domain.IPv6Addr, error) { return nil, nil }

var arpSpec = domain.PacketSpec{
	Kind: domain.KindARP,
	Params: map[string]string{
		"src_mac":  "get_local",
		"src_ipv4": "get_local",
		"dst_ipv4": "10.0.0.2",
	},
}

type fixture struct {
	svc     *Service
	reg     *injection.MockRegistry
	journal *memJournal
	events  *eventSink
}

func newFixture(t *testing.T, ifaces ...string) *fixture {
	t.Helper()
	f := &fixture{reg: injection.NewMockRegistry(), journal: &memJournal{}, events: &eventSink{}}
	configs := make([]domain.SenderConfig, len(ifaces))
	for i, name := range ifaces {
		configs[i] = domain.SenderConfig{Interface: name}
	}
	svc, err := New(configs, f.reg.Factory, staticResolver{},
		WithJournal(f.journal),
		WithPublisher(f.events),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithSenderOptions(sender.WithGracePeriod(200*time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })
	f.svc = svc
	return f
}

func TestNew_DuplicateInterface(t *testing.T) {
	reg := injection.NewMockRegistry()
	_, err := New([]domain.SenderConfig{{Interface: "eth0"}, {Interface: "eth0"}}, reg.Factory, nil)
	assert.ErrorIs(t, err, domain.ErrConfiguration)
	assert.True(t, reg.Get("eth0").IsClosed())
}

func TestService_Send(t *testing.T) {
	f := newFixture(t, "eth0", "wlan0")
	assert.Equal(t, []string{"eth0", "wlan0"}, f.svc.Interfaces())

	res, err := f.svc.Send(context.Background(), "wlan0", domain.SendRequest{Packet: arpSpec, Count: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, domain.KindARP, res.PacketKind)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, f.reg.Get("wlan0").Count())
	assert.Zero(t, f.reg.Get("eth0").Count())

	recs, err := f.svc.Activity(context.Background(), "wlan0", 0)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ActionSendBurst, recs[0].Action)
	assert.Equal(t, res.RunID, recs[0].RunID)
	assert.Equal(t, 3, recs[0].Sent)
}

func TestService_SendAwaitReply(t *testing.T) {
	f := newFixture(t, "eth0")
	f.reg.Get("eth0").QueueReply([]byte{1})

	res, err := f.svc.Send(context.Background(), "eth0", domain.SendRequest{Packet: arpSpec, Count: 2, IntervalMS: 5, AwaitReply: true})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Replies)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, []domain.ActivityAction{domain.ActionSendReceive}, f.journal.actions())
}

func TestService_SendAwaitReplyPartialFailure(t *testing.T) {
	f := newFixture(t, "eth0")
	inj := f.reg.Get("eth0")
	inj.QueueReply([]byte{1})
	inj.SetFailAfter(2)

	res, err := f.svc.Send(context.Background(), "eth0", domain.SendRequest{Packet: arpSpec, Count: 4, IntervalMS: 5, AwaitReply: true})
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 1, res.Replies)

	recs, err := f.svc.Activity(context.Background(), "eth0", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, domain.ActionSendReceive, recs[0].Action)
	assert.Equal(t, 2, recs[0].Sent)
	assert.Equal(t, 1, recs[0].Replies)
	assert.NotEmpty(t, recs[0].Error)
}

func TestService_SendErrors(t *testing.T) {
	f := newFixture(t, "eth0")
	ctx := context.Background()

	_, err := f.svc.Send(ctx, "eth9", domain.SendRequest{Packet: arpSpec, Count: 1})
	assert.ErrorIs(t, err, domain.ErrSenderNotFound)

	_, err = f.svc.Send(ctx, "eth0", domain.SendRequest{Packet: domain.PacketSpec{Kind: "bogus"}, Count: 1})
	assert.ErrorIs(t, err, domain.ErrUnknownGenerator)

	_, err = f.svc.Send(ctx, "eth0", domain.SendRequest{Packet: arpSpec, Count: -1})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	f.reg.Get("eth0").SetFailAfter(1)
	res, err := f.svc.Send(ctx, "eth0", domain.SendRequest{Packet: arpSpec, Count: 3})
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, 1, res.Sent)

	recs, _ := f.svc.Activity(ctx, "eth0", 10)
	require.Len(t, recs, 1)
	assert.Contains(t, recs[0].Error, "mock transport failure")
}

func TestService_StartStop(t *testing.T) {
	f := newFixture(t, "eth0")
	ctx := context.Background()

	st, err := f.svc.Start(ctx, "eth0", domain.StartRequest{Packet: arpSpec, IntervalMS: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.SenderSending, st.State)
	assert.NotEmpty(t, st.RunID)

	_, err = f.svc.Start(ctx, "eth0", domain.StartRequest{Packet: arpSpec, IntervalMS: 1})
	assert.ErrorIs(t, err, domain.ErrAlreadySending)

	assert.Eventually(t, func() bool { return f.reg.Get("eth0").Count() > 0 }, time.Second, 5*time.Millisecond)

	st, err = f.svc.Stop(ctx, "eth0", false)
	require.NoError(t, err)
	assert.Equal(t, domain.SenderIdle, st.State)
	assert.Positive(t, st.FramesSent)

	_, err = f.svc.Stop(ctx, "eth0", false)
	assert.ErrorIs(t, err, domain.ErrNotSending)
	_, err = f.svc.Stop(ctx, "eth0", true)
	assert.NoError(t, err)

	assert.Equal(t, []domain.ActivityAction{domain.ActionStreamStart, domain.ActionStreamStop}, f.journal.actions())
	assert.Eventually(t, func() bool { return f.events.count() == 2 }, time.Second, 5*time.Millisecond)

	statuses := f.svc.Senders(ctx)
	require.Len(t, statuses, 1)
	assert.Equal(t, domain.SenderIdle, statuses[0].State)
}

func TestService_WorkerFailureIsJournaled(t *testing.T) {
	f := newFixture(t, "eth0")
	f.reg.Get("eth0").SetFailAfter(2)

	_, err := f.svc.Start(context.Background(), "eth0", domain.StartRequest{Packet: arpSpec})
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(f.journal.actions()) == 2
	}, time.Second, 5*time.Millisecond)

	recs, err := f.svc.Activity(context.Background(), "", 1)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionStreamStop, recs[0].Action)
	assert.Equal(t, 2, recs[0].Sent)
	assert.NotEmpty(t, recs[0].Error)
}

func TestService_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	f := newFixture(t, "eth0")
	_, err := f.svc.Send(context.Background(), "nope", domain.SendRequest{Packet: arpSpec, Count: 1})
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "Send", spans[0].Name())
	assert.NotEmpty(t, spans[0].Events(), "error should be recorded on the span")
}
