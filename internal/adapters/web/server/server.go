package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/pktsender/internal/adapters/reporting"
	"github.com/lcalzada-xor/pktsender/internal/adapters/web"
	"github.com/lcalzada-xor/pktsender/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// Server handles HTTP and WebSocket connections.
type Server struct {
	Addr      string
	Service   ports.FleetService
	WSManager *web.WSManager

	SenderHandler   *handlers.SenderHandler
	ActivityHandler *handlers.ActivityHandler

	// SendRateLimit caps send/start requests per client per minute.
	SendRateLimit int

	srv *http.Server
	log *slog.Logger
}

// NewServer creates a new web server. ws may be shared with the fleet as
// its event publisher.
func NewServer(addr string, service ports.FleetService, ws *web.WSManager) *Server {
	return &Server{
		Addr:            addr,
		Service:         service,
		WSManager:       ws,
		SenderHandler:   handlers.NewSenderHandler(service),
		ActivityHandler: handlers.NewActivityHandler(service, reporting.NewPDFExporter()),
		SendRateLimit:   60,
		log:             slog.Default().With("component", "web"),
	}
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(SetupRoutes(s), "pktsender-server")
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info("web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("web server shutdown error", "error", err)
		}
	}()

	s.log.Info("web server listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
