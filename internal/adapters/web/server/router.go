package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/pktsender/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()

	sendLimiter := middleware.NewRateLimiter(s.SendRateLimit, time.Minute)
	limited := func(h http.HandlerFunc) http.Handler {
		return middleware.RateLimitMiddleware(sendLimiter)(h)
	}

	// Registered on the root router so a method mismatch answers 405.
	r.HandleFunc("/api/senders", s.SenderHandler.HandleList).Methods(http.MethodGet)
	r.Handle("/api/senders/{iface}/send", limited(s.SenderHandler.HandleSend)).Methods(http.MethodPost)
	r.Handle("/api/senders/{iface}/start", limited(s.SenderHandler.HandleStart)).Methods(http.MethodPost)
	r.HandleFunc("/api/senders/{iface}/stop", s.SenderHandler.HandleStop).Methods(http.MethodPost)
	r.HandleFunc("/api/activity", s.ActivityHandler.HandleList).Methods(http.MethodGet)
	r.HandleFunc("/api/activity/export", s.ActivityHandler.HandleExport).Methods(http.MethodGet)

	if s.WSManager != nil {
		r.HandleFunc("/ws", s.WSManager.HandleWebSocket)
	}
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	}).Methods(http.MethodGet)

	return r
}
