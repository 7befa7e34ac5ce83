package handlers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/pktsender/internal/core/domain"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
)

// SenderHandler exposes the packet senders.
type SenderHandler struct {
	Service ports.FleetService
}

func NewSenderHandler(service ports.FleetService) *SenderHandler {
	return &SenderHandler{Service: service}
}

// HandleList returns the status of every sender
func (h *SenderHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Service.Senders(r.Context()))
}

// HandleSend transmits a burst and waits for it to finish
func (h *SenderHandler) HandleSend(w http.ResponseWriter, r *http.Request) {
	iface, ok := ifaceVar(w, r)
	if !ok {
		return
	}
	var req domain.SendRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Count <= 0 {
		writeError(w, &domain.InvalidFieldError{Field: "count", Value: fmt.Sprint(req.Count)})
		return
	}
	if req.IntervalMS < 0 {
		writeError(w, &domain.InvalidFieldError{Field: "interval_ms", Value: fmt.Sprint(req.IntervalMS)})
		return
	}

	res, err := h.Service.Send(r.Context(), iface, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleStart launches continuous sending
func (h *SenderHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	iface, ok := ifaceVar(w, r)
	if !ok {
		return
	}
	var req domain.StartRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.IntervalMS < 0 {
		writeError(w, &domain.InvalidFieldError{Field: "interval_ms", Value: fmt.Sprint(req.IntervalMS)})
		return
	}

	st, err := h.Service.Start(r.Context(), iface, req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, st)
}

// HandleStop stops continuous sending. ?ignore_status=true tolerates an
// idle sender.
func (h *SenderHandler) HandleStop(w http.ResponseWriter, r *http.Request) {
	iface, ok := ifaceVar(w, r)
	if !ok {
		return
	}
	ignore := r.URL.Query().Get("ignore_status") == "true"

	st, err := h.Service.Stop(r.Context(), iface, ignore)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func ifaceVar(w http.ResponseWriter, r *http.Request) (string, bool) {
	iface := mux.Vars(r)["iface"]
	if !domain.IsValidInterface(iface) {
		writeError(w, fmt.Errorf("%w: %q", domain.ErrInvalidInterface, iface))
		return "", false
	}
	return iface, true
}
