package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"supportflow/internal/logging"
	"supportflow/internal/services"
	"supportflow/internal/workflow"
)

const (
	maxRequestBytes = 1 << 20
	requestIDHeader = "X-Request-ID"
)

type handler struct {
	svc    *Service
	logger *slog.Logger
}

// NewHandler returns the HTTP routes for svc. metrics, when non-nil, is
// mounted at /metrics.
func NewHandler(svc *Service, metrics http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	h := &handler{svc: svc, logger: logging.NewComponentLogger(logger, "api")}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/support", h.handleSupport)
	mux.HandleFunc("GET /api/workflows/{id}", h.handleWorkflow)
	mux.HandleFunc("GET /api/demo", h.handleDemo)
	mux.HandleFunc("GET /api/stages", h.handleStages)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}
	return withRequestID(mux)
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (h *handler) handleSupport(w http.ResponseWriter, r *http.Request) {
	var req SupportRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxRequestBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	result, err := h.svc.Submit(r.Context(), req)
	h.writeResult(w, r, result, err)
}

func (h *handler) handleDemo(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Demo(r.Context())
	h.writeResult(w, r, result, err)
}

func (h *handler) writeResult(w http.ResponseWriter, r *http.Request, result workflow.Result, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		h.writeError(w, r, http.StatusBadRequest, err.Error())
	case err != nil:
		h.log(r).Error("support request failed", logging.Error(err), logging.String(logging.FieldEventType, "api_request_failed"))
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
	case !result.Success:
		h.writeJSON(w, r, http.StatusInternalServerError, result)
	default:
		h.writeJSON(w, r, http.StatusOK, result)
	}
}

func (h *handler) handleWorkflow(w http.ResponseWriter, r *http.Request) {
	resp, err := h.svc.Workflow(r.Context(), r.PathValue("id"))
	switch {
	case errors.Is(err, services.ErrNotFound):
		h.writeError(w, r, http.StatusNotFound, "workflow not found")
	case err != nil:
		h.writeError(w, r, http.StatusInternalServerError, err.Error())
	default:
		h.writeJSON(w, r, http.StatusOK, resp)
	}
}

func (h *handler) handleStages(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, h.svc.Stages())
}

func (h *handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log(r).Error("failed to encode response", logging.Error(err))
	}
}

func (h *handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, ErrorResponse{Error: message})
}

func (h *handler) log(r *http.Request) *slog.Logger {
	return logging.WithContext(r.Context(), h.logger)
}
