// Package api exposes the HTTP surface: dataset regeneration and dashboard
// reads.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"success-hq/backend/internal/dashboard"
	"success-hq/backend/internal/demodata"
)

// Runner runs the dataset generation pipeline.
type Runner interface {
	Run(ctx context.Context, opts demodata.RunOptions) demodata.Result
}

// Dashboard answers dashboard queries.
type Dashboard interface {
	Overview(ctx context.Context, customer string) (dashboard.Overview, error)
	Card(ctx context.Context, card, customer string) (any, error)
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	runner Runner
	dash   Dashboard
	mux    *http.ServeMux
}

// New creates an HTTP handler and registers all routes.
func New(runner Runner, dash Dashboard) http.Handler {
	h := &Handler{runner: runner, dash: dash, mux: http.NewServeMux()}

	h.mux.HandleFunc("POST /v1/demo-data", h.createDemoData)
	h.mux.HandleFunc("GET /v1/dashboard/overview", h.overview)
	h.mux.HandleFunc("GET /v1/dashboard/cards/{card}", h.card)
	h.mux.HandleFunc("GET /healthz", h.healthz)

	return loggingMiddleware(h.mux)
}

// demoDataRequest is the optional POST /v1/demo-data body.
type demoDataRequest struct {
	UserLimit int    `json:"user_limit"`
	Seed      uint64 `json:"seed"`
}

// POST /v1/demo-data — regenerate the full demo dataset. Synchronous; the
// response reports per-collection counts or the stage that failed.
func (h *Handler) createDemoData(w http.ResponseWriter, r *http.Request) {
	var req demoDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if req.UserLimit < 0 {
		writeError(w, http.StatusBadRequest, "user_limit must be >= 0")
		return
	}

	res := h.runner.Run(r.Context(), demodata.RunOptions{UserLimit: req.UserLimit, Seed: req.Seed})
	switch {
	case res.Success:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(res.Err, demodata.ErrNoSeedUsers):
		writeJSON(w, http.StatusUnprocessableEntity, res)
	default:
		writeJSON(w, http.StatusBadGateway, res)
	}
}

// GET /v1/dashboard/overview?customer=Name
func (h *Handler) overview(w http.ResponseWriter, r *http.Request) {
	customer := r.URL.Query().Get("customer")
	if customer == "" {
		writeError(w, http.StatusBadRequest, "customer is required")
		return
	}
	ov, err := h.dash.Overview(r.Context(), customer)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

// GET /v1/dashboard/cards/{card}?customer=Name
func (h *Handler) card(w http.ResponseWriter, r *http.Request) {
	customer := r.URL.Query().Get("customer")
	if customer == "" {
		writeError(w, http.StatusBadRequest, "customer is required")
		return
	}
	data, err := h.dash.Card(r.Context(), r.PathValue("card"), customer)
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownCard) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, data)
}

// GET /healthz — always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// loggingMiddleware logs method, path, status, and duration per request.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("http: %s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
