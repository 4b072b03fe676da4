// Package httpapi exposes the tracker as a JSON API. Handlers are a thin
// layer over the mutation coordinator so every request exercises the same
// cache and invalidation rules the UI relies on.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
	"github.com/caffeinepub/travel-expense-tracker/internal/tripsync"
)

type Server struct {
	http.Server
	coordinator *tripsync.Coordinator
}

func NewServer(addr string, coordinator *tripsync.Coordinator) *Server {
	s := &Server{coordinator: coordinator}
	s.Addr = addr
	s.Handler = s.routes()
	s.ReadTimeout = 10 * time.Second
	s.WriteTimeout = 30 * time.Second
	s.IdleTimeout = 60 * time.Second
	s.MaxHeaderBytes = 1 << 16
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/trips", func(r chi.Router) {
			r.Get("/", s.handleListTrips)
			r.Post("/", s.handleCreateTrip)
			r.Route("/{tripID}", func(r chi.Router) {
				r.Get("/", s.handleGetTrip)
				r.Put("/", s.handleUpdateTrip)
				r.Delete("/", s.handleDeleteTrip)
				r.Get("/expenses", s.handleListExpenses)
				r.Post("/expenses", s.handleAddExpense)
				r.Get("/export.csv", s.handleExportCSV)
			})
		})
		r.Route("/expenses/{expenseID}", func(r chi.Router) {
			r.Put("/", s.handleUpdateExpense)
			r.Delete("/", s.handleDeleteExpense)
		})
		r.Post("/bill-images", s.handleUploadBillImage)
		r.Get("/bill-images/{imageKey}", s.handleGetBillImage)
	})

	return r
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		if err := json.NewEncoder(w).Encode(body); err != nil {
			slog.Error("Failed to encode response", "error", err)
		}
	}
}

// writeError maps the error taxonomy onto HTTP statuses: not-ready is 503,
// unknown entities are 404, everything the coordinator rejected before a
// remote call is 400.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, tripsync.ErrNotReady):
		status = http.StatusServiceUnavailable
	case errors.Is(err, remote.ErrTripNotFound),
		errors.Is(err, remote.ErrExpenseNotFound),
		errors.Is(err, remote.ErrBlobNotFound):
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			"path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// Shutdown stops the HTTP server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}
