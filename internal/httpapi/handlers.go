package httpapi

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/caffeinepub/travel-expense-tracker/internal/blob"
	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/export"
)

// maxBillImageBytes bounds receipt uploads.
const maxBillImageBytes = 10 << 20

type tripRequest struct {
	Name        string  `json:"name"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Description *string `json:"description"`
}

type tripResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	StartDate   string  `json:"startDate"`
	EndDate     string  `json:"endDate"`
	Description *string `json:"description,omitempty"`
}

type expenseRequest struct {
	Title        string          `json:"title"`
	Amount       decimal.Decimal `json:"amount"`
	Category     string          `json:"category"`
	ExpenseDate  string          `json:"expenseDate"`
	Notes        *string         `json:"notes"`
	BillImageKey string          `json:"billImageKey"`
	BillImageURL string          `json:"billImageUrl"`
}

type expenseResponse struct {
	ID           string  `json:"id"`
	TripID       string  `json:"tripId"`
	Title        string  `json:"title"`
	Amount       string  `json:"amount"` // fixed two decimal places
	Category     string  `json:"category"`
	ExpenseDate  string  `json:"expenseDate"`
	Notes        *string `json:"notes,omitempty"`
	BillImageKey string  `json:"billImageKey,omitempty"`
	BillImageURL string  `json:"billImageUrl,omitempty"`
}

type billImageResponse struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

func tripToResponse(t core.Trip) tripResponse {
	return tripResponse{
		ID:          t.ID,
		Name:        t.Name,
		StartDate:   t.StartDate.String(),
		EndDate:     t.EndDate.String(),
		Description: t.Description,
	}
}

func expenseToResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:           e.ID,
		TripID:       e.TripID,
		Title:        e.Title,
		Amount:       e.Amount.StringFixed(2),
		Category:     e.Category.String(),
		ExpenseDate:  e.ExpenseDate.String(),
		Notes:        e.Notes,
		BillImageKey: e.BillImage.Key,
		BillImageURL: e.BillImage.URL,
	}
}

func (req tripRequest) toTrip(id string) (core.Trip, error) {
	start, err := core.ParseDate(req.StartDate)
	if err != nil {
		return core.Trip{}, fmt.Errorf("start date: %w", err)
	}
	end, err := core.ParseDate(req.EndDate)
	if err != nil {
		return core.Trip{}, fmt.Errorf("end date: %w", err)
	}
	return core.Trip{
		ID:          id,
		Name:        req.Name,
		StartDate:   start,
		EndDate:     end,
		Description: req.Description,
	}, nil
}

func (req expenseRequest) toExpense(id, tripID string) (core.Expense, error) {
	date, err := core.ParseDate(req.ExpenseDate)
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense date: %w", err)
	}
	return core.Expense{
		ID:          id,
		TripID:      tripID,
		Title:       req.Title,
		Amount:      req.Amount,
		Category:    core.Category(req.Category),
		ExpenseDate: date,
		Notes:       req.Notes,
		BillImage:   core.BlobRef{Key: req.BillImageKey, URL: req.BillImageURL},
	}, nil
}

func (s *Server) handleListTrips(w http.ResponseWriter, r *http.Request) {
	trips, err := s.coordinator.AllTrips(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]tripResponse, 0, len(trips))
	for _, t := range trips {
		out = append(out, tripToResponse(t))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("decode request: %w", err))
		return
	}
	trip, err := req.toTrip("")
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.coordinator.CreateTrip(r.Context(), trip)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, tripToResponse(created))
}

func (s *Server) handleGetTrip(w http.ResponseWriter, r *http.Request) {
	trip, err := s.coordinator.TripByID(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tripToResponse(trip))
}

func (s *Server) handleUpdateTrip(w http.ResponseWriter, r *http.Request) {
	var req tripRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("decode request: %w", err))
		return
	}
	trip, err := req.toTrip(chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.coordinator.UpdateTrip(r.Context(), trip); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteTrip(w http.ResponseWriter, r *http.Request) {
	if err := s.coordinator.DeleteTrip(r.Context(), chi.URLParam(r, "tripID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.coordinator.ExpensesByTrip(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		out = append(out, expenseToResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("decode request: %w", err))
		return
	}
	expense, err := req.toExpense("", chi.URLParam(r, "tripID"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.coordinator.AddExpense(r.Context(), expense)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, expenseToResponse(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req struct {
		expenseRequest
		TripID string `json:"tripId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, fmt.Errorf("decode request: %w", err))
		return
	}
	expense, err := req.toExpense(chi.URLParam(r, "expenseID"), req.TripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.coordinator.UpdateExpense(r.Context(), expense); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	tripID := r.URL.Query().Get("tripId")
	if tripID == "" {
		writeError(w, r, fmt.Errorf("missing tripId query parameter: %w", core.ErrMissingTripID))
		return
	}

	if err := s.coordinator.DeleteExpense(r.Context(), chi.URLParam(r, "expenseID"), tripID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUploadBillImage accepts a multipart "file" part, runs it through the
// blob adapter and returns the stored reference.
func (s *Server) handleUploadBillImage(w http.ResponseWriter, r *http.Request) {
	uploader, err := s.coordinator.Uploader()
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := r.ParseMultipartForm(maxBillImageBytes); err != nil {
		writeError(w, r, fmt.Errorf("parse upload: %w", err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("missing file part: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBillImageBytes))
	if err != nil {
		writeError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	b, err := blob.FromBytes(data, header.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	b.WithUploadProgress(func(pct int) {
		slog.DebugContext(r.Context(), "Bill image upload progress",
			"file", header.Filename, "pct", pct)
	})

	ref, err := b.Upload(r.Context(), uploader)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, billImageResponse{Key: ref.Key, URL: ref.URL})
}

func (s *Server) handleGetBillImage(w http.ResponseWriter, r *http.Request) {
	uploader, err := s.coordinator.Uploader()
	if err != nil {
		writeError(w, r, err)
		return
	}

	ref := core.BlobRef{Key: chi.URLParam(r, "imageKey")}
	data, err := blob.FromRef(ref).Bytes(r.Context(), uploader)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleExportCSV streams the trip's current expenses as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripID")

	trip, err := s.coordinator.TripByID(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	expenses, err := s.coordinator.ExpensesByTrip(r.Context(), tripID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	report := core.BuildTripReport(trip, expenses)

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", trip.Name+"-expenses.csv"))
	if err := export.WriteTripCSV(w, report); err != nil {
		slog.ErrorContext(r.Context(), "CSV export failed", "trip_id", tripID, "error", err)
	}
}
