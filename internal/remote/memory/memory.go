// Package memory provides an in-process remote.Service used by tests and
// the default local deployment.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
)

type Store struct {
	mu       sync.Mutex
	trips    map[string]core.Trip
	expenses map[string]core.Expense
	blobs    map[string][]byte

	// tripOrder / expenseOrder preserve insertion order for listings.
	tripOrder    []string
	expenseOrder []string
}

var _ remote.Service = (*Store)(nil)

func New() *Store {
	return &Store{
		trips:    make(map[string]core.Trip),
		expenses: make(map[string]core.Expense),
		blobs:    make(map[string][]byte),
	}
}

// CreateTrip implements remote.TripWriter.
func (s *Store) CreateTrip(_ context.Context, trip core.Trip) (core.Trip, error) {
	if err := trip.Validate(); err != nil {
		return core.Trip{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	trip.ID = uuid.NewString()
	s.trips[trip.ID] = trip
	s.tripOrder = append(s.tripOrder, trip.ID)
	return trip, nil
}

// UpdateTrip implements remote.TripWriter.
func (s *Store) UpdateTrip(_ context.Context, trip core.Trip) error {
	if err := trip.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[trip.ID]; !ok {
		return remote.ErrTripNotFound
	}
	s.trips[trip.ID] = trip
	return nil
}

// DeleteTrip implements remote.TripWriter. Deleting a trip cascades to its
// expenses, matching the service-side contract the client relies on.
func (s *Store) DeleteTrip(_ context.Context, tripID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[tripID]; !ok {
		return remote.ErrTripNotFound
	}
	delete(s.trips, tripID)
	s.tripOrder = removeID(s.tripOrder, tripID)

	remaining := s.expenseOrder[:0]
	for _, id := range s.expenseOrder {
		if s.expenses[id].TripID == tripID {
			delete(s.expenses, id)
			continue
		}
		remaining = append(remaining, id)
	}
	s.expenseOrder = remaining
	return nil
}

// AllTrips implements remote.TripReader.
func (s *Store) AllTrips(_ context.Context) ([]core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trips := make([]core.Trip, 0, len(s.tripOrder))
	for _, id := range s.tripOrder {
		trips = append(trips, s.trips[id])
	}
	return trips, nil
}

// TripByID implements remote.TripReader.
func (s *Store) TripByID(_ context.Context, tripID string) (core.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trip, ok := s.trips[tripID]
	if !ok {
		return core.Trip{}, remote.ErrTripNotFound
	}
	return trip, nil
}

// AddExpense implements remote.ExpenseWriter. The owning trip must exist.
func (s *Store) AddExpense(_ context.Context, expense core.Expense) (core.Expense, error) {
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.trips[expense.TripID]; !ok {
		return core.Expense{}, remote.ErrTripNotFound
	}
	expense.ID = uuid.NewString()
	s.expenses[expense.ID] = expense
	s.expenseOrder = append(s.expenseOrder, expense.ID)
	return expense, nil
}

// UpdateExpense implements remote.ExpenseWriter. The owning trip is
// immutable once the expense exists.
func (s *Store) UpdateExpense(_ context.Context, expense core.Expense) error {
	if err := expense.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.expenses[expense.ID]
	if !ok {
		return remote.ErrExpenseNotFound
	}
	if current.TripID != expense.TripID {
		return fmt.Errorf("expense %s belongs to trip %s", expense.ID, current.TripID)
	}
	s.expenses[expense.ID] = expense
	return nil
}

// DeleteExpense implements remote.ExpenseWriter.
func (s *Store) DeleteExpense(_ context.Context, expenseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[expenseID]; !ok {
		return remote.ErrExpenseNotFound
	}
	delete(s.expenses, expenseID)
	s.expenseOrder = removeID(s.expenseOrder, expenseID)
	return nil
}

// ExpensesByTripID implements remote.ExpenseReader. Listing a deleted or
// unknown trip yields an empty slice, mirroring the post-cascade behavior
// of the real service.
func (s *Store) ExpensesByTripID(_ context.Context, tripID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expenses []core.Expense
	for _, id := range s.expenseOrder {
		if e := s.expenses[id]; e.TripID == tripID {
			expenses = append(expenses, e)
		}
	}
	return expenses, nil
}

// UploadBillImage implements remote.BlobUploader. Progress is reported in
// quarters ending at 100 so callers can observe a full sequence even for
// tiny payloads.
func (s *Store) UploadBillImage(_ context.Context, data []byte, _ string, progress func(pct int)) (core.BlobRef, error) {
	key := uuid.NewString()

	if progress != nil {
		for _, pct := range []int{25, 50, 75, 100} {
			progress(pct)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), data...)

	return core.BlobRef{
		Key: key,
		URL: "mem://bill-images/" + key,
	}, nil
}

// ReadBillImage implements remote.BlobUploader.
func (s *Store) ReadBillImage(_ context.Context, ref core.BlobRef) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.blobs[ref.Key]
	if !ok {
		return nil, remote.ErrBlobNotFound
	}
	return append([]byte(nil), data...), nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
