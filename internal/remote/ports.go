// Package remote defines the operation set consumed from the trip/expense
// service. The sync layer treats implementations as external collaborators:
// ID assignment, referential checks and cascade deletes all happen behind
// these interfaces.
package remote

import (
	"context"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
)

type (
	TripWriter interface {
		// CreateTrip stores a new trip and returns it with its
		// server-assigned ID.
		CreateTrip(ctx context.Context, trip core.Trip) (core.Trip, error)

		// UpdateTrip replaces the trip identified by trip.ID.
		UpdateTrip(ctx context.Context, trip core.Trip) error

		// DeleteTrip removes a trip and cascades to its expenses.
		DeleteTrip(ctx context.Context, tripID string) error
	}

	TripReader interface {
		AllTrips(ctx context.Context) ([]core.Trip, error)

		// TripByID fails with ErrTripNotFound for unknown IDs.
		TripByID(ctx context.Context, tripID string) (core.Trip, error)
	}

	ExpenseWriter interface {
		// AddExpense stores a new expense and returns it with its
		// server-assigned ID.
		AddExpense(ctx context.Context, expense core.Expense) (core.Expense, error)

		// UpdateExpense replaces the expense identified by expense.ID.
		UpdateExpense(ctx context.Context, expense core.Expense) error

		DeleteExpense(ctx context.Context, expenseID string) error
	}

	ExpenseReader interface {
		// ExpensesByTripID lists all expenses scoped to one trip.
		ExpensesByTripID(ctx context.Context, tripID string) ([]core.Expense, error)
	}

	// BlobUploader stores receipt-image bytes and hands back a reference.
	// The progress callback, when non-nil, receives fractional percentages
	// in [0, 100] as the transfer advances; the uploader is not required to
	// make them monotonic, the blob adapter normalizes that.
	BlobUploader interface {
		UploadBillImage(ctx context.Context, data []byte, contentType string, progress func(pct int)) (core.BlobRef, error)

		// ReadBillImage returns the raw bytes behind a reference.
		ReadBillImage(ctx context.Context, ref core.BlobRef) ([]byte, error)
	}
)

// Service is the full remote operation set the application is built against.
type Service interface {
	TripWriter
	TripReader
	ExpenseWriter
	ExpenseReader
	BlobUploader
}
