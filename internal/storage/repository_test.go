package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func testTrip() core.Trip {
	desc := "spring trip"
	return core.Trip{
		Name:        "Kyoto",
		StartDate:   core.NewDate(2026, 4, 1),
		EndDate:     core.NewDate(2026, 4, 10),
		Description: &desc,
	}
}

func testExpense(tripID string) core.Expense {
	return core.Expense{
		TripID:      tripID,
		Title:       "Ramen",
		Amount:      decimal.RequireFromString("12.50"),
		Category:    core.CategoryFood,
		ExpenseDate: core.NewDate(2026, 4, 2),
	}
}

func TestTripRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	created, err := repo.CreateTrip(ctx, testTrip())
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected assigned ID")
	}

	got, err := repo.TripByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("trip by id: %v", err)
	}
	if got.Name != "Kyoto" || got.StartDate.String() != "2026-04-01" {
		t.Errorf("unexpected trip: %+v", got)
	}
	if got.Description == nil || *got.Description != "spring trip" {
		t.Errorf("description not preserved: %v", got.Description)
	}

	t.Run("nil description stays nil", func(t *testing.T) {
		trip := testTrip()
		trip.Description = nil
		created, err := repo.CreateTrip(ctx, trip)
		if err != nil {
			t.Fatalf("create trip: %v", err)
		}
		got, err := repo.TripByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("trip by id: %v", err)
		}
		if got.Description != nil {
			t.Errorf("expected nil description, got %q", *got.Description)
		}
	})

	created.Name = "Kyoto & Nara"
	if err := repo.UpdateTrip(ctx, created); err != nil {
		t.Fatalf("update trip: %v", err)
	}
	got, _ = repo.TripByID(ctx, created.ID)
	if got.Name != "Kyoto & Nara" {
		t.Errorf("update not applied: %q", got.Name)
	}

	if _, err := repo.TripByID(ctx, "missing"); !errors.Is(err, remote.ErrTripNotFound) {
		t.Errorf("expected ErrTripNotFound, got %v", err)
	}
}

func TestExpenseRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	trip, err := repo.CreateTrip(ctx, testTrip())
	if err != nil {
		t.Fatalf("create trip: %v", err)
	}

	expense, err := repo.AddExpense(ctx, testExpense(trip.ID))
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}

	listed, err := repo.ExpensesByTripID(ctx, trip.ID)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(listed) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(listed))
	}
	if !listed[0].Amount.Equal(decimal.RequireFromString("12.50")) {
		t.Errorf("amount = %s", listed[0].Amount)
	}
	if listed[0].Notes != nil {
		t.Errorf("expected nil notes, got %q", *listed[0].Notes)
	}

	expense.Title = "Tonkotsu ramen"
	if err := repo.UpdateExpense(ctx, expense); err != nil {
		t.Fatalf("update expense: %v", err)
	}

	if err := repo.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("delete expense: %v", err)
	}
	if err := repo.DeleteExpense(ctx, expense.ID); !errors.Is(err, remote.ErrExpenseNotFound) {
		t.Errorf("expected ErrExpenseNotFound, got %v", err)
	}
}

func TestAddExpenseUnknownTrip(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.AddExpense(context.Background(), testExpense("no-such-trip"))
	if !errors.Is(err, remote.ErrTripNotFound) {
		t.Fatalf("expected ErrTripNotFound, got %v", err)
	}
}

func TestDeleteTripCascades(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	trip, _ := repo.CreateTrip(ctx, testTrip())
	if _, err := repo.AddExpense(ctx, testExpense(trip.ID)); err != nil {
		t.Fatalf("add expense: %v", err)
	}

	if err := repo.DeleteTrip(ctx, trip.ID); err != nil {
		t.Fatalf("delete trip: %v", err)
	}

	listed, err := repo.ExpensesByTripID(ctx, trip.ID)
	if err != nil {
		t.Fatalf("list expenses: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("cascade failed, %d expenses remain", len(listed))
	}
}

func TestBillImages(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	var pcts []int
	ref, err := repo.UploadBillImage(ctx, []byte("img"), "image/png", func(pct int) {
		pcts = append(pcts, pct)
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(pcts) == 0 || pcts[len(pcts)-1] != 100 {
		t.Errorf("progress = %v, want terminal 100", pcts)
	}

	data, err := repo.ReadBillImage(ctx, ref)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "img" {
		t.Errorf("data = %q", data)
	}

	if _, err := repo.ReadBillImage(ctx, core.BlobRef{Key: "nope"}); !errors.Is(err, remote.ErrBlobNotFound) {
		t.Errorf("expected ErrBlobNotFound, got %v", err)
	}
}
