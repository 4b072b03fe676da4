package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caffeinepub/travel-expense-tracker/internal/amqp"
	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote/memory"
)

type fakeExporter struct {
	reports []core.TripReport
	err     error
}

func (f *fakeExporter) ExportTripReport(_ context.Context, report core.TripReport) error {
	if f.err != nil {
		return f.err
	}
	f.reports = append(f.reports, report)
	return nil
}

func TestHandleReportSync(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	exporter := &fakeExporter{}
	w := NewReportWorker(store, exporter)

	trip, err := store.CreateTrip(ctx, core.Trip{
		Name:      "Kyoto",
		StartDate: core.NewDate(2026, 4, 1),
		EndDate:   core.NewDate(2026, 4, 10),
	})
	require.NoError(t, err)
	_, err = store.AddExpense(ctx, core.Expense{
		TripID:      trip.ID,
		Title:       "Ramen",
		Amount:      decimal.RequireFromString("12.50"),
		Category:    core.CategoryFood,
		ExpenseDate: core.NewDate(2026, 4, 2),
	})
	require.NoError(t, err)

	require.NoError(t, w.HandleReportSync(ctx, amqp.NewReportSyncMessage(trip.ID)))

	require.Len(t, exporter.reports, 1)
	report := exporter.reports[0]
	assert.Equal(t, trip.ID, report.Trip.ID)
	assert.Len(t, report.Expenses, 1)
	assert.True(t, report.Total.Equal(decimal.RequireFromString("12.50")))
}

func TestHandleReportSyncDeletedTrip(t *testing.T) {
	ctx := context.Background()
	exporter := &fakeExporter{}
	w := NewReportWorker(memory.New(), exporter)

	// The trip vanished between mutation and export: drop, don't requeue.
	require.NoError(t, w.HandleReportSync(ctx, amqp.NewReportSyncMessage("gone")))
	assert.Empty(t, exporter.reports)
}

func TestHandleReportSyncExportFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	boom := errors.New("sheets unavailable")
	w := NewReportWorker(store, &fakeExporter{err: boom})

	trip, err := store.CreateTrip(ctx, core.Trip{
		Name:      "Kyoto",
		StartDate: core.NewDate(2026, 4, 1),
		EndDate:   core.NewDate(2026, 4, 10),
	})
	require.NoError(t, err)

	err = w.HandleReportSync(ctx, amqp.NewReportSyncMessage(trip.ID))
	require.ErrorIs(t, err, boom, "export failures must surface so the message is requeued")
}
