// Package worker turns report-sync messages into spreadsheet exports.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/travel-expense-tracker/internal/amqp"
	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
)

// Exporter is the destination of finished trip reports.
type Exporter interface {
	ExportTripReport(ctx context.Context, report core.TripReport) error
}

// ReportWorker reads the current state of a trip through the remote service
// and hands a report to the exporter. It always exports the latest state, so
// replays and duplicate messages are harmless.
type ReportWorker struct {
	svc      remote.Service
	exporter Exporter
}

func NewReportWorker(svc remote.Service, exporter Exporter) *ReportWorker {
	return &ReportWorker{
		svc:      svc,
		exporter: exporter,
	}
}

// HandleReportSync processes one message. A trip deleted between the
// mutation and the export is not an error; the message is dropped.
func (w *ReportWorker) HandleReportSync(ctx context.Context, msg *amqp.ReportSyncMessage) error {
	trip, err := w.svc.TripByID(ctx, msg.TripID)
	if errors.Is(err, remote.ErrTripNotFound) {
		slog.InfoContext(ctx, "Trip deleted before export, dropping message", "trip_id", msg.TripID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("read trip %s: %w", msg.TripID, err)
	}

	expenses, err := w.svc.ExpensesByTripID(ctx, msg.TripID)
	if err != nil {
		return fmt.Errorf("read expenses for trip %s: %w", msg.TripID, err)
	}

	report := core.BuildTripReport(trip, expenses)
	if err := w.exporter.ExportTripReport(ctx, report); err != nil {
		return fmt.Errorf("export report for trip %s: %w", msg.TripID, err)
	}

	slog.InfoContext(ctx, "Trip report exported",
		"trip_id", msg.TripID,
		"expenses", len(report.Expenses),
		"total", report.Total.String())
	return nil
}
