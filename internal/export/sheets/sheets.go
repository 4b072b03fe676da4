// Package sheets exports trip reports to a Google Spreadsheet. The worker
// appends a block per report: a trip header, one row per expense, and a
// total row.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	reportsSheet  string
}

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID.
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional: GOOGLE_REPORTS_SHEET_NAME (default "Trip Reports").
func NewFromEnv(ctx context.Context) (*Client, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("GOOGLE_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	reportsSheet := strings.TrimSpace(os.Getenv("GOOGLE_REPORTS_SHEET_NAME"))
	if reportsSheet == "" {
		reportsSheet = "Trip Reports"
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportsSheet:  reportsSheet,
	}, nil
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	var err error
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		credentialsJSON, err = os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// ExportTripReport appends the report to the configured sheet. Rows are
// appended in one call so a report never lands half-written.
func (c *Client) ExportTripReport(ctx context.Context, report core.TripReport) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	rows := buildRows(report)
	rng := fmt.Sprintf("%s!A:E", c.reportsSheet)

	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng,
		&gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append report for trip %s: %w", report.Trip.ID, err)
	}

	slog.InfoContext(ctx, "Exported trip report to Google Sheets",
		"trip_id", report.Trip.ID,
		"expenses", len(report.Expenses),
		"sheet", c.reportsSheet)
	return nil
}

func buildRows(report core.TripReport) [][]any {
	rows := [][]any{
		{report.Trip.Name, report.Trip.StartDate.String(), report.Trip.EndDate.String(), "", ""},
	}

	for _, e := range report.Expenses {
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		rows = append(rows, []any{
			e.ExpenseDate.String(),
			e.Title,
			e.Category.String(),
			e.Amount.StringFixed(2),
			notes,
		})
	}

	rows = append(rows, []any{"", "Total", "", report.Total.StringFixed(2), ""})
	// Blank spacer between reports.
	rows = append(rows, []any{"", "", "", "", ""})
	return rows
}
