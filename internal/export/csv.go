// Package export renders trip reports for downstream consumers: CSV for
// browser downloads, Google Sheets through the sheets subpackage.
package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
)

var csvHeader = []string{"Date", "Title", "Category", "Amount", "Notes"}

// WriteTripCSV writes one trip's expenses as CSV, ending with a total row.
// Amounts are rendered with two decimal places; currency symbols are a
// display concern left to the consumer.
func WriteTripCSV(w io.Writer, report core.TripReport) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, e := range report.Expenses {
		notes := ""
		if e.Notes != nil {
			notes = *e.Notes
		}
		record := []string{
			e.ExpenseDate.String(),
			e.Title,
			e.Category.String(),
			e.Amount.StringFixed(2),
			notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write expense %s: %w", e.ID, err)
		}
	}

	total := []string{"", "Total", "", report.Total.StringFixed(2), ""}
	if err := cw.Write(total); err != nil {
		return fmt.Errorf("write total: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
