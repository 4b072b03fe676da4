// Package core defines the domain model shared by the sync layer, the
// storage backends and the exporters.
package core

import "github.com/shopspring/decimal"

type (
	// CategoryAmount is a per-category total within a trip report.
	CategoryAmount struct {
		Category Category
		Amount   decimal.Decimal
	}

	// TripReport aggregates a trip's expenses for export.
	TripReport struct {
		Trip       Trip
		Expenses   []Expense
		Total      decimal.Decimal
		ByCategory []CategoryAmount
	}
)

// BuildTripReport computes totals for a trip's expenses. Category totals
// follow the fixed category display order; categories with no expenses are
// omitted.
func BuildTripReport(trip Trip, expenses []Expense) TripReport {
	report := TripReport{
		Trip:     trip,
		Expenses: expenses,
		Total:    decimal.Zero,
	}

	sums := make(map[Category]decimal.Decimal, len(Categories()))
	for _, e := range expenses {
		report.Total = report.Total.Add(e.Amount)
		sums[e.Category] = sums[e.Category].Add(e.Amount)
	}

	for _, c := range Categories() {
		if sum, ok := sums[c]; ok {
			report.ByCategory = append(report.ByCategory, CategoryAmount{
				Category: c,
				Amount:   sum,
			})
		}
	}

	return report
}
