package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	CategoryFood   Category = "Food"
	CategoryTravel Category = "Travel"
	CategoryHotel  Category = "Hotel"
	CategoryOther  Category = "Other"
)

// DateLayout is the wire format for all calendar dates.
const DateLayout = "2006-01-02"

type (
	// Category is the closed set of expense categories.
	Category string

	// Date is a calendar date with no time-of-day component.
	Date struct {
		time.Time
	}

	// BlobRef is an opaque handle to remotely stored binary content,
	// typically a receipt image.
	BlobRef struct {
		Key string
		URL string
	}

	Trip struct {
		ID          string
		Name        string
		StartDate   Date
		EndDate     Date
		Description *string // nil means no description, distinct from ""
	}

	Expense struct {
		ID          string
		TripID      string
		Title       string
		Amount      decimal.Decimal
		Category    Category
		ExpenseDate Date
		Notes       *string
		BillImage   BlobRef
	}
)

var (
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidCategory = errors.New("invalid category")
	ErrEmptyName       = errors.New("empty trip name")
	ErrEmptyTitle      = errors.New("empty expense title")
	ErrMissingTripID   = errors.New("missing trip id")
)

func (c Category) IsValid() bool {
	switch c {
	case CategoryFood, CategoryTravel, CategoryHotel, CategoryOther:
		return true
	default:
		return false
	}
}

// String implements fmt.Stringer
func (c Category) String() string {
	return string(c)
}

// Categories returns all valid categories in display order.
func Categories() []Category {
	return []Category{CategoryFood, CategoryTravel, CategoryHotel, CategoryOther}
}

// ParseDate parses an ISO calendar-date string (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// String returns the ISO calendar-date encoding.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// IsZero reports whether the blob reference is unset.
func (b BlobRef) IsZero() bool {
	return b.Key == "" && b.URL == ""
}

func (t Trip) Validate() error {
	if len(strings.TrimSpace(t.Name)) == 0 {
		return ErrEmptyName
	}
	if len(t.Name) > 200 {
		return errors.New("trip name too long (max 200 characters)")
	}
	if err := t.StartDate.Validate(); err != nil {
		return errors.New("invalid start date")
	}
	if err := t.EndDate.Validate(); err != nil {
		return errors.New("invalid end date")
	}
	// Date ordering is deliberately not enforced client-side; the remote
	// service is the authority on trip semantics.
	return nil
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.TripID) == "" {
		return ErrMissingTripID
	}
	if len(strings.TrimSpace(e.Title)) == 0 {
		return ErrEmptyTitle
	}
	if len(e.Title) > 200 {
		return errors.New("expense title too long (max 200 characters)")
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if err := e.ExpenseDate.Validate(); err != nil {
		return err
	}
	return nil
}
