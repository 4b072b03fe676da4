// Package storage is the SQLite implementation of the remote service,
// used when the tracker runs self-contained against a local database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ remote.Service = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateTrip implements remote.TripWriter.
func (r *SQLiteRepository) CreateTrip(ctx context.Context, trip core.Trip) (core.Trip, error) {
	if err := trip.Validate(); err != nil {
		return core.Trip{}, err
	}
	trip.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trips (id, name, start_date, end_date, description) VALUES (?, ?, ?, ?, ?)`,
		trip.ID, trip.Name, trip.StartDate.String(), trip.EndDate.String(), nullString(trip.Description))
	if err != nil {
		return core.Trip{}, fmt.Errorf("insert trip: %w", err)
	}

	slog.InfoContext(ctx, "Trip saved to SQLite", "id", trip.ID, "name", trip.Name)
	return trip, nil
}

// UpdateTrip implements remote.TripWriter.
func (r *SQLiteRepository) UpdateTrip(ctx context.Context, trip core.Trip) error {
	if err := trip.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE trips SET name = ?, start_date = ?, end_date = ?, description = ? WHERE id = ?`,
		trip.Name, trip.StartDate.String(), trip.EndDate.String(), nullString(trip.Description), trip.ID)
	if err != nil {
		return fmt.Errorf("update trip: %w", err)
	}
	return requireRow(res, remote.ErrTripNotFound)
}

// DeleteTrip implements remote.TripWriter. The delete cascades to the
// trip's expenses inside a single transaction.
func (r *SQLiteRepository) DeleteTrip(ctx context.Context, tripID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete trip: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM expenses WHERE trip_id = ?`, tripID); err != nil {
		return fmt.Errorf("delete trip expenses: %w", err)
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM trips WHERE id = ?`, tripID)
	if err != nil {
		return fmt.Errorf("delete trip: %w", err)
	}
	if err := requireRow(res, remote.ErrTripNotFound); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete trip: %w", err)
	}

	slog.InfoContext(ctx, "Trip deleted from SQLite", "id", tripID)
	return nil
}

// AllTrips implements remote.TripReader.
func (r *SQLiteRepository) AllTrips(ctx context.Context) ([]core.Trip, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, start_date, end_date, description FROM trips ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query trips: %w", err)
	}
	defer rows.Close()

	var trips []core.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

// TripByID implements remote.TripReader.
func (r *SQLiteRepository) TripByID(ctx context.Context, tripID string) (core.Trip, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, start_date, end_date, description FROM trips WHERE id = ?`, tripID)

	trip, err := scanTrip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Trip{}, remote.ErrTripNotFound
	}
	return trip, err
}

// AddExpense implements remote.ExpenseWriter.
func (r *SQLiteRepository) AddExpense(ctx context.Context, expense core.Expense) (core.Expense, error) {
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}
	if _, err := r.TripByID(ctx, expense.TripID); err != nil {
		return core.Expense{}, err
	}
	expense.ID = uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, trip_id, title, amount, category, expense_date, notes, bill_image_key, bill_image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Title, expense.Amount.String(),
		expense.Category.String(), expense.ExpenseDate.String(), nullString(expense.Notes),
		expense.BillImage.Key, expense.BillImage.URL)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", expense.ID,
		"trip_id", expense.TripID,
		"title", expense.Title,
		"amount", expense.Amount.String())
	return expense, nil
}

// UpdateExpense implements remote.ExpenseWriter. The owning trip cannot
// change once the expense exists.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, expense core.Expense) error {
	if err := expense.Validate(); err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET title = ?, amount = ?, category = ?, expense_date = ?, notes = ?,
		        bill_image_key = ?, bill_image_url = ?
		 WHERE id = ? AND trip_id = ?`,
		expense.Title, expense.Amount.String(), expense.Category.String(),
		expense.ExpenseDate.String(), nullString(expense.Notes),
		expense.BillImage.Key, expense.BillImage.URL,
		expense.ID, expense.TripID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	return requireRow(res, remote.ErrExpenseNotFound)
}

// DeleteExpense implements remote.ExpenseWriter.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, expenseID)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return requireRow(res, remote.ErrExpenseNotFound)
}

// ExpensesByTripID implements remote.ExpenseReader.
func (r *SQLiteRepository) ExpensesByTripID(ctx context.Context, tripID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, trip_id, title, amount, category, expense_date, notes, bill_image_key, bill_image_url
		 FROM expenses WHERE trip_id = ? ORDER BY rowid`, tripID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var (
			e                   core.Expense
			amount, expenseDate string
			category            string
			notes               sql.NullString
			imageKey, imageURL  sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.TripID, &e.Title, &amount, &category,
			&expenseDate, &notes, &imageKey, &imageURL); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}

		e.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("parse amount %q: %w", amount, err)
		}
		e.ExpenseDate, err = core.ParseDate(expenseDate)
		if err != nil {
			return nil, fmt.Errorf("parse expense date %q: %w", expenseDate, err)
		}
		e.Category = core.Category(category)
		if notes.Valid {
			e.Notes = &notes.String
		}
		e.BillImage = core.BlobRef{Key: imageKey.String, URL: imageURL.String}

		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

// UploadBillImage implements remote.BlobUploader. The image lands in a
// single insert, so progress is reported once, at completion.
func (r *SQLiteRepository) UploadBillImage(ctx context.Context, data []byte, contentType string, progress func(pct int)) (core.BlobRef, error) {
	key := uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO bill_images (key, content_type, data) VALUES (?, ?, ?)`,
		key, contentType, data)
	if err != nil {
		return core.BlobRef{}, fmt.Errorf("insert bill image: %w", err)
	}

	if progress != nil {
		progress(100)
	}
	return core.BlobRef{Key: key, URL: "/api/bill-images/" + key}, nil
}

// ReadBillImage implements remote.BlobUploader.
func (r *SQLiteRepository) ReadBillImage(ctx context.Context, ref core.BlobRef) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT data FROM bill_images WHERE key = ?`, ref.Key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, remote.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read bill image: %w", err)
	}
	return data, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (core.Trip, error) {
	var (
		trip               core.Trip
		startDate, endDate string
		description        sql.NullString
	)
	if err := row.Scan(&trip.ID, &trip.Name, &startDate, &endDate, &description); err != nil {
		return core.Trip{}, err
	}

	var err error
	trip.StartDate, err = core.ParseDate(startDate)
	if err != nil {
		return core.Trip{}, fmt.Errorf("parse start date %q: %w", startDate, err)
	}
	trip.EndDate, err = core.ParseDate(endDate)
	if err != nil {
		return core.Trip{}, fmt.Errorf("parse end date %q: %w", endDate, err)
	}
	if description.Valid {
		trip.Description = &description.String
	}
	return trip, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
