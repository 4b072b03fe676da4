// Package tripsync mediates between UI actions and the remote trip/expense
// service. Reads go through the query cache; writes invalidate the affected
// cache entries only after the remote call has committed, so a read issued
// after a completed mutation always observes fresh data.
package tripsync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/caffeinepub/travel-expense-tracker/internal/core"
	"github.com/caffeinepub/travel-expense-tracker/internal/querycache"
	"github.com/caffeinepub/travel-expense-tracker/internal/remote"
)

// ReportPublisher emits a report-sync notification after a committed
// mutation. Implemented by the AMQP client; nil disables publishing.
type ReportPublisher interface {
	PublishReportSync(ctx context.Context, tripID string) error
}

// Coordinator wraps every read and write operation of the application.
// Writes follow a fixed sequence: local validation, readiness check, exactly
// one remote call, then cache invalidation. Failed mutations never touch the
// cache. There is no retry.
type Coordinator struct {
	provider  *Provider
	cache     *querycache.Store
	publisher ReportPublisher
}

func NewCoordinator(provider *Provider, cache *querycache.Store, publisher ReportPublisher) *Coordinator {
	return &Coordinator{
		provider:  provider,
		cache:     cache,
		publisher: publisher,
	}
}

// Cache exposes the underlying store, mainly for consumers that only read.
func (c *Coordinator) Cache() *querycache.Store {
	return c.cache
}

// Uploader returns the blob upload capability of the current remote service.
func (c *Coordinator) Uploader() (remote.BlobUploader, error) {
	svc, ok := c.provider.Current()
	if !ok {
		return nil, ErrNotReady
	}
	return svc, nil
}

// AllTrips returns the trip listing, from cache when fresh.
func (c *Coordinator) AllTrips(ctx context.Context) ([]core.Trip, error) {
	key := querycache.TripsKey()
	if trips, ok := querycache.Lookup[[]core.Trip](c.cache, key); ok {
		return trips, nil
	}

	svc, ok := c.provider.Current()
	if !ok {
		return nil, ErrNotReady
	}
	trips, err := svc.AllTrips(ctx)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	c.cache.Set(key, trips)
	return trips, nil
}

// TripByID returns a single trip, from cache when fresh.
func (c *Coordinator) TripByID(ctx context.Context, tripID string) (core.Trip, error) {
	key := querycache.TripKey(tripID)
	if trip, ok := querycache.Lookup[core.Trip](c.cache, key); ok {
		return trip, nil
	}

	svc, ok := c.provider.Current()
	if !ok {
		return core.Trip{}, ErrNotReady
	}
	trip, err := svc.TripByID(ctx, tripID)
	if err != nil {
		return core.Trip{}, err
	}
	c.cache.Set(key, trip)
	return trip, nil
}

// ExpensesByTrip returns one trip's expenses, from cache when fresh.
func (c *Coordinator) ExpensesByTrip(ctx context.Context, tripID string) ([]core.Expense, error) {
	key := querycache.ExpensesKey(tripID)
	if expenses, ok := querycache.Lookup[[]core.Expense](c.cache, key); ok {
		return expenses, nil
	}

	svc, ok := c.provider.Current()
	if !ok {
		return nil, ErrNotReady
	}
	expenses, err := svc.ExpensesByTripID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("list expenses for trip %s: %w", tripID, err)
	}
	c.cache.Set(key, expenses)
	return expenses, nil
}

// CreateTrip stores a new trip and invalidates the trip listing.
func (c *Coordinator) CreateTrip(ctx context.Context, trip core.Trip) (core.Trip, error) {
	if err := trip.Validate(); err != nil {
		return core.Trip{}, err
	}
	svc, ok := c.provider.Current()
	if !ok {
		return core.Trip{}, ErrNotReady
	}

	created, err := svc.CreateTrip(ctx, trip)
	if err != nil {
		return core.Trip{}, err
	}

	c.cache.Invalidate(querycache.TripsKey())
	c.publishReportSync(ctx, created.ID)

	slog.InfoContext(ctx, "Trip created", "trip_id", created.ID, "name", created.Name)
	return created, nil
}

// UpdateTrip replaces a trip and invalidates both the listing and the
// single-trip entry.
func (c *Coordinator) UpdateTrip(ctx context.Context, trip core.Trip) error {
	if err := trip.Validate(); err != nil {
		return err
	}
	svc, ok := c.provider.Current()
	if !ok {
		return ErrNotReady
	}

	if err := svc.UpdateTrip(ctx, trip); err != nil {
		return err
	}

	c.cache.Invalidate(querycache.TripsKey())
	c.cache.Invalidate(querycache.TripKey(trip.ID))
	c.publishReportSync(ctx, trip.ID)

	slog.InfoContext(ctx, "Trip updated", "trip_id", trip.ID)
	return nil
}

// DeleteTrip removes a trip. Because the remote service cascades the delete
// to the trip's expenses, every cached expense listing is eagerly dropped as
// well, not just the deleted trip's entry.
func (c *Coordinator) DeleteTrip(ctx context.Context, tripID string) error {
	svc, ok := c.provider.Current()
	if !ok {
		return ErrNotReady
	}

	if err := svc.DeleteTrip(ctx, tripID); err != nil {
		return err
	}

	c.cache.Invalidate(querycache.TripsKey())
	c.cache.Invalidate(querycache.TripKey(tripID))
	c.cache.InvalidateResource(querycache.ResourceExpenses)

	slog.InfoContext(ctx, "Trip deleted", "trip_id", tripID)
	return nil
}

// AddExpense stores a new expense and invalidates its trip's listing.
func (c *Coordinator) AddExpense(ctx context.Context, expense core.Expense) (core.Expense, error) {
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}
	svc, ok := c.provider.Current()
	if !ok {
		return core.Expense{}, ErrNotReady
	}

	created, err := svc.AddExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, err
	}

	c.cache.Invalidate(querycache.ExpensesKey(created.TripID))
	c.publishReportSync(ctx, created.TripID)

	slog.InfoContext(ctx, "Expense added",
		"expense_id", created.ID,
		"trip_id", created.TripID,
		"amount", created.Amount.String(),
		"category", created.Category.String())
	return created, nil
}

// UpdateExpense replaces an expense and invalidates its trip's listing.
func (c *Coordinator) UpdateExpense(ctx context.Context, expense core.Expense) error {
	if err := expense.Validate(); err != nil {
		return err
	}
	svc, ok := c.provider.Current()
	if !ok {
		return ErrNotReady
	}

	if err := svc.UpdateExpense(ctx, expense); err != nil {
		return err
	}

	c.cache.Invalidate(querycache.ExpensesKey(expense.TripID))
	c.publishReportSync(ctx, expense.TripID)

	slog.InfoContext(ctx, "Expense updated", "expense_id", expense.ID, "trip_id", expense.TripID)
	return nil
}

// DeleteExpense removes an expense. The owning trip ID is passed by the
// caller (it always has it at hand) so the right listing can be invalidated
// without an extra remote read.
func (c *Coordinator) DeleteExpense(ctx context.Context, expenseID, tripID string) error {
	svc, ok := c.provider.Current()
	if !ok {
		return ErrNotReady
	}

	if err := svc.DeleteExpense(ctx, expenseID); err != nil {
		return err
	}

	c.cache.Invalidate(querycache.ExpensesKey(tripID))
	c.publishReportSync(ctx, tripID)

	slog.InfoContext(ctx, "Expense deleted", "expense_id", expenseID, "trip_id", tripID)
	return nil
}

// publishReportSync notifies the report worker that a trip's data changed.
// Publishing is best-effort: the mutation has already committed, so a broker
// failure is logged and swallowed rather than surfaced to the caller.
func (c *Coordinator) publishReportSync(ctx context.Context, tripID string) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.PublishReportSync(ctx, tripID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish report sync message",
			"trip_id", tripID, "error", err)
	}
}
