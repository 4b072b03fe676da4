// Package querycache holds the last-known results of remote reads, keyed by
// operation and parameters. It is a correctness cache: entries live until a
// mutation explicitly invalidates them, there is no TTL and no size bound.
package querycache

import "sync"

// Resource names for the cached read operations.
const (
	ResourceTrips    = "trips"    // result of AllTrips, no parameter
	ResourceTrip     = "trip"     // result of TripByID, parameterized by trip ID
	ResourceExpenses = "expenses" // result of ExpensesByTripID, parameterized by trip ID
)

// Key addresses one cached read result. Param is empty for resources without
// parameters; reads for different parameters never share an entry.
type Key struct {
	Resource string
	Param    string
}

// TripsKey is the cache key for the full trip listing.
func TripsKey() Key { return Key{Resource: ResourceTrips} }

// TripKey is the cache key for a single trip.
func TripKey(tripID string) Key { return Key{Resource: ResourceTrip, Param: tripID} }

// ExpensesKey is the cache key for one trip's expense listing.
func ExpensesKey(tripID string) Key { return Key{Resource: ResourceExpenses, Param: tripID} }

// Store is a process-wide keyed store of read results. It is created once at
// application start, handed by reference to consumers, and never torn down
// during the session. All methods are safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[Key]any
}

func NewStore() *Store {
	return &Store{entries: make(map[Key]any)}
}

// Get returns the cached value for key, or false before the first Set or
// after an invalidation.
func (s *Store) Get(key Key) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.entries[key]
	return value, ok
}

// Set stores the result of a completed read.
func (s *Store) Set(key Key, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// Invalidate marks a single entry stale. It does not trigger a re-fetch;
// the next consumer-initiated read performs one. Invalidating an absent or
// already-invalidated key is a no-op.
func (s *Store) Invalidate(key Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

// InvalidateResource drops every entry sharing a resource name, regardless
// of parameter. Used when a trip is deleted and all of its (now-cascaded)
// expense listings must go stale at once.
func (s *Store) InvalidateResource(resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.entries {
		if key.Resource == resource {
			delete(s.entries, key)
		}
	}
}

// Size returns the current number of cached entries.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Lookup is a typed Get. A cached value of the wrong type counts as a miss,
// which can only happen if two resources share a key by mistake.
func Lookup[T any](s *Store, key Key) (T, bool) {
	var zero T
	value, ok := s.Get(key)
	if !ok {
		return zero, false
	}
	typed, ok := value.(T)
	if !ok {
		return zero, false
	}
	return typed, true
}
