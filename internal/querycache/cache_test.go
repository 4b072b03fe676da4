package querycache

import (
	"sync"
	"testing"
)

func TestGetBeforeSet(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get(TripsKey()); ok {
		t.Fatal("expected miss before first Set")
	}
}

func TestSetAndGet(t *testing.T) {
	store := NewStore()
	store.Set(TripsKey(), []string{"kyoto"})

	value, ok := store.Get(TripsKey())
	if !ok {
		t.Fatal("expected hit after Set")
	}
	got, ok := value.([]string)
	if !ok || len(got) != 1 || got[0] != "kyoto" {
		t.Fatalf("unexpected cached value: %v", value)
	}
}

func TestKeysAreParameterScoped(t *testing.T) {
	store := NewStore()
	store.Set(ExpensesKey("A"), "expenses-of-A")

	if _, ok := store.Get(ExpensesKey("B")); ok {
		t.Fatal("a read for trip B must never see data cached under trip A")
	}
	if value, ok := store.Get(ExpensesKey("A")); !ok || value != "expenses-of-A" {
		t.Fatalf("trip A entry lost: %v, %v", value, ok)
	}
}

func TestInvalidate(t *testing.T) {
	store := NewStore()
	store.Set(TripKey("t1"), "trip")
	store.Invalidate(TripKey("t1"))

	if _, ok := store.Get(TripKey("t1")); ok {
		t.Fatal("expected miss after invalidation")
	}
}

func TestInvalidateIsIdempotent(t *testing.T) {
	store := NewStore()
	// Never set, invalidated twice: both must be harmless no-ops.
	store.Invalidate(TripsKey())
	store.Invalidate(TripsKey())

	store.Set(TripsKey(), 1)
	store.Invalidate(TripsKey())
	store.Invalidate(TripsKey())
	if _, ok := store.Get(TripsKey()); ok {
		t.Fatal("expected miss after repeated invalidation")
	}
}

func TestInvalidateResource(t *testing.T) {
	store := NewStore()
	store.Set(ExpensesKey("A"), 1)
	store.Set(ExpensesKey("B"), 2)
	store.Set(TripsKey(), 3)

	store.InvalidateResource(ResourceExpenses)

	if _, ok := store.Get(ExpensesKey("A")); ok {
		t.Error("expenses/A should be gone")
	}
	if _, ok := store.Get(ExpensesKey("B")); ok {
		t.Error("expenses/B should be gone")
	}
	if _, ok := store.Get(TripsKey()); !ok {
		t.Error("trips entry must survive an expenses bulk invalidation")
	}
	if store.Size() != 1 {
		t.Errorf("size = %d, want 1", store.Size())
	}
}

func TestLookupTyped(t *testing.T) {
	store := NewStore()
	store.Set(TripsKey(), []int{1, 2})

	if got, ok := Lookup[[]int](store, TripsKey()); !ok || len(got) != 2 {
		t.Fatalf("typed lookup failed: %v, %v", got, ok)
	}
	if _, ok := Lookup[string](store, TripsKey()); ok {
		t.Fatal("mismatched type must read as a miss")
	}
	if _, ok := Lookup[[]int](store, TripKey("x")); ok {
		t.Fatal("absent key must read as a miss")
	}
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				store.Set(ExpensesKey("t"), j)
				store.Get(ExpensesKey("t"))
				store.Invalidate(ExpensesKey("t"))
				store.InvalidateResource(ResourceExpenses)
			}
		}()
	}
	wg.Wait()
}
