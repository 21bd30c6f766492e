package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	completed map[string]time.Time
	targets   []WageTarget
	applied   map[int64]struct {
		wage     float64
		lastPaid *time.Time
	}
	failApply map[int64]bool

	hasLegacy  bool
	sales      []LegacySale
	imported   []int64
	failImport map[int64]bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		completed: make(map[string]time.Time),
		applied: make(map[int64]struct {
			wage     float64
			lastPaid *time.Time
		}),
		failApply:  make(map[int64]bool),
		failImport: make(map[int64]bool),
	}
}

func (s *memoryStore) EnsureInfra(ctx context.Context) error { return nil }

func (s *memoryStore) Completed(ctx context.Context, name string) (bool, error) {
	_, ok := s.completed[name]
	return ok, nil
}

func (s *memoryStore) MarkCompleted(ctx context.Context, name string, at time.Time) error {
	s.completed[name] = at
	return nil
}

func (s *memoryStore) ListWageTargets(ctx context.Context) ([]WageTarget, error) {
	var pending []WageTarget
	for _, t := range s.targets {
		if _, done := s.applied[t.ID]; !done {
			pending = append(pending, t)
		}
	}
	return pending, nil
}

func (s *memoryStore) ApplyWageBackfill(ctx context.Context, id int64, dailyWage float64, lastPaid *time.Time) error {
	if s.failApply[id] {
		return errors.New("boom")
	}
	s.applied[id] = struct {
		wage     float64
		lastPaid *time.Time
	}{dailyWage, lastPaid}
	return nil
}

func (s *memoryStore) HasLegacySales(ctx context.Context) (bool, error) {
	return s.hasLegacy, nil
}

func (s *memoryStore) ListUnimportedSales(ctx context.Context) ([]LegacySale, error) {
	var pending []LegacySale
	for _, sale := range s.sales {
		found := false
		for _, id := range s.imported {
			if id == sale.ID {
				found = true
				break
			}
		}
		if !found {
			pending = append(pending, sale)
		}
	}
	return pending, nil
}

func (s *memoryStore) ImportSale(ctx context.Context, sale LegacySale) error {
	if s.failImport[sale.ID] {
		return errors.New("boom")
	}
	s.imported = append(s.imported, sale.ID)
	return nil
}

func salary(v float64) *float64 { return &v }

func TestDeriveDailyWage(t *testing.T) {
	require.Equal(t, 200.0, DeriveDailyWage(6000))
	require.Equal(t, 166.67, DeriveDailyWage(5000))
	require.Equal(t, 333.33, DeriveDailyWage(10000))
}

func TestWageBackfill(t *testing.T) {
	store := newMemoryStore()
	store.targets = []WageTarget{
		{ID: 1, Code: "EMP001", MonthlySalary: salary(6000)},
		{ID: 2, Code: "EMP002", DailyWage: 250},
	}
	runner := NewRunner(store, nil)

	require.NoError(t, runner.Run(context.Background()))

	require.Equal(t, 200.0, store.applied[1].wage)
	require.NotNil(t, store.applied[1].lastPaid)
	// An employee with a wage but no watermark only gets last_paid stamped.
	require.Equal(t, 250.0, store.applied[2].wage)
	_, done := store.completed[RunWageBackfill]
	require.True(t, done)
}

func TestWageBackfillSkipsUnderivable(t *testing.T) {
	store := newMemoryStore()
	store.targets = []WageTarget{
		{ID: 1, Code: "EMP001"},
		{ID: 2, Code: "EMP002", MonthlySalary: salary(6000)},
	}
	runner := NewRunner(store, nil)

	require.NoError(t, runner.Run(context.Background()))

	_, applied := store.applied[1]
	require.False(t, applied)
	require.Equal(t, 200.0, store.applied[2].wage)
	// A skipped record keeps the marker unwritten so the pass retries later.
	_, done := store.completed[RunWageBackfill]
	require.False(t, done)
}

func TestWageBackfillRetriesAfterFailure(t *testing.T) {
	store := newMemoryStore()
	store.targets = []WageTarget{
		{ID: 1, Code: "EMP001", MonthlySalary: salary(3000)},
		{ID: 2, Code: "EMP002", MonthlySalary: salary(6000)},
	}
	store.failApply[1] = true
	runner := NewRunner(store, nil)

	require.NoError(t, runner.Run(context.Background()))
	_, done := store.completed[RunWageBackfill]
	require.False(t, done)

	store.failApply[1] = false
	require.NoError(t, runner.Run(context.Background()))

	require.Equal(t, 100.0, store.applied[1].wage)
	_, done = store.completed[RunWageBackfill]
	require.True(t, done)
}

func TestLegacySalesImport(t *testing.T) {
	store := newMemoryStore()
	store.hasLegacy = true
	store.sales = []LegacySale{
		{ID: 1, CustomerName: "Alice", ItemName: "Bread", Quantity: 2, UnitPrice: 20, Total: 40, SoldAt: time.Now()},
		{ID: 2, CustomerName: "Bob", ItemName: "Cake", Quantity: 1, UnitPrice: 500, Total: 500, SoldAt: time.Now()},
	}
	runner := NewRunner(store, nil)

	require.NoError(t, runner.Run(context.Background()))
	require.ElementsMatch(t, []int64{1, 2}, store.imported)
	_, done := store.completed[RunLegacySalesImport]
	require.True(t, done)

	// A second run is a no-op.
	require.NoError(t, runner.Run(context.Background()))
	require.Len(t, store.imported, 2)
}

func TestLegacySalesImportPartialFailure(t *testing.T) {
	store := newMemoryStore()
	store.hasLegacy = true
	store.sales = []LegacySale{
		{ID: 1, CustomerName: "Alice", Total: 40, SoldAt: time.Now()},
		{ID: 2, CustomerName: "Bob", Total: 500, SoldAt: time.Now()},
	}
	store.failImport[2] = true
	runner := NewRunner(store, nil)

	require.NoError(t, runner.Run(context.Background()))
	require.ElementsMatch(t, []int64{1}, store.imported)
	_, done := store.completed[RunLegacySalesImport]
	require.False(t, done)

	store.failImport[2] = false
	require.NoError(t, runner.Run(context.Background()))
	require.ElementsMatch(t, []int64{1, 2}, store.imported)
	_, done = store.completed[RunLegacySalesImport]
	require.True(t, done)
}

func TestLegacySalesImportFreshInstall(t *testing.T) {
	store := newMemoryStore()
	runner := NewRunner(store, nil)

	require.NoError(t, runner.Run(context.Background()))
	_, done := store.completed[RunLegacySalesImport]
	require.True(t, done)
	require.Empty(t, store.imported)
}
