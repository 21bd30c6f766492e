// Package migration runs one-time data migrations at startup: deriving daily
// wages for employees created before wage tracking existed, and importing
// legacy point-of-sale rows into the order ledger.
package migration

import (
	"context"
	"time"
)

// Migration run names recorded in the marker table.
const (
	RunWageBackfill      = "employee_wage_backfill"
	RunLegacySalesImport = "legacy_sales_import"
)

// WageTarget is an employee row as seen by the wage backfill.
type WageTarget struct {
	ID            int64
	Code          string
	DailyWage     float64
	MonthlySalary *float64
	LastPaid      *time.Time
}

// LegacySale is one row of the pre-ledger sales table awaiting import.
type LegacySale struct {
	ID           int64
	CustomerName string
	ItemName     string
	Quantity     int64
	UnitPrice    float64
	Total        float64
	SoldAt       time.Time
}

// Store is the persistence surface the runner needs. The SQL implementation
// wraps each ImportSale in its own transaction so a single bad row cannot
// poison the rest of the import.
type Store interface {
	EnsureInfra(ctx context.Context) error
	Completed(ctx context.Context, name string) (bool, error)
	MarkCompleted(ctx context.Context, name string, at time.Time) error

	ListWageTargets(ctx context.Context) ([]WageTarget, error)
	ApplyWageBackfill(ctx context.Context, id int64, dailyWage float64, lastPaid *time.Time) error

	HasLegacySales(ctx context.Context) (bool, error)
	ListUnimportedSales(ctx context.Context) ([]LegacySale, error)
	ImportSale(ctx context.Context, sale LegacySale) error
}
