package migration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tillbook/tillbook/internal/shared"
)

// daysPerMonth converts a monthly salary into a daily wage.
const daysPerMonth = 30.0

// Runner executes pending migrations exactly once each. A run that skips any
// record leaves its marker unwritten so the remainder is retried on the next
// startup; already-migrated records are naturally excluded by the selection
// queries.
type Runner struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewRunner builds a Runner.
func NewRunner(store Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, logger: logger, now: time.Now}
}

// Run applies all pending migrations in order.
func (r *Runner) Run(ctx context.Context) error {
	if err := r.store.EnsureInfra(ctx); err != nil {
		return fmt.Errorf("migration: ensure infra: %w", err)
	}
	if err := r.runWageBackfill(ctx); err != nil {
		return err
	}
	return r.runLegacySalesImport(ctx)
}

// DeriveDailyWage converts a monthly salary into the equivalent daily wage.
func DeriveDailyWage(monthlySalary float64) float64 {
	return shared.Round2(monthlySalary / daysPerMonth)
}

func (r *Runner) runWageBackfill(ctx context.Context) error {
	done, err := r.store.Completed(ctx, RunWageBackfill)
	if err != nil {
		return fmt.Errorf("migration: check %s: %w", RunWageBackfill, err)
	}
	if done {
		return nil
	}

	targets, err := r.store.ListWageTargets(ctx)
	if err != nil {
		return fmt.Errorf("migration: list wage targets: %w", err)
	}

	now := r.now()
	var migrated, skipped int
	for _, t := range targets {
		wage := t.DailyWage
		if wage <= 0 {
			if t.MonthlySalary == nil || *t.MonthlySalary <= 0 {
				r.logger.Warn("wage backfill skipped, no salary to derive from",
					slog.String("employee", t.Code))
				skipped++
				continue
			}
			wage = DeriveDailyWage(*t.MonthlySalary)
		}
		lastPaid := t.LastPaid
		if lastPaid == nil {
			lastPaid = &now
		}
		if err := r.store.ApplyWageBackfill(ctx, t.ID, wage, lastPaid); err != nil {
			r.logger.Warn("wage backfill failed",
				slog.String("employee", t.Code), slog.Any("error", err))
			skipped++
			continue
		}
		migrated++
	}

	r.logger.Info("wage backfill pass finished",
		slog.Int("migrated", migrated), slog.Int("skipped", skipped))
	if skipped > 0 {
		return nil
	}
	if err := r.store.MarkCompleted(ctx, RunWageBackfill, now); err != nil {
		return fmt.Errorf("migration: mark %s: %w", RunWageBackfill, err)
	}
	return nil
}

func (r *Runner) runLegacySalesImport(ctx context.Context) error {
	done, err := r.store.Completed(ctx, RunLegacySalesImport)
	if err != nil {
		return fmt.Errorf("migration: check %s: %w", RunLegacySalesImport, err)
	}
	if done {
		return nil
	}

	present, err := r.store.HasLegacySales(ctx)
	if err != nil {
		return fmt.Errorf("migration: probe legacy sales: %w", err)
	}
	if !present {
		// Nothing to import on a fresh install; record the run so the probe
		// is not repeated every startup.
		return r.store.MarkCompleted(ctx, RunLegacySalesImport, r.now())
	}

	sales, err := r.store.ListUnimportedSales(ctx)
	if err != nil {
		return fmt.Errorf("migration: list legacy sales: %w", err)
	}

	var imported, skipped int
	for _, sale := range sales {
		if err := r.store.ImportSale(ctx, sale); err != nil {
			r.logger.Warn("legacy sale import failed",
				slog.Int64("sale_id", sale.ID), slog.Any("error", err))
			skipped++
			continue
		}
		imported++
	}

	r.logger.Info("legacy sales import pass finished",
		slog.Int("imported", imported), slog.Int("skipped", skipped))
	if skipped > 0 {
		return nil
	}
	if err := r.store.MarkCompleted(ctx, RunLegacySalesImport, r.now()); err != nil {
		return fmt.Errorf("migration: mark %s: %w", RunLegacySalesImport, err)
	}
	return nil
}
