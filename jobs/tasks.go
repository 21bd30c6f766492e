package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/tillbook/tillbook/internal/ledger"
	"github.com/tillbook/tillbook/internal/payroll"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerReconcile resweeps every customer balance from its orders.
	TaskLedgerReconcile = "ledger:reconcile"
	// TaskWageSnapshot records each employee's accrued wage for trend reports.
	TaskWageSnapshot = "payroll:wage_snapshot"
)

// ReconcilePayload carries the enqueue time for audit logging.
type ReconcilePayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// WageSnapshotPayload carries the timestamp snapshots are taken at.
type WageSnapshotPayload struct {
	TakenAt time.Time `json:"taken_at"`
}

// NewLedgerReconcileTask constructs the reconcile task.
func NewLedgerReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal reconcile payload: %w", err)
	}
	return asynq.NewTask(TaskLedgerReconcile, data), nil
}

// NewWageSnapshotTask constructs the wage snapshot task.
func NewWageSnapshotTask(payload WageSnapshotPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: marshal snapshot payload: %w", err)
	}
	return asynq.NewTask(TaskWageSnapshot, data), nil
}

// NewLedgerReconcileHandler returns the asynq handler that rederives every
// customer's aggregate balance.
func NewLedgerReconcileHandler(svc *ledger.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ReconcilePayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return fmt.Errorf("jobs: unmarshal reconcile payload: %w", err)
			}
		}
		n, err := svc.RecomputeAllBalances(ctx)
		if err != nil {
			return fmt.Errorf("jobs: reconcile balances: %w", err)
		}
		logger.Info("ledger reconcile finished",
			slog.Int("customers", n), slog.Time("requested_at", payload.RequestedAt))
		return nil
	}
}

// NewWageSnapshotHandler returns the asynq handler that computes and stores a
// wage snapshot per employee. Employees whose wage cannot be computed are
// logged and skipped; one bad record must not stall the rest.
func NewWageSnapshotHandler(svc *payroll.Service, repo payroll.Repository, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload WageSnapshotPayload
		if len(t.Payload()) > 0 {
			if err := json.Unmarshal(t.Payload(), &payload); err != nil {
				return fmt.Errorf("jobs: unmarshal snapshot payload: %w", err)
			}
		}
		// Cron tasks carry the payload they were registered with; stamp the
		// actual run time here.
		if payload.TakenAt.IsZero() {
			payload.TakenAt = time.Now()
		}

		employees, err := svc.ListEmployees(ctx)
		if err != nil {
			return fmt.Errorf("jobs: list employees: %w", err)
		}

		var taken, skipped int
		for _, emp := range employees {
			breakdown, err := svc.CalculateWage(ctx, emp.ID)
			if err != nil {
				logger.Warn("wage snapshot skipped",
					slog.String("employee", emp.Code), slog.Any("error", err))
				skipped++
				continue
			}
			_, err = repo.InsertWageSnapshot(ctx, payroll.WageSnapshot{
				EmployeeID:    emp.ID,
				TakenAt:       payload.TakenAt,
				PresentDays:   breakdown.PresentDays,
				OvertimeHours: breakdown.OvertimeHours,
				TotalWage:     breakdown.TotalWage,
			})
			if err != nil {
				logger.Warn("wage snapshot insert failed",
					slog.String("employee", emp.Code), slog.Any("error", err))
				skipped++
				continue
			}
			taken++
		}

		logger.Info("wage snapshots finished",
			slog.Int("taken", taken), slog.Int("skipped", skipped))
		return nil
	}
}
