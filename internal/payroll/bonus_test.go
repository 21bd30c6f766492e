package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tillbook/tillbook/internal/shared"
)

func TestCalculateBonus(t *testing.T) {
	repo := newMemoryPayrollRepo()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestPayrollService(repo, now)
	ctx := context.Background()

	joined := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	emp, err := svc.CreateEmployee(ctx, Employee{
		Code: "EMP001", Name: "Ravi", DailyWage: 200, JoiningDate: &joined,
	})
	require.NoError(t, err)

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		seedAttendance(t, svc, emp.ID, day.AddDate(0, 0, i), StatusPresent, 0)
	}

	breakdown, err := svc.CalculateBonus(ctx, emp.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 2000.0, breakdown.Earnings)
	require.Equal(t, 8.33, breakdown.RatePct)
	require.Equal(t, 166.6, breakdown.BonusAmount)
	// Due one year after the joining date, which is in the past.
	require.Equal(t, joined.AddDate(1, 0, 0), breakdown.NextDueDate)
	require.True(t, breakdown.IsDue)
}

func TestCalculateBonusCustomRate(t *testing.T) {
	repo := newMemoryPayrollRepo()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestPayrollService(repo, now)
	ctx := context.Background()

	emp := seedEmployee(t, svc, 100)
	seedAttendance(t, svc, emp.ID, now.AddDate(0, 0, -1), StatusPresent, 0)

	breakdown, err := svc.CalculateBonus(ctx, emp.ID, 10)
	require.NoError(t, err)
	require.Equal(t, 10.0, breakdown.RatePct)
	require.Equal(t, 10.0, breakdown.BonusAmount)
}

func TestMarkBonusPaidResetsAccrual(t *testing.T) {
	repo := newMemoryPayrollRepo()
	now := time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)
	svc := newTestPayrollService(repo, now)
	ctx := context.Background()

	emp := seedEmployee(t, svc, 200)
	seedAttendance(t, svc, emp.ID, now.AddDate(0, 0, -2), StatusPresent, 0)

	paid, err := svc.MarkBonusPaid(ctx, emp.ID)
	require.NoError(t, err)
	require.NotNil(t, paid.LastBonusPaid)
	require.Equal(t, now, *paid.LastBonusPaid)

	breakdown, err := svc.CalculateBonus(ctx, emp.ID, 0)
	require.NoError(t, err)
	require.Equal(t, 0.0, breakdown.Earnings)
	require.Equal(t, 0.0, breakdown.BonusAmount)
	require.Equal(t, now.AddDate(1, 0, 0), breakdown.NextDueDate)
	require.False(t, breakdown.IsDue)
}

func TestCalculateBonusRequiresDailyWage(t *testing.T) {
	repo := newMemoryPayrollRepo()
	svc := newTestPayrollService(repo, time.Now())

	id, err := repo.CreateEmployee(context.Background(), Employee{Code: "EMP009", Name: "Old"})
	require.NoError(t, err)

	_, err = svc.CalculateBonus(context.Background(), id, 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}
