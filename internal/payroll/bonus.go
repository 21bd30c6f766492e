package payroll

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tillbook/tillbook/internal/shared"
)

// CalculateBonus accrues the yearly bonus: earnings over attendance since
// last_bonus_paid (falling back to the joining date) times the bonus rate.
// The bonus comes due one year after the reference date.
func (s *Service) CalculateBonus(ctx context.Context, employeeID int64, ratePct float64) (*BonusBreakdown, error) {
	emp, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.DailyWage <= 0 {
		return nil, fmt.Errorf("payroll: employee %s has no daily wage set: %w", emp.Code, shared.ErrValidation)
	}
	if ratePct <= 0 {
		ratePct = s.cfg.BonusRatePct
	}

	reference := emp.LastBonusPaid
	if reference == nil {
		reference = emp.JoiningDate
	}

	records, err := s.repo.ListAttendanceSince(ctx, employeeID, reference)
	if err != nil {
		return nil, fmt.Errorf("payroll: list attendance: %w", err)
	}

	presentDays, overtimeHours := tallyAttendance(records)
	earnings := presentDays*emp.DailyWage + (emp.DailyWage/s.cfg.StandardDayHours)*overtimeHours

	now := s.now()
	nextDue := now.AddDate(1, 0, 0)
	if reference != nil {
		nextDue = reference.AddDate(1, 0, 0)
	}

	return &BonusBreakdown{
		EmployeeID:  emp.ID,
		Code:        emp.Code,
		Name:        emp.Name,
		Earnings:    shared.Round2(earnings),
		RatePct:     ratePct,
		BonusAmount: shared.Round2(earnings * ratePct / 100),
		NextDueDate: nextDue,
		IsDue:       !nextDue.After(now),
	}, nil
}

// MarkBonusPaid advances the bonus watermark to now. Like last_paid, it only
// moves forward.
func (s *Service) MarkBonusPaid(ctx context.Context, employeeID int64) (*Employee, error) {
	emp, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.repo.AdvanceLastBonusPaid(ctx, employeeID, now); err != nil {
		return nil, fmt.Errorf("payroll: advance last_bonus_paid: %w", err)
	}
	s.logger.Info("bonus paid", slog.String("employee", emp.Code), slog.Time("last_bonus_paid", now))
	return s.repo.GetEmployee(ctx, employeeID)
}
