package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tillbook/tillbook/internal/shared"
)

const (
	// MinDailyWage and MaxDailyWage bound what a plausible daily wage can be.
	MinDailyWage = 1.0
	MaxDailyWage = 50000.0

	defaultDayHours = 8.0
	defaultBonusPct = 8.33
)

// Config tunes the wage formulas.
type Config struct {
	// StandardDayHours is the assumed working day used to derive the hourly
	// overtime rate from the daily wage.
	StandardDayHours float64
	// BonusRatePct is the default yearly bonus accrual rate.
	BonusRatePct float64
}

// Service implements wage calculation, the last_paid watermark, attendance
// entry and employee management.
type Service struct {
	repo   Repository
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds a Service instance.
func NewService(repo Repository, cfg Config, logger *slog.Logger) *Service {
	if cfg.StandardDayHours <= 0 {
		cfg.StandardDayHours = defaultDayHours
	}
	if cfg.BonusRatePct <= 0 {
		cfg.BonusRatePct = defaultBonusPct
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

// CalculateWage computes the wage owed for attendance recorded strictly after
// the employee's last_paid watermark. An empty window yields an all-zero
// breakdown, not an error.
func (s *Service) CalculateWage(ctx context.Context, employeeID int64) (*WageBreakdown, error) {
	emp, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	if emp.DailyWage <= 0 {
		return nil, fmt.Errorf("payroll: employee %s has no daily wage set: %w", emp.Code, shared.ErrValidation)
	}

	records, err := s.repo.ListAttendanceSince(ctx, employeeID, emp.LastPaid)
	if err != nil {
		return nil, fmt.Errorf("payroll: list attendance: %w", err)
	}

	presentDays, overtimeHours := tallyAttendance(records)
	total := presentDays*emp.DailyWage + (emp.DailyWage/s.cfg.StandardDayHours)*overtimeHours

	return &WageBreakdown{
		EmployeeID:    emp.ID,
		Code:          emp.Code,
		Name:          emp.Name,
		DailyWage:     emp.DailyWage,
		PeriodStart:   emp.LastPaid,
		PeriodEnd:     s.now(),
		PresentDays:   presentDays,
		OvertimeHours: shared.Round2(overtimeHours),
		TotalWage:     shared.Round2(total),
	}, nil
}

// MarkAsPaid advances the last_paid watermark to now, emptying the next wage
// window. Repeated calls are harmless.
func (s *Service) MarkAsPaid(ctx context.Context, employeeID int64) (*Employee, error) {
	emp, err := s.repo.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.repo.AdvanceLastPaid(ctx, employeeID, now); err != nil {
		return nil, fmt.Errorf("payroll: advance last_paid: %w", err)
	}
	s.logger.Info("wage paid", slog.String("employee", emp.Code), slog.Time("last_paid", now))
	return s.repo.GetEmployee(ctx, employeeID)
}

// tallyAttendance weighs present days: Present and Overtime count 1, Half Day
// counts 0.5, and overtime hours accrue only on Overtime records.
func tallyAttendance(records []AttendanceRecord) (presentDays, overtimeHours float64) {
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			presentDays++
		case StatusOvertime:
			presentDays++
			overtimeHours += rec.OvertimeHours
		case StatusHalfDay:
			presentDays += 0.5
		}
	}
	return presentDays, overtimeHours
}

// CreateEmployee registers an employee. The daily wage is required up front
// and last_paid starts at the joining date so no wage accrues for days before
// employment.
func (s *Service) CreateEmployee(ctx context.Context, e Employee) (*Employee, error) {
	e.Code = strings.TrimSpace(e.Code)
	e.Name = strings.TrimSpace(e.Name)
	if e.Code == "" || e.Name == "" {
		return nil, fmt.Errorf("payroll: employee code and name are required: %w", shared.ErrValidation)
	}
	if err := validateDailyWage(e.DailyWage); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetEmployeeByCode(ctx, e.Code); err == nil {
		return nil, fmt.Errorf("payroll: employee %s already exists: %w", e.Code, shared.ErrDuplicate)
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if e.LastPaid == nil && e.JoiningDate != nil {
		e.LastPaid = e.JoiningDate
	}
	if e.LastBonusPaid == nil && e.JoiningDate != nil {
		e.LastBonusPaid = e.JoiningDate
	}

	id, err := s.repo.CreateEmployee(ctx, e)
	if err != nil {
		return nil, fmt.Errorf("payroll: create employee: %w", err)
	}
	e.ID = id
	return &e, nil
}

// UpdateEmployee rewrites mutable employee fields. The watermarks are not
// touched here; they move only through the paid operations.
func (s *Service) UpdateEmployee(ctx context.Context, id int64, e Employee) (*Employee, error) {
	existing, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.DailyWage != 0 {
		if err := validateDailyWage(e.DailyWage); err != nil {
			return nil, err
		}
		existing.DailyWage = e.DailyWage
	}
	if strings.TrimSpace(e.Name) != "" {
		existing.Name = strings.TrimSpace(e.Name)
	}
	if e.Email != nil {
		existing.Email = e.Email
	}
	if e.Phone != nil {
		existing.Phone = e.Phone
	}
	if e.Department != nil {
		existing.Department = e.Department
	}
	if e.Position != nil {
		existing.Position = e.Position
	}
	if e.MonthlySalary != nil {
		existing.MonthlySalary = e.MonthlySalary
	}
	if e.JoiningDate != nil {
		existing.JoiningDate = e.JoiningDate
	}
	if err := s.repo.UpdateEmployee(ctx, id, *existing); err != nil {
		return nil, fmt.Errorf("payroll: update employee: %w", err)
	}
	return existing, nil
}

// GetEmployee fetches one employee.
func (s *Service) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.GetEmployee(ctx, id)
}

// ListEmployees returns all employees.
func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.repo.ListEmployees(ctx)
}

// DeleteEmployee removes the employee record.
func (s *Service) DeleteEmployee(ctx context.Context, id int64) error {
	if _, err := s.repo.GetEmployee(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteEmployee(ctx, id)
}

// AddAttendance records one day's attendance, rejecting a second record for
// the same employee and day. Overtime hours are zeroed unless the status is
// Overtime.
func (s *Service) AddAttendance(ctx context.Context, rec AttendanceRecord) (*AttendanceRecord, error) {
	if !ValidAttendanceStatus(rec.Status) {
		return nil, fmt.Errorf("payroll: unknown attendance status %q: %w", rec.Status, shared.ErrValidation)
	}
	if rec.OvertimeHours < 0 {
		return nil, fmt.Errorf("payroll: overtime hours cannot be negative: %w", shared.ErrValidation)
	}
	if rec.Status != StatusOvertime {
		rec.OvertimeHours = 0
	}
	if rec.Date.IsZero() {
		rec.Date = s.now()
	}
	if _, err := s.repo.GetEmployee(ctx, rec.EmployeeID); err != nil {
		return nil, err
	}
	if existing, err := s.repo.GetAttendanceOn(ctx, rec.EmployeeID, rec.Date); err == nil && existing != nil {
		return nil, fmt.Errorf("payroll: attendance already recorded for %s: %w",
			rec.Date.Format("2006-01-02"), shared.ErrDuplicate)
	} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	id, err := s.repo.AddAttendance(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("payroll: add attendance: %w", err)
	}
	rec.ID = id
	return &rec, nil
}

// ListAttendance returns an employee's attendance history, newest first.
func (s *Service) ListAttendance(ctx context.Context, employeeID int64) ([]AttendanceRecord, error) {
	if _, err := s.repo.GetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.repo.ListAttendance(ctx, employeeID)
}

// DeleteAttendance removes one attendance record.
func (s *Service) DeleteAttendance(ctx context.Context, id int64) error {
	return s.repo.DeleteAttendance(ctx, id)
}

func validateDailyWage(wage float64) error {
	if wage < MinDailyWage || wage > MaxDailyWage {
		return fmt.Errorf("payroll: daily wage %.2f outside %.0f-%.0f: %w",
			wage, MinDailyWage, MaxDailyWage, shared.ErrValidation)
	}
	return nil
}
