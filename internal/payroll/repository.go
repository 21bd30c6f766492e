package payroll

import (
	"context"
	"time"
)

// Repository defines data access for employees and attendance.
type Repository interface {
	CreateEmployee(ctx context.Context, e Employee) (int64, error)
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	GetEmployeeByCode(ctx context.Context, code string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	UpdateEmployee(ctx context.Context, id int64, e Employee) error
	DeleteEmployee(ctx context.Context, id int64) error

	// AdvanceLastPaid moves the watermark forward; it must never move it back.
	AdvanceLastPaid(ctx context.Context, id int64, to time.Time) error
	AdvanceLastBonusPaid(ctx context.Context, id int64, to time.Time) error

	AddAttendance(ctx context.Context, rec AttendanceRecord) (int64, error)
	GetAttendanceOn(ctx context.Context, employeeID int64, day time.Time) (*AttendanceRecord, error)
	ListAttendance(ctx context.Context, employeeID int64) ([]AttendanceRecord, error)
	ListAttendanceSince(ctx context.Context, employeeID int64, since *time.Time) ([]AttendanceRecord, error)
	DeleteAttendance(ctx context.Context, id int64) error

	InsertWageSnapshot(ctx context.Context, snap WageSnapshot) (int64, error)
}
