package payroll

import "time"

// AttendanceStatus enumerates one day's attendance outcome.
type AttendanceStatus string

const (
	StatusPresent  AttendanceStatus = "Present"
	StatusAbsent   AttendanceStatus = "Absent"
	StatusLeave    AttendanceStatus = "Leave"
	StatusHalfDay  AttendanceStatus = "Half Day"
	StatusOvertime AttendanceStatus = "Overtime"
)

// ValidAttendanceStatus reports whether s is a known status.
func ValidAttendanceStatus(s AttendanceStatus) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLeave, StatusHalfDay, StatusOvertime:
		return true
	}
	return false
}

// Employee is a wage-earning subject. LastPaid is the watermark bounding the
// attendance window for wage calculation; it only moves forward and only via
// MarkAsPaid. MonthlySalary survives from pre-migration records and feeds the
// one-time daily_wage derivation.
type Employee struct {
	ID            int64      `json:"id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	Email         *string    `json:"email,omitempty"`
	Phone         *string    `json:"phone,omitempty"`
	Department    *string    `json:"department,omitempty"`
	Position      *string    `json:"position,omitempty"`
	DailyWage     float64    `json:"daily_wage"`
	MonthlySalary *float64   `json:"monthly_salary,omitempty"`
	JoiningDate   *time.Time `json:"joining_date,omitempty"`
	LastPaid      *time.Time `json:"last_paid,omitempty"`
	LastBonusPaid *time.Time `json:"last_bonus_paid,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AttendanceRecord is one day's attendance for one employee. OvertimeHours is
// meaningful only when Status is Overtime and treated as zero otherwise.
type AttendanceRecord struct {
	ID            int64            `json:"id"`
	EmployeeID    int64            `json:"employee_id"`
	Date          time.Time        `json:"date"`
	Status        AttendanceStatus `json:"status"`
	OvertimeHours float64          `json:"overtime_hours"`
	CreatedAt     time.Time        `json:"created_at"`
}

// WageBreakdown is the result of a wage calculation over the window since the
// employee's last_paid watermark.
type WageBreakdown struct {
	EmployeeID    int64      `json:"employee_id"`
	Code          string     `json:"code"`
	Name          string     `json:"name"`
	DailyWage     float64    `json:"daily_wage"`
	PeriodStart   *time.Time `json:"period_start,omitempty"`
	PeriodEnd     time.Time  `json:"period_end"`
	PresentDays   float64    `json:"present_days"`
	OvertimeHours float64    `json:"overtime_hours"`
	TotalWage     float64    `json:"total_wage"`
}

// BonusBreakdown is the yearly bonus accrual since last_bonus_paid.
type BonusBreakdown struct {
	EmployeeID  int64     `json:"employee_id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Earnings    float64   `json:"earnings"`
	RatePct     float64   `json:"rate_pct"`
	BonusAmount float64   `json:"bonus_amount"`
	NextDueDate time.Time `json:"next_due_date"`
	IsDue       bool      `json:"is_due"`
}

// WageSnapshot is a periodic accrual record written by the snapshot job for
// reporting trends without recomputing history.
type WageSnapshot struct {
	ID            int64     `json:"id"`
	EmployeeID    int64     `json:"employee_id"`
	TakenAt       time.Time `json:"taken_at"`
	PresentDays   float64   `json:"present_days"`
	OvertimeHours float64   `json:"overtime_hours"`
	TotalWage     float64   `json:"total_wage"`
}
