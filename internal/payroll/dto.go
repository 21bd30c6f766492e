package payroll

import "time"

// CreateEmployeeInput is the request body for registering an employee.
type CreateEmployeeInput struct {
	Code          string     `json:"code" validate:"required"`
	Name          string     `json:"name" validate:"required"`
	Email         *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string    `json:"phone,omitempty"`
	Department    *string    `json:"department,omitempty"`
	Position      *string    `json:"position,omitempty"`
	DailyWage     float64    `json:"daily_wage" validate:"required,gt=0"`
	MonthlySalary *float64   `json:"monthly_salary,omitempty" validate:"omitempty,gt=0"`
	JoiningDate   *time.Time `json:"joining_date,omitempty"`
}

// UpdateEmployeeInput carries partial employee updates. Zero values leave the
// stored field alone.
type UpdateEmployeeInput struct {
	Name          string     `json:"name,omitempty"`
	Email         *string    `json:"email,omitempty" validate:"omitempty,email"`
	Phone         *string    `json:"phone,omitempty"`
	Department    *string    `json:"department,omitempty"`
	Position      *string    `json:"position,omitempty"`
	DailyWage     float64    `json:"daily_wage,omitempty" validate:"omitempty,gt=0"`
	MonthlySalary *float64   `json:"monthly_salary,omitempty" validate:"omitempty,gt=0"`
	JoiningDate   *time.Time `json:"joining_date,omitempty"`
}

// AddAttendanceInput is the request body for one day's attendance.
type AddAttendanceInput struct {
	Date          time.Time        `json:"date"`
	Status        AttendanceStatus `json:"status" validate:"required"`
	OvertimeHours float64          `json:"overtime_hours" validate:"gte=0"`
}

func (in CreateEmployeeInput) employee() Employee {
	return Employee{
		Code:          in.Code,
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Department:    in.Department,
		Position:      in.Position,
		DailyWage:     in.DailyWage,
		MonthlySalary: in.MonthlySalary,
		JoiningDate:   in.JoiningDate,
	}
}

func (in UpdateEmployeeInput) employee() Employee {
	return Employee{
		Name:          in.Name,
		Email:         in.Email,
		Phone:         in.Phone,
		Department:    in.Department,
		Position:      in.Position,
		DailyWage:     in.DailyWage,
		MonthlySalary: in.MonthlySalary,
		JoiningDate:   in.JoiningDate,
	}
}
