package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillbook/tillbook/internal/shared"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGRepository provides PostgreSQL backed persistence for payroll.
type PGRepository struct {
	db dbtx
}

// NewRepository constructs a repository over a pgx pool.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool}
}

const employeeColumns = `id, code, name, email, phone, department, position, daily_wage,
monthly_salary, joining_date, last_paid, last_bonus_paid, created_at, updated_at`

func (r *PGRepository) CreateEmployee(ctx context.Context, e Employee) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO employees
(code, name, email, phone, department, position, daily_wage, monthly_salary,
 joining_date, last_paid, last_bonus_paid, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,NOW(),NOW()) RETURNING id`,
		e.Code, e.Name, e.Email, e.Phone, e.Department, e.Position, e.DailyWage,
		e.MonthlySalary, e.JoiningDate, e.LastPaid, e.LastBonusPaid).Scan(&id)
	return id, err
}

func (r *PGRepository) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM employees WHERE id = $1`, employeeColumns), id)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payroll: employee %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return e, nil
}

func (r *PGRepository) GetEmployeeByCode(ctx context.Context, code string) (*Employee, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM employees WHERE code = $1`, employeeColumns), code)
	e, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payroll: employee %q: %w", code, shared.ErrNotFound)
		}
		return nil, err
	}
	return e, nil
}

func (r *PGRepository) ListEmployees(ctx context.Context) ([]Employee, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM employees ORDER BY name, id`, employeeColumns))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *e)
	}
	return employees, rows.Err()
}

func (r *PGRepository) UpdateEmployee(ctx context.Context, id int64, e Employee) error {
	tag, err := r.db.Exec(ctx, `UPDATE employees SET
name = $1, email = $2, phone = $3, department = $4, position = $5,
daily_wage = $6, monthly_salary = $7, joining_date = $8, updated_at = NOW()
WHERE id = $9`,
		e.Name, e.Email, e.Phone, e.Department, e.Position,
		e.DailyWage, e.MonthlySalary, e.JoiningDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payroll: employee %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) DeleteEmployee(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payroll: employee %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// AdvanceLastPaid moves the watermark forward only. A stale target leaves the
// row untouched rather than rewinding it.
func (r *PGRepository) AdvanceLastPaid(ctx context.Context, id int64, to time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE employees SET last_paid = $2, updated_at = NOW()
WHERE id = $1 AND (last_paid IS NULL OR last_paid < $2)`, id, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if err := r.employeeExists(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepository) AdvanceLastBonusPaid(ctx context.Context, id int64, to time.Time) error {
	tag, err := r.db.Exec(ctx, `UPDATE employees SET last_bonus_paid = $2, updated_at = NOW()
WHERE id = $1 AND (last_bonus_paid IS NULL OR last_bonus_paid < $2)`, id, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		if err := r.employeeExists(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *PGRepository) employeeExists(ctx context.Context, id int64) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("payroll: employee %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) AddAttendance(ctx context.Context, rec AttendanceRecord) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO attendance (employee_id, date, status, overtime_hours, created_at)
VALUES ($1,$2,$3,$4,NOW()) RETURNING id`,
		rec.EmployeeID, rec.Date, rec.Status, rec.OvertimeHours).Scan(&id)
	return id, err
}

func (r *PGRepository) GetAttendanceOn(ctx context.Context, employeeID int64, day time.Time) (*AttendanceRecord, error) {
	rec := &AttendanceRecord{}
	err := r.db.QueryRow(ctx, `SELECT id, employee_id, date, status, overtime_hours, created_at
FROM attendance WHERE employee_id = $1 AND date::date = $2::date`, employeeID, day).
		Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Status, &rec.OvertimeHours, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("payroll: attendance for employee %d: %w", employeeID, shared.ErrNotFound)
		}
		return nil, err
	}
	return rec, nil
}

func (r *PGRepository) ListAttendance(ctx context.Context, employeeID int64) ([]AttendanceRecord, error) {
	rows, err := r.db.Query(ctx, `SELECT id, employee_id, date, status, overtime_hours, created_at
FROM attendance WHERE employee_id = $1 ORDER BY date DESC, id DESC`, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func (r *PGRepository) ListAttendanceSince(ctx context.Context, employeeID int64, since *time.Time) ([]AttendanceRecord, error) {
	query := `SELECT id, employee_id, date, status, overtime_hours, created_at
FROM attendance WHERE employee_id = $1`
	args := []interface{}{employeeID}
	if since != nil {
		args = append(args, *since)
		query += fmt.Sprintf(" AND date > $%d", len(args))
	}
	query += " ORDER BY date, id"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttendance(rows)
}

func (r *PGRepository) DeleteAttendance(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM attendance WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("payroll: attendance %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) InsertWageSnapshot(ctx context.Context, snap WageSnapshot) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO wage_snapshots (employee_id, taken_at, present_days, overtime_hours, total_wage)
VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		snap.EmployeeID, snap.TakenAt, snap.PresentDays, snap.OvertimeHours, snap.TotalWage).Scan(&id)
	return id, err
}

func scanEmployee(row pgx.Row) (*Employee, error) {
	e := &Employee{}
	if err := row.Scan(&e.ID, &e.Code, &e.Name, &e.Email, &e.Phone, &e.Department, &e.Position, &e.DailyWage,
		&e.MonthlySalary, &e.JoiningDate, &e.LastPaid, &e.LastBonusPaid, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return e, nil
}

func collectAttendance(rows pgx.Rows) ([]AttendanceRecord, error) {
	var records []AttendanceRecord
	for rows.Next() {
		var rec AttendanceRecord
		if err := rows.Scan(&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Status, &rec.OvertimeHours, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
