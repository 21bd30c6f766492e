package migration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillbook/tillbook/internal/platform/db"
)

// schema is the full application schema, applied idempotently at startup.
// legacy_sales is deliberately absent: it only exists on installs upgraded
// from the pre-ledger version.
const schema = `
CREATE TABLE IF NOT EXISTS customers (
	id          BIGSERIAL PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	phone       TEXT NOT NULL DEFAULT '',
	tax_id      TEXT,
	address     TEXT,
	due_payment DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS orders (
	id              BIGSERIAL PRIMARY KEY,
	number          TEXT NOT NULL UNIQUE,
	customer_id     BIGINT NOT NULL REFERENCES customers(id),
	item_name       TEXT NOT NULL,
	quantity        BIGINT NOT NULL,
	unit_price      DOUBLE PRECISION NOT NULL,
	total_amount    DOUBLE PRECISION NOT NULL,
	advance_payment DOUBLE PRECISION NOT NULL DEFAULT 0,
	due_amount      DOUBLE PRECISION NOT NULL DEFAULT 0,
	status          TEXT NOT NULL,
	payment_state   TEXT NOT NULL,
	order_date      TIMESTAMPTZ NOT NULL,
	due_date        TIMESTAMPTZ,
	notes           TEXT,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_orders_customer ON orders (customer_id);
CREATE INDEX IF NOT EXISTS idx_orders_order_date ON orders (order_date);

CREATE TABLE IF NOT EXISTS transactions (
	id         BIGSERIAL PRIMARY KEY,
	reference  TEXT NOT NULL UNIQUE,
	order_id   BIGINT NOT NULL REFERENCES orders(id),
	amount     DOUBLE PRECISION NOT NULL,
	method     TEXT NOT NULL,
	type       TEXT NOT NULL,
	notes      TEXT,
	paid_at    TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_transactions_order ON transactions (order_id);

CREATE TABLE IF NOT EXISTS employees (
	id              BIGSERIAL PRIMARY KEY,
	code            TEXT NOT NULL UNIQUE,
	name            TEXT NOT NULL,
	email           TEXT,
	phone           TEXT,
	department      TEXT,
	position        TEXT,
	daily_wage      DOUBLE PRECISION NOT NULL DEFAULT 0,
	monthly_salary  DOUBLE PRECISION,
	joining_date    TIMESTAMPTZ,
	last_paid       TIMESTAMPTZ,
	last_bonus_paid TIMESTAMPTZ,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS attendance (
	id             BIGSERIAL PRIMARY KEY,
	employee_id    BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
	date           TIMESTAMPTZ NOT NULL,
	status         TEXT NOT NULL,
	overtime_hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_attendance_employee_date ON attendance (employee_id, date);

CREATE TABLE IF NOT EXISTS wage_snapshots (
	id             BIGSERIAL PRIMARY KEY,
	employee_id    BIGINT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
	taken_at       TIMESTAMPTZ NOT NULL,
	present_days   DOUBLE PRECISION NOT NULL,
	overtime_hours DOUBLE PRECISION NOT NULL,
	total_wage     DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS migration_runs (
	name         TEXT PRIMARY KEY,
	completed_at TIMESTAMPTZ NOT NULL
);
`

// PGStore is the PostgreSQL implementation of Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewStore constructs a store over a pgx pool.
func NewStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) EnsureInfra(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func (s *PGStore) Completed(ctx context.Context, name string) (bool, error) {
	var done bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM migration_runs WHERE name = $1)`, name).Scan(&done)
	return done, err
}

func (s *PGStore) MarkCompleted(ctx context.Context, name string, at time.Time) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO migration_runs (name, completed_at) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`,
		name, at)
	return err
}

func (s *PGStore) ListWageTargets(ctx context.Context) ([]WageTarget, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, code, daily_wage, monthly_salary, last_paid
FROM employees WHERE daily_wage <= 0 OR last_paid IS NULL ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []WageTarget
	for rows.Next() {
		var t WageTarget
		if err := rows.Scan(&t.ID, &t.Code, &t.DailyWage, &t.MonthlySalary, &t.LastPaid); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (s *PGStore) ApplyWageBackfill(ctx context.Context, id int64, dailyWage float64, lastPaid *time.Time) error {
	_, err := s.pool.Exec(ctx, `UPDATE employees SET daily_wage = $2,
last_paid = COALESCE(last_paid, $3), updated_at = NOW() WHERE id = $1`,
		id, dailyWage, lastPaid)
	return err
}

func (s *PGStore) HasLegacySales(ctx context.Context) (bool, error) {
	var present bool
	if err := s.pool.QueryRow(ctx, `SELECT to_regclass('legacy_sales') IS NOT NULL`).Scan(&present); err != nil {
		return false, err
	}
	if !present {
		return false, nil
	}
	// Older installs may predate the migrated flag.
	_, err := s.pool.Exec(ctx,
		`ALTER TABLE legacy_sales ADD COLUMN IF NOT EXISTS migrated BOOLEAN NOT NULL DEFAULT FALSE`)
	return true, err
}

func (s *PGStore) ListUnimportedSales(ctx context.Context) ([]LegacySale, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, customer_name, item_name, quantity, unit_price, total, sold_at
FROM legacy_sales WHERE NOT migrated ORDER BY sold_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sales []LegacySale
	for rows.Next() {
		var sale LegacySale
		if err := rows.Scan(&sale.ID, &sale.CustomerName, &sale.ItemName, &sale.Quantity,
			&sale.UnitPrice, &sale.Total, &sale.SoldAt); err != nil {
			return nil, err
		}
		sales = append(sales, sale)
	}
	return sales, rows.Err()
}

// ImportSale turns one legacy sale into a settled order with a single payment
// and flags the source row, all in one transaction.
func (s *PGStore) ImportSale(ctx context.Context, sale LegacySale) error {
	return db.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		var customerID int64
		err := tx.QueryRow(ctx, `SELECT id FROM customers WHERE name = $1`, sale.CustomerName).Scan(&customerID)
		if err != nil {
			if !errors.Is(err, pgx.ErrNoRows) {
				return err
			}
			if err := tx.QueryRow(ctx, `INSERT INTO customers (name, created_at, updated_at)
VALUES ($1, NOW(), NOW()) RETURNING id`, sale.CustomerName).Scan(&customerID); err != nil {
				return err
			}
		}

		var seq int64
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM orders WHERE order_date::date = $1::date`,
			sale.SoldAt).Scan(&seq); err != nil {
			return err
		}
		number := fmt.Sprintf("ORD%s%04d", sale.SoldAt.Format("20060102"), seq+1)

		var orderID int64
		if err := tx.QueryRow(ctx, `INSERT INTO orders
(number, customer_id, item_name, quantity, unit_price, total_amount, advance_payment, due_amount,
 status, payment_state, order_date, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,0,0,'Completed','Completed',$7,NOW(),NOW()) RETURNING id`,
			number, customerID, sale.ItemName, sale.Quantity, sale.UnitPrice, sale.Total,
			sale.SoldAt).Scan(&orderID); err != nil {
			return err
		}

		reference := "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:16]
		if _, err := tx.Exec(ctx, `INSERT INTO transactions
(reference, order_id, amount, method, type, notes, paid_at, created_at)
VALUES ($1,$2,$3,'Cash','payment','imported from legacy sales',$4,NOW())`,
			reference, orderID, sale.Total, sale.SoldAt); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `UPDATE legacy_sales SET migrated = TRUE WHERE id = $1`, sale.ID)
		return err
	})
}
