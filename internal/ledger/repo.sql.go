package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tillbook/tillbook/internal/platform/db"
	"github.com/tillbook/tillbook/internal/shared"
)

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// PGRepository provides PostgreSQL backed persistence for the ledger.
type PGRepository struct {
	db   dbtx
	pool *pgxpool.Pool
}

// NewRepository constructs a repository over a pgx pool.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{db: pool, pool: pool}
}

// WithTx runs fn against a repository bound to a repeatable-read transaction.
func (r *PGRepository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &PGRepository{db: tx, pool: r.pool})
	})
}

const orderColumns = `o.id, o.number, o.customer_id, c.name, o.item_name, o.quantity, o.unit_price,
o.total_amount, o.advance_payment, o.due_amount, o.status, o.payment_state,
o.order_date, o.due_date, o.notes, o.created_at, o.updated_at`

func (r *PGRepository) CreateOrder(ctx context.Context, o Order) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO orders
(number, customer_id, item_name, quantity, unit_price, total_amount, advance_payment, due_amount,
 status, payment_state, order_date, due_date, notes, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,NOW(),NOW()) RETURNING id`,
		o.Number, o.CustomerID, o.ItemName, o.Quantity, o.UnitPrice, o.TotalAmount,
		o.AdvancePayment, o.DueAmount, o.Status, o.PaymentState, o.OrderDate, o.DueDate, o.Notes).Scan(&id)
	return id, err
}

func (r *PGRepository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.id = $1`, orderColumns), id)
	return scanOrder(row, id)
}

func (r *PGRepository) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.number = $1`, orderColumns), number)
	o := &Order{}
	if err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.CustomerName, &o.ItemName, &o.Quantity, &o.UnitPrice,
		&o.TotalAmount, &o.AdvancePayment, &o.DueAmount, &o.Status, &o.PaymentState,
		&o.OrderDate, &o.DueDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ledger: order %s: %w", number, shared.ErrNotFound)
		}
		return nil, err
	}
	return o, nil
}

func (r *PGRepository) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders o JOIN customers c ON o.customer_id = c.id`, orderColumns)
	var conditions []string
	var args []interface{}

	if req.CustomerID > 0 {
		args = append(args, req.CustomerID)
		conditions = append(conditions, fmt.Sprintf("o.customer_id = $%d", len(args)))
	}
	if req.Status != "" {
		args = append(args, req.Status)
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", len(args)))
	}
	if req.DateFrom != nil {
		args = append(args, *req.DateFrom)
		conditions = append(conditions, fmt.Sprintf("o.order_date >= $%d", len(args)))
	}
	if req.DateTo != nil {
		args = append(args, *req.DateTo)
		conditions = append(conditions, fmt.Sprintf("o.order_date <= $%d", len(args)))
	}
	for i, cond := range conditions {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	args = append(args, req.Limit)
	query += fmt.Sprintf(" ORDER BY o.created_at DESC, o.id DESC LIMIT $%d", len(args))
	args = append(args, req.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *PGRepository) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`SELECT %s FROM orders o JOIN customers c ON o.customer_id = c.id
WHERE o.customer_id = $1 ORDER BY o.order_date DESC, o.id DESC`, orderColumns), customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectOrders(rows)
}

func (r *PGRepository) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error {
	tag, err := r.db.Exec(ctx, `UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: order %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) UpdateOrderBalance(ctx context.Context, id int64, due float64, state PaymentState) error {
	_, err := r.db.Exec(ctx, `UPDATE orders SET due_amount = $1, payment_state = $2, updated_at = NOW() WHERE id = $3`, due, state, id)
	return err
}

func (r *PGRepository) DeleteOrder(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM orders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: order %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *PGRepository) CountOrdersOn(ctx context.Context, day time.Time) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders WHERE order_date::date = $1::date`, day).Scan(&count)
	return count, err
}

func (r *PGRepository) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO transactions
(reference, order_id, amount, method, type, notes, paid_at, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,NOW()) RETURNING id`,
		p.Reference, p.OrderID, p.Amount, p.Method, p.Type, p.Notes, p.PaidAt).Scan(&id)
	return id, err
}

func (r *PGRepository) ListPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	rows, err := r.db.Query(ctx, `SELECT id, reference, order_id, amount, method, type, notes, paid_at, created_at
FROM transactions WHERE order_id = $1 ORDER BY paid_at, id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Reference, &p.OrderID, &p.Amount, &p.Method, &p.Type, &p.Notes, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (r *PGRepository) ListPaymentsWithOrders(ctx context.Context) ([]PaymentWithOrder, error) {
	rows, err := r.db.Query(ctx, `SELECT t.id, t.reference, t.order_id, t.amount, t.method, t.type, t.notes, t.paid_at, t.created_at,
o.number, c.name, o.status
FROM transactions t
JOIN orders o ON t.order_id = o.id
JOIN customers c ON o.customer_id = c.id
ORDER BY t.created_at DESC, t.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PaymentWithOrder
	for rows.Next() {
		var p PaymentWithOrder
		if err := rows.Scan(&p.ID, &p.Reference, &p.OrderID, &p.Amount, &p.Method, &p.Type, &p.Notes, &p.PaidAt, &p.CreatedAt,
			&p.OrderNumber, &p.CustomerName, &p.OrderStatus); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PGRepository) DeletePaymentsForOrder(ctx context.Context, orderID int64) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM transactions WHERE order_id = $1`, orderID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PGRepository) CreateCustomer(ctx context.Context, c Customer) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `INSERT INTO customers (name, phone, tax_id, address, due_payment, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,NOW(),NOW()) RETURNING id`,
		c.Name, c.Phone, c.TaxID, c.Address, c.DuePayment).Scan(&id)
	return id, err
}

func (r *PGRepository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	c := &Customer{}
	err := r.db.QueryRow(ctx, `SELECT id, name, phone, tax_id, address, due_payment, created_at, updated_at
FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Phone, &c.TaxID, &c.Address, &c.DuePayment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ledger: customer %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *PGRepository) GetCustomerByName(ctx context.Context, name string) (*Customer, error) {
	c := &Customer{}
	err := r.db.QueryRow(ctx, `SELECT id, name, phone, tax_id, address, due_payment, created_at, updated_at
FROM customers WHERE name = $1`, name).
		Scan(&c.ID, &c.Name, &c.Phone, &c.TaxID, &c.Address, &c.DuePayment, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ledger: customer %q: %w", name, shared.ErrNotFound)
		}
		return nil, err
	}
	return c, nil
}

func (r *PGRepository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, phone, tax_id, address, due_payment, created_at, updated_at
FROM customers ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.Name, &c.Phone, &c.TaxID, &c.Address, &c.DuePayment, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *PGRepository) UpdateCustomerBalance(ctx context.Context, id int64, due float64) error {
	_, err := r.db.Exec(ctx, `UPDATE customers SET due_payment = $1, updated_at = NOW() WHERE id = $2`, due, id)
	return err
}

func (r *PGRepository) DeleteCustomer(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("ledger: customer %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func scanOrder(row pgx.Row, id int64) (*Order, error) {
	o := &Order{}
	if err := row.Scan(&o.ID, &o.Number, &o.CustomerID, &o.CustomerName, &o.ItemName, &o.Quantity, &o.UnitPrice,
		&o.TotalAmount, &o.AdvancePayment, &o.DueAmount, &o.Status, &o.PaymentState,
		&o.OrderDate, &o.DueDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("ledger: order %d: %w", id, shared.ErrNotFound)
		}
		return nil, err
	}
	return o, nil
}

func collectOrders(rows pgx.Rows) ([]Order, error) {
	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerID, &o.CustomerName, &o.ItemName, &o.Quantity, &o.UnitPrice,
			&o.TotalAmount, &o.AdvancePayment, &o.DueAmount, &o.Status, &o.PaymentState,
			&o.OrderDate, &o.DueDate, &o.Notes, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}
