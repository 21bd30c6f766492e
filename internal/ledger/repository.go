package ledger

import (
	"context"
	"time"
)

// Repository defines data access for orders, payments and customers. The
// pgx-backed implementation lives in repo.sql.go; tests use a map-backed fake.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error

	CreateOrder(ctx context.Context, o Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	GetOrderByNumber(ctx context.Context, number string) (*Order, error)
	ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error
	UpdateOrderBalance(ctx context.Context, id int64, due float64, state PaymentState) error
	DeleteOrder(ctx context.Context, id int64) error
	CountOrdersOn(ctx context.Context, day time.Time) (int64, error)

	CreatePayment(ctx context.Context, p Payment) (int64, error)
	ListPayments(ctx context.Context, orderID int64) ([]Payment, error)
	ListPaymentsWithOrders(ctx context.Context) ([]PaymentWithOrder, error)
	DeletePaymentsForOrder(ctx context.Context, orderID int64) (int64, error)

	CreateCustomer(ctx context.Context, c Customer) (int64, error)
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	GetCustomerByName(ctx context.Context, name string) (*Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	UpdateCustomerBalance(ctx context.Context, id int64, due float64) error
	DeleteCustomer(ctx context.Context, id int64) error
}
