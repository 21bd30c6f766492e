package ledger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tillbook/tillbook/internal/shared"
)

type memoryLedgerRepo struct {
	mu     sync.Mutex
	orders         map[int64]*Order
	payments       map[int64]*Payment
	customers      map[int64]*Customer
	nextOrderID    int64
	nextPaymentID  int64
	nextCustomerID int64
}

func newMemoryLedgerRepo() *memoryLedgerRepo {
	return &memoryLedgerRepo{
		orders:    make(map[int64]*Order),
		payments:  make(map[int64]*Payment),
		customers: make(map[int64]*Customer),
	}
}

func (r *memoryLedgerRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, r)
}

func (r *memoryLedgerRepo) CreateOrder(ctx context.Context, o Order) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextOrderID++
	o.ID = r.nextOrderID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	r.orders[o.ID] = &o
	return o.ID, nil
}

func (r *memoryLedgerRepo) GetOrder(ctx context.Context, id int64) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("ledger: order %d: %w", id, shared.ErrNotFound)
	}
	cp := *o
	return &cp, nil
}

func (r *memoryLedgerRepo) GetOrderByNumber(ctx context.Context, number string) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.Number == number {
			cp := *o
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("ledger: order %s: %w", number, shared.ErrNotFound)
}

func (r *memoryLedgerRepo) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Order
	for _, o := range r.orders {
		if req.CustomerID > 0 && o.CustomerID != req.CustomerID {
			continue
		}
		if req.Status != "" && o.Status != req.Status {
			continue
		}
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryLedgerRepo) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Order
	for _, o := range r.orders {
		if o.CustomerID == customerID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderDate.After(out[j].OrderDate) })
	return out, nil
}

func (r *memoryLedgerRepo) UpdateOrderStatus(ctx context.Context, id int64, status OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("ledger: order %d: %w", id, shared.ErrNotFound)
	}
	o.Status = status
	return nil
}

func (r *memoryLedgerRepo) UpdateOrderBalance(ctx context.Context, id int64, due float64, state PaymentState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return fmt.Errorf("ledger: order %d: %w", id, shared.ErrNotFound)
	}
	o.DueAmount = due
	o.PaymentState = state
	return nil
}

func (r *memoryLedgerRepo) DeleteOrder(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[id]; !ok {
		return fmt.Errorf("ledger: order %d: %w", id, shared.ErrNotFound)
	}
	delete(r.orders, id)
	return nil
}

func (r *memoryLedgerRepo) CountOrdersOn(ctx context.Context, day time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	y, m, d := day.Date()
	for _, o := range r.orders {
		oy, om, od := o.OrderDate.Date()
		if oy == y && om == m && od == d {
			count++
		}
	}
	return count, nil
}

func (r *memoryLedgerRepo) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextPaymentID++
	p.ID = r.nextPaymentID
	p.CreatedAt = time.Now()
	r.payments[p.ID] = &p
	return p.ID, nil
}

func (r *memoryLedgerRepo) ListPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Payment
	for _, p := range r.payments {
		if p.OrderID == orderID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PaidAt.Equal(out[j].PaidAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].PaidAt.Before(out[j].PaidAt)
	})
	return out, nil
}

func (r *memoryLedgerRepo) ListPaymentsWithOrders(ctx context.Context) ([]PaymentWithOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PaymentWithOrder
	for _, p := range r.payments {
		o, ok := r.orders[p.OrderID]
		if !ok {
			continue
		}
		out = append(out, PaymentWithOrder{
			Payment:      *p,
			OrderNumber:  o.Number,
			CustomerName: o.CustomerName,
			OrderStatus:  o.Status,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memoryLedgerRepo) DeletePaymentsForOrder(ctx context.Context, orderID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, p := range r.payments {
		if p.OrderID == orderID {
			delete(r.payments, id)
			n++
		}
	}
	return n, nil
}

func (r *memoryLedgerRepo) CreateCustomer(ctx context.Context, c Customer) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextCustomerID++
	c.ID = r.nextCustomerID
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.customers[c.ID] = &c
	return c.ID, nil
}

func (r *memoryLedgerRepo) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return nil, fmt.Errorf("ledger: customer %d: %w", id, shared.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (r *memoryLedgerRepo) GetCustomerByName(ctx context.Context, name string) (*Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.customers {
		if c.Name == name {
			cp := *c
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("ledger: customer %q: %w", name, shared.ErrNotFound)
}

func (r *memoryLedgerRepo) ListCustomers(ctx context.Context) ([]Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryLedgerRepo) UpdateCustomerBalance(ctx context.Context, id int64, due float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[id]
	if !ok {
		return fmt.Errorf("ledger: customer %d: %w", id, shared.ErrNotFound)
	}
	c.DuePayment = due
	return nil
}

func (r *memoryLedgerRepo) DeleteCustomer(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.customers[id]; !ok {
		return fmt.Errorf("ledger: customer %d: %w", id, shared.ErrNotFound)
	}
	delete(r.customers, id)
	return nil
}

func newTestService(repo Repository) *Service {
	return NewService(repo, nil, nil)
}

func TestCreateOrderWithAdvance(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	orderDate := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName:   "Bob",
		ItemName:       "Wedding cake",
		Quantity:       2,
		UnitPrice:      500,
		AdvancePayment: 200,
		OrderDate:      orderDate,
	})
	require.NoError(t, err)
	require.Equal(t, "ORD202603140001", order.Number)
	require.Equal(t, 1000.0, order.TotalAmount)
	require.Equal(t, 800.0, order.DueAmount)
	require.Equal(t, PaymentStateAdvance, order.PaymentState)
	require.Equal(t, OrderStatusPending, order.Status)

	payments, err := svc.ListPayments(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, TxnAdvance, payments[0].Type)
	require.Equal(t, 200.0, payments[0].Amount)
	require.Equal(t, MethodCash, payments[0].Method)

	customer, err := svc.GetCustomer(ctx, order.CustomerID)
	require.NoError(t, err)
	require.Equal(t, 800.0, customer.DuePayment)
}

func TestOrderNumbersSequencePerDay(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	first, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Bread", Quantity: 1, UnitPrice: 40, OrderDate: day,
	})
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Buns", Quantity: 1, UnitPrice: 25, OrderDate: day.Add(2 * time.Hour),
	})
	require.NoError(t, err)
	require.Equal(t, "ORD202603140001", first.Number)
	require.Equal(t, "ORD202603140002", second.Number)

	nextDay, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Rolls", Quantity: 1, UnitPrice: 30, OrderDate: day.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	require.Equal(t, "ORD202603150001", nextDay.Number)
}

func TestCreateOrderRejectsAdvanceOverTotal(t *testing.T) {
	svc := newTestService(newMemoryLedgerRepo())

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:   "Bob",
		ItemName:       "Bread",
		Quantity:       1,
		UnitPrice:      40,
		AdvancePayment: 50,
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateOrderFullAdvanceIsCompleted(t *testing.T) {
	svc := newTestService(newMemoryLedgerRepo())

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerName:   "Bob",
		ItemName:       "Bread",
		Quantity:       2,
		UnitPrice:      40,
		AdvancePayment: 80,
	})
	require.NoError(t, err)
	require.Equal(t, 0.0, order.DueAmount)
	require.Equal(t, PaymentStateCompleted, order.PaymentState)
}

func TestAddPaymentSettlesOrder(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName:   "Bob",
		ItemName:       "Wedding cake",
		Quantity:       2,
		UnitPrice:      500,
		AdvancePayment: 200,
	})
	require.NoError(t, err)

	payment, err := svc.AddPayment(ctx, AddPaymentInput{
		OrderID: order.ID,
		Amount:  800,
		Method:  MethodUPI,
		Type:    TxnPayment,
	})
	require.NoError(t, err)
	require.NotEmpty(t, payment.Reference)

	updated, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, updated.DueAmount)
	require.Equal(t, PaymentStateCompleted, updated.PaymentState)

	customer, err := svc.GetCustomer(ctx, order.CustomerID)
	require.NoError(t, err)
	require.Equal(t, 0.0, customer.DuePayment)
}

func TestPartialPaymentState(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Cake", Quantity: 1, UnitPrice: 600,
	})
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, AddPaymentInput{
		OrderID: order.ID, Amount: 250, Method: MethodCash, Type: TxnPayment,
	})
	require.NoError(t, err)

	updated, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 350.0, updated.DueAmount)
	require.Equal(t, PaymentStatePartial, updated.PaymentState)
}

func TestRefundIncreasesDueAmount(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Cake", Quantity: 1, UnitPrice: 500,
	})
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, AddPaymentInput{
		OrderID: order.ID, Amount: 500, Method: MethodCash, Type: TxnPayment,
	})
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, AddPaymentInput{
		OrderID: order.ID, Amount: 100, Method: MethodCash, Type: TxnRefund,
	})
	require.NoError(t, err)

	updated, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 100.0, updated.DueAmount)
	require.Equal(t, PaymentStatePartial, updated.PaymentState)

	customer, err := svc.GetCustomer(ctx, order.CustomerID)
	require.NoError(t, err)
	require.Equal(t, 100.0, customer.DuePayment)
}

func TestOverpaymentClampsDueAtZero(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Cake", Quantity: 1, UnitPrice: 500,
	})
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, AddPaymentInput{
		OrderID: order.ID, Amount: 700, Method: MethodCash, Type: TxnPayment,
	})
	require.NoError(t, err)

	updated, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, 0.0, updated.DueAmount)
	require.Equal(t, PaymentStateCompleted, updated.PaymentState)
}

func TestAddPaymentValidation(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Cake", Quantity: 1, UnitPrice: 500,
	})
	require.NoError(t, err)

	_, err = svc.AddPayment(ctx, AddPaymentInput{
		OrderID: order.ID, Amount: -50, Method: MethodCash, Type: TxnPayment,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddPayment(ctx, AddPaymentInput{
		OrderID: order.ID, Amount: 50, Method: "Barter", Type: TxnPayment,
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddPayment(ctx, AddPaymentInput{
		OrderID: 999, Amount: 50, Method: MethodCash, Type: TxnPayment,
	})
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCustomerBalanceAggregatesAcrossOrders(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Alice", ItemName: "Cookies", Quantity: 1, UnitPrice: 300,
	})
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Alice", ItemName: "Pastries", Quantity: 1, UnitPrice: 450,
	})
	require.NoError(t, err)
	require.Equal(t, first.CustomerID, second.CustomerID)

	customer, err := svc.GetCustomer(ctx, first.CustomerID)
	require.NoError(t, err)
	require.Equal(t, 750.0, customer.DuePayment)

	_, err = svc.AddPayment(ctx, AddPaymentInput{
		OrderID: first.ID, Amount: 300, Method: MethodCard, Type: TxnPayment,
	})
	require.NoError(t, err)

	customer, err = svc.GetCustomer(ctx, first.CustomerID)
	require.NoError(t, err)
	require.Equal(t, 450.0, customer.DuePayment)
}

func TestRecomputeDuePaymentIdempotent(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Alice", ItemName: "Cookies", Quantity: 2, UnitPrice: 150, AdvancePayment: 100,
	})
	require.NoError(t, err)

	require.NoError(t, svc.RecomputeDuePayment(ctx, order.CustomerID))
	require.NoError(t, svc.RecomputeDuePayment(ctx, order.CustomerID))

	customer, err := svc.GetCustomer(ctx, order.CustomerID)
	require.NoError(t, err)
	require.Equal(t, 200.0, customer.DuePayment)
}

func TestDeleteOrderCascadesPayments(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Cake", Quantity: 1, UnitPrice: 500, AdvancePayment: 100,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteOrder(ctx, order.ID))

	_, err = svc.GetOrder(ctx, order.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.Empty(t, repo.payments)

	customer, err := svc.GetCustomer(ctx, order.CustomerID)
	require.NoError(t, err)
	require.Equal(t, 0.0, customer.DuePayment)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Cake", Quantity: 1, UnitPrice: 500,
	})
	require.NoError(t, err)

	updated, err := svc.UpdateOrderStatus(ctx, order.ID, OrderStatusDelivered)
	require.NoError(t, err)
	require.Equal(t, OrderStatusDelivered, updated.Status)
	// Lifecycle transitions never touch the money columns.
	require.Equal(t, order.DueAmount, updated.DueAmount)

	_, err = svc.UpdateOrderStatus(ctx, order.ID, "Shipped")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateCustomerAdoptsExistingOrders(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Carol", Phone: "555-0100"})
	require.NoError(t, err)

	_, err = svc.CreateCustomer(ctx, CreateCustomerInput{Name: "Carol"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestEnsureCustomerReusesRecord(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.EnsureCustomer(ctx, "Dave", "555-0101", "")
	require.NoError(t, err)
	second, err := svc.EnsureCustomer(ctx, "Dave", "", "")
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Len(t, repo.customers, 1)
}

func TestRecomputeAllBalances(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	for _, name := range []string{"Alice", "Bob", "Carol"} {
		_, err := svc.CreateOrder(ctx, CreateOrderInput{
			CustomerName: name, ItemName: "Bread", Quantity: 1, UnitPrice: 40,
		})
		require.NoError(t, err)
	}

	// Corrupt a stored balance; the sweep must rederive it.
	repo.customers[1].DuePayment = 9999
	n, err := svc.RecomputeAllBalances(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
	require.Equal(t, 40.0, repo.customers[1].DuePayment)
}

func TestRecomputeMissingCustomerIsNoOp(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)

	require.NoError(t, svc.RecomputeDuePayment(context.Background(), 42))
}

func TestDeleteCustomerKeepsOrders(t *testing.T) {
	repo := newMemoryLedgerRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerName: "Bob", ItemName: "Cake", Quantity: 1, UnitPrice: 500,
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCustomer(ctx, order.CustomerID))

	_, err = svc.GetCustomer(ctx, order.CustomerID)
	require.True(t, errors.Is(err, shared.ErrNotFound))
	_, err = svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
}
