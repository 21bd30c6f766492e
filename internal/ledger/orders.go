package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tillbook/tillbook/internal/shared"
)

// CreateOrder validates the input, opens the order and, when an advance was
// taken, records it as the order's first payment so every due_amount change
// traces to a payment row. The owning customer is looked up by name and
// auto-created on first reference; its balance is recomputed before commit.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if err := s.validateCreateOrder(input); err != nil {
		return nil, err
	}

	total := float64(input.Quantity) * input.UnitPrice
	if input.AdvancePayment > total {
		return nil, fmt.Errorf("ledger: advance %.2f exceeds total %.2f: %w", input.AdvancePayment, total, shared.ErrValidation)
	}

	orderDate := input.OrderDate
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	method := input.Method
	if method == "" {
		method = MethodCash
	}

	var created *Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		customer, err := ensureCustomer(ctx, repo, input.CustomerName, input.CustomerPhone, input.CustomerAddress)
		if err != nil {
			return err
		}

		number, err := nextOrderNumber(ctx, repo, orderDate)
		if err != nil {
			return err
		}

		order := Order{
			Number:         number,
			CustomerID:     customer.ID,
			CustomerName:   customer.Name,
			ItemName:       strings.TrimSpace(input.ItemName),
			Quantity:       input.Quantity,
			UnitPrice:      input.UnitPrice,
			TotalAmount:    shared.Round2(total),
			AdvancePayment: shared.Round2(input.AdvancePayment),
			DueAmount:      shared.Round2(total - input.AdvancePayment),
			Status:         OrderStatusPending,
			PaymentState:   initialPaymentState(total, input.AdvancePayment),
			OrderDate:      orderDate,
			DueDate:        input.DueDate,
			Notes:          input.Notes,
		}

		id, err := repo.CreateOrder(ctx, order)
		if err != nil {
			return fmt.Errorf("ledger: create order: %w", err)
		}
		order.ID = id

		if input.AdvancePayment > 0 {
			advance := Payment{
				Reference: newPaymentReference(),
				OrderID:   id,
				Amount:    shared.Round2(input.AdvancePayment),
				Method:    method,
				Type:      TxnAdvance,
				PaidAt:    orderDate,
			}
			if _, err := repo.CreatePayment(ctx, advance); err != nil {
				return fmt.Errorf("ledger: record advance: %w", err)
			}
		}

		if err := recomputeOrderBalance(ctx, repo, &order); err != nil {
			return err
		}
		if err := s.recomputeCustomerBalance(ctx, repo, customer.ID); err != nil {
			return err
		}

		created = &order
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, created.CustomerID)
	return created, nil
}

// UpdateOrderStatus transitions the lifecycle status. The financial invariant
// is independent of lifecycle status, so nothing else changes.
func (s *Service) UpdateOrderStatus(ctx context.Context, orderID int64, status OrderStatus) (*Order, error) {
	if !ValidOrderStatus(status) {
		return nil, fmt.Errorf("ledger: unknown order status %q: %w", status, shared.ErrValidation)
	}
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return nil, fmt.Errorf("ledger: update order status: %w", err)
	}
	order.Status = status
	return order, nil
}

// DeleteOrder removes the order and cascades to its payments, then recomputes
// the owning customer's balance.
func (s *Service) DeleteOrder(ctx context.Context, orderID int64) error {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		if _, err := repo.DeletePaymentsForOrder(ctx, orderID); err != nil {
			return fmt.Errorf("ledger: cascade delete payments: %w", err)
		}
		if err := repo.DeleteOrder(ctx, orderID); err != nil {
			return fmt.Errorf("ledger: delete order: %w", err)
		}
		return s.recomputeCustomerBalance(ctx, repo, order.CustomerID)
	})
	if err != nil {
		return err
	}

	s.invalidateBalance(ctx, order.CustomerID)
	s.logger.Info("order deleted", slog.String("number", order.Number), slog.Int64("customer_id", order.CustomerID))
	return nil
}

// GetOrder fetches a single order.
func (s *Service) GetOrder(ctx context.Context, orderID int64) (*Order, error) {
	return s.repo.GetOrder(ctx, orderID)
}

// ListOrders returns orders newest-first with optional filters.
func (s *Service) ListOrders(ctx context.Context, req ListOrdersRequest) ([]Order, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	return s.repo.ListOrders(ctx, req)
}

func (s *Service) validateCreateOrder(input CreateOrderInput) error {
	if strings.TrimSpace(input.CustomerName) == "" {
		return fmt.Errorf("ledger: customer name is required: %w", shared.ErrValidation)
	}
	if strings.TrimSpace(input.ItemName) == "" {
		return fmt.Errorf("ledger: item name is required: %w", shared.ErrValidation)
	}
	if input.Quantity < 1 {
		return fmt.Errorf("ledger: quantity must be at least 1: %w", shared.ErrValidation)
	}
	if input.UnitPrice < 0 {
		return fmt.Errorf("ledger: unit price cannot be negative: %w", shared.ErrValidation)
	}
	if input.AdvancePayment < 0 {
		return fmt.Errorf("ledger: advance payment cannot be negative: %w", shared.ErrValidation)
	}
	if input.Method != "" && !ValidPaymentMethod(input.Method) {
		return fmt.Errorf("ledger: unknown payment method %q: %w", input.Method, shared.ErrValidation)
	}
	return nil
}

// recomputeOrderBalance rederives due_amount and the settlement state from the
// payment rows. Refunds add back to the outstanding balance; the result is
// clamped at zero.
func recomputeOrderBalance(ctx context.Context, repo Repository, order *Order) error {
	payments, err := repo.ListPayments(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("ledger: list payments: %w", err)
	}

	var collected float64
	var sawSettlement bool
	for _, p := range payments {
		switch p.Type {
		case TxnRefund:
			collected -= p.Amount
		case TxnPayment:
			collected += p.Amount
			sawSettlement = true
		default:
			collected += p.Amount
		}
	}

	due := order.TotalAmount - collected
	if due < 0 {
		due = 0
	}
	due = shared.Round2(due)

	state := PaymentStatePending
	switch {
	case due == 0:
		state = PaymentStateCompleted
	case sawSettlement:
		state = PaymentStatePartial
	case collected > 0:
		state = PaymentStateAdvance
	}

	if err := repo.UpdateOrderBalance(ctx, order.ID, due, state); err != nil {
		return fmt.Errorf("ledger: update order balance: %w", err)
	}
	order.DueAmount = due
	order.PaymentState = state
	return nil
}

func initialPaymentState(total, advance float64) PaymentState {
	switch {
	case total-advance == 0:
		return PaymentStateCompleted
	case advance > 0:
		return PaymentStateAdvance
	default:
		return PaymentStatePending
	}
}

// nextOrderNumber yields ORD<YYYYMMDD><seq>, sequenced per calendar day.
func nextOrderNumber(ctx context.Context, repo Repository, day time.Time) (string, error) {
	count, err := repo.CountOrdersOn(ctx, day)
	if err != nil {
		return "", fmt.Errorf("ledger: order sequence: %w", err)
	}
	return fmt.Sprintf("ORD%s%04d", day.Format("20060102"), count+1), nil
}

func newPaymentReference() string {
	return "TXN" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:16])
}
