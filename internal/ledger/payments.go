package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/tillbook/tillbook/internal/shared"
)

// AddPayment appends a payment to an order's ledger, then rederives the
// order's due_amount and the owning customer's aggregate balance in the same
// transaction. Refunds are positive amounts that increase due_amount.
func (s *Service) AddPayment(ctx context.Context, input AddPaymentInput) (*Payment, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("ledger: payment amount must be positive: %w", shared.ErrValidation)
	}
	if !ValidPaymentMethod(input.Method) {
		return nil, fmt.Errorf("ledger: unknown payment method %q: %w", input.Method, shared.ErrValidation)
	}
	switch input.Type {
	case TxnAdvance, TxnPayment, TxnRefund:
	default:
		return nil, fmt.Errorf("ledger: unknown transaction type %q: %w", input.Type, shared.ErrValidation)
	}

	order, err := s.repo.GetOrder(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}

	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	payment := Payment{
		Reference: newPaymentReference(),
		OrderID:   order.ID,
		Amount:    shared.Round2(input.Amount),
		Method:    input.Method,
		Type:      input.Type,
		Notes:     input.Notes,
		PaidAt:    paidAt,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		id, err := repo.CreatePayment(ctx, payment)
		if err != nil {
			return fmt.Errorf("ledger: create payment: %w", err)
		}
		payment.ID = id

		if err := recomputeOrderBalance(ctx, repo, order); err != nil {
			return err
		}
		return s.recomputeCustomerBalance(ctx, repo, order.CustomerID)
	})
	if err != nil {
		return nil, err
	}

	s.invalidateBalance(ctx, order.CustomerID)
	return &payment, nil
}

// ListPayments returns an order's payments oldest-first (payment date, then
// creation order) for audit display. The order must exist.
func (s *Service) ListPayments(ctx context.Context, orderID int64) ([]Payment, error) {
	if _, err := s.repo.GetOrder(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, orderID)
}

// ListPaymentsWithOrders returns every payment joined with its owning order,
// newest first. Used by the transactions drill-down.
func (s *Service) ListPaymentsWithOrders(ctx context.Context) ([]PaymentWithOrder, error) {
	return s.repo.ListPaymentsWithOrders(ctx)
}
