package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/tillbook/tillbook/internal/shared"
)

// EnsureCustomer looks a customer up by exact name, creating the record with a
// zero balance when absent. Existing records are left untouched apart from
// balance recomputes.
func (s *Service) EnsureCustomer(ctx context.Context, name, phone, address string) (*Customer, error) {
	var out *Customer
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		c, err := ensureCustomer(ctx, repo, name, phone, address)
		if err != nil {
			return err
		}
		out = c
		return nil
	})
	return out, err
}

func ensureCustomer(ctx context.Context, repo Repository, name, phone, address string) (*Customer, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("ledger: customer name is required: %w", shared.ErrValidation)
	}

	existing, err := repo.GetCustomerByName(ctx, name)
	if err == nil {
		return existing, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("ledger: lookup customer: %w", err)
	}

	customer := Customer{Name: name, Phone: phone}
	if address != "" {
		customer.Address = &address
	}
	id, err := repo.CreateCustomer(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("ledger: create customer: %w", err)
	}
	customer.ID = id
	return &customer, nil
}

// CreateCustomer adds a customer through the management interface. The initial
// balance is derived from any orders already carrying the same name.
func (s *Service) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*Customer, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, fmt.Errorf("ledger: customer name is required: %w", shared.ErrValidation)
	}
	if _, err := s.repo.GetCustomerByName(ctx, name); err == nil {
		return nil, fmt.Errorf("ledger: customer %q already exists: %w", name, shared.ErrDuplicate)
	} else if !isNotFound(err) {
		return nil, err
	}

	customer := Customer{
		Name:    name,
		Phone:   input.Phone,
		TaxID:   input.TaxID,
		Address: input.Address,
	}
	id, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return nil, fmt.Errorf("ledger: create customer: %w", err)
	}
	customer.ID = id
	if err := s.RecomputeDuePayment(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetCustomer(ctx, id)
}

// RecomputeDuePayment rederives a customer's aggregate balance from their
// orders. A missing customer is a logged no-op, keeping the operation pure and
// idempotent.
func (s *Service) RecomputeDuePayment(ctx context.Context, customerID int64) error {
	err := s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
		return s.recomputeCustomerBalance(ctx, repo, customerID)
	})
	if err != nil {
		return err
	}
	s.invalidateBalance(ctx, customerID)
	return nil
}

func (s *Service) recomputeCustomerBalance(ctx context.Context, repo Repository, customerID int64) error {
	if _, err := repo.GetCustomer(ctx, customerID); err != nil {
		if isNotFound(err) {
			s.logger.Warn("balance recompute for missing customer",
				slog.Int64("customer_id", customerID),
				slog.Any("error", shared.ErrConsistency))
			return nil
		}
		return err
	}

	orders, err := repo.ListOrdersByCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("ledger: list customer orders: %w", err)
	}

	var due float64
	for _, o := range orders {
		due += o.DueAmount
	}
	if err := repo.UpdateCustomerBalance(ctx, customerID, shared.Round2(due)); err != nil {
		return fmt.Errorf("ledger: update customer balance: %w", err)
	}
	return nil
}

// reconcileConcurrency bounds how many customers are rederived at once; each
// recompute runs in its own transaction.
const reconcileConcurrency = 4

// RecomputeAllBalances sweeps every customer and rederives their aggregate
// balance. Used by the reconciliation job and the admin endpoint.
func (s *Service) RecomputeAllBalances(ctx context.Context) (int, error) {
	customers, err := s.repo.ListCustomers(ctx)
	if err != nil {
		return 0, err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileConcurrency)
	for _, c := range customers {
		c := c
		g.Go(func() error {
			if err := s.RecomputeDuePayment(ctx, c.ID); err != nil {
				return fmt.Errorf("ledger: reconcile customer %d: %w", c.ID, err)
			}
			s.invalidateBalance(ctx, c.ID)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(customers), nil
}

// GetCustomer fetches a customer, serving the balance from cache when warm.
func (s *Service) GetCustomer(ctx context.Context, customerID int64) (*Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if due, ok := s.cache.Get(ctx, customerID); ok {
			customer.DuePayment = due
		} else {
			s.cache.Set(ctx, customerID, customer.DuePayment)
		}
	}
	return customer, nil
}

// ListCustomers returns all customers ordered by name.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.repo.ListCustomers(ctx)
}

// ListOrdersForCustomer returns a customer's orders by order date descending
// for the drill-down view. The customer must exist.
func (s *Service) ListOrdersForCustomer(ctx context.Context, customerID int64) ([]Order, error) {
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByCustomer(ctx, customerID)
}

// DeleteCustomer removes the customer record. Orders are not cascaded; they
// keep their denormalized name for history.
func (s *Service) DeleteCustomer(ctx context.Context, customerID int64) error {
	if _, err := s.repo.GetCustomer(ctx, customerID); err != nil {
		return err
	}
	if err := s.repo.DeleteCustomer(ctx, customerID); err != nil {
		return fmt.Errorf("ledger: delete customer: %w", err)
	}
	s.invalidateBalance(ctx, customerID)
	return nil
}

func (s *Service) invalidateBalance(ctx context.Context, customerID int64) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, customerID)
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
