package ledger

import "time"

// CreateOrderInput carries everything needed to open an order. The customer is
// resolved by name and auto-created on first reference.
type CreateOrderInput struct {
	CustomerName    string        `json:"customer_name" validate:"required,max=120"`
	CustomerPhone   string        `json:"customer_phone" validate:"max=20"`
	CustomerAddress string        `json:"customer_address" validate:"max=300"`
	ItemName        string        `json:"item_name" validate:"required,max=200"`
	Quantity        int           `json:"quantity" validate:"required,gte=1"`
	UnitPrice       float64       `json:"unit_price" validate:"gte=0"`
	AdvancePayment  float64       `json:"advance_payment" validate:"gte=0"`
	OrderDate       time.Time     `json:"order_date"`
	DueDate         *time.Time    `json:"due_date,omitempty"`
	Method          PaymentMethod `json:"payment_method"`
	Notes           *string       `json:"notes,omitempty"`
}

// AddPaymentInput records one payment against an order.
type AddPaymentInput struct {
	OrderID int64           `json:"order_id" validate:"required,gt=0"`
	Amount  float64         `json:"amount" validate:"required"`
	Method  PaymentMethod   `json:"method" validate:"required"`
	Type    TransactionType `json:"type" validate:"required"`
	PaidAt  time.Time       `json:"paid_at"`
	Notes   *string         `json:"notes,omitempty"`
}

// ListOrdersRequest filters the order listing. Zero values mean no filter.
type ListOrdersRequest struct {
	CustomerID int64
	Status     OrderStatus
	DateFrom   *time.Time
	DateTo     *time.Time
	Limit      int
	Offset     int
}

// CreateCustomerInput creates a customer through the management interface.
type CreateCustomerInput struct {
	Name    string  `json:"name" validate:"required,max=120"`
	Phone   string  `json:"phone" validate:"max=20"`
	TaxID   *string `json:"tax_id,omitempty" validate:"omitempty,max=30"`
	Address *string `json:"address,omitempty" validate:"omitempty,max=300"`
}
