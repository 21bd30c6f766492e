package ledger

import "time"

// OrderStatus enumerates order lifecycle states.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "Pending"
	OrderStatusProcessing OrderStatus = "Processing"
	OrderStatusReady      OrderStatus = "Ready"
	OrderStatusDelivered  OrderStatus = "Delivered"
	OrderStatusCompleted  OrderStatus = "Completed"
	OrderStatusCancelled  OrderStatus = "Cancelled"
)

// ValidOrderStatus reports whether s is a known lifecycle state.
func ValidOrderStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusReady,
		OrderStatusDelivered, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

// PaymentState enumerates the derived settlement state of an order.
type PaymentState string

const (
	PaymentStatePending   PaymentState = "Pending"
	PaymentStateAdvance   PaymentState = "Advance Only"
	PaymentStatePartial   PaymentState = "Partial"
	PaymentStateCompleted PaymentState = "Completed"
)

// PaymentMethod enumerates how money moved.
type PaymentMethod string

const (
	MethodCash         PaymentMethod = "Cash"
	MethodCard         PaymentMethod = "Card"
	MethodUPI          PaymentMethod = "UPI"
	MethodBankTransfer PaymentMethod = "Bank Transfer"
	MethodCheque       PaymentMethod = "Cheque"
)

// ValidPaymentMethod reports whether m is a supported method.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case MethodCash, MethodCard, MethodUPI, MethodBankTransfer, MethodCheque:
		return true
	}
	return false
}

// TransactionType classifies a payment row.
type TransactionType string

const (
	TxnAdvance TransactionType = "advance_payment"
	TxnPayment TransactionType = "payment"
	TxnRefund  TransactionType = "refund"
)

// Order is a tracked customer purchase with lifecycle status and a running
// outstanding balance. DueAmount is always derivable from the payment rows:
// total_amount minus non-refund payments plus refunds, clamped at zero.
type Order struct {
	ID             int64        `json:"id"`
	Number         string       `json:"number"`
	CustomerID     int64        `json:"customer_id"`
	CustomerName   string       `json:"customer_name"`
	ItemName       string       `json:"item_name"`
	Quantity       int          `json:"quantity"`
	UnitPrice      float64      `json:"unit_price"`
	TotalAmount    float64      `json:"total_amount"`
	AdvancePayment float64      `json:"advance_payment"`
	DueAmount      float64      `json:"due_amount"`
	Status         OrderStatus  `json:"status"`
	PaymentState   PaymentState `json:"payment_state"`
	OrderDate      time.Time    `json:"order_date"`
	DueDate        *time.Time   `json:"due_date,omitempty"`
	Notes          *string      `json:"notes,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// Payment is one recorded money movement against an order. Rows are immutable
// once written; corrections are recorded as new rows so the ledger stays an
// audit trail. Deletion happens only through order cascade delete.
type Payment struct {
	ID        int64           `json:"id"`
	Reference string          `json:"reference"`
	OrderID   int64           `json:"order_id"`
	Amount    float64         `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	Type      TransactionType `json:"type"`
	Notes     *string         `json:"notes,omitempty"`
	PaidAt    time.Time       `json:"paid_at"`
	CreatedAt time.Time       `json:"created_at"`
}

// PaymentWithOrder enriches a payment with its owning order for audit display.
type PaymentWithOrder struct {
	Payment
	OrderNumber  string      `json:"order_number"`
	CustomerName string      `json:"customer_name"`
	OrderStatus  OrderStatus `json:"order_status"`
}

// Customer is the aggregate counterparty record. DuePayment is the sum of
// due_amount across all of the customer's orders.
type Customer struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	TaxID      *string   `json:"tax_id,omitempty"`
	Address    *string   `json:"address,omitempty"`
	DuePayment float64   `json:"due_payment"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
