package order

import "time"

type OrderStatus string

const (
	StatusProcessing OrderStatus = "processing"
	StatusCompleted  OrderStatus = "completed"
	StatusCanceled   OrderStatus = "canceled"
)

// Order is created from a cart only after the gateway confirmed the
// payment; there is no unpaid-order state in this flow.
type Order struct {
	ID            int64
	CartID        int64
	CustomerEmail string
	Status        OrderStatus
	GrandTotal    float64
	InvoiceNumber string
	Items         []Item
	CreatedAt     time.Time
}

type Item struct {
	ID        int64
	OrderID   int64
	ProductID int64
	Name      string
	Price     float64
	Quantity  int
	Total     float64
}

// Invoice mirrors the merchant-side invoice row written alongside an
// invoiceable order.
type Invoice struct {
	ID            int64
	OrderID       int64
	InvoiceNumber string
	Amount        float64
	CreatedAt     time.Time
}

// Invoiceable reports whether an invoice row should be written for the
// order.
func (o *Order) Invoiceable() bool {
	return o.GrandTotal > 0 && len(o.Items) > 0
}
