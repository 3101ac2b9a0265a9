package cart

import "time"

type Cart struct {
	ID            int64
	CustomerEmail string
	GrandTotal    float64
	Active        bool
	Items         []Item
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Item struct {
	ID        int64
	CartID    int64
	ProductID int64
	Name      string
	Price     float64
	Quantity  int
}

func (i Item) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}
