package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"bonik-be/internal/bkash"
	"bonik-be/internal/cart"
	"bonik-be/internal/order"
)

// Repository owns the finalization transaction: everything between "the
// gateway confirmed the money moved" and "the shop has an order" commits
// atomically or not at all.
type Repository interface {
	Finalize(ctx context.Context, rec *bkash.PaymentRecord, c *cart.Cart, exec *bkash.PaymentExecuteResponse) (*order.Order, error)
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Finalize(
	ctx context.Context,
	rec *bkash.PaymentRecord,
	c *cart.Cart,
	exec *bkash.PaymentExecuteResponse,
) (*order.Order, error) {

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	// 1. Re-claim the record under lock. A concurrent callback that got
	// here first already flipped the status, so this read comes up empty
	// and the whole transaction is abandoned.
	var recordID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM bkash_payments
		WHERE payment_id = $1 AND status IN ('pending', 'initiated')
		FOR UPDATE
	`, rec.PaymentID).Scan(&recordID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &bkash.NotFoundError{PaymentID: rec.PaymentID}
	}
	if err != nil {
		return nil, err
	}

	// 2. Mark the record successful with the execute payload as audit
	// metadata.
	meta, err := json.Marshal(exec)
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		UPDATE bkash_payments
		SET status = 'success', trx_id = $2, meta = $3, updated_at = now()
		WHERE id = $1
	`, recordID, exec.TrxID, meta)
	if err != nil {
		return nil, err
	}

	// 3. Create the order from the cart's current contents.
	ord := &order.Order{
		CartID:        c.ID,
		CustomerEmail: c.CustomerEmail,
		Status:        order.StatusProcessing,
		GrandTotal:    c.GrandTotal,
		InvoiceNumber: rec.InvoiceNumber,
		CreatedAt:     time.Now(),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (cart_id, customer_email, status, grand_total, invoice_number, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`, ord.CartID, ord.CustomerEmail, ord.Status, ord.GrandTotal, ord.InvoiceNumber, ord.CreatedAt).Scan(&ord.ID)
	if err != nil {
		return nil, err
	}

	for _, item := range c.Items {
		oi := order.Item{
			OrderID:   ord.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Total:     item.Subtotal(),
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity, total)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, oi.OrderID, oi.ProductID, oi.Name, oi.Price, oi.Quantity, oi.Total)
		if err != nil {
			return nil, err
		}
		ord.Items = append(ord.Items, oi)
	}

	// 4. Attach the gateway transaction id to the order's payment row.
	additional, err := json.Marshal(map[string]string{
		"transaction_id": exec.TrxID,
		"payment_method": "bkash",
		"status":         "completed",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, err
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO order_payments (order_id, method, transaction_id, additional)
		VALUES ($1, 'bkash', $2, $3)
	`, ord.ID, exec.TrxID, additional)
	if err != nil {
		return nil, err
	}

	// 5. Invoice, when the order warrants one.
	if ord.Invoiceable() {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO invoices (order_id, invoice_number, amount, created_at)
			VALUES ($1, $2, $3, $4)
		`, ord.ID, ord.InvoiceNumber, ord.GrandTotal, ord.CreatedAt)
		if err != nil {
			return nil, err
		}
	}

	// 6. Link the payment record to its order and retire the cart.
	_, err = tx.ExecContext(ctx, `
		UPDATE bkash_payments SET order_id = $2 WHERE id = $1
	`, recordID, ord.ID)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE carts SET active = false, updated_at = now() WHERE id = $1
	`, c.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return ord, nil
}
