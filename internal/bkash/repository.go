package bkash

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PaymentRecord is one row of the bkash_payments audit trail. Rows are
// created at payment creation, mutated by callback processing and never
// deleted.
type PaymentRecord struct {
	ID            int64
	PaymentID     string
	Token         string
	Amount        string
	InvoiceNumber string
	Status        PaymentStatus
	CartID        int64
	OrderID       sql.NullInt64
	TrxID         sql.NullString
	Meta          json.RawMessage
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	Save(ctx context.Context, rec *PaymentRecord) error
	FindActiveByPaymentID(ctx context.Context, paymentID string) (*PaymentRecord, error)
	FindByPaymentID(ctx context.Context, paymentID string) (*PaymentRecord, error)
	// UpdateStatusIfActive transitions a record's status only when it is
	// still pending or initiated. Returns false when the record was
	// already terminal, which is how a replayed callback is detected.
	UpdateStatusIfActive(ctx context.Context, paymentID string, status PaymentStatus, meta json.RawMessage) (bool, error)
	MarkRefunded(ctx context.Context, paymentID string, refundMeta json.RawMessage) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Save(ctx context.Context, rec *PaymentRecord) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO bkash_payments (payment_id, token, amount, invoice_number, status, cart_id, meta)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		rec.PaymentID, rec.Token, rec.Amount, rec.InvoiceNumber, rec.Status, rec.CartID, rec.Meta,
	).Scan(&rec.ID)
}

const recordColumns = `id, payment_id, token, amount, invoice_number, status, cart_id, order_id, trx_id, meta, created_at, updated_at`

func (r *repository) FindActiveByPaymentID(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM bkash_payments
		WHERE payment_id = $1 AND status IN ('pending', 'initiated')
	`, paymentID)

	return scanRecord(row, paymentID)
}

func (r *repository) FindByPaymentID(ctx context.Context, paymentID string) (*PaymentRecord, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+recordColumns+`
		FROM bkash_payments
		WHERE payment_id = $1
	`, paymentID)

	return scanRecord(row, paymentID)
}

func scanRecord(row *sql.Row, paymentID string) (*PaymentRecord, error) {
	var rec PaymentRecord
	err := row.Scan(
		&rec.ID, &rec.PaymentID, &rec.Token, &rec.Amount, &rec.InvoiceNumber,
		&rec.Status, &rec.CartID, &rec.OrderID, &rec.TrxID, &rec.Meta,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{PaymentID: paymentID}
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) UpdateStatusIfActive(ctx context.Context, paymentID string, status PaymentStatus, meta json.RawMessage) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bkash_payments
		SET status = $2, meta = $3, updated_at = now()
		WHERE payment_id = $1 AND status IN ('pending', 'initiated')
	`, paymentID, status, meta)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *repository) MarkRefunded(ctx context.Context, paymentID string, refundMeta json.RawMessage) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bkash_payments
		SET status = 'refunded', refund_data = $2, updated_at = now()
		WHERE payment_id = $1 AND status = 'success'
	`, paymentID, refundMeta)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NotFoundError{PaymentID: paymentID}
	}
	return nil
}
