package checkout

import "errors"

var (
	// ErrPaymentNotCompleted means the shopper cancelled or failed the
	// payment on the gateway's hosted page; no order is created.
	ErrPaymentNotCompleted = errors.New("payment was not completed")

	// ErrCartGone means the cart referenced by an otherwise valid payment
	// record no longer exists.
	ErrCartGone = errors.New("cart not found for payment record")

	// ErrNotRefundable means a refund was requested for a record that is
	// not in the success state.
	ErrNotRefundable = errors.New("payment is not refundable")
)
