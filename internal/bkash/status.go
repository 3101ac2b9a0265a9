package bkash

// PaymentStatus is the local lifecycle of a payment record.
//
// The gateway's "Completed" transaction status folds into StatusSuccess;
// there is no separate completed state on our side.
type PaymentStatus string

const (
	StatusInitiated PaymentStatus = "initiated"
	StatusPending   PaymentStatus = "pending"
	StatusSuccess   PaymentStatus = "success"
	StatusFailed    PaymentStatus = "failed"
	StatusCancelled PaymentStatus = "cancelled"
	StatusRefunded  PaymentStatus = "refunded"
)

// Active reports whether a record may still be acted on by a callback.
// Terminal records are skipped, which is the replay guard.
func (s PaymentStatus) Active() bool {
	return s == StatusPending || s == StatusInitiated
}

// StatusFromTransaction maps the gateway's transactionStatus vocabulary
// onto the local enum. Anything unrecognized stays pending.
func StatusFromTransaction(transactionStatus string) PaymentStatus {
	switch transactionStatus {
	case "Initiated":
		return StatusInitiated
	case "Completed":
		return StatusSuccess
	case "Failed":
		return StatusFailed
	case "Cancelled":
		return StatusCancelled
	default:
		return StatusPending
	}
}
