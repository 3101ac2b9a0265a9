package bkash

import (
	"fmt"
	"strings"
)

// ConfigurationError reports every missing credential field at once so the
// admin can fix the settings screen in one pass.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return "missing bkash configuration: " + strings.Join(e.Missing, ", ")
}

// TokenError means the gateway denied the token grant.
type TokenError struct {
	Message string
	Err     error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return "failed to get bkash token: " + e.Err.Error()
	}
	return "failed to get bkash token: " + e.Message
}

func (e *TokenError) Unwrap() error { return e.Err }

// GatewayError carries the gateway's own status code and message for a
// request that failed the success rule. Callers branch on StatusCode to
// drive the reconciliation decision table.
type GatewayError struct {
	Op            string
	HTTPStatus    int
	StatusCode    string
	StatusMessage string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("bkash %s failed: %s (statusCode=%s, http=%d)",
		e.Op, e.StatusMessage, e.StatusCode, e.HTTPStatus)
}

// PaymentCreationError wraps any failure while creating or executing a
// payment; it is what the shopper-facing layer translates into a flash
// message.
type PaymentCreationError struct {
	Reason string
	Err    error
}

func (e *PaymentCreationError) Error() string {
	if e.Err != nil {
		return e.Reason + ": " + e.Err.Error()
	}
	return e.Reason
}

func (e *PaymentCreationError) Unwrap() error { return e.Err }

// NotFoundError means a callback referenced a payment with no active
// record: unknown ID, or a record already driven to a terminal status.
type NotFoundError struct {
	PaymentID string
}

func (e *NotFoundError) Error() string {
	return "no active bkash payment found for payment id " + e.PaymentID
}
