package bkash

import (
	"context"
	"errors"
	"slices"
	"time"

	"bonik-be/internal/logger"

	"go.uber.org/zap"
)

// RetryPolicy tunes the execute reconciliation: which gateway codes mean
// "already executed" vs "system error", how often to retry and how long to
// wait between attempts.
type RetryPolicy struct {
	MaxRetries int
	Backoff    time.Duration

	// The gateway rejects a second execute call on a payment that already
	// went through with these codes.
	AlreadyExecutedCodes []string

	// These codes mean the gateway itself choked; the payment may or may
	// not have succeeded.
	SystemErrorCodes []string
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:           1,
		Backoff:              2 * time.Second,
		AlreadyExecutedCodes: []string{"2117", "2062"},
		SystemErrorCodes:     []string{"2014", "503"},
	}
}

// Decision is the outcome of the {status code} x {attempt count} table.
type Decision int

const (
	// DecideFail surfaces the execute error as-is.
	DecideFail Decision = iota
	// DecideSucceed accepts the execute result.
	DecideSucceed
	// DecideReconcile queries the payment; a Completed query stands in for
	// the execute result, anything else fails.
	DecideReconcile
	// DecideReconcileRetry queries first, and when the payment is still
	// not completed, retries the execute after the backoff.
	DecideReconcileRetry
)

// Decide maps a gateway status code and the number of execute attempts
// already made onto an action. Kept as one table so every status-code
// branch is visible (and testable) in a single place.
func (p RetryPolicy) Decide(statusCode string, attempt int) Decision {
	switch {
	case statusCode == StatusCodeSuccess:
		return DecideSucceed
	case slices.Contains(p.AlreadyExecutedCodes, statusCode):
		return DecideReconcile
	case slices.Contains(p.SystemErrorCodes, statusCode):
		if attempt < p.MaxRetries {
			return DecideReconcileRetry
		}
		// Retries exhausted; one last query before giving up.
		return DecideReconcile
	default:
		return DecideFail
	}
}

// Executor drives the execute-with-reconciliation sub-protocol. It never
// takes an ambiguous execute response at face value: "already executed" and
// "system error" rejections are cross-checked against a status query before
// the payment is declared failed.
type Executor struct {
	api      API
	provider CredentialProvider
	tokens   *TokenCache
	policy   RetryPolicy

	sleep func(time.Duration)
}

func NewExecutor(api API, provider CredentialProvider, tokens *TokenCache, policy RetryPolicy) *Executor {
	return &Executor{
		api:      api,
		provider: provider,
		tokens:   tokens,
		policy:   policy,
		sleep:    time.Sleep,
	}
}

// Execute confirms a payment, reconciling ambiguous gateway answers via the
// query endpoint and retrying system errors within the policy bound.
func (e *Executor) Execute(ctx context.Context, paymentID string) (*PaymentExecuteResponse, error) {
	log := logger.FromCtx(ctx).With(zap.String("payment_id", paymentID))

	creds, err := e.provider.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		token, err := e.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}

		res, err := e.api.ExecutePayment(ctx, creds, token, paymentID)
		if err == nil {
			return res, nil
		}

		var gwErr *GatewayError
		if !errors.As(err, &gwErr) {
			// Network or decode failure; nothing to branch on.
			return nil, err
		}

		switch e.policy.Decide(gwErr.StatusCode, attempt) {
		case DecideSucceed:
			// Success code but the success rule still failed (e.g. a
			// non-Completed transaction status). Surface it.
			return nil, err

		case DecideReconcile:
			if recovered := e.reconcile(ctx, creds, token, paymentID); recovered != nil {
				log.Info("bkash execute reconciled via query",
					zap.String("status_code", gwErr.StatusCode),
					zap.String("trx_id", recovered.TrxID),
				)
				return recovered, nil
			}
			return nil, err

		case DecideReconcileRetry:
			if recovered := e.reconcile(ctx, creds, token, paymentID); recovered != nil {
				log.Info("bkash execute reconciled via query",
					zap.String("status_code", gwErr.StatusCode),
					zap.String("trx_id", recovered.TrxID),
				)
				return recovered, nil
			}
			log.Warn("bkash execute hit system error, retrying",
				zap.String("status_code", gwErr.StatusCode),
				zap.Int("attempt", attempt+1),
			)
			e.sleep(e.policy.Backoff)

		default:
			return nil, err
		}
	}
}

// reconcile asks the gateway for the payment's real state. A Completed
// answer is converted into an execute-equivalent result; anything else,
// including query failures, returns nil so the caller keeps the original
// execute error.
func (e *Executor) reconcile(ctx context.Context, creds Credentials, token, paymentID string) *PaymentExecuteResponse {
	q, err := e.api.QueryPayment(ctx, creds, token, paymentID)
	if err != nil {
		logger.FromCtx(ctx).Warn("bkash reconciliation query failed",
			zap.String("payment_id", paymentID),
			zap.Error(err),
		)
		return nil
	}

	if !q.Completed() {
		return nil
	}

	return ExecuteResponseFromQuery(q)
}
