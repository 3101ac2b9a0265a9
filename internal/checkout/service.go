package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"bonik-be/internal/bkash"
	"bonik-be/internal/cart"
	"bonik-be/internal/logger"
	"bonik-be/internal/order"

	"go.uber.org/zap"
)

// Gateway is the slice of the bkash API the orchestrator calls directly.
// Execute goes through the Executor so reconciliation is never skipped.
type Gateway interface {
	CreatePayment(ctx context.Context, creds bkash.Credentials, token string, req *bkash.PaymentCreateRequest) (*bkash.PaymentCreateResponse, error)
	RefundPayment(ctx context.Context, creds bkash.Credentials, token string, req *bkash.RefundRequest) (*bkash.RefundResponse, error)
}

type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type Executor interface {
	Execute(ctx context.Context, paymentID string) (*bkash.PaymentExecuteResponse, error)
}

type Service interface {
	// CreatePayment creates a payment intent for the cart and returns the
	// gateway URL the shopper's browser must be redirected to.
	CreatePayment(ctx context.Context, cartID int64) (string, error)

	// ProcessCallback handles the gateway's redirect after the shopper
	// acted on the hosted page. On success it returns the finalized order.
	ProcessCallback(ctx context.Context, paymentID, status string, params url.Values) (*order.Order, error)

	// RefundPayment refunds a successful payment in full.
	RefundPayment(ctx context.Context, paymentID, reason string) (*bkash.RefundResponse, error)
}

type service struct {
	carts    cart.Repository
	payments bkash.Repository
	gateway  Gateway
	tokens   TokenSource
	creds    bkash.CredentialProvider
	executor Executor
	finalize Repository

	callbackURL string
}

func NewService(
	carts cart.Repository,
	payments bkash.Repository,
	gateway Gateway,
	tokens TokenSource,
	creds bkash.CredentialProvider,
	executor Executor,
	finalize Repository,
	callbackURL string,
) Service {
	return &service{
		carts:       carts,
		payments:    payments,
		gateway:     gateway,
		tokens:      tokens,
		creds:       creds,
		executor:    executor,
		finalize:    finalize,
		callbackURL: callbackURL,
	}
}

func (s *service) CreatePayment(ctx context.Context, cartID int64) (string, error) {
	log := logger.FromCtx(ctx).With(zap.Int64("cart_id", cartID))

	redirectURL, err := s.createPayment(ctx, cartID, log)
	if err != nil {
		log.Error("bkash payment creation failed", zap.Error(err))
		var created *bkash.PaymentCreationError
		if errors.As(err, &created) {
			return "", err
		}
		return "", &bkash.PaymentCreationError{Reason: "failed to create bkash payment", Err: err}
	}
	return redirectURL, nil
}

func (s *service) createPayment(ctx context.Context, cartID int64, log *zap.Logger) (string, error) {
	c, err := s.carts.GetByID(ctx, cartID)
	if err != nil {
		return "", err
	}
	if !c.Active {
		return "", cart.ErrCartInactive
	}
	if len(c.Items) == 0 {
		return "", cart.ErrCartEmpty
	}

	creds, err := s.creds.Resolve(ctx)
	if err != nil {
		return "", err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return "", err
	}

	req := s.buildCreateRequest(c)
	res, err := s.gateway.CreatePayment(ctx, creds, token, req)
	if err != nil {
		return "", err
	}

	meta, err := json.Marshal(res)
	if err != nil {
		return "", err
	}

	rec := &bkash.PaymentRecord{
		PaymentID:     res.PaymentID,
		Token:         token,
		Amount:        req.Amount,
		InvoiceNumber: req.MerchantInvoiceNumber,
		Status:        bkash.StatusFromTransaction(res.TransactionStatus),
		CartID:        c.ID,
		Meta:          meta,
	}
	if err := s.payments.Save(ctx, rec); err != nil {
		return "", err
	}

	log.Info("bkash payment initiated",
		zap.String("payment_id", res.PaymentID),
		zap.String("invoice", req.MerchantInvoiceNumber),
		zap.String("status", string(rec.Status)),
	)

	return res.BkashURL, nil
}

// buildCreateRequest maps the cart into the gateway's create payload. The
// invoice number is derived from the cart id so a retried checkout for the
// same cart produces the same merchant reference.
func (s *service) buildCreateRequest(c *cart.Cart) *bkash.PaymentCreateRequest {
	payerReference := c.CustomerEmail
	if payerReference == "" {
		payerReference = "guest"
	}

	return &bkash.PaymentCreateRequest{
		Mode:                  "0011",
		PayerReference:        payerReference,
		CallbackURL:           s.callbackURL,
		Amount:                bkash.FormatAmount(c.GrandTotal),
		Currency:              "BDT",
		Intent:                "sale",
		MerchantInvoiceNumber: fmt.Sprintf("INV%d", c.ID),
	}
}

func (s *service) ProcessCallback(ctx context.Context, paymentID, status string, params url.Values) (*order.Order, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("payment_id", paymentID),
		zap.String("callback_status", status),
	)
	log.Debug("bkash callback received")

	// Only records still in an active status may be acted on; a replayed
	// callback for a finalized payment stops here.
	rec, err := s.payments.FindActiveByPaymentID(ctx, paymentID)
	if err != nil {
		log.Warn("bkash callback for unknown or finalized payment", zap.Error(err))
		return nil, err
	}

	if status != "success" {
		meta := marshalParams(params)
		claimed, err := s.payments.UpdateStatusIfActive(ctx, paymentID, bkash.PaymentStatus(status), meta)
		if err != nil {
			log.Error("failed updating record for unsuccessful callback", zap.Error(err))
			return nil, err
		}
		if !claimed {
			// A concurrent callback finalized the record between our read
			// and this update; the record keeps the winner's status.
			log.Warn("record already terminal, unsuccessful callback not recorded")
		} else {
			log.Info("bkash payment not completed by shopper")
		}
		return nil, ErrPaymentNotCompleted
	}

	c, err := s.carts.GetByID(ctx, rec.CartID)
	if err != nil {
		if errors.Is(err, cart.ErrCartNotFound) {
			log.Error("cart missing during bkash callback", zap.Int64("cart_id", rec.CartID))
			return nil, ErrCartGone
		}
		return nil, err
	}

	execRes, err := s.executor.Execute(ctx, paymentID)
	if err != nil {
		log.Error("bkash payment execution failed", zap.Error(err))
		meta := marshalError(err)
		if _, updateErr := s.payments.UpdateStatusIfActive(ctx, paymentID, bkash.StatusFailed, meta); updateErr != nil {
			log.Error("failed marking record failed", zap.Error(updateErr))
		}
		return nil, &bkash.PaymentCreationError{Reason: "payment execution failed", Err: err}
	}

	ord, err := s.finalize.Finalize(ctx, rec, c, execRes)
	if err != nil {
		log.Error("order finalization failed, transaction rolled back", zap.Error(err))
		return nil, err
	}

	log.Info("bkash payment completed",
		zap.Int64("order_id", ord.ID),
		zap.String("trx_id", execRes.TrxID),
	)

	return ord, nil
}

func (s *service) RefundPayment(ctx context.Context, paymentID, reason string) (*bkash.RefundResponse, error) {
	log := logger.FromCtx(ctx).With(zap.String("payment_id", paymentID))

	rec, err := s.payments.FindByPaymentID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if rec.Status != bkash.StatusSuccess {
		return nil, ErrNotRefundable
	}

	creds, err := s.creds.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	req := &bkash.RefundRequest{
		PaymentID: paymentID,
		Amount:    rec.Amount,
		TrxID:     rec.TrxID.String,
		SKU:       rec.InvoiceNumber,
		Reason:    reason,
	}

	res, err := s.gateway.RefundPayment(ctx, creds, token, req)
	if err != nil {
		log.Error("bkash refund failed", zap.Error(err))
		return nil, err
	}

	meta, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	if err := s.payments.MarkRefunded(ctx, paymentID, meta); err != nil {
		return nil, err
	}

	log.Info("bkash payment refunded", zap.String("refund_trx_id", res.RefundTrxID))

	return res, nil
}

// marshalParams keeps the raw callback parameters as the record's audit
// metadata.
func marshalParams(params url.Values) json.RawMessage {
	flat := make(map[string]string, len(params))
	for k := range params {
		flat[k] = params.Get(k)
	}
	meta, err := json.Marshal(flat)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return meta
}

func marshalError(err error) json.RawMessage {
	payload := map[string]string{
		"error": err.Error(),
		"at":    time.Now().UTC().Format(time.RFC3339),
	}
	var gwErr *bkash.GatewayError
	if errors.As(err, &gwErr) {
		payload["statusCode"] = gwErr.StatusCode
		payload["statusMessage"] = gwErr.StatusMessage
	}
	meta, marshalErr := json.Marshal(payload)
	if marshalErr != nil {
		return json.RawMessage(`{}`)
	}
	return meta
}
