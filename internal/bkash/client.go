package bkash

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bonik-be/internal/logger"

	"go.uber.org/zap"
)

// API is the outbound surface of the gateway. The token cache, executor and
// orchestrator all depend on this instead of the concrete client.
type API interface {
	GrantToken(ctx context.Context, creds Credentials) (*TokenResponse, error)
	CreatePayment(ctx context.Context, creds Credentials, token string, req *PaymentCreateRequest) (*PaymentCreateResponse, error)
	ExecutePayment(ctx context.Context, creds Credentials, token, paymentID string) (*PaymentExecuteResponse, error)
	QueryPayment(ctx context.Context, creds Credentials, token, paymentID string) (*PaymentQueryResponse, error)
	RefundPayment(ctx context.Context, creds Credentials, token string, req *RefundRequest) (*RefundResponse, error)
}

type Client struct {
	httpClient *http.Client
}

// NewClient builds the gateway HTTP client. The timeout applies per
// outbound call; timeouts surface through the normal failure path.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// GrantToken requests a bearer token. This is the one call that
// authenticates with username/password headers instead of a bearer token.
func (c *Client) GrantToken(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	log := logger.FromCtx(ctx).With(zap.String("op", "token_grant"))

	body := map[string]string{
		"app_key":    creds.AppKey,
		"app_secret": creds.AppSecret,
	}

	headers := map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	}

	raw, httpStatus, err := c.post(ctx, creds.BaseURL+"/checkout/token/grant", headers, body)
	if err != nil {
		log.Error("bkash token request failed", zap.Error(err))
		return nil, err
	}

	var res TokenResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Error("failed decoding bkash token response", zap.Error(err))
		return nil, fmt.Errorf("failed to decode bkash token response: %w", err)
	}

	if !httpOK(httpStatus) || !res.Successful() {
		log.Error("bkash token grant denied",
			zap.Int("http_status", httpStatus),
			zap.String("status_code", res.StatusCode),
			zap.String("status_message", res.StatusMessage),
		)
		return nil, &GatewayError{
			Op:            "token grant",
			HTTPStatus:    httpStatus,
			StatusCode:    res.StatusCode,
			StatusMessage: res.StatusMessage,
		}
	}

	return &res, nil
}

// CreatePayment creates a payment intent and returns the hosted-page URL.
func (c *Client) CreatePayment(ctx context.Context, creds Credentials, token string, req *PaymentCreateRequest) (*PaymentCreateResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("op", "payment_create"),
		zap.String("invoice", req.MerchantInvoiceNumber),
		zap.String("amount", req.Amount),
	)

	raw, httpStatus, err := c.post(ctx, creds.BaseURL+"/checkout/payment/create", authHeaders(token, creds.AppKey), req)
	if err != nil {
		log.Error("bkash create request failed", zap.Error(err))
		return nil, err
	}

	var res PaymentCreateResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Error("failed decoding bkash create response", zap.Error(err), zap.ByteString("response", raw))
		return nil, fmt.Errorf("failed to decode bkash create response: %w", err)
	}

	if !httpOK(httpStatus) || !res.Successful() {
		log.Error("bkash payment create rejected",
			zap.Int("http_status", httpStatus),
			zap.String("status_code", res.StatusCode),
			zap.String("status_message", res.StatusMessage),
			zap.ByteString("response", raw),
		)
		return nil, &GatewayError{
			Op:            "payment create",
			HTTPStatus:    httpStatus,
			StatusCode:    res.StatusCode,
			StatusMessage: res.StatusMessage,
		}
	}

	log.Info("bkash payment created",
		zap.String("payment_id", res.PaymentID),
		zap.String("transaction_status", res.TransactionStatus),
	)

	return &res, nil
}

// ExecutePayment confirms the payment after the shopper approved it on the
// hosted page. Success requires both the "0000" status code and a Completed
// transaction status.
func (c *Client) ExecutePayment(ctx context.Context, creds Credentials, token, paymentID string) (*PaymentExecuteResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("op", "payment_execute"),
		zap.String("payment_id", paymentID),
	)

	raw, httpStatus, err := c.post(ctx, creds.BaseURL+"/checkout/payment/execute/"+paymentID, authHeaders(token, creds.AppKey), nil)
	if err != nil {
		log.Error("bkash execute request failed", zap.Error(err))
		return nil, err
	}

	log.Debug("bkash execute response",
		zap.Int("http_status", httpStatus),
		zap.ByteString("body", raw),
	)

	var res PaymentExecuteResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Error("failed decoding bkash execute response", zap.Error(err), zap.ByteString("response", raw))
		return nil, fmt.Errorf("failed to decode bkash execute response: %w", err)
	}

	if !httpOK(httpStatus) || !res.Successful() {
		log.Error("bkash payment execute rejected",
			zap.Int("http_status", httpStatus),
			zap.String("status_code", res.StatusCode),
			zap.String("status_message", res.StatusMessage),
			zap.ByteString("response", raw),
		)
		return nil, &GatewayError{
			Op:            "payment execute",
			HTTPStatus:    httpStatus,
			StatusCode:    res.StatusCode,
			StatusMessage: res.StatusMessage,
		}
	}

	return &res, nil
}

// QueryPayment fetches the gateway's view of a payment. Used by the
// reconciliation path to decide whether an ambiguous execute actually
// succeeded.
func (c *Client) QueryPayment(ctx context.Context, creds Credentials, token, paymentID string) (*PaymentQueryResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("op", "payment_query"),
		zap.String("payment_id", paymentID),
	)

	raw, httpStatus, err := c.post(ctx, creds.BaseURL+"/checkout/payment/query/"+paymentID, authHeaders(token, creds.AppKey), nil)
	if err != nil {
		log.Error("bkash query request failed", zap.Error(err))
		return nil, err
	}

	var res PaymentQueryResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Error("failed decoding bkash query response", zap.Error(err), zap.ByteString("response", raw))
		return nil, fmt.Errorf("failed to decode bkash query response: %w", err)
	}

	if !httpOK(httpStatus) || !res.Successful() {
		log.Error("bkash payment query rejected",
			zap.Int("http_status", httpStatus),
			zap.String("status_code", res.StatusCode),
			zap.String("status_message", res.StatusMessage),
		)
		return nil, &GatewayError{
			Op:            "payment query",
			HTTPStatus:    httpStatus,
			StatusCode:    res.StatusCode,
			StatusMessage: res.StatusMessage,
		}
	}

	return &res, nil
}

// RefundPayment refunds a completed transaction, fully or partially.
func (c *Client) RefundPayment(ctx context.Context, creds Credentials, token string, req *RefundRequest) (*RefundResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("op", "payment_refund"),
		zap.String("payment_id", req.PaymentID),
		zap.String("amount", req.Amount),
	)

	raw, httpStatus, err := c.post(ctx, creds.BaseURL+"/checkout/payment/refund", authHeaders(token, creds.AppKey), req)
	if err != nil {
		log.Error("bkash refund request failed", zap.Error(err))
		return nil, err
	}

	var res RefundResponse
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Error("failed decoding bkash refund response", zap.Error(err), zap.ByteString("response", raw))
		return nil, fmt.Errorf("failed to decode bkash refund response: %w", err)
	}

	if !httpOK(httpStatus) || !res.Successful() {
		log.Error("bkash refund rejected",
			zap.Int("http_status", httpStatus),
			zap.String("status_code", res.StatusCode),
			zap.String("status_message", res.StatusMessage),
		)
		return nil, &GatewayError{
			Op:            "payment refund",
			HTTPStatus:    httpStatus,
			StatusCode:    res.StatusCode,
			StatusMessage: res.StatusMessage,
		}
	}

	log.Info("bkash refund completed", zap.String("refund_trx_id", res.RefundTrxID))

	return &res, nil
}

// post sends one JSON request and returns the raw body plus HTTP status.
// Network and read errors come back as plain errors; status-rule checks are
// the caller's job since each operation parses its own response type.
func (c *Client) post(ctx context.Context, url string, headers map[string]string, body any) ([]byte, int, error) {
	var payload io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, 0, err
		}
		payload = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read bkash response: %w", err)
	}

	return raw, resp.StatusCode, nil
}

func authHeaders(token, appKey string) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token,
		"X-APP-Key":     appKey,
	}
}

func httpOK(status int) bool {
	return status >= 200 && status < 300
}
