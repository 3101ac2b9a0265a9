package bkash

import (
	"encoding/json"
	"strconv"
)

const (
	// StatusCodeSuccess is the gateway's "everything worked" code shared
	// by every operation.
	StatusCodeSuccess = "0000"

	transactionCompleted = "Completed"
)

// TokenResponse is the token grant payload. The gateway is not consistent
// about the token field name across environments, so unmarshalling accepts
// id_token, token and access_token.
type TokenResponse struct {
	IDToken       string
	TokenType     string
	ExpiresIn     int
	RefreshToken  string
	StatusCode    string
	StatusMessage string
}

func (t *TokenResponse) UnmarshalJSON(data []byte) error {
	var raw struct {
		IDToken       string `json:"id_token"`
		Token         string `json:"token"`
		AccessToken   string `json:"access_token"`
		TokenType     string `json:"token_type"`
		ExpiresIn     int    `json:"expires_in"`
		RefreshToken  string `json:"refresh_token"`
		StatusCode    string `json:"statusCode"`
		StatusMessage string `json:"statusMessage"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	t.IDToken = raw.IDToken
	if t.IDToken == "" {
		t.IDToken = raw.Token
	}
	if t.IDToken == "" {
		t.IDToken = raw.AccessToken
	}

	t.TokenType = raw.TokenType
	if t.TokenType == "" {
		t.TokenType = "Bearer"
	}

	t.ExpiresIn = raw.ExpiresIn
	if t.ExpiresIn <= 0 {
		t.ExpiresIn = 3600
	}

	t.RefreshToken = raw.RefreshToken

	// A grant that omits the status fields is treated as successful; the
	// token presence check below still applies.
	t.StatusCode = raw.StatusCode
	if t.StatusCode == "" {
		t.StatusCode = StatusCodeSuccess
	}
	t.StatusMessage = raw.StatusMessage
	if t.StatusMessage == "" {
		t.StatusMessage = "Successful"
	}

	return nil
}

func (t *TokenResponse) Successful() bool {
	return t.StatusCode == StatusCodeSuccess && t.IDToken != ""
}

// PaymentCreateRequest is the create-payment wire payload.
type PaymentCreateRequest struct {
	Mode                  string `json:"mode"`
	PayerReference        string `json:"payerReference"`
	CallbackURL           string `json:"callbackURL"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
}

type PaymentCreateResponse struct {
	PaymentID             string `json:"paymentID"`
	BkashURL              string `json:"bkashURL"`
	CallbackURL           string `json:"callbackURL"`
	Amount                string `json:"amount"`
	Intent                string `json:"intent"`
	Currency              string `json:"currency"`
	PaymentCreateTime     string `json:"paymentCreateTime"`
	TransactionStatus     string `json:"transactionStatus"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
}

func (r *PaymentCreateResponse) Successful() bool {
	return r.StatusCode == StatusCodeSuccess && r.PaymentID != ""
}

type PaymentExecuteResponse struct {
	PaymentID             string `json:"paymentID"`
	TrxID                 string `json:"trxID"`
	TransactionStatus     string `json:"transactionStatus"`
	Amount                string `json:"amount"`
	Currency              string `json:"currency"`
	Intent                string `json:"intent"`
	PaymentExecuteTime    string `json:"paymentExecuteTime"`
	MerchantInvoiceNumber string `json:"merchantInvoiceNumber"`
	PayerType             string `json:"payerType"`
	PayerReference        string `json:"payerReference"`
	CustomerMsisdn        string `json:"customerMsisdn"`
	StatusCode            string `json:"statusCode"`
	StatusMessage         string `json:"statusMessage"`
}

func (r *PaymentExecuteResponse) Successful() bool {
	return r.StatusCode == StatusCodeSuccess && r.TransactionStatus == transactionCompleted
}

type PaymentQueryResponse struct {
	PaymentID          string `json:"paymentID"`
	Mode               string `json:"mode"`
	PaymentCreateTime  string `json:"paymentCreateTime"`
	PaymentExecuteTime string `json:"paymentExecuteTime"`
	TrxID              string `json:"trxID"`
	TransactionStatus  string `json:"transactionStatus"`
	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	Intent             string `json:"intent"`
	MerchantInvoice    string `json:"merchantInvoice"`
	VerificationStatus string `json:"verificationStatus"`
	PayerReference     string `json:"payerReference"`
	StatusCode         string `json:"statusCode"`
	StatusMessage      string `json:"statusMessage"`
}

func (r *PaymentQueryResponse) Successful() bool {
	return r.StatusCode == StatusCodeSuccess
}

func (r *PaymentQueryResponse) Completed() bool {
	return r.TransactionStatus == transactionCompleted
}

// ExecuteResponseFromQuery builds an execute result out of a status query
// that confirmed the payment as completed. Used when the gateway rejects a
// repeated execute call for a payment that in fact went through.
func ExecuteResponseFromQuery(q *PaymentQueryResponse) *PaymentExecuteResponse {
	return &PaymentExecuteResponse{
		PaymentID:             q.PaymentID,
		TrxID:                 q.TrxID,
		TransactionStatus:     q.TransactionStatus,
		Amount:                q.Amount,
		Currency:              q.Currency,
		Intent:                q.Intent,
		PaymentExecuteTime:    q.PaymentExecuteTime,
		MerchantInvoiceNumber: q.MerchantInvoice,
		PayerReference:        q.PayerReference,
		StatusCode:            StatusCodeSuccess,
		StatusMessage:         "Successful",
	}
}

// RefundRequest is the refund-transaction wire payload.
type RefundRequest struct {
	PaymentID string `json:"paymentID"`
	Amount    string `json:"amount"`
	TrxID     string `json:"trxID"`
	SKU       string `json:"sku"`
	Reason    string `json:"reason"`
}

type RefundResponse struct {
	OriginalTrxID     string `json:"originalTrxID"`
	RefundTrxID       string `json:"refundTrxID"`
	TransactionStatus string `json:"transactionStatus"`
	Amount            string `json:"amount"`
	Currency          string `json:"currency"`
	Charge            string `json:"charge"`
	CompletedTime     string `json:"completedTime"`
	StatusCode        string `json:"statusCode"`
	StatusMessage     string `json:"statusMessage"`
}

func (r *RefundResponse) Successful() bool {
	return r.StatusCode == StatusCodeSuccess
}

// FormatAmount renders an amount the way the gateway expects: two decimal
// places, dot separator, no grouping.
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
