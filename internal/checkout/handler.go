package checkout

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"bonik-be/internal/bkash"
	"bonik-be/internal/logger"
	"bonik-be/internal/utils"

	"go.uber.org/zap"
)

// Handler exposes the two HTTP entry points of the payment flow: the
// create-payment endpoint the storefront calls, and the callback endpoint
// the gateway redirects the shopper back to.
//
// This is the only layer that turns errors into shopper-facing redirects
// with messages; everything below returns typed errors.
type Handler struct {
	svc Service

	successURL string
	cartURL    string
}

func NewHandler(svc Service, successURL, cartURL string) *Handler {
	return &Handler{
		svc:        svc,
		successURL: successURL,
		cartURL:    cartURL,
	}
}

type createPaymentRequest struct {
	CartID int64 `json:"cart_id"`
}

type createPaymentResponse struct {
	RedirectURL string `json:"redirect_url"`
}

// CreatePayment starts a payment and returns the gateway URL the storefront
// should redirect the shopper's browser to.
func (h *Handler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	var req createPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CartID == 0 {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	redirectURL, err := h.svc.CreatePayment(r.Context(), req.CartID)
	if err != nil {
		logger.FromCtx(r.Context()).Error("create payment request failed",
			zap.Int64("cart_id", req.CartID),
			zap.Error(err),
		)
		writeJSONError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(createPaymentResponse{RedirectURL: redirectURL})
}

// Callback handles the gateway's browser redirect after the shopper acted
// on the hosted payment page. Every outcome ends in a redirect; raw errors
// are never shown to the shopper.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	paymentID := q.Get("paymentID")
	status := q.Get("status")

	if paymentID == "" {
		h.redirectError(w, r, "Payment reference missing. Please try again.")
		return
	}

	ord, err := h.svc.ProcessCallback(r.Context(), paymentID, status, q)
	if err == nil {
		target := h.successURL + "?order=" + strconv.FormatInt(ord.ID, 10)
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	var notFound *bkash.NotFoundError
	switch {
	case errors.Is(err, ErrPaymentNotCompleted):
		h.redirectError(w, r, "Payment was cancelled. Please try again.")
	case errors.As(err, &notFound):
		h.redirectError(w, r, "Payment not found or already processed.")
	case errors.Is(err, ErrCartGone):
		h.redirectError(w, r, "Your cart could not be found. Please contact support.")
	default:
		h.redirectError(w, r, "Payment processing failed. Please try again.")
	}
}

type refundRequest struct {
	PaymentID string `json:"payment_id"`
	Reason    string `json:"reason"`
}

type refundResponse struct {
	RefundTrxID   string `json:"refund_trx_id"`
	OriginalTrxID string `json:"original_trx_id"`
	Amount        string `json:"amount"`
}

// Refund is the staff-facing refund entry point. It refuses guests: the
// auth middleware lets unauthenticated requests through for checkout, so
// the identity check lives here.
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}

	var req refundRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PaymentID == "" {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	res, err := h.svc.RefundPayment(r.Context(), req.PaymentID, req.Reason)
	if err != nil {
		logger.FromCtx(r.Context()).Error("refund request failed",
			zap.String("payment_id", req.PaymentID),
			zap.Error(err),
		)

		var notFound *bkash.NotFoundError
		switch {
		case errors.Is(err, ErrNotRefundable):
			http.Error(w, "payment is not refundable", http.StatusConflict)
		case errors.As(err, &notFound):
			http.Error(w, "payment not found", http.StatusNotFound)
		default:
			writeJSONError(w, err)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(refundResponse{
		RefundTrxID:   res.RefundTrxID,
		OriginalTrxID: res.OriginalTrxID,
		Amount:        res.Amount,
	})
}

func (h *Handler) redirectError(w http.ResponseWriter, r *http.Request, msg string) {
	target := h.cartURL + "?error=" + url.QueryEscape(msg)
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func writeJSONError(w http.ResponseWriter, err error) {
	status := http.StatusBadGateway
	msg := "Failed to set up the payment. Please try again."

	var cfgErr *bkash.ConfigurationError
	if errors.As(err, &cfgErr) {
		status = http.StatusServiceUnavailable
		msg = "Payment method is not configured."
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
