package checkout

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"bonik-be/internal/bkash"
	"bonik-be/internal/order"
	"bonik-be/internal/utils"
)

type mockService struct{ mock.Mock }

func (m *mockService) CreatePayment(ctx context.Context, cartID int64) (string, error) {
	args := m.Called(ctx, cartID)
	return args.String(0), args.Error(1)
}

func (m *mockService) ProcessCallback(ctx context.Context, paymentID, status string, params url.Values) (*order.Order, error) {
	args := m.Called(ctx, paymentID, status, params)
	if ord := args.Get(0); ord != nil {
		return ord.(*order.Order), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockService) RefundPayment(ctx context.Context, paymentID, reason string) (*bkash.RefundResponse, error) {
	args := m.Called(ctx, paymentID, reason)
	if res := args.Get(0); res != nil {
		return res.(*bkash.RefundResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func newHandlerFixture() (*mockService, *Handler) {
	svc := new(mockService)
	h := NewHandler(svc, "https://shop.example/checkout/success", "https://shop.example/cart")
	return svc, h
}

func TestHandler_CreatePayment(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("CreatePayment", mock.Anything, int64(123)).
			Return("https://sandbox.bka.sh/pay/TR1", nil)

		req := httptest.NewRequest(http.MethodPost, "/checkout/payment", strings.NewReader(`{"cart_id":123}`))
		rr := httptest.NewRecorder()
		h.CreatePayment(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"redirect_url":"https://sandbox.bka.sh/pay/TR1"}`, rr.Body.String())
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		_, h := newHandlerFixture()

		req := httptest.NewRequest(http.MethodGet, "/checkout/payment", nil)
		rr := httptest.NewRecorder()
		h.CreatePayment(rr, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("InvalidBody", func(t *testing.T) {
		_, h := newHandlerFixture()

		req := httptest.NewRequest(http.MethodPost, "/checkout/payment", strings.NewReader(`{`))
		rr := httptest.NewRecorder()
		h.CreatePayment(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("MissingCartID", func(t *testing.T) {
		_, h := newHandlerFixture()

		req := httptest.NewRequest(http.MethodPost, "/checkout/payment", strings.NewReader(`{}`))
		rr := httptest.NewRecorder()
		h.CreatePayment(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("NotConfigured", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("CreatePayment", mock.Anything, int64(123)).
			Return("", &bkash.PaymentCreationError{
				Reason: "failed to create bkash payment",
				Err:    &bkash.ConfigurationError{Missing: []string{"app_key"}},
			})

		req := httptest.NewRequest(http.MethodPost, "/checkout/payment", strings.NewReader(`{"cart_id":123}`))
		rr := httptest.NewRecorder()
		h.CreatePayment(rr, req)

		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Contains(t, rr.Body.String(), "not configured")
	})

	t.Run("GatewayFailure", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("CreatePayment", mock.Anything, int64(123)).
			Return("", &bkash.PaymentCreationError{
				Reason: "failed to create bkash payment",
				Err:    &bkash.GatewayError{Op: "payment create", HTTPStatus: 500},
			})

		req := httptest.NewRequest(http.MethodPost, "/checkout/payment", strings.NewReader(`{"cart_id":123}`))
		rr := httptest.NewRecorder()
		h.CreatePayment(rr, req)

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestHandler_Refund(t *testing.T) {
	staffReq := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/checkout/refund", strings.NewReader(body))
		ctx := utils.SetUserContext(req.Context(), 42, "staff@shop.example")
		return req.WithContext(ctx)
	}

	t.Run("Success", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("RefundPayment", mock.Anything, "TR1", "customer request").
			Return(&bkash.RefundResponse{
				OriginalTrxID: "X1",
				RefundTrxID:   "R1",
				Amount:        "100.00",
				StatusCode:    "0000",
			}, nil)

		rr := httptest.NewRecorder()
		h.Refund(rr, staffReq(`{"payment_id":"TR1","reason":"customer request"}`))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"refund_trx_id":"R1","original_trx_id":"X1","amount":"100.00"}`, rr.Body.String())
	})

	t.Run("GuestRejected", func(t *testing.T) {
		svc, h := newHandlerFixture()

		req := httptest.NewRequest(http.MethodPost, "/checkout/refund", strings.NewReader(`{"payment_id":"TR1"}`))
		rr := httptest.NewRecorder()
		h.Refund(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		svc.AssertNotCalled(t, "RefundPayment")
	})

	t.Run("MissingPaymentID", func(t *testing.T) {
		_, h := newHandlerFixture()

		rr := httptest.NewRecorder()
		h.Refund(rr, staffReq(`{"reason":"whatever"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("NotRefundable", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("RefundPayment", mock.Anything, "TR1", "").
			Return(nil, ErrNotRefundable)

		rr := httptest.NewRecorder()
		h.Refund(rr, staffReq(`{"payment_id":"TR1"}`))

		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("UnknownPayment", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("RefundPayment", mock.Anything, "TRX", "").
			Return(nil, &bkash.NotFoundError{PaymentID: "TRX"})

		rr := httptest.NewRecorder()
		h.Refund(rr, staffReq(`{"payment_id":"TRX"}`))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("GatewayRejection", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("RefundPayment", mock.Anything, "TR1", "").
			Return(nil, &bkash.GatewayError{Op: "payment refund", HTTPStatus: 400, StatusCode: "2061"})

		rr := httptest.NewRecorder()
		h.Refund(rr, staffReq(`{"payment_id":"TR1"}`))

		assert.Equal(t, http.StatusBadGateway, rr.Code)
	})
}

func TestHandler_Callback(t *testing.T) {
	callbackReq := func(query string) *http.Request {
		return httptest.NewRequest(http.MethodGet, "/bkash/callback?"+query, nil)
	}

	t.Run("SuccessRedirectsToOrder", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("ProcessCallback", mock.Anything, "TR1", "success", mock.Anything).
			Return(&order.Order{ID: 55}, nil)

		rr := httptest.NewRecorder()
		h.Callback(rr, callbackReq("paymentID=TR1&status=success"))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		assert.Equal(t, "https://shop.example/checkout/success?order=55", rr.Header().Get("Location"))
	})

	t.Run("MissingPaymentID", func(t *testing.T) {
		svc, h := newHandlerFixture()

		rr := httptest.NewRecorder()
		h.Callback(rr, callbackReq("status=success"))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		loc, err := url.Parse(rr.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "Payment reference missing. Please try again.", loc.Query().Get("error"))
		svc.AssertNotCalled(t, "ProcessCallback")
	})

	t.Run("Cancelled", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("ProcessCallback", mock.Anything, "TR1", "cancel", mock.Anything).
			Return(nil, ErrPaymentNotCompleted)

		rr := httptest.NewRecorder()
		h.Callback(rr, callbackReq("paymentID=TR1&status=cancel"))

		assert.Equal(t, http.StatusSeeOther, rr.Code)
		loc, err := url.Parse(rr.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "https://shop.example/cart", loc.Scheme+"://"+loc.Host+loc.Path)
		assert.Equal(t, "Payment was cancelled. Please try again.", loc.Query().Get("error"))
	})

	t.Run("ReplayedCallback", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("ProcessCallback", mock.Anything, "TR1", "success", mock.Anything).
			Return(nil, &bkash.NotFoundError{PaymentID: "TR1"})

		rr := httptest.NewRecorder()
		h.Callback(rr, callbackReq("paymentID=TR1&status=success"))

		loc, err := url.Parse(rr.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "Payment not found or already processed.", loc.Query().Get("error"))
	})

	t.Run("CartGone", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("ProcessCallback", mock.Anything, "TR1", "success", mock.Anything).
			Return(nil, ErrCartGone)

		rr := httptest.NewRecorder()
		h.Callback(rr, callbackReq("paymentID=TR1&status=success"))

		loc, err := url.Parse(rr.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "Your cart could not be found. Please contact support.", loc.Query().Get("error"))
	})

	t.Run("ExecutionFailure", func(t *testing.T) {
		svc, h := newHandlerFixture()
		svc.On("ProcessCallback", mock.Anything, "TR1", "success", mock.Anything).
			Return(nil, &bkash.PaymentCreationError{
				Reason: "payment execution failed",
				Err:    &bkash.GatewayError{Op: "payment execute", StatusCode: "2023"},
			})

		rr := httptest.NewRecorder()
		h.Callback(rr, callbackReq("paymentID=TR1&status=success"))

		loc, err := url.Parse(rr.Header().Get("Location"))
		require.NoError(t, err)
		assert.Equal(t, "Payment processing failed. Please try again.", loc.Query().Get("error"))
	})
}
