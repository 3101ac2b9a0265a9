package bkash

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// mockAPI is a testify mock over the gateway API, shared by the token cache
// and executor tests.
type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) GrantToken(ctx context.Context, creds Credentials) (*TokenResponse, error) {
	args := m.Called(ctx, creds)
	if res := args.Get(0); res != nil {
		return res.(*TokenResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) CreatePayment(ctx context.Context, creds Credentials, token string, req *PaymentCreateRequest) (*PaymentCreateResponse, error) {
	args := m.Called(ctx, creds, token, req)
	if res := args.Get(0); res != nil {
		return res.(*PaymentCreateResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) ExecutePayment(ctx context.Context, creds Credentials, token, paymentID string) (*PaymentExecuteResponse, error) {
	args := m.Called(ctx, creds, token, paymentID)
	if res := args.Get(0); res != nil {
		return res.(*PaymentExecuteResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) QueryPayment(ctx context.Context, creds Credentials, token, paymentID string) (*PaymentQueryResponse, error) {
	args := m.Called(ctx, creds, token, paymentID)
	if res := args.Get(0); res != nil {
		return res.(*PaymentQueryResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockAPI) RefundPayment(ctx context.Context, creds Credentials, token string, req *RefundRequest) (*RefundResponse, error) {
	args := m.Called(ctx, creds, token, req)
	if res := args.Get(0); res != nil {
		return res.(*RefundResponse), args.Error(1)
	}
	return nil, args.Error(1)
}
