package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/dto"
	"github.com/GlebRadaev/clubledger/internal/service/ledgerservice"
	"github.com/GlebRadaev/clubledger/pkg/auth"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

var member = domain.Actor{UserID: 7}

func NewMock(t *testing.T) (*LedgerHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func withActor(r *http.Request, actor domain.Actor) *http.Request {
	return r.WithContext(auth.WithActor(r.Context(), actor))
}

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestGetBalanceHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Successful retrieval",
			prepareMock: func() {
				service.EXPECT().GetBalance(gomock.Any(), 7).
					Return(&domain.Account{ID: 7, Balance: dec("-10"), Floor: dec("-15"), Active: true}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name: "Account not found",
			prepareMock: func() {
				service.EXPECT().GetBalance(gomock.Any(), 7).Return(nil, ledgerservice.ErrAccountNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name: "Internal server error",
			prepareMock: func() {
				service.EXPECT().GetBalance(gomock.Any(), 7).Return(nil, errors.New("error"))
			},
			expectedCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := withActor(httptest.NewRequest(http.MethodGet, "/api/balance", nil), member)
			w := httptest.NewRecorder()

			handler.GetBalance(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, "-10", body["balance"])
				assert.Equal(t, "5", body["available"])
			}
		})
	}
}

func TestGetTransactionsHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		query        string
		prepareMock  func()
		expectedCode int
	}{
		{
			name:  "Default limit",
			query: "",
			prepareMock: func() {
				service.EXPECT().ListTransactions(gomock.Any(), 7, 0).
					Return([]domain.Transaction{{ID: 2}, {ID: 1}}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "Explicit limit",
			query: "?limit=10",
			prepareMock: func() {
				service.EXPECT().ListTransactions(gomock.Any(), 7, 10).Return([]domain.Transaction{{ID: 1}}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:         "Invalid limit",
			query:        "?limit=-1",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:  "No transactions",
			query: "",
			prepareMock: func() {
				service.EXPECT().ListTransactions(gomock.Any(), 7, 0).Return(nil, nil)
			},
			expectedCode: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := withActor(httptest.NewRequest(http.MethodGet, "/api/transactions"+tt.query, nil), member)
			w := httptest.NewRecorder()

			handler.GetTransactions(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestGetTransactionHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		id           string
		actor        domain.Actor
		prepareMock  func()
		expectedCode int
	}{
		{
			name:  "Own transaction",
			id:    "5",
			actor: member,
			prepareMock: func() {
				service.EXPECT().GetTransaction(gomock.Any(), int64(5)).
					Return(&domain.Transaction{ID: 5, AccountID: ptr(7), Status: domain.StatusPending}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "Someone else's transaction",
			id:    "5",
			actor: member,
			prepareMock: func() {
				service.EXPECT().GetTransaction(gomock.Any(), int64(5)).
					Return(&domain.Transaction{ID: 5, AccountID: ptr(8)}, nil)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:  "Admin sees guest settlement",
			id:    "5",
			actor: domain.Actor{UserID: 1, Admin: true},
			prepareMock: func() {
				service.EXPECT().GetTransaction(gomock.Any(), int64(5)).
					Return(&domain.Transaction{ID: 5, GuestID: ptr(3)}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "Not found",
			id:    "5",
			actor: member,
			prepareMock: func() {
				service.EXPECT().GetTransaction(gomock.Any(), int64(5)).Return(nil, ledgerservice.ErrTransactionNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Invalid id",
			id:           "abc",
			actor:        member,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := httptest.NewRequest(http.MethodGet, "/api/transactions/"+tt.id, nil)
			r = withParam(withActor(r, tt.actor), "id", tt.id)
			w := httptest.NewRecorder()

			handler.GetTransaction(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestPurchaseHandler(t *testing.T) {
	handler, service := NewMock(t)

	tests := []struct {
		name         string
		body         string
		prepareMock  func()
		expectedCode int
	}{
		{
			name: "Successful purchase",
			body: `{"amount":"3.50","payment_method":"balance","description":"Club Mate"}`,
			prepareMock: func() {
				service.EXPECT().Apply(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, op domain.Operation) (*domain.Transaction, error) {
						assert.Equal(t, 7, *op.AccountID)
						assert.Equal(t, domain.KindPurchase, op.Kind)
						assert.True(t, op.Amount.Equal(dec("3.5")))
						assert.Equal(t, member, op.Actor)
						return &domain.Transaction{ID: 1, Amount: dec("-3.5"), Status: domain.StatusSuccessful}, nil
					})
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:         "Invalid request body",
			body:         `{"amount":}`,
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "Negative amount",
			body:         `{"amount":-1,"payment_method":"balance"}`,
			prepareMock:  func() {},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name:         "Card method not allowed",
			body:         `{"amount":1,"payment_method":"cloud_api"}`,
			prepareMock:  func() {},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Insufficient funds",
			body: `{"amount":20,"payment_method":"balance"}`,
			prepareMock: func() {
				service.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(nil, ledgerservice.ErrInsufficientFunds)
			},
			expectedCode: http.StatusPaymentRequired,
		},
		{
			name: "Account inactive",
			body: `{"amount":2,"payment_method":"balance"}`,
			prepareMock: func() {
				service.EXPECT().Apply(gomock.Any(), gomock.Any()).Return(nil, ledgerservice.ErrAccountInactive)
			},
			expectedCode: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			r := withActor(httptest.NewRequest(http.MethodPost, "/api/purchases", strings.NewReader(tt.body)), member)
			w := httptest.NewRecorder()

			handler.Purchase(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedCode == http.StatusCreated {
				var body dto.TransactionResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
				assert.Equal(t, "successful", body.Status)
			}
		})
	}
}
