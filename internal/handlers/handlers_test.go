package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/clubledger/internal/config"
	"github.com/GlebRadaev/clubledger/internal/reconciler"
	"github.com/GlebRadaev/clubledger/internal/repo"
	"github.com/GlebRadaev/clubledger/internal/service"
	"github.com/GlebRadaev/clubledger/pkg/auth"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)

	cfg := &config.Config{
		Ledger: config.Ledger{OverdraftFloor: decimal.RequireFromString("-15")},
		Checkout: config.Checkout{
			PollInterval:  time.Second,
			PollTimeout:   time.Minute,
			SweepInterval: time.Minute,
			Workers:       1,
		},
	}
	services := service.New(cfg, repo.NewMemory(), reconciler.NewMockGateway(ctrl))
	t.Cleanup(services.Reconciler.Stop)

	h := New(services, auth.NewJWTService("secret"), nil)
	assert.NotNil(t, h, "Handlers should not be nil")
	assert.NotNil(t, h.AdminHandler)
}

func TestInitRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)

	mockLedgerHandler := NewMockLedgerHandler(ctrl)
	mockCheckoutHandler := NewMockCheckoutHandler(ctrl)
	mockGuestHandler := NewMockGuestHandler(ctrl)
	mockAdminHandler := NewMockAdminHandler(ctrl)

	mockLedgerHandler.EXPECT().GetBalance(gomock.Any(), gomock.Any()).AnyTimes()
	mockLedgerHandler.EXPECT().GetTransactions(gomock.Any(), gomock.Any()).AnyTimes()
	mockLedgerHandler.EXPECT().GetTransaction(gomock.Any(), gomock.Any()).AnyTimes()
	mockLedgerHandler.EXPECT().Purchase(gomock.Any(), gomock.Any()).AnyTimes()
	mockCheckoutHandler.EXPECT().TopUp(gomock.Any(), gomock.Any()).AnyTimes()
	mockGuestHandler.EXPECT().OpenTab(gomock.Any(), gomock.Any()).AnyTimes()
	mockGuestHandler.EXPECT().GetTab(gomock.Any(), gomock.Any()).AnyTimes()
	mockGuestHandler.EXPECT().AddItem(gomock.Any(), gomock.Any()).AnyTimes()
	mockGuestHandler.EXPECT().CloseTab(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().OpenAccount(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetAccount(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().UpdateAccount(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetAccountTransactions(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().Adjust(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetCheckouts(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().CancelCheckout(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().PairReader(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetReader(gomock.Any(), gomock.Any()).AnyTimes()
	mockAdminHandler.EXPECT().GetReaders(gomock.Any(), gomock.Any()).AnyTimes()

	jwtService := auth.NewJWTService("secret")
	member, err := jwtService.GenerateJWT(7, false, time.Now().Add(time.Hour))
	require.NoError(t, err)
	admin, err := jwtService.GenerateJWT(1, true, time.Now().Add(time.Hour))
	require.NoError(t, err)

	h := &Handlers{
		LedgerHandler:   mockLedgerHandler,
		CheckoutHandler: mockCheckoutHandler,
		GuestHandler:    mockGuestHandler,
		AdminHandler:    mockAdminHandler,
		jwtService:      jwtService,
		corsOrigins:     []string{"http://localhost:3000"},
	}

	router := chi.NewRouter()
	h.InitRoutes(router)

	tests := []struct {
		method string
		url    string
		token  string
		status int
	}{
		{"GET", "/api/balance", "", http.StatusUnauthorized},
		{"POST", "/api/purchases", "", http.StatusUnauthorized},
		{"GET", "/api/admin/checkouts", "", http.StatusUnauthorized},
		{"GET", "/api/balance", member, http.StatusOK},
		{"GET", "/api/transactions", member, http.StatusOK},
		{"GET", "/api/transactions/5", member, http.StatusOK},
		{"POST", "/api/purchases", member, http.StatusOK},
		{"POST", "/api/topups", member, http.StatusOK},
		{"POST", "/api/guests", member, http.StatusOK},
		{"GET", "/api/guests/3", member, http.StatusOK},
		{"POST", "/api/guests/3/items", member, http.StatusOK},
		{"POST", "/api/guests/3/close", member, http.StatusOK},
		{"POST", "/api/admin/accounts", member, http.StatusForbidden},
		{"DELETE", "/api/admin/checkouts/co-1", member, http.StatusForbidden},
		{"POST", "/api/admin/accounts", admin, http.StatusOK},
		{"GET", "/api/admin/accounts/7", admin, http.StatusOK},
		{"PATCH", "/api/admin/accounts/7", admin, http.StatusOK},
		{"GET", "/api/admin/accounts/7/transactions", admin, http.StatusOK},
		{"POST", "/api/admin/accounts/7/adjust", admin, http.StatusOK},
		{"GET", "/api/admin/checkouts", admin, http.StatusOK},
		{"DELETE", "/api/admin/checkouts/co-1", admin, http.StatusOK},
		{"POST", "/api/admin/reader/pair", admin, http.StatusOK},
		{"GET", "/api/admin/reader", admin, http.StatusOK},
		{"GET", "/api/admin/readers", admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.url, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.url, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("CORS preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/balance", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}
