package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/GlebRadaev/clubledger/internal/config"
	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/pkg/clients"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var testConfig = config.Checkout{
	APIURL:        "https://gateway.test/v0.1",
	APIKey:        "secret",
	MerchantCode:  "MC1",
	ReaderID:      "rdr-1",
	Currency:      "EUR",
	CreateTimeout: 30 * time.Second,
	StatusTimeout: 10 * time.Second,
}

func NewMock(t *testing.T, cfg config.Checkout) (*Client, *clients.MockHTTPClientI) {
	ctrl := gomock.NewController(t)
	httpClient := clients.NewMockHTTPClientI(ctrl)
	return New(cfg, httpClient), httpClient
}

func TestClient_CreateCheckout(t *testing.T) {
	client, httpClient := NewMock(t, testConfig)

	httpClient.EXPECT().Post(gomock.Any(), "https://gateway.test/v0.1/checkouts", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, url string, headers http.Header, body []byte) (int, []byte, error) {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			assert.Equal(t, "Bearer secret", headers.Get("Authorization"))
			assert.JSONEq(t, `{
				"checkout_reference": "TOP-1",
				"amount": 25.00,
				"currency": "EUR",
				"merchant_code": "MC1",
				"description": "Top-up",
				"reader": {"id": "rdr-1"}
			}`, string(body))
			return http.StatusCreated, []byte(`{"id":"co-1","status":"PENDING"}`), nil
		})

	checkout, err := client.CreateCheckout(context.Background(), CheckoutRequest{
		Amount:      decimal.RequireFromString("25"),
		Description: "Top-up",
		Reference:   "TOP-1",
		Method:      domain.MethodCloudAPI,
	})

	require.NoError(t, err)
	assert.Equal(t, "co-1", checkout.ID)
	assert.Equal(t, StatusPending, checkout.Status)
	assert.Empty(t, checkout.PaymentURL)
}

func TestClient_CreateCheckout_PaymentLink(t *testing.T) {
	cfg := testConfig
	cfg.ReaderID = ""
	client, httpClient := NewMock(t, cfg)

	httpClient.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, url string, headers http.Header, body []byte) (int, []byte, error) {
			var payload map[string]any
			require.NoError(t, json.Unmarshal(body, &payload))
			assert.NotContains(t, payload, "reader")
			return http.StatusOK, []byte(`{"id":"co-2","status":"PENDING"}`), nil
		})

	checkout, err := client.CreateCheckout(context.Background(), CheckoutRequest{
		Amount:    decimal.RequireFromString("8.4"),
		Reference: "GST-1",
		Method:    domain.MethodPaymentLink,
	})

	require.NoError(t, err)
	assert.Equal(t, "https://pay.sumup.com/b2c/MC1/co-2", checkout.PaymentURL)
}

func TestClient_CreateCheckout_Errors(t *testing.T) {
	tests := []struct {
		name     string
		readerID string
		code     int
		body     string
		err      error
		wantErr  error
	}{
		{name: "no reader paired", wantErr: ErrReaderNotConfigured},
		{name: "transport error", readerID: "r", err: errors.New("dial tcp: timeout"), wantErr: ErrGatewayUnavailable},
		{name: "server error", readerID: "r", code: http.StatusBadGateway, wantErr: ErrGatewayUnavailable},
		{name: "rate limited", readerID: "r", code: http.StatusTooManyRequests, wantErr: ErrGatewayUnavailable},
		{name: "validation error", readerID: "r", code: http.StatusBadRequest, body: `{"message":"Reader offline"}`, wantErr: ErrGatewayRejected},
		{name: "garbled success", readerID: "r", code: http.StatusOK, body: `not json`, wantErr: ErrGatewayUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig
			cfg.ReaderID = tt.readerID
			client, httpClient := NewMock(t, cfg)
			if tt.readerID != "" {
				httpClient.EXPECT().Post(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
					Return(tt.code, []byte(tt.body), tt.err)
			}

			_, err := client.CreateCheckout(context.Background(), CheckoutRequest{
				Amount: decimal.NewFromInt(1), Reference: "R", Method: domain.MethodCloudAPI,
			})

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_GetStatus(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus Status
		wantCode   string
	}{
		{name: "pending", body: `{"id":"co-1","status":"PENDING"}`, wantStatus: StatusPending},
		{name: "successful", body: `{"id":"co-1","status":"SUCCESSFUL","transaction_code":"TX42"}`, wantStatus: StatusSuccessful, wantCode: "TX42"},
		{name: "failed", body: `{"id":"co-1","status":"FAILED"}`, wantStatus: StatusFailed},
		{name: "unknown state", body: `{"id":"co-1","status":"PAID"}`, wantStatus: StatusPending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, httpClient := NewMock(t, testConfig)
			httpClient.EXPECT().Get(gomock.Any(), "https://gateway.test/v0.1/checkouts/co-1", gomock.Any()).
				Return(http.StatusOK, []byte(tt.body), nil)

			status, err := client.GetStatus(context.Background(), "co-1")

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantCode, status.TransactionCode)
		})
	}
}

func TestClient_PairReader(t *testing.T) {
	cfg := testConfig
	cfg.ReaderID = ""
	client, httpClient := NewMock(t, cfg)

	httpClient.EXPECT().Post(gomock.Any(), "https://gateway.test/v0.1/merchants/MC1/readers", gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, url string, headers http.Header, body []byte) (int, []byte, error) {
			assert.JSONEq(t, `{"pairing_code":"ABCD1234","name":"Bar"}`, string(body))
			return http.StatusCreated, []byte(`{"id":"rdr-9"}`), nil
		})

	status, err := client.ReaderStatus(context.Background())
	require.NoError(t, err)
	assert.False(t, status.Configured)

	reader, err := client.PairReader(context.Background(), "ABCD1234", "Bar")
	require.NoError(t, err)
	assert.Equal(t, "rdr-9", reader.ID)
	assert.Equal(t, "Bar", reader.Name)
	assert.Equal(t, "rdr-9", client.ReaderID())

	httpClient.EXPECT().Get(gomock.Any(), "https://gateway.test/v0.1/merchants/MC1/readers/rdr-9", gomock.Any()).
		Return(http.StatusOK, []byte(`{"id":"rdr-9","name":"Bar","status":"ONLINE"}`), nil)

	status, err = client.ReaderStatus(context.Background())
	require.NoError(t, err)
	assert.True(t, status.Online)
	assert.True(t, status.Configured)
}

func TestClient_ListReaders(t *testing.T) {
	client, httpClient := NewMock(t, testConfig)
	httpClient.EXPECT().Get(gomock.Any(), "https://gateway.test/v0.1/merchants/MC1/readers", gomock.Any()).
		Return(http.StatusOK, []byte(`[{"id":"rdr-1","name":"Bar","status":"OFFLINE"}]`), nil)

	readers, err := client.ListReaders(context.Background())

	require.NoError(t, err)
	require.Len(t, readers, 1)
	assert.Equal(t, "OFFLINE", readers[0].Status)
}
