// Package gateway talks to the card terminal provider's REST API.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/clubledger/internal/config"
	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/pkg/clients"
)

var (
	ErrGatewayUnavailable  = errors.New("checkout gateway unavailable")
	ErrGatewayRejected     = errors.New("checkout gateway rejected request")
	ErrReaderNotConfigured = errors.New("no card reader paired")
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusSuccessful Status = "SUCCESSFUL"
	StatusFailed     Status = "FAILED"
)

const paymentLinkBase = "https://pay.sumup.com/b2c"

type CheckoutRequest struct {
	Amount      decimal.Decimal
	Description string
	Reference   string
	Method      domain.PaymentMethod
}

type Checkout struct {
	ID         string
	Status     Status
	PaymentURL string
	Raw        json.RawMessage
}

type CheckoutStatus struct {
	Status          Status
	TransactionCode string
	Raw             json.RawMessage
}

type Reader struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

type ReaderStatus struct {
	ReaderID   string `json:"reader_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Status     string `json:"status"`
	Online     bool   `json:"online"`
	Configured bool   `json:"configured"`
}

type readerRef struct {
	ID string `json:"id"`
}

type checkoutPayload struct {
	CheckoutReference string      `json:"checkout_reference"`
	Amount            json.Number `json:"amount"`
	Currency          string      `json:"currency"`
	MerchantCode      string      `json:"merchant_code"`
	Description       string      `json:"description"`
	Reader            *readerRef  `json:"reader,omitempty"`
}

type checkoutResponse struct {
	ID              string `json:"id"`
	Status          Status `json:"status"`
	TransactionCode string `json:"transaction_code"`
}

type errorResponse struct {
	Message   string `json:"message"`
	ErrorCode string `json:"error_code"`
}

type Client struct {
	http clients.HTTPClientI
	cfg  config.Checkout

	mu       sync.RWMutex
	readerID string
}

func New(cfg config.Checkout, httpClient clients.HTTPClientI) *Client {
	return &Client{
		http:     httpClient,
		cfg:      cfg,
		readerID: cfg.ReaderID,
	}
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Authorization", "Bearer "+c.cfg.APIKey)
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	return h
}

func (c *Client) ReaderID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.readerID
}

// classify maps a transport result onto the gateway error taxonomy.
func classify(op string, code int, body []byte, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrGatewayUnavailable, op, err)
	}
	switch {
	case code >= http.StatusInternalServerError || code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s: status %d", ErrGatewayUnavailable, op, code)
	case code >= http.StatusBadRequest:
		var resp errorResponse
		if json.Unmarshal(body, &resp) == nil && resp.Message != "" {
			return fmt.Errorf("%w: %s: status %d: %s", ErrGatewayRejected, op, code, resp.Message)
		}
		return fmt.Errorf("%w: %s: status %d", ErrGatewayRejected, op, code)
	}
	return nil
}

func (c *Client) post(ctx context.Context, op, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.CreateTimeout)
	defer cancel()

	code, respBody, err := c.http.Post(ctx, url, c.headers(), body)
	if err := classify(op, code, respBody, err); err != nil {
		return err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("%w: %s: decode response: %w", ErrGatewayUnavailable, op, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, op, url string, out any) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.StatusTimeout)
	defer cancel()

	code, respBody, err := c.http.Get(ctx, url, c.headers())
	if err := classify(op, code, respBody, err); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return nil, fmt.Errorf("%w: %s: decode response: %w", ErrGatewayUnavailable, op, err)
	}
	return respBody, nil
}

// CreateCheckout registers a checkout with the provider. Terminal checkouts
// are pushed to the paired reader; payment links return a URL to share.
func (c *Client) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	payload := checkoutPayload{
		CheckoutReference: req.Reference,
		Amount:            json.Number(req.Amount.StringFixed(2)),
		Currency:          c.cfg.Currency,
		MerchantCode:      c.cfg.MerchantCode,
		Description:       req.Description,
	}
	if req.Method != domain.MethodPaymentLink {
		readerID := c.ReaderID()
		if readerID == "" {
			return nil, fmt.Errorf("%w: %w", ErrGatewayRejected, ErrReaderNotConfigured)
		}
		payload.Reader = &readerRef{ID: readerID}
	}

	var resp checkoutResponse
	if err := c.post(ctx, "create checkout", c.cfg.APIURL+"/checkouts", payload, &resp); err != nil {
		zap.L().Error("checkout creation failed", zap.String("reference", req.Reference), zap.Error(err))
		return nil, err
	}
	if resp.ID == "" {
		return nil, fmt.Errorf("%w: create checkout: empty checkout id", ErrGatewayUnavailable)
	}

	checkout := &Checkout{ID: resp.ID, Status: resp.Status}
	if req.Method == domain.MethodPaymentLink {
		checkout.PaymentURL = fmt.Sprintf("%s/%s/%s", paymentLinkBase, c.cfg.MerchantCode, resp.ID)
	}
	zap.L().Info("checkout created", zap.String("checkout_id", resp.ID), zap.String("reference", req.Reference))
	return checkout, nil
}

func (c *Client) GetStatus(ctx context.Context, checkoutID string) (*CheckoutStatus, error) {
	var resp checkoutResponse
	raw, err := c.get(ctx, "get checkout status", c.cfg.APIURL+"/checkouts/"+checkoutID, &resp)
	if err != nil {
		return nil, err
	}
	switch resp.Status {
	case StatusPending, StatusSuccessful, StatusFailed:
	default:
		// Unknown provider states are treated as still in flight.
		resp.Status = StatusPending
	}
	return &CheckoutStatus{Status: resp.Status, TransactionCode: resp.TransactionCode, Raw: raw}, nil
}

// PairReader pairs a terminal with the merchant account and makes it the
// reader used for new terminal checkouts.
func (c *Client) PairReader(ctx context.Context, pairingCode, name string) (*Reader, error) {
	payload := map[string]string{
		"pairing_code": pairingCode,
		"name":         name,
	}
	var reader Reader
	url := fmt.Sprintf("%s/merchants/%s/readers", c.cfg.APIURL, c.cfg.MerchantCode)
	if err := c.post(ctx, "pair reader", url, payload, &reader); err != nil {
		zap.L().Error("reader pairing failed", zap.Error(err))
		return nil, err
	}
	if reader.Name == "" {
		reader.Name = name
	}

	c.mu.Lock()
	c.readerID = reader.ID
	c.mu.Unlock()

	zap.L().Info("reader paired", zap.String("reader_id", reader.ID), zap.String("name", reader.Name))
	return &reader, nil
}

func (c *Client) ReaderStatus(ctx context.Context) (*ReaderStatus, error) {
	readerID := c.ReaderID()
	if readerID == "" {
		return &ReaderStatus{Status: "not_configured"}, nil
	}

	var reader Reader
	url := fmt.Sprintf("%s/merchants/%s/readers/%s", c.cfg.APIURL, c.cfg.MerchantCode, readerID)
	if _, err := c.get(ctx, "reader status", url, &reader); err != nil {
		return nil, err
	}
	return &ReaderStatus{
		ReaderID:   readerID,
		Name:       reader.Name,
		Status:     reader.Status,
		Online:     reader.Status == "ONLINE",
		Configured: true,
	}, nil
}

func (c *Client) ListReaders(ctx context.Context) ([]Reader, error) {
	var readers []Reader
	url := fmt.Sprintf("%s/merchants/%s/readers", c.cfg.APIURL, c.cfg.MerchantCode)
	if _, err := c.get(ctx, "list readers", url, &readers); err != nil {
		return nil, err
	}
	return readers, nil
}
