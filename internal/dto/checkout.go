package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/clubledger/internal/domain"
)

type TopUpRequestDTO struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0" swaggertype:"string" example:"25.00"`
	Method string          `json:"payment_method" validate:"omitempty,oneof=cloud_api payment_link" example:"cloud_api"`
}

type CheckoutResponseDTO struct {
	Transaction TransactionResponseDTO `json:"transaction"`
	PaymentURL  string                 `json:"payment_url,omitempty" example:"https://pay.sumup.com/b2c/MC1/co-1"`
}

type CheckoutSessionDTO struct {
	CheckoutID    string          `json:"checkout_id" example:"co-1"`
	TransactionID int64           `json:"transaction_id" example:"1001"`
	Reference     string          `json:"reference" example:"TOP-20260101120000-1A2B3C4D"`
	Amount        decimal.Decimal `json:"amount" swaggertype:"string" example:"25.00"`
	PaymentURL    string          `json:"payment_url,omitempty"`
	Attempts      int             `json:"attempts" example:"3"`
	CreatedAt     time.Time       `json:"created_at"`
	Deadline      time.Time       `json:"deadline"`
	Polling       bool            `json:"polling" example:"true"`
}

func NewCheckoutSession(session domain.CheckoutSession, polling bool) CheckoutSessionDTO {
	return CheckoutSessionDTO{
		CheckoutID:    session.ExternalID,
		TransactionID: session.TransactionID,
		Reference:     session.Reference,
		Amount:        session.Amount,
		PaymentURL:    session.PaymentURL,
		Attempts:      session.Attempts,
		CreatedAt:     session.CreatedAt,
		Deadline:      session.Deadline,
		Polling:       polling,
	}
}
