package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/clubledger/internal/domain"
)

type BalanceResponseDTO struct {
	AccountID int             `json:"account_id" example:"42"`
	Balance   decimal.Decimal `json:"balance" swaggertype:"string" example:"12.50"`
	Floor     decimal.Decimal `json:"overdraft_floor" swaggertype:"string" example:"-15.00"`
	Available decimal.Decimal `json:"available" swaggertype:"string" example:"27.50"`
	Active    bool            `json:"active" example:"true"`
}

func NewBalanceResponse(account *domain.Account) BalanceResponseDTO {
	return BalanceResponseDTO{
		AccountID: account.ID,
		Balance:   account.Balance,
		Floor:     account.Floor,
		Available: account.Balance.Sub(account.Floor),
		Active:    account.Active,
	}
}

type TransactionResponseDTO struct {
	ID            int64            `json:"id" example:"1001"`
	Reference     string           `json:"reference" example:"PUR-20260101120000-1A2B3C4D"`
	AccountID     *int             `json:"account_id,omitempty" example:"42"`
	GuestID       *int             `json:"guest_id,omitempty"`
	Kind          string           `json:"kind" example:"purchase"`
	Status        string           `json:"status" example:"successful"`
	PaymentMethod string           `json:"payment_method" example:"balance"`
	Amount        decimal.Decimal  `json:"amount" swaggertype:"string" example:"-3.50"`
	BalanceBefore *decimal.Decimal `json:"balance_before,omitempty" swaggertype:"string" example:"10.00"`
	BalanceAfter  *decimal.Decimal `json:"balance_after,omitempty" swaggertype:"string" example:"6.50"`
	CheckoutID    *string          `json:"checkout_id,omitempty"`
	ExternalRef   *string          `json:"external_ref,omitempty"`
	FailureReason string           `json:"failure_reason,omitempty"`
	Description   string           `json:"description,omitempty" example:"Club Mate"`
	CreatedBy     string           `json:"created_by" example:"user:42"`
	CreatedAt     time.Time        `json:"created_at" example:"2026-01-01T12:00:00Z"`
	CompletedAt   *time.Time       `json:"completed_at,omitempty"`
}

func NewTransactionResponse(tx *domain.Transaction) TransactionResponseDTO {
	return TransactionResponseDTO{
		ID:            tx.ID,
		Reference:     tx.Reference,
		AccountID:     tx.AccountID,
		GuestID:       tx.GuestID,
		Kind:          string(tx.Kind),
		Status:        string(tx.Status),
		PaymentMethod: string(tx.PaymentMethod),
		Amount:        tx.Amount,
		BalanceBefore: tx.BalanceBefore,
		BalanceAfter:  tx.BalanceAfter,
		CheckoutID:    tx.CheckoutID,
		ExternalRef:   tx.ExternalRef,
		FailureReason: tx.FailureReason,
		Description:   tx.Description,
		CreatedBy:     tx.CreatedBy,
		CreatedAt:     tx.CreatedAt,
		CompletedAt:   tx.CompletedAt,
	}
}

func NewTransactionsResponse(txs []domain.Transaction) []TransactionResponseDTO {
	response := make([]TransactionResponseDTO, len(txs))
	for i := range txs {
		response[i] = NewTransactionResponse(&txs[i])
	}
	return response
}

type PurchaseRequestDTO struct {
	Amount      decimal.Decimal `json:"amount" validate:"gt=0" swaggertype:"string" example:"3.50"`
	Method      string          `json:"payment_method" validate:"required,oneof=balance cash" example:"balance"`
	Description string          `json:"description" validate:"max=255" example:"Club Mate"`
}
