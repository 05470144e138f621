package dto

import "github.com/shopspring/decimal"

type OpenAccountRequestDTO struct {
	AccountID int `json:"account_id" validate:"required,gt=0" example:"42"`
}

type UpdateAccountRequestDTO struct {
	Active *bool `json:"active" validate:"required" example:"false"`
}

type AdjustRequestDTO struct {
	Amount      decimal.Decimal `json:"amount" validate:"required" swaggertype:"string" example:"-5.00"`
	Description string          `json:"description" validate:"required,max=255" example:"Correction for broken bottle"`
}

type PairReaderRequestDTO struct {
	PairingCode string `json:"pairing_code" validate:"required,min=4,max=16" example:"ABCD1234"`
	Name        string `json:"name" validate:"required,max=100" example:"Bar"`
}
