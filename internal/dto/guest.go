package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/clubledger/internal/domain"
)

type OpenTabRequestDTO struct {
	Name string `json:"name" validate:"required,max=100" example:"Alice"`
}

type AddItemRequestDTO struct {
	ProductID int             `json:"product_id" validate:"required,gt=0" example:"7"`
	Quantity  int             `json:"quantity" validate:"gt=0" example:"2"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gt=0" swaggertype:"string" example:"2.50"`
}

type CloseTabRequestDTO struct {
	Method string `json:"payment_method" validate:"required,oneof=cash cloud_api payment_link" example:"cash"`
}

type TabItemDTO struct {
	ID        int             `json:"id" example:"1"`
	ProductID int             `json:"product_id" example:"7"`
	Quantity  int             `json:"quantity" example:"2"`
	UnitPrice decimal.Decimal `json:"unit_price" swaggertype:"string" example:"2.50"`
	LineTotal decimal.Decimal `json:"line_total" swaggertype:"string" example:"5.00"`
	Paid      bool            `json:"paid"`
	CreatedAt time.Time       `json:"created_at"`
}

func NewTabItem(item *domain.GuestTabItem) TabItemDTO {
	return TabItemDTO{
		ID:        item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
		UnitPrice: item.UnitPrice,
		LineTotal: item.LineTotal,
		Paid:      item.Paid,
		CreatedAt: item.CreatedAt,
	}
}

type GuestResponseDTO struct {
	ID                   int             `json:"id" example:"3"`
	Name                 string          `json:"name" example:"Alice"`
	Total                decimal.Decimal `json:"total" swaggertype:"string" example:"5.00"`
	Closed               bool            `json:"closed"`
	PendingTransactionID *int64          `json:"pending_transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	ClosedAt             *time.Time      `json:"closed_at,omitempty"`
	Items                []TabItemDTO    `json:"items,omitempty"`
}

func NewGuestResponse(guest *domain.Guest, items []domain.GuestTabItem) GuestResponseDTO {
	response := GuestResponseDTO{
		ID:                   guest.ID,
		Name:                 guest.Name,
		Total:                guest.Total,
		Closed:               guest.Closed(),
		PendingTransactionID: guest.PendingTransactionID,
		CreatedAt:            guest.CreatedAt,
		ClosedAt:             guest.ClosedAt,
	}
	for i := range items {
		response.Items = append(response.Items, NewTabItem(&items[i]))
	}
	return response
}
