package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Account struct {
	ID        int             `db:"id"`
	Balance   decimal.Decimal `db:"balance"`
	Floor     decimal.Decimal `db:"overdraft_floor"`
	Active    bool            `db:"active"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Transaction is a ledger record. Once Status is terminal only the
// repository's finalize path may have written it, and nothing writes it again.
type Transaction struct {
	ID            int64            `db:"id"`
	Reference     string           `db:"reference"`
	AccountID     *int             `db:"account_id"`
	GuestID       *int             `db:"guest_id"`
	Kind          Kind             `db:"kind"`
	Status        Status           `db:"status"`
	PaymentMethod PaymentMethod    `db:"payment_method"`
	Amount        decimal.Decimal  `db:"amount"`
	BalanceBefore *decimal.Decimal `db:"balance_before"`
	BalanceAfter  *decimal.Decimal `db:"balance_after"`
	CheckoutID    *string          `db:"checkout_id"`
	ExternalRef   *string          `db:"external_ref"`
	FailureReason string           `db:"failure_reason"`
	Description   string           `db:"description"`
	CreatedBy     string           `db:"created_by"`
	CreatedAt     time.Time        `db:"created_at"`
	CompletedAt   *time.Time       `db:"completed_at"`
}

type Guest struct {
	ID                   int             `db:"id"`
	Name                 string          `db:"name"`
	Total                decimal.Decimal `db:"total"`
	PendingTransactionID *int64          `db:"pending_transaction_id"`
	CreatedAt            time.Time       `db:"created_at"`
	ClosedAt             *time.Time      `db:"closed_at"`
}

func (g *Guest) Closed() bool {
	return g.ClosedAt != nil
}

type GuestTabItem struct {
	ID        int             `db:"id"`
	GuestID   int             `db:"guest_id"`
	ProductID int             `db:"product_id"`
	Quantity  int             `db:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	LineTotal decimal.Decimal `db:"line_total"`
	Paid      bool            `db:"paid"`
	CreatedAt time.Time       `db:"created_at"`
}

// CheckoutSession tracks one external card checkout until its ledger
// transaction is terminal. It can always be rebuilt from the transaction's
// checkout id and the gateway status.
type CheckoutSession struct {
	ExternalID    string          `json:"external_id"`
	TransactionID int64           `json:"transaction_id"`
	Reference     string          `json:"reference"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentURL    string          `json:"payment_url,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Deadline      time.Time       `json:"deadline"`
	Attempts      int             `json:"attempts"`
	NextPollAt    time.Time       `json:"next_poll_at"`
	Outcome       *Status         `json:"outcome,omitempty"`
	ResolvedAt    *time.Time      `json:"resolved_at,omitempty"`
}

func (s *CheckoutSession) Expired(now time.Time) bool {
	return !now.Before(s.Deadline)
}

// Operation is the input of every balance-affecting request.
type Operation struct {
	AccountID   *int
	GuestID     *int
	Kind        Kind
	Amount      decimal.Decimal
	Method      PaymentMethod
	Description string
	Actor       Actor
}

// Outcome finalizes a pending transaction.
type Outcome struct {
	Status      Status
	ExternalRef string
	Reason      string
}

type Actor struct {
	UserID int
	Admin  bool
}

var SystemActor = Actor{}

func (a Actor) String() string {
	switch {
	case a.UserID == 0:
		return "system"
	case a.Admin:
		return fmt.Sprintf("admin:%d", a.UserID)
	default:
		return fmt.Sprintf("user:%d", a.UserID)
	}
}
