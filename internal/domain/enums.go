package domain

type Kind string

const (
	KindPurchase        Kind = "purchase"
	KindTopUp           Kind = "top_up"
	KindAdminAdjustment Kind = "admin_adjustment"
	KindGuestSettlement Kind = "guest_settlement"
)

func (k Kind) Valid() bool {
	switch k {
	case KindPurchase, KindTopUp, KindAdminAdjustment, KindGuestSettlement:
		return true
	}
	return false
}

type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusSuccessful, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether s is absorbing.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

type PaymentMethod string

const (
	MethodBalance     PaymentMethod = "balance"
	MethodCash        PaymentMethod = "cash"
	MethodCloudAPI    PaymentMethod = "cloud_api"
	MethodPaymentLink PaymentMethod = "payment_link"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodBalance, MethodCash, MethodCloudAPI, MethodPaymentLink:
		return true
	}
	return false
}

// IsCard reports whether m settles through the card terminal.
func (m PaymentMethod) IsCard() bool {
	switch m {
	case MethodCloudAPI, MethodPaymentLink:
		return true
	}
	return false
}

// Failure reasons recorded on failed transactions.
const (
	ReasonTimeout         = "timeout"
	ReasonGatewayFailed   = "gateway_failed"
	ReasonGatewayRejected = "gateway_rejected"
	ReasonCancelled       = "cancelled_by_admin"
	ReasonUntracked       = "checkout_untracked"
)
