package tabservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/pg"
	"github.com/GlebRadaev/clubledger/internal/service/ledgerservice"
	"github.com/GlebRadaev/clubledger/pkg/keymutex"
)

//go:generate mockgen -source=tabservice.go -destination=tabservice_mock.go -package=tabservice
type GuestRepo interface {
	Create(ctx context.Context, name string) (*domain.Guest, error)
	Get(ctx context.Context, id int) (*domain.Guest, error)
	GetForUpdate(ctx context.Context, id int) (*domain.Guest, error)
	Update(ctx context.Context, guest *domain.Guest) error
	AddItem(ctx context.Context, item *domain.GuestTabItem) (*domain.GuestTabItem, error)
	ListItems(ctx context.Context, guestID int) ([]domain.GuestTabItem, error)
	ListUnpaidItems(ctx context.Context, guestID int) ([]domain.GuestTabItem, error)
	MarkItemsPaid(ctx context.Context, guestID int) (int64, error)
}

type Ledger interface {
	Apply(ctx context.Context, op domain.Operation) (*domain.Transaction, error)
}

type Checkout interface {
	StartCheckout(ctx context.Context, op domain.Operation) (*domain.Transaction, error)
}

var (
	ErrGuestNotFound     = errors.New("guest not found")
	ErrGuestClosed       = errors.New("guest tab is closed")
	ErrNoOpenItems       = errors.New("guest tab has no open items")
	ErrSettlementPending = errors.New("guest tab settlement is pending")
	ErrInvalidQuantity   = errors.New("invalid quantity or price")
	ErrInvalidName       = errors.New("guest name is required")
)

type Service struct {
	guests    GuestRepo
	ledger    Ledger
	checkout  Checkout
	txManager pg.TXManager
	locks     *keymutex.KeyMutex
	now       func() time.Time
}

func New(guests GuestRepo, ledger Ledger, checkout Checkout, txManager pg.TXManager) *Service {
	return &Service{
		guests:    guests,
		ledger:    ledger,
		checkout:  checkout,
		txManager: txManager,
		locks:     keymutex.New(),
		now:       time.Now,
	}
}

func guestKey(id int) string {
	return fmt.Sprintf("guest:%d", id)
}

func (s *Service) OpenTab(ctx context.Context, name string) (*domain.Guest, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	guest, err := s.guests.Create(ctx, name)
	if err != nil {
		return nil, err
	}
	zap.L().Info("guest tab opened", zap.Int("guest_id", guest.ID))
	return guest, nil
}

func (s *Service) GetTab(ctx context.Context, guestID int) (*domain.Guest, []domain.GuestTabItem, error) {
	guest, err := s.guests.Get(ctx, guestID)
	if err != nil {
		return nil, nil, err
	}
	if guest == nil {
		return nil, nil, ErrGuestNotFound
	}
	items, err := s.guests.ListItems(ctx, guestID)
	if err != nil {
		return nil, nil, err
	}
	return guest, items, nil
}

// lockOpen loads the guest for update and checks it can still change.
func (s *Service) lockOpen(ctx context.Context, guestID int) (*domain.Guest, error) {
	guest, err := s.guests.GetForUpdate(ctx, guestID)
	if err != nil {
		return nil, err
	}
	if guest == nil {
		return nil, ErrGuestNotFound
	}
	if guest.Closed() {
		return nil, ErrGuestClosed
	}
	if guest.PendingTransactionID != nil {
		return nil, ErrSettlementPending
	}
	return guest, nil
}

func (s *Service) AddItem(ctx context.Context, guestID, productID, quantity int, unitPrice decimal.Decimal) (*domain.GuestTabItem, error) {
	if quantity <= 0 || unitPrice.IsNegative() || !ledgerservice.WholeCents(unitPrice) {
		return nil, ErrInvalidQuantity
	}

	var created *domain.GuestTabItem
	err := s.locks.With(guestKey(guestID), func() error {
		return s.txManager.Begin(ctx, func(ctx context.Context) error {
			guest, err := s.lockOpen(ctx, guestID)
			if err != nil {
				return err
			}

			lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
			created, err = s.guests.AddItem(ctx, &domain.GuestTabItem{
				GuestID:   guestID,
				ProductID: productID,
				Quantity:  quantity,
				UnitPrice: unitPrice,
				LineTotal: lineTotal,
			})
			if err != nil {
				return err
			}
			guest.Total = guest.Total.Add(lineTotal)
			return s.guests.Update(ctx, guest)
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func sumItems(items []domain.GuestTabItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}

// CloseTab settles every unpaid item of the guest. Cash closes the tab in
// one unit of work; card methods start a checkout and leave the items unpaid
// until HandleSettlement sees the outcome.
func (s *Service) CloseTab(ctx context.Context, guestID int, method domain.PaymentMethod, actor domain.Actor) (*domain.Transaction, error) {
	if !method.Valid() || method == domain.MethodBalance {
		return nil, fmt.Errorf("%w: %q", ledgerservice.ErrInvalidPaymentMethod, method)
	}

	var tx *domain.Transaction
	err := s.locks.With(guestKey(guestID), func() error {
		if method.IsCard() {
			var err error
			tx, err = s.closeByCard(ctx, guestID, method, actor)
			return err
		}

		return s.txManager.Begin(ctx, func(ctx context.Context) error {
			guest, amount, err := s.settlementAmount(ctx, guestID)
			if err != nil {
				return err
			}
			tx, err = s.ledger.Apply(ctx, settlementOperation(guest, amount, method, actor))
			if err != nil {
				return err
			}
			return s.settle(ctx, guest, tx.CompletedAt)
		})
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("guest tab close requested",
		zap.Int("guest_id", guestID),
		zap.String("method", string(method)),
		zap.String("status", string(tx.Status)),
	)
	return tx, nil
}

func (s *Service) settlementAmount(ctx context.Context, guestID int) (*domain.Guest, decimal.Decimal, error) {
	guest, err := s.lockOpen(ctx, guestID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	items, err := s.guests.ListUnpaidItems(ctx, guestID)
	if err != nil {
		return nil, decimal.Zero, err
	}
	if len(items) == 0 {
		return nil, decimal.Zero, ErrNoOpenItems
	}
	return guest, sumItems(items), nil
}

func settlementOperation(guest *domain.Guest, amount decimal.Decimal, method domain.PaymentMethod, actor domain.Actor) domain.Operation {
	guestID := guest.ID
	return domain.Operation{
		GuestID:     &guestID,
		Kind:        domain.KindGuestSettlement,
		Amount:      amount,
		Method:      method,
		Description: fmt.Sprintf("Guest tab: %s", guest.Name),
		Actor:       actor,
	}
}

func (s *Service) closeByCard(ctx context.Context, guestID int, method domain.PaymentMethod, actor domain.Actor) (*domain.Transaction, error) {
	var (
		guest  *domain.Guest
		amount decimal.Decimal
	)
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		guest, amount, err = s.settlementAmount(ctx, guestID)
		return err
	})
	if err != nil {
		return nil, err
	}

	tx, err := s.checkout.StartCheckout(ctx, settlementOperation(guest, amount, method, actor))
	if err != nil {
		return nil, err
	}

	err = s.txManager.Begin(ctx, func(ctx context.Context) error {
		guest, err := s.guests.GetForUpdate(ctx, guestID)
		if err != nil {
			return err
		}
		if guest == nil {
			return ErrGuestNotFound
		}
		guest.PendingTransactionID = &tx.ID
		return s.guests.Update(ctx, guest)
	})
	if err != nil {
		zap.L().Error("failed to record pending settlement", zap.Int("guest_id", guestID), zap.Int64("transaction_id", tx.ID), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

// settle marks every unpaid item paid and closes the tab.
func (s *Service) settle(ctx context.Context, guest *domain.Guest, at *time.Time) error {
	if _, err := s.guests.MarkItemsPaid(ctx, guest.ID); err != nil {
		return err
	}
	closedAt := s.now()
	if at != nil {
		closedAt = *at
	}
	guest.ClosedAt = &closedAt
	guest.PendingTransactionID = nil
	return s.guests.Update(ctx, guest)
}

// HandleSettlement applies the outcome of a card settlement to its tab. It
// ignores transactions that are not the guest's pending settlement, so
// repeated calls are harmless.
func (s *Service) HandleSettlement(ctx context.Context, tx *domain.Transaction) error {
	if tx.Kind != domain.KindGuestSettlement || tx.GuestID == nil || !tx.Status.Terminal() {
		return nil
	}
	guestID := *tx.GuestID

	return s.locks.With(guestKey(guestID), func() error {
		return s.txManager.Begin(ctx, func(ctx context.Context) error {
			guest, err := s.guests.GetForUpdate(ctx, guestID)
			if err != nil {
				return err
			}
			if guest == nil {
				return ErrGuestNotFound
			}
			if guest.PendingTransactionID == nil || *guest.PendingTransactionID != tx.ID {
				return nil
			}

			if tx.Status == domain.StatusSuccessful {
				zap.L().Info("guest tab settled", zap.Int("guest_id", guestID), zap.Int64("transaction_id", tx.ID))
				return s.settle(ctx, guest, tx.CompletedAt)
			}

			zap.L().Info("guest tab settlement failed, tab reopened",
				zap.Int("guest_id", guestID), zap.Int64("transaction_id", tx.ID), zap.String("status", string(tx.Status)))
			guest.PendingTransactionID = nil
			return s.guests.Update(ctx, guest)
		})
	})
}
