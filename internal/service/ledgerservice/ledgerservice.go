package ledgerservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/pg"
	"github.com/GlebRadaev/clubledger/pkg/keymutex"
)

//go:generate mockgen -source=ledgerservice.go -destination=ledgerservice_mock.go -package=ledgerservice
type AccountRepo interface {
	Get(ctx context.Context, id int) (*domain.Account, error)
	GetForUpdate(ctx context.Context, id int) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
	UpdateBalance(ctx context.Context, id int, balance decimal.Decimal) error
	SetActive(ctx context.Context, id int, active bool) (*domain.Account, error)
}

type TransactionRepo interface {
	Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	Get(ctx context.Context, id int64) (*domain.Transaction, error)
	GetForUpdate(ctx context.Context, id int64) (*domain.Transaction, error)
	Finalize(ctx context.Context, tx *domain.Transaction) error
	SetCheckoutID(ctx context.Context, id int64, checkoutID string) error
	ListByAccount(ctx context.Context, accountID int, limit int) ([]domain.Transaction, error)
	ListPendingCheckouts(ctx context.Context) ([]domain.Transaction, error)
}

var (
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountExists        = errors.New("account already exists")
	ErrAlreadyFinalized     = errors.New("transaction already finalized")
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidOutcome       = errors.New("invalid outcome")
	ErrAdminRequired        = errors.New("admin role required")
	ErrNotPending           = errors.New("transaction is not pending")
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

var referencePrefix = map[domain.Kind]string{
	domain.KindPurchase:        "PUR",
	domain.KindTopUp:           "TOP",
	domain.KindAdminAdjustment: "ADJ",
	domain.KindGuestSettlement: "GST",
}

type Service struct {
	accounts     AccountRepo
	transactions TransactionRepo
	txManager    pg.TXManager
	locks        *keymutex.KeyMutex
	floor        decimal.Decimal
	now          func() time.Time
}

func New(accounts AccountRepo, transactions TransactionRepo, txManager pg.TXManager, floor decimal.Decimal) *Service {
	return &Service{
		accounts:     accounts,
		transactions: transactions,
		txManager:    txManager,
		locks:        keymutex.New(),
		floor:        floor,
		now:          time.Now,
	}
}

func accountKey(id int) string {
	return fmt.Sprintf("account:%d", id)
}

func (s *Service) reference(kind domain.Kind) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", referencePrefix[kind], s.now().UTC().Format("20060102150405"), id)
}

// WholeCents reports whether d has no digits below the cent.
func WholeCents(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func validate(op domain.Operation) error {
	if !op.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidAmount, op.Kind)
	}
	if !op.Method.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPaymentMethod, op.Method)
	}
	if op.Amount.IsZero() {
		return fmt.Errorf("%w: amount must be non-zero", ErrInvalidAmount)
	}
	if !WholeCents(op.Amount) {
		return fmt.Errorf("%w: %s has fractions of a cent", ErrInvalidAmount, op.Amount)
	}
	if op.Kind != domain.KindAdminAdjustment && op.Amount.IsNegative() {
		return fmt.Errorf("%w: amount must be positive for %s", ErrInvalidAmount, op.Kind)
	}
	if op.Kind == domain.KindAdminAdjustment && !op.Actor.Admin {
		return ErrAdminRequired
	}
	return nil
}

// signedAmount returns the stored amount of op and whether it moves the
// account balance.
func signedAmount(op domain.Operation) (decimal.Decimal, bool, error) {
	switch op.Kind {
	case domain.KindPurchase:
		return op.Amount.Neg(), op.Method == domain.MethodBalance, nil
	case domain.KindTopUp:
		if op.Method == domain.MethodBalance {
			return decimal.Zero, false, fmt.Errorf("%w: top-up cannot be paid from balance", ErrInvalidPaymentMethod)
		}
		return op.Amount, true, nil
	case domain.KindAdminAdjustment:
		return op.Amount, true, nil
	case domain.KindGuestSettlement:
		if op.Method == domain.MethodBalance {
			return decimal.Zero, false, fmt.Errorf("%w: guests have no balance", ErrInvalidPaymentMethod)
		}
		return op.Amount, false, nil
	}
	return decimal.Zero, false, ErrInvalidAmount
}

func (s *Service) newTransaction(op domain.Operation, amount decimal.Decimal, status domain.Status) *domain.Transaction {
	tx := &domain.Transaction{
		Reference:     s.reference(op.Kind),
		AccountID:     op.AccountID,
		GuestID:       op.GuestID,
		Kind:          op.Kind,
		Status:        status,
		PaymentMethod: op.Method,
		Amount:        amount,
		Description:   op.Description,
		CreatedBy:     op.Actor.String(),
	}
	if status.Terminal() {
		now := s.now()
		tx.CompletedAt = &now
	}
	return tx
}

// Apply validates op and records it as a successful transaction. Balance
// movements for one account are serialized and written in the same unit of
// work as the transaction.
func (s *Service) Apply(ctx context.Context, op domain.Operation) (*domain.Transaction, error) {
	if err := validate(op); err != nil {
		return nil, err
	}
	if op.Method.IsCard() {
		return nil, fmt.Errorf("%w: card payments go through checkout", ErrInvalidPaymentMethod)
	}
	amount, movesBalance, err := signedAmount(op)
	if err != nil {
		return nil, err
	}

	if op.AccountID == nil {
		if movesBalance {
			return nil, ErrAccountNotFound
		}
		var created *domain.Transaction
		err := s.txManager.Begin(ctx, func(ctx context.Context) error {
			var err error
			created, err = s.transactions.Create(ctx, s.newTransaction(op, amount, domain.StatusSuccessful))
			return err
		})
		if err != nil {
			return nil, err
		}
		zap.L().Info("transaction applied",
			zap.String("reference", created.Reference), zap.String("kind", string(op.Kind)), zap.String("amount", amount.String()))
		return created, nil
	}

	accountID := *op.AccountID
	var created *domain.Transaction
	err = s.locks.With(accountKey(accountID), func() error {
		return s.txManager.Begin(ctx, func(ctx context.Context) error {
			account, err := s.accounts.GetForUpdate(ctx, accountID)
			if err != nil {
				return err
			}
			if account == nil {
				return ErrAccountNotFound
			}
			if !account.Active {
				return ErrAccountInactive
			}

			tx := s.newTransaction(op, amount, domain.StatusSuccessful)
			if !movesBalance {
				created, err = s.transactions.Create(ctx, tx)
				return err
			}

			before := account.Balance
			after := before.Add(amount)
			if amount.IsNegative() && after.LessThan(account.Floor) {
				return fmt.Errorf("%w: balance %s, floor %s, requested %s",
					ErrInsufficientFunds, before.StringFixed(2), account.Floor.StringFixed(2), amount.Neg().StringFixed(2))
			}
			tx.BalanceBefore = &before
			tx.BalanceAfter = &after

			created, err = s.transactions.Create(ctx, tx)
			if err != nil {
				return err
			}
			return s.accounts.UpdateBalance(ctx, accountID, after)
		})
	})
	if err != nil {
		if !isValidationError(err) {
			zap.L().Error("failed to apply transaction", zap.Int("account_id", accountID), zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("transaction applied",
		zap.String("reference", created.Reference),
		zap.Int("account_id", accountID),
		zap.String("kind", string(op.Kind)),
		zap.String("amount", amount.String()),
	)
	return created, nil
}

func isValidationError(err error) bool {
	return errors.Is(err, ErrInsufficientFunds) ||
		errors.Is(err, ErrAccountInactive) ||
		errors.Is(err, ErrAccountNotFound)
}

// CreatePending records a card payment before the external checkout exists.
func (s *Service) CreatePending(ctx context.Context, op domain.Operation) (*domain.Transaction, error) {
	if err := validate(op); err != nil {
		return nil, err
	}
	if !op.Method.IsCard() {
		return nil, fmt.Errorf("%w: %s is not a card method", ErrInvalidPaymentMethod, op.Method)
	}

	switch op.Kind {
	case domain.KindTopUp:
		if op.AccountID == nil {
			return nil, ErrAccountNotFound
		}
		account, err := s.accounts.Get(ctx, *op.AccountID)
		if err != nil {
			return nil, err
		}
		if account == nil {
			return nil, ErrAccountNotFound
		}
		if !account.Active {
			return nil, ErrAccountInactive
		}
	case domain.KindGuestSettlement:
	default:
		return nil, fmt.Errorf("%w: %s cannot be paid by card", ErrInvalidPaymentMethod, op.Kind)
	}

	var created *domain.Transaction
	err := s.txManager.Begin(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.transactions.Create(ctx, s.newTransaction(op, op.Amount, domain.StatusPending))
		return err
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("pending transaction created",
		zap.Int64("transaction_id", created.ID), zap.String("reference", created.Reference))
	return created, nil
}

func (s *Service) AttachCheckout(ctx context.Context, transactionID int64, checkoutID string) error {
	if err := s.transactions.SetCheckoutID(ctx, transactionID, checkoutID); err != nil {
		return fmt.Errorf("attach checkout %s to transaction %d: %w", checkoutID, transactionID, err)
	}
	return nil
}

// MarkTerminal moves a pending transaction to a terminal status. Repeating
// the same outcome returns the stored record; a different outcome fails with
// ErrAlreadyFinalized. A successful top-up credits its account exactly once.
func (s *Service) MarkTerminal(ctx context.Context, transactionID int64, outcome domain.Outcome) (*domain.Transaction, error) {
	if !outcome.Status.Terminal() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, outcome.Status)
	}

	current, err := s.transactions.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrTransactionNotFound
	}
	key := fmt.Sprintf("transaction:%d", transactionID)
	if current.AccountID != nil {
		key = accountKey(*current.AccountID)
	}

	var result *domain.Transaction
	err = s.locks.With(key, func() error {
		return s.txManager.Begin(ctx, func(ctx context.Context) error {
			tx, err := s.transactions.GetForUpdate(ctx, transactionID)
			if err != nil {
				return err
			}
			if tx == nil {
				return ErrTransactionNotFound
			}
			if tx.Status.Terminal() {
				if tx.Status == outcome.Status {
					result = tx
					return nil
				}
				return fmt.Errorf("%w: transaction %d is %s, requested %s",
					ErrAlreadyFinalized, transactionID, tx.Status, outcome.Status)
			}

			now := s.now()
			tx.Status = outcome.Status
			tx.CompletedAt = &now
			if outcome.ExternalRef != "" {
				ref := outcome.ExternalRef
				tx.ExternalRef = &ref
			}
			if outcome.Status != domain.StatusSuccessful {
				tx.FailureReason = outcome.Reason
			}

			var credit *decimal.Decimal
			if outcome.Status == domain.StatusSuccessful && tx.Kind == domain.KindTopUp && tx.AccountID != nil {
				account, err := s.accounts.GetForUpdate(ctx, *tx.AccountID)
				if err != nil {
					return err
				}
				if account == nil {
					return ErrAccountNotFound
				}
				before := account.Balance
				after := before.Add(tx.Amount)
				tx.BalanceBefore = &before
				tx.BalanceAfter = &after
				credit = &after
			}

			if err := s.transactions.Finalize(ctx, tx); err != nil {
				return fmt.Errorf("%w: %w", ErrNotPending, err)
			}
			if credit != nil {
				if err := s.accounts.UpdateBalance(ctx, *tx.AccountID, *credit); err != nil {
					return err
				}
			}
			result = tx
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyFinalized) {
			zap.L().Error("transaction already finalized", zap.Int64("transaction_id", transactionID), zap.Error(err))
		}
		return nil, err
	}

	zap.L().Info("transaction finalized",
		zap.Int64("transaction_id", transactionID),
		zap.String("status", string(result.Status)),
		zap.String("reason", result.FailureReason),
	)
	return result, nil
}

func (s *Service) GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error) {
	tx, err := s.transactions.Get(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, ErrTransactionNotFound
	}
	return tx, nil
}

func (s *Service) GetBalance(ctx context.Context, accountID int) (*domain.Account, error) {
	account, err := s.accounts.Get(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func (s *Service) ListTransactions(ctx context.Context, accountID int, limit int) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.transactions.ListByAccount(ctx, accountID, limit)
}

func (s *Service) ListPendingCheckouts(ctx context.Context) ([]domain.Transaction, error) {
	return s.transactions.ListPendingCheckouts(ctx)
}

func (s *Service) OpenAccount(ctx context.Context, accountID int) (*domain.Account, error) {
	account, err := s.accounts.Create(ctx, &domain.Account{
		ID:      accountID,
		Balance: decimal.Zero,
		Floor:   s.floor,
		Active:  true,
	})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountExists
	}
	zap.L().Info("account opened", zap.Int("account_id", accountID))
	return account, nil
}

func (s *Service) SetAccountActive(ctx context.Context, accountID int, active bool) (*domain.Account, error) {
	var account *domain.Account
	err := s.locks.With(accountKey(accountID), func() error {
		var err error
		account, err = s.accounts.SetActive(ctx, accountID, active)
		return err
	})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	zap.L().Info("account active flag changed", zap.Int("account_id", accountID), zap.Bool("active", active))
	return account, nil
}
