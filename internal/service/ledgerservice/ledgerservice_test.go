package ledgerservice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/pg"
	"github.com/GlebRadaev/clubledger/internal/repo/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

var (
	floor  = decimal.RequireFromString("-15.00")
	member = domain.Actor{UserID: 7}
	admin  = domain.Actor{UserID: 1, Admin: true}
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr[T any](v T) *T {
	return &v
}

func newMemoryService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return New(store.Accounts(), store.Transactions(), store, floor), store
}

func NewMock(t *testing.T) (*Service, *MockAccountRepo, *MockTransactionRepo) {
	ctrl := gomock.NewController(t)
	accounts := NewMockAccountRepo(ctrl)
	transactions := NewMockTransactionRepo(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()

	return New(accounts, transactions, txManager, floor), accounts, transactions
}

func openWithBalance(t *testing.T, s *Service, id int, balance string) {
	t.Helper()
	ctx := context.Background()
	_, err := s.OpenAccount(ctx, id)
	require.NoError(t, err)
	if b := dec(balance); !b.IsZero() {
		_, err = s.Apply(ctx, domain.Operation{
			AccountID: ptr(id),
			Kind:      domain.KindAdminAdjustment,
			Amount:    b,
			Method:    domain.MethodCash,
			Actor:     admin,
		})
		require.NoError(t, err)
	}
}

func balanceOf(t *testing.T, s *Service, id int) decimal.Decimal {
	t.Helper()
	account, err := s.GetBalance(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func purchase(id int, amount string) domain.Operation {
	return domain.Operation{
		AccountID: ptr(id),
		Kind:      domain.KindPurchase,
		Amount:    dec(amount),
		Method:    domain.MethodBalance,
		Actor:     member,
	}
}

func TestService_Apply_OverdraftFloor(t *testing.T) {
	s, _ := newMemoryService(t)
	ctx := context.Background()
	openWithBalance(t, s, 1, "10.00")

	tx, err := s.Apply(ctx, purchase(1, "20.00"))
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccessful, tx.Status)
	assert.True(t, tx.Amount.Equal(dec("-20.00")))
	assert.True(t, tx.BalanceBefore.Equal(dec("10.00")))
	assert.True(t, tx.BalanceAfter.Equal(dec("-10.00")))
	assert.True(t, balanceOf(t, s, 1).Equal(dec("-10.00")))

	_, err = s.Apply(ctx, purchase(1, "10.00"))
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.True(t, balanceOf(t, s, 1).Equal(dec("-10.00")))

	tx, err = s.Apply(ctx, purchase(1, "5.00"))
	require.NoError(t, err)
	assert.True(t, tx.BalanceAfter.Equal(floor))
}

func TestService_Apply_Validation(t *testing.T) {
	s, _ := newMemoryService(t)
	openWithBalance(t, s, 1, "5.00")
	inactive := 2
	openWithBalance(t, s, inactive, "0")
	_, err := s.SetAccountActive(context.Background(), inactive, false)
	require.NoError(t, err)

	tests := []struct {
		name    string
		op      domain.Operation
		wantErr error
	}{
		{
			name:    "zero amount",
			op:      purchase(1, "0"),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "negative purchase",
			op:      purchase(1, "-1"),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "half a cent",
			op:      purchase(1, "0.005"),
			wantErr: ErrInvalidAmount,
		},
		{
			name:    "a tenth of a cent",
			op:      purchase(1, "0.001"),
			wantErr: ErrInvalidAmount,
		},
		{
			name: "sub-cent adjustment",
			op: domain.Operation{
				AccountID: ptr(1), Kind: domain.KindAdminAdjustment, Amount: dec("-1.234"), Method: domain.MethodCash, Actor: admin,
			},
			wantErr: ErrInvalidAmount,
		},
		{
			name: "card method must use checkout",
			op: domain.Operation{
				AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("10"), Method: domain.MethodCloudAPI, Actor: member,
			},
			wantErr: ErrInvalidPaymentMethod,
		},
		{
			name: "top-up from balance",
			op: domain.Operation{
				AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("10"), Method: domain.MethodBalance, Actor: member,
			},
			wantErr: ErrInvalidPaymentMethod,
		},
		{
			name: "adjustment by member",
			op: domain.Operation{
				AccountID: ptr(1), Kind: domain.KindAdminAdjustment, Amount: dec("10"), Method: domain.MethodCash, Actor: member,
			},
			wantErr: ErrAdminRequired,
		},
		{
			name:    "unknown account",
			op:      purchase(99, "1"),
			wantErr: ErrAccountNotFound,
		},
		{
			name:    "inactive account",
			op:      purchase(inactive, "1"),
			wantErr: ErrAccountInactive,
		},
		{
			name: "adjustment below floor",
			op: domain.Operation{
				AccountID: ptr(1), Kind: domain.KindAdminAdjustment, Amount: dec("-20.01"), Method: domain.MethodCash, Actor: admin,
			},
			wantErr: ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := s.Apply(context.Background(), tt.op)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, tx)
			assert.True(t, balanceOf(t, s, 1).Equal(dec("5.00")))
		})
	}
}

func TestService_Apply_AdminAdjustmentStampsActor(t *testing.T) {
	s, _ := newMemoryService(t)
	openWithBalance(t, s, 1, "0")

	tx, err := s.Apply(context.Background(), domain.Operation{
		AccountID:   ptr(1),
		Kind:        domain.KindAdminAdjustment,
		Amount:      dec("-15.00"),
		Method:      domain.MethodCash,
		Description: "correction",
		Actor:       admin,
	})

	require.NoError(t, err)
	assert.Equal(t, "admin:1", tx.CreatedBy)
	assert.Regexp(t, `^ADJ-\d{14}-[0-9A-F]{8}$`, tx.Reference)
	assert.True(t, balanceOf(t, s, 1).Equal(floor))
}

func TestService_Apply_CashTopUpAndGuestSettlement(t *testing.T) {
	s, _ := newMemoryService(t)
	ctx := context.Background()
	openWithBalance(t, s, 1, "0")

	topUp, err := s.Apply(ctx, domain.Operation{
		AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("25.00"), Method: domain.MethodCash, Actor: admin,
	})
	require.NoError(t, err)
	assert.True(t, topUp.BalanceAfter.Equal(dec("25.00")))

	settlement, err := s.Apply(ctx, domain.Operation{
		GuestID: ptr(3), Kind: domain.KindGuestSettlement, Amount: dec("8.40"), Method: domain.MethodCash, Actor: member,
	})
	require.NoError(t, err)
	assert.Nil(t, settlement.AccountID)
	assert.Nil(t, settlement.BalanceBefore)
	assert.Nil(t, settlement.BalanceAfter)
	assert.NotNil(t, settlement.CompletedAt)
	assert.True(t, balanceOf(t, s, 1).Equal(dec("25.00")))
}

func TestService_Apply_ConcurrentNoLostUpdates(t *testing.T) {
	s, store := newMemoryService(t)
	ctx := context.Background()
	openWithBalance(t, s, 1, "0")

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			op := domain.Operation{
				AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("1.50"), Method: domain.MethodCash, Actor: admin,
			}
			if i%2 == 1 {
				op = purchase(1, "0.50")
			}
			_, err := s.Apply(ctx, op)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	// 25 top-ups of 1.50 and 25 purchases of 0.50
	assert.True(t, balanceOf(t, s, 1).Equal(dec("25.00")))

	list, err := store.Transactions().ListByAccount(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, list, n)
	for _, tx := range list {
		require.NotNil(t, tx.BalanceBefore)
		assert.True(t, tx.BalanceAfter.Equal(tx.BalanceBefore.Add(tx.Amount)), tx.Reference)
	}
}

func TestService_MarkTerminal(t *testing.T) {
	s, _ := newMemoryService(t)
	ctx := context.Background()
	openWithBalance(t, s, 1, "10.00")

	pending, err := s.CreatePending(ctx, domain.Operation{
		AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("25.00"), Method: domain.MethodCloudAPI, Actor: member,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, pending.Status)
	assert.Nil(t, pending.CompletedAt)
	assert.True(t, balanceOf(t, s, 1).Equal(dec("10.00")))

	done, err := s.MarkTerminal(ctx, pending.ID, domain.Outcome{Status: domain.StatusSuccessful, ExternalRef: "TX-1"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccessful, done.Status)
	assert.Equal(t, "TX-1", *done.ExternalRef)
	assert.True(t, done.BalanceBefore.Equal(dec("10.00")))
	assert.True(t, done.BalanceAfter.Equal(dec("35.00")))

	again, err := s.MarkTerminal(ctx, pending.ID, domain.Outcome{Status: domain.StatusSuccessful, ExternalRef: "TX-1"})
	require.NoError(t, err)
	assert.Equal(t, done.CompletedAt, again.CompletedAt)
	assert.True(t, balanceOf(t, s, 1).Equal(dec("35.00")))

	_, err = s.MarkTerminal(ctx, pending.ID, domain.Outcome{Status: domain.StatusFailed})
	assert.ErrorIs(t, err, ErrAlreadyFinalized)
	tx, err := s.GetTransaction(ctx, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSuccessful, tx.Status)
	assert.True(t, balanceOf(t, s, 1).Equal(dec("35.00")))
}

func TestService_MarkTerminal_ConcurrentSuccessCreditsOnce(t *testing.T) {
	s, _ := newMemoryService(t)
	ctx := context.Background()
	openWithBalance(t, s, 1, "0")

	pending, err := s.CreatePending(ctx, domain.Operation{
		AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("25.00"), Method: domain.MethodCloudAPI, Actor: member,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.MarkTerminal(ctx, pending.ID, domain.Outcome{Status: domain.StatusSuccessful})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, balanceOf(t, s, 1).Equal(dec("25.00")))
}

func TestService_MarkTerminal_FailureLeavesBalance(t *testing.T) {
	s, _ := newMemoryService(t)
	ctx := context.Background()
	openWithBalance(t, s, 1, "3.00")

	pending, err := s.CreatePending(ctx, domain.Operation{
		AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("25.00"), Method: domain.MethodCloudAPI, Actor: member,
	})
	require.NoError(t, err)

	tx, err := s.MarkTerminal(ctx, pending.ID, domain.Outcome{Status: domain.StatusFailed, Reason: domain.ReasonTimeout})
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonTimeout, tx.FailureReason)
	assert.Nil(t, tx.BalanceBefore)
	assert.True(t, balanceOf(t, s, 1).Equal(dec("3.00")))

	_, err = s.MarkTerminal(ctx, pending.ID, domain.Outcome{Status: domain.StatusPending})
	assert.ErrorIs(t, err, ErrInvalidOutcome)
	_, err = s.MarkTerminal(ctx, 999, domain.Outcome{Status: domain.StatusFailed})
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestService_CreatePending_Validation(t *testing.T) {
	s, _ := newMemoryService(t)
	ctx := context.Background()
	openWithBalance(t, s, 1, "0")

	_, err := s.CreatePending(ctx, domain.Operation{
		AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("5"), Method: domain.MethodCash, Actor: member,
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = s.CreatePending(ctx, domain.Operation{
		AccountID: ptr(1), Kind: domain.KindPurchase, Amount: dec("5"), Method: domain.MethodCloudAPI, Actor: member,
	})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	_, err = s.CreatePending(ctx, domain.Operation{
		AccountID: ptr(1), Kind: domain.KindTopUp, Amount: dec("10.005"), Method: domain.MethodCloudAPI, Actor: member,
	})
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = s.CreatePending(ctx, domain.Operation{
		AccountID: ptr(42), Kind: domain.KindTopUp, Amount: dec("5"), Method: domain.MethodCloudAPI, Actor: member,
	})
	assert.ErrorIs(t, err, ErrAccountNotFound)

	tx, err := s.CreatePending(ctx, domain.Operation{
		GuestID: ptr(3), Kind: domain.KindGuestSettlement, Amount: dec("12"), Method: domain.MethodPaymentLink, Actor: member,
	})
	require.NoError(t, err)
	require.NoError(t, s.AttachCheckout(ctx, tx.ID, "co-1"))

	pending, err := s.ListPendingCheckouts(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "co-1", *pending[0].CheckoutID)
}

func TestService_OpenAccount(t *testing.T) {
	s, _ := newMemoryService(t)
	ctx := context.Background()

	account, err := s.OpenAccount(ctx, 5)
	require.NoError(t, err)
	assert.True(t, account.Floor.Equal(floor))
	assert.True(t, account.Active)

	_, err = s.OpenAccount(ctx, 5)
	assert.ErrorIs(t, err, ErrAccountExists)

	_, err = s.SetAccountActive(ctx, 6, false)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestService_Apply_RepoFailureNoBalanceWrite(t *testing.T) {
	s, accounts, transactions := NewMock(t)
	errDB := errors.New("database error")

	accounts.EXPECT().GetForUpdate(gomock.Any(), 1).
		Return(&domain.Account{ID: 1, Balance: dec("10"), Floor: floor, Active: true}, nil)
	transactions.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errDB)
	accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	tx, err := s.Apply(context.Background(), purchase(1, "2.00"))

	assert.ErrorIs(t, err, errDB)
	assert.Nil(t, tx)
}

func TestService_MarkTerminal_FinalizeRace(t *testing.T) {
	s, accounts, transactions := NewMock(t)
	errStale := errors.New("no rows")
	pending := &domain.Transaction{ID: 9, Kind: domain.KindGuestSettlement, Status: domain.StatusPending, Amount: dec("4")}

	transactions.EXPECT().Get(gomock.Any(), int64(9)).Return(pending, nil)
	transactions.EXPECT().GetForUpdate(gomock.Any(), int64(9)).Return(pending, nil)
	transactions.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(errStale)
	accounts.EXPECT().UpdateBalance(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	_, err := s.MarkTerminal(context.Background(), 9, domain.Outcome{Status: domain.StatusCancelled, Reason: domain.ReasonCancelled})

	assert.ErrorIs(t, err, ErrNotPending)
	assert.ErrorIs(t, err, errStale)
}

func TestService_ListTransactions_Limit(t *testing.T) {
	s, _, transactions := NewMock(t)

	transactions.EXPECT().ListByAccount(gomock.Any(), 1, defaultListLimit).Return(nil, nil)
	transactions.EXPECT().ListByAccount(gomock.Any(), 1, maxListLimit).Return([]domain.Transaction{}, nil)

	_, err := s.ListTransactions(context.Background(), 1, 0)
	require.NoError(t, err)
	_, err = s.ListTransactions(context.Background(), 1, 10000)
	require.NoError(t, err)
}

func TestWholeCents(t *testing.T) {
	assert.True(t, WholeCents(dec("10")))
	assert.True(t, WholeCents(dec("10.50")))
	assert.True(t, WholeCents(dec("10.000")))
	assert.False(t, WholeCents(dec("10.005")))
	assert.False(t, WholeCents(dec("-0.001")))
}
