package transactionrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var columns = []string{
	"id", "reference", "account_id", "guest_id", "kind", "status", "payment_method", "amount",
	"balance_before", "balance_after", "checkout_id", "external_ref", "failure_reason", "description",
	"created_by", "created_at", "completed_at",
}

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB), mockDB
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func timePtr(v time.Time) *time.Time { return &v }

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	tx := &domain.Transaction{
		Reference:     "TOP-20261017120000-ABCD1234",
		AccountID:     intPtr(1),
		Kind:          domain.KindTopUp,
		Status:        domain.StatusPending,
		PaymentMethod: domain.MethodCloudAPI,
		Amount:        decimal.NewFromInt(25),
		CreatedBy:     "user:1",
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO transactions (reference, account_id, guest_id, kind, status, payment_method, amount,`)).
		WithArgs(tx.Reference, tx.AccountID, tx.GuestID, tx.Kind, tx.Status, tx.PaymentMethod, pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), tx.CheckoutID, tx.Description, tx.CreatedBy, tx.CompletedAt).
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(int64(42), now))

	created, err := repo.Create(context.Background(), tx)

	require.NoError(t, err)
	assert.Equal(t, int64(42), created.ID)
	assert.Equal(t, now, created.CreatedAt)
	assert.Zero(t, tx.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetForUpdate(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		expectErr bool
		check     func(t *testing.T, tx *domain.Transaction)
	}{
		{
			name: "Successful top-up with balance snapshot",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(columns).AddRow(
					int64(7), "TOP-1", intPtr(1), (*int)(nil), domain.KindTopUp, domain.StatusSuccessful, domain.MethodCloudAPI, "25.00",
					"10.00", "35.00", strPtr("co-1"), strPtr("TX-CODE"), "", "top-up",
					"user:1", now, timePtr(now),
				)
				mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
					WithArgs(int64(7)).
					WillReturnRows(rows)
			},
			check: func(t *testing.T, tx *domain.Transaction) {
				require.NotNil(t, tx)
				assert.Equal(t, domain.StatusSuccessful, tx.Status)
				require.NotNil(t, tx.BalanceBefore)
				require.NotNil(t, tx.BalanceAfter)
				assert.True(t, tx.BalanceAfter.Equal(tx.BalanceBefore.Add(tx.Amount)))
				assert.Equal(t, "co-1", *tx.CheckoutID)
				assert.Nil(t, tx.GuestID)
			},
		},
		{
			name: "Guest settlement without balance snapshot",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(columns).AddRow(
					int64(7), "GST-1", (*int)(nil), intPtr(3), domain.KindGuestSettlement, domain.StatusPending, domain.MethodCloudAPI, "12.00",
					nil, nil, (*string)(nil), (*string)(nil), "", "",
					"system", now, (*time.Time)(nil),
				)
				mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
					WithArgs(int64(7)).
					WillReturnRows(rows)
			},
			check: func(t *testing.T, tx *domain.Transaction) {
				require.NotNil(t, tx)
				assert.Nil(t, tx.BalanceBefore)
				assert.Nil(t, tx.BalanceAfter)
				assert.Nil(t, tx.AccountID)
				assert.Equal(t, 3, *tx.GuestID)
			},
		},
		{
			name: "Not found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
					WithArgs(int64(7)).
					WillReturnError(pgx.ErrNoRows)
			},
			check: func(t *testing.T, tx *domain.Transaction) {
				assert.Nil(t, tx)
			},
		},
		{
			name: "Database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM transactions WHERE id = $1 FOR UPDATE`)).
					WithArgs(int64(7)).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			tt.mockSetup(mock)

			tx, err := repo.GetForUpdate(context.Background(), 7)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				tt.check(t, tx)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_Finalize(t *testing.T) {
	completed := time.Now()
	tx := &domain.Transaction{
		ID:            7,
		Status:        domain.StatusFailed,
		FailureReason: domain.ReasonTimeout,
		CompletedAt:   &completed,
	}

	tests := []struct {
		name      string
		rows      int64
		expectErr error
	}{
		{name: "Pending row finalized", rows: 1},
		{name: "Row already terminal", rows: 0, expectErr: pgx.ErrNoRows},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions SET status = $1`)).
				WithArgs(domain.StatusFailed, tx.BalanceBefore, tx.BalanceAfter, tx.ExternalRef, domain.ReasonTimeout, tx.CompletedAt, int64(7)).
				WillReturnResult(pgxmock.NewResult("UPDATE", tt.rows))

			err := repo.Finalize(context.Background(), tx)

			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_SetCheckoutID(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE transactions SET checkout_id = $1 WHERE id = $2`)).
		WithArgs("co-1", int64(7)).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, repo.SetCheckoutID(context.Background(), 7, "co-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListPendingCheckouts(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	rows := pgxmock.NewRows(columns).
		AddRow(int64(1), "TOP-1", intPtr(1), (*int)(nil), domain.KindTopUp, domain.StatusPending, domain.MethodCloudAPI, "25.00",
			nil, nil, strPtr("co-1"), (*string)(nil), "", "", "user:1", now, (*time.Time)(nil)).
		AddRow(int64(2), "GST-2", (*int)(nil), intPtr(4), domain.KindGuestSettlement, domain.StatusPending, domain.MethodCloudAPI, "8.40",
			nil, nil, strPtr("co-2"), (*string)(nil), "", "", "user:1", now, (*time.Time)(nil))
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = 'pending' AND checkout_id IS NOT NULL`)).
		WillReturnRows(rows)

	transactions, err := repo.ListPendingCheckouts(context.Background())

	require.NoError(t, err)
	require.Len(t, transactions, 2)
	assert.Equal(t, "co-1", *transactions[0].CheckoutID)
	assert.Equal(t, "co-2", *transactions[1].CheckoutID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListByAccount(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE account_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2`)).
		WithArgs(1, 50).
		WillReturnError(errors.New("database error"))

	transactions, err := repo.ListByAccount(context.Background(), 1, 50)

	assert.Error(t, err)
	assert.Nil(t, transactions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
