package guestrepo

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

var (
	guestCols = []string{"id", "name", "total", "pending_transaction_id", "created_at", "closed_at"}
	itemCols  = []string{"id", "guest_id", "product_id", "quantity", "unit_price", "line_total", "paid", "created_at"}
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockDB.Close)

	return New(mockDB), mockDB
}

func TestRepository_Create(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO guests (name) VALUES ($1)`)).
		WithArgs("Alice").
		WillReturnRows(pgxmock.NewRows(guestCols).AddRow(1, "Alice", "0", (*int64)(nil), now, (*time.Time)(nil)))

	guest, err := repo.Create(context.Background(), "Alice")

	require.NoError(t, err)
	assert.Equal(t, 1, guest.ID)
	assert.False(t, guest.Closed())
	assert.True(t, guest.Total.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_GetForUpdate(t *testing.T) {
	now := time.Now()
	pending := int64(11)

	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		expectErr bool
		check     func(t *testing.T, guest *domain.Guest)
	}{
		{
			name: "Closed guest",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM guests WHERE id = $1 FOR UPDATE`)).
					WithArgs(1).
					WillReturnRows(pgxmock.NewRows(guestCols).AddRow(1, "Bob", "12.50", (*int64)(nil), now, &now))
			},
			check: func(t *testing.T, guest *domain.Guest) {
				require.NotNil(t, guest)
				assert.True(t, guest.Closed())
				assert.Equal(t, "12.5", guest.Total.String())
			},
		},
		{
			name: "Settlement pending",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM guests WHERE id = $1 FOR UPDATE`)).
					WithArgs(1).
					WillReturnRows(pgxmock.NewRows(guestCols).AddRow(1, "Bob", "12.50", &pending, now, (*time.Time)(nil)))
			},
			check: func(t *testing.T, guest *domain.Guest) {
				require.NotNil(t, guest)
				require.NotNil(t, guest.PendingTransactionID)
				assert.Equal(t, int64(11), *guest.PendingTransactionID)
			},
		},
		{
			name: "Not found",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM guests WHERE id = $1 FOR UPDATE`)).
					WithArgs(1).
					WillReturnError(pgx.ErrNoRows)
			},
			check: func(t *testing.T, guest *domain.Guest) {
				assert.Nil(t, guest)
			},
		},
		{
			name: "Database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(regexp.QuoteMeta(`FROM guests WHERE id = $1 FOR UPDATE`)).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := NewMock(t)
			tt.mockSetup(mock)

			guest, err := repo.GetForUpdate(context.Background(), 1)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				tt.check(t, guest)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepository_AddItem(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO guest_tab_items (guest_id, product_id, quantity, unit_price, line_total, paid)`)).
		WithArgs(1, 5, 2, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows(itemCols).AddRow(10, 1, 5, 2, "2.10", "4.20", false, now))

	item, err := repo.AddItem(context.Background(), &domain.GuestTabItem{
		GuestID:   1,
		ProductID: 5,
		Quantity:  2,
		UnitPrice: decimal.RequireFromString("2.10"),
		LineTotal: decimal.RequireFromString("4.20"),
	})

	require.NoError(t, err)
	assert.Equal(t, 10, item.ID)
	assert.False(t, item.Paid)
	assert.Equal(t, "4.2", item.LineTotal.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_ListUnpaidItems(t *testing.T) {
	repo, mock := NewMock(t)
	now := time.Now()

	rows := pgxmock.NewRows(itemCols).
		AddRow(10, 1, 5, 1, "2.10", "2.10", false, now).
		AddRow(11, 1, 6, 3, "1.00", "3.00", false, now)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM guest_tab_items WHERE guest_id = $1 AND NOT paid ORDER BY id FOR UPDATE`)).
		WithArgs(1).
		WillReturnRows(rows)

	items, err := repo.ListUnpaidItems(context.Background(), 1)

	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[1].Quantity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_MarkItemsPaid(t *testing.T) {
	repo, mock := NewMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE guest_tab_items SET paid = TRUE WHERE guest_id = $1 AND NOT paid`)).
		WithArgs(1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := repo.MarkItemsPaid(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_Update(t *testing.T) {
	repo, mock := NewMock(t)
	closed := time.Now()
	guest := &domain.Guest{ID: 1, Total: decimal.RequireFromString("6.30"), ClosedAt: &closed}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE guests SET total = $1, pending_transaction_id = $2, closed_at = $3 WHERE id = $4`)).
		WithArgs(pgxmock.AnyArg(), guest.PendingTransactionID, guest.ClosedAt, 1).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.Update(context.Background(), guest)

	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
