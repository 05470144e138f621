package transactionrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/pg"
	"go.uber.org/zap"
)

const transactionColumns = `id, reference, account_id, guest_id, kind, status, payment_method, amount,
        balance_before, balance_after, checkout_id, external_ref, failure_reason, description,
        created_by, created_at, completed_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		tx            domain.Transaction
		before, after decimal.NullDecimal
	)
	err := row.Scan(
		&tx.ID, &tx.Reference, &tx.AccountID, &tx.GuestID, &tx.Kind, &tx.Status, &tx.PaymentMethod, &tx.Amount,
		&before, &after, &tx.CheckoutID, &tx.ExternalRef, &tx.FailureReason, &tx.Description,
		&tx.CreatedBy, &tx.CreatedAt, &tx.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	if before.Valid {
		tx.BalanceBefore = &before.Decimal
	}
	if after.Valid {
		tx.BalanceAfter = &after.Decimal
	}
	return &tx, nil
}

func collect(rows pgx.Rows) ([]domain.Transaction, error) {
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transactions, nil
}

func (r *Repository) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	query := `
        INSERT INTO transactions (reference, account_id, guest_id, kind, status, payment_method, amount,
            balance_before, balance_after, checkout_id, description, created_by, completed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        RETURNING id, created_at
    `
	created := *tx
	err := r.db.QueryRow(ctx, query,
		tx.Reference, tx.AccountID, tx.GuestID, tx.Kind, tx.Status, tx.PaymentMethod, tx.Amount,
		tx.BalanceBefore, tx.BalanceAfter, tx.CheckoutID, tx.Description, tx.CreatedBy, tx.CompletedAt,
	).Scan(&created.ID, &created.CreatedAt)
	if err != nil {
		zap.L().Error("failed to create transaction", zap.String("reference", tx.Reference), zap.Error(err))
		return nil, err
	}
	return &created, nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE id = $1
    `
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get transaction", zap.Int64("transaction_id", id), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

func (r *Repository) GetForUpdate(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE id = $1
        FOR UPDATE
    `
	tx, err := scanTransaction(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock transaction", zap.Int64("transaction_id", id), zap.Error(err))
		return nil, err
	}
	return tx, nil
}

// Finalize writes the terminal state of a pending transaction. It returns
// pgx.ErrNoRows when the row is no longer pending.
func (r *Repository) Finalize(ctx context.Context, tx *domain.Transaction) error {
	query := `
        UPDATE transactions
        SET status = $1, balance_before = $2, balance_after = $3, external_ref = $4,
            failure_reason = $5, completed_at = $6
        WHERE id = $7 AND status = 'pending'
    `
	tag, err := r.db.Exec(ctx, query,
		tx.Status, tx.BalanceBefore, tx.BalanceAfter, tx.ExternalRef, tx.FailureReason, tx.CompletedAt, tx.ID)
	if err != nil {
		zap.L().Error("failed to finalize transaction", zap.Int64("transaction_id", tx.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		zap.L().Error("transaction is not pending", zap.Int64("transaction_id", tx.ID))
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) SetCheckoutID(ctx context.Context, id int64, checkoutID string) error {
	query := `
        UPDATE transactions
        SET checkout_id = $1
        WHERE id = $2
    `
	tag, err := r.db.Exec(ctx, query, checkoutID, id)
	if err != nil {
		zap.L().Error("failed to attach checkout", zap.Int64("transaction_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) ListByAccount(ctx context.Context, accountID int, limit int) ([]domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE account_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		zap.L().Error("failed to list transactions", zap.Int("account_id", accountID), zap.Error(err))
		return nil, err
	}
	transactions, err := collect(rows)
	if err != nil {
		zap.L().Error("failed to scan transactions", zap.Int("account_id", accountID), zap.Error(err))
		return nil, err
	}
	return transactions, nil
}

func (r *Repository) ListPendingCheckouts(ctx context.Context) ([]domain.Transaction, error) {
	query := `
        SELECT ` + transactionColumns + `
        FROM transactions
        WHERE status = 'pending' AND checkout_id IS NOT NULL
        ORDER BY id
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("failed to list pending checkouts", zap.Error(err))
		return nil, err
	}
	transactions, err := collect(rows)
	if err != nil {
		zap.L().Error("failed to scan pending checkouts", zap.Error(err))
		return nil, err
	}
	return transactions, nil
}
