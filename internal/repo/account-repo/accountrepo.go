package accountrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/pg"
	"go.uber.org/zap"
)

const accountColumns = `id, balance, overdraft_floor, active, created_at, updated_at`

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(&account.ID, &account.Balance, &account.Floor, &account.Active, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *Repository) Get(ctx context.Context, id int) (*domain.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM accounts
        WHERE id = $1
    `
	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get account", zap.Int("account_id", id), zap.Error(err))
		return nil, err
	}
	return account, nil
}

// GetForUpdate locks the account row until the surrounding transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id int) (*domain.Account, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM accounts
        WHERE id = $1
        FOR UPDATE
    `
	account, err := scanAccount(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock account", zap.Int("account_id", id), zap.Error(err))
		return nil, err
	}
	return account, nil
}

// Create returns nil when the account already exists.
func (r *Repository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := `
        INSERT INTO accounts (id, balance, overdraft_floor, active)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO NOTHING
        RETURNING ` + accountColumns
	created, err := scanAccount(r.db.QueryRow(ctx, query, account.ID, account.Balance, account.Floor, account.Active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to create account", zap.Int("account_id", account.ID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (r *Repository) UpdateBalance(ctx context.Context, id int, balance decimal.Decimal) error {
	query := `
        UPDATE accounts
        SET balance = $1, updated_at = now()
        WHERE id = $2
    `
	tag, err := r.db.Exec(ctx, query, balance, id)
	if err != nil {
		zap.L().Error("failed to update account balance", zap.Int("account_id", id), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		zap.L().Error("account balance not updated", zap.Int("account_id", id))
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) SetActive(ctx context.Context, id int, active bool) (*domain.Account, error) {
	query := `
        UPDATE accounts
        SET active = $1, updated_at = now()
        WHERE id = $2
        RETURNING ` + accountColumns
	account, err := scanAccount(r.db.QueryRow(ctx, query, active, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to set account active flag", zap.Int("account_id", id), zap.Error(err))
		return nil, err
	}
	return account, nil
}
