package guestrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/pg"
	"go.uber.org/zap"
)

const (
	guestColumns = `id, name, total, pending_transaction_id, created_at, closed_at`
	itemColumns  = `id, guest_id, product_id, quantity, unit_price, line_total, paid, created_at`
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func scanGuest(row pgx.Row) (*domain.Guest, error) {
	var guest domain.Guest
	err := row.Scan(&guest.ID, &guest.Name, &guest.Total, &guest.PendingTransactionID, &guest.CreatedAt, &guest.ClosedAt)
	if err != nil {
		return nil, err
	}
	return &guest, nil
}

func scanItem(row pgx.Row) (*domain.GuestTabItem, error) {
	var item domain.GuestTabItem
	err := row.Scan(&item.ID, &item.GuestID, &item.ProductID, &item.Quantity, &item.UnitPrice, &item.LineTotal, &item.Paid, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *Repository) Create(ctx context.Context, name string) (*domain.Guest, error) {
	query := `
        INSERT INTO guests (name)
        VALUES ($1)
        RETURNING ` + guestColumns
	guest, err := scanGuest(r.db.QueryRow(ctx, query, name))
	if err != nil {
		zap.L().Error("failed to create guest", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	return guest, nil
}

func (r *Repository) Get(ctx context.Context, id int) (*domain.Guest, error) {
	query := `
        SELECT ` + guestColumns + `
        FROM guests
        WHERE id = $1
    `
	guest, err := scanGuest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get guest", zap.Int("guest_id", id), zap.Error(err))
		return nil, err
	}
	return guest, nil
}

func (r *Repository) GetForUpdate(ctx context.Context, id int) (*domain.Guest, error) {
	query := `
        SELECT ` + guestColumns + `
        FROM guests
        WHERE id = $1
        FOR UPDATE
    `
	guest, err := scanGuest(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to lock guest", zap.Int("guest_id", id), zap.Error(err))
		return nil, err
	}
	return guest, nil
}

// Update persists the mutable tab fields of guest.
func (r *Repository) Update(ctx context.Context, guest *domain.Guest) error {
	query := `
        UPDATE guests
        SET total = $1, pending_transaction_id = $2, closed_at = $3
        WHERE id = $4
    `
	tag, err := r.db.Exec(ctx, query, guest.Total, guest.PendingTransactionID, guest.ClosedAt, guest.ID)
	if err != nil {
		zap.L().Error("failed to update guest", zap.Int("guest_id", guest.ID), zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) AddItem(ctx context.Context, item *domain.GuestTabItem) (*domain.GuestTabItem, error) {
	query := `
        INSERT INTO guest_tab_items (guest_id, product_id, quantity, unit_price, line_total, paid)
        VALUES ($1, $2, $3, $4, $5, FALSE)
        RETURNING ` + itemColumns
	created, err := scanItem(r.db.QueryRow(ctx, query, item.GuestID, item.ProductID, item.Quantity, item.UnitPrice, item.LineTotal))
	if err != nil {
		zap.L().Error("failed to add tab item", zap.Int("guest_id", item.GuestID), zap.Error(err))
		return nil, err
	}
	return created, nil
}

func (r *Repository) listItems(ctx context.Context, query string, guestID int) ([]domain.GuestTabItem, error) {
	rows, err := r.db.Query(ctx, query, guestID)
	if err != nil {
		zap.L().Error("failed to list tab items", zap.Int("guest_id", guestID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var items []domain.GuestTabItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			zap.L().Error("failed to scan tab item", zap.Int("guest_id", guestID), zap.Error(err))
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		zap.L().Error("failed to iterate tab items", zap.Int("guest_id", guestID), zap.Error(err))
		return nil, err
	}
	return items, nil
}

func (r *Repository) ListItems(ctx context.Context, guestID int) ([]domain.GuestTabItem, error) {
	query := `
        SELECT ` + itemColumns + `
        FROM guest_tab_items
        WHERE guest_id = $1
        ORDER BY id
    `
	return r.listItems(ctx, query, guestID)
}

func (r *Repository) ListUnpaidItems(ctx context.Context, guestID int) ([]domain.GuestTabItem, error) {
	query := `
        SELECT ` + itemColumns + `
        FROM guest_tab_items
        WHERE guest_id = $1 AND NOT paid
        ORDER BY id
        FOR UPDATE
    `
	return r.listItems(ctx, query, guestID)
}

func (r *Repository) MarkItemsPaid(ctx context.Context, guestID int) (int64, error) {
	query := `
        UPDATE guest_tab_items
        SET paid = TRUE
        WHERE guest_id = $1 AND NOT paid
    `
	tag, err := r.db.Exec(ctx, query, guestID)
	if err != nil {
		zap.L().Error("failed to mark tab items paid", zap.Int("guest_id", guestID), zap.Error(err))
		return 0, err
	}
	return tag.RowsAffected(), nil
}
