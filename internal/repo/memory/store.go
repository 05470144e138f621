// Package memory keeps every repository in process memory. It backs the
// service when no database is configured and is used by service tests.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/clubledger/internal/domain"
)

var (
	ErrDuplicateReference = errors.New("duplicate transaction reference")
	ErrNotFound           = errors.New("not found")
	ErrNotPending         = errors.New("transaction is not pending")
)

type Store struct {
	mu sync.RWMutex

	accounts     map[int]*domain.Account
	transactions map[int64]*domain.Transaction
	references   map[string]int64
	guests       map[int]*domain.Guest
	items        map[int][]*domain.GuestTabItem
	sessions     map[string]*domain.CheckoutSession
	active       map[string]struct{}

	nextTransactionID int64
	nextGuestID       int
	nextItemID        int

	now func() time.Time
}

func New() *Store {
	return &Store{
		accounts:     make(map[int]*domain.Account),
		transactions: make(map[int64]*domain.Transaction),
		references:   make(map[string]int64),
		guests:       make(map[int]*domain.Guest),
		items:        make(map[int][]*domain.GuestTabItem),
		sessions:     make(map[string]*domain.CheckoutSession),
		active:       make(map[string]struct{}),
		now:          time.Now,
	}
}

// Begin runs fn directly. Writers are serialized by the services' key locks,
// so there is no rollback.
func (s *Store) Begin(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *Store) Accounts() *AccountStore { return &AccountStore{s: s} }

func (s *Store) Transactions() *TransactionStore { return &TransactionStore{s: s} }

func (s *Store) Guests() *GuestStore { return &GuestStore{s: s} }

func (s *Store) Sessions() *SessionStore { return &SessionStore{s: s} }

type AccountStore struct {
	s *Store
}

func (a *AccountStore) Get(_ context.Context, id int) (*domain.Account, error) {
	a.s.mu.RLock()
	defer a.s.mu.RUnlock()

	if acc, ok := a.s.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, nil
}

func (a *AccountStore) GetForUpdate(ctx context.Context, id int) (*domain.Account, error) {
	return a.Get(ctx, id)
}

func (a *AccountStore) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	if _, exists := a.s.accounts[account.ID]; exists {
		return nil, nil
	}
	now := a.s.now()
	cp := *account
	cp.CreatedAt, cp.UpdatedAt = now, now
	a.s.accounts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (a *AccountStore) UpdateBalance(_ context.Context, id int, balance decimal.Decimal) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	acc, ok := a.s.accounts[id]
	if !ok {
		return ErrNotFound
	}
	acc.Balance = balance
	acc.UpdatedAt = a.s.now()
	return nil
}

func (a *AccountStore) SetActive(_ context.Context, id int, active bool) (*domain.Account, error) {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()

	acc, ok := a.s.accounts[id]
	if !ok {
		return nil, nil
	}
	acc.Active = active
	acc.UpdatedAt = a.s.now()
	cp := *acc
	return &cp, nil
}

type TransactionStore struct {
	s *Store
}

func (t *TransactionStore) Create(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if _, exists := t.s.references[tx.Reference]; exists {
		return nil, ErrDuplicateReference
	}
	t.s.nextTransactionID++
	cp := *tx
	cp.ID = t.s.nextTransactionID
	cp.CreatedAt = t.s.now()
	t.s.transactions[cp.ID] = &cp
	t.s.references[cp.Reference] = cp.ID
	out := cp
	return &out, nil
}

func (t *TransactionStore) Get(_ context.Context, id int64) (*domain.Transaction, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	if tx, ok := t.s.transactions[id]; ok {
		cp := *tx
		return &cp, nil
	}
	return nil, nil
}

func (t *TransactionStore) GetForUpdate(ctx context.Context, id int64) (*domain.Transaction, error) {
	return t.Get(ctx, id)
}

func (t *TransactionStore) Finalize(_ context.Context, tx *domain.Transaction) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	stored, ok := t.s.transactions[tx.ID]
	if !ok || stored.Status != domain.StatusPending {
		return ErrNotPending
	}
	stored.Status = tx.Status
	stored.BalanceBefore = tx.BalanceBefore
	stored.BalanceAfter = tx.BalanceAfter
	stored.ExternalRef = tx.ExternalRef
	stored.FailureReason = tx.FailureReason
	stored.CompletedAt = tx.CompletedAt
	return nil
}

func (t *TransactionStore) SetCheckoutID(_ context.Context, id int64, checkoutID string) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	stored, ok := t.s.transactions[id]
	if !ok {
		return ErrNotFound
	}
	stored.CheckoutID = &checkoutID
	return nil
}

func (t *TransactionStore) ListByAccount(_ context.Context, accountID int, limit int) ([]domain.Transaction, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for _, tx := range t.s.transactions {
		if tx.AccountID != nil && *tx.AccountID == accountID {
			result = append(result, *tx)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (t *TransactionStore) ListPendingCheckouts(_ context.Context) ([]domain.Transaction, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	result := make([]domain.Transaction, 0)
	for _, tx := range t.s.transactions {
		if tx.Status == domain.StatusPending && tx.CheckoutID != nil {
			result = append(result, *tx)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type GuestStore struct {
	s *Store
}

func (g *GuestStore) Create(_ context.Context, name string) (*domain.Guest, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	g.s.nextGuestID++
	guest := &domain.Guest{
		ID:        g.s.nextGuestID,
		Name:      name,
		Total:     decimal.Zero,
		CreatedAt: g.s.now(),
	}
	g.s.guests[guest.ID] = guest
	cp := *guest
	return &cp, nil
}

func (g *GuestStore) Get(_ context.Context, id int) (*domain.Guest, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	if guest, ok := g.s.guests[id]; ok {
		cp := *guest
		return &cp, nil
	}
	return nil, nil
}

func (g *GuestStore) GetForUpdate(ctx context.Context, id int) (*domain.Guest, error) {
	return g.Get(ctx, id)
}

func (g *GuestStore) Update(_ context.Context, guest *domain.Guest) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	stored, ok := g.s.guests[guest.ID]
	if !ok {
		return ErrNotFound
	}
	stored.Total = guest.Total
	stored.PendingTransactionID = guest.PendingTransactionID
	stored.ClosedAt = guest.ClosedAt
	return nil
}

func (g *GuestStore) AddItem(_ context.Context, item *domain.GuestTabItem) (*domain.GuestTabItem, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	if _, ok := g.s.guests[item.GuestID]; !ok {
		return nil, ErrNotFound
	}
	g.s.nextItemID++
	cp := *item
	cp.ID = g.s.nextItemID
	cp.Paid = false
	cp.CreatedAt = g.s.now()
	g.s.items[cp.GuestID] = append(g.s.items[cp.GuestID], &cp)
	out := cp
	return &out, nil
}

func (g *GuestStore) ListItems(_ context.Context, guestID int) ([]domain.GuestTabItem, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	result := make([]domain.GuestTabItem, 0, len(g.s.items[guestID]))
	for _, item := range g.s.items[guestID] {
		result = append(result, *item)
	}
	return result, nil
}

func (g *GuestStore) ListUnpaidItems(_ context.Context, guestID int) ([]domain.GuestTabItem, error) {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()

	result := make([]domain.GuestTabItem, 0)
	for _, item := range g.s.items[guestID] {
		if !item.Paid {
			result = append(result, *item)
		}
	}
	return result, nil
}

func (g *GuestStore) MarkItemsPaid(_ context.Context, guestID int) (int64, error) {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()

	var n int64
	for _, item := range g.s.items[guestID] {
		if !item.Paid {
			item.Paid = true
			n++
		}
	}
	return n, nil
}

type SessionStore struct {
	s *Store
}

func (ss *SessionStore) Save(_ context.Context, session *domain.CheckoutSession) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	cp := *session
	ss.s.sessions[cp.ExternalID] = &cp
	ss.s.active[cp.ExternalID] = struct{}{}
	return nil
}

func (ss *SessionStore) Get(_ context.Context, externalID string) (*domain.CheckoutSession, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	if session, ok := ss.s.sessions[externalID]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, nil
}

func (ss *SessionStore) ListActive(_ context.Context) ([]domain.CheckoutSession, error) {
	ss.s.mu.RLock()
	defer ss.s.mu.RUnlock()

	result := make([]domain.CheckoutSession, 0, len(ss.s.active))
	for id := range ss.s.active {
		if session, ok := ss.s.sessions[id]; ok {
			result = append(result, *session)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TransactionID < result[j].TransactionID })
	return result, nil
}

func (ss *SessionStore) Resolve(_ context.Context, externalID string, outcome domain.Status, at time.Time) error {
	ss.s.mu.Lock()
	defer ss.s.mu.Unlock()

	if session, ok := ss.s.sessions[externalID]; ok {
		session.Outcome = &outcome
		session.ResolvedAt = &at
	}
	delete(ss.s.active, externalID)
	return nil
}
