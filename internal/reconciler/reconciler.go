// Package reconciler drives card checkouts from creation to a terminal
// ledger transaction.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/GlebRadaev/clubledger/internal/config"
	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/gateway"
	"github.com/GlebRadaev/clubledger/internal/service/ledgerservice"
)

var (
	ErrTimeout          = errors.New("checkout polling budget exhausted")
	ErrCheckoutNotFound = errors.New("checkout not found")
	ErrUntracked        = errors.New("checkout could not be tracked")
)

type Ledger interface {
	CreatePending(ctx context.Context, op domain.Operation) (*domain.Transaction, error)
	AttachCheckout(ctx context.Context, transactionID int64, checkoutID string) error
	MarkTerminal(ctx context.Context, transactionID int64, outcome domain.Outcome) (*domain.Transaction, error)
	ListPendingCheckouts(ctx context.Context) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error)
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req gateway.CheckoutRequest) (*gateway.Checkout, error)
	GetStatus(ctx context.Context, checkoutID string) (*gateway.CheckoutStatus, error)
	PairReader(ctx context.Context, pairingCode, name string) (*gateway.Reader, error)
	ReaderStatus(ctx context.Context) (*gateway.ReaderStatus, error)
	ListReaders(ctx context.Context) ([]gateway.Reader, error)
}

type SessionRepo interface {
	Save(ctx context.Context, session *domain.CheckoutSession) error
	Get(ctx context.Context, externalID string) (*domain.CheckoutSession, error)
	ListActive(ctx context.Context) ([]domain.CheckoutSession, error)
	Resolve(ctx context.Context, externalID string, outcome domain.Status, at time.Time) error
}

// FinalizedHook is called after every terminal transition the reconciler
// causes. Hooks run without any ledger lock held.
type FinalizedHook func(ctx context.Context, tx *domain.Transaction) error

// CheckoutState is an active session together with whether this process
// is currently polling it.
type CheckoutState struct {
	domain.CheckoutSession
	Polling bool `json:"polling"`
}

type entry struct {
	cancel context.CancelFunc
	// mu orders session writes of the poll loop against Cancel.
	mu sync.Mutex
}

func (e *entry) stop() {
	e.cancel()
	e.mu.Lock()
	defer e.mu.Unlock()
}

type Reconciler struct {
	ledger   Ledger
	gateway  Gateway
	sessions SessionRepo
	pool     WorkerPoolI

	interval      time.Duration
	timeout       time.Duration
	sweepInterval time.Duration
	maxAttempts   int

	baseCtx context.Context
	stop    context.CancelFunc
	wg      sync.WaitGroup

	registry sync.Map

	mu    sync.RWMutex
	hooks []FinalizedHook

	now func() time.Time
}

func New(cfg config.Checkout, ledger Ledger, gw Gateway, sessions SessionRepo) *Reconciler {
	baseCtx, stop := context.WithCancel(context.Background())
	return &Reconciler{
		ledger:        ledger,
		gateway:       gw,
		sessions:      sessions,
		pool:          NewWorkerPool(cfg.Workers),
		interval:      cfg.PollInterval,
		timeout:       cfg.PollTimeout,
		sweepInterval: cfg.SweepInterval,
		maxAttempts:   cfg.MaxAttempts(),
		baseCtx:       baseCtx,
		stop:          stop,
		now:           time.Now,
	}
}

func (r *Reconciler) OnFinalized(hook FinalizedHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// StartCheckout records a pending transaction, opens the external checkout
// and schedules its reconciliation. The returned transaction is pending.
func (r *Reconciler) StartCheckout(ctx context.Context, op domain.Operation) (*domain.Transaction, error) {
	tx, err := r.ledger.CreatePending(ctx, op)
	if err != nil {
		return nil, err
	}

	checkout, err := r.gateway.CreateCheckout(ctx, gateway.CheckoutRequest{
		Amount:      tx.Amount,
		Description: tx.Description,
		Reference:   tx.Reference,
		Method:      tx.PaymentMethod,
	})
	if err != nil {
		reason := domain.ReasonGatewayFailed
		if errors.Is(err, gateway.ErrGatewayRejected) {
			reason = domain.ReasonGatewayRejected
		}
		// The caller may hold locks of its own, so finalization hooks are not run here.
		if _, markErr := r.ledger.MarkTerminal(ctx, tx.ID, domain.Outcome{
			Status: domain.StatusFailed,
			Reason: reason,
		}); markErr != nil {
			zap.L().Error("failed to mark checkout transaction failed",
				zap.Int64("transaction_id", tx.ID), zap.Error(markErr))
		}
		return nil, err
	}

	// Without the checkout id on the transaction only the stored session
	// leads back to the provider checkout.
	attachErr := r.ledger.AttachCheckout(ctx, tx.ID, checkout.ID)
	if attachErr != nil {
		zap.L().Warn("failed to attach checkout to transaction",
			zap.Int64("transaction_id", tx.ID), zap.String("checkout_id", checkout.ID), zap.Error(attachErr))
	}
	checkoutID := checkout.ID
	tx.CheckoutID = &checkoutID

	now := r.now()
	session := domain.CheckoutSession{
		ExternalID:    checkout.ID,
		TransactionID: tx.ID,
		Reference:     tx.Reference,
		Amount:        tx.Amount,
		PaymentURL:    checkout.PaymentURL,
		CreatedAt:     now,
		Deadline:      now.Add(r.timeout),
		NextPollAt:    now,
	}
	if err := r.sessions.Save(ctx, &session); err != nil {
		if attachErr != nil {
			return nil, r.abandon(ctx, tx, checkout.ID, errors.Join(attachErr, err))
		}
		// The pending transaction carries the checkout id, so the sweep rebuilds the session.
		zap.L().Warn("failed to save checkout session", zap.String("checkout_id", checkout.ID), zap.Error(err))
	}

	if err := r.track(ctx, session); err != nil {
		zap.L().Warn("checkout left for the sweep", zap.String("checkout_id", checkout.ID), zap.Error(err))
	}
	return tx, nil
}

// abandon fails a transaction whose provider checkout cannot be found again
// by the sweep. The checkout id is logged for manual reconciliation.
func (r *Reconciler) abandon(ctx context.Context, tx *domain.Transaction, checkoutID string, cause error) error {
	zap.L().Error("checkout untracked, failing transaction",
		zap.Int64("transaction_id", tx.ID), zap.String("checkout_id", checkoutID), zap.Error(cause))
	if _, err := r.ledger.MarkTerminal(ctx, tx.ID, domain.Outcome{
		Status: domain.StatusFailed,
		Reason: domain.ReasonUntracked,
	}); err != nil {
		zap.L().Error("failed to mark checkout transaction failed",
			zap.Int64("transaction_id", tx.ID), zap.Error(err))
	}
	return fmt.Errorf("%w: checkout %s: %w", ErrUntracked, checkoutID, cause)
}

// Session returns the stored session of a checkout.
func (r *Reconciler) Session(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error) {
	session, err := r.sessions.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrCheckoutNotFound
	}
	return session, nil
}

// track registers the session and hands its poll loop to the worker pool.
// A session that is already registered is left alone.
func (r *Reconciler) track(ctx context.Context, session domain.CheckoutSession) error {
	pollCtx, cancel := context.WithCancel(r.baseCtx)
	e := &entry{cancel: cancel}
	if _, loaded := r.registry.LoadOrStore(session.ExternalID, e); loaded {
		cancel()
		return nil
	}

	err := r.pool.AddTask(ctx, func() error {
		defer func() {
			r.registry.CompareAndDelete(session.ExternalID, e)
			cancel()
		}()
		return r.poll(pollCtx, e, session)
	})
	if err != nil {
		r.registry.CompareAndDelete(session.ExternalID, e)
		cancel()
		return err
	}
	return nil
}

// poll asks the gateway for the checkout status until it is terminal or the
// attempt budget or deadline runs out. A session past its deadline still
// gets one status check.
func (r *Reconciler) poll(ctx context.Context, e *entry, session domain.CheckoutSession) error {
	logger := zap.L().With(
		zap.String("checkout_id", session.ExternalID),
		zap.Int64("transaction_id", session.TransactionID),
	)
	timer := time.NewTimer(session.NextPollAt.Sub(r.now()))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("reconciliation interrupted", zap.Int("attempts", session.Attempts))
			return nil
		case <-timer.C:
		}

		session.Attempts++
		status, err := r.gateway.GetStatus(ctx, session.ExternalID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				logger.Info("reconciliation interrupted", zap.Int("attempts", session.Attempts))
				return nil
			}
			logger.Warn("checkout status poll failed", zap.Int("attempt", session.Attempts), zap.Error(err))
		case status.Status == gateway.StatusSuccessful:
			return r.finalize(ctx, session, domain.Outcome{
				Status:      domain.StatusSuccessful,
				ExternalRef: status.TransactionCode,
			})
		case status.Status == gateway.StatusFailed:
			return r.finalize(ctx, session, domain.Outcome{
				Status: domain.StatusFailed,
				Reason: domain.ReasonGatewayFailed,
			})
		default:
			logger.Debug("checkout still pending", zap.Int("attempt", session.Attempts))
		}

		now := r.now()
		if session.Attempts >= r.maxAttempts || session.Expired(now) {
			logger.Warn("checkout not completed in time", zap.Int("attempts", session.Attempts), zap.Error(ErrTimeout))
			return r.finalize(ctx, session, domain.Outcome{
				Status: domain.StatusFailed,
				Reason: domain.ReasonTimeout,
			})
		}

		session.NextPollAt = now.Add(r.interval)
		e.mu.Lock()
		if ctx.Err() == nil {
			if err := r.sessions.Save(ctx, &session); err != nil {
				logger.Warn("failed to save checkout session", zap.Error(err))
			}
		}
		e.mu.Unlock()
		timer.Reset(r.interval)
	}
}

func (r *Reconciler) finalize(ctx context.Context, session domain.CheckoutSession, outcome domain.Outcome) error {
	tx, err := r.ledger.MarkTerminal(ctx, session.TransactionID, outcome)
	if errors.Is(err, ledgerservice.ErrAlreadyFinalized) {
		// Finalized elsewhere, e.g. by an admin cancel. Its hooks already ran.
		stored, getErr := r.ledger.GetTransaction(ctx, session.TransactionID)
		if getErr != nil {
			return getErr
		}
		r.resolve(ctx, session.ExternalID, stored.Status)
		return nil
	}
	if err != nil {
		return fmt.Errorf("finalize checkout %s: %w", session.ExternalID, err)
	}

	r.resolve(ctx, session.ExternalID, tx.Status)
	r.runHooks(ctx, tx)
	return nil
}

func (r *Reconciler) resolve(ctx context.Context, checkoutID string, status domain.Status) {
	if err := r.sessions.Resolve(ctx, checkoutID, status, r.now()); err != nil {
		zap.L().Warn("failed to resolve checkout session", zap.String("checkout_id", checkoutID), zap.Error(err))
	}
}

func (r *Reconciler) runHooks(ctx context.Context, tx *domain.Transaction) {
	r.mu.RLock()
	hooks := make([]FinalizedHook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.RUnlock()

	for _, hook := range hooks {
		if err := hook(ctx, tx); err != nil {
			zap.L().Error("finalization hook failed", zap.Int64("transaction_id", tx.ID), zap.Error(err))
		}
	}
}

// Start resumes interrupted reconciliations and keeps sweeping for
// checkouts nobody polls until ctx is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	context.AfterFunc(ctx, r.stop)

	r.wg.Add(1)
	go r.run()
	zap.L().Info("Checkout reconciler started")
}

func (r *Reconciler) run() {
	defer r.wg.Done()
	if err := r.sweep(r.baseCtx); err != nil {
		zap.L().Error("failed to resume checkouts", zap.Error(err))
	}

	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.baseCtx.Done():
			zap.L().Info("Context canceled, stopping reconciler")
			return
		case <-ticker.C:
			if err := r.sweep(r.baseCtx); err != nil {
				zap.L().Error("checkout sweep failed", zap.Error(err))
			}
		}
	}
}

// sweep schedules every active session and every pending card transaction
// that is not being polled. Missing sessions are rebuilt from the ledger.
func (r *Reconciler) sweep(ctx context.Context) error {
	sessions, err := r.sessions.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active sessions: %w", err)
	}
	pending, err := r.ledger.ListPendingCheckouts(ctx)
	if err != nil {
		return fmt.Errorf("list pending checkouts: %w", err)
	}

	known := make(map[string]struct{}, len(sessions))
	for _, session := range sessions {
		known[session.ExternalID] = struct{}{}
	}
	for _, tx := range pending {
		if tx.CheckoutID == nil {
			continue
		}
		if _, ok := known[*tx.CheckoutID]; ok {
			continue
		}
		session := domain.CheckoutSession{
			ExternalID:    *tx.CheckoutID,
			TransactionID: tx.ID,
			Reference:     tx.Reference,
			Amount:        tx.Amount,
			CreatedAt:     tx.CreatedAt,
			Deadline:      tx.CreatedAt.Add(r.timeout),
			NextPollAt:    r.now(),
		}
		if err := r.sessions.Save(ctx, &session); err != nil {
			zap.L().Warn("failed to save rebuilt session", zap.String("checkout_id", session.ExternalID), zap.Error(err))
		}
		zap.L().Info("checkout session rebuilt", zap.String("checkout_id", session.ExternalID))
		known[session.ExternalID] = struct{}{}
		sessions = append(sessions, session)
	}

	var g errgroup.Group
	for _, session := range sessions {
		if _, running := r.registry.Load(session.ExternalID); running {
			continue
		}
		session := session
		g.Go(func() error {
			return r.track(ctx, session)
		})
	}
	return g.Wait()
}

// Stop cancels every poll loop and waits for them to return.
func (r *Reconciler) Stop() {
	r.stop()
	r.wg.Wait()
	r.pool.Close()
	zap.L().Info("Checkout reconciler stopped")
}

// Cancel stops polling a checkout and marks its transaction cancelled.
func (r *Reconciler) Cancel(ctx context.Context, checkoutID string) (*domain.Transaction, error) {
	session, err := r.sessions.Get(ctx, checkoutID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrCheckoutNotFound
	}
	if v, ok := r.registry.LoadAndDelete(checkoutID); ok {
		v.(*entry).stop()
	}

	tx, err := r.ledger.MarkTerminal(ctx, session.TransactionID, domain.Outcome{
		Status: domain.StatusCancelled,
		Reason: domain.ReasonCancelled,
	})
	if err != nil {
		return nil, err
	}
	r.resolve(ctx, checkoutID, tx.Status)
	r.runHooks(ctx, tx)
	zap.L().Info("checkout cancelled", zap.String("checkout_id", checkoutID), zap.Int64("transaction_id", tx.ID))
	return tx, nil
}

// InFlight lists the checkout ids currently being polled.
func (r *Reconciler) InFlight() []string {
	var ids []string
	r.registry.Range(func(key, _ any) bool {
		ids = append(ids, key.(string))
		return true
	})
	sort.Strings(ids)
	return ids
}

func (r *Reconciler) Checkouts(ctx context.Context) ([]CheckoutState, error) {
	sessions, err := r.sessions.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	states := make([]CheckoutState, 0, len(sessions))
	for _, session := range sessions {
		_, polling := r.registry.Load(session.ExternalID)
		states = append(states, CheckoutState{CheckoutSession: session, Polling: polling})
	}
	return states, nil
}

func (r *Reconciler) PairReader(ctx context.Context, pairingCode, name string) (*gateway.Reader, error) {
	return r.gateway.PairReader(ctx, pairingCode, name)
}

func (r *Reconciler) ReaderStatus(ctx context.Context) (*gateway.ReaderStatus, error) {
	return r.gateway.ReaderStatus(ctx)
}

func (r *Reconciler) ListReaders(ctx context.Context) ([]gateway.Reader, error) {
	return r.gateway.ListReaders(ctx)
}
