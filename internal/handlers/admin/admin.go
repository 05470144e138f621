package admin

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/dto"
	"github.com/GlebRadaev/clubledger/internal/gateway"
	"github.com/GlebRadaev/clubledger/internal/handlers/apierr"
	"github.com/GlebRadaev/clubledger/internal/handlers/ledger"
	"github.com/GlebRadaev/clubledger/internal/reconciler"
	"github.com/GlebRadaev/clubledger/pkg/auth"
	"github.com/GlebRadaev/clubledger/pkg/utils"
	"github.com/GlebRadaev/clubledger/pkg/validate"
)

type LedgerService interface {
	OpenAccount(ctx context.Context, accountID int) (*domain.Account, error)
	SetAccountActive(ctx context.Context, accountID int, active bool) (*domain.Account, error)
	GetBalance(ctx context.Context, accountID int) (*domain.Account, error)
	ListTransactions(ctx context.Context, accountID int, limit int) ([]domain.Transaction, error)
	Apply(ctx context.Context, op domain.Operation) (*domain.Transaction, error)
}

type CheckoutService interface {
	Checkouts(ctx context.Context) ([]reconciler.CheckoutState, error)
	Cancel(ctx context.Context, checkoutID string) (*domain.Transaction, error)
	PairReader(ctx context.Context, pairingCode, name string) (*gateway.Reader, error)
	ReaderStatus(ctx context.Context) (*gateway.ReaderStatus, error)
	ListReaders(ctx context.Context) ([]gateway.Reader, error)
}

type AdminHandler struct {
	ledgerService   LedgerService
	checkoutService CheckoutService
}

func New(ledgerService LedgerService, checkoutService CheckoutService) *AdminHandler {
	return &AdminHandler{
		ledgerService:   ledgerService,
		checkoutService: checkoutService,
	}
}

func accountID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// OpenAccount godoc
//
//	@Summary		Open a member account
//	@Description	The account starts at zero with the configured overdraft floor.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.OpenAccountRequestDTO	true	"Account"
//	@Success		201		{object}	dto.BalanceResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		403		{object}	utils.Response	"Admin role required"
//	@Failure		409		{object}	utils.Response	"Account already exists"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/accounts [post]
func (h *AdminHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenAccountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	account, err := h.ledgerService.OpenAccount(r.Context(), req.AccountID)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewBalanceResponse(account))
}

// GetAccount godoc
//
//	@Summary		Get any member account
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Account ID"
//	@Success		200	{object}	dto.BalanceResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid account id"
//	@Failure		403	{object}	utils.Response	"Admin role required"
//	@Failure		404	{object}	utils.Response	"Account not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/accounts/{id} [get]
func (h *AdminHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	account, err := h.ledgerService.GetBalance(r.Context(), id)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBalanceResponse(account))
}

// UpdateAccount godoc
//
//	@Summary		Activate or deactivate an account
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int							true	"Account ID"
//	@Param			request	body		dto.UpdateAccountRequestDTO	true	"Active flag"
//	@Success		200		{object}	dto.BalanceResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		403		{object}	utils.Response	"Admin role required"
//	@Failure		404		{object}	utils.Response	"Account not found"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/accounts/{id} [patch]
func (h *AdminHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	var req dto.UpdateAccountRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	account, err := h.ledgerService.SetAccountActive(r.Context(), id, *req.Active)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBalanceResponse(account))
}

// GetAccountTransactions godoc
//
//	@Summary		List transactions of any account
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id		path		int	true	"Account ID"
//	@Param			limit	query		int	false	"Maximum number of transactions"
//	@Success		200		{array}		dto.TransactionResponseDTO
//	@Success		204		{object}	utils.Response	"No transactions"
//	@Failure		400		{object}	utils.Response	"Invalid account id or limit"
//	@Failure		403		{object}	utils.Response	"Admin role required"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/accounts/{id}/transactions [get]
func (h *AdminHandler) GetAccountTransactions(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}
	limit, err := ledger.ParseLimit(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	txs, err := h.ledgerService.ListTransactions(r.Context(), id, limit)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	if len(txs) == 0 {
		utils.RespondWithError(w, http.StatusNoContent, "Transactions not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionsResponse(txs))
}

// Adjust godoc
//
//	@Summary		Adjust an account balance
//	@Description	Signed correction recorded as an admin adjustment. Negative adjustments may not take the balance below its floor.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Account ID"
//	@Param			request	body		dto.AdjustRequestDTO	true	"Adjustment"
//	@Success		201		{object}	dto.TransactionResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		402		{object}	utils.Response	"Insufficient funds"
//	@Failure		403		{object}	utils.Response	"Admin role required or account inactive"
//	@Failure		404		{object}	utils.Response	"Account not found"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/accounts/{id}/adjust [post]
func (h *AdminHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	id, ok := accountID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid account id")
		return
	}

	var req dto.AdjustRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tx, err := h.ledgerService.Apply(r.Context(), domain.Operation{
		AccountID:   &id,
		Kind:        domain.KindAdminAdjustment,
		Amount:      req.Amount,
		Method:      domain.MethodCash,
		Description: req.Description,
		Actor:       auth.ActorFromContext(r.Context()),
	})
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewTransactionResponse(tx))
}

// GetCheckouts godoc
//
//	@Summary		List open card checkouts
//	@Description	Active checkout sessions and whether this instance is polling them.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		dto.CheckoutSessionDTO
//	@Failure		403	{object}	utils.Response	"Admin role required"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/checkouts [get]
func (h *AdminHandler) GetCheckouts(w http.ResponseWriter, r *http.Request) {
	states, err := h.checkoutService.Checkouts(r.Context())
	if err != nil {
		apierr.Respond(w, err)
		return
	}

	response := make([]dto.CheckoutSessionDTO, len(states))
	for i, state := range states {
		response[i] = dto.NewCheckoutSession(state.CheckoutSession, state.Polling)
	}
	utils.RespondWithJSON(w, http.StatusOK, response)
}

// CancelCheckout godoc
//
//	@Summary		Cancel a card checkout
//	@Description	Stops polling and marks the pending transaction cancelled.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string	true	"Checkout ID"
//	@Success		200	{object}	dto.TransactionResponseDTO
//	@Failure		403	{object}	utils.Response	"Admin role required"
//	@Failure		404	{object}	utils.Response	"Checkout not found"
//	@Failure		409	{object}	utils.Response	"Transaction already finalized"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/checkouts/{id} [delete]
func (h *AdminHandler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	tx, err := h.checkoutService.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(tx))
}

// PairReader godoc
//
//	@Summary		Pair a card reader
//	@Description	Pairs a terminal using the code it displays and makes it the reader for new checkouts.
//	@Tags			Admin
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.PairReaderRequestDTO	true	"Pairing"
//	@Success		201		{object}	gateway.Reader
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		403		{object}	utils.Response	"Admin role required"
//	@Failure		422		{object}	utils.Response	"Validation failed or pairing rejected"
//	@Failure		502		{object}	utils.Response	"Checkout gateway unavailable"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/reader/pair [post]
func (h *AdminHandler) PairReader(w http.ResponseWriter, r *http.Request) {
	var req dto.PairReaderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	reader, err := h.checkoutService.PairReader(r.Context(), req.PairingCode, req.Name)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, reader)
}

// GetReader godoc
//
//	@Summary		Get the paired reader status
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	gateway.ReaderStatus
//	@Failure		403	{object}	utils.Response	"Admin role required"
//	@Failure		502	{object}	utils.Response	"Checkout gateway unavailable"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/reader [get]
func (h *AdminHandler) GetReader(w http.ResponseWriter, r *http.Request) {
	status, err := h.checkoutService.ReaderStatus(r.Context())
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, status)
}

// GetReaders godoc
//
//	@Summary		List readers of the merchant account
//	@Tags			Admin
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{array}		gateway.Reader
//	@Failure		403	{object}	utils.Response	"Admin role required"
//	@Failure		502	{object}	utils.Response	"Checkout gateway unavailable"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/admin/readers [get]
func (h *AdminHandler) GetReaders(w http.ResponseWriter, r *http.Request) {
	readers, err := h.checkoutService.ListReaders(r.Context())
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, readers)
}
