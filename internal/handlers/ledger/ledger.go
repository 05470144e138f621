package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/dto"
	"github.com/GlebRadaev/clubledger/internal/handlers/apierr"
	"github.com/GlebRadaev/clubledger/pkg/auth"
	"github.com/GlebRadaev/clubledger/pkg/utils"
	"github.com/GlebRadaev/clubledger/pkg/validate"
)

var ErrInvalidLimit = errors.New("invalid limit")

type Service interface {
	GetBalance(ctx context.Context, accountID int) (*domain.Account, error)
	ListTransactions(ctx context.Context, accountID int, limit int) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, transactionID int64) (*domain.Transaction, error)
	Apply(ctx context.Context, op domain.Operation) (*domain.Transaction, error)
}

type LedgerHandler struct {
	ledgerService Service
}

func New(ledgerService Service) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
	}
}

// GetBalance godoc
//
//	@Summary		Get current account balance
//	@Description	Balance, overdraft floor and the amount still spendable for the authenticated member.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	dto.BalanceResponseDTO
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Account not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/balance [get]
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())

	account, err := h.ledgerService.GetBalance(r.Context(), actor.UserID)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewBalanceResponse(account))
}

// GetTransactions godoc
//
//	@Summary		List account transactions
//	@Description	Newest first. The limit defaults to 50 and is capped at 500.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Param			limit	query		int	false	"Maximum number of transactions"
//	@Success		200		{array}		dto.TransactionResponseDTO
//	@Success		204		{object}	utils.Response	"No transactions"
//	@Failure		400		{object}	utils.Response	"Invalid limit"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/transactions [get]
func (h *LedgerHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())

	limit, err := ParseLimit(r)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	txs, err := h.ledgerService.ListTransactions(r.Context(), actor.UserID, limit)
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

// ParseLimit reads the optional limit query parameter. Zero means the default.
func ParseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, ErrInvalidLimit
	}
	return limit, nil
}

// GetTransaction godoc
//
//	@Summary		Get a transaction
//	@Description	Members see their own transactions only. Clients poll this to follow a pending card payment.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Transaction ID"
//	@Success		200	{object}	dto.TransactionResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid transaction id"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Transaction not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/transactions/{id} [get]
func (h *LedgerHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	tx, err := h.ledgerService.GetTransaction(r.Context(), id)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	if !actor.Admin && (tx.AccountID == nil || *tx.AccountID != actor.UserID) {
		utils.RespondWithError(w, http.StatusNotFound, "transaction not found")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewTransactionResponse(tx))
}

// Purchase godoc
//
//	@Summary		Record a purchase
//	@Description	Charge the member account (payment_method balance) or record a cash sale against it.
//	@Tags			Ledger
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.PurchaseRequestDTO	true	"Purchase"
//	@Success		201		{object}	dto.TransactionResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		402		{object}	utils.Response	"Insufficient funds"
//	@Failure		403		{object}	utils.Response	"Account inactive"
//	@Failure		404		{object}	utils.Response	"Account not found"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/purchases [post]
func (h *LedgerHandler) Purchase(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())

	var req dto.PurchaseRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	accountID := actor.UserID
	tx, err := h.ledgerService.Apply(r.Context(), domain.Operation{
		AccountID:   &accountID,
		Kind:        domain.KindPurchase,
		Amount:      req.Amount,
		Method:      domain.PaymentMethod(req.Method),
		Description: req.Description,
		Actor:       actor,
	})
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewTransactionResponse(tx))
}
