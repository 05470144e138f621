package checkout

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/dto"
	"github.com/GlebRadaev/clubledger/internal/handlers/apierr"
	"github.com/GlebRadaev/clubledger/pkg/auth"
	"github.com/GlebRadaev/clubledger/pkg/utils"
	"github.com/GlebRadaev/clubledger/pkg/validate"
)

type Service interface {
	StartCheckout(ctx context.Context, op domain.Operation) (*domain.Transaction, error)
	Session(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error)
}

type Sessions interface {
	Session(ctx context.Context, checkoutID string) (*domain.CheckoutSession, error)
}

type CheckoutHandler struct {
	checkoutService Service
}

func New(checkoutService Service) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// TopUp godoc
//
//	@Summary		Top up the account by card
//	@Description	Creates a pending top-up and starts a card checkout on the paired terminal or as a payment link. The balance is credited once the checkout succeeds; poll the transaction to follow it.
//	@Tags			Checkout
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.TopUpRequestDTO	true	"Top-up"
//	@Success		202		{object}	dto.CheckoutResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		403		{object}	utils.Response	"Account inactive"
//	@Failure		404		{object}	utils.Response	"Account not found"
//	@Failure		422		{object}	utils.Response	"Validation failed or checkout rejected"
//	@Failure		502		{object}	utils.Response	"Checkout gateway unavailable"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/topups [post]
func (h *CheckoutHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	actor := auth.ActorFromContext(r.Context())

	var req dto.TopUpRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	method := domain.PaymentMethod(req.Method)
	if method == "" {
		method = domain.MethodCloudAPI
	}

	accountID := actor.UserID
	tx, err := h.checkoutService.StartCheckout(r.Context(), domain.Operation{
		AccountID:   &accountID,
		Kind:        domain.KindTopUp,
		Amount:      req.Amount,
		Method:      method,
		Description: "Account top-up",
		Actor:       actor,
	})
	if err != nil {
		apierr.Respond(w, err)
		return
	}

	utils.RespondWithJSON(w, http.StatusAccepted, Response(r.Context(), h.checkoutService, tx))
}

// Response wraps a pending transaction together with the payment link of
// its checkout, when there is one.
func Response(ctx context.Context, sessions Sessions, tx *domain.Transaction) dto.CheckoutResponseDTO {
	response := dto.CheckoutResponseDTO{Transaction: dto.NewTransactionResponse(tx)}
	if tx.CheckoutID == nil || tx.PaymentMethod != domain.MethodPaymentLink {
		return response
	}
	session, err := sessions.Session(ctx, *tx.CheckoutID)
	if err != nil {
		zap.L().Warn("payment link lookup failed", zap.String("checkout_id", *tx.CheckoutID), zap.Error(err))
		return response
	}
	response.PaymentURL = session.PaymentURL
	return response
}
