package guests

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/GlebRadaev/clubledger/internal/domain"
	"github.com/GlebRadaev/clubledger/internal/dto"
	"github.com/GlebRadaev/clubledger/internal/handlers/apierr"
	"github.com/GlebRadaev/clubledger/internal/handlers/checkout"
	"github.com/GlebRadaev/clubledger/pkg/auth"
	"github.com/GlebRadaev/clubledger/pkg/utils"
	"github.com/GlebRadaev/clubledger/pkg/validate"
)

type Service interface {
	OpenTab(ctx context.Context, name string) (*domain.Guest, error)
	GetTab(ctx context.Context, guestID int) (*domain.Guest, []domain.GuestTabItem, error)
	AddItem(ctx context.Context, guestID, productID, quantity int, unitPrice decimal.Decimal) (*domain.GuestTabItem, error)
	CloseTab(ctx context.Context, guestID int, method domain.PaymentMethod, actor domain.Actor) (*domain.Transaction, error)
}

type GuestHandler struct {
	tabService Service
	sessions   checkout.Sessions
}

func New(tabService Service, sessions checkout.Sessions) *GuestHandler {
	return &GuestHandler{
		tabService: tabService,
		sessions:   sessions,
	}
}

func guestID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id > 0
}

// OpenTab godoc
//
//	@Summary		Open a guest tab
//	@Tags			Guests
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		dto.OpenTabRequestDTO	true	"Guest"
//	@Success		201		{object}	dto.GuestResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/guests [post]
func (h *GuestHandler) OpenTab(w http.ResponseWriter, r *http.Request) {
	var req dto.OpenTabRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	guest, err := h.tabService.OpenTab(r.Context(), req.Name)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewGuestResponse(guest, nil))
}

// GetTab godoc
//
//	@Summary		Get a guest tab with its items
//	@Tags			Guests
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		int	true	"Guest ID"
//	@Success		200	{object}	dto.GuestResponseDTO
//	@Failure		400	{object}	utils.Response	"Invalid guest id"
//	@Failure		401	{object}	utils.Response	"User not authorized"
//	@Failure		404	{object}	utils.Response	"Guest not found"
//	@Failure		500	{object}	utils.Response	"Internal server error"
//	@Router			/api/guests/{id} [get]
func (h *GuestHandler) GetTab(w http.ResponseWriter, r *http.Request) {
	id, ok := guestID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid guest id")
		return
	}

	guest, items, err := h.tabService.GetTab(r.Context(), id)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dto.NewGuestResponse(guest, items))
}

// AddItem godoc
//
//	@Summary		Add an item to a guest tab
//	@Tags			Guests
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Guest ID"
//	@Param			request	body		dto.AddItemRequestDTO	true	"Item"
//	@Success		201		{object}	dto.TabItemDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		404		{object}	utils.Response	"Guest not found"
//	@Failure		409		{object}	utils.Response	"Tab closed or settlement pending"
//	@Failure		422		{object}	utils.Response	"Validation failed"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/guests/{id}/items [post]
func (h *GuestHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	id, ok := guestID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid guest id")
		return
	}

	var req dto.AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	item, err := h.tabService.AddItem(r.Context(), id, req.ProductID, req.Quantity, req.UnitPrice)
	if err != nil {
		apierr.Respond(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, dto.NewTabItem(item))
}

// CloseTab godoc
//
//	@Summary		Close a guest tab
//	@Description	Cash settles the tab at once (201). Card methods start a checkout and answer 202 with the pending transaction; the items are marked paid when the checkout succeeds.
//	@Tags			Guests
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int						true	"Guest ID"
//	@Param			request	body		dto.CloseTabRequestDTO	true	"Payment method"
//	@Success		201		{object}	dto.CheckoutResponseDTO
//	@Success		202		{object}	dto.CheckoutResponseDTO
//	@Failure		400		{object}	utils.Response	"Invalid request body"
//	@Failure		401		{object}	utils.Response	"User not authorized"
//	@Failure		404		{object}	utils.Response	"Guest not found"
//	@Failure		409		{object}	utils.Response	"Tab closed or settlement pending"
//	@Failure		422		{object}	utils.Response	"No open items or invalid method"
//	@Failure		502		{object}	utils.Response	"Checkout gateway unavailable"
//	@Failure		500		{object}	utils.Response	"Internal server error"
//	@Router			/api/guests/{id}/close [post]
func (h *GuestHandler) CloseTab(w http.ResponseWriter, r *http.Request) {
	id, ok := guestID(r)
	if !ok {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid guest id")
		return
	}

	var req dto.CloseTabRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		utils.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tx, err := h.tabService.CloseTab(r.Context(), id, domain.PaymentMethod(req.Method), auth.ActorFromContext(r.Context()))
	if err != nil {
		apierr.Respond(w, err)
		return
	}

	code := http.StatusCreated
	if tx.Status == domain.StatusPending {
		code = http.StatusAccepted
	}
	utils.RespondWithJSON(w, code, checkout.Response(r.Context(), h.sessions, tx))
}
