// Package apierr maps service errors onto HTTP responses.
package apierr

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/GlebRadaev/clubledger/internal/gateway"
	"github.com/GlebRadaev/clubledger/internal/reconciler"
	"github.com/GlebRadaev/clubledger/internal/service/ledgerservice"
	"github.com/GlebRadaev/clubledger/internal/service/tabservice"
	"github.com/GlebRadaev/clubledger/pkg/utils"
)

var statuses = []struct {
	err  error
	code int
}{
	{ledgerservice.ErrInsufficientFunds, http.StatusPaymentRequired},
	{ledgerservice.ErrAccountInactive, http.StatusForbidden},
	{ledgerservice.ErrAdminRequired, http.StatusForbidden},
	{ledgerservice.ErrAccountNotFound, http.StatusNotFound},
	{ledgerservice.ErrTransactionNotFound, http.StatusNotFound},
	{ledgerservice.ErrAccountExists, http.StatusConflict},
	{ledgerservice.ErrAlreadyFinalized, http.StatusConflict},
	{ledgerservice.ErrNotPending, http.StatusConflict},
	{ledgerservice.ErrInvalidAmount, http.StatusUnprocessableEntity},
	{ledgerservice.ErrInvalidPaymentMethod, http.StatusUnprocessableEntity},
	{ledgerservice.ErrInvalidOutcome, http.StatusUnprocessableEntity},
	{tabservice.ErrGuestNotFound, http.StatusNotFound},
	{tabservice.ErrGuestClosed, http.StatusConflict},
	{tabservice.ErrSettlementPending, http.StatusConflict},
	{tabservice.ErrNoOpenItems, http.StatusUnprocessableEntity},
	{tabservice.ErrInvalidQuantity, http.StatusUnprocessableEntity},
	{tabservice.ErrInvalidName, http.StatusUnprocessableEntity},
	{reconciler.ErrCheckoutNotFound, http.StatusNotFound},
	{gateway.ErrGatewayRejected, http.StatusUnprocessableEntity},
	{gateway.ErrGatewayUnavailable, http.StatusBadGateway},
}

// Status returns the HTTP status for err, 500 when nothing matches.
func Status(err error) int {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.code
		}
	}
	return http.StatusInternalServerError
}

// Respond writes err as a JSON error body. Unknown errors are logged and
// hidden behind a generic message.
func Respond(w http.ResponseWriter, err error) {
	code := Status(err)
	if code == http.StatusInternalServerError {
		zap.L().Error("request failed", zap.Error(err))
		utils.RespondWithError(w, code, "Internal server error")
		return
	}
	utils.RespondWithError(w, code, err.Error())
}
