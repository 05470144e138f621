package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/GlebRadaev/clubledger/docs"
	adminhandlers "github.com/GlebRadaev/clubledger/internal/handlers/admin"
	checkouthandlers "github.com/GlebRadaev/clubledger/internal/handlers/checkout"
	guesthandlers "github.com/GlebRadaev/clubledger/internal/handlers/guests"
	ledgerhandlers "github.com/GlebRadaev/clubledger/internal/handlers/ledger"
	"github.com/GlebRadaev/clubledger/internal/service"
	"github.com/GlebRadaev/clubledger/pkg/auth"
)

type LedgerHandler interface {
	GetBalance(w http.ResponseWriter, r *http.Request)
	GetTransactions(w http.ResponseWriter, r *http.Request)
	GetTransaction(w http.ResponseWriter, r *http.Request)
	Purchase(w http.ResponseWriter, r *http.Request)
}

type CheckoutHandler interface {
	TopUp(w http.ResponseWriter, r *http.Request)
}

type GuestHandler interface {
	OpenTab(w http.ResponseWriter, r *http.Request)
	GetTab(w http.ResponseWriter, r *http.Request)
	AddItem(w http.ResponseWriter, r *http.Request)
	CloseTab(w http.ResponseWriter, r *http.Request)
}

type AdminHandler interface {
	OpenAccount(w http.ResponseWriter, r *http.Request)
	GetAccount(w http.ResponseWriter, r *http.Request)
	UpdateAccount(w http.ResponseWriter, r *http.Request)
	GetAccountTransactions(w http.ResponseWriter, r *http.Request)
	Adjust(w http.ResponseWriter, r *http.Request)
	GetCheckouts(w http.ResponseWriter, r *http.Request)
	CancelCheckout(w http.ResponseWriter, r *http.Request)
	PairReader(w http.ResponseWriter, r *http.Request)
	GetReader(w http.ResponseWriter, r *http.Request)
	GetReaders(w http.ResponseWriter, r *http.Request)
}

type Handlers struct {
	LedgerHandler   LedgerHandler
	CheckoutHandler CheckoutHandler
	GuestHandler    GuestHandler
	AdminHandler    AdminHandler

	jwtService  auth.JWTServiceInterface
	corsOrigins []string
}

func New(s *service.Services, jwtService auth.JWTServiceInterface, corsOrigins []string) *Handlers {
	return &Handlers{
		LedgerHandler:   ledgerhandlers.New(s.LedgerService),
		CheckoutHandler: checkouthandlers.New(s.Reconciler),
		GuestHandler:    guesthandlers.New(s.TabService, s.Reconciler),
		AdminHandler:    adminhandlers.New(s.LedgerService, s.Reconciler),
		jwtService:      jwtService,
		corsOrigins:     corsOrigins,
	}
}

func (h *Handlers) InitRoutes(r chi.Router) chi.Router {
	r.Use(
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		cors.Handler(cors.Options{
			AllowedOrigins:   h.corsOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
	)
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("doc.json"),
	))
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.Middleware(h.jwtService))

		r.Get("/balance", h.LedgerHandler.GetBalance)
		r.Route("/transactions", func(r chi.Router) {
			r.Get("/", h.LedgerHandler.GetTransactions)
			r.Get("/{id}", h.LedgerHandler.GetTransaction)
		})
		r.Post("/purchases", h.LedgerHandler.Purchase)
		r.Post("/topups", h.CheckoutHandler.TopUp)

		r.Route("/guests", func(r chi.Router) {
			r.Post("/", h.GuestHandler.OpenTab)
			r.Get("/{id}", h.GuestHandler.GetTab)
			r.Post("/{id}/items", h.GuestHandler.AddItem)
			r.Post("/{id}/close", h.GuestHandler.CloseTab)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", h.AdminHandler.OpenAccount)
				r.Get("/{id}", h.AdminHandler.GetAccount)
				r.Patch("/{id}", h.AdminHandler.UpdateAccount)
				r.Get("/{id}/transactions", h.AdminHandler.GetAccountTransactions)
				r.Post("/{id}/adjust", h.AdminHandler.Adjust)
			})
			r.Route("/checkouts", func(r chi.Router) {
				r.Get("/", h.AdminHandler.GetCheckouts)
				r.Delete("/{id}", h.AdminHandler.CancelCheckout)
			})
			r.Post("/reader/pair", h.AdminHandler.PairReader)
			r.Get("/reader", h.AdminHandler.GetReader)
			r.Get("/readers", h.AdminHandler.GetReaders)
		})
	})

	return r
}
