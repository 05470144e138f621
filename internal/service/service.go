package service

import (
	"github.com/GlebRadaev/clubledger/internal/config"
	"github.com/GlebRadaev/clubledger/internal/reconciler"
	"github.com/GlebRadaev/clubledger/internal/repo"
	"github.com/GlebRadaev/clubledger/internal/service/ledgerservice"
	"github.com/GlebRadaev/clubledger/internal/service/tabservice"
)

type Services struct {
	LedgerService *ledgerservice.Service
	TabService    *tabservice.Service
	Reconciler    *reconciler.Reconciler
}

func New(cfg *config.Config, repos *repo.Repositories, gw reconciler.Gateway) *Services {
	ledgerService := ledgerservice.New(repos.AccountRepo, repos.TransactionRepo, repos.TXManager, cfg.Ledger.OverdraftFloor)
	rec := reconciler.New(cfg.Checkout, ledgerService, gw, repos.SessionRepo)
	tabService := tabservice.New(repos.GuestRepo, ledgerService, rec, repos.TXManager)
	rec.OnFinalized(tabService.HandleSettlement)

	return &Services{
		LedgerService: ledgerService,
		TabService:    tabService,
		Reconciler:    rec,
	}
}
