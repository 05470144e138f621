package repo

import (
	"github.com/go-redis/redis/v8"

	"github.com/GlebRadaev/clubledger/internal/pg"
	"github.com/GlebRadaev/clubledger/internal/reconciler"
	accountrepo "github.com/GlebRadaev/clubledger/internal/repo/account-repo"
	guestrepo "github.com/GlebRadaev/clubledger/internal/repo/guest-repo"
	"github.com/GlebRadaev/clubledger/internal/repo/memory"
	sessionrepo "github.com/GlebRadaev/clubledger/internal/repo/session-repo"
	transactionrepo "github.com/GlebRadaev/clubledger/internal/repo/transaction-repo"
	"github.com/GlebRadaev/clubledger/internal/service/ledgerservice"
	"github.com/GlebRadaev/clubledger/internal/service/tabservice"
)

type Repositories struct {
	AccountRepo     ledgerservice.AccountRepo
	TransactionRepo ledgerservice.TransactionRepo
	GuestRepo       tabservice.GuestRepo
	SessionRepo     reconciler.SessionRepo
	TXManager       pg.TXManager
}

// New builds the Postgres repositories. Checkout sessions go to Redis when
// a client is given and stay in process otherwise.
func New(conn pg.Database, txManager pg.TXManager, redisClient redis.Cmdable) *Repositories {
	var sessions reconciler.SessionRepo
	if redisClient != nil {
		sessions = sessionrepo.New(redisClient)
	} else {
		sessions = memory.New().Sessions()
	}

	return &Repositories{
		AccountRepo:     accountrepo.New(conn),
		TransactionRepo: transactionrepo.New(conn),
		GuestRepo:       guestrepo.New(conn),
		SessionRepo:     sessions,
		TXManager:       txManager,
	}
}

// NewMemory keeps everything in process. Nothing survives a restart.
func NewMemory() *Repositories {
	store := memory.New()
	return &Repositories{
		AccountRepo:     store.Accounts(),
		TransactionRepo: store.Transactions(),
		GuestRepo:       store.Guests(),
		SessionRepo:     store.Sessions(),
		TXManager:       store,
	}
}
