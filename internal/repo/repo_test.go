package repo

import (
	"testing"

	"github.com/GlebRadaev/clubledger/internal/pg"
	accountrepo "github.com/GlebRadaev/clubledger/internal/repo/account-repo"
	guestrepo "github.com/GlebRadaev/clubledger/internal/repo/guest-repo"
	"github.com/GlebRadaev/clubledger/internal/repo/memory"
	sessionrepo "github.com/GlebRadaev/clubledger/internal/repo/session-repo"
	transactionrepo "github.com/GlebRadaev/clubledger/internal/repo/transaction-repo"
	"github.com/go-redis/redismock/v8"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"
)

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()
	mockTxManager := pg.NewMockTXManager(ctrl)
	redisClient, _ := redismock.NewClientMock()

	repo := New(mockDB, mockTxManager, redisClient)

	assert.IsType(t, &accountrepo.Repository{}, repo.AccountRepo)
	assert.IsType(t, &transactionrepo.Repository{}, repo.TransactionRepo)
	assert.IsType(t, &guestrepo.Repository{}, repo.GuestRepo)
	assert.IsType(t, &sessionrepo.Repository{}, repo.SessionRepo)
	assert.Equal(t, mockTxManager, repo.TXManager)

	if err := mockDB.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unmet expectations: %v", err)
	}
}

func TestNew_WithoutRedis(t *testing.T) {
	mockDB, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := New(mockDB, pg.NewTXManager(mockDB), nil)

	assert.IsType(t, &memory.SessionStore{}, repo.SessionRepo)
}

func TestNewMemory(t *testing.T) {
	repo := NewMemory()

	assert.IsType(t, &memory.AccountStore{}, repo.AccountRepo)
	assert.IsType(t, &memory.TransactionStore{}, repo.TransactionRepo)
	assert.IsType(t, &memory.GuestStore{}, repo.GuestRepo)
	assert.IsType(t, &memory.SessionStore{}, repo.SessionRepo)
	assert.IsType(t, &memory.Store{}, repo.TXManager)
}
