package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/GlebRadaev/clubledger/internal/config"
	"github.com/GlebRadaev/clubledger/internal/gateway"
	"github.com/GlebRadaev/clubledger/internal/handlers"
	"github.com/GlebRadaev/clubledger/internal/pg"
	"github.com/GlebRadaev/clubledger/internal/repo"
	"github.com/GlebRadaev/clubledger/internal/service"
	"github.com/GlebRadaev/clubledger/pkg/auth"
	"github.com/GlebRadaev/clubledger/pkg/clients"
	"github.com/GlebRadaev/clubledger/pkg/logger"
)

type ApplicationI interface {
	Start(ctx context.Context) error
	Wait(ctx context.Context, cancel context.CancelFunc) error
}

type Application struct {
	cfg  *config.Config
	api  *handlers.Handlers
	srv  *service.Services
	repo *repo.Repositories

	closers []func()

	errCh chan error
	wg    sync.WaitGroup
	ready bool
}

func New() *Application {
	return &Application{
		errCh: make(chan error),
	}
}

func (a *Application) Start(ctx context.Context) error {
	cfg, err := config.New()
	if err != nil {
		return fmt.Errorf("can't load config: %w", err)
	}

	err = logger.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("can't init logger: %w", err)
	}

	repos, err := a.buildRepositories(ctx, cfg)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.repo = repos
	a.srv = service.New(cfg, a.repo, gateway.New(cfg.Checkout, clients.NewHTTPClient(cfg.Checkout.RequestTimeout())))
	a.api = handlers.New(a.srv, auth.NewJWTService(cfg.JWTSecret), cfg.CORSOrigins)

	if err = a.startHTTPServer(ctx); err != nil {
		return fmt.Errorf("can't start http server: %w", err)
	}

	a.startReconciler(ctx)

	a.ready = true
	zap.L().Info("all systems started successfully")
	return nil
}

// buildRepositories picks postgres when a DSN is configured and the
// in-memory store otherwise. Checkout sessions go to redis when an
// address is set.
func (a *Application) buildRepositories(ctx context.Context, cfg *config.Config) (*repo.Repositories, error) {
	if cfg.Database == "" {
		zap.L().Warn("DATABASE_URI is empty, using in-memory storage")
		return repo.NewMemory(), nil
	}

	pool, err := getPgxpool(ctx, cfg)
	if err != nil {
		zap.L().Error("build pgx pool failed: ", zap.Error(err))
		return nil, fmt.Errorf("can't build pgx pool: %w", err)
	}
	a.closers = append(a.closers, pool.Close)

	if err := pg.RunMigrations(ctx, pool); err != nil {
		zap.L().Error("migrations failed: ", zap.Error(err))
		return nil, fmt.Errorf("can't run migrations: %w", err)
	}
	txManager := pg.NewTXManager(pool)

	var sessions redis.Cmdable
	if cfg.RedisAddress != "" {
		client, err := getRedisClient(ctx, cfg)
		if err != nil {
			zap.L().Error("connect redis failed: ", zap.Error(err))
			return nil, fmt.Errorf("can't connect redis: %w", err)
		}
		a.closers = append(a.closers, func() { _ = client.Close() })
		sessions = client
	}

	return repo.New(pg.New(pool), txManager, sessions), nil
}

func getPgxpool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	cfgpool, err := pgxpool.ParseConfig(cfg.Database)
	if err != nil {
		return nil, err
	}
	dbpool, err := pgxpool.NewWithConfig(ctx, cfgpool)
	if err != nil {
		return nil, err
	}
	if err = dbpool.Ping(ctx); err != nil {
		dbpool.Close()
		return nil, err
	}
	return dbpool, nil
}

func getRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

func (a *Application) startHTTPServer(ctx context.Context) error {
	router := chi.NewRouter()
	a.api.InitRoutes(router)
	server := http.Server{
		Addr:              a.cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()

		sCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(sCtx); err != nil {
			zap.L().Error("http server shutdown failed", zap.Error(err))
		}
	}()

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		zap.L().Info("starting http server on port", zap.String("port", a.cfg.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.errCh <- fmt.Errorf("http server exited with error: %w", err)
		}
	}()

	return nil
}

// startReconciler resumes unresolved checkouts and keeps sweeping until ctx
// is done. Polling tasks stop with it; their sessions stay resumable.
func (a *Application) startReconciler(ctx context.Context) {
	a.srv.Reconciler.Start(ctx)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		<-ctx.Done()
		a.srv.Reconciler.Stop()
	}()
}

func (a *Application) Wait(ctx context.Context, cancel context.CancelFunc) error {
	var appErr error

	var wg sync.WaitGroup
	wg.Add(1)

	go func() {
		defer wg.Done()

		for err := range a.errCh {
			cancel()
			zap.L().Error(err.Error())
			appErr = err
		}
	}()

	<-ctx.Done()
	a.wg.Wait()
	close(a.errCh)
	wg.Wait()

	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}

	return appErr
}
