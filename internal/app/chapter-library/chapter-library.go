package chapterlibrary

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/chapter-library/internal/cache"
	"github.com/magabrotheeeer/chapter-library/internal/catalog"
	"github.com/magabrotheeeer/chapter-library/internal/config"
	"github.com/magabrotheeeer/chapter-library/internal/http/handlers/health"
	"github.com/magabrotheeeer/chapter-library/internal/ledger"
	"github.com/magabrotheeeer/chapter-library/internal/lib/jwt"
	"github.com/magabrotheeeer/chapter-library/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/chapter-library/internal/lib/sl"
	"github.com/magabrotheeeer/chapter-library/internal/migrations"
	authservice "github.com/magabrotheeeer/chapter-library/internal/services/auth"
	"github.com/magabrotheeeer/chapter-library/internal/services/pending"
	"github.com/magabrotheeeer/chapter-library/internal/services/receipts"
	"github.com/magabrotheeeer/chapter-library/internal/services/settings"
	"github.com/magabrotheeeer/chapter-library/internal/services/userstore"
	"github.com/magabrotheeeer/chapter-library/internal/storage"
	"github.com/magabrotheeeer/chapter-library/internal/unlock"
)

// App HTTP-приложение библиотеки глав.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
	conn   *amqp.Connection
	ch     *amqp.Channel
}

// waitForDB ждёт, пока PostgreSQL начнёт принимать соединения. Таблицы
// появляются позже, после миграций.
func waitForDB(ctx context.Context, db *storage.Storage) error {
	for range 10 {
		err := db.DB.PingContext(ctx)
		if err == nil {
			return nil
		}
		time.Sleep(3 * time.Second)
	}
	return fmt.Errorf("database not ready after retries")
}

// New поднимает подключения и собирает сервисы.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = waitForDB(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	version, err := migrations.Run(db.DB, cfg.MigrationsPath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Info("migrations applied", slog.Uint64("version", uint64(version)))

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	authService := authservice.NewAuthService(db, jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL))
	users := userstore.New(db, cacheRedis, cfg.UserCacheTTL, logger)
	settingsProvider := settings.New(db, cfg.DefaultPdfCost, logger)
	catalogService := catalog.New(db, cacheRedis, cfg.CacheSize, cfg.CacheTTL, logger)
	unlockService := unlock.New(
		users,
		ledger.New(users, logger),
		pending.New(cacheRedis),
		logger,
		unlock.WithReceipts(receipts.New(ch)),
	)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg.HTTPServer, Services{
		Auth:     authService,
		Users:    users,
		Catalog:  catalogService,
		Settings: settingsProvider,
		Unlock:   unlockService,
		Health: []health.Check{
			{Name: "postgres", Probe: func(ctx context.Context) error { return storage.CheckDatabaseReady(ctx, db) }},
			{Name: "redis", Probe: func(ctx context.Context) error { return cacheRedis.Db.Ping(ctx).Err() }},
		},
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
		conn:   conn,
		ch:     ch,
	}, nil
}

// Run запускает HTTP-сервер и останавливает его по отмене ctx.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err = a.server.Shutdown(timeoutCtx)
	}

	a.close()
	return err
}

func (a *App) close() {
	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
