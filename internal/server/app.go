// Package server wires configuration, storage, services and the HTTP API
// into a runnable application and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/paperhub/internal/logging"
	"github.com/dmitrijs2005/paperhub/internal/server/auth"
	"github.com/dmitrijs2005/paperhub/internal/server/blobstore"
	"github.com/dmitrijs2005/paperhub/internal/server/config"
	"github.com/dmitrijs2005/paperhub/internal/server/httpapi"
	"github.com/dmitrijs2005/paperhub/internal/server/notify"
	"github.com/dmitrijs2005/paperhub/internal/server/ratelimit"
	"github.com/dmitrijs2005/paperhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/paperhub/internal/server/services"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const cleanupInterval = time.Hour

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	rdb    *redis.Client
	otp    *services.OTPManager
	http   *httpapi.Server
}

// NewApp opens the database, applies migrations and builds every service.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	if c.InsecureSecret() {
		logger.Warn(ctx, "secret_key is the development default, session tokens can be forged; set -s or secret_key")
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	blobs, err := newBlobStore(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	var (
		rdb      *redis.Client
		notifier notify.Notifier
	)
	if c.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		notifier = notify.NewRedisNotifier(rdb, c.OutboundTimeout)
	} else {
		logger.Warn(ctx, "redis_addr is empty, using local rate limiter and log notifier")
		notifier = notify.NewLogNotifier(logger)
	}
	limiter := ratelimit.New(c.RateLimitRequests, c.RateLimitWindow, rdb)

	otp := services.NewOTPManager(rm, c.OTPValidityDuration)
	authSvc, err := services.NewAuthService(rm,
		auth.NewBcryptHasher(bcrypt.DefaultCost),
		auth.NewTokenIssuer(c.SecretKey, c.AccessTokenValidityDuration),
		otp, notifier, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auth service init error: %w", err)
	}
	catalog := services.NewCatalog(rm, blobs, services.NewLedger(rm), logger)

	srv := httpapi.NewServer(logger, authSvc, catalog, httpapi.Options{
		Address:            c.EndpointAddrHTTP,
		RequestTimeout:     c.RequestTimeout,
		MaxUploadBytes:     c.MaxUploadBytes,
		CORSAllowedOrigins: c.CORSAllowedOrigins,
		Limiter:            limiter,
	})

	return &App{config: c, logger: logger, db: db, rdb: rdb, otp: otp, http: srv}, nil
}

// newBlobStore returns the S3 store, or an in-process store when no bucket
// is configured.
func newBlobStore(ctx context.Context, c *config.Config, logger logging.Logger) (blobstore.BlobStore, error) {
	if c.S3Bucket == "" {
		logger.Warn(ctx, "s3_bucket is empty, papers are kept in memory")
		return blobstore.NewMemoryStore(), nil
	}
	s3, err := blobstore.NewS3Store(ctx, c)
	if err != nil {
		return nil, err
	}
	return s3, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.http.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server stopped", "error", err)
		cancelFunc()
	}
}

// cleanupChallenges deletes expired reset codes now and then every interval.
func (app *App) cleanupChallenges(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		n, err := app.otp.Cleanup(ctx)
		if err != nil {
			app.logger.Error(ctx, "challenge cleanup failed", "error", err)
		} else if n > 0 {
			app.logger.Info(ctx, "expired challenges removed", "count", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Run blocks until a termination signal arrives or the HTTP server fails.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.cleanupChallenges(ctx, cleanupInterval)
	}()

	wg.Wait()

	if app.rdb != nil {
		if err := app.rdb.Close(); err != nil {
			app.logger.Error(ctx, "redis close failed", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
