// Package server initializes and runs the main application server.
// It opens the database, applies migrations, wires the auth core into the
// user service and runs the HTTP and gRPC transports until a signal
// arrives.
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

	"github.com/dmitrijs2005/vars/internal/logging"
	"github.com/dmitrijs2005/vars/internal/server/auth"
	"github.com/dmitrijs2005/vars/internal/server/config"
	"github.com/dmitrijs2005/vars/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/vars/internal/server/services"
	"github.com/dmitrijs2005/vars/internal/server/throttle"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/vars/internal/server/grpc"
	hs "github.com/dmitrijs2005/vars/internal/server/http"
)

const sweepInterval = time.Minute

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	redis       *redis.Client
	limiter     throttle.Limiter
	tokens      *auth.TokenCodec
	userService *services.UserService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm, err := repomanager.NewPostgresRepositoryManager(db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("repository manager init error: %w", err)
	}

	if c.RunMigrations {
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrations error: %w", err)
		}
	}

	app := &App{config: c, logger: logger, db: db}

	if err := app.initLimiter(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	app.tokens = auth.NewTokenCodec(c.SecretKey)
	hasher := auth.NewPasswordHasher(auth.DefaultHasherParams)
	app.userService, err = services.NewUserService(db, rm, hasher, app.tokens, app.limiter, logger.With("module", "user_service"))
	if err != nil {
		if app.redis != nil {
			_ = app.redis.Close()
		}
		_ = db.Close()
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	return app, nil
}

func (app *App) initLimiter(ctx context.Context) error {
	c := app.config

	switch {
	case c.MaxLoginAttempts == 0:
		app.limiter = throttle.Disabled{}
	case c.RedisURL != "":
		client, err := throttle.NewRedisClient(c.RedisURL)
		if err != nil {
			return err
		}
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return fmt.Errorf("redis init error: %w", err)
		}
		app.redis = client
		app.limiter = throttle.NewRedisLimiter(client, c.MaxLoginAttempts, c.LoginAttemptWindow)
	default:
		app.limiter = throttle.NewMemoryLimiter(c.MaxLoginAttempts, c.LoginAttemptWindow)
	}

	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if app.config.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := hs.NewRouter(hs.RouterConfig{
		Users:          app.userService,
		Tokens:         app.tokens,
		Logger:         app.logger.With("module", "http"),
		AllowedOrigins: app.config.CORSAllowedOrigins,
	})

	s := hs.NewServer(app.config.EndpointAddrHTTP, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.tokens)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) sweepLimiter(ctx context.Context) {
	m, ok := app.limiter.(*throttle.MemoryLimiter)
	if !ok {
		return
	}

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.sweepLimiter(ctx)
	}()

	wg.Wait()

	app.close(ctx)
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "redis close error", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
