package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/abrezinsky/prizewheel/internal/auth"
	"github.com/abrezinsky/prizewheel/internal/config"
	"github.com/abrezinsky/prizewheel/internal/handlers"
	"github.com/abrezinsky/prizewheel/internal/logger"
	"github.com/abrezinsky/prizewheel/internal/repository"
	"github.com/abrezinsky/prizewheel/internal/services"
	"github.com/abrezinsky/prizewheel/internal/websocket"
)

const redisPingTimeout = 5 * time.Second

// App holds all application dependencies
type App struct {
	log      logger.Logger
	cfg      *config.Config
	handlers *handlers.Handlers
	repo     *repository.Repository
	hub      *websocket.Hub
	redis    *redis.Client
	stopHub  context.CancelFunc
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg *config.Config) (*App, error) {
	repo, err := repository.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Initialize services
	spinService := services.NewSpinService(log, repo)
	spinService.SetWindow(cfg.Spin.Window)
	redemptionService := services.NewRedemptionService(log, repo)
	tenantService := services.NewTenantService(log, repo, cfg.Auth.OwnerEmail)
	projectService := services.NewProjectService(log, repo)
	prizeService := services.NewPrizeService(log, repo)
	statsService := services.NewStatsService(log, repo)

	if err := spinService.SetPhoneRegion(cfg.Contact.PhoneRegion); err != nil {
		repo.Close()
		return nil, err
	}
	if err := redemptionService.SetPhoneRegion(cfg.Contact.PhoneRegion); err != nil {
		repo.Close()
		return nil, err
	}

	// Live feed hub runs until Close
	ctx, cancel := context.WithCancel(context.Background())
	hub := websocket.New(log)
	hub.Start(ctx)
	spinService.SetBroadcaster(hub)

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = auth.GenerateSecret()
		log.Warn("No JWT secret configured, generated one; tokens will not survive a restart")
	}
	tenantAuth := auth.New(secret, cfg.Auth.TokenTTL)

	h := handlers.New(
		spinService,
		redemptionService,
		tenantService,
		projectService,
		prizeService,
		statsService,
		tenantAuth,
		hub,
		log,
	)

	a := &App{
		log:      log,
		cfg:      cfg,
		handlers: h,
		repo:     repo,
		hub:      hub,
		stopHub:  cancel,
	}

	if err := a.setupRateLimit(); err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Log.HTTP {
		log.EnableHTTPLogging()
	}

	return a, nil
}

// setupRateLimit installs IP limiting on public routes, backed by redis
// when an address is configured
func (a *App) setupRateLimit() error {
	rl := a.cfg.RateLimit
	if rl.Public == "" {
		a.log.Info("Public rate limiting disabled")
		return nil
	}

	limitCfg := handlers.RateLimitConfig{Rate: rl.Public}
	if rl.RedisAddr != "" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     rl.RedisAddr,
			Password: rl.RedisPassword,
			DB:       rl.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		defer cancel()
		if err := a.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis at %s: %w", rl.RedisAddr, err)
		}
		limitCfg.Redis = a.redis
	}

	mw, err := handlers.NewRateLimiter(limitCfg, a.log)
	if err != nil {
		return fmt.Errorf("failed to set up rate limiting: %w", err)
	}
	a.handlers.SetPublicRateLimit(mw)

	store := "memory"
	if limitCfg.Redis != nil {
		store = "redis"
	}
	a.log.Info("Public rate limiting enabled", "rate", rl.Public, "store", store)
	return nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Close performs graceful shutdown of app resources
func (a *App) Close() {
	if a.stopHub != nil {
		a.stopHub()
		a.stopHub = nil
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close redis client", "error", err)
		}
		a.redis = nil
	}
	if a.repo != nil {
		if err := a.repo.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
		a.repo = nil
	}
}

// Run listens on the configured port and serves until ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.cfg.Server.Addr())
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve serves HTTP on ln until ctx is cancelled, then shuts down
// gracefully within the configured timeout
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info("Server starting", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	a.log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return <-serverErr
}
