package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/talentboard/authcore/internal/auth/blacklist"
	"github.com/talentboard/authcore/internal/auth/service"
	"github.com/talentboard/authcore/internal/auth/store"
	"github.com/talentboard/authcore/internal/auth/store/drivers/sqlite"
	"github.com/talentboard/authcore/pkg/jwtx"
	"github.com/talentboard/authcore/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application wires the token subsystem together: store, signing keys,
// revocation list, services and the housekeeping worker. Transport is the
// embedding caller's concern; the core is exposed through Auth().
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	redisClient *redis.Client

	blacklist           blacklist.List
	authService         *service.AuthService
	rotationService     *service.RotationService
	housekeepingService *service.HousekeepingService
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "authcore",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, verifier, err := initKeys(cfg)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}

	if err := app.initBlacklist(); err != nil {
		_ = app.db.Close()
		return nil, err
	}

	app.initServices(signer, verifier)
	return app, nil
}

// Auth exposes the service facade to the embedding transport layer.
func (app *Application) Auth() *service.AuthService { return app.authService }

// Run starts the background workers and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("authcore started",
		"version", BuildVersion,
		"algorithm", app.cfg.Algorithm,
		"blacklist_backend", app.cfg.BlacklistBackend,
	)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	sig := <-shutdown
	app.logger.Info("shutdown signal received", "signal", sig)

	return app.Shutdown()
}

// Shutdown stops the workers and closes external connections.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down authcore...")

	app.housekeepingService.Stop()

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("error closing redis client", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("authcore stopped")
	return nil
}

// initDatabase opens the sqlite store and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initBlacklist picks the revocation list backend. The memory backend is
// process-local; multi-instance deployments must configure redis or use
// sticky routing.
func (app *Application) initBlacklist() error {
	switch app.cfg.BlacklistBackend {
	case "", "memory":
		app.blacklist = blacklist.NewMemory(app.cfg.BlacklistRetention)
		return nil

	case "redis":
		if app.cfg.RedisAddr == "" {
			return fmt.Errorf("AUTHCORE_REDIS_ADDR is required for the redis blacklist backend")
		}
		app.redisClient = redis.NewClient(&redis.Options{Addr: app.cfg.RedisAddr})
		app.blacklist = blacklist.NewRedis(app.redisClient, app.cfg.BlacklistRetention)
		return nil

	default:
		return fmt.Errorf("unsupported blacklist backend %q", app.cfg.BlacklistBackend)
	}
}

// initServices initializes the token services and the housekeeping worker.
func (app *Application) initServices(signer jwtx.Signer, verifier jwtx.Verifier) {
	audit := &service.AuditRecorder{
		Sink:   app.db.AuditEvents(),
		Logger: app.logger,
	}

	codec := &service.AccessTokenCodec{
		Signer:      signer,
		Verifier:    verifier,
		Issuer:      app.cfg.Issuer,
		AccessTTL:   app.cfg.AccessTTL,
		ElevatedTTL: app.cfg.ElevatedAccessTTL,
	}

	app.rotationService = &service.RotationService{
		Store:            app.db,
		Audit:            audit,
		RefreshTTL:       app.cfg.RefreshTTL,
		ExpiredRetention: app.cfg.ExpiredRetention,
	}

	limiter := service.NewLimiter(app.cfg.RefreshRatePerMinute, app.cfg.RefreshRatePerMinute)

	app.authService = &service.AuthService{
		Store:     app.db,
		Codec:     codec,
		Rotation:  app.rotationService,
		Blacklist: app.blacklist,
		Audit:     audit,
		Logger:    app.logger,
		Limiter:   limiter,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.blacklist,
		app.rotationService,
		limiter,
		app.logger,
		app.cfg.SweepInterval,
		app.cfg.PurgeInterval,
	)
}
