package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/skillvault/vcreds-api/internal/auth"
	"github.com/skillvault/vcreds-api/internal/config"
	"github.com/skillvault/vcreds-api/internal/gateway"
	"github.com/skillvault/vcreds-api/internal/identity"
	"github.com/skillvault/vcreds-api/internal/ledger"
	"github.com/skillvault/vcreds-api/internal/middleware"
	"github.com/skillvault/vcreds-api/internal/notification"
	"github.com/skillvault/vcreds-api/internal/vcreds"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// main also checks this; kept here so tests wiring routes directly hit it.
	if !d.Cfg.Development() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	// Storage backends; in-memory in development when no database is configured.
	var (
		ledgerBackend ledger.Ledger
		store         vcreds.Store
		identityRepo  identity.Repository
	)
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
		store = vcreds.NewPostgresStore(d.DB)
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
		store = vcreds.NewMemoryStore(ledgerBackend)
		identityRepo = identity.NewMemoryRepository()
	}

	var gw gateway.Gateway = gateway.Static{}
	if d.Cfg.GatewayKeyID != "" {
		client, err := gateway.NewClient(gateway.Config{
			KeyID:     d.Cfg.GatewayKeyID,
			KeySecret: d.Cfg.GatewayKeySecret,
			BaseURL:   d.Cfg.GatewayBaseURL,
		})
		if err != nil {
			return err
		}
		gw = client
	}

	notifier := notification.NewLoggerNotifier(d.Logger)
	issuer := auth.NewIssuer(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL)

	identitySvc := identity.NewService(identityRepo, ledgerBackend)
	identityHandler := identity.NewHandler(identitySvc, issuer)
	vcredsSvc := vcreds.NewService(ledgerBackend, store, gw, vcreds.DefaultPricing(), d.Cfg.GatewayKeySecret, notifier)
	vcredsHandler := vcreds.NewHandler(vcredsSvc)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	api.Post("/identity/register", identityHandler.Register)
	api.Post("/auth/login", middleware.LoginRateLimit(d.Cache, 5), identityHandler.Login)

	// Protected routes
	protected := api.Group("", middleware.JWTAuth(issuer))
	RegisterVCredsRoutes(protected, vcredsHandler)

	return nil
}
