package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cashloop/backend/internal/config"
	"github.com/cashloop/backend/internal/handler"
	"github.com/cashloop/backend/internal/middleware"
	"github.com/cashloop/backend/internal/partner"
	"github.com/cashloop/backend/internal/repository"
	"github.com/cashloop/backend/internal/service"
)

func main() {
	// stdlib log until zap is installed; the global zap logger is a nop
	// before ReplaceGlobals and would swallow these
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := buildLogger(cfg.Server.Environment)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	zap.ReplaceGlobals(logger)
	defer logger.Sync()

	repo, err := repository.New(cfg.Database.DSN())
	if err != nil {
		zap.L().Fatal("Failed to connect to database", zap.Error(err))
	}
	defer repo.Close()

	// Services
	partnerClient := partner.NewClient(cfg.Partner)
	clickSvc := service.NewClickService(repo, partnerClient)
	matcher := service.NewMatcher(repo)
	ledgerSvc := service.NewLedgerService(repo, cfg.Rewards)
	postbackSvc := service.NewPostbackService(repo, matcher, ledgerSvc)
	userSvc := service.NewUserService(repo)
	claimSvc := service.NewClaimService(repo, ledgerSvc)
	adminSvc := service.NewAdminService(repo, ledgerSvc, config.ResyncBatchSize)

	h := handler.New(cfg, repo, repo, clickSvc, postbackSvc, userSvc, claimSvc, adminSvc)

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, X-API-Key",
	}))

	app.Get("/health", h.Health)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Partner-facing webhook: no auth, GET and POST, always 200.
	app.Get("/postback", h.Postback)
	app.Post("/postback", h.Postback)

	// Outbound redirect tracking
	app.Get("/api/track/:offer_id", h.Track)

	// Account intake and claim submission
	app.Post("/api/users", h.RegisterUser)
	app.Post("/api/claims", h.SubmitClaim)

	// Operator commands
	admin := app.Group("/api/admin", middleware.APIKeyAuth(cfg))
	admin.Delete("/conversions/:id", h.DeleteConversion)
	admin.Delete("/clicks/:click_id", h.DeleteClick)
	admin.Get("/clicks/:click_id", h.GetClick)
	admin.Post("/offers", h.CreateOffer)
	admin.Post("/resync", h.Resync)
	admin.Get("/conversions/unresolved", h.ListUnresolvedConversions)
	admin.Get("/users/:id/transactions", h.ListUserTransactions)
	admin.Post("/claims/:id/approve", h.ApproveClaim)
	admin.Post("/claims/:id/reject", h.RejectClaim)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resyncWorker := service.NewResyncWorker(adminSvc, config.ResyncInterval)
	go resyncWorker.Start(ctx)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		zap.L().Info("Shutting down server")
		cancel()
		_ = app.Shutdown()
	}()

	zap.L().Info("Server starting", zap.String("port", cfg.Server.Port))
	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		zap.L().Fatal("Failed to start server", zap.Error(err))
	}
}

func buildLogger(environment string) (*zap.Logger, error) {
	if environment == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
