package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/commerce-desk/internal/api/http"
	"github.com/spec-kit/commerce-desk/internal/api/http/handlers"
	"github.com/spec-kit/commerce-desk/internal/auth"
	"github.com/spec-kit/commerce-desk/internal/catalog"
	"github.com/spec-kit/commerce-desk/internal/config"
	"github.com/spec-kit/commerce-desk/internal/confirm"
	"github.com/spec-kit/commerce-desk/internal/cooldown"
	"github.com/spec-kit/commerce-desk/internal/events"
	"github.com/spec-kit/commerce-desk/internal/notify"
	"github.com/spec-kit/commerce-desk/internal/observability"
	"github.com/spec-kit/commerce-desk/internal/payments"
	"github.com/spec-kit/commerce-desk/internal/persistence"
	"github.com/spec-kit/commerce-desk/internal/repository"
	"github.com/spec-kit/commerce-desk/internal/service"
	"github.com/spec-kit/commerce-desk/internal/signedurl"
	"github.com/spec-kit/commerce-desk/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}

	provider, err := payments.NewStripeProvider(payments.StripeConfig{
		APIKey:        cfg.Stripe.SecretKey,
		WebhookSecret: cfg.Stripe.WebhookSecret,
		SuccessURL:    cfg.Stripe.SuccessURL,
		CancelURL:     cfg.Stripe.CancelURL,
		Logger:        logger,
	})
	if err != nil {
		logger.Fatal("failed to init payment provider", zap.Error(err))
	}

	gateway := notify.NewHTTPGateway(cfg.Notify.GatewayURL, cfg.Notify.Timeout(), logger)
	janitor := worker.NewChannelJanitor(gateway, logger)
	defer janitor.Shutdown()

	confirms := confirm.NewRedisStore(redis.Client, cfg.Tickets.ConfirmTTL())
	cooldowns := cooldown.NewRedisLimiter(redis.Client, cfg.Tickets.Cooldown())
	signer := signedurl.NewSigner(cfg.Downloads.Secret, cfg.Downloads.TTL())
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	assignmentRepo := repository.NewAssignmentRepository(pool)
	archiveRepo := repository.NewArchiveRepository(pool)
	quoteRepo := repository.NewQuoteRepository(pool)
	orderRepo := repository.NewOrderRepository(pool)
	licenseRepo := repository.NewLicenseRepository(pool)
	refundRepo := repository.NewRefundRepository(pool)
	auditRepo := repository.NewAuditLogRepository(pool)

	userSvc := service.NewUserService(userRepo, auditRepo, cfg.VIP)
	ticketSvc := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     ticketRepo,
		AssignmentRepo: assignmentRepo,
		ArchiveRepo:    archiveRepo,
		AuditRepo:      auditRepo,
		UserRepo:       userRepo,
		Catalog:        cat,
		Gateway:        gateway,
		Dispatcher:     dispatcher,
		Confirms:       confirms,
		Cooldowns:      cooldowns,
		Scheduler:      janitor,
		Config:         cfg.Tickets,
		Logger:         logger,
	})
	quoteSvc := service.NewQuoteService(service.QuoteDependencies{
		QuoteRepo:      quoteRepo,
		TicketRepo:     ticketRepo,
		OrderRepo:      orderRepo,
		UserRepo:       userRepo,
		AssignmentRepo: assignmentRepo,
		AuditRepo:      auditRepo,
		Catalog:        cat,
		Provider:       provider,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	orderSvc := service.NewOrderService(service.OrderDependencies{
		OrderRepo:      orderRepo,
		QuoteRepo:      quoteRepo,
		TicketRepo:     ticketRepo,
		LicenseRepo:    licenseRepo,
		UserRepo:       userRepo,
		AssignmentRepo: assignmentRepo,
		AuditRepo:      auditRepo,
		UserService:    userSvc,
		Catalog:        cat,
		Provider:       provider,
		Signer:         signer,
		Dispatcher:     dispatcher,
		Logger:         logger,
	})
	refundSvc := service.NewRefundService(service.RefundDependencies{
		RefundRepo: refundRepo,
		OrderRepo:  orderRepo,
		UserRepo:   userRepo,
		AuditRepo:  auditRepo,
		Provider:   provider,
		Confirms:   confirms,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	auditSvc := service.NewAuditService(auditRepo)

	notifier := service.NewNotificationService(gateway, cat, logger)
	notifier.Register(dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenMaxAgeMins)
	authMiddleware := auth.NewMiddleware(tokens, cfg.Auth.GatewayKeyHash)

	metrics := observability.NewMetrics()
	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:   handlers.NewTicketsHandler(ticketSvc),
		Quotes:    handlers.NewQuotesHandler(quoteSvc),
		Orders:    handlers.NewOrdersHandler(orderSvc),
		Webhook:   handlers.NewWebhookHandler(provider, orderSvc, logger),
		Refunds:   handlers.NewRefundsHandler(refundSvc),
		Users:     handlers.NewUsersHandler(userSvc),
		Downloads: handlers.NewDownloadsHandler(signer, cfg.Downloads.FilesDir, logger),
		Audit:     handlers.NewAuditHandler(auditSvc),
		Auth:      authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
