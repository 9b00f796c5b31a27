package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"go.uber.org/zap"

	httptransport "github.com/campus-it/helpdesk/internal/api/http"
	"github.com/campus-it/helpdesk/internal/api/http/handlers"
	"github.com/campus-it/helpdesk/internal/auth"
	"github.com/campus-it/helpdesk/internal/config"
	"github.com/campus-it/helpdesk/internal/events"
	"github.com/campus-it/helpdesk/internal/mail"
	"github.com/campus-it/helpdesk/internal/observability"
	"github.com/campus-it/helpdesk/internal/persistence"
	"github.com/campus-it/helpdesk/internal/ratelimit"
	"github.com/campus-it/helpdesk/internal/repository"
	"github.com/campus-it/helpdesk/internal/repository/memory"
	"github.com/campus-it/helpdesk/internal/service"
	"github.com/campus-it/helpdesk/internal/storage"
	"github.com/campus-it/helpdesk/internal/worker"
)

// repositories groups the storage backends the services share.
type repositories struct {
	tickets        repository.TicketRepository
	sequences      repository.TicketSequenceRepository
	messages       repository.TicketMessageRepository
	attachments    repository.AttachmentRepository
	assets         repository.AssetRepository
	settings       repository.SettingsRepository
	staff          repository.StaffRepository
	systemManagers repository.SystemManagerRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos := buildRepositories(pg, logger)
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	limitCfg := ratelimit.Config{MaxFailures: cfg.AccessLimit.MaxFailures, Window: cfg.AccessLimit.Window()}
	var limiter ratelimit.FailureLimiter = ratelimit.NewMemoryLimiter(limitCfg)
	if redis.Enabled() {
		limiter = ratelimit.NewRedisLimiter(redis.Client, limitCfg)
	}

	files, err := storage.NewDiskStore(cfg.Storage.UploadDir, cfg.Submission.MaxAttachmentBytes)
	if err != nil {
		logger.Fatal("failed to prepare attachment storage", zap.Error(err))
	}
	renderer, err := mail.NewRenderer(cfg.Notification.SiteURL)
	if err != nil {
		logger.Fatal("failed to load mail templates", zap.Error(err))
	}

	settingsService := service.NewSettingsService(service.SettingsDependencies{
		SettingsRepo: repos.settings,
		Logger:       logger,
	})
	assetService := service.NewAssetService(service.AssetDependencies{
		AssetRepo:  repos.assets,
		TicketRepo: repos.tickets,
		Settings:   settingsService,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     repos.tickets,
		SequenceRepo:   repos.sequences,
		MessageRepo:    repos.messages,
		AttachmentRepo: repos.attachments,
		Files:          files,
		Settings:       settingsService,
		Assets:         assetService,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
		Submission:     cfg.Submission,
	})
	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		TicketRepo: repos.tickets,
		StaffRepo:  repos.staff,
		Settings:   settingsService,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	accessService := service.NewAccessService(service.AccessDependencies{
		TicketRepo:     repos.tickets,
		MessageRepo:    repos.messages,
		AttachmentRepo: repos.attachments,
		Files:          files,
		Limiter:        limiter,
		Dispatcher:     dispatcher,
		Metrics:        metrics,
		Logger:         logger,
	})
	staffService := service.NewStaffService(service.StaffDependencies{
		StaffRepo:         repos.staff,
		SystemManagerRepo: repos.systemManagers,
		Settings:          settingsService,
		BcryptCost:        cfg.Auth.BcryptCost,
		Logger:            logger,
	})
	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		StaffRepo: repos.staff,
		Logger:    logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher: dispatcher,
		Settings:   settingsService,
		StaffRepo:  repos.staff,
		Renderer:   renderer,
		Sender:     mail.NewSMTPSender(),
		Metrics:    metrics,
		Logger:     logger,
		Config:     cfg.Notification,
	})
	worker.StartNotificationWorker(notificationService, logger)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.staff)

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Submission.MaxAttachmentBytes)*5 + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Tickets:        handlers.NewTicketsHandler(ticketService, accessService),
		StaffTickets:   handlers.NewStaffTicketsHandler(ticketService, assignmentService, assetService),
		Assets:         handlers.NewAssetsHandler(assetService),
		Settings:       handlers.NewSettingsHandler(settingsService),
		Staff:          handlers.NewStaffHandler(authService, staffService),
		AuthMiddleware: authMiddleware,
		Metrics:        adaptor.HTTPHandler(metrics.Handler()),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// buildRepositories prefers Postgres and falls back to the in-process store
// when no DSN is configured.
func buildRepositories(pg *persistence.Postgres, logger *zap.Logger) repositories {
	if pg.Enabled() {
		pool := pg.PoolHandle()
		return repositories{
			tickets:        repository.NewTicketRepository(pool),
			sequences:      repository.NewTicketSequenceRepository(pool),
			messages:       repository.NewTicketMessageRepository(pool),
			attachments:    repository.NewAttachmentRepository(pool),
			assets:         repository.NewAssetRepository(pool),
			settings:       repository.NewSettingsRepository(pool),
			staff:          repository.NewStaffRepository(pool),
			systemManagers: repository.NewSystemManagerRepository(pool),
		}
	}

	logger.Warn("running on the in-memory store; data is lost on restart")
	store := memory.NewStore()
	return repositories{
		tickets:        store.Tickets(),
		sequences:      store.Sequences(),
		messages:       store.Messages(),
		attachments:    store.Attachments(),
		assets:         store.Assets(),
		settings:       store.Settings(),
		staff:          store.Staff(),
		systemManagers: store.SystemManagers(),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
