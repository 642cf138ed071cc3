package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/teamboard/teamboard/internal/api/http"
	"github.com/teamboard/teamboard/internal/api/http/handlers"
	"github.com/teamboard/teamboard/internal/auth"
	"github.com/teamboard/teamboard/internal/config"
	"github.com/teamboard/teamboard/internal/events"
	"github.com/teamboard/teamboard/internal/inference"
	"github.com/teamboard/teamboard/internal/observability"
	"github.com/teamboard/teamboard/internal/persistence"
	"github.com/teamboard/teamboard/internal/predictor"
	"github.com/teamboard/teamboard/internal/repository"
	"github.com/teamboard/teamboard/internal/repository/memory"
	"github.com/teamboard/teamboard/internal/service"
	"github.com/teamboard/teamboard/internal/worker"
)

type repositories struct {
	users repository.UserRepository
	teams repository.TeamRepository
	tasks repository.TaskRepository
	posts repository.PostRepository
}

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

	var (
		repos repositories
		pg    *persistence.Postgres
	)
	if cfg.Postgres.DSN == "" {
		logger.Warn("POSTGRES_DSN not set, data is kept in memory")
		db := memory.New()
		repos = repositories{users: db.Users(), teams: db.Teams(), tasks: db.Tasks(), posts: db.Posts()}
	} else {
		pg, err = persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		pool := pg.PoolHandle()
		repos = repositories{
			users: repository.NewUserRepository(pool),
			teams: repository.NewTeamRepository(pool),
			tasks: repository.NewTaskRepository(pool),
			posts: repository.NewPostRepository(pool),
		}
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher(logger)

	teamService := service.NewTeamService(service.TeamDependencies{
		TeamRepo:   repos.teams,
		UserRepo:   repos.users,
		TaskRepo:   repos.tasks,
		PostRepo:   repos.posts,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	if err := teamService.Load(ctx); err != nil {
		logger.Fatal("failed to load teams", zap.Error(err))
	}

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		UserRepo:  repos.users,
		Directory: teamService.Store(),
	})
	userService := service.NewUserService(repos.users, repos.tasks)
	taskService := service.NewTaskService(service.TaskDependencies{
		TaskRepo: repos.tasks,
		UserRepo: repos.users,
		Store:    teamService.Store(),
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	inferenceClient := inference.NewClient(cfg.Inference)
	discoverer := predictor.NewDiscoverer(
		inferenceClient,
		predictor.Candidates(cfg.Inference.TextGenerationModels, cfg.Inference.SentimentModels),
		modelCache(ctx, cfg.Predictor, redis, logger),
		logger,
	)
	estimator := predictor.New(predictor.Dependencies{
		API:       inferenceClient,
		Discovery: discoverer,
		Remote: predictor.RemoteOptions{
			TaskLimit: cfg.Predictor.RemoteTaskLimit,
			Delay:     cfg.Predictor.CallDelay(),
		},
		Logger: logger,
	})
	if cfg.Inference.Enabled() {
		go worker.StartDiscoveryWarmer(ctx, discoverer, cfg.Predictor.ModelCacheTTL(), logger)
	}

	dashboardService := service.NewDashboardService(service.DashboardDependencies{
		Users:     userService,
		TaskRepo:  repos.tasks,
		Teams:     teamService.Store(),
		Predictor: estimator,
		Metrics:   metrics,
	})

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	var dbPing handlers.Pinger = memoryPinger{}
	if pg != nil {
		dbPing = pg
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dbPing, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Teams:          handlers.NewTeamsHandler(teamService),
		Users:          handlers.NewUsersHandler(userService),
		Tasks:          handlers.NewTasksHandler(taskService),
		Dashboard:      handlers.NewDashboardHandler(dashboardService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), repos.users),
		TeamLookup:     teamService.Store(),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func modelCache(ctx context.Context, cfg config.PredictorConfig, redis *persistence.Redis, logger *zap.Logger) predictor.ModelCache {
	if cfg.ModelCacheBackend == "redis" {
		if redis.Available(ctx) {
			return predictor.NewRedisModelCache(redis.Client, cfg.ModelCacheTTL())
		}
		logger.Warn("redis unavailable, caching inference models in memory")
	}
	return predictor.NewMemoryModelCache(cfg.ModelCacheTTL())
}

type memoryPinger struct{}

func (memoryPinger) Ping(context.Context) error { return nil }

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
