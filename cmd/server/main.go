package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	limitermemory "github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/neurallempire/neurallempire-api/internal/config"
	"github.com/neurallempire/neurallempire-api/internal/handler"
	"github.com/neurallempire/neurallempire-api/internal/handler/middleware"
	"github.com/neurallempire/neurallempire-api/internal/ierr"
	"github.com/neurallempire/neurallempire-api/internal/service"
	"github.com/neurallempire/neurallempire-api/internal/storage/memstorage"
	"github.com/neurallempire/neurallempire-api/internal/storage/postgres"
	"github.com/neurallempire/neurallempire-api/internal/storage/redis"
	"github.com/neurallempire/neurallempire-api/internal/tasks"
	"github.com/neurallempire/neurallempire-api/internal/worker"
	"github.com/neurallempire/neurallempire-api/pkg/logger"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	sugarLogger := appLogger.Sugar()

	sugarLogger.Info("Starting application...")
	sugarLogger.Infof("Log level set to: %s", cfg.Log.Level)

	appCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := postgres.NewPgxPool(appCtx, &cfg.Database, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to PostgreSQL: %v", err)
	}
	defer dbPool.Close()

	redisClient, err := redis.NewRedisClient(appCtx, &cfg.Redis, appLogger)
	if err != nil {
		sugarLogger.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	orgRepo := postgres.NewOrganizationRepository(dbPool, appLogger)
	agentRepo := postgres.NewAgentRepository(dbPool, appLogger)
	apiKeyRepo := postgres.NewAPIKeyRepository(dbPool, appLogger)
	usageRepo := postgres.NewUsageRepository(dbPool, appLogger)
	leadRepo := postgres.NewLeadRepository(dbPool, appLogger)
	userRepoMock := memstorage.NewUserRepositoryMock()

	var rateLimitStore limiter.Store
	if cfg.RateLimit.UseRedis {
		rateLimitStore, err = limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
			Prefix:   cfg.RateLimit.Prefix,
			MaxRetry: 3,
		})
		if err != nil {
			sugarLogger.Fatalf("Failed to create redis rate limit store: %v", err)
		}
	} else {
		rateLimitStore = limitermemory.NewStore()
	}

	taskClient := tasks.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer taskClient.Close()

	authService := service.NewAuthService(userRepoMock, &cfg.JWT, appLogger)
	agentService := service.NewAgentService(agentRepo, appLogger)
	apiKeyService := service.NewAPIKeyService(apiKeyRepo, agentRepo, appLogger)
	leadService := service.NewLeadService(leadRepo, appLogger)
	usageService := service.NewUsageService(usageRepo, appLogger)

	healthHandler := handler.NewHealthHandler(dbPool, redisClient, appLogger)
	authHandler := handler.NewAuthHandler(authService, appLogger)
	agentHandler := handler.NewAgentHandler(agentService, appLogger)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeyService, appLogger)
	leadHandler := handler.NewLeadHandler(leadService, appLogger)
	dashboardHandler := handler.NewDashboardHandler(usageService, appLogger)

	tenantMiddleware := middleware.TenantResolver(orgRepo, &cfg.Tenancy, appLogger)
	authMiddleware := middleware.AuthMiddleware(authService, appLogger)
	apiKeyAuthMiddleware := middleware.APIKeyAuth(apiKeyRepo, agentRepo, orgRepo, appLogger)
	rateLimitMiddleware := middleware.RateLimit(rateLimitStore, cfg.RateLimit.DefaultPerMinute, appLogger)
	usageMiddleware := middleware.UsageRecorder(taskClient, appLogger)
	errorMiddleware := middleware.ErrorHandlerMiddleware(appLogger)

	router := gin.New()
	router.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logMsg := "Panic recovered"
		if err, ok := recovered.(string); ok {
			logMsg = fmt.Sprintf("%s: %s", logMsg, err)
		} else if err, ok := recovered.(error); ok {
			logMsg = fmt.Sprintf("%s: %v", logMsg, err)
		}
		appLogger.Error(logMsg, zap.Stack("stack"))

		_ = c.Error(ierr.ErrInternalServer)
		c.Abort()
	}))

	corsConfig := cors.Config{
		AllowOrigins: []string{"http://localhost:3000", "https://www." + cfg.Tenancy.BaseDomain},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-API-Key",
			"X-Tenant",
		},
		ExposeHeaders:    []string{"Content-Length", "X-Organization-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))
	router.Use(errorMiddleware)
	router.Use(tenantMiddleware)

	router.GET("/healthz", healthHandler.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := router.Group("/api/v1/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
	}

	apiV1 := router.Group("/api/v1")
	{
		// Programmatic plane: key auth, then usage capture wrapping the
		// rate check and handler so rejected requests are recorded too.
		leadRoutes := apiV1.Group("/leads")
		{
			leadRoutes.POST("", apiKeyAuthMiddleware, usageMiddleware, rateLimitMiddleware, leadHandler.Capture)
			leadRoutes.GET("", authMiddleware, leadHandler.List)
		}

		agentRoutes := apiV1.Group("/agents")
		agentRoutes.Use(authMiddleware)
		{
			agentRoutes.POST("", agentHandler.Create)
			agentRoutes.GET("", agentHandler.List)
			agentRoutes.GET("/:id", agentHandler.GetByID)
			agentRoutes.PATCH("/:id", agentHandler.Update)
			agentRoutes.PATCH("/:id/status", agentHandler.UpdateStatus)
		}

		apiKeyRoutes := apiV1.Group("/apikeys")
		apiKeyRoutes.Use(authMiddleware)
		{
			apiKeyRoutes.POST("", apiKeyHandler.Create)
			apiKeyRoutes.GET("", apiKeyHandler.List)
			apiKeyRoutes.DELETE("/:id", apiKeyHandler.Revoke)
			apiKeyRoutes.POST("/:id/regenerate", apiKeyHandler.Regenerate)
		}

		dashboardRoutes := apiV1.Group("/dashboard")
		dashboardRoutes.Use(authMiddleware)
		{
			dashboardRoutes.GET("/summary", dashboardHandler.GetSummary)
		}
	}

	g, groupCtx := errgroup.WithContext(appCtx)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g.Go(func() error {
		sugarLogger.Infof("HTTP server listening on port %s", cfg.Server.Port)

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugarLogger.Errorf("HTTP server ListenAndServe error: %v", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		sugarLogger.Info("HTTP server stopped listening.")
		return nil
	})

	g.Go(func() error {
		<-groupCtx.Done()
		sugarLogger.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownPeriod)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			sugarLogger.Errorf("HTTP server graceful shutdown failed: %v", err)
			return fmt.Errorf("http server shutdown error: %w", err)
		}
		sugarLogger.Info("HTTP server shutdown complete.")
		return nil
	})

	g.Go(func() error {
		if err := worker.RunWorkers(groupCtx, cfg, usageRepo, apiKeyRepo, appLogger); err != nil {
			sugarLogger.Error("Asynq worker failed", zap.Error(err))
			return fmt.Errorf("asynq worker error: %w", err)
		}
		sugarLogger.Info("Asynq workers finished gracefully.")
		return nil
	})

	sugarLogger.Info("Application started. Waiting for interrupt signal (Ctrl+C) or component error...")

	waitErr := g.Wait()

	sugarLogger.Info("Shutdown sequence finished.")

	if waitErr != nil {
		if errors.Is(waitErr, context.Canceled) {
			sugarLogger.Info("Shutdown reason: Context canceled (likely due to OS signal).")
		} else if errors.Is(waitErr, http.ErrServerClosed) {
			sugarLogger.Info("Shutdown reason: HTTP server closed normally.")
		} else {
			sugarLogger.Errorf("Application shutdown finished with unexpected error: %v", waitErr)
		}
	} else {
		sugarLogger.Info("Application shutdown successfully (all components finished without errors).")
	}

	sugarLogger.Info("Application exiting now.")
}
