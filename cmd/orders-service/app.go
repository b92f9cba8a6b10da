package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"foodcourt/internal/broker"
	"foodcourt/internal/config"
	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/internal/orders"
	"foodcourt/pkg/bootstrap"
	"foodcourt/pkg/health"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/middleware"
)

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector
	redis       *redis.Client
	service     *orders.Service
	inventory   *orders.InventoryCriticalHandler
	listener    *broker.Listener
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	a.InitBroker(ctx, "orders-service")

	if err := a.initRedis(ctx); err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}

	a.initService()

	if a.Broker.IsConnected() {
		if err := a.Broker.BindFanoutQueue(constants.QueueInventoryCriticalOrders); err != nil {
			return fmt.Errorf("failed to bind inventory queue: %w", err)
		}
		a.listener = broker.NewListener(a.Broker, constants.QueueInventoryCriticalOrders, a.inventory.Handle, a.Logger)
	}

	metrics.RegisterBrokerMetrics()
	metrics.RegisterInventoryMetrics()
	metrics.RegisterCircuitBreakerMetrics()

	a.initHTTPServer()
	return nil
}

func (a *App) initRedis(ctx context.Context) error {
	rdb, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		return err
	}
	a.redis = rdb
	return nil
}

func (a *App) initService() {
	store := orders.NewMemoryStore()
	publisher := orders.NewEventPublisher(a.Broker, a.Logger)
	users := orders.NewUserClient(a.Config.Services.UsersURL, a.Config.Services.RequestTimeout, a.Logger)
	restrictor := orders.NewRedisRestrictor(a.redis, a.Logger)

	a.service = orders.NewService(store, publisher, users, restrictor, a.Logger)
	a.inventory = orders.NewInventoryCriticalHandler(restrictor, store, a.Logger)
}

func (a *App) initHTTPServer() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RecoveryMiddleware(a.Logger))

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewBrokerChecker(a.Broker.IsConnected))
	healthRegistry.Register(health.NewRedisChecker(a.redis))

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	orders.NewHandler(a.service, a.Logger).RegisterRoutes(router)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(a.Config.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(a.Config.Server.WriteTimeoutSeconds) * time.Second,
	}
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	if a.listener != nil {
		g.Go(func() error {
			return a.listener.Start(gCtx)
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) Shutdown(ctx context.Context) error {
	if a.listener != nil {
		a.listener.Stop()
	}
	return a.Base.Shutdown(ctx, func(ctx context.Context) []error {
		return a.dbConnector.ShutdownDatabases(ctx, a.redis)
	})
}
