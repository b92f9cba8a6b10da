package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"foodcourt/internal/broker"
	"foodcourt/internal/config"
	"foodcourt/internal/constants"
	"foodcourt/internal/logger"
	"foodcourt/internal/notifications"
	"foodcourt/pkg/bootstrap"
	"foodcourt/pkg/health"
	"foodcourt/pkg/metrics"
	"foodcourt/pkg/middleware"
	"foodcourt/pkg/ratelimit"
)

type App struct {
	*bootstrap.Base
	registry  *notifications.Registry
	engine    *notifications.Engine
	listeners []*broker.Listener
	server    *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	return &App{
		Base: bootstrap.NewBase(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	a.InitBroker(ctx, "notifications-service")

	a.registry = notifications.NewRegistry(a.Config.Streaming.HeartbeatInterval, a.Logger)
	a.engine = notifications.NewEngine(a.Config.Channels, a.registry, a.Logger)

	if a.Broker.IsConnected() {
		if err := a.Broker.BindFanoutQueue(constants.QueueInventoryCriticalNotify); err != nil {
			return fmt.Errorf("failed to bind inventory queue: %w", err)
		}
		a.initListeners()
	} else {
		a.Logger.Warnw("Broker unavailable, notifications run HTTP-only")
	}

	metrics.RegisterBrokerMetrics()
	metrics.RegisterNotificationMetrics()
	metrics.RegisterInventoryMetrics()

	a.initHTTPServer()
	return nil
}

func (a *App) initListeners() {
	created := notifications.NewOrderCreatedHandler(a.engine, a.Logger)
	status := notifications.NewOrderStatusHandler(a.engine, a.Logger)
	inventory := notifications.NewInventoryCriticalHandler(a.engine, a.Logger)

	a.listeners = []*broker.Listener{
		broker.NewListener(a.Broker, constants.QueueOrderCreated, created.Handle, a.Logger),
		broker.NewListener(a.Broker, constants.QueueOrderStatusUpdated, status.Handle, a.Logger),
		broker.NewListener(a.Broker, constants.QueueInventoryCriticalNotify, inventory.Handle, a.Logger),
	}
}

func (a *App) initHTTPServer() {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware(a.Logger))
	router.Use(middleware.RecoveryMiddleware(a.Logger))

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewBrokerChecker(a.Broker.IsConnected))

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	var testLimiter gin.HandlerFunc
	if a.Config.RateLimit.Enabled {
		limitCfg := ratelimit.DefaultConfig()
		if a.Config.RateLimit.RPS > 0 {
			limitCfg.RPS = a.Config.RateLimit.RPS
		}
		if a.Config.RateLimit.Burst > 0 {
			limitCfg.Burst = a.Config.RateLimit.Burst
		}
		testLimiter = ratelimit.Middleware(limitCfg)
	}

	notifications.NewHandler(a.engine, a.registry, a.Logger).RegisterRoutes(router, testLimiter)

	// No write timeout: the SSE stream endpoint holds responses open.
	a.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:     router,
		ReadTimeout: time.Duration(a.Config.Server.ReadTimeoutSeconds) * time.Second,
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

	for _, l := range a.listeners {
		listener := l
		g.Go(func() error {
			return listener.Start(gCtx)
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
	for _, l := range a.listeners {
		l.Stop()
	}
	return a.Base.Shutdown(ctx, nil)
}
