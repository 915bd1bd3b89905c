package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/richxcame/matchengine/internal/grid"
	"github.com/richxcame/matchengine/internal/match"
	"github.com/richxcame/matchengine/internal/oracle"
	"github.com/richxcame/matchengine/internal/reconcile"
	"github.com/richxcame/matchengine/internal/sink"
	"github.com/richxcame/matchengine/internal/state"
	"github.com/richxcame/matchengine/pkg/config"
	"github.com/richxcame/matchengine/pkg/errors"
	"github.com/richxcame/matchengine/pkg/eventbus"
	"github.com/richxcame/matchengine/pkg/health"
	"github.com/richxcame/matchengine/pkg/logger"
	"github.com/richxcame/matchengine/pkg/middleware"
	redisclient "github.com/richxcame/matchengine/pkg/redis"
	"github.com/richxcame/matchengine/pkg/resilience"
	"github.com/richxcame/matchengine/pkg/tracing"
	"github.com/richxcame/matchengine/pkg/websocket"
)

const (
	serviceName = "matchengine"
	version     = "1.0.0"
)

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}
	defer cfg.Close()

	if err := logger.Init(cfg.Server.Environment); err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	logger.Info("starting matching engine",
		zap.String("service", serviceName),
		zap.String("version", version),
		zap.String("environment", cfg.Server.Environment),
	)

	sentryConfig := errors.DefaultSentryConfig()
	sentryConfig.ServerName = serviceName
	sentryConfig.Release = version
	if err := errors.InitSentry(sentryConfig); err != nil {
		logger.Warn("failed to initialize Sentry, continuing without error tracking", zap.Error(err))
	} else {
		defer errors.Flush(2 * time.Second)
	}

	if cfg.Tracing.Enabled {
		tracerCfg := tracing.Config{
			ServiceName:    cfg.Tracing.ServiceName,
			ServiceVersion: cfg.Tracing.ServiceVersion,
			Environment:    cfg.Server.Environment,
			OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
			Enabled:        true,
		}
		tp, err := tracing.InitTracer(tracerCfg, logger.Get())
		if err != nil {
			logger.Warn("failed to initialize tracer, continuing without tracing", zap.Error(err))
		} else {
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("failed to shutdown tracer", zap.Error(err))
				}
			}()
		}
	}

	// Road-network collaborator (spec.md §1): an HTTP oracle when one is
	// configured, otherwise the Haversine approximation over a synthetic
	// dev lattice so the engine runs end-to-end with no external services.
	var upstream oracle.ShortestPath
	var geocoder grid.Geocoder
	if cfg.Engine.OracleURL != "" {
		upstream = oracle.NewHTTPShortestPath(cfg.Engine.OracleURL)
	}
	if cfg.Engine.GeocoderURL != "" {
		geocoder = grid.NewHTTPGeocoder(cfg.Engine.GeocoderURL)
	} else {
		geocoder = grid.NewDevGeocoder(0, 0, 0.0008, 1000)
	}
	if upstream == nil {
		upstream = oracle.NewHaversineShortestPath(geocoder)
	}

	breakerSettings := resilience.Settings{
		Name:             "shortest-path-oracle",
		Interval:         time.Duration(cfg.Resilience.OracleBreaker.IntervalSeconds) * time.Second,
		Timeout:          time.Duration(cfg.Resilience.OracleBreaker.TimeoutSeconds) * time.Second,
		FailureThreshold: cfg.Resilience.OracleBreaker.FailureThreshold,
		SuccessThreshold: cfg.Resilience.OracleBreaker.SuccessThreshold,
	}
	breakerOracle := oracle.New(upstream, breakerSettings, cfg.Resilience.OracleBreaker.Enabled, serviceName)

	g := grid.New(cfg.Engine.GridResolution, geocoder)
	store := state.New()
	assignmentSink := sink.New(store)
	synchronizer := reconcile.New()
	clock := oracle.NewSystemClock()

	// Redis-backed snapshot mirror (spec.md §5's single authoritative table,
	// mirrored so a restarting process can rehydrate without replaying the
	// vehicle-state stream from the start). Optional: the in-process Store
	// alone is sufficient for a single matcher instance.
	var redisConn *redisclient.Client
	if cfg.Redis.Enabled {
		redisConn, err = redisclient.NewRedisClient(&cfg.Redis)
		if err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisConn.Close()

		mirror := state.NewRedisMirror(redisConn, "")
		assignmentSink = assignmentSink.WithMirror(mirror)
	}

	var bus *eventbus.Bus
	if cfg.EventBus.Enabled {
		bus, err = eventbus.New(eventbus.Config{
			URL:        cfg.EventBus.URL,
			Name:       serviceName,
			StreamName: cfg.EventBus.StreamName,
		})
		if err != nil {
			logger.Fatal("failed to connect event bus", zap.Error(err))
		}
		defer bus.Close()
	}

	hub := websocket.NewHub()
	go hub.Run()

	matchCfg := match.Config{
		BatchPeriod:                  cfg.Engine.BatchPeriod,
		PickupRangeKm:                cfg.Engine.PickupRangeKm,
		MaxCandidatesPerCustomer:     cfg.Engine.MaxCandidatesPerCustomer,
		PerCustomerTimeout:           cfg.Engine.PerCustomerTimeout,
		MaxRetries:                   cfg.Engine.MaxRetries,
		BackoffDelay:                 5,
		VehicleSpeedMetersPerSimTime: cfg.Engine.VehicleSpeedMetersPerSimTime,
	}
	engine := match.New(matchCfg, clock, breakerOracle, g, store, assignmentSink, synchronizer, bus, hub)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if bus != nil {
		// rootCtx, not a short-lived one: it is threaded into every future
		// message-handler call, and must only end at shutdown.
		if err := bus.Subscribe(rootCtx, eventbus.SubjectCustomerArrived, serviceName+"-customers", customerArrivedHandler(engine)); err != nil {
			logger.Fatal("failed to subscribe to customer stream", zap.Error(err))
		}
		if err := bus.Subscribe(rootCtx, eventbus.SubjectVehicleSnapshot, serviceName+"-vehicles", vehicleSnapshotHandler(engine)); err != nil {
			logger.Fatal("failed to subscribe to vehicle-state stream", zap.Error(err))
		}
	}

	deepCheckerCfg := health.DefaultDeepCheckerConfig()
	deepCheckerCfg.Version = version
	deepChecker := health.NewDeepChecker(deepCheckerCfg)
	deepChecker.AddCircuitBreaker("shortest-path-oracle", breakerOracle.Breaker())
	if redisConn != nil {
		deepChecker.SetRedis(redisConn.Client)
	}

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.RequestLogger(serviceName))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "status": "ok"})
	})
	router.GET("/health/ready", gin.WrapF(deepChecker.Handler()))
	router.GET("/version", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"service": serviceName, "version": version})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/statistics", func(c *gin.Context) {
		c.JSON(http.StatusOK, engine.Statistics())
	})
	router.GET("/ws", func(c *gin.Context) {
		websocket.HandleWebSocket(c, hub)
	})
	registerSubmissionRoutes(router, engine, clock)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(rootCtx)

	group.Go(func() error {
		return engine.Run(groupCtx)
	})

	group.Go(func() error {
		logger.Info("admin server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("admin server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		engine.End()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && rootCtx.Err() == nil {
		logger.Error("matching engine exited with error", zap.Error(err))
		errors.CaptureError(err)
		os.Exit(1)
	}

	logger.Info("matching engine stopped")
}
