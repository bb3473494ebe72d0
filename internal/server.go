package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/coocood/freecache"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/fitboard/internal/activity"
	"github.com/2beens/fitboard/internal/aggregation"
	"github.com/2beens/fitboard/internal/config"
	"github.com/2beens/fitboard/internal/db"
	"github.com/2beens/fitboard/internal/health"
	"github.com/2beens/fitboard/internal/identity"
	"github.com/2beens/fitboard/internal/leaderboard"
	"github.com/2beens/fitboard/internal/middleware"
	"github.com/2beens/fitboard/internal/telemetry/metrics"
	"github.com/2beens/fitboard/internal/telemetry/tracing"
	"github.com/2beens/fitboard/pkg"
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	loc         *time.Location
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	healthCache *freecache.Cache

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresUser            string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	loc, err := params.Config.Location()
	if err != nil {
		return nil, err
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBUser:         params.PostgresUser,
		DBPassword:     params.PostgresPassword,
		MaxConns:       params.Config.PostgresMaxConns,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("fitboard", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(params.Config.RedisHost, params.Config.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})

	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "fitboard-backend", rdb)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:      params.Config,
		loc:         loc,
		versionInfo: params.VersionInfo,
		dbPool:      dbPool,
		redisClient: rdb,
		healthCache: freecache.NewCache(params.Config.HealthCacheSizeMB * 1024 * 1024),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) leaderboardStore() (leaderboard.DocumentStore, error) {
	switch s.config.LeaderboardStore {
	case config.LeaderboardStoreRedis:
		return leaderboard.NewRedisStore(s.redisClient, s.config.LeaderboardCollectionTTLDuration()), nil
	case config.LeaderboardStorePostgres:
		return leaderboard.NewPgStore(s.dbPool), nil
	case config.LeaderboardStoreMemory:
		log.Warnln("leaderboard kept in memory, rankings are lost on restart")
		return leaderboard.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown leaderboard store: %s", s.config.LeaderboardStore)
	}
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	healthRepo := health.NewRepo(s.dbPool)
	providers := health.NewDeviceProviders(
		func(deviceID string) health.Provider {
			return healthRepo.ForDevice(deviceID)
		},
		s.healthCache,
		s.config.HealthCacheTTL(),
	)

	healthHandler := health.NewHandler(healthRepo, providers, s.metricsManager)
	r.HandleFunc("/health/samples", healthHandler.HandleAddSamples).Methods("POST", "OPTIONS").Name("add-samples")
	r.HandleFunc("/health/workouts", healthHandler.HandleAddWorkouts).Methods("POST", "OPTIONS").Name("add-workouts")
	r.HandleFunc("/health/authorization", healthHandler.HandleGrantAuthorization).Methods("POST", "OPTIONS").Name("grant-authorization")
	r.HandleFunc("/health/authorization", healthHandler.HandleAuthorizationStatus).Methods("GET", "OPTIONS").Name("authorization-status")

	engineOpts := []aggregation.EngineOption{
		aggregation.WithLocation(s.loc),
		aggregation.WithMetrics(s.metricsManager),
	}
	chartsHandler := aggregation.NewHandler(providers, engineOpts...)
	r.HandleFunc("/charts/steps", chartsHandler.HandleAllSteps).Methods("GET", "OPTIONS").Name("charts-steps")
	r.HandleFunc("/charts/steps/{preset}", chartsHandler.HandlePresetSteps).Methods("GET", "OPTIONS").Name("charts-steps-preset")

	activityHandler := activity.NewHandler(providers, s.loc, time.Now)
	r.HandleFunc("/activity/today", activityHandler.HandleToday).Methods("GET", "OPTIONS").Name("activity-today")
	r.HandleFunc("/activity/week", activityHandler.HandleWeek).Methods("GET", "OPTIONS").Name("activity-week")
	r.HandleFunc("/activity/workouts", activityHandler.HandleWorkouts).Methods("GET", "OPTIONS").Name("activity-workouts")

	identityStore := func(deviceID string) identity.Store {
		return identity.NewRedisStore(s.redisClient, deviceID)
	}
	identityHandler := identity.NewHandler(identityStore)
	r.HandleFunc("/identity", identityHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-identity")
	r.HandleFunc("/identity", identityHandler.HandleSet).Methods("PUT", "OPTIONS").Name("set-identity")

	store, err := s.leaderboardStore()
	if err != nil {
		return nil, err
	}
	leaderboardFactory := leaderboard.NewFactory(
		store,
		func(deviceID string) leaderboard.IdentityProvider {
			return identity.NewProfile(identityStore(deviceID))
		},
		func(deviceID string) leaderboard.StepCounter {
			engine := aggregation.NewEngine(providers.ForDevice(deviceID), engineOpts...)
			return leaderboard.StepCounterFunc(engine.CurrentWeekSteps)
		},
		leaderboard.WithLocation(s.loc),
		leaderboard.WithFetchOnPublishFailure(s.config.LeaderboardFetchOnPubFailed),
		leaderboard.WithMetrics(s.metricsManager),
	)
	leaderboardHandler := leaderboard.NewHandler(leaderboardFactory)

	// duplicate refresh taps of one device are answered with 429 instead of racing each other
	refreshRateLimit := middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		"leaderboard-refresh",
		s.config.LeaderboardRefreshPerMin,
		s.metricsManager,
	)
	r.Handle("/leaderboard/refresh", refreshRateLimit(http.HandlerFunc(leaderboardHandler.HandleRefresh))).
		Methods("POST", "OPTIONS").Name("leaderboard-refresh")
	r.HandleFunc("/leaderboard", leaderboardHandler.HandleGet).Methods("GET", "OPTIONS").Name("leaderboard")

	r.HandleFunc("/version", s.handleVersion).Methods("GET").Name("version")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(middleware.DeviceCheck("/version"))
	r.Use(middleware.LimitAndDrainRequest(middleware.MaxRequestBodyBytes))

	return r, nil
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      otelhttp.NewHandler(router, "fitboard-api"),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", metrics.Handler(s.promRegistry))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	s.otelShutdown()
	log.Trace("otel shut down ...")

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if s.dbPool != nil {
		log.Debugln("closing db pool ...")
		s.dbPool.Close() // blocking operation
		log.Debugln("db pool closed")
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}
