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
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/healthify/internal/auth"
	"github.com/2beens/healthify/internal/badges"
	"github.com/2beens/healthify/internal/config"
	"github.com/2beens/healthify/internal/db"
	"github.com/2beens/healthify/internal/middleware"
	"github.com/2beens/healthify/internal/profile"
	"github.com/2beens/healthify/internal/progress"
	"github.com/2beens/healthify/internal/telemetry/metrics"
	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/internal/users"
	"github.com/2beens/healthify/internal/workoutlog"
	"github.com/2beens/healthify/internal/workouts"
	"github.com/2beens/healthify/pkg"
)

const sessionsCleanupInterval = 8 * time.Hour

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server

	config   *config.Config
	location *time.Location
	dbPool   *pgxpool.Pool

	redisClient *redis.Client
	authService *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	PostgresPassword        string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	location, err := params.Config.Location()
	if err != nil {
		return nil, err
	}

	dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
		DBHost:         params.Config.PostgresHost,
		DBPort:         params.Config.PostgresPort,
		DBName:         params.Config.PostgresDBName,
		DBUser:         params.Config.PostgresUser,
		DBPassword:     params.PostgresPassword,
		MaxConns:       params.Config.PostgresMaxConns,
		TracingEnabled: params.HoneycombTracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	} else if err := db.Migrate(ctx, dbPool); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": params.Config.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("backend", "healthify", promRegistry)
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

	authService := auth.NewAuthService(auth.DefaultTTL, rdb)
	go authService.RunCleaner(ctx, sessionsCleanupInterval)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "healthify-backend", rdb)
	if err != nil {
		return nil, err
	}

	return &Server{
		config:   params.Config,
		location: location,
		dbPool:   dbPool,

		redisClient: rdb,
		authService: authService,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup(allowedOrigins []string) *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("healthify-router"))

	usersRepo := users.NewRepo(s.dbPool)
	workoutsRepo := workouts.NewRepo(s.dbPool)
	badgeCatalog := badges.NewCachedCatalog(badges.NewRepo(s.dbPool), s.config.BadgeCatalogCacheTTL)

	engine := progress.NewEngine(progress.NewEngineParams{
		Users:    usersRepo,
		Workouts: workoutsRepo,
		Catalog:  badgeCatalog,
		Locker:   progress.NewRedisLocker(s.redisClient, s.config.UserLockTTL),
		Metrics:  s.metricsManager,
		Location: s.location,
		Timeout:  s.config.DatastoreTimeout,
	})

	workoutLogService := workoutlog.NewService(workoutlog.NewRepo(s.dbPool))
	workoutsService := workouts.NewService(
		workoutsRepo,
		engine,
		workoutLogService,
		s.metricsManager,
		s.location,
	)

	// registered before /workouts/{id} routes
	workoutLogHandler := workoutlog.NewHandler(workoutLogService)
	r.HandleFunc("/workouts/history", workoutLogHandler.HandleHistory).Methods("GET", "OPTIONS").Name("workouts-history")

	workoutsHandler := workouts.NewHandler(workoutsService)
	r.HandleFunc("/workouts", workoutsHandler.HandleList).Methods("GET", "OPTIONS").Name("list-workouts")

	workoutMutations := r.NewRoute().Subrouter()
	workoutMutations.Use(middleware.RateLimit(
		redis_rate.NewLimiter(s.redisClient),
		s.metricsManager,
		"workouts",
		s.config.WorkoutRateLimitPerMin,
	))
	workoutMutations.HandleFunc("/workouts", workoutsHandler.HandleCreate).Methods("POST", "OPTIONS").Name("new-workout")
	workoutMutations.HandleFunc("/workouts/{id:[0-9]+}", workoutsHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-workout")
	workoutMutations.HandleFunc("/workouts/{id:[0-9]+}", workoutsHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("remove-workout")
	workoutMutations.HandleFunc("/workouts/{id:[0-9]+}/suggestion", workoutsHandler.HandleSuggestion).Methods("POST", "OPTIONS").Name("resolve-suggestion")

	profileHandler := profile.NewHandler(usersRepo, engine)
	r.HandleFunc("/profile", profileHandler.HandleGet).Methods("GET", "OPTIONS").Name("get-profile")
	r.HandleFunc("/profile", profileHandler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-profile")

	badgesHandler := badges.NewHandler(badgeCatalog)
	r.HandleFunc("/badges", badgesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-badges")

	r.HandleFunc("/health", s.handleHealth).Methods("GET").Name("health")

	// all the rest - unhandled paths
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pkg.WriteErrorResponse(w, http.StatusNotFound, pkg.ErrCodeNotFound, "not found")
	})

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.authService)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(allowedOrigins...))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.LimitAndDrainBody(middleware.DefaultMaxBodyBytes))

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.dbPool.Ping(ctx); err != nil {
		log.Errorf("health, ping db: %s", err)
		pkg.WriteErrorResponse(w, http.StatusServiceUnavailable, pkg.ErrCodeTransient, "db unavailable")
		return
	}
	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		log.Errorf("health, ping redis: %s", err)
		pkg.WriteErrorResponse(w, http.StatusServiceUnavailable, pkg.ErrCodeTransient, "redis unavailable")
		return
	}

	pkg.WriteTextResponseOK(w, "ok")
}

func (s *Server) Serve(host string, port int, allowedOrigins []string) {
	router := s.routerSetup(allowedOrigins)

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:      router,
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", otelhttp.NewHandler(
		promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}),
		"metrics",
	))
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

	s.otelShutdown()
	log.Trace("otel shut down ...")

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
