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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/liftlog/internal/auth"
	"github.com/2beens/liftlog/internal/config"
	"github.com/2beens/liftlog/internal/dashboard"
	"github.com/2beens/liftlog/internal/db"
	"github.com/2beens/liftlog/internal/exercises"
	"github.com/2beens/liftlog/internal/mcp"
	"github.com/2beens/liftlog/internal/middleware"
	"github.com/2beens/liftlog/internal/misc"
	"github.com/2beens/liftlog/internal/snapshot"
	"github.com/2beens/liftlog/internal/telemetry/metrics"
	"github.com/2beens/liftlog/internal/telemetry/tracing"
)

const sessionsCleanupInterval = 8 * time.Hour

type recordsStore interface {
	Add(ctx context.Context, record exercises.Record) (*exercises.Record, error)
	Delete(ctx context.Context, owner, id string) error
	ListAll(ctx context.Context, owner string) ([]exercises.Record, error)
}

type accountsStore interface {
	Add(ctx context.Context, email, passwordHash string, createdAt time.Time) error
	PasswordHash(ctx context.Context, email string) (string, error)
}

// storage is the selected log store backend (postgres or local sqlite).
type storage struct {
	records  recordsStore
	accounts accountsStore
	close    func()
}

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	mcpSecret         string // shared secret of the /mcp endpoint, endpoint disabled when empty

	config  *config.Config
	storage storage
	now     func() time.Time

	redisClient  *redis.Client
	loginChecker *auth.LoginChecker
	authService  *auth.Service

	feed             *snapshot.Feed
	exercisesService *exercises.Service
	dashboardStore   *dashboard.Store

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	RedisPassword           string
	PostgresPassword        string
	MCPSecret               string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	var extraCollectors []prometheus.Collector
	st, collector, err := openStorage(ctx, params)
	if err != nil {
		return nil, err
	}
	if collector != nil {
		extraCollectors = append(extraCollectors, collector)
	}

	promRegistry := metrics.SetupPrometheus(extraCollectors...)
	metricsManager := metrics.NewManager("backend", "main", promRegistry)
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
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "liftlog-backend", rdb)
	if err != nil {
		st.close()
		return nil, err
	}

	s := newServer(params.Config, params.VersionInfo, params.MCPSecret, st, rdb, metricsManager, promRegistry)
	s.otelShutdown = otelShutdown

	go s.cleanupSessions(ctx)

	return s, nil
}

// newServer wires the domain services on top of already opened infrastructure.
func newServer(
	cfg *config.Config,
	versionInfo string,
	mcpSecret string,
	st storage,
	rdb *redis.Client,
	metricsManager *metrics.Manager,
	promRegistry *prometheus.Registry,
) *Server {
	loc := cfg.Location()
	now := func() time.Time {
		return time.Now().In(loc)
	}

	feed := snapshot.NewFeed(metricsManager)
	exercisesService := exercises.NewService(st.records, feed, metricsManager, now)
	dashboardStore := dashboard.NewStore(exercisesService, metricsManager, cfg.DashboardCacheSizeMB, now)
	// every pushed snapshot replaces the owner's derived view
	feed.SubscribeAll(dashboardStore)

	return &Server{
		config:      cfg,
		versionInfo: versionInfo,
		mcpSecret:   mcpSecret,
		storage:     st,
		now:         now,

		redisClient:  rdb,
		authService:  auth.NewService(st.accounts, cfg.SessionTTL(), rdb),
		loginChecker: auth.NewLoginChecker(cfg.SessionTTL(), rdb),

		feed:             feed,
		exercisesService: exercisesService,
		dashboardStore:   dashboardStore,

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   func() {},
	}
}

func openStorage(ctx context.Context, params NewServerParams) (storage, prometheus.Collector, error) {
	cfg := params.Config
	switch cfg.Storage {
	case config.StorageSQLite:
		database, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return storage{}, nil, fmt.Errorf("open sqlite: %w", err)
		}
		closeDB := func() {
			if err := db.CloseSQLite(database); err != nil {
				log.Errorf("failed to close sqlite db: %s", err)
			}
		}

		recordsRepo, err := exercises.NewSQLiteRepo(database)
		if err != nil {
			closeDB()
			return storage{}, nil, fmt.Errorf("sqlite records repo: %w", err)
		}
		accountsRepo, err := auth.NewSQLiteAccounts(database)
		if err != nil {
			closeDB()
			return storage{}, nil, fmt.Errorf("sqlite accounts repo: %w", err)
		}

		log.Infof("using sqlite storage: %s", cfg.SQLitePath)
		return storage{
			records:  recordsRepo,
			accounts: accountsRepo,
			close:    closeDB,
		}, nil, nil
	default:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return storage{}, nil, fmt.Errorf("new db pool: %w", err)
		}

		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}
		if err := db.Migrate(ctx, dbPool); err != nil {
			dbPool.Close()
			return storage{}, nil, fmt.Errorf("migrate db: %w", err)
		}

		collector := pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		)

		log.Infof("using postgres storage: %s:%s/%s", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)
		return storage{
			records:  exercises.NewRepo(dbPool),
			accounts: auth.NewAccountsRepo(dbPool),
			close: func() {
				log.Debugln("closing db pool ...")
				dbPool.Close() // blocking operation
				log.Debugln("db pool closed")
			},
		}, collector, nil
	}
}

func (s *Server) cleanupSessions(ctx context.Context) {
	ticker := time.NewTicker(sessionsCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.authService.ScanAndClean(ctx, time.Now())
		}
	}
}

// NewStandaloneAnalytics opens the configured storage and builds the analytics service over it,
// without the HTTP server and redis. The returned func closes the storage.
func NewStandaloneAnalytics(ctx context.Context, cfg *config.Config, postgresPassword string) (*mcp.AnalyticsService, func(), error) {
	st, _, err := openStorage(ctx, NewServerParams{
		Config:           cfg,
		PostgresPassword: postgresPassword,
	})
	if err != nil {
		return nil, nil, err
	}

	loc := cfg.Location()
	now := func() time.Time {
		return time.Now().In(loc)
	}
	exercisesService := exercises.NewService(st.records, nil, metrics.NewManager("liftlog", "mcp", prometheus.NewRegistry()), now)
	return mcp.NewAnalyticsService(exercisesService, now), st.close, nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	miscHandler := misc.NewHandler(s.versionInfo)
	miscHandler.SetupRoutes(r)

	authHandler := auth.NewHandler(s.authService)
	loginSubrouter := r.PathPrefix("/a").Subrouter()
	loginSubrouter.HandleFunc("/register", authHandler.HandleRegister).Methods("POST", "OPTIONS").Name("register")
	loginSubrouter.HandleFunc("/login", authHandler.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.HandleFunc("/logout", authHandler.HandleLogout).Methods("GET", "OPTIONS").Name("logout")
	// rate limit the login endpoints to prevent abuse
	loginSubrouter.Use(middleware.RateLimit(reqRateLimiter, "login", s.config.LoginRateLimitAllowedPerMin, s.metricsManager))

	exercisesHandler := exercises.NewHandler(s.exercisesService)
	createLimit := middleware.RateLimit(reqRateLimiter, "new-log", s.config.CreateLogRateLimitAllowedPerMin, s.metricsManager)
	r.Handle("/logs", createLimit(http.HandlerFunc(exercisesHandler.HandleCreate))).Methods("POST", "OPTIONS").Name("new-log")
	r.HandleFunc("/logs", exercisesHandler.HandleList).Methods("GET", "OPTIONS").Name("list-logs")
	r.HandleFunc("/catalog", exercisesHandler.HandleCatalog).Methods("GET", "OPTIONS").Name("catalog")

	dashboardHandler := dashboard.NewHandler(s.dashboardStore, s.exercisesService, s.config.AllowedOrigins, s.now)
	r.HandleFunc("/logs/history", dashboardHandler.HandleHistory).Methods("GET", "OPTIONS").Name("logs-history")
	r.HandleFunc("/logs/{id}", exercisesHandler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-log")
	r.HandleFunc("/exercises/best", dashboardHandler.HandlePreviousBest).Methods("GET", "OPTIONS").Name("previous-best")
	r.HandleFunc("/dashboard", dashboardHandler.HandleDashboard).Methods("GET", "OPTIONS").Name("dashboard")
	r.HandleFunc("/dashboard/stream", dashboardHandler.HandleStream).Methods("GET").Name("dashboard-stream")

	if s.mcpSecret != "" {
		mcpServer := mcp.NewServer(mcp.NewAnalyticsService(s.exercisesService, s.now), s.versionInfo)
		r.PathPrefix("/mcp").Handler(mcp.NewHTTPHandler(mcpServer, s.mcpSecret)).Name("mcp")
	} else {
		log.Warnln("mcp secret not set, /mcp endpoint disabled")
	}

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:     router,
		Addr:        ipAndPort,
		ReadTimeout: time.Minute,
		// no write timeout, the dashboard stream is a long lived connection
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{Registry: s.promRegistry},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:              metricsAddr,
		Handler:           metricsRouter,
		ReadHeaderTimeout: 10 * time.Second,
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

	if s.storage.close != nil {
		s.storage.close()
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}
