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
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/2beens/gymflow/internal/auth"
	"github.com/2beens/gymflow/internal/config"
	"github.com/2beens/gymflow/internal/db"
	"github.com/2beens/gymflow/internal/gymflow/capture"
	"github.com/2beens/gymflow/internal/gymflow/exercises"
	"github.com/2beens/gymflow/internal/gymflow/insights"
	gymflowmcp "github.com/2beens/gymflow/internal/gymflow/mcp"
	"github.com/2beens/gymflow/internal/gymflow/members"
	"github.com/2beens/gymflow/internal/gymflow/planner"
	"github.com/2beens/gymflow/internal/gymflow/sessions"
	"github.com/2beens/gymflow/internal/gymflow/storage"
	"github.com/2beens/gymflow/internal/gymflow/stt"
	"github.com/2beens/gymflow/internal/middleware"
	"github.com/2beens/gymflow/internal/telemetry/metrics"
	"github.com/2beens/gymflow/internal/telemetry/tracing"
	"github.com/2beens/gymflow/pkg"
)

const authCleanupInterval = 8 * time.Hour

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string
	mcpSecret         string // X-MCP-Secret of MCP clients on /mcp

	config     *config.Config
	dbPool     *pgxpool.Pool
	store      storage.Store
	schemaRepo gymflowmcp.SchemaRepo

	speech           capture.SpeechCapture
	insightsProvider insights.Provider

	redisClient  *redis.Client
	loginChecker auth.Checker
	authService  *auth.Service

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
	stopCleanup    context.CancelFunc
}

type NewServerParams struct {
	Config                  *config.Config
	VersionInfo             string
	AdminUsername           string
	AdminPasswordHash       string
	RedisPassword           string
	MCPSecret               string
	STTAPIKey               string
	LLMAPIKey               string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	poolParams := db.NewDBPoolParams{
		DBHost:         cfg.PostgresHost,
		DBPort:         cfg.PostgresPort,
		DBName:         cfg.PostgresDBName,
		TracingEnabled: params.HoneycombTracingEnabled,
	}
	dbPool, err := db.NewDBPool(ctx, poolParams)
	if err != nil {
		return nil, fmt.Errorf("new db pool: %w", err)
	}

	if err := dbPool.Ping(ctx); err != nil {
		log.Warnf("failed to ping db: %s", err)
	}

	if cfg.RunMigrations {
		if err := db.RunMigrations(poolParams.ConnString()); err != nil {
			dbPool.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	pgxpoolCollector := pgxpoolprometheus.NewCollector(
		dbPool,
		map[string]string{"db_name": cfg.PostgresDBName},
	)
	promRegistry := metrics.SetupPrometheus(pgxpoolCollector)
	metricsManager := metrics.NewManager("gymflow", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0,
	})
	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gymflow-backend", rdb)
	if err != nil {
		dbPool.Close()
		return nil, err
	}

	store := storage.NewPGStore(dbPool)
	library, err := exercises.Library()
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("load exercise library: %w", err)
	}
	added, err := exercises.Seed(ctx, store, library)
	if err != nil {
		dbPool.Close()
		return nil, fmt.Errorf("seed exercise library: %w", err)
	}
	log.Debugf("exercise library seeded, %d new exercises", added)

	authService := auth.NewAuthService(&auth.Admin{
		Username:     params.AdminUsername,
		PasswordHash: params.AdminPasswordHash,
	}, auth.DefaultTTL, rdb)
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	go authService.RunCleanup(cleanupCtx, authCleanupInterval)

	return &Server{
		config:           cfg,
		versionInfo:      params.VersionInfo,
		mcpSecret:        params.MCPSecret,
		dbPool:           dbPool,
		store:            store,
		schemaRepo:       gymflowmcp.NewPoolSchemaRepo(dbPool),
		speech:           newSpeechCapture(cfg.STT, params.STTAPIKey),
		insightsProvider: newInsightsProvider(cfg.LLM, params.LLMAPIKey),

		redisClient:  rdb,
		authService:  authService,
		loginChecker: auth.NewLoginChecker(auth.DefaultTTL, rdb),

		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
		stopCleanup:    stopCleanup,
	}, nil
}

// newSpeechCapture is unavailable speech, and thus manual entry only, when no
// STT key is set.
func newSpeechCapture(cfg config.STT, apiKey string) capture.SpeechCapture {
	if apiKey == "" {
		log.Warnln("stt api key not set, speech capture disabled, set GYMFLOW_STT_API_KEY to enable it")
		return capture.UnavailableSpeech{}
	}
	client, err := stt.NewClient(stt.ClientParams{
		BaseURL:           cfg.BaseURL,
		APIKey:            apiKey,
		Model:             cfg.Model,
		Language:          cfg.Language,
		Timeout:           time.Duration(cfg.TimeoutSeconds) * time.Second,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		log.Errorf("stt client: %s, speech capture disabled", err)
		return capture.UnavailableSpeech{}
	}
	return capture.NewSpeechCapture(client)
}

func newInsightsProvider(cfg config.LLM, apiKey string) insights.Provider {
	if apiKey == "" {
		log.Warnln("llm api key not set, insights and scans disabled, set GYMFLOW_LLM_API_KEY to enable them")
		return nil
	}
	provider, err := insights.NewProvider(insights.ProviderConfig{
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		APIKey:    apiKey,
		BaseURL:   cfg.BaseURL,
		MaxTokens: cfg.MaxTokens,
		Timeout:   time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Errorf("llm provider: %s, insights and scans disabled", err)
		return nil
	}
	return provider
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("gymflow-router"))

	reqRateLimiter := redis_rate.NewLimiter(s.redisClient)

	r.HandleFunc("/version", s.handleVersion).Methods("GET").Name("version")

	auth.NewHandler(s.authService).SetupRoutes(r,
		middleware.RateLimit(reqRateLimiter, "login", s.config.LoginRateLimitAllowedPerMin, s.metricsManager),
	)

	members.NewHandler(s.store).SetupRoutes(r)

	catalog := exercises.NewCatalog(s.store)
	exercises.NewHandler(catalog).SetupRoutes(r)

	drafts := planner.NewDraftStore(time.Duration(s.config.DraftTTLMinutes) * time.Minute)
	planner.NewHandler(planner.NewPlanner(drafts, catalog, s.store)).SetupRoutes(r)

	history := sessions.NewHistory(s.store)
	flow := capture.NewFlow(s.speech, time.Duration(s.config.CaptureTimeoutSeconds)*time.Second)
	recorder := sessions.NewRecorder(s.store, flow, s.metricsManager)
	sessions.NewHandler(recorder, history).SetupRoutes(r)

	insightsService := insights.NewService(insights.ServiceParams{
		Provider:          s.insightsProvider,
		Store:             s.store,
		History:           history,
		Exercises:         catalog,
		Metrics:           s.metricsManager,
		CacheSizeMB:       s.config.InsightsCacheSizeMB,
		CacheTTLSeconds:   s.config.InsightsCacheTTLSeconds,
		RequestsPerSecond: s.config.LLM.RequestsPerSecond,
	})
	insights.NewHandler(insightsService).SetupRoutes(r,
		middleware.RateLimit(reqRateLimiter, "insights", s.config.InsightsRateLimitAllowedPerMin, s.metricsManager),
	)

	mcpServer := gymflowmcp.NewServer(s.schemaRepo, s.store)
	mcpHandler := mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return mcpServer
	}, nil)
	r.PathPrefix("/mcp").Handler(mcpHandler).Name("mcp")

	authMiddleware := middleware.NewAuthMiddlewareHandler(s.mcpSecret, s.loginChecker)

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.CorsAllowedOrigins))
	r.Use(authMiddleware.AuthCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "server.version")
	defer span.End()
	pkg.WriteTextResponseOK(w, s.versionInfo)
}

func (s *Server) Serve(host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:           router,
		Addr:              ipAndPort,
		WriteTimeout:      2 * time.Minute, // scans and insights wait on the model
		ReadTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(s.promRegistry, promhttp.HandlerOpts{}))
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
			log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
		}
		log.Warnln("server shut down")
	}
	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
		}
		log.Warnln("metrics server shut down")
	}

	if s.stopCleanup != nil {
		s.stopCleanup()
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
