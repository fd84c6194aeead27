package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/athletedash/internal/athlete"
	"github.com/2beens/athletedash/internal/athlete/scoring"
	"github.com/2beens/athletedash/internal/cache"
	"github.com/2beens/athletedash/internal/chat"
	"github.com/2beens/athletedash/internal/config"
	"github.com/2beens/athletedash/internal/middleware"
	"github.com/2beens/athletedash/internal/misc"
	"github.com/2beens/athletedash/internal/telemetry/metrics"
	"github.com/2beens/athletedash/internal/telemetry/tracing"

	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis/extra/redisotel/v8"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName         = "athletedash-backend"
	maxRequestBodyBytes = 1 << 20
	shutdownTimeout     = 15 * time.Second
)

type Server struct {
	httpServer        *http.Server
	metricsHttpServer *http.Server
	versionInfo       string

	config      *config.Config
	redisClient *redis.Client
	rateLimiter middleware.RequestRateLimiter
	scorer      *scoring.Scorer
	scoreCache  *cache.FreeCache
	chatApi     *chat.Api

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()
}

type NewServerParams struct {
	Config                  *config.Config
	OpenAIAPIKey            string
	VersionInfo             string
	RedisPassword           string
	HoneycombTracingEnabled bool
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	cfg := params.Config
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	promRegistry := metrics.SetupPrometheus()
	metricsManager := metrics.NewManager("athletedash", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, serviceName)
	if err != nil {
		return nil, err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.RedisHost, cfg.RedisPort),
		Password: params.RedisPassword,
		DB:       0, // use default DB
	})
	rdb.AddHook(redisotel.NewTracingHook())

	// the rate limiter fails requests while redis is down, but the service can still start
	rdbStatus := rdb.Ping(ctx)
	if err := rdbStatus.Err(); err != nil {
		log.Errorf("--> failed to ping redis: %s", err)
	} else {
		log.Debugf("redis ping: %s", rdbStatus.Val())
	}

	calibration := scoring.DefaultCalibration()
	if cfg.ScoringCalibrationPath != "" {
		calibration, err = scoring.LoadCalibration(cfg.ScoringCalibrationPath)
		if err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("load scoring calibration: %w", err)
		}
		log.Infof("scoring calibration loaded from %s", cfg.ScoringCalibrationPath)
	}
	scorer, err := scoring.NewScorer(calibration)
	if err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("new scorer: %w", err)
	}

	if params.OpenAIAPIKey == "" {
		log.Errorf("chat api key not set, use OPENAI_API_KEY env var to set it; chat requests will fail")
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   cfg.Chat.Timeout.Duration,
	}

	return &Server{
		versionInfo: params.VersionInfo,
		config:      cfg,
		redisClient: rdb,
		rateLimiter: redis_rate.NewLimiter(rdb),
		scorer:      scorer,
		scoreCache:  cache.NewFreeCache(cfg.ScoreCacheSizeMB, cfg.ScoreCacheTTLSeconds, metricsManager),
		chatApi: chat.NewApi(chat.ApiParams{
			BaseURL:        cfg.Chat.BaseURL,
			APIKey:         params.OpenAIAPIKey,
			Model:          cfg.Chat.Model,
			SystemPrompt:   cfg.Chat.SystemPrompt,
			MaxTokens:      cfg.Chat.MaxTokens,
			Temperature:    cfg.Chat.Temperature,
			HttpClient:     tracedHttpClient,
			MetricsManager: metricsManager,
		}),

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}, nil
}

func (s *Server) routerSetup() *mux.Router {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	miscHandler := misc.NewHandler(s.versionInfo, nil)
	if s.redisClient != nil {
		miscHandler = misc.NewHandler(s.versionInfo, s.redisClient)
	}
	miscHandler.SetupRoutes(r)

	athleteHandler := athlete.NewHandler(s.scorer, s.scoreCache, s.metricsManager)
	athleteHandler.SetupRoutes(r)

	chatHandler := chat.NewHandler(s.chatApi)
	chatHandler.SetupRoutes(r, s.rateLimiter, s.config.Chat.RateLimitPerMinute, s.metricsManager)

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "OPTIONS").Name("unknown")

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors())
	r.Use(middleware.LimitRequestBody(maxRequestBodyBytes))
	r.Use(middleware.DrainAndCloseRequest())

	return r
}

// Serve runs the api and the metrics listeners until ctx is done or one of
// them fails. Both servers are shut down before it returns.
func (s *Server) Serve(ctx context.Context) error {
	ipAndPort := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	s.httpServer = &http.Server{
		Handler:      s.routerSetup(),
		Addr:         ipAndPort,
		WriteTimeout: time.Minute,
		ReadTimeout:  time.Minute,
		ConnState:    s.connStateMetrics,
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

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("main service, listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		if err := s.metricsHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics service, listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		s.shutdownHttpServers()
		return nil
	})

	s.metricsManager.GaugeLifeSignal.Set(1)
	return g.Wait()
}

func (s *Server) shutdownHttpServers() {
	s.metricsManager.GaugeLifeSignal.Set(0)

	ctx, timeoutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer timeoutCancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Errorf(" >>> failed to gracefully shutdown http server: %s", err)
	}
	log.Warnln("server shut down")

	if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
		log.Errorf(" >>> failed to gracefully shutdown metrics http server: %s", err)
	}
	log.Warnln("metrics server shut down")
}

// GracefulShutdown releases what NewServer acquired. Call it after Serve returned.
func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	if s.otelShutdown != nil {
		s.otelShutdown()
		log.Trace("otel shut down ...")
	}

	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			log.Errorf("failed to close redis client conn: %s", err)
		}
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed, http.StateHijacked:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
