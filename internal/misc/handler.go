package misc

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/athletedash/internal/telemetry/tracing"
	"github.com/2beens/athletedash/pkg"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const healthCheckTimeout = 2 * time.Second

type redisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

type HealthResponse struct {
	Status string `json:"status"`
	Redis  string `json:"redis"`
}

type Handler struct {
	versionInfo string
	redisClient redisPinger
}

// NewHandler creates the handler for the service level routes. redisClient
// can be nil when the service runs without redis.
func NewHandler(versionInfo string, redisClient redisPinger) *Handler {
	return &Handler{
		versionInfo: versionInfo,
		redisClient: redisClient,
	}
}

func (handler *Handler) SetupRoutes(mainRouter *mux.Router) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "POST", "OPTIONS").Name("root")
	mainRouter.HandleFunc("/version", handler.handleGetVersionInfo).Methods("GET").Name("version")
	mainRouter.HandleFunc("/myip", handler.handleGetMyIp).Methods("GET").Name("myip")
	mainRouter.HandleFunc("/health", handler.handleHealth).Methods("GET").Name("health")
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "I'm OK, thanks ;)")
}

func (handler *Handler) handleGetVersionInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, handler.versionInfo)
}

func (handler *Handler) handleGetMyIp(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.getMyIp")
	defer span.End()

	ip, err := pkg.ReadUserIP(r)
	if err != nil {
		span.SetStatus(codes.Error, fmt.Sprintf("failed to get user IP address: %s", err))
		log.Errorf("failed to get user IP address: %s", err)
		http.Error(w, "failed to get IP", http.StatusInternalServerError)
		return
	}

	span.SetAttributes(attribute.String("user.ip", ip))
	pkg.WriteTextResponseOK(w, ip)
}

// handleHealth reports 503 when redis, which backs the rate limiter, is down.
func (handler *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "miscHandler.health")
	defer span.End()

	if handler.redisClient == nil {
		pkg.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Redis: "disabled"})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	pong, err := handler.redisClient.Ping(ctx).Result()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "redis ping failed")
		log.Errorf("health: redis ping: %s", err)
		pkg.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable", Redis: err.Error()})
		return
	}

	span.SetStatus(codes.Ok, "healthy")
	pkg.WriteJSON(w, http.StatusOK, HealthResponse{Status: "ok", Redis: pong})
}
