package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/2beens/athletedash/internal/middleware"
	"github.com/2beens/athletedash/internal/telemetry/metrics"
	"github.com/2beens/athletedash/internal/telemetry/tracing"
	"github.com/2beens/athletedash/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=chat_test

type completer interface {
	Complete(ctx context.Context, message string) (string, error)
	Model() string
}

type Request struct {
	Message string `json:"message"`
}

type Response struct {
	Response string `json:"response"`
}

type InfoResponse struct {
	Message string `json:"message"`
	Model   string `json:"model"`
}

const infoMessage = `Chat API is running. Send a POST request with {"message": "..."} to chat.`

type Handler struct {
	completer completer
}

func NewHandler(completer completer) *Handler {
	return &Handler{
		completer: completer,
	}
}

// SetupRoutes registers the chat routes. Only POST is rate limited.
func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) {
	rateLimit := middleware.RateLimit(rateLimiter, "chat", allowedPerMin, metricsManager)

	mainRouter.Handle("/api/chat", rateLimit(http.HandlerFunc(handler.HandleChat))).
		Methods("POST", "OPTIONS").Name("chat")
	mainRouter.HandleFunc("/api/chat", handler.HandleInfo).Methods("GET").Name("chat-info")
}

func (handler *Handler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "chatHandler.chat")
	defer span.End()

	var chatReq Request
	if err := json.NewDecoder(r.Body).Decode(&chatReq); err != nil {
		log.Debugf("chat: decode request body: %s", err)
		span.SetStatus(codes.Error, "invalid-body")
		pkg.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	message := strings.TrimSpace(chatReq.Message)
	if message == "" {
		span.SetStatus(codes.Error, "missing-message")
		pkg.WriteJSONError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply, err := handler.completer.Complete(ctx, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		requestLog := log.WithField("request_id", middleware.RequestID(ctx))
		switch {
		case errors.Is(err, ErrMissingAPIKey):
			requestLog.Error("chat: api key not configured, set OPENAI_API_KEY")
			pkg.WriteJSONError(w, http.StatusInternalServerError, "chat is not configured")
		case errors.Is(err, ErrNoChoices):
			requestLog.Errorf("chat: %s", err)
			pkg.WriteJSONError(w, http.StatusInternalServerError, "no response from the model")
		default:
			requestLog.Errorf("chat: complete: %s", err)
			pkg.WriteJSONError(w, http.StatusInternalServerError, "failed to get a response")
		}
		return
	}

	span.SetStatus(codes.Ok, "ok")
	pkg.WriteJSON(w, http.StatusOK, Response{Response: reply})
}

func (handler *Handler) HandleInfo(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, http.StatusOK, InfoResponse{
		Message: infoMessage,
		Model:   handler.completer.Model(),
	})
}
