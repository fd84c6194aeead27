package athlete

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/2beens/athletedash/internal/athlete/scoring"
	"github.com/2beens/athletedash/internal/cache"
	"github.com/2beens/athletedash/internal/middleware"
	"github.com/2beens/athletedash/internal/telemetry/metrics"
	"github.com/2beens/athletedash/internal/telemetry/tracing"
	"github.com/2beens/athletedash/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=athlete_test

type scorer interface {
	Score(in scoring.Input) (*scoring.Report, error)
	Rank(inputs []scoring.Input) ([]scoring.Report, error)
	Calibration() scoring.Calibration
}

const maxRankedAthletes = 500

var errTooManyAthletes = fmt.Errorf("%w: at most %d athletes per ranking", scoring.ErrInvalidInput, maxRankedAthletes)

type Handler struct {
	scorer         scorer
	cache          cache.Cache
	metricsManager *metrics.Manager
}

// NewHandler creates the calculator handler. Results are memoized in
// resultCache when it is not nil.
func NewHandler(
	scorer scorer,
	resultCache cache.Cache,
	metricsManager *metrics.Manager,
) *Handler {
	return &Handler{
		scorer:         scorer,
		cache:          resultCache,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/athlete/scores", handler.HandleScore).Methods("POST", "OPTIONS").Name("athlete-scores")
	router.HandleFunc("/athlete/scores/rank", handler.HandleRank).Methods("POST", "OPTIONS").Name("athlete-rank")
	router.HandleFunc("/athlete/ratios", handler.HandleRatios).Methods("POST", "OPTIONS").Name("athlete-ratios")
	router.HandleFunc("/athlete/calibration", handler.HandleCalibration).Methods("GET").Name("athlete-calibration")
}

func (handler *Handler) HandleScore(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "athleteHandler.score")
	var err error
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var in scoring.Input
	if err = json.NewDecoder(r.Body).Decode(&in); err != nil {
		handler.writeDecodeError(ctx, w, "score", err)
		return
	}
	span.SetAttributes(attribute.String("athlete.name", in.Name))

	var respBytes []byte
	respBytes, err = handler.memoized("score", in, func() (any, error) {
		return handler.scorer.Score(in)
	})
	if err != nil {
		handler.writeError(ctx, w, "score", err)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

// HandleRank scores a batch of athletes, best first.
func (handler *Handler) HandleRank(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "athleteHandler.rank")
	var err error
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var inputs []scoring.Input
	if err = json.NewDecoder(r.Body).Decode(&inputs); err != nil {
		handler.writeDecodeError(ctx, w, "rank", err)
		return
	}
	span.SetAttributes(attribute.Int("athlete.count", len(inputs)))

	if len(inputs) > maxRankedAthletes {
		err = errTooManyAthletes
		handler.writeError(ctx, w, "rank", err)
		return
	}

	var respBytes []byte
	respBytes, err = handler.memoized("rank", inputs, func() (any, error) {
		return handler.scorer.Rank(inputs)
	})
	if err != nil {
		handler.writeError(ctx, w, "rank", err)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) HandleRatios(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "athleteHandler.ratios")
	var err error
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	var in scoring.Input
	if err = json.NewDecoder(r.Body).Decode(&in); err != nil {
		handler.writeDecodeError(ctx, w, "ratios", err)
		return
	}

	var respBytes []byte
	respBytes, err = handler.memoized("ratios", in, func() (any, error) {
		return scoring.ComputeRatios(in)
	})
	if err != nil {
		handler.writeError(ctx, w, "ratios", err)
		return
	}

	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respBytes)
}

func (handler *Handler) HandleCalibration(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteJSON(w, http.StatusOK, handler.scorer.Calibration())
}

// memoized returns the JSON encoded result of compute for the given input.
// Scoring is a pure function of its input, so results are cached by the
// hash of the canonical input encoding.
func (handler *Handler) memoized(kind string, input any, compute func() (any, error)) ([]byte, error) {
	inputBytes, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("marshal %s input: %w", kind, err)
	}
	sum := sha256.Sum256(inputBytes)
	cacheKey := []byte(kind + "::" + hex.EncodeToString(sum[:]))

	if handler.cache != nil {
		if cached, found := handler.cache.Get(cacheKey); found {
			log.Tracef("%s result found in cache", kind)
			handler.countComputation(kind, "cached")
			return cached, nil
		}
	}

	result, err := compute()
	if err != nil {
		if errors.Is(err, scoring.ErrInvalidInput) {
			handler.countComputation(kind, "invalid")
		} else {
			handler.countComputation(kind, "error")
		}
		return nil, err
	}

	resultBytes, err := json.Marshal(result)
	if err != nil {
		handler.countComputation(kind, "error")
		return nil, fmt.Errorf("marshal %s result: %w", kind, err)
	}
	handler.countComputation(kind, "ok")

	if handler.cache != nil {
		handler.cache.Set(cacheKey, resultBytes)
	}

	return resultBytes, nil
}

func (handler *Handler) countComputation(kind, result string) {
	if handler.metricsManager == nil {
		return
	}
	handler.metricsManager.CounterScoreComputations.WithLabelValues(kind, result).Inc()
}

func (handler *Handler) writeDecodeError(ctx context.Context, w http.ResponseWriter, kind string, err error) {
	log.WithField("request_id", middleware.RequestID(ctx)).Debugf("%s: decode request body: %s", kind, err)
	handler.countComputation(kind, "invalid")
	pkg.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
}

func (handler *Handler) writeError(ctx context.Context, w http.ResponseWriter, kind string, err error) {
	if errors.Is(err, scoring.ErrInvalidInput) {
		pkg.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	log.WithField("request_id", middleware.RequestID(ctx)).Errorf("%s: %s", kind, err)
	pkg.WriteJSONError(w, http.StatusInternalServerError, "internal error")
}
