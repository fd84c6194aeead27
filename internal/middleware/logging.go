package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/baggage"
)

const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// RequestID returns the id LogRequest assigned to the request, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// LogRequest tags every request with an id, taken from the X-Request-Id
// header when the caller sent a valid uuid. The id is echoed back, put in
// the otel baggage, and attached to the request log lines.
func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(requestID); err != nil {
				requestID = uuid.NewString()
			}
			w.Header().Set(RequestIDHeader, requestID)

			ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
			if member, err := baggage.NewMember("request_id", requestID); err == nil {
				if bag, err := baggage.FromContext(ctx).SetMember(member); err == nil {
					ctx = baggage.ContextWithBaggage(ctx, bag)
				}
			}

			entry := log.WithFields(log.Fields{
				"request_id": requestID,
				"method":     r.Method,
				"path":       r.URL.Path,
			})
			entry.Tracef(" ====> request [UA: %s]", r.Header.Get("User-Agent"))

			begin := time.Now()
			next.ServeHTTP(w, r.WithContext(ctx))
			entry.WithField("duration", time.Since(begin)).Trace(" <==== done")
		})
	}
}
