package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/2beens/athletedash/internal/telemetry/metrics"
	"github.com/2beens/athletedash/pkg"

	log "github.com/sirupsen/logrus"
)

func PanicRecovery(metricsManager *metrics.Manager) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(respWriter http.ResponseWriter, req *http.Request) {
			defer func() {
				if r := recover(); r != nil {
					log.WithField("request_id", RequestID(req.Context())).
						Errorf("http: panic serving %s: %v\n%s", req.URL.Path, r, debug.Stack())
					if metricsManager != nil {
						metricsManager.CounterHandleRequestPanic.Inc()
					}
					// headers might be out already, the client then sees a cut response
					pkg.WriteJSONError(respWriter, http.StatusInternalServerError, "internal error")
				}
			}()

			// handler call
			next.ServeHTTP(respWriter, req)
		})
	}
}
