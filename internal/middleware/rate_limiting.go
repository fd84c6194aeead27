package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/2beens/athletedash/internal/telemetry/metrics"
	"github.com/2beens/athletedash/pkg"

	"github.com/go-redis/redis_rate/v9"
	log "github.com/sirupsen/logrus"
)

type RequestRateLimiter interface {
	Allow(ctx context.Context, key string, limit redis_rate.Limit) (*redis_rate.Result, error)
}

// RateLimit allows allowedPerMin requests per minute and client ip on the
// routes of routerName. A non-positive limit disables limiting.
func RateLimit(
	rateLimiter RequestRateLimiter,
	routerName string,
	allowedPerMin int,
	metricsManager *metrics.Manager,
) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allowedPerMin <= 0 || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			clientIP, err := pkg.ReadUserIP(r)
			if err != nil {
				log.Warnf("rate limit [%s]: %s, using shared bucket", routerName, err)
				clientIP = "unknown"
			}

			res, err := rateLimiter.Allow(
				r.Context(),
				fmt.Sprintf("%s::%s", routerName, clientIP),
				redis_rate.PerMinute(allowedPerMin),
			)
			if err != nil {
				log.Errorf("rate limit [%s] allow: %s", routerName, err)
				pkg.WriteJSONError(w, http.StatusInternalServerError, "rate limit internal error")
				return
			}

			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if res.Allowed > 0 {
				next.ServeHTTP(w, r)
				return
			}

			if metricsManager != nil {
				metricsManager.CounterRateLimitedRequests.WithLabelValues(routerName).Inc()
			}

			retryAfter := int(math.Ceil(res.RetryAfter.Seconds()))
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			pkg.WriteJSONError(
				w,
				http.StatusTooManyRequests,
				fmt.Sprintf("retry after %d seconds", retryAfter),
			)
		})
	}
}
