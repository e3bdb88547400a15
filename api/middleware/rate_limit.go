package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/disburse-labs/disburser-backend/api/responses"
	"github.com/disburse-labs/disburser-backend/pkg/config"
	pkgerrors "github.com/disburse-labs/disburser-backend/pkg/errors"
	"github.com/disburse-labs/disburser-backend/pkg/logger"
	pkgredis "github.com/disburse-labs/disburser-backend/pkg/redis"
)

// RateLimit applies a fixed-window cap to mutating calls, scoped per method
// and path. Reads pass through untouched. A nil limiter disables the guard,
// and a failing limiter check fails open so a Redis outage never blocks the
// pipeline.
func RateLimit(limiter pkgredis.RateLimiter, cfg config.RateLimitConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || r.Method == http.MethodGet {
				next.ServeHTTP(w, r)
				return
			}

			scope := strings.Join([]string{r.Method, r.URL.Path}, "|")
			allowed, count, err := limiter.FixedWindowAllow(r.Context(), scope, cfg.Requests, cfg.Window)
			if err != nil {
				logError(r.Context(), logg, "rate limit check", err)
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeRateLimit,
					fmt.Sprintf("rate limit exceeded after %d calls", count)))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
