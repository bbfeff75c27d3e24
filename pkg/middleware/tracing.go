package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/tracing"
)

// Tracing opens a root span per request. The span tree is logged at debug
// level, or at warn when the request took at least slow.
func Tracing(slow time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.Start(r.Context(), r.Method+" "+normalizePath(r.URL.Path))
			next.ServeHTTP(w, r.WithContext(ctx))
			span.End()

			level := slog.LevelDebug
			if slow > 0 && span.Duration() >= slow {
				level = slog.LevelWarn
			}
			log := logger.FromContext(ctx)
			if log.Enabled(ctx, level) {
				span.Log(ctx, log, level)
			}
		})
	}
}
