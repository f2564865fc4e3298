package handler

import (
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/startupnamer/vitals/internal/ratelimit"
)

// CORSMiddleware allows browser clients on any origin to beacon telemetry.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP resolves the reporting client's address behind proxies.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx > 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RateLimit admits at most limit requests per window per client IP. The
// scope keeps each policy's counters separate, so ingest traffic never
// consumes the monitoring budget. Trusted clients bypass the check entirely.
// Counting is approximate; it protects the store, it does not account.
func RateLimit(limiter ratelimit.Limiter, scope string, limit int, window time.Duration, trusted map[string]struct{}, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if _, ok := trusted[ip]; ok {
				next.ServeHTTP(w, r)
				return
			}

			decision := limiter.Allow(scope+":ip:"+ip, limit, window)
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			if !decision.Allowed {
				retryAfter := int(decision.RetryAfter.Seconds())
				if retryAfter <= 0 {
					retryAfter = int(window.Seconds())
				}
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				log.Warn().Str("ip", ip).Str("path", r.URL.Path).Msg("Rate limit exceeded")
				writeJSON(w, http.StatusTooManyRequests, map[string]any{
					"success":    false,
					"error":      "rate limit exceeded",
					"retryAfter": retryAfter,
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TrustedClients builds the bypass set from config.
func TrustedClients(ips []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ips))
	for _, ip := range ips {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			set[ip] = struct{}{}
		}
	}
	return set
}
