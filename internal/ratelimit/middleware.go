package ratelimit

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"

	"bookmarks/internal/models"
)

// Header names written by Middleware.
const (
	HeaderLimit      = "X-RateLimit-Limit"
	HeaderRemaining  = "X-RateLimit-Remaining"
	HeaderReset      = "X-RateLimit-Reset"
	HeaderRetryAfter = "Retry-After"
)

// Middleware enforces tiers per client IP. Admitted requests carry the quota
// headers of the most restrictive tier, computed after the event is recorded.
// Denied requests get 429 and never reach next. Store failures yield 503.
func Middleware(limiter *Limiter, tiers ...Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(tiers) == 0 {
				next.ServeHTTP(w, r)
				return
			}

			identity := ClientIP(r)

			decision, err := limiter.AllowAll(r.Context(), tiers, identity)
			if err != nil {
				slog.Error("Rate limiter unavailable", "client_ip", identity, "path", r.URL.Path, "error", err)
				writeError(w, http.StatusServiceUnavailable, "Rate limiter unavailable", models.ErrorCodeServiceUnavailable)
				return
			}

			if states, err := limiter.States(r.Context(), tiers, identity); err != nil {
				slog.Warn("Failed to read rate limit state", "client_ip", identity, "error", err)
			} else {
				SetHeaders(w.Header(), states)
			}

			if !decision.Allowed {
				retryAfter := max(int(math.Ceil(decision.RetryAfter.Seconds())), 1)
				w.Header().Set(HeaderRetryAfter, strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "Rate limit exceeded", models.ErrorCodeRateLimited)

				slog.Warn("Rate limit exceeded",
					"client_ip", identity,
					"scopes", decision.Denied,
					"retry_after", retryAfter,
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SetHeaders writes the quota headers of the most restrictive state. Nothing
// is written for an empty input.
func SetHeaders(h http.Header, states []Info) {
	info, ok := MostRestrictive(states)
	if !ok {
		return
	}
	h.Set(HeaderLimit, strconv.Itoa(info.Limit))
	h.Set(HeaderRemaining, strconv.Itoa(info.Remaining))
	h.Set(HeaderReset, strconv.FormatInt(info.ResetAt, 10))
}

// IsUnavailable reports whether err came from a failing window store.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// ClientIP returns the first X-Forwarded-For entry, falling back to the host
// part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(models.NewErrorResponse(message, code))
}
