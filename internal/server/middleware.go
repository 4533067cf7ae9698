package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/BradleyExton/canpoli-api/internal/counter"
	"github.com/BradleyExton/canpoli-api/internal/keys"
	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/observability/metrics"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

type contextKey string

const contextKeyMeter contextKey = "meter"

// meterContext is attached to requests authenticated by API key so the
// usage hook can attribute the call to a billing period.
type meterContext struct {
	apiKeyID    string
	periodStart *time.Time
	periodEnd   *time.Time
}

// clientIP prefers the first X-Forwarded-For hop, then the peer address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if first != "" {
			return first
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// accessControl is the data-endpoint gate: API-key auth with subscription
// check and the paid rate limit, or the IP-based free limit when no key
// header is present.
func (s *Server) accessControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if header == "" {
			identity := "ip:" + clientIP(r)
			if !s.allowRate(r.Context(), w, identity, s.Cfg.FreeRateLimitPerMinute, "free") {
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		if s.Cfg.APIKeyHMACSecret == "" {
			s.Log.Error("api key presented but API_KEY_HMAC_SECRET is not configured")
			respondDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}

		apiKeys := repo.NewApiKeys(s.DB)
		key, err := apiKeys.GetByHash(r.Context(), keys.Hash(header, s.Cfg.APIKeyHMACSecret))
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if key == nil {
			respondDetail(w, http.StatusUnauthorized, "Invalid API key")
			return
		}
		if !key.Active {
			respondDetail(w, http.StatusForbidden, "API key inactive")
			return
		}

		billing, err := repo.NewBillings(s.DB).GetByUserID(r.Context(), key.UserID)
		if err != nil {
			respondDetail(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if billing == nil || billing.Status == nil || !models.SubscriptionActive(*billing.Status) {
			respondDetail(w, http.StatusForbidden, "Subscription inactive")
			return
		}

		if !s.allowRate(r.Context(), w, "key:"+key.ID, s.Cfg.PaidRateLimitPerMinute, "paid") {
			return
		}

		// Best effort; a failed stamp must not fail the request.
		if err := apiKeys.TouchLastUsed(r.Context(), key.ID, s.Now().UTC()); err != nil {
			s.Log.Warn("failed to stamp api key usage", "error", err.Error())
		}

		meter := &meterContext{
			apiKeyID:    key.ID,
			periodStart: billing.CurrentPeriodStart,
			periodEnd:   billing.CurrentPeriodEnd,
		}
		ctx := context.WithValue(r.Context(), contextKeyMeter, meter)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// allowRate applies the fixed-window counter. Bursts across window edges
// are accepted by design of the window scheme.
func (s *Server) allowRate(ctx context.Context, w http.ResponseWriter, identity string, limit int, tier string) bool {
	window := s.Now().Unix() / 60
	key := fmt.Sprintf("ratelimit:%s:%d", identity, window)

	count, err := s.Store.Incr(ctx, key)
	if err != nil {
		// A broken counter store must not take the API down.
		s.Log.Error("rate limit counter failed", "error", err.Error())
		return true
	}
	if count == 1 {
		if err := s.Store.Expire(ctx, key, time.Minute); err != nil {
			s.Log.Warn("rate limit expire failed", "error", err.Error())
		}
	}
	if count > int64(limit) {
		metrics.API().RateLimited(tier)
		respondDetail(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return false
	}
	return true
}

// statusRecorder captures the response status for the usage hook and the
// request metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (rec *statusRecorder) Write(b []byte) (int, error) {
	if rec.status == 0 {
		rec.status = http.StatusOK
	}
	return rec.ResponseWriter.Write(b)
}

// usageMetering increments the per-key billing-period counter after
// successful responses. Metering failures never affect the response.
func (s *Server) usageMetering(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		if status >= 400 {
			return
		}
		meter, ok := r.Context().Value(contextKeyMeter).(*meterContext)
		if !ok || meter == nil || meter.periodStart == nil {
			return
		}

		periodTS := meter.periodStart.Unix()
		key := fmt.Sprintf("usage:%s:%d", meter.apiKeyID, periodTS)
		count, err := s.Store.Incr(r.Context(), key)
		if err != nil {
			s.Log.Warn("failed to record usage", "error", err.Error())
			return
		}
		if count == 1 {
			ttl := 35 * 24 * time.Hour
			if meter.periodEnd != nil {
				remaining := meter.periodEnd.Unix() - s.Now().Unix() + 86400
				if remaining < 60 {
					remaining = 60
				}
				ttl = time.Duration(remaining) * time.Second
			}
			if err := s.Store.Expire(r.Context(), key, ttl); err != nil {
				s.Log.Warn("failed to expire usage counter", "error", err.Error())
			}
		}
	})
}

// UsageCount reads the metered total for a key and period start.
func UsageCount(ctx context.Context, store counter.Store, apiKeyID string, periodStart time.Time) (int64, error) {
	key := fmt.Sprintf("usage:%s:%d", apiKeyID, periodStart.Unix())
	value, err := store.Get(ctx, key)
	if err == counter.ErrNil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var count int64
	if _, err := fmt.Sscanf(value, "%d", &count); err != nil {
		return 0, err
	}
	return count, nil
}

// requestMetrics records counter and latency samples per route.
func (s *Server) requestMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := s.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)
		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		metrics.API().Observe(r.URL.Path, r.Method, status, time.Since(started))
	})
}

// cors applies the allowed origins: configured origins with credentials,
// or a permissive wildcard without credentials when no origins are
// configured, whatever the environment.
func (s *Server) cors(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(s.Cfg.CORSOrigins))
	for _, origin := range s.Cfg.CORSOrigins {
		allowed[origin] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			if len(allowed) == 0 {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else if _, ok := allowed[origin]; ok {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
