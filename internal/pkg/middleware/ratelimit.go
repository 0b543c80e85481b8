package middleware

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"pharmacart/internal/pkg/cache"
	"pharmacart/internal/pkg/logger"
)

// RateLimiter aplica uma janela fixa por IP usando contadores no cache.
// Falhas do cache não bloqueiam a requisição.
func RateLimiter(client cache.Client, limit int, period time.Duration, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				ip = r.RemoteAddr
			}
			key := "rate-limit:" + r.URL.Path + ":" + ip
			ctx := r.Context()

			count, err := client.GetInt(ctx, key)
			switch {
			case err == cache.ErrCacheMiss:
				if setErr := client.Set(ctx, key, 1, period); setErr != nil {
					log.Warn("Falha ao iniciar janela de rate limit.", map[string]interface{}{"key": key, "error": setErr.Error()})
				}
				w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(limit-1))
				next.ServeHTTP(w, r)
				return
			case err != nil:
				log.Warn("Cache indisponível para rate limit; liberando requisição.", map[string]interface{}{"error": err.Error()})
				next.ServeHTTP(w, r)
				return
			}

			if count >= limit {
				w.Header().Set("Retry-After", strconv.Itoa(int(period.Seconds())))
				http.Error(w, "Limite de requisições excedido", http.StatusTooManyRequests)
				return
			}

			n, err := client.Incr(ctx, key)
			if err != nil {
				n = int64(count + 1)
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(max(limit-int(n), 0)))
			next.ServeHTTP(w, r)
		})
	}
}
