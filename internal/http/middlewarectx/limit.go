package middlewarectx

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/chapter-library/internal/http/response"
)

const (
	limitersSize = 10_000
	limitersTTL  = 10 * time.Minute
)

// RateLimitMiddleware ограничивает частоту запросов отдельно для каждого клиента.
// Клиент определяется по uid из контекста, без него по адресу.
// Давно не приходившие клиенты вытесняются из кэша ограничителей.
func RateLimitMiddleware(log *slog.Logger, limit rate.Limit, burst int) func(http.Handler) http.Handler {
	limiters := expirable.NewLRU[string, *rate.Limiter](limitersSize, nil, limitersTTL)
	// mu делает пару Get/Add атомарной: у клиента ровно один ограничитель.
	var mu sync.Mutex
	limiterFor := func(key string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		limiter, ok := limiters.Get(key)
		if !ok {
			limiter = rate.NewLimiter(limit, burst)
			limiters.Add(key, limiter)
		}
		return limiter
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientKey(r)
			if !limiterFor(key).Allow() {
				log.Warn("too many requests", slog.String("client", key))
				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, response.Error("too many requests"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if uid, ok := UserUIDFromContext(r.Context()); ok {
		return "user:" + uid
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "addr:" + host
}
