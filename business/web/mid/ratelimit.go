package mid

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/psinfinity/infinitychain/business/web/errs"
	"github.com/psinfinity/infinitychain/foundation/web"
)

// ErrRateLimited is returned to clients exceeding their request allowance.
var ErrRateLimited = errors.New("too many requests")

// RateLimit applies a token bucket per client address. Buckets are created
// lazily and never expire; for a node API the client set is small enough
// that this is acceptable.
func RateLimit(rps rate.Limit, burst int) web.Middleware {
	var mu sync.Mutex
	buckets := make(map[string]*rate.Limiter)

	limiter := func(addr string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()

		l, exists := buckets[addr]
		if !exists {
			l = rate.NewLimiter(rps, burst)
			buckets[addr] = l
		}
		return l
	}

	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			host, _, err := net.SplitHostPort(r.RemoteAddr)
			if err != nil {
				host = r.RemoteAddr
			}

			if !limiter(host).Allow() {
				return errs.NewTrusted(ErrRateLimited, http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}

		return h
	}

	return m
}
