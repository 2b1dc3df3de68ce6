package mid

import (
	"context"
	"expvar"
	"net/http"
	"runtime"

	"github.com/psinfinity/infinitychain/foundation/web"
)

// metrics holds the expvar counters maintained by this middleware. The
// values are published once at package load and read via the debug mux.
var m = struct {
	goroutines *expvar.Int
	requests   *expvar.Int
	errors     *expvar.Int
}{
	goroutines: expvar.NewInt("goroutines"),
	requests:   expvar.NewInt("requests"),
	errors:     expvar.NewInt("errors"),
}

// Metrics updates program counters for every request flowing through.
func Metrics() web.Middleware {
	mw := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)

			m.requests.Add(1)

			// Capture the goroutine count every 100 requests so reading
			// expvar stays cheap.
			if m.requests.Value()%100 == 0 {
				m.goroutines.Set(int64(runtime.NumGoroutine()))
			}

			if err != nil {
				m.errors.Add(1)
			}

			return err
		}

		return h
	}

	return mw
}
