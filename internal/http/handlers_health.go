package httpx

import (
	"context"
	"io"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

const healthResponse = `{"status":"ok"}`

// healthHandler returns a simple 200 OK status for liveness checks.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}

// ReadinessCheck pings one dependency.
type ReadinessCheck func(ctx context.Context) error

// readinessTimeout bounds the whole readiness probe.
const readinessTimeout = 2 * time.Second

// readyHandler runs every check concurrently and reports each result.
func readyHandler(checks map[string]ReadinessCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make(map[string]string, len(checks))
		errs := make([]error, len(checks))
		names := make([]string, 0, len(checks))
		for name := range checks {
			names = append(names, name)
		}

		var g errgroup.Group
		for i, name := range names {
			check := checks[name]
			g.Go(func() error {
				errs[i] = check(ctx)
				return nil
			})
		}
		_ = g.Wait()

		status := http.StatusOK
		for i, name := range names {
			if errs[i] != nil {
				results[name] = errs[i].Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		WriteJSON(w, status, map[string]any{"checks": results})
	}
}
