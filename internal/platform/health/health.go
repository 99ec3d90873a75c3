// Package health aggregates dependency liveness for the /healthz endpoint.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const checkTimeout = 2 * time.Second

// Check probes one dependency.
type Check func(ctx context.Context) error

// Checker runs named dependency probes in parallel with shared cancellation.
type Checker struct {
	mu     sync.Mutex
	checks map[string]Check
}

func NewChecker() *Checker {
	return &Checker{checks: make(map[string]Check)}
}

// Register adds a named probe. Nil checks are ignored so callers can pass
// optional dependencies straight through.
func (c *Checker) Register(name string, check Check) {
	if check == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

// Run probes every registered dependency and returns per-dependency status.
func (c *Checker) Run(ctx context.Context) (map[string]string, bool) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	c.mu.Lock()
	checks := make(map[string]Check, len(c.checks))
	for name, check := range c.checks {
		checks[name] = check
	}
	c.mu.Unlock()

	var resultMu sync.Mutex
	results := make(map[string]string, len(checks))
	healthy := true

	g, ctx := errgroup.WithContext(ctx)
	for name, check := range checks {
		g.Go(func() error {
			err := check(ctx)
			resultMu.Lock()
			defer resultMu.Unlock()
			if err != nil {
				results[name] = err.Error()
				healthy = false
			} else {
				results[name] = "ok"
			}
			// Always probe every dependency; a failure should not cancel
			// sibling probes.
			return nil
		})
	}
	_ = g.Wait()

	return results, healthy
}

// Handler serves the aggregated health report.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, healthy := c.Run(r.Context())
		status := http.StatusOK
		if !healthy {
			status = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"healthy": healthy,
			"checks":  results,
		})
	}
}
