// Package observability provides hooks for metrics and tracing.
//
// Library packages emit events through the hook interfaces defined here and
// never import a metrics backend. The binary registers concrete hooks at
// startup (the HTTP server registers Prometheus collectors); everything else
// sees the no-op defaults.
//
// # Usage
//
// Register hooks at application startup:
//
//	func main() {
//	    observability.SetSolveHooks(metrics)
//	    observability.SetCacheHooks(metrics)
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Solve().OnSolveStart(ctx, len(goals), len(roots))
//	// ... build model, solve, tier ...
//	observability.Solve().OnSolveComplete(ctx, SolveResult{...})
package observability

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// SolveResult summarizes one finished solve.
type SolveResult struct {
	Status      string // LP status, e.g. "OPTIMAL"
	Variables   int
	Constraints int
	Recipes     int // selected recipes
	Tiers       int
	Deadlock    bool
	Duration    time.Duration
	Err         error
}

// SolveHooks receives events from the production planner.
type SolveHooks interface {
	OnSolveStart(ctx context.Context, goals, roots int)

	// OnModelBuilt fires after frontier expansion, before the LP solve.
	OnModelBuilt(ctx context.Context, variables, constraints int, duration time.Duration)

	OnSolveComplete(ctx context.Context, result SolveResult)
}

// CacheHooks receives events from cache operations.
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// HTTPHooks receives events from the API server.
type HTTPHooks interface {
	// OnResponse records a served request. Route is the matched pattern,
	// not the raw path, so job ids do not explode label cardinality.
	OnResponse(ctx context.Context, method, route string, statusCode int, duration time.Duration)
}

// NoopSolveHooks is a no-op implementation of SolveHooks.
type NoopSolveHooks struct{}

func (NoopSolveHooks) OnSolveStart(context.Context, int, int)                {}
func (NoopSolveHooks) OnModelBuilt(context.Context, int, int, time.Duration) {}
func (NoopSolveHooks) OnSolveComplete(context.Context, SolveResult)          {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

// NoopHTTPHooks is a no-op implementation of HTTPHooks.
type NoopHTTPHooks struct{}

func (NoopHTTPHooks) OnResponse(context.Context, string, string, int, time.Duration) {}

// hookSet is swapped as a whole so readers never see a half-updated
// registry.
type hookSet struct {
	solve SolveHooks
	cache CacheHooks
	http  HTTPHooks
}

var (
	current atomic.Pointer[hookSet]
	writeMu sync.Mutex
)

func init() { Reset() }

func update(fn func(*hookSet)) {
	writeMu.Lock()
	defer writeMu.Unlock()
	next := *current.Load()
	fn(&next)
	current.Store(&next)
}

// SetSolveHooks registers planner hooks. Nil is ignored.
func SetSolveHooks(h SolveHooks) {
	if h != nil {
		update(func(s *hookSet) { s.solve = h })
	}
}

// SetCacheHooks registers cache hooks. Nil is ignored.
func SetCacheHooks(h CacheHooks) {
	if h != nil {
		update(func(s *hookSet) { s.cache = h })
	}
}

// SetHTTPHooks registers API server hooks. Nil is ignored.
func SetHTTPHooks(h HTTPHooks) {
	if h != nil {
		update(func(s *hookSet) { s.http = h })
	}
}

func Solve() SolveHooks { return current.Load().solve }
func Cache() CacheHooks { return current.Load().cache }
func HTTP() HTTPHooks   { return current.Load().http }

// Reset restores the no-op hooks. Tests that install metrics call it in
// cleanup.
func Reset() {
	writeMu.Lock()
	defer writeMu.Unlock()
	current.Store(&hookSet{
		solve: NoopSolveHooks{},
		cache: NoopCacheHooks{},
		http:  NoopHTTPHooks{},
	})
}
