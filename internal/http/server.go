package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bilancio/internal/cache"
	"bilancio/internal/ledger"
	"bilancio/internal/middleware/ratelimit"
	"bilancio/internal/middleware/trace"
	"bilancio/internal/services"
)

// Server is the JSON API surface. Writes go through the reconciler and the
// planner; reads go through the aggregator, with the dashboard aggregates
// cached and invalidated on every write.
type Server struct {
	http.Server

	reconciler *services.Reconciler
	planner    *services.Planner
	aggregator *services.Aggregator
	store      ledger.Store

	summaryCache *cache.LRUCache[summaryView]
	reportCache  *cache.LRUCache[[]plannedVsActualView]
	cacheManager *cache.Manager

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, store ledger.Store, reconciler *services.Reconciler, planner *services.Planner, aggregator *services.Aggregator, cacheTTL time.Duration) *Server {
	mux := http.NewServeMux()

	s := &Server{
		reconciler: reconciler,
		planner:    planner,
		aggregator: aggregator,
		store:      store,

		summaryCache: cache.NewLRUCache[summaryView](4, cacheTTL),
		reportCache:  cache.NewLRUCache[[]plannedVsActualView](4, cacheTTL),
		cacheManager: cache.NewManager(),

		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.Register(s.reportCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/expenses", s.handleExpenses)
	mux.HandleFunc("/expenses/", s.handleExpenseByID)
	mux.HandleFunc("/plans", s.handlePlans)
	mux.HandleFunc("/plans/current", s.handleCurrentPlan)
	mux.HandleFunc("/cashbooks", s.handleCashBooks)
	mux.HandleFunc("/groups", s.handleGroups)
	mux.HandleFunc("/groups/", s.handleGroupByID)
	mux.HandleFunc("/summary", s.handleSummary)
	mux.HandleFunc("/reports/planned-vs-actual", s.handlePlannedVsActual)
	mux.HandleFunc("/snapshot", s.handleSnapshot)

	traced := trace.NewMiddleware(trace.ExtractClientIP)
	s.Server = http.Server{
		Addr:              addr,
		Handler:           traced.Middleware(s.withWriteLimit(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// withWriteLimit rate-limits mutating requests per client IP. Reads pass
// through untouched.
func (s *Server) withWriteLimit(next http.Handler) http.Handler {
	limited := s.rateLimiter.Middleware(trace.ExtractClientIP, nil)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			limited.ServeHTTP(w, r)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// invalidateReadCaches drops the dashboard aggregates after any write, so the
// next read recomputes them from reconciled state.
func (s *Server) invalidateReadCaches() {
	s.summaryCache.Delete(summaryCacheKey)
	s.reportCache.Delete(reportCacheKey)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListCashBooks(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
