package router

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/notesvault/notesvault/internal/telemetry"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Handler is anything that can attach routes to the router.
type Handler interface {
	RegisterRoutes(router *mux.Router, logger *zap.Logger)
}

// Router assembles the HTTP surface: handler routes plus the shared
// middleware chain and the operational endpoints.
type Router struct {
	mux     *mux.Router
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewRouter creates a router with the given handlers and middleware.
func NewRouter(limiter *rate.Limiter, tel *telemetry.Telemetry, logger *zap.Logger, handlers []Handler) *Router {
	r := &Router{
		mux:     mux.NewRouter(),
		limiter: limiter,
		logger:  logger.Named("http"),
	}

	r.mux.Use(
		recoveryMiddleware(r.logger),
		requestIDMiddleware(),
		loggingMiddleware(r.logger),
		metricsMiddleware(tel),
		rateLimitMiddleware(limiter),
	)

	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	if tel != nil {
		r.mux.Handle("/metrics", tel.Handler()).Methods("GET")
	}

	for _, h := range handlers {
		h.RegisterRoutes(r.mux, logger)
	}
	return r
}

// ServeHTTP implements the http.Handler interface
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// CreateServer wraps the router in an http.Server with sane timeouts.
// Write timeout stays generous so large file downloads are not cut off.
func (r *Router) CreateServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}
}
