package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"medibook/pkg/config"
	"medibook/pkg/contracts"
	"medibook/pkg/logger"
	"medibook/pkg/middleware"

	"github.com/julienschmidt/httprouter"
)

const idempotencyHeader = "Idempotency-Key"

// Application wires routing, the middleware stack and the HTTP server
// lifecycle. Health probes bypass the request middleware so a saturated
// rate limiter can never fail a liveness check.
type Application struct {
	cfg      *config.Config
	server   *http.Server
	limiter  *middleware.ActorRateLimiter
	store    *middleware.InMemoryIdempotencyStore
	log      *logger.Logger
	shutdown []func(ctx context.Context) error
}

func New(cfg *config.Config, healthHandler contracts.Handler, handlers ...contracts.Handler) *Application {
	healthRouter := httprouter.New()
	healthHandler.RegisterRoutes(healthRouter)

	appRouter := httprouter.New()
	for _, h := range handlers {
		h.RegisterRoutes(appRouter)
	}

	store := middleware.NewInMemoryIdempotencyStore(cfg.IdempotencyTTL)
	limiter := middleware.NewActorRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, middleware.DefaultActorExtractor, cfg.Log)

	// Outermost first.
	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(cfg.Log),
		middleware.RequestLogging(cfg.Log),
		middleware.RequestTimeout(cfg.RequestTimeout),
		middleware.ActorRateLimit(limiter),
		middleware.ContentTypeValidation(cfg.Log),
		middleware.MaxRequestSize(int64(cfg.MaxRequestSize)),
		middleware.Idempotency(store, idempotencyHeader),
	}
	var appHandler http.Handler = appRouter
	for i := len(chain) - 1; i >= 0; i-- {
		appHandler = chain[i](appHandler)
	}

	var healthChain http.Handler = healthRouter
	healthChain = middleware.RequestLogging(cfg.Log)(healthChain)
	healthChain = middleware.Recovery(cfg.Log)(healthChain)

	mux := http.NewServeMux()
	mux.Handle("/health", healthChain)
	mux.Handle("/ready", healthChain)
	mux.Handle("/", appHandler)

	return &Application{
		cfg: cfg,
		server: &http.Server{
			Addr:         ":" + cfg.Port,
			Handler:      mux,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		limiter: limiter,
		store:   store,
		log:     cfg.Log,
	}
}

// OnShutdown registers a hook that runs after the HTTP server has
// drained, in registration order. Used for producer and client teardown.
func (a *Application) OnShutdown(fn func(ctx context.Context) error) {
	a.shutdown = append(a.shutdown, fn)
}

// Run serves until SIGINT/SIGTERM, then drains in-flight requests and
// runs the shutdown hooks.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	a.log.Info("server listening", "port", a.cfg.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		a.log.Info("shutdown signal received", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	a.limiter.Stop()
	a.store.Stop()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("server shutdown did not complete cleanly", "error", err)
		return err
	}

	for _, hook := range a.shutdown {
		if err := hook(ctx); err != nil {
			a.log.Error("shutdown hook failed", "error", err)
		}
	}

	a.log.Info("server stopped")
	return nil
}
