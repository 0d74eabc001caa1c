// Package server wires the HTTP router and owns the listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"restaurant-pos/internal/logger"
	"restaurant-pos/internal/services/menu"
	"restaurant-pos/internal/services/order"
	"restaurant-pos/internal/store"
	"restaurant-pos/internal/web"
)

const rootMessage = "Restaurant POS API running 🚀"

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services the router dispatches to
type Deps struct {
	Store  store.Store
	Menu   *menu.Service
	Orders *order.Service
	Logger *logger.Logger
}

// NewRouter builds the full route table
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(web.WithLogging(deps.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, r, deps.Logger, http.StatusNotFound, web.ErrorResponse{Detail: "Not Found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, r, deps.Logger, http.StatusMethodNotAllowed, web.ErrorResponse{Detail: "Method Not Allowed"})
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		web.WriteJSON(w, r, deps.Logger, http.StatusOK, web.MessageResponse{Message: rootMessage})
	})
	r.Get("/health", healthCheck(deps.Store, deps.Logger))

	r.Route("/menu", menu.NewHandler(deps.Menu, deps.Logger).Routes)
	r.Route("/orders", order.NewHandler(deps.Orders, deps.Logger).Routes)

	return r
}

// healthCheck handles GET /health
func healthCheck(db Pinger, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		response := map[string]interface{}{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"service":   "restaurant-pos",
		}

		if err := db.Ping(ctx); err != nil {
			log.Error("health_check_failed", "Database ping failed", web.RequestID(r), err, nil)
			response["status"] = "unhealthy"
			web.WriteJSON(w, r, log, http.StatusServiceUnavailable, response)
			return
		}
		web.WriteJSON(w, r, log, http.StatusOK, response)
	}
}

// Server is the API HTTP listener
type Server struct {
	http   *http.Server
	logger *logger.Logger
}

// New creates a server listening on port
func New(port int, handler http.Handler, log *logger.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: log,
	}
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// at most shutdownTimeout
func (s *Server) Run(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("service_started", fmt.Sprintf("HTTP server listening on %s", s.http.Addr), "startup", map[string]interface{}{
			"addr": s.http.Addr,
		})
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("graceful_shutdown", "Shutting down HTTP server", "shutdown", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down HTTP server: %w", err)
	}
	return nil
}
