// package server exposes the library navigator over HTTP as JSON endpoints
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/embyx/internal/library"
	"github.com/desertthunder/embyx/internal/models"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that declares the route patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router defines the interface for HTTP routing and middleware management.
type Router interface {
	Use(middleware ...Middleware)                     // Use adds middleware to the router's middleware stack
	Handle(method, path string, handler http.Handler) // Handle registers a handler for the specified method and path
	Handler(handler Handler)                          // Handler registers a custom Handler implementation
	ServeHTTP(w http.ResponseWriter, r *http.Request) // ServeHTTP implements http.Handler for the entire router
}

// Navigator is the subset of [library.Library] served over HTTP.
type Navigator interface {
	RootRef() models.Ref
	Browse(ctx context.Context, uri string) ([]models.Ref, error)
	LookupMany(ctx context.Context, uris []string) (map[string][]models.Track, error)
	Search(ctx context.Context, q library.Query) (*models.SearchResult, error)
	Images(ctx context.Context, uris []string) (map[string][]models.Image, error)
	Distinct(ctx context.Context, field string) ([]string, error)
}

// Server is the HTTP front end of the navigator.
type Server struct {
	http   *http.Server
	logger *log.Logger
}

// New builds a [Server] listening on addr with the library routes and
// request logging installed.
func New(addr string, nav Navigator, logger *log.Logger) *Server {
	router := NewBasicRouter()
	router.Use(Recoverer(logger), RequestLogger(logger))
	NewLibraryHandler(nav).Register(router)

	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe blocks until the server stops. A graceful shutdown is not an error.
func (s *Server) ListenAndServe() error {
	s.logger.Info("listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
