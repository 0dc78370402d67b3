package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/schoolcrew/internal/config"
	"github.com/nao1215/schoolcrew/internal/crew"
	"github.com/nao1215/schoolcrew/internal/model"
)

// DefaultShutdownTimeout bounds graceful shutdown.
const DefaultShutdownTimeout = 10 * time.Second

// CrewFactory builds the crew for one request.
type CrewFactory func() (crew.Kicker, error)

// History is the subset of the history store the server needs.
type History interface {
	Save(ctx context.Context, rec *model.SearchRecord) error
	Latest(ctx context.Context, kind string, limit int) ([]model.SearchRecord, error)
}

// Server is the HTTP API server.
type Server struct {
	newCrew         CrewFactory
	history         History
	logger          *slog.Logger
	addr            string
	historyLimit    int
	shutdownTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. slog.Default() is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithHistory enables saving searches and the /history route.
func WithHistory(h History) Option {
	return func(s *Server) {
		s.history = h
	}
}

// WithAddress sets the listen address.
func WithAddress(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithHistoryLimit sets the default number of entries returned by /history.
func WithHistoryLimit(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithShutdownTimeout sets how long in-flight requests may take after
// shutdown starts.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.shutdownTimeout = d
	}
}

// NewServer creates a server that builds crews with newCrew.
func NewServer(newCrew CrewFactory, opts ...Option) *Server {
	s := &Server{
		newCrew:         newCrew,
		addr:            config.DefaultListenAddress,
		historyLimit:    config.DefaultHistoryLimit,
		shutdownTimeout: DefaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Handler returns the routed handler with request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /search-schools", s.handleSearch)
	mux.HandleFunc("GET /search-schools/{location}", s.handleSimpleSearch)
	mux.HandleFunc("GET /curricula", s.handleCurricula)
	mux.HandleFunc("GET /grades", s.handleGrades)
	mux.HandleFunc("GET /history", s.handleHistory)
	return s.withRequestID(s.withLogging(mux))
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("api server listening", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		s.logger.Info("shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
