package fileserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"pykit/internal/logging"
)

// Options configures a file server.
type Options struct {
	// Addr is the host:port to bind, e.g. "localhost:4443".
	Addr string
	// RootDir is the directory served at /.
	RootDir string
	// TLSConfig enables HTTPS when set; without it the server refuses to
	// start.
	TLSConfig *tls.Config
	Logger    *slog.Logger
}

// Server serves a directory tree over HTTPS.
type Server struct {
	addr    string
	rootDir string
	tlsCfg  *tls.Config
	logger  *slog.Logger

	httpServer *http.Server
	listener   net.Listener
}

// New validates the options and builds a server.
func New(opts Options) (*Server, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("bind address is required")
	}
	if opts.RootDir == "" {
		return nil, fmt.Errorf("root directory is required")
	}
	if opts.TLSConfig == nil {
		return nil, fmt.Errorf("TLS configuration is required")
	}
	return &Server{
		addr:    opts.Addr,
		rootDir: opts.RootDir,
		tlsCfg:  opts.TLSConfig,
		logger:  logging.NewComponentLogger(opts.Logger, "fileserver"),
	}, nil
}

// URL returns the https URL of the bound listener. Valid after Start.
func (s *Server) URL() string {
	if s.listener == nil {
		return "https://" + s.addr
	}
	return "https://" + s.listener.Addr().String()
}

// Start binds the listener and begins serving in a background goroutine.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.addr, err)
	}
	s.listener = listener

	handler := s.logRequests(http.FileServer(http.Dir(s.rootDir)))
	s.httpServer = &http.Server{
		Handler:           handler,
		TLSConfig:         s.tlsCfg,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		err := s.httpServer.ServeTLS(listener, "", "")
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server stopped", logging.Error(err))
		}
	}()

	s.logger.Info("serving",
		logging.String("url", s.URL()),
		logging.String("root", s.rootDir),
	)
	return nil
}

// Serve runs until the context is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Shutdown()
}

// Shutdown drains in-flight requests with a short grace period.
func (s *Server) Shutdown() error {
	if s.httpServer == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.String("remote", r.RemoteAddr),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}
