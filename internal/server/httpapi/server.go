// Package httpapi serves the REST admin API used by the web dashboard.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/bizdash/bizsync/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

const shutdownTimeout = 5 * time.Second

type Options struct {
	Secret    string
	RateLimit string
	System    SystemService
	Documents DocumentService
	Users     UserService
	Logger    logging.Logger
}

// NewRouter builds the gin engine with logging, recovery, rate limiting
// and JWT auth on /api/v1.
func NewRouter(o Options) (*gin.Engine, error) {
	rate, err := limiter.NewRateFromFormatted(o.RateLimit)
	if err != nil {
		return nil, err
	}
	lim := limiter.New(memory.NewStore(), rate)
	logger := o.Logger.With("module", "http_api")

	h := &handler{system: o.System, documents: o.Documents, users: o.Users, logger: logger}

	r := gin.New()
	r.Use(RequestLogger(logger), gin.Recovery())
	if err := r.SetTrustedProxies(nil); err != nil {
		return nil, err
	}

	r.GET("/healthz", h.health)

	v1 := r.Group("/api/v1", RateLimit(logger, lim), BearerAuth([]byte(o.Secret)))
	v1.GET("/system/status", h.status)
	v1.PUT("/system/maintenance", RequireAdmin(), h.setMaintenance)
	v1.GET("/documents/:table", h.listDocuments)
	v1.PUT("/users/:id/role", RequireAdmin(), h.setRole)

	return r, nil
}

type HTTPServer struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewHTTPServer(address string, o Options) (*HTTPServer, error) {
	r, err := NewRouter(o)
	if err != nil {
		return nil, err
	}
	return &HTTPServer{address: address, handler: r, logger: o.Logger.With("module", "http_server")}, nil
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, lis)
}

func (s *HTTPServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := &http.Server{Handler: s.handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", lis.Addr().String())
	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
