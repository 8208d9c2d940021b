// Package grpc exposes the sync service over gRPC.
package grpc

import (
	"context"
	"net"

	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/records"
	"github.com/bizdash/bizsync/internal/rpc"
	"github.com/bizdash/bizsync/internal/server/auth"
	"github.com/bizdash/bizsync/internal/server/models"
	"github.com/bizdash/bizsync/internal/server/services"
	"google.golang.org/grpc"
)

type UserService interface {
	Register(ctx context.Context, username, password string) (*models.User, error)
	Login(ctx context.Context, username, password string) (*services.Session, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
}

type DocumentService interface {
	Query(ctx context.Context, caller auth.Identity, table string) ([]records.Document, error)
	Upsert(ctx context.Context, caller auth.Identity, table string, doc records.Document) error
	Delete(ctx context.Context, caller auth.Identity, table, id string) error
}

type SystemService interface {
	Status(ctx context.Context, withCounts bool) (*services.SystemStatus, error)
}

type SnapshotService interface {
	PresignPut(ctx context.Context, userID string) (string, string, error)
}

// Services groups the business logic the server delegates to.
type Services struct {
	Users     UserService
	Documents DocumentService
	System    SystemService
	Snapshots SnapshotService
}

type GRPCServer struct {
	address   string
	services  Services
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(address string, l logging.Logger, secretKey string, svc Services) *GRPCServer {
	return &GRPCServer{
		address:   address,
		logger:    l.With("module", "grpc_server"),
		services:  svc,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor))
	rpc.RegisterSyncServiceServer(srv, s)
	return srv
}

// Run listens on the configured address and serves until ctx is done.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis and stops gracefully when ctx is done.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
