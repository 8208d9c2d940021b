package grpc

import (
	"context"
	"errors"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/rpc"
	"github.com/bizdash/bizsync/internal/server/auth"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus translates service errors into the codes clients switch on.
func (s *GRPCServer) toStatus(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, common.ErrUnknownTable), errors.Is(err, common.ErrInvalidRecord):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, common.ErrOwnerConflict):
		return status.Error(codes.Aborted, err.Error())
	case errors.Is(err, common.ErrMaintenance):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrUserExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrRefreshTokenExpired):
		return status.Error(codes.Unauthenticated, err.Error())
	}
	s.logger.Error(ctx, err.Error())
	return status.Error(codes.Internal, "internal error")
}

func (s *GRPCServer) caller(ctx context.Context) (auth.Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return auth.Identity{}, status.Error(codes.Unauthenticated, "missing token")
	}
	return id, nil
}

func (s *GRPCServer) RegisterUser(ctx context.Context, req *rpc.RegisterUserRequest) (*rpc.RegisterUserResponse, error) {
	s.logger.Info(ctx, "Registration request")

	u, err := s.services.Users.Register(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	s.logger.Info(ctx, "Registered", "username", u.UserName, "role", u.Role)
	return &rpc.RegisterUserResponse{UserID: u.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	sess, err := s.services.Users.Login(ctx, req.Username, req.Password)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}

	return &rpc.LoginResponse{
		UserID:       sess.User.ID,
		Role:         sess.User.Role,
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
	}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *rpc.RefreshTokenRequest) (*rpc.RefreshTokenResponse, error) {
	pair, err := s.services.Users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.RefreshTokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) SystemStatus(ctx context.Context, req *rpc.SystemStatusRequest) (*rpc.SystemStatusResponse, error) {
	st, err := s.services.System.Status(ctx, false)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.SystemStatusResponse{Maintenance: st.Maintenance, ServerTime: st.ServerTime}, nil
}

func (s *GRPCServer) Query(ctx context.Context, req *rpc.QueryRequest) (*rpc.QueryResponse, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	docs, err := s.services.Documents.Query(ctx, id, req.Table)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.QueryResponse{Documents: docs}, nil
}

func (s *GRPCServer) Upsert(ctx context.Context, req *rpc.UpsertRequest) (*rpc.UpsertResponse, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Documents.Upsert(ctx, id, req.Table, req.Document); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.UpsertResponse{}, nil
}

func (s *GRPCServer) Delete(ctx context.Context, req *rpc.DeleteRequest) (*rpc.DeleteResponse, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.services.Documents.Delete(ctx, id, req.Table, req.ID); err != nil {
		return nil, s.toStatus(ctx, err)
	}
	return &rpc.DeleteResponse{Deleted: true}, nil
}

func (s *GRPCServer) PresignSnapshot(ctx context.Context, req *rpc.PresignSnapshotRequest) (*rpc.PresignSnapshotResponse, error) {
	id, err := s.caller(ctx)
	if err != nil {
		return nil, err
	}
	key, url, err := s.services.Snapshots.PresignPut(ctx, id.UserID)
	if err != nil {
		return nil, s.toStatus(ctx, err)
	}
	s.logger.Info(ctx, "Snapshot upload presigned", "user_id", id.UserID, "key", key)
	return &rpc.PresignSnapshotResponse{Key: key, URL: url}, nil
}
