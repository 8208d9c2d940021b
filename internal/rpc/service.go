package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "bizsync.v1.SyncService"

const (
	MethodRegisterUser    = "RegisterUser"
	MethodLogin           = "Login"
	MethodRefreshToken    = "RefreshToken"
	MethodPing            = "Ping"
	MethodSystemStatus    = "SystemStatus"
	MethodQuery           = "Query"
	MethodUpsert          = "Upsert"
	MethodDelete          = "Delete"
	MethodPresignSnapshot = "PresignSnapshot"
)

// FullMethod returns the "/service/method" path used by interceptors.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// SyncServiceServer is implemented by the server.
type SyncServiceServer interface {
	RegisterUser(context.Context, *RegisterUserRequest) (*RegisterUserResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Ping(context.Context, *PingRequest) (*PingResponse, error)
	SystemStatus(context.Context, *SystemStatusRequest) (*SystemStatusResponse, error)
	Query(context.Context, *QueryRequest) (*QueryResponse, error)
	Upsert(context.Context, *UpsertRequest) (*UpsertResponse, error)
	Delete(context.Context, *DeleteRequest) (*DeleteResponse, error)
	PresignSnapshot(context.Context, *PresignSnapshotRequest) (*PresignSnapshotResponse, error)
}

func unary[Req, Resp any](method string, call func(SyncServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SyncServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SyncServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes SyncService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SyncServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegisterUser, SyncServiceServer.RegisterUser),
		unary(MethodLogin, SyncServiceServer.Login),
		unary(MethodRefreshToken, SyncServiceServer.RefreshToken),
		unary(MethodPing, SyncServiceServer.Ping),
		unary(MethodSystemStatus, SyncServiceServer.SystemStatus),
		unary(MethodQuery, SyncServiceServer.Query),
		unary(MethodUpsert, SyncServiceServer.Upsert),
		unary(MethodDelete, SyncServiceServer.Delete),
		unary(MethodPresignSnapshot, SyncServiceServer.PresignSnapshot),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "bizsync/v1/sync.proto",
}

// RegisterSyncServiceServer registers srv on s.
func RegisterSyncServiceServer(s grpc.ServiceRegistrar, srv SyncServiceServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// SyncServiceClient is the client API for SyncService.
type SyncServiceClient interface {
	RegisterUser(ctx context.Context, in *RegisterUserRequest, opts ...grpc.CallOption) (*RegisterUserResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error)
	Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error)
	SystemStatus(ctx context.Context, in *SystemStatusRequest, opts ...grpc.CallOption) (*SystemStatusResponse, error)
	Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (*QueryResponse, error)
	Upsert(ctx context.Context, in *UpsertRequest, opts ...grpc.CallOption) (*UpsertResponse, error)
	Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error)
	PresignSnapshot(ctx context.Context, in *PresignSnapshotRequest, opts ...grpc.CallOption) (*PresignSnapshotResponse, error)
}

type syncServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSyncServiceClient wraps cc. The connection should be created with
// CallContentSubtype(CodecName) as a default call option.
func NewSyncServiceClient(cc grpc.ClientConnInterface) SyncServiceClient {
	return &syncServiceClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *syncServiceClient) RegisterUser(ctx context.Context, in *RegisterUserRequest, opts ...grpc.CallOption) (*RegisterUserResponse, error) {
	return invoke[RegisterUserResponse](ctx, c.cc, MethodRegisterUser, in, opts)
}

func (c *syncServiceClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *syncServiceClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *syncServiceClient) Ping(ctx context.Context, in *PingRequest, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, MethodPing, in, opts)
}

func (c *syncServiceClient) SystemStatus(ctx context.Context, in *SystemStatusRequest, opts ...grpc.CallOption) (*SystemStatusResponse, error) {
	return invoke[SystemStatusResponse](ctx, c.cc, MethodSystemStatus, in, opts)
}

func (c *syncServiceClient) Query(ctx context.Context, in *QueryRequest, opts ...grpc.CallOption) (*QueryResponse, error) {
	return invoke[QueryResponse](ctx, c.cc, MethodQuery, in, opts)
}

func (c *syncServiceClient) Upsert(ctx context.Context, in *UpsertRequest, opts ...grpc.CallOption) (*UpsertResponse, error) {
	return invoke[UpsertResponse](ctx, c.cc, MethodUpsert, in, opts)
}

func (c *syncServiceClient) Delete(ctx context.Context, in *DeleteRequest, opts ...grpc.CallOption) (*DeleteResponse, error) {
	return invoke[DeleteResponse](ctx, c.cc, MethodDelete, in, opts)
}

func (c *syncServiceClient) PresignSnapshot(ctx context.Context, in *PresignSnapshotRequest, opts ...grpc.CallOption) (*PresignSnapshotResponse, error) {
	return invoke[PresignSnapshotResponse](ctx, c.cc, MethodPresignSnapshot, in, opts)
}
