package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/bizdash/bizsync/internal/common"
	"github.com/bizdash/bizsync/internal/records"
	"github.com/bizdash/bizsync/internal/rpc"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

/*************
 * Fake rpc client
 *************/

type fakeRPC struct {
	rpc.SyncServiceClient

	lastRefreshTokenReq *rpc.RefreshTokenRequest
	lastLoginReq        *rpc.LoginRequest
	lastRegisterReq     *rpc.RegisterUserRequest
	lastUpsertReq       *rpc.UpsertRequest
	lastDeleteReq       *rpc.DeleteRequest
	lastQueryReq        *rpc.QueryRequest

	refreshTokenResp *rpc.RefreshTokenResponse
	refreshTokenErr  error

	pingResp *rpc.PingResponse
	pingErr  error

	loginResp *rpc.LoginResponse
	loginErr  error

	registerErr error

	statusResp *rpc.SystemStatusResponse
	statusErr  error

	queryResp *rpc.QueryResponse
	queryErr  error

	upsertErr error
	deleteErr error

	presignResp *rpc.PresignSnapshotResponse
	presignErr  error
}

func (f *fakeRPC) RefreshToken(ctx context.Context, in *rpc.RefreshTokenRequest, opts ...grpc.CallOption) (*rpc.RefreshTokenResponse, error) {
	f.lastRefreshTokenReq = in
	return f.refreshTokenResp, f.refreshTokenErr
}
func (f *fakeRPC) Ping(ctx context.Context, in *rpc.PingRequest, opts ...grpc.CallOption) (*rpc.PingResponse, error) {
	return f.pingResp, f.pingErr
}
func (f *fakeRPC) Login(ctx context.Context, in *rpc.LoginRequest, opts ...grpc.CallOption) (*rpc.LoginResponse, error) {
	f.lastLoginReq = in
	return f.loginResp, f.loginErr
}
func (f *fakeRPC) RegisterUser(ctx context.Context, in *rpc.RegisterUserRequest, opts ...grpc.CallOption) (*rpc.RegisterUserResponse, error) {
	f.lastRegisterReq = in
	return &rpc.RegisterUserResponse{UserID: "new-id"}, f.registerErr
}
func (f *fakeRPC) SystemStatus(ctx context.Context, in *rpc.SystemStatusRequest, opts ...grpc.CallOption) (*rpc.SystemStatusResponse, error) {
	return f.statusResp, f.statusErr
}
func (f *fakeRPC) Query(ctx context.Context, in *rpc.QueryRequest, opts ...grpc.CallOption) (*rpc.QueryResponse, error) {
	f.lastQueryReq = in
	return f.queryResp, f.queryErr
}
func (f *fakeRPC) Upsert(ctx context.Context, in *rpc.UpsertRequest, opts ...grpc.CallOption) (*rpc.UpsertResponse, error) {
	f.lastUpsertReq = in
	return &rpc.UpsertResponse{}, f.upsertErr
}
func (f *fakeRPC) Delete(ctx context.Context, in *rpc.DeleteRequest, opts ...grpc.CallOption) (*rpc.DeleteResponse, error) {
	f.lastDeleteReq = in
	return &rpc.DeleteResponse{Deleted: true}, f.deleteErr
}
func (f *fakeRPC) PresignSnapshot(ctx context.Context, in *rpc.PresignSnapshotRequest, opts ...grpc.CallOption) (*rpc.PresignSnapshotResponse, error) {
	return f.presignResp, f.presignErr
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_RefreshesTokenOnExpiredAndRetries(t *testing.T) {
	f := &fakeRPC{
		refreshTokenResp: &rpc.RefreshTokenResponse{AccessToken: "A2", RefreshToken: "R2"},
	}
	c := &GRPCClient{
		client:       f,
		accessToken:  "A1",
		refreshToken: "R1",
	}

	callCount := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		callCount++
		md, _ := metadata.FromOutgoingContext(ctx)
		toks := md.Get(common.AccessTokenHeaderName)
		require.Len(t, toks, 1)

		if callCount == 1 {
			require.Equal(t, "A1", toks[0])
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		}
		require.Equal(t, "A2", toks[0])
		return nil
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.NoError(t, err)
	require.Equal(t, 2, callCount)
	require.Equal(t, "A2", c.accessToken)
	require.Equal(t, "R2", c.RefreshToken())
	require.Equal(t, "R1", f.lastRefreshTokenReq.RefreshToken)
}

func TestInterceptor_NoRefreshIfNoRefreshToken(t *testing.T) {
	f := &fakeRPC{}
	c := &GRPCClient{
		client:      f,
		accessToken: "A1",
	}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
	require.Nil(t, f.lastRefreshTokenReq)
}

func TestInterceptor_RestoredSessionRefreshesMissingAccessToken(t *testing.T) {
	f := &fakeRPC{
		refreshTokenResp: &rpc.RefreshTokenResponse{AccessToken: "A", RefreshToken: "R2"},
	}
	c := &GRPCClient{client: f}
	c.SetRefreshToken("R1")

	calls := 0
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		calls++
		if calls == 1 {
			md, _ := metadata.FromOutgoingContext(ctx)
			require.Empty(t, md.Get(common.AccessTokenHeaderName))
			return status.Error(codes.Unauthenticated, "missing token")
		}
		return nil
	}

	require.NoError(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
	require.Equal(t, 2, calls)
	require.Equal(t, "R2", c.RefreshToken())
}

func TestInterceptor_RefreshFailureReturnsOriginalError(t *testing.T) {
	f := &fakeRPC{refreshTokenErr: status.Error(codes.Unauthenticated, "refresh token expired")}
	c := &GRPCClient{client: f, accessToken: "A", refreshToken: "R"}

	orig := status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return orig
	}

	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Equal(t, orig, err)
}

func TestInterceptor_IgnoresOtherErrors(t *testing.T) {
	c := &GRPCClient{accessToken: "X"}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Internal, "boom")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
}

func TestInterceptor_UnauthenticatedButDifferentMessage_NoRefresh(t *testing.T) {
	c := &GRPCClient{accessToken: "X", refreshToken: "R"}
	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		return status.Error(codes.Unauthenticated, "some other reason")
	}
	err := c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker)
	require.Error(t, err)
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.Nil(t, c.mapError(nil))
	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.Unauthenticated, "x")))
	require.Equal(t, ErrUnauthorized, c.mapError(status.Error(codes.PermissionDenied, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.ErrorIs(t, c.mapError(status.Error(codes.FailedPrecondition, "x")), common.ErrMaintenance)
	require.ErrorIs(t, c.mapError(status.Error(codes.Aborted, "x")), common.ErrOwnerConflict)
	require.ErrorIs(t, c.mapError(status.Error(codes.NotFound, "x")), common.ErrorNotFound)
	require.ErrorIs(t, c.mapError(status.Error(codes.AlreadyExists, "x")), common.ErrUserExists)
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, `unknown table: "x"`)), common.ErrUnknownTable)
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "invalid record: id")), common.ErrInvalidRecord)
	e := errors.New("plain")
	require.ErrorContains(t, c.mapError(e), "rpc error:")
}

/*************
 * call tests
 *************/

func TestPing(t *testing.T) {
	c := &GRPCClient{client: &fakeRPC{pingResp: &rpc.PingResponse{Status: "OK"}}}
	require.NoError(t, c.Ping(context.Background()))

	c = &GRPCClient{client: &fakeRPC{pingResp: &rpc.PingResponse{Status: "NOT_OK"}}}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)

	c = &GRPCClient{client: &fakeRPC{pingErr: status.Error(codes.Unavailable, "down")}}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestLogin_SetsTokens(t *testing.T) {
	f := &fakeRPC{loginResp: &rpc.LoginResponse{UserID: "u1", Role: "admin", AccessToken: "A", RefreshToken: "R"}}
	c := &GRPCClient{client: f}

	res, err := c.Login(context.Background(), "ana", "pw")
	require.NoError(t, err)
	require.Equal(t, &LoginResult{UserID: "u1", Role: "admin", RefreshToken: "R"}, res)
	require.Equal(t, "A", c.accessToken)
	require.Equal(t, "R", c.refreshToken)
	require.Equal(t, "ana", f.lastLoginReq.Username)
	require.Equal(t, "pw", f.lastLoginReq.Password)
}

func TestRegister(t *testing.T) {
	f := &fakeRPC{}
	c := &GRPCClient{client: f}
	id, err := c.Register(context.Background(), "ana", "pw")
	require.NoError(t, err)
	require.Equal(t, "new-id", id)

	f.registerErr = status.Error(codes.AlreadyExists, "taken")
	_, err = c.Register(context.Background(), "ana", "pw")
	require.ErrorIs(t, err, common.ErrUserExists)
}

func TestSystemStatus(t *testing.T) {
	c := &GRPCClient{client: &fakeRPC{statusResp: &rpc.SystemStatusResponse{Maintenance: true}}}
	on, err := c.SystemStatus(context.Background())
	require.NoError(t, err)
	require.True(t, on)

	c = &GRPCClient{client: &fakeRPC{statusErr: status.Error(codes.Unavailable, "x")}}
	_, err = c.SystemStatus(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestQuery(t *testing.T) {
	f := &fakeRPC{queryResp: &rpc.QueryResponse{Documents: []records.Document{{ID: "s1"}}}}
	c := &GRPCClient{client: f}

	docs, err := c.Query(context.Background(), "sales")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "sales", f.lastQueryReq.Table)

	f.queryResp = &rpc.QueryResponse{}
	docs, err = c.Query(context.Background(), "sales")
	require.NoError(t, err)
	require.NotNil(t, docs)
	require.Empty(t, docs)
}

func TestUpsertDelete(t *testing.T) {
	f := &fakeRPC{}
	c := &GRPCClient{client: f}
	doc := records.Document{ID: "s1", UserID: "u1", Data: json.RawMessage(`{}`)}

	require.NoError(t, c.Upsert(context.Background(), "sales", doc))
	require.Equal(t, "s1", f.lastUpsertReq.Document.ID)

	f.upsertErr = status.Error(codes.Aborted, "owner")
	require.ErrorIs(t, c.Upsert(context.Background(), "sales", doc), common.ErrOwnerConflict)

	require.NoError(t, c.Delete(context.Background(), "sales", "s1"))
	require.Equal(t, "s1", f.lastDeleteReq.ID)

	f.deleteErr = status.Error(codes.FailedPrecondition, "maintenance")
	require.ErrorIs(t, c.Delete(context.Background(), "sales", "s1"), common.ErrMaintenance)
}

func TestPresignSnapshot(t *testing.T) {
	c := &GRPCClient{client: &fakeRPC{presignResp: &rpc.PresignSnapshotResponse{Key: "k", URL: "https://u"}}}
	key, url, err := c.PresignSnapshot(context.Background())
	require.NoError(t, err)
	require.Equal(t, "k", key)
	require.Equal(t, "https://u", url)

	c = &GRPCClient{client: &fakeRPC{presignErr: status.Error(codes.PermissionDenied, "x")}}
	_, _, err = c.PresignSnapshot(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
}

/*************
 * end to end over bufconn
 *************/

type tokenServer struct {
	rpc.SyncServiceServer

	mu      sync.Mutex
	valid   string
	queries int
}

func (s *tokenServer) RefreshToken(ctx context.Context, in *rpc.RefreshTokenRequest) (*rpc.RefreshTokenResponse, error) {
	if in.RefreshToken != "R1" {
		return nil, status.Error(codes.Unauthenticated, common.ErrRefreshTokenExpired.Error())
	}
	s.mu.Lock()
	s.valid = "A2"
	s.mu.Unlock()
	return &rpc.RefreshTokenResponse{AccessToken: "A2", RefreshToken: "R2"}, nil
}

func (s *tokenServer) Query(ctx context.Context, in *rpc.QueryRequest) (*rpc.QueryResponse, error) {
	md, _ := metadata.FromIncomingContext(ctx)
	tok := md.Get(common.AccessTokenHeaderName)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries++
	if len(tok) == 0 || tok[0] != s.valid {
		return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	}
	return &rpc.QueryResponse{Documents: []records.Document{{ID: "s1", UserID: "u1", Data: json.RawMessage(`{"id":"s1"}`)}}}, nil
}

func TestGRPCClient_Bufconn_RefreshesExpiredToken(t *testing.T) {
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	ts := &tokenServer{valid: "fresh-only"}
	rpc.RegisterSyncServiceServer(srv, ts)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	c, err := NewGRPCClient("passthrough:///bufnet", grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	c.setTokens("A1", "R1")

	docs, err := c.Query(context.Background(), "sales")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	require.Equal(t, "s1", docs[0].ID)
	require.Equal(t, 2, ts.queries)
	require.Equal(t, "R2", c.RefreshToken())
}
