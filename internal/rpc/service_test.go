package rpc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/bizdash/bizsync/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type fakeServer struct {
	SyncServiceServer
	lastUpsert *UpsertRequest
	queryErr   error
}

func (f *fakeServer) Ping(context.Context, *PingRequest) (*PingResponse, error) {
	return &PingResponse{Status: "OK"}, nil
}

func (f *fakeServer) Query(_ context.Context, in *QueryRequest) (*QueryResponse, error) {
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	return &QueryResponse{Documents: []records.Document{{
		ID:     "s1",
		UserID: "u1",
		Data:   json.RawMessage(`{"id":"s1","userId":"u1","total":"10"}`),
	}}}, nil
}

func (f *fakeServer) Upsert(_ context.Context, in *UpsertRequest) (*UpsertResponse, error) {
	f.lastUpsert = in
	return &UpsertResponse{}, nil
}

func dial(t *testing.T, srv SyncServiceServer, opts ...grpc.ServerOption) SyncServiceClient {
	t.Helper()

	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer(opts...)
	RegisterSyncServiceServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return NewSyncServiceClient(conn)
}

func TestFullMethod(t *testing.T) {
	assert.Equal(t, "/bizsync.v1.SyncService/Ping", FullMethod(MethodPing))
}

func TestClient_RoundTrip(t *testing.T) {
	srv := &fakeServer{}
	c := dial(t, srv)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pong, err := c.Ping(ctx, &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, "OK", pong.Status)

	res, err := c.Query(ctx, &QueryRequest{Table: "sales"})
	require.NoError(t, err)
	require.Len(t, res.Documents, 1)
	assert.Equal(t, "s1", res.Documents[0].ID)
	assert.JSONEq(t, `{"id":"s1","userId":"u1","total":"10"}`, string(res.Documents[0].Data))

	_, err = c.Upsert(ctx, &UpsertRequest{Table: "sales", Document: records.Document{ID: "s2", UserID: "u1", Data: json.RawMessage(`{"id":"s2"}`)}})
	require.NoError(t, err)
	require.NotNil(t, srv.lastUpsert)
	assert.Equal(t, "sales", srv.lastUpsert.Table)
	assert.Equal(t, "s2", srv.lastUpsert.Document.ID)
}

func TestClient_PropagatesStatus(t *testing.T) {
	srv := &fakeServer{queryErr: status.Error(codes.FailedPrecondition, "maintenance")}
	c := dial(t, srv)

	_, err := c.Query(context.Background(), &QueryRequest{Table: "sales"})
	require.Error(t, err)
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestServer_InterceptorSeesFullMethod(t *testing.T) {
	var seen string
	icpt := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		return h(ctx, req)
	}
	c := dial(t, &fakeServer{}, grpc.UnaryInterceptor(icpt))

	_, err := c.Ping(context.Background(), &PingRequest{})
	require.NoError(t, err)
	assert.Equal(t, FullMethod(MethodPing), seen)
}
