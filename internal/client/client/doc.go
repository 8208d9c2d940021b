// Package client talks to the bizsync server.
//
// # Overview
//
// Client is the transport-agnostic contract used by the sync services:
// authentication (Register, Login), liveness (Ping, SystemStatus) and the
// owner-scoped document operations (Query, Upsert, Delete) plus snapshot
// presigning. GRPCClient implements it over grpc-go with the protobuf codec
// from internal/rpc. It injects the access token into outgoing metadata
// and transparently refreshes it once when the server reports it expired.
//
// # Error Handling
//
// gRPC status codes are mapped to sentinel errors so callers can use
// errors.Is: ErrUnauthorized, ErrUnavailable, common.ErrMaintenance,
// common.ErrOwnerConflict, common.ErrInvalidRecord, common.ErrUnknownTable
// and common.ErrorNotFound. Anything else is wrapped as "rpc error".
//
// GRPCClient is safe for concurrent use.
package client
