package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/records"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	Err     error
	lastURL string
	body    []byte
}

func (f *fakeUploader) Upload(_ context.Context, url string, body []byte) error {
	f.lastURL = url
	f.body = append([]byte(nil), body...)
	return f.Err
}

func TestSnapshot_Export(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	clients := For(e.svc, records.Clients)

	live := newClient("Live")
	require.NoError(t, clients.Create(ctx, live))
	gone := newClient("Gone")
	require.NoError(t, clients.Create(ctx, gone))
	require.NoError(t, clients.SoftDelete(ctx, gone.ID))

	e.remote.PresignKey = "snapshots/u-alice/2024-06-01/x.json"
	e.remote.PresignURL = "http://storage.local/put"
	up := &fakeUploader{}
	svc := NewSnapshotService(e.store, e.remote, up, e.session, logging.Nop())

	key, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, e.remote.PresignKey, key)
	assert.Equal(t, "http://storage.local/put", up.lastURL)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(up.body, &snap))
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, alice, snap.UserID)
	assert.Len(t, snap.Tables["clients"], 2)
	assert.Len(t, snap.Tables, len(records.Names()))
}

func TestSnapshot_ExportErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	e.remote.PresignErr = errors.New("no bucket")
	svc := NewSnapshotService(e.store, e.remote, &fakeUploader{}, e.session, logging.Nop())
	_, err := svc.Export(ctx)
	require.ErrorContains(t, err, "presign snapshot")

	e.remote.PresignErr = nil
	svc = NewSnapshotService(e.store, e.remote, &fakeUploader{Err: errors.New("403")}, e.session, logging.Nop())
	_, err = svc.Export(ctx)
	require.ErrorContains(t, err, "upload snapshot")

	e.session.Clear()
	_, err = svc.Dump(ctx)
	require.ErrorIs(t, err, ErrNoSession)
}
