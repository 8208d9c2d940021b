package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bizdash/bizsync/internal/client/client"
	"github.com/bizdash/bizsync/internal/client/localstore"
	"github.com/bizdash/bizsync/internal/logging"
	"github.com/bizdash/bizsync/internal/records"
)

// SnapshotVersion is the format version written into every snapshot.
const SnapshotVersion = 1

// Snapshot is a full dump of the current user's cached records,
// soft-deleted ones included.
type Snapshot struct {
	Version   int                           `json:"version"`
	UserID    string                        `json:"userId"`
	CreatedAt time.Time                     `json:"createdAt"`
	Tables    map[string][]records.Document `json:"tables"`
}

// Uploader sends a body to a presigned URL.
type Uploader interface {
	Upload(ctx context.Context, url string, body []byte) error
}

type SnapshotService struct {
	store    *localstore.Store
	remote   client.Client
	uploader Uploader
	session  *Session
	now      func() time.Time
	logger   logging.Logger
}

func NewSnapshotService(store *localstore.Store, remote client.Client, uploader Uploader, session *Session, logger logging.Logger) *SnapshotService {
	return &SnapshotService{
		store:    store,
		remote:   remote,
		uploader: uploader,
		session:  session,
		now:      time.Now,
		logger:   logger.With("module", "snapshot_service"),
	}
}

// Dump collects the snapshot without sending it anywhere.
func (s *SnapshotService) Dump(ctx context.Context) (*Snapshot, error) {
	id, err := s.session.Current()
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		Version:   SnapshotVersion,
		UserID:    id.UserID,
		CreatedAt: s.now().UTC(),
		Tables:    make(map[string][]records.Document),
	}
	mine := func(d records.Document) bool { return d.UserID == id.UserID }
	for _, name := range records.Names() {
		docs, err := s.store.GetAll(ctx, name, mine, 0)
		if err != nil {
			return nil, fmt.Errorf("dump %s: %w", name, err)
		}
		snap.Tables[name] = docs
	}
	return snap, nil
}

// Export uploads a snapshot to the object storage behind the server and
// returns its key.
func (s *SnapshotService) Export(ctx context.Context) (string, error) {
	snap, err := s.Dump(ctx)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	key, url, err := s.remote.PresignSnapshot(ctx)
	if err != nil {
		return "", fmt.Errorf("presign snapshot: %w", err)
	}
	if err := s.uploader.Upload(ctx, url, body); err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	s.logger.Info(ctx, "snapshot exported", "key", key, "bytes", len(body))
	return key, nil
}
