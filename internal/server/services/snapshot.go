package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	sc "github.com/bizdash/bizsync/internal/server/config"
	"github.com/google/uuid"
)

type objectPresigner interface {
	PresignPutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// SnapshotService hands out presigned PUT URLs for client snapshots. The S3
// client is built on first use and reused afterwards.
type SnapshotService struct {
	config *sc.Config
	now    func() time.Time

	once      sync.Once
	presigner objectPresigner
	setupErr  error
}

func NewSnapshotService(cfg *sc.Config) *SnapshotService {
	return &SnapshotService{config: cfg, now: time.Now}
}

// SnapshotKey returns snapshots/<user>/<yyyy-mm-dd>/<uuid>.json.
func SnapshotKey(userID string, t time.Time) string {
	return fmt.Sprintf("snapshots/%s/%s/%s.json", userID, t.UTC().Format(time.DateOnly), uuid.New())
}

// newPresigner targets an S3 compatible endpoint with static credentials
// and path-style addressing, which MinIO requires.
func newPresigner(ctx context.Context, c *sc.Config) (objectPresigner, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(c.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(c.S3RootUser, c.S3RootPassword, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(c.S3BaseEndpoint)
		o.UsePathStyle = true
	})
	return s3.NewPresignClient(client), nil
}

func (s *SnapshotService) client(ctx context.Context) (objectPresigner, error) {
	s.once.Do(func() {
		if s.presigner == nil {
			s.presigner, s.setupErr = newPresigner(ctx, s.config)
		}
	})
	return s.presigner, s.setupErr
}

// PresignPut returns the object key and a presigned PUT URL for a new
// snapshot of userID.
func (s *SnapshotService) PresignPut(ctx context.Context, userID string) (key, url string, err error) {
	p, err := s.client(ctx)
	if err != nil {
		return "", "", err
	}

	key = SnapshotKey(userID, s.now())
	req, err := p.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.S3Bucket),
		Key:         aws.String(key),
		ContentType: aws.String("application/json"),
	}, s3.WithPresignExpires(s.config.SnapshotURLExpiry))
	if err != nil {
		return "", "", fmt.Errorf("presign %s: %w", key, err)
	}
	return key, req.URL, nil
}
