package netx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sethvargo/go-retry"
)

// StatusError is a non-2xx answer from the upload target.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upload failed: %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

// Uploader PUTs payloads to presigned URLs. Server errors (5xx) and
// transport failures are retried with exponential backoff; other statuses
// fail immediately.
type Uploader struct {
	HTTP        *http.Client
	ContentType string
	Attempts    uint64
	BaseDelay   time.Duration
}

func NewUploader() *Uploader {
	return &Uploader{
		HTTP:        &http.Client{Timeout: 30 * time.Second},
		ContentType: "application/json",
		Attempts:    3,
		BaseDelay:   200 * time.Millisecond,
	}
}

func (u *Uploader) Upload(ctx context.Context, url string, body []byte) error {
	attempts := u.Attempts
	if attempts == 0 {
		attempts = 1
	}
	b := retry.WithMaxRetries(attempts-1, retry.NewExponential(u.BaseDelay))

	return retry.Do(ctx, b, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", u.ContentType)

		resp, err := u.HTTP.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		serr := &StatusError{Code: resp.StatusCode, Body: string(msg)}
		if resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(serr)
		}
		return serr
	})
}
