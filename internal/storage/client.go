package storage

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/billy17-netizen/bubblegum-video-platform-sub000/internal/config"
)

// Client wraps the configured provider with retry behavior and exposes the
// S3-compatible asset bucket used for thumbnails and static files.
type Client struct {
	backend     Provider
	assets      *s3.S3
	assetBucket string
	maxRetries  int
	sleep       func(time.Duration) // swapped out in tests
}

func New(cfg *config.Config) *Client {
	c := &Client{
		backend:    newProvider(cfg),
		maxRetries: cfg.Storage.UploadRetries,
		sleep:      time.Sleep,
	}

	if cfg.Storage.BucketEndpoint != "" {
		s3Config := &aws.Config{
			Credentials:      credentials.NewStaticCredentials(cfg.Storage.BucketKeyID, cfg.Storage.BucketAppKey, ""),
			Endpoint:         aws.String(cfg.Storage.BucketEndpoint),
			Region:           aws.String(cfg.Storage.BucketRegion),
			S3ForcePathStyle: aws.Bool(true),
		}
		sess := session.Must(session.NewSession(s3Config))
		c.assets = s3.New(sess)
		c.assetBucket = cfg.Storage.BucketAssets
	}

	return c
}

// NewWithProvider builds a client around an explicit backend (tests, cleanup worker).
func NewWithProvider(backend Provider, maxRetries int) *Client {
	return &Client{backend: backend, maxRetries: maxRetries, sleep: time.Sleep}
}

func (c *Client) ProviderName() string { return c.backend.Name() }

// UploadVideo pushes the binary to the configured CDN, retrying transient
// failures with doubled delays (1s, 2s, 4s, ...).
func (c *Client) UploadVideo(key string, body io.ReadSeeker, contentType string) (*UploadResult, error) {
	var lastErr error
	delay := time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			slog.Warn("upload retry", "key", key, "attempt", attempt, "error", lastErr)
			c.sleep(delay)
			delay *= 2
		}

		// The body must be rewound before every attempt
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}

		result, err := c.backend.Upload(key, body, contentType)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("upload failed after %d attempts: %w", c.maxRetries+1, lastErr)
}

// DeleteVideo removes a remote asset. Used by the cleanup worker, never
// called inline from request handlers.
func (c *Client) DeleteVideo(remoteID string) error {
	return c.backend.Delete(remoteID)
}

func (c *Client) VideoExists(remoteID string) (bool, error) {
	return c.backend.Exists(remoteID)
}

// UploadAsset stores a thumbnail or static file in the asset bucket.
func (c *Client) UploadAsset(key string, body io.ReadSeeker, contentType, cacheControl string) (string, error) {
	if c.assets == nil {
		return "", fmt.Errorf("asset bucket not configured")
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(c.assetBucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if cacheControl != "" {
		input.CacheControl = aws.String(cacheControl)
	}
	if _, err := c.assets.PutObject(input); err != nil {
		return "", err
	}
	return "/" + c.assetBucket + "/" + key, nil
}

func (c *Client) DeleteAsset(key string) error {
	if c.assets == nil {
		return nil
	}
	_, err := c.assets.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(c.assetBucket),
		Key:    aws.String(key),
	})
	return err
}
