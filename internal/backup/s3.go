package backup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/unjobhub/backend/internal/config"
	"github.com/unjobhub/backend/internal/logger"
)

const snapshotContentType = "application/vnd.sqlite3"

// Client uploads snapshots of the local database file to an
// S3-compatible bucket after a sync. A Client with no bucket configured
// is valid and skips every upload.
type Client struct {
	s3     *s3.Client
	bucket string
	log    *logger.Logger
	now    func() time.Time
}

// New creates a backup Client from configuration.
// Parameters:
//   - cfg: backup settings; an empty Bucket disables uploads.
//   - log: logger, may be nil.
// Returns:
//   - *Client: client instance; never nil on success.
//   - error: non-nil if the AWS configuration cannot be built.
func New(cfg *config.BackupConfig, log *logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.NewDefault()
	}
	if cfg == nil || cfg.Bucket == "" {
		return &Client{log: log, now: time.Now}, nil
	}

	region := cfg.Region
	if region == "" {
		region = "auto"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", scheme, normalizeEndpoint(cfg.Endpoint))

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(endpointURL)
		}
		o.UsePathStyle = true
	})

	return &Client{s3: client, bucket: cfg.Bucket, log: log, now: time.Now}, nil
}

// normalizeEndpoint removes protocol prefix and path from endpoint
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")
	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}
	return strings.TrimSuffix(endpoint, "/")
}

// Configured reports whether a destination bucket is set.
func (c *Client) Configured() bool {
	return c.s3 != nil && c.bucket != ""
}

// Snapshot uploads the database file at dbPath under a timestamped key.
// A no-op returning ("", nil) when no bucket is configured.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - dbPath: path to the SQLite file.
// Returns:
//   - string: object key of the uploaded snapshot, empty when skipped.
//   - error: non-nil if the read or upload fails.
func (c *Client) Snapshot(ctx context.Context, dbPath string) (string, error) {
	if !c.Configured() {
		c.log.Debug("backup bucket not configured, skipping snapshot")
		return "", nil
	}

	f, err := os.Open(dbPath)
	if err != nil {
		return "", fmt.Errorf("failed to open database file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat database file: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s/%s",
		c.now().UTC().Format("2006-01-02T15-04-05Z"),
		filepath.Base(dbPath))

	_, err = c.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(snapshotContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	c.log.WithFields(logger.Fields{
		"key":        key,
		"size_bytes": info.Size(),
	}).Info("uploaded database snapshot")
	return key, nil
}
