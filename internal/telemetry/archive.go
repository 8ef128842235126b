package telemetry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var ErrArchiveCredentials = errors.New("telemetry: archive credentials not set")

// ObjectPutter is the part of *s3.Client the archiver uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ ObjectPutter = (*s3.Client)(nil)

// ArchiveConfig selects where finished CSV files are copied. An empty
// Bucket disables archiving.
type ArchiveConfig struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

func (c ArchiveConfig) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

// Archiver uploads telemetry files to an S3-compatible bucket under
// <prefix>/<run id>/<file name>.
type Archiver struct {
	client ObjectPutter
	bucket string
	prefix string
}

func NewArchiver(client ObjectPutter, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// NewS3Archiver builds an S3 client from cfg. Credentials come from the
// standard AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN
// variables. A custom Endpoint switches to path-style addressing.
func NewS3Archiver(cfg ArchiveConfig) *Archiver {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := s3.Options{
		Region:      region,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(envCredentials)),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
		opts.UsePathStyle = true
	}
	return NewArchiver(s3.New(opts), cfg.Bucket, cfg.Prefix)
}

func envCredentials(context.Context) (aws.Credentials, error) {
	creds := aws.Credentials{
		AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
		Source:          "EnvironmentVariables",
	}
	if creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return aws.Credentials{}, ErrArchiveCredentials
	}
	return creds, nil
}

// Key returns the object key a file is stored under for runID.
func (a *Archiver) Key(runID, file string) string {
	return path.Join(a.prefix, runID, filepath.Base(file))
}

// Archive uploads each file and returns the keys written. It stops at the
// first failure.
func (a *Archiver) Archive(ctx context.Context, runID string, files ...string) ([]string, error) {
	keys := make([]string, 0, len(files))
	for _, file := range files {
		body, err := os.ReadFile(file)
		if err != nil {
			return keys, fmt.Errorf("telemetry: archive %s: %w", file, err)
		}
		key := a.Key(runID, file)
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("text/csv"),
			Metadata: map[string]string{
				"run-id": runID,
			},
		})
		if err != nil {
			return keys, fmt.Errorf("telemetry: archive %s to s3://%s/%s: %w", file, a.bucket, key, err)
		}
		keys = append(keys, key)
	}
	return keys, nil
}
